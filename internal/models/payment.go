package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotInEscrow возвращается при попытке освободить средства не-эскроу платежа.
	ErrNotInEscrow = errors.New("payment is not in escrow")
	// ErrAlreadyRefunded возвращается при повторном возврате средств.
	ErrAlreadyRefunded = errors.New("payment is already refunded")
	// ErrPaymentFinalized возвращается при попытке оспорить завершённый платёж.
	ErrPaymentFinalized = errors.New("payment is in terminal status")
)

// Payment — запись о движении средств между плательщиком и получателем.
// Для эскроу-платежей хранит двустороннее подтверждение и состояние спора.
type Payment struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PayerID     uuid.UUID  `db:"payer_id" json:"payer_id"`
	RecipientID *uuid.UUID `db:"recipient_id" json:"recipient_id,omitempty"`
	ContractID  *uuid.UUID `db:"contract_id" json:"contract_id,omitempty"`
	JobID       *uuid.UUID `db:"job_id" json:"job_id,omitempty"`
	Amount      float64    `db:"amount" json:"amount"`
	Currency    string     `db:"currency" json:"currency"`
	PaymentType string     `db:"payment_type" json:"payment_type"`
	PaymentMethod string   `db:"payment_method" json:"payment_method"`
	Status      string     `db:"status" json:"status"`
	IsEscrow    bool       `db:"is_escrow" json:"is_escrow"`

	PayerConfirmed        bool       `db:"payer_confirmed" json:"payer_confirmed"`
	PayerConfirmedAt      *time.Time `db:"payer_confirmed_at" json:"payer_confirmed_at,omitempty"`
	RecipientConfirmed    bool       `db:"recipient_confirmed" json:"recipient_confirmed"`
	RecipientConfirmedAt  *time.Time `db:"recipient_confirmed_at" json:"recipient_confirmed_at,omitempty"`

	DisputeID        *uuid.UUID `db:"dispute_id" json:"dispute_id,omitempty"`
	DisputeReason    *string    `db:"dispute_reason" json:"dispute_reason,omitempty"`
	DisputedBy       *uuid.UUID `db:"disputed_by" json:"disputed_by,omitempty"`
	DisputedAt       *time.Time `db:"disputed_at" json:"disputed_at,omitempty"`
	PreDisputeStatus *string    `db:"pre_dispute_status" json:"-"`

	RefundReason *string    `db:"refund_reason" json:"refund_reason,omitempty"`
	RefundedBy   *uuid.UUID `db:"refunded_by" json:"refunded_by,omitempty"`
	RefundedAt   *time.Time `db:"refunded_at" json:"refunded_at,omitempty"`

	EscrowReleasedAt *time.Time `db:"escrow_released_at" json:"escrow_released_at,omitempty"`
	EscrowReleasedBy *uuid.UUID `db:"escrow_released_by" json:"escrow_released_by,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsInEscrow сообщает, удерживаются ли средства на эскроу прямо сейчас.
func (p *Payment) IsInEscrow() bool {
	if !p.IsEscrow || p.EscrowReleasedAt != nil {
		return false
	}
	return p.Status == PaymentStatusHeldEscrow || p.Status == PaymentStatusAwaitingConfirmation
}

// IsDisputed сообщает, оспорен ли платёж.
// Проверяем и статус, и dispute_id: при рассинхронизации статуса dispute_id надёжнее.
func (p *Payment) IsDisputed() bool {
	return p.Status == PaymentStatusDisputed || p.DisputeID != nil
}

// isTerminal: из refunded и completed переходов больше нет.
func (p *Payment) isTerminal() bool {
	return p.Status == PaymentStatusRefunded || p.Status == PaymentStatusCompleted
}

// ConfirmBy отмечает подтверждение выполнения стороной userID.
// Повторное подтверждение той же стороной ничего не меняет.
// Возвращает true только если после вызова подтвердили обе стороны.
// Чужой userID игнорируется: метод возвращает false без изменений.
func (p *Payment) ConfirmBy(userID uuid.UUID, now time.Time) bool {
	switch {
	case userID == p.PayerID:
		if !p.PayerConfirmed {
			p.PayerConfirmed = true
			t := now
			p.PayerConfirmedAt = &t
		}
	case p.RecipientID != nil && userID == *p.RecipientID:
		if !p.RecipientConfirmed {
			p.RecipientConfirmed = true
			t := now
			p.RecipientConfirmedAt = &t
		}
	default:
		return false
	}

	if p.PayerConfirmed && p.RecipientConfirmed && p.Status == PaymentStatusHeldEscrow {
		p.Status = PaymentStatusAwaitingConfirmation
	}

	return p.PayerConfirmed && p.RecipientConfirmed
}

// ReleaseEscrow освобождает средства из эскроу в пользу получателя.
// Повторный вызов после освобождения ничего не делает (идемпотентность).
func (p *Payment) ReleaseEscrow(releasedBy *uuid.UUID, now time.Time) error {
	if !p.IsEscrow {
		return ErrNotInEscrow
	}
	if p.EscrowReleasedAt != nil {
		return nil
	}

	t := now
	p.EscrowReleasedAt = &t
	p.EscrowReleasedBy = releasedBy
	p.Status = PaymentStatusCompleted
	return nil
}

// MarkAsDisputed замораживает платёж до решения администратора.
// Допустим из любого нетерминального статуса; прежний статус
// запоминается, чтобы при снятии спора вернуться именно в него.
func (p *Payment) MarkAsDisputed(userID uuid.UUID, reason string, disputeID uuid.UUID, now time.Time) error {
	if p.isTerminal() {
		return ErrPaymentFinalized
	}

	t := now
	prev := p.Status
	p.PreDisputeStatus = &prev
	p.Status = PaymentStatusDisputed
	p.DisputeID = &disputeID
	p.DisputeReason = &reason
	p.DisputedBy = &userID
	p.DisputedAt = &t
	return nil
}

// CancelDispute снимает спор без движения средств и возвращает платёж
// в статус, который был до открытия спора.
func (p *Payment) CancelDispute() {
	if p.PreDisputeStatus != nil {
		p.Status = *p.PreDisputeStatus
	} else {
		p.Status = PaymentStatusHeldEscrow
	}
	p.PreDisputeStatus = nil
	p.DisputeID = nil
	p.DisputeReason = nil
	p.DisputedBy = nil
	p.DisputedAt = nil
}

// ProcessRefund возвращает средства плательщику.
// Повторный возврат запрещён.
func (p *Payment) ProcessRefund(reason string, refundedBy uuid.UUID, now time.Time) error {
	if p.Status == PaymentStatusRefunded {
		return ErrAlreadyRefunded
	}

	t := now
	p.Status = PaymentStatusRefunded
	p.RefundReason = &reason
	p.RefundedBy = &refundedBy
	p.RefundedAt = &t
	return nil
}
