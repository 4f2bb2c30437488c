package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
)

// PaymentRepository отвечает за записи о движении средств.
// Все изменения состояния выполняются в транзакциях с FOR UPDATE:
// два одновременных подтверждения или решения по одному платежу
// применяются строго по очереди.
type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create сохраняет новый платёж в статусе pending.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.Currency == "" {
		payment.Currency = models.DefaultCurrency
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}

	query := `
		INSERT INTO payments (payer_id, recipient_id, contract_id, job_id, amount, currency,
			payment_type, payment_method, status, is_escrow)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(ctx, query,
		payment.PayerID, payment.RecipientID, payment.ContractID, payment.JobID,
		payment.Amount, payment.Currency, payment.PaymentType, payment.PaymentMethod,
		payment.Status, payment.IsEscrow,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt); err != nil {
		return fmt.Errorf("payment repository: create %w", err)
	}

	return nil
}

// GetByID возвращает платёж по идентификатору.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, `SELECT * FROM payments WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get by id %w", err)
	}
	return &payment, nil
}

// ListByUser возвращает платежи, где пользователь — плательщик или получатель.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Payment, error) {
	var payments []models.Payment
	query := `
		SELECT * FROM payments
		WHERE payer_id = $1 OR recipient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &payments, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("payment repository: list by user %w", err)
	}
	return payments, nil
}

// MarkFunded переводит платёж из pending в held_escrow после оплаты клиентом.
func (r *PaymentRepository) MarkFunded(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	return r.mutate(ctx, paymentID, func(payment *models.Payment, now time.Time) error {
		if payment.Status != models.PaymentStatusPending {
			return fmt.Errorf("payment repository: нельзя оплатить платёж в статусе %s", payment.Status)
		}
		if payment.IsEscrow {
			payment.Status = models.PaymentStatusHeldEscrow
		} else {
			payment.Status = models.PaymentStatusCompleted
		}
		return nil
	})
}

// Confirm отмечает подтверждение стороной userID.
// Когда подтверждают обе стороны, эскроу освобождается в той же транзакции.
// Возвращает платёж и признак того, что обе стороны подтвердили.
func (r *PaymentRepository) Confirm(ctx context.Context, paymentID, userID uuid.UUID) (*models.Payment, bool, error) {
	var both bool
	payment, err := r.mutate(ctx, paymentID, func(payment *models.Payment, now time.Time) error {
		var err error
		both, err = confirmTransition(payment, userID, now)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return payment, both, nil
}

// confirmTransition применяет подтверждение к платежу в памяти.
// Подтверждения принимаются только пока средства удерживаются на эскроу:
// неоплаченный pending-платёж нельзя «подтвердить» в completed,
// средства сначала должны быть внесены через MarkFunded.
func confirmTransition(payment *models.Payment, userID uuid.UUID, now time.Time) (bool, error) {
	if payment.IsDisputed() {
		// Оспоренный платёж заморожен до решения администратора.
		return false, apperror.ErrPaymentFrozen
	}
	if !payment.IsInEscrow() {
		return false, apperror.ErrPaymentNotInEscrow
	}

	both := payment.ConfirmBy(userID, now)
	if both {
		releasedBy := userID
		if err := payment.ReleaseEscrow(&releasedBy, now); err != nil {
			return false, err
		}
	}
	return both, nil
}

// Release освобождает эскроу вручную (решение администратора по спору).
func (r *PaymentRepository) Release(ctx context.Context, paymentID uuid.UUID, releasedBy *uuid.UUID) (*models.Payment, error) {
	return r.mutate(ctx, paymentID, func(payment *models.Payment, now time.Time) error {
		return payment.ReleaseEscrow(releasedBy, now)
	})
}

// MarkDisputed замораживает платёж по открытому спору.
func (r *PaymentRepository) MarkDisputed(ctx context.Context, paymentID, userID uuid.UUID, reason string, disputeID uuid.UUID) (*models.Payment, error) {
	return r.mutate(ctx, paymentID, func(payment *models.Payment, now time.Time) error {
		return payment.MarkAsDisputed(userID, reason, disputeID, now)
	})
}

// Refund возвращает средства плательщику.
func (r *PaymentRepository) Refund(ctx context.Context, paymentID uuid.UUID, reason string, refundedBy uuid.UUID) (*models.Payment, error) {
	return r.mutate(ctx, paymentID, func(payment *models.Payment, now time.Time) error {
		return payment.ProcessRefund(reason, refundedBy, now)
	})
}

// mutate применяет переход состояния к платежу под блокировкой строки.
func (r *PaymentRepository) mutate(ctx context.Context, paymentID uuid.UUID, transition func(*models.Payment, time.Time) error) (*models.Payment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	payment, err := getPaymentForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, err
	}

	if err := transition(payment, time.Now()); err != nil {
		return nil, err
	}

	if err := savePaymentTx(ctx, tx, payment); err != nil {
		return nil, err
	}

	return payment, tx.Commit()
}

// getPaymentForUpdate читает платёж с блокировкой строки внутри транзакции.
func getPaymentForUpdate(ctx context.Context, tx *sqlx.Tx, paymentID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := tx.GetContext(ctx, &payment, `SELECT * FROM payments WHERE id = $1 FOR UPDATE`, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get for update %w", err)
	}
	return &payment, nil
}

// savePaymentTx записывает изменяемые поля платежа внутри транзакции.
func savePaymentTx(ctx context.Context, tx *sqlx.Tx, payment *models.Payment) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status = $2,
			payer_confirmed = $3, payer_confirmed_at = $4,
			recipient_confirmed = $5, recipient_confirmed_at = $6,
			dispute_id = $7, dispute_reason = $8, disputed_by = $9, disputed_at = $10,
			pre_dispute_status = $11,
			refund_reason = $12, refunded_by = $13, refunded_at = $14,
			escrow_released_at = $15, escrow_released_by = $16,
			updated_at = NOW()
		WHERE id = $1
	`, payment.ID, payment.Status,
		payment.PayerConfirmed, payment.PayerConfirmedAt,
		payment.RecipientConfirmed, payment.RecipientConfirmedAt,
		payment.DisputeID, payment.DisputeReason, payment.DisputedBy, payment.DisputedAt,
		payment.PreDisputeStatus,
		payment.RefundReason, payment.RefundedBy, payment.RefundedAt,
		payment.EscrowReleasedAt, payment.EscrowReleasedBy)
	if err != nil {
		return fmt.Errorf("payment repository: save %w", err)
	}
	return nil
}
