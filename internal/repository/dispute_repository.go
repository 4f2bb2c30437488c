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
	ErrDisputeNotFound = errors.New("dispute not found")
)

// DisputeRepository отвечает за споры и их решение администратором.
type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Create открывает спор и замораживает платёж одной транзакцией.
func (r *DisputeRepository) Create(ctx context.Context, dispute *models.Dispute) (*models.Payment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	payment, err := getPaymentForUpdate(ctx, tx, dispute.PaymentID)
	if err != nil {
		return nil, err
	}

	if payment.IsDisputed() {
		return nil, apperror.New(apperror.ErrCodeStateConflict, "по этому платежу уже открыт спор")
	}

	dispute.Status = models.DisputeStatusOpen
	dispute.ContractID = payment.ContractID

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO disputes (payment_id, contract_id, raised_by, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, dispute.PaymentID, dispute.ContractID, dispute.RaisedBy, dispute.Reason, dispute.Status,
	).Scan(&dispute.ID, &dispute.CreatedAt, &dispute.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: create %w", err)
	}

	now := time.Now()
	if err := payment.MarkAsDisputed(dispute.RaisedBy, dispute.Reason, dispute.ID, now); err != nil {
		if errors.Is(err, models.ErrPaymentFinalized) {
			return nil, apperror.New(apperror.ErrCodeStateConflict, "платёж уже завершён, спор невозможен")
		}
		return nil, err
	}

	if err := savePaymentTx(ctx, tx, payment); err != nil {
		return nil, err
	}

	if err := appendAuditTx(ctx, tx, dispute.ID, dispute.RaisedBy, "dispute_opened", &dispute.Reason); err != nil {
		return nil, err
	}

	return payment, tx.Commit()
}

// GetByID возвращает спор по идентификатору.
func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var dispute models.Dispute
	if err := r.db.GetContext(ctx, &dispute, `SELECT * FROM disputes WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("dispute repository: get by id %w", err)
	}
	return &dispute, nil
}

// List возвращает споры с фильтром по статусу (пустой статус — все).
func (r *DisputeRepository) List(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error) {
	query := `SELECT * FROM disputes`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var disputes []models.Dispute
	if err := r.db.SelectContext(ctx, &disputes, query, args...); err != nil {
		return nil, fmt.Errorf("dispute repository: list %w", err)
	}
	return disputes, nil
}

// UpdateStatus переводит открытый спор в промежуточный статус (in_review, awaiting_info).
func (r *DisputeRepository) UpdateStatus(ctx context.Context, disputeID, adminID uuid.UUID, status string) (*models.Dispute, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	dispute, err := getDisputeForUpdate(ctx, tx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.IsTerminal() {
		return nil, apperror.ErrDisputeResolved
	}

	dispute.Status = status
	_, err = tx.ExecContext(ctx, `UPDATE disputes SET status = $2, updated_at = NOW() WHERE id = $1`, disputeID, status)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: update status %w", err)
	}

	if err := appendAuditTx(ctx, tx, disputeID, adminID, "status_changed:"+status, nil); err != nil {
		return nil, err
	}

	return dispute, tx.Commit()
}

// ResolveParams — входные данные решения спора администратором.
type ResolveParams struct {
	DisputeID      uuid.UUID
	AdminID        uuid.UUID
	ResolutionType string
	RefundAmount   *float64
}

// ResolveResult — итог решения: закрытый спор и обновлённый платёж.
type ResolveResult struct {
	Dispute *models.Dispute
	Payment *models.Payment
}

// Resolve закрывает спор и двигает средства одной транзакцией.
// Спор и платёж блокируются FOR UPDATE: два администратора не могут
// закрыть один спор дважды — второй получит ErrDisputeResolved.
func (r *DisputeRepository) Resolve(ctx context.Context, p ResolveParams) (*ResolveResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	dispute, err := getDisputeForUpdate(ctx, tx, p.DisputeID)
	if err != nil {
		return nil, err
	}
	if dispute.IsTerminal() {
		return nil, apperror.ErrDisputeResolved
	}

	payment, err := getPaymentForUpdate(ctx, tx, dispute.PaymentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	adminID := p.AdminID

	switch p.ResolutionType {
	case models.ResolutionFullRelease:
		if err := payment.ReleaseEscrow(&adminID, now); err != nil {
			return nil, apperror.ErrPaymentNotInEscrow
		}
		dispute.Status = models.DisputeStatusResolvedReleased

	case models.ResolutionFullRefund:
		if err := payment.ProcessRefund(dispute.Reason, adminID, now); err != nil {
			return nil, apperror.ErrAlreadyRefunded
		}
		dispute.Status = models.DisputeStatusResolvedRefunded

	case models.ResolutionPartialRefund:
		if p.RefundAmount == nil || *p.RefundAmount <= 0 {
			return nil, apperror.New(apperror.ErrCodeValidation, "для частичного возврата нужна сумма")
		}
		// Верхняя граница возврата — цена контракта; для платежей без
		// контракта — сумма самого платежа.
		refundCap := payment.Amount
		if payment.ContractID != nil {
			var contractPrice float64
			err := tx.GetContext(ctx, &contractPrice,
				`SELECT price FROM contracts WHERE id = $1`, *payment.ContractID)
			switch {
			case err == nil:
				refundCap = contractPrice
			case !errors.Is(err, sql.ErrNoRows):
				return nil, fmt.Errorf("dispute repository: resolve contract price %w", err)
			}
		}
		if *p.RefundAmount > refundCap {
			return nil, apperror.New(apperror.ErrCodeValidation, "сумма возврата превышает цену контракта")
		}
		// Частичный возврат плательщику, остаток уходит исполнителю
		// отдельным платежом в той же транзакции.
		if err := payment.ProcessRefund(dispute.Reason, adminID, now); err != nil {
			return nil, apperror.ErrAlreadyRefunded
		}
		if remainder := payment.Amount - *p.RefundAmount; remainder > 0 && payment.RecipientID != nil {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO payments (payer_id, recipient_id, contract_id, job_id, amount, currency,
					payment_type, payment_method, status, is_escrow)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
			`, payment.PayerID, payment.RecipientID, payment.ContractID, payment.JobID,
				remainder, payment.Currency, models.PaymentTypeContract, payment.PaymentMethod,
				models.PaymentStatusCompleted)
			if err != nil {
				return nil, fmt.Errorf("dispute repository: resolve partial payout %w", err)
			}
		}
		dispute.Status = models.DisputeStatusResolvedPartial
		dispute.RefundAmount = p.RefundAmount

	case models.ResolutionNoAction:
		// Спор снят, платёж возвращается в статус до спора.
		payment.CancelDispute()
		dispute.Status = models.DisputeStatusCancelled

	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный тип решения спора")
	}

	dispute.ResolutionType = &p.ResolutionType
	dispute.ResolvedBy = &adminID
	dispute.ResolvedAt = &now

	if err := savePaymentTx(ctx, tx, payment); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE disputes
		SET status = $2, resolution_type = $3, refund_amount = $4, resolved_by = $5, resolved_at = $6, updated_at = NOW()
		WHERE id = $1
	`, dispute.ID, dispute.Status, dispute.ResolutionType, dispute.RefundAmount, dispute.ResolvedBy, dispute.ResolvedAt)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: resolve update %w", err)
	}

	details := p.ResolutionType
	if err := appendAuditTx(ctx, tx, dispute.ID, adminID, "dispute_resolved", &details); err != nil {
		return nil, err
	}

	return &ResolveResult{Dispute: dispute, Payment: payment}, tx.Commit()
}

// ListAudit возвращает журнал действий по спору.
func (r *DisputeRepository) ListAudit(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeAuditEntry, error) {
	var entries []models.DisputeAuditEntry
	query := `SELECT * FROM dispute_audit_log WHERE dispute_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &entries, query, disputeID); err != nil {
		return nil, fmt.Errorf("dispute repository: list audit %w", err)
	}
	return entries, nil
}

func getDisputeForUpdate(ctx context.Context, tx *sqlx.Tx, disputeID uuid.UUID) (*models.Dispute, error) {
	var dispute models.Dispute
	err := tx.GetContext(ctx, &dispute, `SELECT * FROM disputes WHERE id = $1 FOR UPDATE`, disputeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("dispute repository: get for update %w", err)
	}
	return &dispute, nil
}

func appendAuditTx(ctx context.Context, tx *sqlx.Tx, disputeID, actorID uuid.UUID, action string, details *string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO dispute_audit_log (dispute_id, actor_id, action, details)
		VALUES ($1, $2, $3, $4)
	`, disputeID, actorID, action, details)
	if err != nil {
		return fmt.Errorf("dispute repository: append audit %w", err)
	}
	return nil
}
