package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
)

var (
	ErrProposalNotFound      = errors.New("proposal not found")
	ErrProposalAlreadyExists = errors.New("proposal already exists for this job and doer")
)

// Причина, с которой массово отклоняются отклики при заполнении всех мест.
const rejectionReasonPositionFilled = "Все места исполнителей по заданию заняты"

// ProposalRepository отвечает за отклики и транзакцию одобрения.
type ProposalRepository struct {
	db *sqlx.DB
}

func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// Create сохраняет отклик. Уникальность пары (job_id, doer_id)
// обеспечивается ограничением в базе.
func (r *ProposalRepository) Create(ctx context.Context, proposal *models.Proposal) error {
	query := `
		INSERT INTO proposals (job_id, doer_id, client_id, proposed_price, estimated_duration,
			cover_letter, status, is_counter_offer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		proposal.JobID, proposal.DoerID, proposal.ClientID, proposal.ProposedPrice,
		proposal.EstimatedDuration, proposal.CoverLetter, proposal.Status, proposal.IsCounterOffer,
	).Scan(&proposal.ID, &proposal.CreatedAt, &proposal.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrProposalAlreadyExists
		}
		return fmt.Errorf("proposal repository: create %w", err)
	}

	return nil
}

// GetByID возвращает отклик по идентификатору.
func (r *ProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := r.db.GetContext(ctx, &proposal, `SELECT * FROM proposals WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("proposal repository: get by id %w", err)
	}
	return &proposal, nil
}

// ListByJob возвращает отклики по заданию.
func (r *ProposalRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Proposal, error) {
	var proposals []models.Proposal
	query := `SELECT * FROM proposals WHERE job_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &proposals, query, jobID); err != nil {
		return nil, fmt.Errorf("proposal repository: list by job %w", err)
	}
	return proposals, nil
}

// ListByDoer возвращает отклики исполнителя.
func (r *ProposalRepository) ListByDoer(ctx context.Context, doerID uuid.UUID, limit, offset int) ([]models.Proposal, error) {
	var proposals []models.Proposal
	query := `SELECT * FROM proposals WHERE doer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &proposals, query, doerID, limit, offset); err != nil {
		return nil, fmt.Errorf("proposal repository: list by doer %w", err)
	}
	return proposals, nil
}

// ApproveParams — входные данные транзакции одобрения отклика.
type ApproveParams struct {
	ProposalID      uuid.UUID
	ClientID        uuid.UUID
	AllocatedAmount *float64 // nil: берём цену из отклика
	PairingCode     string
}

// ApproveResult — итог одобрения: обновлённые сущности и отклонённые конкуренты.
type ApproveResult struct {
	Proposal      *models.Proposal
	Job           *models.Job
	Contract      *models.Contract
	RejectedDoers []uuid.UUID
}

// Approve одобряет отклик и создаёт контракт одной транзакцией.
// Строки задания и отклика блокируются через FOR UPDATE, поэтому два
// одновременных одобрения на последнее место не проходят оба.
// Все проверки, включая минимальную сумму контракта, выполняются до
// первой записи: неудачное одобрение не оставляет следов в базе.
func (r *ProposalRepository) Approve(ctx context.Context, p ApproveParams) (*ApproveResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var proposal models.Proposal
	err = tx.GetContext(ctx, &proposal, `SELECT * FROM proposals WHERE id = $1 FOR UPDATE`, p.ProposalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("proposal repository: approve get proposal %w", err)
	}

	job, err := getJobForUpdate(ctx, tx, proposal.JobID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	contract, err := applyApproval(job, &proposal, p, now)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE proposals SET status = $2, decided_at = $3, updated_at = NOW() WHERE id = $1`,
		proposal.ID, proposal.Status, proposal.DecidedAt)
	if err != nil {
		return nil, fmt.Errorf("proposal repository: approve update proposal %w", err)
	}

	// Последнее место занято: остальные ожидающие отклики отклоняются.
	var rejectedDoers []uuid.UUID
	if job.IsFullyStaffed() {
		rows, err := tx.QueryxContext(ctx, `
			UPDATE proposals
			SET status = $3, rejection_reason = $4, decided_at = $5, updated_at = NOW()
			WHERE job_id = $1 AND status = $2
			RETURNING doer_id
		`, job.ID, models.ProposalStatusPending, models.ProposalStatusRejected, rejectionReasonPositionFilled, now)
		if err != nil {
			return nil, fmt.Errorf("proposal repository: approve bulk reject %w", err)
		}
		for rows.Next() {
			var doerID uuid.UUID
			if err := rows.Scan(&doerID); err != nil {
				rows.Close()
				return nil, fmt.Errorf("proposal repository: approve bulk reject scan %w", err)
			}
			rejectedDoers = append(rejectedDoers, doerID)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("proposal repository: approve bulk reject rows %w", err)
		}
		rows.Close()
	}

	if err := saveJobTx(ctx, tx, job); err != nil {
		return nil, err
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO contracts (job_id, proposal_id, client_id, doer_id, price, commission,
			total_price, status, start_date, end_date, pairing_code, pairing_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, contract.JobID, contract.ProposalID, contract.ClientID, contract.DoerID,
		contract.Price, contract.Commission, contract.TotalPrice, contract.Status,
		contract.StartDate, contract.EndDate, contract.PairingCode, contract.PairingExpiresAt,
	).Scan(&contract.ID, &contract.CreatedAt, &contract.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("proposal repository: approve create contract %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("proposal repository: approve commit %w", err)
	}

	return &ApproveResult{
		Proposal:      &proposal,
		Job:           job,
		Contract:      contract,
		RejectedDoers: rejectedDoers,
	}, nil
}

// applyApproval выполняет все проверки одобрения и изменяет отклик и
// задание в памяти. Возвращает контракт с производной комиссией и кодом
// подтверждения встречи. Ни одна проверка не выполняется после первой
// мутации: при ошибке сущности остаются нетронутыми.
func applyApproval(job *models.Job, proposal *models.Proposal, p ApproveParams, now time.Time) (*models.Contract, error) {
	if job.ClientID != p.ClientID {
		return nil, apperror.ErrForbidden
	}
	if proposal.Status != models.ProposalStatusPending {
		return nil, apperror.ErrProposalNotPending
	}
	if job.IsFullyStaffed() {
		return nil, apperror.ErrJobFullyStaffed
	}
	if job.IsWorkerSelected(proposal.DoerID) {
		return nil, apperror.ErrWorkerAlreadySelected
	}

	allocation := proposal.ProposedPrice
	if p.AllocatedAmount != nil {
		allocation = *p.AllocatedAmount
	}
	// Остаток бюджета проверяется и для суммы по умолчанию:
	// ставка из отклика точно так же не должна превышать остаток.
	if allocation > job.Price-job.AllocatedTotal {
		return nil, apperror.ErrAllocationExceedsBudget
	}
	if allocation < models.MinContractAmount {
		return nil, apperror.ErrBelowMinimumContractAmount
	}

	decidedAt := now
	proposal.Status = models.ProposalStatusApproved
	proposal.DecidedAt = &decidedAt

	job.SelectedWorkers = append(job.SelectedWorkers, proposal.DoerID)
	if job.DoerID == nil {
		doerID := proposal.DoerID
		job.DoerID = &doerID
	}
	job.AddAllocation(proposal.DoerID, allocation, now)

	// Все места заняты и дата начала уже прошла — задание стартует.
	if job.IsFullyStaffed() && job.StartDate != nil && job.StartDate.Before(now) {
		job.Status = models.JobStatusInProgress
	}

	contract := &models.Contract{
		JobID:            job.ID,
		ProposalID:       proposal.ID,
		ClientID:         job.ClientID,
		DoerID:           proposal.DoerID,
		Status:           models.ContractStatusActive,
		StartDate:        now,
		EndDate:          now.AddDate(0, 0, proposal.EstimatedDuration),
		PairingCode:      p.PairingCode,
		PairingExpiresAt: now.Add(models.PairingCodeTTL),
	}
	contract.SetPrice(allocation)

	return contract, nil
}

// Reject отклоняет ожидающий отклик с указанием причины.
func (r *ProposalRepository) Reject(ctx context.Context, proposalID, clientID uuid.UUID, reason string) (*models.Proposal, error) {
	return r.decide(ctx, proposalID, func(proposal *models.Proposal) error {
		if proposal.ClientID != clientID {
			return apperror.ErrForbidden
		}
		proposal.Status = models.ProposalStatusRejected
		proposal.RejectionReason = &reason
		return nil
	})
}

// Withdraw отзывает собственный отклик исполнителя.
func (r *ProposalRepository) Withdraw(ctx context.Context, proposalID, doerID uuid.UUID, reason string) (*models.Proposal, error) {
	return r.decide(ctx, proposalID, func(proposal *models.Proposal) error {
		if proposal.DoerID != doerID {
			return apperror.ErrForbidden
		}
		proposal.Status = models.ProposalStatusWithdrawn
		proposal.WithdrawalReason = &reason
		return nil
	})
}

// decide переводит ожидающий отклик в конечный статус под блокировкой строки.
func (r *ProposalRepository) decide(ctx context.Context, proposalID uuid.UUID, mutate func(*models.Proposal) error) (*models.Proposal, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var proposal models.Proposal
	err = tx.GetContext(ctx, &proposal, `SELECT * FROM proposals WHERE id = $1 FOR UPDATE`, proposalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("proposal repository: decide get %w", err)
	}

	if proposal.Status != models.ProposalStatusPending {
		return nil, apperror.ErrProposalNotPending
	}

	if err := mutate(&proposal); err != nil {
		return nil, err
	}

	now := time.Now()
	proposal.DecidedAt = &now
	_, err = tx.ExecContext(ctx, `
		UPDATE proposals
		SET status = $2, rejection_reason = $3, withdrawal_reason = $4, decided_at = $5, updated_at = NOW()
		WHERE id = $1
	`, proposal.ID, proposal.Status, proposal.RejectionReason, proposal.WithdrawalReason, now)
	if err != nil {
		return nil, fmt.Errorf("proposal repository: decide update %w", err)
	}

	return &proposal, tx.Commit()
}
