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
	ErrContractNotFound = errors.New("contract not found")
)

// ContractRepository отвечает за контракты.
// Сами контракты создаются транзакцией одобрения отклика (ProposalRepository.Approve).
type ContractRepository struct {
	db *sqlx.DB
}

func NewContractRepository(db *sqlx.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// GetByID возвращает контракт по идентификатору.
func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	if err := r.db.GetContext(ctx, &contract, `SELECT * FROM contracts WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("contract repository: get by id %w", err)
	}
	return &contract, nil
}

// GetByProposalID возвращает контракт, созданный по отклику.
func (r *ContractRepository) GetByProposalID(ctx context.Context, proposalID uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	if err := r.db.GetContext(ctx, &contract, `SELECT * FROM contracts WHERE proposal_id = $1`, proposalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("contract repository: get by proposal %w", err)
	}
	return &contract, nil
}

// ListByUser возвращает контракты, где пользователь — клиент или исполнитель.
func (r *ContractRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Contract, error) {
	var contracts []models.Contract
	query := `
		SELECT * FROM contracts
		WHERE client_id = $1 OR doer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &contracts, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("contract repository: list by user %w", err)
	}
	return contracts, nil
}

// VerifyPairing проверяет код подтверждения личной встречи и фиксирует встречу.
func (r *ContractRepository) VerifyPairing(ctx context.Context, contractID uuid.UUID, code string) (*models.Contract, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var contract models.Contract
	err = tx.GetContext(ctx, &contract, `SELECT * FROM contracts WHERE id = $1 FOR UPDATE`, contractID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("contract repository: verify pairing get %w", err)
	}

	now := time.Now()
	if contract.PairedAt != nil {
		return &contract, tx.Commit()
	}
	if !contract.PairingCodeValid(code, now) {
		return nil, apperror.New(apperror.ErrCodeValidation, "код подтверждения неверен или истёк")
	}

	contract.PairedAt = &now
	_, err = tx.ExecContext(ctx, `UPDATE contracts SET paired_at = $2, updated_at = NOW() WHERE id = $1`, contractID, now)
	if err != nil {
		return nil, fmt.Errorf("contract repository: verify pairing update %w", err)
	}

	return &contract, tx.Commit()
}

// AcceptTerms отмечает согласие стороны с условиями контракта.
func (r *ContractRepository) AcceptTerms(ctx context.Context, contractID, userID uuid.UUID) (*models.Contract, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var contract models.Contract
	err = tx.GetContext(ctx, &contract, `SELECT * FROM contracts WHERE id = $1 FOR UPDATE`, contractID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("contract repository: accept terms get %w", err)
	}

	switch userID {
	case contract.ClientID:
		contract.ClientAcceptedTerms = true
	case contract.DoerID:
		contract.DoerAcceptedTerms = true
	default:
		return nil, apperror.ErrForbidden
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE contracts SET client_accepted_terms = $2, doer_accepted_terms = $3, updated_at = NOW()
		WHERE id = $1
	`, contractID, contract.ClientAcceptedTerms, contract.DoerAcceptedTerms)
	if err != nil {
		return nil, fmt.Errorf("contract repository: accept terms update %w", err)
	}

	return &contract, tx.Commit()
}

// UpdateStatus переводит контракт в новый статус.
func (r *ContractRepository) UpdateStatus(ctx context.Context, contractID uuid.UUID, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE contracts SET status = $2, updated_at = NOW() WHERE id = $1`, contractID, status)
	if err != nil {
		return fmt.Errorf("contract repository: update status %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("contract repository: update status rows affected %w", err)
	}
	if affected == 0 {
		return ErrContractNotFound
	}
	return nil
}
