package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
	"github.com/doersapp/doers-backend/internal/validation"
)

// ContractStore описывает взаимодействие сервиса с хранилищем контрактов.
type ContractStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Contract, error)
	VerifyPairing(ctx context.Context, contractID uuid.UUID, code string) (*models.Contract, error)
	AcceptTerms(ctx context.Context, contractID, userID uuid.UUID) (*models.Contract, error)
}

// ContractService — операции над контрактами после одобрения отклика.
type ContractService struct {
	contracts ContractStore
	notifier  Notifier
}

// NewContractService создаёт новый сервис контрактов.
func NewContractService(contracts ContractStore) *ContractService {
	return &ContractService{contracts: contracts}
}

// SetNotifier устанавливает доставку уведомлений.
func (s *ContractService) SetNotifier(n Notifier) { s.notifier = n }

// GetContract возвращает контракт его участнику.
func (s *ContractService) GetContract(ctx context.Context, contractID, userID uuid.UUID) (*models.Contract, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.ClientID != userID && contract.DoerID != userID {
		return nil, apperror.ErrForbidden
	}
	return contract, nil
}

// ListMyContracts возвращает контракты пользователя.
func (s *ContractService) ListMyContracts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Contract, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.contracts.ListByUser(ctx, userID, limit, offset)
}

// VerifyPairing подтверждает личную встречу сторон по коду.
// Код показывается исполнителю, вводится клиентом; повторный ввод после
// подтверждения безвреден.
func (s *ContractService) VerifyPairing(ctx context.Context, contractID, userID uuid.UUID, code string) (*models.Contract, error) {
	if err := validation.ValidateNonEmpty("код подтверждения", code); err != nil {
		return nil, fmt.Errorf("contract service: %w", err)
	}

	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.ClientID != userID && contract.DoerID != userID {
		return nil, apperror.ErrForbidden
	}

	return s.contracts.VerifyPairing(ctx, contractID, code)
}

// AcceptTerms отмечает согласие стороны с условиями контракта.
func (s *ContractService) AcceptTerms(ctx context.Context, contractID, userID uuid.UUID) (*models.Contract, error) {
	return s.contracts.AcceptTerms(ctx, contractID, userID)
}
