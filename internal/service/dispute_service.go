package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/doersapp/doers-backend/internal/goroutine"
	"github.com/doersapp/doers-backend/internal/logger"
	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
	"github.com/doersapp/doers-backend/internal/repository"
)

// DisputeStore описывает взаимодействие сервиса с хранилищем споров.
type DisputeStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error)
	UpdateStatus(ctx context.Context, disputeID, adminID uuid.UUID, status string) (*models.Dispute, error)
	Resolve(ctx context.Context, p repository.ResolveParams) (*repository.ResolveResult, error)
	ListAudit(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeAuditEntry, error)
}

// DisputeService — административные операции над спорами.
type DisputeService struct {
	disputes DisputeStore
	notifier Notifier
}

// NewDisputeService создаёт новый сервис споров.
func NewDisputeService(disputes DisputeStore) *DisputeService {
	return &DisputeService{disputes: disputes}
}

// SetNotifier устанавливает доставку уведомлений.
func (s *DisputeService) SetNotifier(n Notifier) { s.notifier = n }

// GetDispute возвращает спор по идентификатору.
func (s *DisputeService) GetDispute(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return s.disputes.GetByID(ctx, id)
}

// ListDisputes возвращает споры с фильтром по статусу.
func (s *DisputeService) ListDisputes(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if status != "" {
		if _, ok := models.TerminalDisputeStatuses[status]; !ok &&
			status != models.DisputeStatusOpen &&
			status != models.DisputeStatusInReview &&
			status != models.DisputeStatusAwaitingInfo {
			return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус спора")
		}
	}
	return s.disputes.List(ctx, status, limit, offset)
}

// UpdateStatus двигает спор по промежуточным статусам (in_review, awaiting_info).
func (s *DisputeService) UpdateStatus(ctx context.Context, disputeID, adminID uuid.UUID, status string) (*models.Dispute, error) {
	if status != models.DisputeStatusInReview && status != models.DisputeStatusAwaitingInfo {
		return nil, apperror.New(apperror.ErrCodeValidation, "статус спора меняется только на in_review или awaiting_info")
	}
	return s.disputes.UpdateStatus(ctx, disputeID, adminID, status)
}

// ResolveInput описывает решение администратора по спору.
type ResolveInput struct {
	DisputeID      uuid.UUID
	AdminID        uuid.UUID
	ResolutionType string
	RefundAmount   *float64
}

// Resolve закрывает спор выбранным способом и уведомляет стороны платежа.
func (s *DisputeService) Resolve(ctx context.Context, in ResolveInput) (*repository.ResolveResult, error) {
	if _, ok := models.ValidResolutionTypes[in.ResolutionType]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип решения спора")
	}
	if in.ResolutionType == models.ResolutionPartialRefund {
		if in.RefundAmount == nil || *in.RefundAmount <= 0 {
			return nil, apperror.New(apperror.ErrCodeValidation, "для частичного возврата нужна положительная сумма")
		}
	}

	result, err := s.disputes.Resolve(ctx, repository.ResolveParams{
		DisputeID:      in.DisputeID,
		AdminID:        in.AdminID,
		ResolutionType: in.ResolutionType,
		RefundAmount:   in.RefundAmount,
	})
	if err != nil {
		return nil, err
	}

	event := fmt.Sprintf("dispute.%s", result.Dispute.Status)
	data := map[string]interface{}{
		"dispute_id": result.Dispute.ID,
		"payment_id": result.Payment.ID,
		"resolution": in.ResolutionType,
	}
	s.notifyAsync(result.Payment.PayerID, event, data)
	if result.Payment.RecipientID != nil {
		s.notifyAsync(*result.Payment.RecipientID, event, data)
	}

	return result, nil
}

// ListAudit возвращает журнал действий по спору.
func (s *DisputeService) ListAudit(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeAuditEntry, error) {
	return s.disputes.ListAudit(ctx, disputeID)
}

func (s *DisputeService) notifyAsync(userID uuid.UUID, event string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	goroutine.SafeGo(func() {
		if _, err := s.notifier.Notify(context.Background(), userID, event, data); err != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"event":   event,
				"error":   err.Error(),
			}).Warn("dispute service: не удалось отправить уведомление")
		}
	})
}
