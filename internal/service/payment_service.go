package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/doersapp/doers-backend/internal/goroutine"
	"github.com/doersapp/doers-backend/internal/logger"
	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
	"github.com/doersapp/doers-backend/internal/validation"
)

// PaymentStore описывает взаимодействие сервиса с хранилищем платежей.
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Payment, error)
	MarkFunded(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	Confirm(ctx context.Context, paymentID, userID uuid.UUID) (*models.Payment, bool, error)
}

// DisputeOpener открывает спор и замораживает платёж.
type DisputeOpener interface {
	Create(ctx context.Context, dispute *models.Dispute) (*models.Payment, error)
}

// PaymentService содержит бизнес-логику движения средств.
type PaymentService struct {
	payments PaymentStore
	disputes DisputeOpener
	notifier Notifier
}

// NewPaymentService создаёт новый платёжный сервис.
func NewPaymentService(payments PaymentStore, disputes DisputeOpener) *PaymentService {
	return &PaymentService{payments: payments, disputes: disputes}
}

// SetNotifier устанавливает доставку уведомлений.
func (s *PaymentService) SetNotifier(n Notifier) { s.notifier = n }

// GetPayment возвращает платёж его участнику.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID, userID uuid.UUID) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(payment, userID) {
		return nil, apperror.ErrForbidden
	}
	return payment, nil
}

// ListMyPayments возвращает платежи пользователя.
func (s *PaymentService) ListMyPayments(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.payments.ListByUser(ctx, userID, limit, offset)
}

// FundPayment фиксирует поступление средств от плательщика.
// Для эскроу-платежей средства переходят на удержание.
func (s *PaymentService) FundPayment(ctx context.Context, paymentID, payerID uuid.UUID) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.PayerID != payerID {
		return nil, apperror.ErrForbidden
	}

	funded, err := s.payments.MarkFunded(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if funded.RecipientID != nil {
		s.notifyAsync(*funded.RecipientID, "payment.funded", map[string]interface{}{
			"payment_id": funded.ID,
		})
	}

	return funded, nil
}

// ConfirmCompletion отмечает подтверждение выполнения одной из сторон.
// Когда подтвердили обе, эскроу освобождается автоматически в той же транзакции.
func (s *PaymentService) ConfirmCompletion(ctx context.Context, paymentID, userID uuid.UUID) (*models.Payment, bool, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, false, err
	}
	if !isParticipant(payment, userID) {
		return nil, false, apperror.ErrForbidden
	}

	confirmed, released, err := s.payments.Confirm(ctx, paymentID, userID)
	if err != nil {
		return nil, false, err
	}

	if released {
		s.notifyAsync(confirmed.PayerID, "payment.released", map[string]interface{}{
			"payment_id": confirmed.ID,
		})
		if confirmed.RecipientID != nil {
			s.notifyAsync(*confirmed.RecipientID, "payment.released", map[string]interface{}{
				"payment_id": confirmed.ID,
			})
		}
	}

	return confirmed, released, nil
}

// OpenDispute открывает спор по платежу и замораживает его.
func (s *PaymentService) OpenDispute(ctx context.Context, paymentID, userID uuid.UUID, reason string) (*models.Dispute, error) {
	if err := validation.ValidateReason("причина спора", reason); err != nil {
		return nil, fmt.Errorf("payment service: %w", err)
	}

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(payment, userID) {
		return nil, apperror.ErrForbidden
	}

	dispute := &models.Dispute{
		PaymentID: paymentID,
		RaisedBy:  userID,
		Reason:    reason,
	}

	frozen, err := s.disputes.Create(ctx, dispute)
	if err != nil {
		return nil, err
	}

	// Уведомляем вторую сторону платежа.
	counterpart := frozen.PayerID
	if counterpart == userID && frozen.RecipientID != nil {
		counterpart = *frozen.RecipientID
	}
	if counterpart != userID {
		s.notifyAsync(counterpart, "dispute.opened", map[string]interface{}{
			"payment_id": frozen.ID,
			"dispute_id": dispute.ID,
		})
	}

	return dispute, nil
}

func (s *PaymentService) notifyAsync(userID uuid.UUID, event string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	goroutine.SafeGo(func() {
		if _, err := s.notifier.Notify(context.Background(), userID, event, data); err != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"event":   event,
				"error":   err.Error(),
			}).Warn("payment service: не удалось отправить уведомление")
		}
	})
}

// isParticipant: плательщик и получатель — единственные стороны платежа.
func isParticipant(payment *models.Payment, userID uuid.UUID) bool {
	if payment.PayerID == userID {
		return true
	}
	return payment.RecipientID != nil && *payment.RecipientID == userID
}
