package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
)

func escrowDeposit(status string) *models.Payment {
	recipient := uuid.New()
	return &models.Payment{
		ID:          uuid.New(),
		PayerID:     uuid.New(),
		RecipientID: &recipient,
		Amount:      6600,
		Currency:    models.DefaultCurrency,
		PaymentType: models.PaymentTypeEscrowDeposit,
		Status:      status,
		IsEscrow:    true,
	}
}

func TestConfirmTransition_PendingEscrowRejected(t *testing.T) {
	// Неоплаченный эскроу-платёж: средства ещё не внесены,
	// подтверждения и автоосвобождение недопустимы.
	payment := escrowDeposit(models.PaymentStatusPending)
	now := time.Now()

	_, err := confirmTransition(payment, payment.PayerID, now)
	assert.ErrorIs(t, err, apperror.ErrPaymentNotInEscrow)

	_, err = confirmTransition(payment, *payment.RecipientID, now)
	assert.ErrorIs(t, err, apperror.ErrPaymentNotInEscrow)

	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.False(t, payment.PayerConfirmed)
	assert.False(t, payment.RecipientConfirmed)
	assert.Nil(t, payment.EscrowReleasedAt)
}

func TestConfirmTransition_HeldEscrowReleasesOnBoth(t *testing.T) {
	payment := escrowDeposit(models.PaymentStatusHeldEscrow)
	now := time.Now()

	both, err := confirmTransition(payment, payment.PayerID, now)
	assert.NoError(t, err)
	assert.False(t, both)
	assert.Equal(t, models.PaymentStatusHeldEscrow, payment.Status)

	both, err = confirmTransition(payment, *payment.RecipientID, now)
	assert.NoError(t, err)
	assert.True(t, both)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.NotNil(t, payment.EscrowReleasedAt)
}

func TestConfirmTransition_CompletedRejected(t *testing.T) {
	payment := escrowDeposit(models.PaymentStatusCompleted)
	released := time.Now()
	payment.EscrowReleasedAt = &released

	_, err := confirmTransition(payment, payment.PayerID, time.Now())

	assert.ErrorIs(t, err, apperror.ErrPaymentNotInEscrow)
}

func TestConfirmTransition_DisputedFrozen(t *testing.T) {
	payment := escrowDeposit(models.PaymentStatusHeldEscrow)
	disputeID := uuid.New()
	assert.NoError(t, payment.MarkAsDisputed(payment.PayerID, "работа не выполнена", disputeID, time.Now()))

	_, err := confirmTransition(payment, *payment.RecipientID, time.Now())

	assert.ErrorIs(t, err, apperror.ErrPaymentFrozen)
}
