package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func escrowPayment() *Payment {
	recipient := uuid.New()
	return &Payment{
		ID:          uuid.New(),
		PayerID:     uuid.New(),
		RecipientID: &recipient,
		Amount:      11000,
		Currency:    DefaultCurrency,
		PaymentType: PaymentTypeEscrowDeposit,
		Status:      PaymentStatusHeldEscrow,
		IsEscrow:    true,
	}
}

func TestPayment_ConfirmBy_PayerOnly(t *testing.T) {
	p := escrowPayment()
	now := time.Now()

	both := p.ConfirmBy(p.PayerID, now)

	assert.False(t, both)
	assert.True(t, p.PayerConfirmed)
	assert.NotNil(t, p.PayerConfirmedAt)
	assert.False(t, p.RecipientConfirmed)
	assert.Equal(t, PaymentStatusHeldEscrow, p.Status)
}

func TestPayment_ConfirmBy_Stranger(t *testing.T) {
	p := escrowPayment()

	both := p.ConfirmBy(uuid.New(), time.Now())

	assert.False(t, both)
	assert.False(t, p.PayerConfirmed)
	assert.False(t, p.RecipientConfirmed)
}

func TestPayment_ConfirmBy_BothSides(t *testing.T) {
	p := escrowPayment()
	now := time.Now()

	assert.False(t, p.ConfirmBy(p.PayerID, now))
	assert.True(t, p.ConfirmBy(*p.RecipientID, now))
	assert.Equal(t, PaymentStatusAwaitingConfirmation, p.Status)
}

func TestPayment_ConfirmBy_Idempotent(t *testing.T) {
	p := escrowPayment()
	now := time.Now()

	p.ConfirmBy(p.PayerID, now)
	firstAt := *p.PayerConfirmedAt

	p.ConfirmBy(p.PayerID, now.Add(time.Hour))

	assert.Equal(t, firstAt, *p.PayerConfirmedAt)
}

func TestPayment_ReleaseEscrow(t *testing.T) {
	p := escrowPayment()
	admin := uuid.New()

	err := p.ReleaseEscrow(&admin, time.Now())

	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusCompleted, p.Status)
	assert.NotNil(t, p.EscrowReleasedAt)
	assert.Equal(t, admin, *p.EscrowReleasedBy)
	assert.False(t, p.IsInEscrow())
}

func TestPayment_ReleaseEscrow_Idempotent(t *testing.T) {
	p := escrowPayment()
	first := uuid.New()
	second := uuid.New()

	assert.NoError(t, p.ReleaseEscrow(&first, time.Now()))
	releasedAt := *p.EscrowReleasedAt

	assert.NoError(t, p.ReleaseEscrow(&second, time.Now().Add(time.Minute)))
	assert.Equal(t, releasedAt, *p.EscrowReleasedAt)
	assert.Equal(t, first, *p.EscrowReleasedBy)
}

func TestPayment_ReleaseEscrow_NotEscrow(t *testing.T) {
	p := &Payment{
		PayerID:     uuid.New(),
		PaymentType: PaymentTypePublication,
		Status:      PaymentStatusPending,
	}

	assert.ErrorIs(t, p.ReleaseEscrow(nil, time.Now()), ErrNotInEscrow)
}

func TestPayment_ProcessRefund_AlreadyRefunded(t *testing.T) {
	p := escrowPayment()
	admin := uuid.New()

	assert.NoError(t, p.ProcessRefund("работа не выполнена", admin, time.Now()))
	assert.Equal(t, PaymentStatusRefunded, p.Status)

	assert.ErrorIs(t, p.ProcessRefund("повторно", admin, time.Now()), ErrAlreadyRefunded)
}

func TestPayment_MarkAsDisputed(t *testing.T) {
	p := escrowPayment()
	disputeID := uuid.New()

	err := p.MarkAsDisputed(p.PayerID, "исполнитель не пришёл", disputeID, time.Now())

	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusDisputed, p.Status)
	assert.Equal(t, disputeID, *p.DisputeID)
	assert.True(t, p.IsDisputed())
}

func TestPayment_MarkAsDisputed_Terminal(t *testing.T) {
	p := escrowPayment()
	p.Status = PaymentStatusCompleted

	err := p.MarkAsDisputed(p.PayerID, "поздно", uuid.New(), time.Now())

	assert.ErrorIs(t, err, ErrPaymentFinalized)
}

func TestPayment_IsInEscrow(t *testing.T) {
	p := escrowPayment()
	assert.True(t, p.IsInEscrow())

	p.Status = PaymentStatusAwaitingConfirmation
	assert.True(t, p.IsInEscrow())

	p.Status = PaymentStatusDisputed
	assert.False(t, p.IsInEscrow())
}

func TestPayment_MarkAsDisputed_RecordsPreviousStatus(t *testing.T) {
	p := escrowPayment()
	p.Status = PaymentStatusAwaitingConfirmation

	err := p.MarkAsDisputed(p.PayerID, "спорная работа", uuid.New(), time.Now())

	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusDisputed, p.Status)
	assert.NotNil(t, p.PreDisputeStatus)
	assert.Equal(t, PaymentStatusAwaitingConfirmation, *p.PreDisputeStatus)
}

func TestPayment_CancelDispute_RestoresStatus(t *testing.T) {
	p := escrowPayment()
	p.Status = PaymentStatusAwaitingConfirmation
	assert.NoError(t, p.MarkAsDisputed(p.PayerID, "спорная работа", uuid.New(), time.Now()))

	p.CancelDispute()

	assert.Equal(t, PaymentStatusAwaitingConfirmation, p.Status)
	assert.Nil(t, p.PreDisputeStatus)
	assert.Nil(t, p.DisputeID)
	assert.Nil(t, p.DisputeReason)
	assert.Nil(t, p.DisputedBy)
	assert.Nil(t, p.DisputedAt)
}

func TestPayment_CancelDispute_FallbackHeldEscrow(t *testing.T) {
	p := escrowPayment()
	p.Status = PaymentStatusDisputed

	p.CancelDispute()

	assert.Equal(t, PaymentStatusHeldEscrow, p.Status)
}
