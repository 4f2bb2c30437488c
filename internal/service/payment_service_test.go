package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
)

type mockPaymentStore struct {
	mock.Mock
}

func (m *mockPaymentStore) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *mockPaymentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Payment, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *mockPaymentStore) MarkFunded(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) Confirm(ctx context.Context, paymentID, userID uuid.UUID) (*models.Payment, bool, error) {
	args := m.Called(ctx, paymentID, userID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Payment), args.Bool(1), args.Error(2)
}

type mockDisputeOpener struct {
	mock.Mock
}

func (m *mockDisputeOpener) Create(ctx context.Context, dispute *models.Dispute) (*models.Payment, error) {
	args := m.Called(ctx, dispute)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func heldEscrowPayment() *models.Payment {
	recipient := uuid.New()
	return &models.Payment{
		ID:          uuid.New(),
		PayerID:     uuid.New(),
		RecipientID: &recipient,
		Amount:      8800,
		Currency:    models.DefaultCurrency,
		PaymentType: models.PaymentTypeEscrowDeposit,
		Status:      models.PaymentStatusHeldEscrow,
		IsEscrow:    true,
	}
}

func TestPaymentService_GetPayment_Forbidden(t *testing.T) {
	store := new(mockPaymentStore)
	svc := NewPaymentService(store, new(mockDisputeOpener))
	ctx := context.Background()

	payment := heldEscrowPayment()
	store.On("GetByID", ctx, payment.ID).Return(payment, nil)

	_, err := svc.GetPayment(ctx, payment.ID, uuid.New())

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestPaymentService_FundPayment_Success(t *testing.T) {
	store := new(mockPaymentStore)
	svc := NewPaymentService(store, new(mockDisputeOpener))
	ctx := context.Background()

	payment := heldEscrowPayment()
	payment.Status = models.PaymentStatusPending
	funded := *payment
	funded.Status = models.PaymentStatusHeldEscrow

	store.On("GetByID", ctx, payment.ID).Return(payment, nil)
	store.On("MarkFunded", ctx, payment.ID).Return(&funded, nil)

	got, err := svc.FundPayment(ctx, payment.ID, payment.PayerID)

	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusHeldEscrow, got.Status)
	store.AssertExpectations(t)
}

func TestPaymentService_FundPayment_NotPayer(t *testing.T) {
	store := new(mockPaymentStore)
	svc := NewPaymentService(store, new(mockDisputeOpener))
	ctx := context.Background()

	payment := heldEscrowPayment()
	store.On("GetByID", ctx, payment.ID).Return(payment, nil)

	_, err := svc.FundPayment(ctx, payment.ID, uuid.New())

	assert.ErrorIs(t, err, apperror.ErrForbidden)
	store.AssertNotCalled(t, "MarkFunded", mock.Anything, mock.Anything)
}

func TestPaymentService_ConfirmCompletion_Released(t *testing.T) {
	store := new(mockPaymentStore)
	svc := NewPaymentService(store, new(mockDisputeOpener))
	ctx := context.Background()

	payment := heldEscrowPayment()
	confirmed := *payment
	confirmed.Status = models.PaymentStatusCompleted

	store.On("GetByID", ctx, payment.ID).Return(payment, nil)
	store.On("Confirm", ctx, payment.ID, payment.PayerID).Return(&confirmed, true, nil)

	got, released, err := svc.ConfirmCompletion(ctx, payment.ID, payment.PayerID)

	assert.NoError(t, err)
	assert.True(t, released)
	assert.Equal(t, models.PaymentStatusCompleted, got.Status)
}

func TestPaymentService_ConfirmCompletion_Frozen(t *testing.T) {
	store := new(mockPaymentStore)
	svc := NewPaymentService(store, new(mockDisputeOpener))
	ctx := context.Background()

	payment := heldEscrowPayment()
	store.On("GetByID", ctx, payment.ID).Return(payment, nil)
	store.On("Confirm", ctx, payment.ID, payment.PayerID).Return(nil, false, apperror.ErrPaymentFrozen)

	_, _, err := svc.ConfirmCompletion(ctx, payment.ID, payment.PayerID)

	assert.ErrorIs(t, err, apperror.ErrPaymentFrozen)
}

func TestPaymentService_OpenDispute_Success(t *testing.T) {
	store := new(mockPaymentStore)
	disputes := new(mockDisputeOpener)
	svc := NewPaymentService(store, disputes)
	ctx := context.Background()

	payment := heldEscrowPayment()
	frozen := *payment
	frozen.Status = models.PaymentStatusDisputed

	store.On("GetByID", ctx, payment.ID).Return(payment, nil)
	disputes.On("Create", ctx, mock.MatchedBy(func(d *models.Dispute) bool {
		return d.PaymentID == payment.ID && d.RaisedBy == payment.PayerID
	})).Return(&frozen, nil)

	dispute, err := svc.OpenDispute(ctx, payment.ID, payment.PayerID, "исполнитель не пришёл")

	assert.NoError(t, err)
	assert.Equal(t, payment.ID, dispute.PaymentID)
	disputes.AssertExpectations(t)
}

func TestPaymentService_OpenDispute_EmptyReason(t *testing.T) {
	store := new(mockPaymentStore)
	svc := NewPaymentService(store, new(mockDisputeOpener))

	_, err := svc.OpenDispute(context.Background(), uuid.New(), uuid.New(), "")

	assert.Error(t, err)
	store.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestPaymentService_OpenDispute_Stranger(t *testing.T) {
	store := new(mockPaymentStore)
	disputes := new(mockDisputeOpener)
	svc := NewPaymentService(store, disputes)
	ctx := context.Background()

	payment := heldEscrowPayment()
	store.On("GetByID", ctx, payment.ID).Return(payment, nil)

	_, err := svc.OpenDispute(ctx, payment.ID, uuid.New(), "не моя сделка")

	assert.ErrorIs(t, err, apperror.ErrForbidden)
	disputes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
