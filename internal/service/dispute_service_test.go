package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/repository"
)

type mockDisputeStore struct {
	mock.Mock
}

func (m *mockDisputeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeStore) List(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeStore) UpdateStatus(ctx context.Context, disputeID, adminID uuid.UUID, status string) (*models.Dispute, error) {
	args := m.Called(ctx, disputeID, adminID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeStore) Resolve(ctx context.Context, p repository.ResolveParams) (*repository.ResolveResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ResolveResult), args.Error(1)
}

func (m *mockDisputeStore) ListAudit(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeAuditEntry, error) {
	args := m.Called(ctx, disputeID)
	return args.Get(0).([]models.DisputeAuditEntry), args.Error(1)
}

func TestDisputeService_ListDisputes_InvalidStatus(t *testing.T) {
	store := new(mockDisputeStore)
	svc := NewDisputeService(store)

	_, err := svc.ListDisputes(context.Background(), "unknown", 20, 0)

	assert.Error(t, err)
	store.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDisputeService_ListDisputes_ClampsLimit(t *testing.T) {
	store := new(mockDisputeStore)
	svc := NewDisputeService(store)
	ctx := context.Background()

	store.On("List", ctx, models.DisputeStatusOpen, 20, 0).Return([]models.Dispute{}, nil)

	_, err := svc.ListDisputes(ctx, models.DisputeStatusOpen, 1000, -5)

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestDisputeService_UpdateStatus_OnlyIntermediate(t *testing.T) {
	store := new(mockDisputeStore)
	svc := NewDisputeService(store)
	ctx := context.Background()

	for _, status := range []string{models.DisputeStatusOpen, models.DisputeStatusResolvedRefunded, "random"} {
		_, err := svc.UpdateStatus(ctx, uuid.New(), uuid.New(), status)
		assert.Error(t, err, status)
	}
	store.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	disputeID, adminID := uuid.New(), uuid.New()
	store.On("UpdateStatus", ctx, disputeID, adminID, models.DisputeStatusInReview).
		Return(&models.Dispute{ID: disputeID, Status: models.DisputeStatusInReview}, nil)

	updated, err := svc.UpdateStatus(ctx, disputeID, adminID, models.DisputeStatusInReview)

	assert.NoError(t, err)
	assert.Equal(t, models.DisputeStatusInReview, updated.Status)
}

func TestDisputeService_Resolve_InvalidType(t *testing.T) {
	store := new(mockDisputeStore)
	svc := NewDisputeService(store)

	_, err := svc.Resolve(context.Background(), ResolveInput{
		DisputeID:      uuid.New(),
		AdminID:        uuid.New(),
		ResolutionType: "split_evenly",
	})

	assert.Error(t, err)
	store.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestDisputeService_Resolve_PartialRequiresAmount(t *testing.T) {
	store := new(mockDisputeStore)
	svc := NewDisputeService(store)
	ctx := context.Background()

	zero := 0.0
	for _, amount := range []*float64{nil, &zero} {
		_, err := svc.Resolve(ctx, ResolveInput{
			DisputeID:      uuid.New(),
			AdminID:        uuid.New(),
			ResolutionType: models.ResolutionPartialRefund,
			RefundAmount:   amount,
		})
		assert.Error(t, err)
	}
	store.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestDisputeService_Resolve_Success(t *testing.T) {
	store := new(mockDisputeStore)
	svc := NewDisputeService(store)
	ctx := context.Background()

	disputeID, adminID := uuid.New(), uuid.New()
	amount := 3000.0
	result := &repository.ResolveResult{
		Dispute: &models.Dispute{ID: disputeID, Status: models.DisputeStatusResolvedPartial},
		Payment: &models.Payment{ID: uuid.New(), PayerID: uuid.New(), Status: models.PaymentStatusRefunded},
	}

	store.On("Resolve", ctx, repository.ResolveParams{
		DisputeID:      disputeID,
		AdminID:        adminID,
		ResolutionType: models.ResolutionPartialRefund,
		RefundAmount:   &amount,
	}).Return(result, nil)

	got, err := svc.Resolve(ctx, ResolveInput{
		DisputeID:      disputeID,
		AdminID:        adminID,
		ResolutionType: models.ResolutionPartialRefund,
		RefundAmount:   &amount,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.DisputeStatusResolvedPartial, got.Dispute.Status)
	store.AssertExpectations(t)
}
