package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
)

type mockJobRepo struct {
	mock.Mock
}

func (m *mockJobRepo) Create(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *mockJobRepo) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Job, error) {
	args := m.Called(ctx, clientID, limit, offset)
	return args.Get(0).([]models.Job), args.Error(1)
}

func (m *mockJobRepo) ListOpen(ctx context.Context, limit, offset int) ([]models.Job, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Job), args.Error(1)
}

func (m *mockJobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockJobRepo) UpdateAllocations(ctx context.Context, jobID, clientID uuid.UUID, amounts map[uuid.UUID]float64) (*models.Job, error) {
	args := m.Called(ctx, jobID, clientID, amounts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

type mockPublicationPayments struct {
	mock.Mock
}

func (m *mockPublicationPayments) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *mockPublicationPayments) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPublicationPayments) MarkFunded(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func TestJobService_CreateJob_Success(t *testing.T) {
	repo := new(mockJobRepo)
	payments := new(mockPublicationPayments)
	svc := NewJobService(repo, payments)
	ctx := context.Background()

	clientID := uuid.New()
	repo.On("Create", ctx, mock.MatchedBy(func(j *models.Job) bool {
		return j.Status == models.JobStatusPendingPayment && j.RemainingBudget == j.Price
	})).Return(nil)
	payments.On("Create", ctx, mock.MatchedBy(func(p *models.Payment) bool {
		return p.PayerID == clientID &&
			p.Amount == models.PublicationFee &&
			p.PaymentType == models.PaymentTypePublication &&
			!p.IsEscrow
	})).Return(nil)

	result, err := svc.CreateJob(ctx, CreateJobInput{
		ClientID:    clientID,
		Title:       "Покраска забора",
		Description: "Забор 40 метров, краска наша",
		Price:       20000,
		MaxWorkers:  2,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.JobStatusPendingPayment, result.Job.Status)
	assert.Equal(t, models.PublicationFee, result.Payment.Amount)
	repo.AssertExpectations(t)
	payments.AssertExpectations(t)
}

func TestJobService_CreateJob_BelowMinimum(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, new(mockPublicationPayments))

	_, err := svc.CreateJob(context.Background(), CreateJobInput{
		ClientID:    uuid.New(),
		Title:       "Мелкая задача",
		Description: "Совсем небольшая",
		Price:       1000,
		MaxWorkers:  1,
	})

	assert.ErrorIs(t, err, apperror.ErrBelowMinimumContractAmount)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestJobService_CreateJob_StartDateInPast(t *testing.T) {
	svc := NewJobService(new(mockJobRepo), new(mockPublicationPayments))

	past := time.Now().Add(-24 * time.Hour)
	_, err := svc.CreateJob(context.Background(), CreateJobInput{
		ClientID:    uuid.New(),
		Title:       "Уборка двора",
		Description: "Нужно было вчера",
		Price:       10000,
		MaxWorkers:  1,
		StartDate:   &past,
	})

	assert.Error(t, err)
}

func TestJobService_FundPublication_OpensJob(t *testing.T) {
	repo := new(mockJobRepo)
	payments := new(mockPublicationPayments)
	svc := NewJobService(repo, payments)
	ctx := context.Background()

	clientID := uuid.New()
	jobID := uuid.New()
	payment := &models.Payment{
		ID:          uuid.New(),
		PayerID:     clientID,
		JobID:       &jobID,
		Amount:      models.PublicationFee,
		PaymentType: models.PaymentTypePublication,
		Status:      models.PaymentStatusPending,
	}
	funded := *payment
	funded.Status = models.PaymentStatusCompleted

	payments.On("GetByID", ctx, payment.ID).Return(payment, nil)
	payments.On("MarkFunded", ctx, payment.ID).Return(&funded, nil)
	repo.On("UpdateStatus", ctx, jobID, models.JobStatusOpen).Return(nil)
	repo.On("GetByID", ctx, jobID).Return(&models.Job{ID: jobID, ClientID: clientID, Status: models.JobStatusOpen}, nil)

	job, err := svc.FundPublication(ctx, payment.ID, clientID)

	assert.NoError(t, err)
	assert.Equal(t, models.JobStatusOpen, job.Status)
	repo.AssertExpectations(t)
}

func TestJobService_FundPublication_WrongPaymentType(t *testing.T) {
	repo := new(mockJobRepo)
	payments := new(mockPublicationPayments)
	svc := NewJobService(repo, payments)
	ctx := context.Background()

	clientID := uuid.New()
	payment := &models.Payment{
		ID:          uuid.New(),
		PayerID:     clientID,
		Amount:      8800,
		PaymentType: models.PaymentTypeEscrowDeposit,
		IsEscrow:    true,
	}
	payments.On("GetByID", ctx, payment.ID).Return(payment, nil)

	_, err := svc.FundPublication(ctx, payment.ID, clientID)

	assert.Error(t, err)
	payments.AssertNotCalled(t, "MarkFunded", mock.Anything, mock.Anything)
}

func TestJobService_UpdateAllocations_RejectsEmpty(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, new(mockPublicationPayments))

	_, err := svc.UpdateAllocations(context.Background(), uuid.New(), uuid.New(), nil)

	assert.Error(t, err)
	repo.AssertNotCalled(t, "UpdateAllocations", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestJobService_UpdateAllocations_RejectsNegativeAmount(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, new(mockPublicationPayments))

	_, err := svc.UpdateAllocations(context.Background(), uuid.New(), uuid.New(), map[uuid.UUID]float64{
		uuid.New(): -100,
	})

	assert.Error(t, err)
	repo.AssertNotCalled(t, "UpdateAllocations", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestJobService_UpdateStatus_TerminalJob(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, new(mockPublicationPayments))
	ctx := context.Background()

	clientID := uuid.New()
	job := &models.Job{ID: uuid.New(), ClientID: clientID, Status: models.JobStatusCompleted}
	repo.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.UpdateStatus(ctx, job.ID, clientID, models.JobStatusOpen)

	assert.Error(t, err)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestJobService_UpdateStatus_NotOwner(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, new(mockPublicationPayments))
	ctx := context.Background()

	job := &models.Job{ID: uuid.New(), ClientID: uuid.New(), Status: models.JobStatusOpen}
	repo.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.UpdateStatus(ctx, job.ID, uuid.New(), models.JobStatusInProgress)

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}
