package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
	"github.com/doersapp/doers-backend/internal/repository"
)

type mockProposalStore struct {
	mock.Mock
}

func (m *mockProposalStore) Create(ctx context.Context, proposal *models.Proposal) error {
	args := m.Called(ctx, proposal)
	return args.Error(0)
}

func (m *mockProposalStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Proposal), args.Error(1)
}

func (m *mockProposalStore) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Proposal, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]models.Proposal), args.Error(1)
}

func (m *mockProposalStore) ListByDoer(ctx context.Context, doerID uuid.UUID, limit, offset int) ([]models.Proposal, error) {
	args := m.Called(ctx, doerID, limit, offset)
	return args.Get(0).([]models.Proposal), args.Error(1)
}

func (m *mockProposalStore) Approve(ctx context.Context, p repository.ApproveParams) (*repository.ApproveResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ApproveResult), args.Error(1)
}

func (m *mockProposalStore) Reject(ctx context.Context, proposalID, clientID uuid.UUID, reason string) (*models.Proposal, error) {
	args := m.Called(ctx, proposalID, clientID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Proposal), args.Error(1)
}

func (m *mockProposalStore) Withdraw(ctx context.Context, proposalID, doerID uuid.UUID, reason string) (*models.Proposal, error) {
	args := m.Called(ctx, proposalID, doerID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Proposal), args.Error(1)
}

type mockJobGetter struct {
	mock.Mock
}

func (m *mockJobGetter) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

type mockEscrowPayments struct {
	mock.Mock
}

func (m *mockEscrowPayments) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func openJob(clientID uuid.UUID) *models.Job {
	return &models.Job{
		ID:         uuid.New(),
		ClientID:   clientID,
		Title:      "Собрать шкаф",
		Price:      20000,
		Status:     models.JobStatusOpen,
		MaxWorkers: 2,
	}
}

func TestProposalService_CreateProposal_Success(t *testing.T) {
	store := new(mockProposalStore)
	jobs := new(mockJobGetter)
	payments := new(mockEscrowPayments)
	svc := NewProposalService(store, jobs, payments)
	ctx := context.Background()

	clientID := uuid.New()
	doerID := uuid.New()
	job := openJob(clientID)

	jobs.On("GetByID", ctx, job.ID).Return(job, nil)
	store.On("Create", ctx, mock.AnythingOfType("*models.Proposal")).Return(nil)

	proposal, err := svc.CreateProposal(ctx, CreateProposalInput{
		JobID:             job.ID,
		DoerID:            doerID,
		ProposedPrice:     15000,
		EstimatedDuration: 3,
	})

	assert.NoError(t, err)
	assert.Equal(t, clientID, proposal.ClientID)
	assert.Equal(t, models.ProposalStatusPending, proposal.Status)
	store.AssertExpectations(t)
}

func TestProposalService_CreateProposal_JobNotOpen(t *testing.T) {
	store := new(mockProposalStore)
	jobs := new(mockJobGetter)
	svc := NewProposalService(store, jobs, new(mockEscrowPayments))
	ctx := context.Background()

	job := openJob(uuid.New())
	job.Status = models.JobStatusPendingPayment
	jobs.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.CreateProposal(ctx, CreateProposalInput{
		JobID:             job.ID,
		DoerID:            uuid.New(),
		ProposedPrice:     15000,
		EstimatedDuration: 3,
	})

	assert.Error(t, err)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProposalService_CreateProposal_OwnJob(t *testing.T) {
	store := new(mockProposalStore)
	jobs := new(mockJobGetter)
	svc := NewProposalService(store, jobs, new(mockEscrowPayments))
	ctx := context.Background()

	clientID := uuid.New()
	job := openJob(clientID)
	jobs.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.CreateProposal(ctx, CreateProposalInput{
		JobID:             job.ID,
		DoerID:            clientID,
		ProposedPrice:     15000,
		EstimatedDuration: 3,
	})

	assert.Error(t, err)
}

func TestProposalService_CreateProposal_FullyStaffed(t *testing.T) {
	store := new(mockProposalStore)
	jobs := new(mockJobGetter)
	svc := NewProposalService(store, jobs, new(mockEscrowPayments))
	ctx := context.Background()

	job := openJob(uuid.New())
	job.MaxWorkers = 1
	job.SelectedWorkers = []uuid.UUID{uuid.New()}
	jobs.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.CreateProposal(ctx, CreateProposalInput{
		JobID:             job.ID,
		DoerID:            uuid.New(),
		ProposedPrice:     15000,
		EstimatedDuration: 3,
	})

	assert.ErrorIs(t, err, apperror.ErrJobFullyStaffed)
}

func TestProposalService_CreateProposal_InvalidPrice(t *testing.T) {
	svc := NewProposalService(new(mockProposalStore), new(mockJobGetter), new(mockEscrowPayments))

	_, err := svc.CreateProposal(context.Background(), CreateProposalInput{
		JobID:             uuid.New(),
		DoerID:            uuid.New(),
		ProposedPrice:     0,
		EstimatedDuration: 3,
	})

	assert.Error(t, err)
}

func TestProposalService_ApproveProposal_Success(t *testing.T) {
	store := new(mockProposalStore)
	jobs := new(mockJobGetter)
	payments := new(mockEscrowPayments)
	svc := NewProposalService(store, jobs, payments)
	ctx := context.Background()

	clientID := uuid.New()
	doerID := uuid.New()
	proposalID := uuid.New()

	contract := &models.Contract{ID: uuid.New(), ClientID: clientID, DoerID: doerID}
	contract.SetPrice(8000)
	result := &repository.ApproveResult{
		Proposal: &models.Proposal{ID: proposalID, DoerID: doerID, Status: models.ProposalStatusApproved},
		Job:      openJob(clientID),
		Contract: contract,
	}

	store.On("Approve", ctx, mock.MatchedBy(func(p repository.ApproveParams) bool {
		return p.ProposalID == proposalID && p.ClientID == clientID && len(p.PairingCode) == 6
	})).Return(result, nil)
	payments.On("Create", ctx, mock.MatchedBy(func(p *models.Payment) bool {
		return p.IsEscrow && p.Amount == contract.TotalPrice && p.PaymentType == models.PaymentTypeEscrowDeposit
	})).Return(nil)

	got, err := svc.ApproveProposal(ctx, proposalID, clientID, nil)

	assert.NoError(t, err)
	assert.Equal(t, result, got)
	store.AssertExpectations(t)
	payments.AssertExpectations(t)
}

func TestProposalService_ApproveProposal_OverBudget(t *testing.T) {
	store := new(mockProposalStore)
	svc := NewProposalService(store, new(mockJobGetter), new(mockEscrowPayments))
	ctx := context.Background()

	store.On("Approve", ctx, mock.Anything).Return(nil, apperror.ErrAllocationExceedsBudget)

	_, err := svc.ApproveProposal(ctx, uuid.New(), uuid.New(), nil)

	assert.ErrorIs(t, err, apperror.ErrAllocationExceedsBudget)
}

func TestProposalService_ApproveProposal_BelowMinimum(t *testing.T) {
	store := new(mockProposalStore)
	svc := NewProposalService(store, new(mockJobGetter), new(mockEscrowPayments))
	ctx := context.Background()

	store.On("Approve", ctx, mock.Anything).Return(nil, apperror.ErrBelowMinimumContractAmount)

	amount := 1000.0
	_, err := svc.ApproveProposal(ctx, uuid.New(), uuid.New(), &amount)

	assert.ErrorIs(t, err, apperror.ErrBelowMinimumContractAmount)
}

func TestProposalService_ApproveProposal_InvalidAmount(t *testing.T) {
	store := new(mockProposalStore)
	svc := NewProposalService(store, new(mockJobGetter), new(mockEscrowPayments))

	amount := -100.0
	_, err := svc.ApproveProposal(context.Background(), uuid.New(), uuid.New(), &amount)

	assert.Error(t, err)
	store.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything)
}

func TestProposalService_RejectProposal_EmptyReason(t *testing.T) {
	store := new(mockProposalStore)
	svc := NewProposalService(store, new(mockJobGetter), new(mockEscrowPayments))

	_, err := svc.RejectProposal(context.Background(), uuid.New(), uuid.New(), "   ")

	assert.Error(t, err)
	store.AssertNotCalled(t, "Reject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProposalService_GetProposal_Forbidden(t *testing.T) {
	store := new(mockProposalStore)
	svc := NewProposalService(store, new(mockJobGetter), new(mockEscrowPayments))
	ctx := context.Background()

	proposal := &models.Proposal{ID: uuid.New(), DoerID: uuid.New(), ClientID: uuid.New()}
	store.On("GetByID", ctx, proposal.ID).Return(proposal, nil)

	_, err := svc.GetProposal(ctx, proposal.ID, uuid.New())

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestProposalService_ListMyProposals_ClampsLimit(t *testing.T) {
	store := new(mockProposalStore)
	svc := NewProposalService(store, new(mockJobGetter), new(mockEscrowPayments))
	ctx := context.Background()
	doerID := uuid.New()

	store.On("ListByDoer", ctx, doerID, 20, 0).Return([]models.Proposal{}, nil)

	_, err := svc.ListMyProposals(ctx, doerID, 500, -3)

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestGeneratePairingCode(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		code, err := generatePairingCode()
		assert.NoError(t, err)
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "код состоит только из цифр")
		}
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}
