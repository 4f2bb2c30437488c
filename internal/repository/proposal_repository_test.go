package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
)

func approvalJob(clientID uuid.UUID) *models.Job {
	return &models.Job{
		ID:              uuid.New(),
		ClientID:        clientID,
		Title:           "Разгрузка фуры",
		Price:           10000,
		Status:          models.JobStatusOpen,
		MaxWorkers:      2,
		RemainingBudget: 10000,
	}
}

func pendingProposal(job *models.Job, price float64) *models.Proposal {
	return &models.Proposal{
		ID:                uuid.New(),
		JobID:             job.ID,
		DoerID:            uuid.New(),
		ClientID:          job.ClientID,
		ProposedPrice:     price,
		EstimatedDuration: 3,
		Status:            models.ProposalStatusPending,
	}
}

func TestApplyApproval_Success(t *testing.T) {
	clientID := uuid.New()
	job := approvalJob(clientID)
	proposal := pendingProposal(job, 6000)
	now := time.Now()

	contract, err := applyApproval(job, proposal, ApproveParams{
		ProposalID:  proposal.ID,
		ClientID:    clientID,
		PairingCode: "483920",
	}, now)

	assert.NoError(t, err)
	assert.Equal(t, models.ProposalStatusApproved, proposal.Status)
	assert.NotNil(t, proposal.DecidedAt)
	assert.Equal(t, []uuid.UUID{proposal.DoerID}, job.SelectedWorkers)
	assert.Equal(t, 6000.0, job.AllocatedTotal)
	assert.Equal(t, 4000.0, job.RemainingBudget)
	assert.Equal(t, 6000.0, contract.Price)
	assert.Equal(t, 600.0, contract.Commission)
	assert.Equal(t, 6600.0, contract.TotalPrice)
	assert.Equal(t, "483920", contract.PairingCode)
	assert.Equal(t, now.AddDate(0, 0, 3), contract.EndDate)
}

func TestApplyApproval_DefaultBidOverBudget(t *testing.T) {
	clientID := uuid.New()
	job := approvalJob(clientID)
	now := time.Now()

	// Первый исполнитель занимает 8000 из 10000.
	first := pendingProposal(job, 8000)
	_, err := applyApproval(job, first, ApproveParams{ProposalID: first.ID, ClientID: clientID, PairingCode: "111111"}, now)
	assert.NoError(t, err)

	// Второе одобрение без явной суммы: ставка 8000 превышает остаток 2000
	// и должна быть отклонена так же, как явная сумма.
	second := pendingProposal(job, 8000)
	_, err = applyApproval(job, second, ApproveParams{ProposalID: second.ID, ClientID: clientID, PairingCode: "222222"}, now)

	assert.ErrorIs(t, err, apperror.ErrAllocationExceedsBudget)
	assert.Equal(t, models.ProposalStatusPending, second.Status)
	assert.Equal(t, 8000.0, job.AllocatedTotal)
	assert.Len(t, job.SelectedWorkers, 1)
}

func TestApplyApproval_ExplicitAmountOverBudget(t *testing.T) {
	clientID := uuid.New()
	job := approvalJob(clientID)
	proposal := pendingProposal(job, 6000)
	amount := 12000.0

	_, err := applyApproval(job, proposal, ApproveParams{
		ProposalID:      proposal.ID,
		ClientID:        clientID,
		AllocatedAmount: &amount,
		PairingCode:     "333333",
	}, time.Now())

	assert.ErrorIs(t, err, apperror.ErrAllocationExceedsBudget)
}

func TestApplyApproval_BelowMinimum(t *testing.T) {
	clientID := uuid.New()
	job := approvalJob(clientID)
	proposal := pendingProposal(job, 3000)

	_, err := applyApproval(job, proposal, ApproveParams{
		ProposalID:  proposal.ID,
		ClientID:    clientID,
		PairingCode: "444444",
	}, time.Now())

	assert.ErrorIs(t, err, apperror.ErrBelowMinimumContractAmount)
	assert.Equal(t, models.ProposalStatusPending, proposal.Status)
}

func TestApplyApproval_FullyStaffed(t *testing.T) {
	clientID := uuid.New()
	job := approvalJob(clientID)
	job.MaxWorkers = 1
	job.SelectedWorkers = []uuid.UUID{uuid.New()}
	proposal := pendingProposal(job, 6000)

	_, err := applyApproval(job, proposal, ApproveParams{
		ProposalID:  proposal.ID,
		ClientID:    clientID,
		PairingCode: "555555",
	}, time.Now())

	assert.ErrorIs(t, err, apperror.ErrJobFullyStaffed)
}

func TestApplyApproval_WorkerAlreadySelected(t *testing.T) {
	clientID := uuid.New()
	job := approvalJob(clientID)
	proposal := pendingProposal(job, 6000)
	job.SelectedWorkers = []uuid.UUID{proposal.DoerID}

	_, err := applyApproval(job, proposal, ApproveParams{
		ProposalID:  proposal.ID,
		ClientID:    clientID,
		PairingCode: "666666",
	}, time.Now())

	assert.ErrorIs(t, err, apperror.ErrWorkerAlreadySelected)
}

func TestApplyApproval_NotPending(t *testing.T) {
	clientID := uuid.New()
	job := approvalJob(clientID)
	proposal := pendingProposal(job, 6000)
	proposal.Status = models.ProposalStatusRejected

	_, err := applyApproval(job, proposal, ApproveParams{
		ProposalID:  proposal.ID,
		ClientID:    clientID,
		PairingCode: "777777",
	}, time.Now())

	assert.ErrorIs(t, err, apperror.ErrProposalNotPending)
}

func TestApplyApproval_NotOwner(t *testing.T) {
	job := approvalJob(uuid.New())
	proposal := pendingProposal(job, 6000)

	_, err := applyApproval(job, proposal, ApproveParams{
		ProposalID:  proposal.ID,
		ClientID:    uuid.New(),
		PairingCode: "888888",
	}, time.Now())

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestApplyApproval_LastSlotStartsJob(t *testing.T) {
	clientID := uuid.New()
	job := approvalJob(clientID)
	job.MaxWorkers = 1
	started := time.Now().Add(-time.Hour)
	job.StartDate = &started
	proposal := pendingProposal(job, 6000)

	_, err := applyApproval(job, proposal, ApproveParams{
		ProposalID:  proposal.ID,
		ClientID:    clientID,
		PairingCode: "999999",
	}, time.Now())

	assert.NoError(t, err)
	assert.True(t, job.IsFullyStaffed())
	assert.Equal(t, models.JobStatusInProgress, job.Status)
}
