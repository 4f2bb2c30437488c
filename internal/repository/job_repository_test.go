package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
)

func allocatedJob(workers ...uuid.UUID) *models.Job {
	job := &models.Job{
		ID:         uuid.New(),
		ClientID:   uuid.New(),
		Price:      20000,
		Status:     models.JobStatusOpen,
		MaxWorkers: len(workers),
	}
	for _, w := range workers {
		job.SelectedWorkers = append(job.SelectedWorkers, w)
		job.AddAllocation(w, 6000, time.Now())
	}
	return job
}

func TestApplyAllocationUpdate_WorkerNotSelected(t *testing.T) {
	worker := uuid.New()
	job := allocatedJob(worker)

	err := applyAllocationUpdate(job, map[uuid.UUID]float64{uuid.New(): 7000}, time.Now())

	assert.ErrorIs(t, err, apperror.ErrWorkerNotSelected)
	assert.Equal(t, 6000.0, job.AllocatedTotal)
}

func TestApplyAllocationUpdate_OverBudget(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	job := allocatedJob(first, second)

	err := applyAllocationUpdate(job, map[uuid.UUID]float64{first: 15000, second: 10000}, time.Now())

	assert.ErrorIs(t, err, apperror.ErrAllocationExceedsBudget)
}

func TestApplyAllocationUpdate_BelowFloor(t *testing.T) {
	worker := uuid.New()
	job := allocatedJob(worker)

	err := applyAllocationUpdate(job, map[uuid.UUID]float64{worker: 1000}, time.Now())

	assert.ErrorIs(t, err, apperror.ErrBelowMinimumContractAmount)
}

func TestApplyAllocationUpdate_Recalculates(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	job := allocatedJob(first, second)

	err := applyAllocationUpdate(job, map[uuid.UUID]float64{first: 12000, second: 8000}, time.Now())

	assert.NoError(t, err)
	assert.Equal(t, 20000.0, job.AllocatedTotal)
	assert.Equal(t, 0.0, job.RemainingBudget)
	assert.InDelta(t, 60.0, job.Allocations[0].Percentage, 0.001)
	assert.InDelta(t, 40.0, job.Allocations[1].Percentage, 0.001)
}
