package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestJob_RecalculateAllocations(t *testing.T) {
	job := &Job{Price: 20000, MaxWorkers: 3}
	now := time.Now()

	job.AddAllocation(uuid.New(), 8000, now)
	job.AddAllocation(uuid.New(), 5000, now)

	assert.Equal(t, 13000.0, job.AllocatedTotal)
	assert.Equal(t, 7000.0, job.RemainingBudget)
	assert.InDelta(t, 40.0, job.Allocations[0].Percentage, 0.001)
	assert.InDelta(t, 25.0, job.Allocations[1].Percentage, 0.001)
}

func TestJob_RecalculateAllocations_ZeroPrice(t *testing.T) {
	job := &Job{Price: 0}
	job.AddAllocation(uuid.New(), 1000, time.Now())

	assert.Equal(t, 1000.0, job.AllocatedTotal)
	assert.Equal(t, 0.0, job.Allocations[0].Percentage)
}

func TestJob_IsFullyStaffed(t *testing.T) {
	job := &Job{MaxWorkers: 2}
	assert.False(t, job.IsFullyStaffed())

	job.SelectedWorkers = append(job.SelectedWorkers, uuid.New())
	assert.False(t, job.IsFullyStaffed())

	job.SelectedWorkers = append(job.SelectedWorkers, uuid.New())
	assert.True(t, job.IsFullyStaffed())
}

func TestJob_IsWorkerSelected(t *testing.T) {
	worker := uuid.New()
	job := &Job{SelectedWorkers: []uuid.UUID{worker}}

	assert.True(t, job.IsWorkerSelected(worker))
	assert.False(t, job.IsWorkerSelected(uuid.New()))
}
