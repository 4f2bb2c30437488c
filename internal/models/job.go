package models

import (
	"time"

	"github.com/google/uuid"
)

// Job описывает задание, размещённое клиентом.
type Job struct {
	ID              uuid.UUID          `db:"id" json:"id"`
	ClientID        uuid.UUID          `db:"client_id" json:"client_id"`
	DoerID          *uuid.UUID         `db:"doer_id" json:"doer_id,omitempty"`
	Title           string             `db:"title" json:"title"`
	Description     string             `db:"description" json:"description"`
	Price           float64            `db:"price" json:"price"`
	Status          string             `db:"status" json:"status"`
	MaxWorkers      int                `db:"max_workers" json:"max_workers"`
	SelectedWorkers []uuid.UUID        `json:"selected_workers"`
	Allocations     []WorkerAllocation `json:"worker_allocations"`
	AllocatedTotal  float64            `db:"allocated_total" json:"allocated_total"`
	RemainingBudget float64            `db:"remaining_budget" json:"remaining_budget"`
	StartDate       *time.Time         `db:"start_date" json:"start_date,omitempty"`
	Images          []string           `json:"images,omitempty"`
	Tags            []string           `json:"tags,omitempty"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
}

// WorkerAllocation хранит долю бюджета, выделенную конкретному исполнителю.
type WorkerAllocation struct {
	WorkerID        uuid.UUID `json:"worker_id"`
	AllocatedAmount float64   `json:"allocated_amount"`
	Percentage      float64   `json:"percentage"`
	AllocatedAt     time.Time `json:"allocated_at"`
}

// IsWorkerSelected сообщает, выбран ли уже исполнитель для задания.
func (j *Job) IsWorkerSelected(workerID uuid.UUID) bool {
	for _, id := range j.SelectedWorkers {
		if id == workerID {
			return true
		}
	}
	return false
}

// IsFullyStaffed сообщает, заполнены ли все места исполнителей.
func (j *Job) IsFullyStaffed() bool {
	return len(j.SelectedWorkers) >= j.MaxWorkers
}

// RecalculateAllocations пересчитывает allocated_total и remaining_budget
// по текущему списку распределений. Проценты считаются от полного бюджета.
func (j *Job) RecalculateAllocations() {
	total := 0.0
	for i := range j.Allocations {
		total += j.Allocations[i].AllocatedAmount
		if j.Price > 0 {
			j.Allocations[i].Percentage = j.Allocations[i].AllocatedAmount / j.Price * 100
		}
	}
	j.AllocatedTotal = total
	j.RemainingBudget = j.Price - total
}

// AddAllocation добавляет исполнителя в распределение бюджета и пересчитывает итоги.
func (j *Job) AddAllocation(workerID uuid.UUID, amount float64, now time.Time) {
	j.Allocations = append(j.Allocations, WorkerAllocation{
		WorkerID:        workerID,
		AllocatedAmount: amount,
		AllocatedAt:     now,
	})
	j.RecalculateAllocations()
}
