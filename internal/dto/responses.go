package dto

import (
	"github.com/google/uuid"

	"github.com/doersapp/doers-backend/internal/models"
)

// JobShortInfo represents basic job information embedded in other responses
type JobShortInfo struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Status   string    `json:"status"`
	Price    float64   `json:"price"`
	ClientID uuid.UUID `json:"client_id"`
}

// NewJobShortInfo builds the embedded job slice from a full model
func NewJobShortInfo(job *models.Job) *JobShortInfo {
	if job == nil {
		return nil
	}
	return &JobShortInfo{
		ID:       job.ID,
		Title:    job.Title,
		Status:   job.Status,
		Price:    job.Price,
		ClientID: job.ClientID,
	}
}

// ProposalWithJobResponse represents a proposal with associated job info
type ProposalWithJobResponse struct {
	*models.Proposal
	Job *JobShortInfo `json:"job,omitempty"`
}

// CreateJobResponse represents a freshly created job with its publication invoice
type CreateJobResponse struct {
	Job     *models.Job     `json:"job"`
	Payment *models.Payment `json:"payment"`
}

// ApproveProposalResponse represents the outcome of approving a proposal
type ApproveProposalResponse struct {
	Proposal *models.Proposal `json:"proposal"`
	Job      *models.Job      `json:"job"`
	Contract *models.Contract `json:"contract"`
}

// ResolveDisputeResponse represents the outcome of closing a dispute
type ResolveDisputeResponse struct {
	Dispute *models.Dispute `json:"dispute"`
	Payment *models.Payment `json:"payment"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
