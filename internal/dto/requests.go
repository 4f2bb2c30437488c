package dto

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest represents the request to register a new account
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request to rotate a token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateJobRequest represents the request to publish a job
type CreateJobRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Price       float64  `json:"price" binding:"required,gt=0"`
	MaxWorkers  int      `json:"max_workers"`
	StartDate   *string  `json:"start_date"`
	Images      []string `json:"images"`
	Tags        []string `json:"tags"`
}

// UpdateJobStatusRequest represents the request to change a job status
type UpdateJobStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateAllocationsRequest represents the request to rebalance worker budgets
type UpdateAllocationsRequest struct {
	Allocations map[string]float64 `json:"allocations" binding:"required"`
}

// CreateProposalRequest represents the request to create a proposal
type CreateProposalRequest struct {
	ProposedPrice     float64 `json:"proposed_price" binding:"required,gt=0"`
	EstimatedDuration int     `json:"estimated_duration" binding:"required"`
	CoverLetter       *string `json:"cover_letter"`
	IsCounterOffer    bool    `json:"is_counter_offer"`
}

// ApproveProposalRequest represents the request to approve a proposal
type ApproveProposalRequest struct {
	AllocatedAmount *float64 `json:"allocated_amount"`
}

// ReasonRequest carries the free-form reason for reject, withdraw and dispute operations
type ReasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ResolveDisputeRequest represents the admin request to close a dispute
type ResolveDisputeRequest struct {
	ResolutionType string   `json:"resolution_type" binding:"required"`
	RefundAmount   *float64 `json:"refund_amount"`
}

// UpdateDisputeStatusRequest represents the admin request to move a dispute along
type UpdateDisputeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PairingRequest represents the request to verify an on-site pairing code
type PairingRequest struct {
	Code string `json:"code" binding:"required"`
}

// RegisterDeviceRequest represents the request to register a push token
type RegisterDeviceRequest struct {
	Token string `json:"token" binding:"required"`
}

// ParseStartDate converts the string start date to a time.Time pointer
func (r *CreateJobRequest) ParseStartDate() (*time.Time, error) {
	if r.StartDate == nil || *r.StartDate == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *r.StartDate)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// ParseAllocations converts string keyed allocations to UUID keyed ones
func (r *UpdateAllocationsRequest) ParseAllocations() (map[uuid.UUID]float64, error) {
	parsed := make(map[uuid.UUID]float64, len(r.Allocations))
	for k, v := range r.Allocations {
		id, err := uuid.Parse(k)
		if err != nil {
			return nil, err
		}
		parsed[id] = v
	}
	return parsed, nil
}
