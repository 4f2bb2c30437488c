package models

import (
	"time"

	"github.com/google/uuid"
)

// Proposal представляет отклик исполнителя на задание.
// Пара (job_id, doer_id) уникальна: на одно задание можно откликнуться один раз.
type Proposal struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	JobID             uuid.UUID  `db:"job_id" json:"job_id"`
	DoerID            uuid.UUID  `db:"doer_id" json:"doer_id"`
	ClientID          uuid.UUID  `db:"client_id" json:"client_id"`
	ProposedPrice     float64    `db:"proposed_price" json:"proposed_price"`
	EstimatedDuration int        `db:"estimated_duration" json:"estimated_duration"`
	CoverLetter       *string    `db:"cover_letter" json:"cover_letter,omitempty"`
	Status            string     `db:"status" json:"status"`
	RejectionReason   *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	WithdrawalReason  *string    `db:"withdrawal_reason" json:"withdrawal_reason,omitempty"`
	IsCounterOffer    bool       `db:"is_counter_offer" json:"is_counter_offer"`
	DecidedAt         *time.Time `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// IsTerminal сообщает, находится ли отклик в конечном статусе.
// Одобренный, отклонённый или отозванный отклик больше не меняется.
func (p *Proposal) IsTerminal() bool {
	return p.Status == ProposalStatusApproved ||
		p.Status == ProposalStatusRejected ||
		p.Status == ProposalStatusWithdrawn
}
