package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute — спор по эскроу-платежу, решаемый администратором.
type Dispute struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PaymentID      uuid.UUID  `db:"payment_id" json:"payment_id"`
	ContractID     *uuid.UUID `db:"contract_id" json:"contract_id,omitempty"`
	RaisedBy       uuid.UUID  `db:"raised_by" json:"raised_by"`
	Reason         string     `db:"reason" json:"reason"`
	Status         string     `db:"status" json:"status"`
	ResolutionType *string    `db:"resolution_type" json:"resolution_type,omitempty"`
	RefundAmount   *float64   `db:"refund_amount" json:"refund_amount,omitempty"`
	ResolvedBy     *uuid.UUID `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// IsTerminal сообщает, закрыт ли спор окончательно.
func (d *Dispute) IsTerminal() bool {
	_, ok := TerminalDisputeStatuses[d.Status]
	return ok
}

// DisputeAuditEntry — запись журнала действий по спору.
type DisputeAuditEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DisputeID uuid.UUID `db:"dispute_id" json:"dispute_id"`
	ActorID   uuid.UUID `db:"actor_id" json:"actor_id"`
	Action    string    `db:"action" json:"action"`
	Details   *string   `db:"details" json:"details,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
