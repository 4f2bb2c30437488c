package models

import (
	"time"

	"github.com/google/uuid"
)

// PairingCodeTTL время жизни кода подтверждения личной встречи.
const PairingCodeTTL = 24 * time.Hour

// Contract создаётся ровно один раз при одобрении отклика.
// Комиссия и итоговая стоимость всегда производные от price и не задаются напрямую.
type Contract struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	JobID             uuid.UUID  `db:"job_id" json:"job_id"`
	ProposalID        uuid.UUID  `db:"proposal_id" json:"proposal_id"`
	ClientID          uuid.UUID  `db:"client_id" json:"client_id"`
	DoerID            uuid.UUID  `db:"doer_id" json:"doer_id"`
	Price             float64    `db:"price" json:"price"`
	Commission        float64    `db:"commission" json:"commission"`
	TotalPrice        float64    `db:"total_price" json:"total_price"`
	Status            string     `db:"status" json:"status"`
	StartDate         time.Time  `db:"start_date" json:"start_date"`
	EndDate           time.Time  `db:"end_date" json:"end_date"`
	PairingCode       string     `db:"pairing_code" json:"-"`
	PairingExpiresAt  time.Time  `db:"pairing_expires_at" json:"pairing_expires_at"`
	PairedAt          *time.Time `db:"paired_at" json:"paired_at,omitempty"`
	ClientAcceptedTerms bool     `db:"client_accepted_terms" json:"client_accepted_terms"`
	DoerAcceptedTerms   bool     `db:"doer_accepted_terms" json:"doer_accepted_terms"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// SetPrice выставляет цену контракта и пересчитывает комиссию с итогом.
func (c *Contract) SetPrice(price float64) {
	c.Price = price
	c.Commission = price * CommissionRate
	c.TotalPrice = c.Price + c.Commission
}

// PairingCodeValid проверяет код подтверждения встречи с учётом срока действия.
func (c *Contract) PairingCodeValid(code string, now time.Time) bool {
	return c.PairingCode != "" && c.PairingCode == code && now.Before(c.PairingExpiresAt)
}
