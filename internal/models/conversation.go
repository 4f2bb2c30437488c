package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation — чат по заданию. Для заданий с несколькими исполнителями
// один групповой чат, участники которого пополняются при одобрении откликов.
type Conversation struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	JobID     uuid.UUID   `db:"job_id" json:"job_id"`
	ClientID  uuid.UUID   `db:"client_id" json:"client_id"`
	IsGroup   bool        `db:"is_group" json:"is_group"`
	Members   []uuid.UUID `json:"members"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// HasMember сообщает, состоит ли пользователь в чате.
func (c *Conversation) HasMember(userID uuid.UUID) bool {
	for _, id := range c.Members {
		if id == userID {
			return true
		}
	}
	return false
}
