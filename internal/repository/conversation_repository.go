package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/doersapp/doers-backend/internal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
)

// ConversationRepository отвечает за чаты по заданиям.
type ConversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

type conversationRow struct {
	ID        uuid.UUID `db:"id"`
	JobID     uuid.UUID `db:"job_id"`
	ClientID  uuid.UUID `db:"client_id"`
	IsGroup   bool      `db:"is_group"`
	Members   []byte    `db:"members"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row *conversationRow) toModel() (*models.Conversation, error) {
	conv := &models.Conversation{
		ID:        row.ID,
		JobID:     row.JobID,
		ClientID:  row.ClientID,
		IsGroup:   row.IsGroup,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if len(row.Members) > 0 {
		if err := json.Unmarshal(row.Members, &conv.Members); err != nil {
			return nil, fmt.Errorf("conversation repository: members %w", err)
		}
	}
	return conv, nil
}

// GetByJob возвращает чат задания.
func (r *ConversationRepository) GetByJob(ctx context.Context, jobID uuid.UUID) (*models.Conversation, error) {
	var row conversationRow
	if err := r.db.GetContext(ctx, &row, `SELECT * FROM conversations WHERE job_id = $1`, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("conversation repository: get by job %w", err)
	}
	return row.toModel()
}

// AddMember создаёт чат задания, если его нет, и добавляет исполнителя.
// Когда участников больше двух, чат становится групповым.
func (r *ConversationRepository) AddMember(ctx context.Context, jobID, clientID, doerID uuid.UUID) (*models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var row conversationRow
	err = tx.GetContext(ctx, &row, `SELECT * FROM conversations WHERE job_id = $1 FOR UPDATE`, jobID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation repository: add member get %w", err)
		}

		// Чата ещё нет: создаём с клиентом и исполнителем.
		members, _ := json.Marshal([]uuid.UUID{clientID, doerID})
		var created conversationRow
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO conversations (job_id, client_id, is_group, members)
			VALUES ($1, $2, FALSE, $3)
			RETURNING id, job_id, client_id, is_group, members, created_at, updated_at
		`, jobID, clientID, members).StructScan(&created)
		if err != nil {
			return nil, fmt.Errorf("conversation repository: add member create %w", err)
		}

		conv, err := created.toModel()
		if err != nil {
			return nil, err
		}
		return conv, tx.Commit()
	}

	conv, err := row.toModel()
	if err != nil {
		return nil, err
	}

	if conv.HasMember(doerID) {
		return conv, tx.Commit()
	}

	conv.Members = append(conv.Members, doerID)
	conv.IsGroup = len(conv.Members) > 2

	members, err := json.Marshal(conv.Members)
	if err != nil {
		return nil, fmt.Errorf("conversation repository: add member marshal %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE conversations SET members = $2, is_group = $3, updated_at = NOW() WHERE id = $1
	`, conv.ID, members, conv.IsGroup)
	if err != nil {
		return nil, fmt.Errorf("conversation repository: add member update %w", err)
	}

	return conv, tx.Commit()
}
