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
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
)

var (
	ErrJobNotFound = errors.New("job not found")
)

// JobRepository отвечает за хранение заданий.
// selected_workers, worker_allocations, images и tags лежат в JSONB колонках.
type JobRepository struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// jobRow — строка таблицы jobs с сырыми JSONB колонками.
type jobRow struct {
	ID              uuid.UUID  `db:"id"`
	ClientID        uuid.UUID  `db:"client_id"`
	DoerID          *uuid.UUID `db:"doer_id"`
	Title           string     `db:"title"`
	Description     string     `db:"description"`
	Price           float64    `db:"price"`
	Status          string     `db:"status"`
	MaxWorkers      int        `db:"max_workers"`
	SelectedWorkers []byte     `db:"selected_workers"`
	Allocations     []byte     `db:"worker_allocations"`
	AllocatedTotal  float64    `db:"allocated_total"`
	RemainingBudget float64    `db:"remaining_budget"`
	StartDate       *time.Time `db:"start_date"`
	Images          []byte     `db:"images"`
	Tags            []byte     `db:"tags"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (row *jobRow) toModel() (*models.Job, error) {
	job := &models.Job{
		ID:              row.ID,
		ClientID:        row.ClientID,
		DoerID:          row.DoerID,
		Title:           row.Title,
		Description:     row.Description,
		Price:           row.Price,
		Status:          row.Status,
		MaxWorkers:      row.MaxWorkers,
		AllocatedTotal:  row.AllocatedTotal,
		RemainingBudget: row.RemainingBudget,
		StartDate:       row.StartDate,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}

	if err := unmarshalJSONColumn(row.SelectedWorkers, &job.SelectedWorkers); err != nil {
		return nil, fmt.Errorf("job repository: selected_workers %w", err)
	}
	if err := unmarshalJSONColumn(row.Allocations, &job.Allocations); err != nil {
		return nil, fmt.Errorf("job repository: worker_allocations %w", err)
	}
	if err := unmarshalJSONColumn(row.Images, &job.Images); err != nil {
		return nil, fmt.Errorf("job repository: images %w", err)
	}
	if err := unmarshalJSONColumn(row.Tags, &job.Tags); err != nil {
		return nil, fmt.Errorf("job repository: tags %w", err)
	}

	return job, nil
}

func unmarshalJSONColumn(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func marshalJSONColumn(src interface{}) ([]byte, error) {
	if src == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(src)
}

const jobColumns = `id, client_id, doer_id, title, description, price, status, max_workers,
	selected_workers, worker_allocations, allocated_total, remaining_budget,
	start_date, images, tags, created_at, updated_at`

// Create сохраняет новое задание.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	selected, err := marshalJSONColumn(job.SelectedWorkers)
	if err != nil {
		return fmt.Errorf("job repository: create %w", err)
	}
	allocations, err := marshalJSONColumn(job.Allocations)
	if err != nil {
		return fmt.Errorf("job repository: create %w", err)
	}
	images, err := marshalJSONColumn(job.Images)
	if err != nil {
		return fmt.Errorf("job repository: create %w", err)
	}
	tags, err := marshalJSONColumn(job.Tags)
	if err != nil {
		return fmt.Errorf("job repository: create %w", err)
	}

	query := `
		INSERT INTO jobs (client_id, title, description, price, status, max_workers,
			selected_workers, worker_allocations, allocated_total, remaining_budget,
			start_date, images, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(ctx, query,
		job.ClientID, job.Title, job.Description, job.Price, job.Status, job.MaxWorkers,
		selected, allocations, job.AllocatedTotal, job.RemainingBudget,
		job.StartDate, images, tags,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return fmt.Errorf("job repository: create %w", err)
	}

	return nil
}

// GetByID возвращает задание по идентификатору.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var row jobRow
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("job repository: get by id %w", err)
	}
	return row.toModel()
}

// ListByClient возвращает задания клиента.
func (r *JobRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Job, error) {
	var rows []jobRow
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, clientID, limit, offset); err != nil {
		return nil, fmt.Errorf("job repository: list by client %w", err)
	}
	return rowsToJobs(rows)
}

// ListOpen возвращает открытые задания для ленты исполнителей.
func (r *JobRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Job, error) {
	var rows []jobRow
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, models.JobStatusOpen, limit, offset); err != nil {
		return nil, fmt.Errorf("job repository: list open %w", err)
	}
	return rowsToJobs(rows)
}

func rowsToJobs(rows []jobRow) ([]models.Job, error) {
	jobs := make([]models.Job, 0, len(rows))
	for i := range rows {
		job, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// UpdateStatus переводит задание в новый статус.
func (r *JobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("job repository: update status %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("job repository: update status rows affected %w", err)
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// UpdateAllocations заменяет распределение бюджета между исполнителями.
// Выполняется в транзакции с блокировкой строки задания: одновременные
// изменения одного задания сериализуются на уровне базы.
func (r *JobRepository) UpdateAllocations(ctx context.Context, jobID, clientID uuid.UUID, amounts map[uuid.UUID]float64) (*models.Job, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	job, err := getJobForUpdate(ctx, tx, jobID)
	if err != nil {
		return nil, err
	}

	if job.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}

	if err := applyAllocationUpdate(job, amounts, time.Now()); err != nil {
		return nil, err
	}

	if err := saveJobTx(ctx, tx, job); err != nil {
		return nil, err
	}

	return job, tx.Commit()
}

// applyAllocationUpdate проверяет и применяет новое распределение
// бюджета к заданию в памяти. Распределять можно только между уже
// выбранными исполнителями, каждая сумма не ниже минимума контракта,
// итог не выше бюджета задания.
func applyAllocationUpdate(job *models.Job, amounts map[uuid.UUID]float64, now time.Time) error {
	total := 0.0
	for workerID, amount := range amounts {
		if !job.IsWorkerSelected(workerID) {
			return apperror.ErrWorkerNotSelected
		}
		if amount < models.MinContractAmount {
			return apperror.ErrBelowMinimumContractAmount
		}
		total += amount
	}
	if total > job.Price {
		return apperror.ErrAllocationExceedsBudget
	}

	for i := range job.Allocations {
		if amount, ok := amounts[job.Allocations[i].WorkerID]; ok {
			job.Allocations[i].AllocatedAmount = amount
			job.Allocations[i].AllocatedAt = now
		}
	}
	job.RecalculateAllocations()
	return nil
}

// getJobForUpdate читает задание с блокировкой строки внутри транзакции.
func getJobForUpdate(ctx context.Context, tx *sqlx.Tx, jobID uuid.UUID) (*models.Job, error) {
	var row jobRow
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &row, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("job repository: get for update %w", err)
	}
	return row.toModel()
}

// saveJobTx записывает изменяемые поля задания внутри транзакции.
func saveJobTx(ctx context.Context, tx *sqlx.Tx, job *models.Job) error {
	selected, err := marshalJSONColumn(job.SelectedWorkers)
	if err != nil {
		return fmt.Errorf("job repository: save %w", err)
	}
	allocations, err := marshalJSONColumn(job.Allocations)
	if err != nil {
		return fmt.Errorf("job repository: save %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE jobs
		SET doer_id = $2, status = $3, selected_workers = $4, worker_allocations = $5,
			allocated_total = $6, remaining_budget = $7, updated_at = NOW()
		WHERE id = $1
	`, job.ID, job.DoerID, job.Status, selected, allocations, job.AllocatedTotal, job.RemainingBudget)
	if err != nil {
		return fmt.Errorf("job repository: save %w", err)
	}
	return nil
}
