package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/doersapp/doers-backend/internal/logger"
	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
	"github.com/doersapp/doers-backend/internal/validation"
)

// JobRepository описывает взаимодействие сервиса с хранилищем заданий.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Job, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateAllocations(ctx context.Context, jobID, clientID uuid.UUID, amounts map[uuid.UUID]float64) (*models.Job, error)
}

// PublicationPayments описывает платёжные операции, нужные сервису заданий.
type PublicationPayments interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	MarkFunded(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
}

// JobCacher кэширует задания и страницы открытых заданий.
type JobCacher interface {
	GetJob(ctx context.Context, id string) (*models.Job, error)
	SetJob(ctx context.Context, job *models.Job) error
	GetOpenList(ctx context.Context, limit, offset int) ([]models.Job, error)
	SetOpenList(ctx context.Context, limit, offset int, jobs []models.Job) error
	InvalidateJob(ctx context.Context, id string) error
}

// JobService содержит бизнес-логику работы с заданиями.
type JobService struct {
	repo     JobRepository
	payments PublicationPayments
	cache    JobCacher
}

// NewJobService создаёт новый сервис заданий.
func NewJobService(repo JobRepository, payments PublicationPayments) *JobService {
	return &JobService{repo: repo, payments: payments}
}

// SetCache устанавливает кэш заданий. Без кэша сервис ходит только в базу.
func (s *JobService) SetCache(cache JobCacher) {
	s.cache = cache
}

// CreateJobInput описывает входные данные нового задания.
type CreateJobInput struct {
	ClientID    uuid.UUID
	Title       string
	Description string
	Price       float64
	MaxWorkers  int
	StartDate   *time.Time
	Images      []string
	Tags        []string
}

// CreateJobResult содержит задание и платёж за публикацию.
type CreateJobResult struct {
	Job     *models.Job
	Payment *models.Payment
}

// CreateJob создаёт задание в статусе pending_payment и выставляет счёт за публикацию.
// Открытым задание становится после оплаты публикации (FundPublication).
func (s *JobService) CreateJob(ctx context.Context, in CreateJobInput) (*CreateJobResult, error) {
	if err := validation.ValidateLength("заголовок", in.Title, 3, 200); err != nil {
		return nil, fmt.Errorf("job service: %w", err)
	}
	if err := validation.ValidateNonEmpty("описание", in.Description); err != nil {
		return nil, fmt.Errorf("job service: %w", err)
	}
	if err := validation.ValidateAmount("бюджет", in.Price); err != nil {
		return nil, fmt.Errorf("job service: %w", err)
	}
	if in.Price < models.MinContractAmount {
		return nil, apperror.ErrBelowMinimumContractAmount
	}
	if err := validation.ValidateMaxWorkers(in.MaxWorkers); err != nil {
		return nil, fmt.Errorf("job service: %w", err)
	}
	if in.StartDate != nil && in.StartDate.Before(time.Now()) {
		return nil, fmt.Errorf("job service: дата начала не может быть в прошлом")
	}

	job := &models.Job{
		ClientID:    in.ClientID,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Status:      models.JobStatusPendingPayment,
		MaxWorkers:  in.MaxWorkers,
		StartDate:   in.StartDate,
		Images:      in.Images,
		Tags:        in.Tags,
	}
	job.RecalculateAllocations()

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		PayerID:     in.ClientID,
		JobID:       &job.ID,
		Amount:      models.PublicationFee,
		PaymentType: models.PaymentTypePublication,
		IsEscrow:    false,
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	return &CreateJobResult{Job: job, Payment: payment}, nil
}

// FundPublication фиксирует оплату публикации и открывает задание.
func (s *JobService) FundPublication(ctx context.Context, paymentID, clientID uuid.UUID) (*models.Job, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.PayerID != clientID {
		return nil, apperror.ErrForbidden
	}
	if payment.PaymentType != models.PaymentTypePublication || payment.JobID == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "платёж не относится к публикации задания")
	}

	if _, err := s.payments.MarkFunded(ctx, paymentID); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, *payment.JobID, models.JobStatusOpen); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, *payment.JobID)

	return s.repo.GetByID(ctx, *payment.JobID)
}

// GetJob возвращает задание, при наличии кэша сперва проверяя его.
func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	if s.cache != nil {
		if job, err := s.cache.GetJob(ctx, id.String()); err == nil {
			return job, nil
		}
	}

	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJob(ctx, job); err != nil && logger.Log != nil {
			logger.Log.WithField("job_id", id).Warn("job service: не удалось записать задание в кэш")
		}
	}

	return job, nil
}

// ListOpenJobs возвращает страницу открытых заданий.
func (s *JobService) ListOpenJobs(ctx context.Context, limit, offset int) ([]models.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	if s.cache != nil {
		if jobs, err := s.cache.GetOpenList(ctx, limit, offset); err == nil {
			return jobs, nil
		}
	}

	jobs, err := s.repo.ListOpen(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetOpenList(ctx, limit, offset, jobs); err != nil && logger.Log != nil {
			logger.Log.Warn("job service: не удалось записать список заданий в кэш")
		}
	}

	return jobs, nil
}

// ListMyJobs возвращает задания клиента.
func (s *JobService) ListMyJobs(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByClient(ctx, clientID, limit, offset)
}

// UpdateAllocations корректирует распределение бюджета между исполнителями.
// Все проверки (бюджет, минимальная сумма, выбранность исполнителей)
// выполняются репозиторием внутри транзакции.
func (s *JobService) UpdateAllocations(ctx context.Context, jobID, clientID uuid.UUID, amounts map[uuid.UUID]float64) (*models.Job, error) {
	if len(amounts) == 0 {
		return nil, fmt.Errorf("job service: распределение не может быть пустым")
	}
	for _, amount := range amounts {
		if err := validation.ValidateAmount("сумма распределения", amount); err != nil {
			return nil, fmt.Errorf("job service: %w", err)
		}
	}

	job, err := s.repo.UpdateAllocations(ctx, jobID, clientID, amounts)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, jobID)

	return job, nil
}

// UpdateStatus меняет статус задания с проверкой владельца.
func (s *JobService) UpdateStatus(ctx context.Context, jobID, clientID uuid.UUID, status string) (*models.Job, error) {
	if _, ok := models.ValidJobStatuses[status]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус задания")
	}

	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}
	if job.Status == models.JobStatusCompleted || job.Status == models.JobStatusCancelled {
		return nil, apperror.New(apperror.ErrCodeStateConflict, "нельзя изменить статус завершённого или отменённого задания")
	}

	if err := s.repo.UpdateStatus(ctx, jobID, status); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, jobID)

	return s.repo.GetByID(ctx, jobID)
}

func (s *JobService) invalidateCache(ctx context.Context, jobID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateJob(ctx, jobID.String()); err != nil && logger.Log != nil {
		logger.Log.WithField("job_id", jobID).Warn("job service: не удалось инвалидировать кэш")
	}
}
