package service

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"

	"github.com/doersapp/doers-backend/internal/goroutine"
	"github.com/doersapp/doers-backend/internal/logger"
	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
	"github.com/doersapp/doers-backend/internal/repository"
	"github.com/doersapp/doers-backend/internal/validation"
)

// ProposalStore описывает взаимодействие сервиса с хранилищем откликов.
type ProposalStore interface {
	Create(ctx context.Context, proposal *models.Proposal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Proposal, error)
	ListByDoer(ctx context.Context, doerID uuid.UUID, limit, offset int) ([]models.Proposal, error)
	Approve(ctx context.Context, p repository.ApproveParams) (*repository.ApproveResult, error)
	Reject(ctx context.Context, proposalID, clientID uuid.UUID, reason string) (*models.Proposal, error)
	Withdraw(ctx context.Context, proposalID, doerID uuid.UUID, reason string) (*models.Proposal, error)
}

// JobGetter достаёт задание для проверок перед созданием отклика.
type JobGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// EscrowPayments создаёт эскроу-платежи по новым контрактам.
type EscrowPayments interface {
	Create(ctx context.Context, payment *models.Payment) error
}

// ConversationStore управляет групповыми чатами по заданиям.
type ConversationStore interface {
	AddMember(ctx context.Context, jobID, clientID, doerID uuid.UUID) (*models.Conversation, error)
}

// Notifier доставляет события участникам.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event string, data interface{}) (*models.Notification, error)
}

// UserDirectory достаёт email получателей для писем.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ProposalService содержит бизнес-логику работы с откликами и одобрением.
// Основной переход (одобрение + контракт) атомарен и живёт в репозитории,
// все побочные эффекты best-effort и выполняются после коммита.
type ProposalService struct {
	proposals     ProposalStore
	jobs          JobGetter
	payments      EscrowPayments
	conversations ConversationStore
	notifier      Notifier
	users         UserDirectory
	mailer        Mailer
	cache         JobCacher
}

// NewProposalService создаёт новый сервис откликов.
func NewProposalService(proposals ProposalStore, jobs JobGetter, payments EscrowPayments) *ProposalService {
	return &ProposalService{
		proposals: proposals,
		jobs:      jobs,
		payments:  payments,
	}
}

// SetConversations устанавливает хранилище чатов.
func (s *ProposalService) SetConversations(c ConversationStore) { s.conversations = c }

// SetNotifier устанавливает доставку уведомлений.
func (s *ProposalService) SetNotifier(n Notifier) { s.notifier = n }

// SetMailer устанавливает отправку писем и справочник пользователей.
func (s *ProposalService) SetMailer(m Mailer, users UserDirectory) {
	s.mailer = m
	s.users = users
}

// SetCache устанавливает кэш заданий для инвалидации после одобрения.
func (s *ProposalService) SetCache(cache JobCacher) { s.cache = cache }

// CreateProposalInput описывает новый отклик.
type CreateProposalInput struct {
	JobID             uuid.UUID
	DoerID            uuid.UUID
	ProposedPrice     float64
	EstimatedDuration int
	CoverLetter       *string
	IsCounterOffer    bool
}

// CreateProposal создаёт отклик исполнителя на открытое задание.
func (s *ProposalService) CreateProposal(ctx context.Context, in CreateProposalInput) (*models.Proposal, error) {
	if err := validation.ValidateAmount("предложенная цена", in.ProposedPrice); err != nil {
		return nil, fmt.Errorf("proposal service: %w", err)
	}
	if err := validation.ValidateEstimatedDuration(in.EstimatedDuration); err != nil {
		return nil, fmt.Errorf("proposal service: %w", err)
	}
	if in.CoverLetter != nil {
		if err := validation.ValidateLength("сопроводительное письмо", *in.CoverLetter, 1, 5000); err != nil {
			return nil, fmt.Errorf("proposal service: %w", err)
		}
	}

	job, err := s.jobs.GetByID(ctx, in.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusOpen {
		return nil, apperror.New(apperror.ErrCodeStateConflict, "задание не принимает отклики")
	}
	if job.ClientID == in.DoerID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя откликнуться на собственное задание")
	}
	if job.IsFullyStaffed() {
		return nil, apperror.ErrJobFullyStaffed
	}

	proposal := &models.Proposal{
		JobID:             in.JobID,
		DoerID:            in.DoerID,
		ClientID:          job.ClientID,
		ProposedPrice:     in.ProposedPrice,
		EstimatedDuration: in.EstimatedDuration,
		CoverLetter:       in.CoverLetter,
		Status:            models.ProposalStatusPending,
		IsCounterOffer:    in.IsCounterOffer,
	}

	if err := s.proposals.Create(ctx, proposal); err != nil {
		return nil, err
	}

	s.notifyAsync(job.ClientID, "proposal.created", map[string]interface{}{
		"job_id":      job.ID,
		"proposal_id": proposal.ID,
	})

	return proposal, nil
}

// ApproveProposal одобряет отклик: создаёт контракт, счёт эскроу-депозита,
// добавляет исполнителя в чат задания и уведомляет участников.
// Сам переход атомарен; сбой побочных эффектов его не откатывает.
func (s *ProposalService) ApproveProposal(ctx context.Context, proposalID, clientID uuid.UUID, allocatedAmount *float64) (*repository.ApproveResult, error) {
	if allocatedAmount != nil {
		if err := validation.ValidateAmount("выделенная сумма", *allocatedAmount); err != nil {
			return nil, fmt.Errorf("proposal service: %w", err)
		}
	}

	code, err := generatePairingCode()
	if err != nil {
		return nil, fmt.Errorf("proposal service: pairing code %w", err)
	}

	result, err := s.proposals.Approve(ctx, repository.ApproveParams{
		ProposalID:      proposalID,
		ClientID:        clientID,
		AllocatedAmount: allocatedAmount,
		PairingCode:     code,
	})
	if err != nil {
		return nil, err
	}

	// Счёт на эскроу-депозит: клиент оплачивает контракт с комиссией.
	escrow := &models.Payment{
		PayerID:     result.Contract.ClientID,
		RecipientID: &result.Contract.DoerID,
		ContractID:  &result.Contract.ID,
		JobID:       &result.Job.ID,
		Amount:      result.Contract.TotalPrice,
		PaymentType: models.PaymentTypeEscrowDeposit,
		IsEscrow:    true,
	}
	if err := s.payments.Create(ctx, escrow); err != nil && logger.Log != nil {
		logger.Log.WithFields(map[string]interface{}{
			"contract_id": result.Contract.ID,
			"error":       err.Error(),
		}).Error("proposal service: не удалось создать эскроу-платёж по контракту")
	}

	if s.cache != nil {
		if err := s.cache.InvalidateJob(ctx, result.Job.ID.String()); err != nil && logger.Log != nil {
			logger.Log.WithField("job_id", result.Job.ID).Warn("proposal service: не удалось инвалидировать кэш")
		}
	}

	if s.conversations != nil {
		if _, err := s.conversations.AddMember(ctx, result.Job.ID, clientID, result.Proposal.DoerID); err != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"job_id": result.Job.ID,
				"error":  err.Error(),
			}).Warn("proposal service: не удалось добавить исполнителя в чат")
		}
	}

	s.notifyAsync(result.Proposal.DoerID, "proposal.approved", map[string]interface{}{
		"job_id":      result.Job.ID,
		"proposal_id": result.Proposal.ID,
		"contract_id": result.Contract.ID,
	})
	for _, doerID := range result.RejectedDoers {
		s.notifyAsync(doerID, "proposal.rejected", map[string]interface{}{
			"job_id": result.Job.ID,
		})
	}

	s.emailAsync(result.Proposal.DoerID, "Ваш отклик одобрен",
		fmt.Sprintf("Отклик на задание «%s» одобрен. Код подтверждения встречи: %s", result.Job.Title, code))

	return result, nil
}

// RejectProposal отклоняет отклик с указанием причины.
func (s *ProposalService) RejectProposal(ctx context.Context, proposalID, clientID uuid.UUID, reason string) (*models.Proposal, error) {
	if err := validation.ValidateReason("причина отклонения", reason); err != nil {
		return nil, fmt.Errorf("proposal service: %w", err)
	}

	proposal, err := s.proposals.Reject(ctx, proposalID, clientID, reason)
	if err != nil {
		return nil, err
	}

	s.notifyAsync(proposal.DoerID, "proposal.rejected", map[string]interface{}{
		"job_id":      proposal.JobID,
		"proposal_id": proposal.ID,
	})

	return proposal, nil
}

// WithdrawProposal отзыв отклика самим исполнителем.
func (s *ProposalService) WithdrawProposal(ctx context.Context, proposalID, doerID uuid.UUID, reason string) (*models.Proposal, error) {
	if err := validation.ValidateReason("причина отзыва", reason); err != nil {
		return nil, fmt.Errorf("proposal service: %w", err)
	}

	proposal, err := s.proposals.Withdraw(ctx, proposalID, doerID, reason)
	if err != nil {
		return nil, err
	}

	s.notifyAsync(proposal.ClientID, "proposal.withdrawn", map[string]interface{}{
		"job_id":      proposal.JobID,
		"proposal_id": proposal.ID,
	})

	return proposal, nil
}

// GetProposal возвращает отклик участнику задания.
func (s *ProposalService) GetProposal(ctx context.Context, proposalID, userID uuid.UUID) (*models.Proposal, error) {
	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.DoerID != userID && proposal.ClientID != userID {
		return nil, apperror.ErrForbidden
	}
	return proposal, nil
}

// ListJobProposals возвращает отклики на задание его владельцу.
func (s *ProposalService) ListJobProposals(ctx context.Context, jobID, clientID uuid.UUID) ([]models.Proposal, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}
	return s.proposals.ListByJob(ctx, jobID)
}

// ListMyProposals возвращает отклики исполнителя.
func (s *ProposalService) ListMyProposals(ctx context.Context, doerID uuid.UUID, limit, offset int) ([]models.Proposal, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.proposals.ListByDoer(ctx, doerID, limit, offset)
}

func (s *ProposalService) notifyAsync(userID uuid.UUID, event string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	goroutine.SafeGo(func() {
		if _, err := s.notifier.Notify(context.Background(), userID, event, data); err != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"event":   event,
				"error":   err.Error(),
			}).Warn("proposal service: не удалось отправить уведомление")
		}
	})
}

func (s *ProposalService) emailAsync(userID uuid.UUID, subject, body string) {
	if s.mailer == nil || s.users == nil {
		return
	}
	goroutine.SafeGo(func() {
		user, err := s.users.GetByID(context.Background(), userID)
		if err != nil {
			return
		}
		if err := s.mailer.Send(user.Email, subject, body); err != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			}).Warn("proposal service: не удалось отправить письмо")
		}
	})
}

// generatePairingCode формирует шестизначный код подтверждения встречи.
// Байты >= 250 отбрасываются: 256 не делится на 10 нацело, и остаток
// от деления без отброса смещал бы распределение в пользу цифр 0-5.
func generatePairingCode() (string, error) {
	code := make([]byte, 0, 6)
	buf := make([]byte, 1)
	for len(code) < 6 {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		if buf[0] >= 250 {
			continue
		}
		code = append(code, '0'+buf[0]%10)
	}
	return string(code), nil
}
