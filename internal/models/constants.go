package models

// JobStatus константы статусов заданий
const (
	JobStatusDraft          = "draft"
	JobStatusPendingPayment = "pending_payment"
	JobStatusOpen           = "open"
	JobStatusInProgress     = "in_progress"
	JobStatusCompleted      = "completed"
	JobStatusCancelled      = "cancelled"
)

// ProposalStatus константы статусов предложений
const (
	ProposalStatusPending   = "pending"
	ProposalStatusApproved  = "approved"
	ProposalStatusRejected  = "rejected"
	ProposalStatusWithdrawn = "withdrawn"
)

// ContractStatus константы статусов контрактов
const (
	ContractStatusActive    = "active"
	ContractStatusCompleted = "completed"
	ContractStatusCancelled = "cancelled"
)

// PaymentStatus константы статусов платежей
const (
	PaymentStatusPending              = "pending"
	PaymentStatusHeldEscrow           = "held_escrow"
	PaymentStatusAwaitingConfirmation = "awaiting_confirmation"
	PaymentStatusCompleted            = "completed"
	PaymentStatusDisputed             = "disputed"
	PaymentStatusRefunded             = "refunded"
)

// PaymentType типы платежей
const (
	PaymentTypeContract      = "contract_payment"
	PaymentTypeEscrowDeposit = "escrow_deposit"
	PaymentTypeMembership    = "membership"
	PaymentTypePublication   = "publication"
)

// DisputeStatus константы статусов споров
const (
	DisputeStatusOpen             = "open"
	DisputeStatusInReview         = "in_review"
	DisputeStatusAwaitingInfo     = "awaiting_info"
	DisputeStatusResolvedReleased = "resolved_released"
	DisputeStatusResolvedRefunded = "resolved_refunded"
	DisputeStatusResolvedPartial  = "resolved_partial"
	DisputeStatusCancelled        = "cancelled"
)

// ResolutionType варианты решения спора администратором
const (
	ResolutionFullRelease   = "full_release"
	ResolutionFullRefund    = "full_refund"
	ResolutionPartialRefund = "partial_refund"
	ResolutionNoAction      = "no_action"
)

// Роли пользователей
const (
	RoleClient = "client"
	RoleDoer   = "doer"
	RoleAdmin  = "admin"
)

// Платёжные константы платформы.
const (
	// CommissionRate комиссия платформы с каждого контракта.
	CommissionRate = 0.10
	// MinContractAmount минимальная сумма контракта в валюте платформы.
	MinContractAmount = 5000.0
	// DefaultCurrency валюта по умолчанию.
	DefaultCurrency = "RUB"
	// PublicationFee стоимость публикации задания.
	PublicationFee = 500.0
)

// ValidJobStatuses список валидных статусов заданий
var ValidJobStatuses = map[string]struct{}{
	JobStatusDraft:          {},
	JobStatusPendingPayment: {},
	JobStatusOpen:           {},
	JobStatusInProgress:     {},
	JobStatusCompleted:      {},
	JobStatusCancelled:      {},
}

// ValidProposalStatuses список валидных статусов предложений
var ValidProposalStatuses = map[string]struct{}{
	ProposalStatusPending:   {},
	ProposalStatusApproved:  {},
	ProposalStatusRejected:  {},
	ProposalStatusWithdrawn: {},
}

// ValidRoles список валидных ролей пользователей
var ValidRoles = map[string]struct{}{
	RoleClient: {},
	RoleDoer:   {},
	RoleAdmin:  {},
}

// ValidResolutionTypes список валидных решений спора
var ValidResolutionTypes = map[string]struct{}{
	ResolutionFullRelease:   {},
	ResolutionFullRefund:    {},
	ResolutionPartialRefund: {},
	ResolutionNoAction:      {},
}

// TerminalDisputeStatuses статусы, после которых спор менять нельзя
var TerminalDisputeStatuses = map[string]struct{}{
	DisputeStatusResolvedReleased: {},
	DisputeStatusResolvedRefunded: {},
	DisputeStatusResolvedPartial:  {},
	DisputeStatusCancelled:        {},
}
