package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeStateConflict ErrorCode = "STATE_CONFLICT"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeStateConflict:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

func IsStateConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeStateConflict
}

var (
	ErrJobNotFound      = New(ErrCodeNotFound, "задание не найдено")
	ErrProposalNotFound = New(ErrCodeNotFound, "отклик не найден")
	ErrContractNotFound = New(ErrCodeNotFound, "контракт не найден")
	ErrPaymentNotFound  = New(ErrCodeNotFound, "платёж не найден")
	ErrDisputeNotFound  = New(ErrCodeNotFound, "спор не найден")
	ErrUserNotFound     = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized     = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden        = New(ErrCodeForbidden, "недостаточно прав")

	// Ошибки одобрения отклика.
	ErrProposalNotPending         = New(ErrCodeStateConflict, "отклик уже рассмотрен")
	ErrJobFullyStaffed            = New(ErrCodeStateConflict, "все места исполнителей уже заняты")
	ErrWorkerAlreadySelected      = New(ErrCodeStateConflict, "исполнитель уже выбран для этого задания")
	ErrWorkerNotSelected          = New(ErrCodeValidation, "исполнитель не выбран для этого задания")
	ErrAllocationExceedsBudget    = New(ErrCodeValidation, "сумма превышает остаток бюджета задания")
	ErrBelowMinimumContractAmount = New(ErrCodeValidation, "сумма контракта ниже минимально допустимой")

	// Ошибки платежей и споров.
	ErrPaymentNotInEscrow = New(ErrCodeStateConflict, "платёж не находится в эскроу")
	ErrPaymentFrozen      = New(ErrCodeStateConflict, "платёж заморожен до решения спора")
	ErrAlreadyRefunded    = New(ErrCodeStateConflict, "платёж уже возвращён")
	ErrDisputeResolved    = New(ErrCodeStateConflict, "спор уже закрыт")
)
