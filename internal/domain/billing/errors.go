package billing

import (
	"errors"
	"fmt"

	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Error codes raised by the billing engine
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeStore               = "STORE_ERROR"
	CodeInvariantViolation  = "INVARIANT_VIOLATION"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// ErrAlreadyBooked is returned by CashFlowRepository.Insert when an entry for
// the same payment id already exists.
var ErrAlreadyBooked = errors.New("cash flow entry already booked for payment")

// NewValidationError rejects input before any write is issued
func NewValidationError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports a missing plan or installment
func NewNotFoundError(entity string, id uuid.UUID) *shared.DomainError {
	return shared.NewDomainError(CodeNotFound, fmt.Sprintf("%s %s not found", entity, id))
}

// NewStoreError wraps a persistence failure and names the step that failed
func NewStoreError(op string, cause error) *shared.DomainError {
	return shared.WrapDomainError(CodeStore, op, cause)
}

// NewInvariantViolation reports a stale or inconsistent series
func NewInvariantViolation(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(CodeInvariantViolation, fmt.Sprintf(format, args...))
}

// NewConcurrencyConflict reports that another caller holds the resource
func NewConcurrencyConflict(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(CodeConcurrencyConflict, fmt.Sprintf(format, args...))
}

func IsValidationError(err error) bool {
	return shared.HasCode(err, CodeValidation)
}

func IsNotFound(err error) bool {
	return shared.HasCode(err, CodeNotFound) || errors.Is(err, shared.ErrNotFound)
}

func IsStoreError(err error) bool {
	return shared.HasCode(err, CodeStore)
}

func IsInvariantViolation(err error) bool {
	return shared.HasCode(err, CodeInvariantViolation)
}

func IsConcurrencyConflict(err error) bool {
	return shared.HasCode(err, CodeConcurrencyConflict)
}
