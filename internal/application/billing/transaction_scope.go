package billing

import (
	"context"

	"github.com/backoffice/ledger/internal/domain/billing"
)

// Repositories gives access to the ledger repositories inside one scope.
// All repositories returned share the same underlying database transaction when the scope is atomic.
type Repositories interface {
	Installments() billing.InstallmentRepository
	Plans() billing.PlanRepository
	CashFlow() billing.CashFlowRepository
}

// TransactionScope runs a multi-step write sequence.
type TransactionScope interface {
	// Execute runs fn with repositories bound to the scope.
	// An atomic scope rolls every write back when fn returns an error.
	Execute(ctx context.Context, fn func(repos Repositories) error) error

	// Atomic reports whether Execute wraps fn in a single transaction
	Atomic() bool
}

// NoOpTransactionScope issues ordered independent writes without a transaction.
// Partial failures are left in the store and healed by the next mutation on the same series.
type NoOpTransactionScope struct {
	installments billing.InstallmentRepository
	plans        billing.PlanRepository
	cashFlow     billing.CashFlowRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	installments billing.InstallmentRepository,
	plans billing.PlanRepository,
	cashFlow billing.CashFlowRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		installments: installments,
		plans:        plans,
		cashFlow:     cashFlow,
	}
}

// Execute runs fn directly against the repositories.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s)
}

// Atomic is false: writes already issued stay in the store when fn fails.
func (s *NoOpTransactionScope) Atomic() bool {
	return false
}

func (s *NoOpTransactionScope) Installments() billing.InstallmentRepository {
	return s.installments
}

func (s *NoOpTransactionScope) Plans() billing.PlanRepository {
	return s.plans
}

func (s *NoOpTransactionScope) CashFlow() billing.CashFlowRepository {
	return s.cashFlow
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
