package billing

import (
	"context"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/google/uuid"
)

// LedgerQueryService serves read-only views of installments and the ledger
type LedgerQueryService struct {
	scope TransactionScope
}

// NewLedgerQueryService creates a new LedgerQueryService
func NewLedgerQueryService(scope TransactionScope) *LedgerQueryService {
	return &LedgerQueryService{scope: scope}
}

// GetInstallment returns one installment
func (s *LedgerQueryService) GetInstallment(ctx context.Context, id uuid.UUID) (*billing.PaymentInstallment, error) {
	var inst *billing.PaymentInstallment
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		var err error
		inst, err = loadInstallment(ctx, repos, id)
		return err
	})
	return inst, err
}

// ListInstallments lists installments matching the filter
func (s *LedgerQueryService) ListInstallments(ctx context.Context, filter billing.InstallmentFilter) ([]*billing.PaymentInstallment, error) {
	var items []*billing.PaymentInstallment
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		var err error
		items, err = repos.Installments().FindAll(ctx, filter)
		if err != nil {
			return billing.NewStoreError("list installments", err)
		}
		return nil
	})
	return items, err
}

// ListCashFlow lists ledger entries with their totals
func (s *LedgerQueryService) ListCashFlow(ctx context.Context, filter billing.CashFlowFilter) (*CashFlowReport, error) {
	var report *CashFlowReport
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		entries, err := repos.CashFlow().FindAll(ctx, filter)
		if err != nil {
			return billing.NewStoreError("list cash flow entries", err)
		}
		report = &CashFlowReport{Entries: entries, Summary: billing.Summarize(entries)}
		return nil
	})
	return report, err
}
