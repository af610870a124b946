package billing

import (
	"context"
	"errors"
	"time"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerSynchronizer books income for settled payments, at most once per payment id
type LedgerSynchronizer struct {
	category string
	logger   *zap.Logger
}

// NewLedgerSynchronizer creates a new LedgerSynchronizer
func NewLedgerSynchronizer(category string, logger *zap.Logger) *LedgerSynchronizer {
	if category == "" {
		category = billing.DefaultLedgerCategory
	}
	return &LedgerSynchronizer{
		category: category,
		logger:   logger,
	}
}

// SyncInstallment books the income entry of a paid installment unless one exists.
// It returns true when a new entry was inserted.
func (s *LedgerSynchronizer) SyncInstallment(ctx context.Context, repos Repositories, inst *billing.PaymentInstallment) (bool, error) {
	if !inst.IsPaid() {
		return false, nil
	}
	return s.book(ctx, repos, inst.ID, func() (*billing.CashFlowEntry, error) {
		return billing.NewIncomeEntryForInstallment(inst, s.category)
	})
}

// SyncPlan books a single entry for a plan settled without generated installments
func (s *LedgerSynchronizer) SyncPlan(ctx context.Context, repos Repositories, plan *billing.RecurringBillingPlan, paymentDate time.Time) (bool, error) {
	return s.book(ctx, repos, plan.ID, func() (*billing.CashFlowEntry, error) {
		return billing.NewIncomeEntryForPlan(plan, paymentDate, s.category)
	})
}

// HasEntry reports whether a ledger entry exists for the payment id
func (s *LedgerSynchronizer) HasEntry(ctx context.Context, repos Repositories, paymentID uuid.UUID) (bool, error) {
	existing, err := repos.CashFlow().FindAll(ctx, billing.CashFlowFilter{PaymentID: &paymentID})
	if err != nil {
		return false, billing.NewStoreError("check existing cash flow entry", err)
	}
	return len(existing) > 0, nil
}

func (s *LedgerSynchronizer) book(ctx context.Context, repos Repositories, paymentID uuid.UUID, build func() (*billing.CashFlowEntry, error)) (bool, error) {
	exists, err := s.HasEntry(ctx, repos, paymentID)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.Debug("cash flow entry already booked", zap.String("payment_id", paymentID.String()))
		return false, nil
	}

	entry, err := build()
	if err != nil {
		return false, err
	}
	if err := repos.CashFlow().Insert(ctx, entry); err != nil {
		// A concurrent caller won the race between the check and the insert
		if errors.Is(err, billing.ErrAlreadyBooked) {
			s.logger.Info("cash flow entry booked concurrently", zap.String("payment_id", paymentID.String()))
			return false, nil
		}
		return false, billing.NewStoreError("insert cash flow entry", err)
	}

	s.logger.Info("income booked",
		zap.String("payment_id", paymentID.String()),
		zap.String("entry_id", entry.ID.String()),
		zap.String("amount", entry.Amount.String()),
		zap.Time("date", entry.Date),
	)
	return true, nil
}
