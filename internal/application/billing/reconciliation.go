package billing

import (
	"context"
	"time"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/backoffice/ledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReconciliationService finds paid installments whose income entry is missing
// and optionally books them
type ReconciliationService struct {
	scope    TransactionScope
	ledger   *LedgerSynchronizer
	locker   shared.Locker
	settings Settings
	logger   *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(scope TransactionScope, ledger *LedgerSynchronizer, locker shared.Locker, settings Settings, logger *zap.Logger) *ReconciliationService {
	return &ReconciliationService{
		scope:    scope,
		ledger:   ledger,
		locker:   locker,
		settings: settings.withDefaults(),
		logger:   logger,
	}
}

// Reconcile lists paid installments without a ledger entry. With repair set,
// each one is booked through the synchronizer; one failure does not stop the rest.
func (s *ReconciliationService) Reconcile(ctx context.Context, repair bool) (*ReconciliationReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "reconcile",
		telemetry.AttrRepair.Bool(repair),
	)
	defer span.End()

	var missing []*billing.PaymentInstallment
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		items, err := repos.Installments().FindPaidWithoutCashFlowEntry(ctx)
		if err != nil {
			return billing.NewStoreError("list paid installments without ledger entry", err)
		}
		missing = items
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report := &ReconciliationReport{
		CheckedAt: time.Now(),
		Missing:   make([]MissingLedgerEntry, 0, len(missing)),
	}
	for _, inst := range missing {
		entry := MissingLedgerEntry{
			InstallmentID: inst.ID,
			ClientID:      inst.ClientID,
			Description:   inst.Description,
			Amount:        inst.Amount,
			PaymentDate:   inst.PaymentDate,
		}
		if repair {
			if err := s.repairOne(ctx, inst); err != nil {
				entry.Error = err.Error()
				report.Failed++
				s.logger.Error("ledger repair failed",
					zap.String("installment_id", inst.ID.String()),
					zap.Error(err),
				)
			} else {
				entry.Repaired = true
				report.Repaired++
			}
		}
		report.Missing = append(report.Missing, entry)
	}

	telemetry.SetAttributes(span,
		telemetry.AttrMissing.Int(len(report.Missing)),
		telemetry.AttrRepaired.Int(report.Repaired),
		telemetry.AttrFailed.Int(report.Failed),
	)
	if !report.IsClean() {
		s.logger.Warn("ledger reconciliation found paid installments without income entry",
			zap.Int("missing", len(report.Missing)),
			zap.Int("repaired", report.Repaired),
			zap.Int("failed", report.Failed),
		)
	}
	return report, nil
}

func (s *ReconciliationService) repairOne(ctx context.Context, inst *billing.PaymentInstallment) error {
	return withPaymentLock(ctx, s.locker, inst.ID, s.settings.PaymentLockTTL, s.logger, func() error {
		return s.scope.Execute(ctx, func(repos Repositories) error {
			_, err := s.ledger.SyncInstallment(ctx, repos, inst)
			return err
		})
	})
}
