package billing

import (
	"github.com/backoffice/ledger/internal/domain/shared"
	"go.uber.org/zap"
)

// Services bundles the billing use cases sharing one scope, locker and publisher
type Services struct {
	Sequencer      *InstallmentSequencer
	Status         *PaymentStatusService
	Ledger         *LedgerSynchronizer
	Shifter        *ScheduleShifter
	Duplicator     *Duplicator
	Plans          *PlanService
	Reconciliation *ReconciliationService
	Query          *LedgerQueryService
}

// NewServices wires every billing service. locker and publisher may be nil.
func NewServices(scope TransactionScope, locker shared.Locker, publisher shared.EventPublisher, settings Settings, logger *zap.Logger) *Services {
	settings = settings.withDefaults()
	ledger := NewLedgerSynchronizer(settings.LedgerCategory, logger.Named("ledger"))
	return &Services{
		Sequencer:      NewInstallmentSequencer(scope, publisher, logger.Named("sequencer")),
		Status:         NewPaymentStatusService(scope, ledger, locker, publisher, settings, logger.Named("status")),
		Ledger:         ledger,
		Shifter:        NewScheduleShifter(scope, publisher, logger.Named("shifter")),
		Duplicator:     NewDuplicator(scope, publisher, settings, logger.Named("duplicator")),
		Plans:          NewPlanService(scope, ledger, locker, publisher, settings, logger.Named("plan")),
		Reconciliation: NewReconciliationService(scope, ledger, locker, settings, logger.Named("reconciliation")),
		Query:          NewLedgerQueryService(scope),
	}
}
