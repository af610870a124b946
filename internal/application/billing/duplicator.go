package billing

import (
	"context"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/backoffice/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Duplicator clones payments into new standalone pending records
type Duplicator struct {
	scope      TransactionScope
	publisher  shared.EventPublisher
	copySuffix string
	logger     *zap.Logger
}

// NewDuplicator creates a new Duplicator
func NewDuplicator(scope TransactionScope, publisher shared.EventPublisher, settings Settings, logger *zap.Logger) *Duplicator {
	return &Duplicator{
		scope:      scope,
		publisher:  publisher,
		copySuffix: settings.withDefaults().CopySuffix,
		logger:     logger,
	}
}

// Duplicate inserts a copy of the installment. The source is never written.
func (d *Duplicator) Duplicate(ctx context.Context, id uuid.UUID) (*billing.PaymentInstallment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "duplicator", "duplicate",
		telemetry.ID(telemetry.AttrInstallmentID, id),
	)
	defer span.End()

	var clone *billing.PaymentInstallment
	err := d.scope.Execute(ctx, func(repos Repositories) error {
		source, err := loadInstallment(ctx, repos, id)
		if err != nil {
			return err
		}
		clone = source.Duplicate(d.copySuffix)
		if err := repos.Installments().Save(ctx, clone); err != nil {
			return billing.NewStoreError("insert duplicated installment", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	d.logger.Info("installment duplicated",
		zap.String("source_id", id.String()),
		zap.String("duplicate_id", clone.ID.String()),
	)
	publishEvents(ctx, d.publisher, d.logger, clone.PullDomainEvents())
	return clone, nil
}
