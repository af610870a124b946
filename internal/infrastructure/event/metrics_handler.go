package event

import (
	"context"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/backoffice/ledger/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	attrEventType     = attribute.Key("ledger.event.type")
	attrAggregateType = attribute.Key("ledger.aggregate.type")
)

// MetricsHandler counts ledger events and records paid amounts
type MetricsHandler struct {
	events      metric.Int64Counter
	paidAmounts metric.Float64Histogram
	renumbered  metric.Int64Counter
}

// NewMetricsHandler creates the ledger instruments on meter
func NewMetricsHandler(meter metric.Meter) (*MetricsHandler, error) {
	in := telemetry.NewInstruments(meter)
	h := &MetricsHandler{
		events:      in.Counter("ledger.events", "Ledger domain events published", "{event}"),
		paidAmounts: in.Histogram("ledger.installment.paid_amount", "Amount of installments moved into paid", "{currency}", telemetry.AmountBuckets...),
		renumbered:  in.Counter("ledger.installments.renumbered", "Installments whose series position or description changed", "{installment}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

// EventTypes returns the ledger events this handler measures
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		billing.EventTypeInstallmentPaid,
		billing.EventTypeInstallmentDeleted,
		billing.EventTypeInstallmentDuplicated,
		billing.EventTypeSeriesRenumbered,
		billing.EventTypePlanScheduleShifted,
		billing.EventTypePlanCancelled,
	}
}

// Handle records the event
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.events.Add(ctx, 1, metric.WithAttributes(
		attrEventType.String(event.EventType()),
		attrAggregateType.String(event.AggregateType()),
	))
	switch e := event.(type) {
	case *billing.InstallmentPaidEvent:
		h.paidAmounts.Record(ctx, e.Amount.InexactFloat64())
	case *billing.SeriesRenumberedEvent:
		h.renumbered.Add(ctx, int64(len(e.Changed)))
	}
	return nil
}

var _ shared.EventHandler = (*MetricsHandler)(nil)
