// Package telemetry provides OpenTelemetry tracing and metrics for the ledger services.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of business spans
const TracerName = "billing-ledger"

// Span attribute keys
const (
	AttrInstallmentID = attribute.Key("ledger.installment.id")
	AttrPlanID        = attribute.Key("ledger.plan.id")
	AttrClientID      = attribute.Key("ledger.client.id")
	AttrStatus        = attribute.Key("ledger.payment.status")
	AttrAmount        = attribute.Key("ledger.amount")
	AttrSeriesSize    = attribute.Key("ledger.series.size")
	AttrRenumbered    = attribute.Key("ledger.series.renumbered")
	AttrDayOffset     = attribute.Key("ledger.schedule.day_offset")
	AttrShifted       = attribute.Key("ledger.schedule.shifted")
	AttrLedgerBooked  = attribute.Key("ledger.cash_flow.booked")
	AttrRepair        = attribute.Key("ledger.reconcile.repair")
	AttrMissing       = attribute.Key("ledger.reconcile.missing")
	AttrRepaired      = attribute.Key("ledger.reconcile.repaired")
	AttrFailed        = attribute.Key("ledger.reconcile.failed")
)

// ID renders a uuid attribute.
func ID(key attribute.Key, id uuid.UUID) attribute.KeyValue {
	return key.String(id.String())
}

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartServiceSpan starts an internal span named "service.method",
// e.g. "sequencer.delete_installment". The caller must end it.
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// SetAttributes is a nil-safe span.SetAttributes.
func SetAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}

// AddEvent annotates the span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	if span != nil {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

// RecordError records err on the span and marks it failed. A nil err is ignored.
func RecordError(span trace.Span, err error, opts ...trace.EventOption) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Error())
}

// GetTraceID returns the trace id carried by ctx, or "".
func GetTraceID(ctx context.Context) string {
	id := trace.SpanContextFromContext(ctx).TraceID()
	if !id.IsValid() {
		return ""
	}
	return id.String()
}
