package event

import (
	"context"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/backoffice/ledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes one structured log line per ledger event.
// The request id and trace id of the publishing request are attached when present.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an audit handler logging under the "audit" name
func NewAuditLogHandler(log *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: log.Named("audit")}
}

// EventTypes returns the ledger events this handler records
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		billing.EventTypeInstallmentPaid,
		billing.EventTypeInstallmentDeleted,
		billing.EventTypeInstallmentDuplicated,
		billing.EventTypeSeriesRenumbered,
		billing.EventTypePlanScheduleShifted,
		billing.EventTypePlanCancelled,
	}
}

// Handle logs the event with its payload
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.Any("payload", event),
	}
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	logger.WithTraceContext(ctx, h.logger).Info("ledger event", fields...)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
