package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls query spans.
type DBTracingConfig struct {
	Enabled       bool
	LogFullSQL    bool          // keep bound variables in db.statement
	SlowThreshold time.Duration // spans slower than this are flagged db.slow_query
	DBName        string
}

// InstrumentDB installs otelgorm and the slow query marker on db.
// It does nothing when tracing is disabled.
func InstrumentDB(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.DBName == "" {
		cfg.DBName = "postgresql"
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = 200 * time.Millisecond
	}

	// gorm keeps registration order among callbacks anchored on the same
	// operation: the marker's finish hook must run before otelgorm ends the span.
	if err := db.Use(&slowQueryMarker{threshold: cfg.SlowThreshold}); err != nil {
		return err
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_threshold", cfg.SlowThreshold),
	)
	return nil
}

type queryStartKey struct{}

// slowQueryMarker annotates the otelgorm span with table, row count and
// slowness.
type slowQueryMarker struct {
	threshold time.Duration
}

func (m *slowQueryMarker) Name() string { return "ledger:slow_query_marker" }

func (m *slowQueryMarker) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("ledger:start_create", m.start),
		cb.Create().After("gorm:create").Register("ledger:finish_create", m.finish),
		cb.Query().Before("gorm:query").Register("ledger:start_query", m.start),
		cb.Query().After("gorm:query").Register("ledger:finish_query", m.finish),
		cb.Update().Before("gorm:update").Register("ledger:start_update", m.start),
		cb.Update().After("gorm:update").Register("ledger:finish_update", m.finish),
		cb.Delete().Before("gorm:delete").Register("ledger:start_delete", m.start),
		cb.Delete().After("gorm:delete").Register("ledger:finish_delete", m.finish),
		cb.Raw().Before("gorm:raw").Register("ledger:start_raw", m.start),
		cb.Raw().After("gorm:raw").Register("ledger:finish_raw", m.finish),
		cb.Row().Before("gorm:row").Register("ledger:start_row", m.start),
		cb.Row().After("gorm:row").Register("ledger:finish_row", m.finish),
	)
}

func (m *slowQueryMarker) start(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (m *slowQueryMarker) finish(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{attribute.Int64("db.rows_affected", db.Statement.RowsAffected)}
	if db.Statement.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", db.Statement.Table))
	}
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > m.threshold {
			attrs = append(attrs, attribute.Bool("db.slow_query", true))
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
			))
		}
	}
	span.SetAttributes(attrs...)

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
}
