// Package bootstrap wires configuration, storage and the billing services
// for the server and operator binaries.
package bootstrap

import (
	"context"
	"fmt"

	appbilling "github.com/backoffice/ledger/internal/application/billing"
	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/backoffice/ledger/internal/infrastructure/cache"
	"github.com/backoffice/ledger/internal/infrastructure/config"
	"github.com/backoffice/ledger/internal/infrastructure/event"
	"github.com/backoffice/ledger/internal/infrastructure/logger"
	"github.com/backoffice/ledger/internal/infrastructure/persistence"
	"github.com/backoffice/ledger/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ledger is a fully wired billing stack
type Ledger struct {
	DB       *persistence.Database
	Services *appbilling.Services
	Bus      *event.InMemoryEventBus
	locker   shared.Locker
	log      *zap.Logger
}

// OpenDatabase connects to PostgreSQL with zap-backed GORM logging and,
// when enabled, query tracing.
func OpenDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log.Named("gorm"), logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}

	tracing := telemetry.DBTracingConfig{
		Enabled:       cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:    cfg.Telemetry.DBLogFullSQL,
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}
	if err := telemetry.InstrumentDB(db.DB, tracing, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register db tracing: %w", err)
	}
	return db, nil
}

// NewTransactionScope picks the atomic or the sequential write scope
func NewTransactionScope(db *gorm.DB, transactional bool) appbilling.TransactionScope {
	if transactional {
		return persistence.NewGormTransactionScope(db)
	}
	return persistence.NewNoOpTransactionScope(db)
}

// Settings converts the billing config section
func Settings(cfg config.BillingConfig) appbilling.Settings {
	return appbilling.Settings{
		LedgerCategory: cfg.LedgerCategory,
		CopySuffix:     cfg.CopySuffix,
		PaymentLockTTL: cfg.PaymentLockTTL,
	}
}

// NewLedger connects to the database and wires the payment locker, the event
// bus with its audit handler, and every billing service.
func NewLedger(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Ledger, error) {
	db, err := OpenDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	locker, err := cache.NewLockerFactory(cfg.Redis, cache.WithLogger(log.Named("locker"))).CreateLocker()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	bus := event.NewInMemoryEventBus(log.Named("events"))
	bus.Subscribe(event.NewAuditLogHandler(log.Named("audit")))
	if err := bus.Start(ctx); err != nil {
		_ = locker.Close()
		_ = db.Close()
		return nil, err
	}

	scope := NewTransactionScope(db.DB, cfg.Billing.TransactionalWrites)
	if !scope.Atomic() {
		log.Warn("transactional writes disabled; multi-step writes are not atomic")
	}

	return &Ledger{
		DB:       db,
		Services: appbilling.NewServices(scope, locker, bus, Settings(cfg.Billing), log.Named("billing")),
		Bus:      bus,
		locker:   locker,
		log:      log,
	}, nil
}

// EnableMetrics subscribes the ledger event metrics handler to the bus
func (l *Ledger) EnableMetrics(meter metric.Meter) error {
	h, err := event.NewMetricsHandler(meter)
	if err != nil {
		return err
	}
	l.Bus.Subscribe(h)
	return nil
}

// Close stops the bus and releases the locker and the database
func (l *Ledger) Close(ctx context.Context) {
	if err := l.Bus.Stop(ctx); err != nil {
		l.log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := l.locker.Close(); err != nil {
		l.log.Error("Error closing payment locker", zap.Error(err))
	}
	if err := l.DB.Close(); err != nil {
		l.log.Error("Error closing database", zap.Error(err))
	}
}
