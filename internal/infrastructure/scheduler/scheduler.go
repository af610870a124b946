// Package scheduler runs the daily ledger reconciliation sweep inside the server.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appbilling "github.com/backoffice/ledger/internal/application/billing"
	"github.com/backoffice/ledger/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrRunInProgress rejects RunNow while a sweep is still going
	ErrRunInProgress = errors.New("reconciliation already running")
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)

// RunStatus represents the status of a reconciliation run
type RunStatus string

const (
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
)

// Run records one reconciliation sweep
type Run struct {
	ID          uuid.UUID
	Repair      bool
	Status      RunStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
	Missing     int
	Repaired    int
	Failed      int
}

func (r *Run) complete(at time.Time, report *appbilling.ReconciliationReport) {
	r.Status = RunStatusSuccess
	r.CompletedAt = &at
	r.Missing = len(report.Missing)
	r.Repaired = report.Repaired
	r.Failed = report.Failed
}

func (r *Run) fail(at time.Time, err error) {
	r.Status = RunStatusFailed
	r.CompletedAt = &at
	r.Error = err.Error()
}

// Reconciler is the ledger operation the scheduler drives
type Reconciler interface {
	Reconcile(ctx context.Context, repair bool) (*appbilling.ReconciliationReport, error)
}

// Config holds scheduler configuration
type Config struct {
	Hour          int
	Minute        int
	Repair        bool
	CheckInterval time.Duration
	Timeout       time.Duration
}

// DefaultConfig returns a 02:00 report-only sweep
func DefaultConfig() Config {
	return Config{
		Hour:          2,
		CheckInterval: time.Minute,
		Timeout:       10 * time.Minute,
	}
}

// ConfigFrom maps the application settings onto a scheduler Config
func ConfigFrom(cfg config.ReconcileConfig) Config {
	return Config{
		Hour:          cfg.Hour,
		Minute:        cfg.Minute,
		Repair:        cfg.Repair,
		CheckInterval: cfg.CheckInterval,
		Timeout:       cfg.Timeout,
	}
}

func (c Config) validate() error {
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("%w: run time %02d:%02d", ErrInvalidConfig, c.Hour, c.Minute)
	}
	if c.CheckInterval <= 0 || c.Timeout <= 0 {
		return fmt.Errorf("%w: check interval and timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// ReconciliationScheduler triggers Reconcile once a day at the configured time
type ReconciliationScheduler struct {
	config     Config
	reconciler Reconciler
	logger     *zap.Logger
	now        func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	inFlight    bool
	lastRunDate string
	lastRun     *Run
}

// NewReconciliationScheduler creates a scheduler; call Start to begin ticking
func NewReconciliationScheduler(cfg Config, reconciler Reconciler, logger *zap.Logger) (*ReconciliationScheduler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationScheduler{
		config:     cfg,
		reconciler: reconciler,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// RunNow executes one sweep synchronously
func (s *ReconciliationScheduler) RunNow(ctx context.Context) (*Run, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	run := &Run{
		ID:        uuid.New(),
		Repair:    s.config.Repair,
		Status:    RunStatusRunning,
		StartedAt: s.now(),
	}
	s.logger.Info("Reconciliation run started",
		zap.String("run_id", run.ID.String()),
		zap.Bool("repair", run.Repair),
	)

	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	report, err := s.reconciler.Reconcile(runCtx, run.Repair)
	if err != nil {
		run.fail(s.now(), err)
		s.logger.Error("Reconciliation run failed",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
	} else {
		run.complete(s.now(), report)
		fields := []zap.Field{
			zap.String("run_id", run.ID.String()),
			zap.Int("missing", run.Missing),
			zap.Int("repaired", run.Repaired),
			zap.Int("failed", run.Failed),
		}
		if run.Missing > run.Repaired {
			s.logger.Warn("Reconciliation found paid installments without income entry", fields...)
		} else {
			s.logger.Info("Reconciliation run completed", fields...)
		}
	}

	s.mu.Lock()
	s.lastRun = run
	s.mu.Unlock()

	return run, err
}

// LastRun returns a copy of the most recent run, or nil
func (s *ReconciliationScheduler) LastRun() *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		return nil
	}
	run := *s.lastRun
	return &run
}
