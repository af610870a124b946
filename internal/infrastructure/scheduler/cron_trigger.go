package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Start starts the daily trigger loop
func (s *ReconciliationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Reconciliation scheduler started",
		zap.Int("hour", s.config.Hour),
		zap.Int("minute", s.config.Minute),
		zap.Bool("repair", s.config.Repair),
		zap.Duration("check_interval", s.config.CheckInterval),
	)
	return nil
}

// Stop stops the trigger loop and waits for an in-flight run
func (s *ReconciliationScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconciliation scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reconciliation scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *ReconciliationScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the sweep when the configured minute arrives, at most once per day
func (s *ReconciliationScheduler) checkAndTrigger(ctx context.Context) bool {
	if !s.shouldRun(s.now()) {
		return false
	}
	// errors are logged by RunNow
	_, _ = s.RunNow(ctx)
	return true
}

func (s *ReconciliationScheduler) shouldRun(now time.Time) bool {
	if now.Hour() != s.config.Hour || now.Minute() != s.config.Minute {
		return false
	}
	today := now.Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRunDate == today {
		return false
	}
	s.lastRunDate = today
	return true
}
