package cache

import (
	"fmt"

	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/backoffice/ledger/internal/infrastructure/config"
	"go.uber.org/zap"
)

// LockerFactory picks the payment lock implementation for a deployment.
type LockerFactory struct {
	redis    config.RedisConfig
	logger   *zap.Logger
	fallback bool
}

type LockerFactoryOption func(*LockerFactory)

func WithLogger(logger *zap.Logger) LockerFactoryOption {
	return func(f *LockerFactory) { f.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// in-process locks (the default) or fails CreateLocker.
func WithInMemoryFallback(allow bool) LockerFactoryOption {
	return func(f *LockerFactory) { f.fallback = allow }
}

func NewLockerFactory(cfg config.RedisConfig, opts ...LockerFactoryOption) *LockerFactory {
	f := &LockerFactory{redis: cfg, logger: zap.NewNop(), fallback: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateLocker returns the Redis locker when a host is configured and answers.
// No host means a single instance and in-process locks.
func (f *LockerFactory) CreateLocker() (shared.Locker, error) {
	if f.redis.Host == "" {
		f.logger.Info("redis not configured, using in-process payment locks")
		return NewInMemoryLocker(), nil
	}

	locker, err := NewRedisLocker(f.redis)
	switch {
	case err == nil:
		f.logger.Info("using Redis payment locks", zap.String("addr", f.redis.Addr()))
		return locker, nil
	case !f.fallback:
		return nil, fmt.Errorf("payment locks require redis: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-process payment locks; "+
		"mark-paid calls on different instances are not serialised",
		zap.Error(err),
	)
	return NewInMemoryLocker(), nil
}
