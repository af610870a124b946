package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/backoffice/ledger/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database is the ledger's PostgreSQL handle.
type Database struct {
	DB *gorm.DB
}

// NewDatabase connects without query logging.
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	return NewDatabaseWithLogger(cfg, logger.Discard)
}

// NewDatabaseWithLogger connects, sizes the pool from cfg and verifies the
// server answers before returning.
func NewDatabaseWithLogger(cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig(gormLogger))
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	d := &Database{DB: db}

	pool, err := d.pool()
	if err != nil {
		return nil, err
	}
	applyPoolLimits(pool, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ledger database unreachable: %w", err)
	}
	return d, nil
}

func applyPoolLimits(pool *sql.DB, cfg *config.DatabaseConfig) {
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

// gormConfig is shared by production and test connections.
// TranslateError maps unique violations to gorm.ErrDuplicatedKey, which the
// repositories turn into shared.ErrAlreadyExists.
func gormConfig(gormLogger logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}
}

func (d *Database) pool() (*sql.DB, error) {
	pool, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("ledger database pool: %w", err)
	}
	return pool, nil
}

// Close releases every pooled connection.
func (d *Database) Close() error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.Close()
}

// Ping satisfies handler.Pinger for the health endpoint.
func (d *Database) Ping() error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.Ping()
}

// InUse reports how many pooled connections are currently checked out.
func (d *Database) InUse() int {
	pool, err := d.pool()
	if err != nil {
		return 0
	}
	return pool.Stats().InUse
}
