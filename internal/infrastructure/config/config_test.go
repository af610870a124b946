package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ledgerEnvKeys = []string{
	"LEDGER_APP_NAME",
	"LEDGER_APP_ENV",
	"LEDGER_APP_PORT",
	"LEDGER_DATABASE_HOST",
	"LEDGER_DATABASE_PORT",
	"LEDGER_DATABASE_PASSWORD",
	"LEDGER_DATABASE_SSLMODE",
	"LEDGER_DATABASE_MAX_OPEN_CONNS",
	"LEDGER_DATABASE_MAX_IDLE_CONNS",
	"LEDGER_REDIS_HOST",
	"LEDGER_BILLING_TRANSACTIONAL_WRITES",
	"LEDGER_BILLING_LEDGER_CATEGORY",
	"LEDGER_BILLING_PAYMENT_LOCK_TTL",
	"LEDGER_TELEMETRY_SAMPLING_RATIO",
	"LEDGER_TELEMETRY_DB_LOG_FULL_SQL",
	"LEDGER_RECONCILE_ENABLED",
	"LEDGER_RECONCILE_HOUR",
	"LEDGER_RECONCILE_MINUTE",
	"LEDGER_STORAGE_BUCKET",
	"LEDGER_STORAGE_USE_PATH_STYLE",
}

// clearEnv unsets every key for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range ledgerEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "billing-ledger", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "ledger", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Empty(t, cfg.Redis.Addr())

		assert.True(t, cfg.Billing.TransactionalWrites)
		assert.Equal(t, "payment", cfg.Billing.LedgerCategory)
		assert.Equal(t, " (Cópia)", cfg.Billing.CopySuffix)
		assert.Equal(t, 30*time.Second, cfg.Billing.PaymentLockTTL)

		assert.False(t, cfg.Reconcile.Enabled)
		assert.Equal(t, 2, cfg.Reconcile.Hour)
		assert.Equal(t, time.Minute, cfg.Reconcile.CheckInterval)
		assert.Equal(t, 10*time.Minute, cfg.Reconcile.Timeout)
		assert.Empty(t, cfg.Storage.Bucket)
		assert.True(t, cfg.Storage.UsePathStyle)
		assert.Equal(t, "us-east-1", cfg.Storage.Region)
		assert.Equal(t, "exports/", cfg.Storage.Prefix)
		assert.Equal(t, []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}, cfg.HTTP.CORSAllowMethods)
		assert.Empty(t, cfg.HTTP.CORSAllowOrigins)
	})

	t.Run("loads values from environment variables with LEDGER prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_APP_PORT", "9000")
		t.Setenv("LEDGER_DATABASE_HOST", "db.internal")
		t.Setenv("LEDGER_DATABASE_PORT", "5433")
		t.Setenv("LEDGER_REDIS_HOST", "cache.internal")
		t.Setenv("LEDGER_BILLING_TRANSACTIONAL_WRITES", "false")
		t.Setenv("LEDGER_BILLING_LEDGER_CATEGORY", "mensalidades")
		t.Setenv("LEDGER_BILLING_PAYMENT_LOCK_TTL", "45s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "cache.internal:6379", cfg.Redis.Addr())
		assert.False(t, cfg.Billing.TransactionalWrites)
		assert.Equal(t, "mensalidades", cfg.Billing.LedgerCategory)
		assert.Equal(t, 45*time.Second, cfg.Billing.PaymentLockTTL)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("LEDGER_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects sub-second payment lock ttl", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_BILLING_PAYMENT_LOCK_TTL", "10ms")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payment_lock_ttl")
	})

	t.Run("loads reconcile schedule and storage bucket", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_RECONCILE_ENABLED", "true")
		t.Setenv("LEDGER_RECONCILE_HOUR", "23")
		t.Setenv("LEDGER_RECONCILE_MINUTE", "30")
		t.Setenv("LEDGER_STORAGE_BUCKET", "ledger-exports")
		t.Setenv("LEDGER_STORAGE_USE_PATH_STYLE", "false")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Reconcile.Enabled)
		assert.Equal(t, 23, cfg.Reconcile.Hour)
		assert.Equal(t, 30, cfg.Reconcile.Minute)
		assert.Equal(t, "ledger-exports", cfg.Storage.Bucket)
		assert.False(t, cfg.Storage.UsePathStyle)
	})

	t.Run("rejects invalid reconcile time", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_RECONCILE_HOUR", "24")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reconcile time")
	})

	t.Run("rejects sampling ratio above one", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[database]
host = "toml-db"
max_open_conns = 40

[billing]
ledger_category = "tuition"

[http]
cors_allow_origins = ["https://backoffice.example"]
`), 0o600))
	t.Chdir(dir)
	t.Setenv("LEDGER_DATABASE_HOST", "env-db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-db", cfg.Database.Host, "environment wins over the file")
	assert.Equal(t, 40, cfg.Database.MaxOpenConns)
	assert.Equal(t, "tuition", cfg.Billing.LedgerCategory)
	assert.Equal(t, []string{"https://backoffice.example"}, cfg.HTTP.CORSAllowOrigins)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns, "unset keys keep their defaults")
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "max_open_conns", snakeCase("MaxOpenConns"))
	assert.Equal(t, "port", snakeCase("Port"))
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_APP_ENV", "production")
		t.Setenv("LEDGER_DATABASE_PASSWORD", "secure-password")
		t.Setenv("LEDGER_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("LEDGER_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("LEDGER_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects full SQL tracing in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("LEDGER_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "/testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
