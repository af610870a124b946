package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/backoffice/ledger/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint
	Name string
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestInstrumentDB_Disabled(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, telemetry.InstrumentDB(db, telemetry.DBTracingConfig{}, zap.NewNop()))
	assert.Nil(t, db.Callback().Create().Get("ledger:finish_create"))
}

func TestInstrumentDB_MarksSpans(t *testing.T) {
	sr := setupTestTracer(t)
	db := openSQLite(t)

	err := telemetry.InstrumentDB(db, telemetry.DBTracingConfig{
		Enabled:       true,
		DBName:        "sqlite",
		SlowThreshold: time.Nanosecond,
	}, zap.NewNop())
	require.NoError(t, err)

	ctx, parent := telemetry.StartServiceSpan(context.Background(), "test", "insert")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
	parent.End()

	var found bool
	for _, s := range sr.Ended() {
		attrs := attrMap(s.Attributes())
		if attrs["db.sql.table"] != "traced_rows" {
			continue
		}
		found = true
		assert.Equal(t, "1", attrs["db.rows_affected"])
		assert.Equal(t, "true", attrs["db.slow_query"])
	}
	assert.True(t, found, "expected a span for traced_rows")
}
