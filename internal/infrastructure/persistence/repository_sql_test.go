package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	appbilling "github.com/backoffice/ledger/internal/application/billing"
	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIncomeEntry(t *testing.T, paymentID uuid.UUID) *billing.CashFlowEntry {
	t.Helper()
	entry, err := billing.NewCashFlowEntry(billing.CashFlowTypeIncome, decimal.NewFromInt(100),
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "Mensalidade (1/3)", billing.DefaultLedgerCategory)
	require.NoError(t, err)
	entry.PaymentID = &paymentID
	return entry
}

func TestGormCashFlowRepository_InsertSQL(t *testing.T) {
	ctx := context.Background()

	t.Run("issues ON CONFLICT DO NOTHING on payment_id", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "cash_flow_entries" .* ON CONFLICT \("payment_id"\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewGormCashFlowRepository(db.DB).Insert(ctx, newIncomeEntry(t, uuid.New()))
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row inserted means already booked", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "cash_flow_entries"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewGormCashFlowRepository(db.DB).Insert(ctx, newIncomeEntry(t, uuid.New()))
		assert.ErrorIs(t, err, billing.ErrAlreadyBooked)
	})

	t.Run("unique violation means already booked", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "cash_flow_entries"`).
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

		err := NewGormCashFlowRepository(db.DB).Insert(ctx, newIncomeEntry(t, uuid.New()))
		assert.ErrorIs(t, err, billing.ErrAlreadyBooked)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "cash_flow_entries"`).WillReturnError(assert.AnError)

		err := NewGormCashFlowRepository(db.DB).Insert(ctx, newIncomeEntry(t, uuid.New()))
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestGormInstallmentRepository_QueriesSQL(t *testing.T) {
	ctx := context.Background()

	t.Run("reconciliation uses NOT EXISTS against the ledger", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "payment_installments" WHERE status = \$1 AND NOT EXISTS \(SELECT 1 FROM cash_flow_entries`).
			WithArgs(billing.PaymentStatusPaid).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		items, err := NewGormInstallmentRepository(db.DB).FindPaidWithoutCashFlowEntry(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("prefix filter escapes wildcards", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		clientID := uuid.New()
		mock.ExpectQuery(`description LIKE \$2 ESCAPE`).
			WithArgs(clientID, `50\% off\_plan%`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := NewGormInstallmentRepository(db.DB).FindAll(ctx, billing.InstallmentFilter{
			ClientID:          &clientID,
			DescriptionPrefix: "50% off_plan",
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete of a missing row is not found", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectExec(`DELETE FROM "payment_installments"`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewGormInstallmentRepository(db.DB).Delete(ctx, uuid.New())
		assert.True(t, billing.IsNotFound(err))
	})
}

func TestGormTransactionScope_SQL(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "cash_flow_entries"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		scope := NewGormTransactionScope(db.DB)
		assert.True(t, scope.Atomic())
		err := scope.Execute(ctx, func(repos appbilling.Repositories) error {
			return repos.CashFlow().Insert(ctx, newIncomeEntry(t, uuid.New()))
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := NewGormTransactionScope(db.DB).Execute(ctx, func(appbilling.Repositories) error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
