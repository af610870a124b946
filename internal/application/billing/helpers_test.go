package billing

import (
	"context"
	"testing"
	"time"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// createTestPlan stores a monthly plan starting 2024-01-10 and its series
func createTestPlan(t *testing.T, env *testEnv, installments int, amount int64) *PlanDetail {
	t.Helper()
	detail, err := env.services.Plans.CreatePlan(context.Background(), CreatePlanInput{
		ClientID:      uuid.New(),
		Description:   "Mensalidade",
		Amount:        decimal.NewFromInt(amount),
		Installments:  installments,
		DueDay:        10,
		StartDate:     date(2024, 1, 10),
		PaymentMethod: "boleto",
	})
	require.NoError(t, err)
	require.Len(t, detail.Installments, installments)
	return detail
}

func seedStandalone(t *testing.T, env *testEnv, amount int64) *billing.PaymentInstallment {
	t.Helper()
	p, err := billing.NewPaymentInstallment(uuid.New(), "Consultoria", decimal.NewFromInt(amount), date(2024, 5, 10), "pix")
	require.NoError(t, err)
	env.store.seedInstallments(p)
	return p
}

// requireContiguous asserts the stored series is numbered 1..N with total N
// and that the plan, if any, records N installments.
func requireContiguous(t *testing.T, env *testEnv, clientID uuid.UUID, base string, planID *uuid.UUID) []*billing.PaymentInstallment {
	t.Helper()
	members := env.store.seriesOf(clientID, base)
	for i, m := range members {
		require.Equal(t, i+1, *m.InstallmentNumber, "member %s", m.Description)
		require.Equal(t, len(members), *m.TotalInstallments, "member %s", m.Description)
		require.Equal(t, billing.SeriesDescription(base, i+1, len(members)), m.Description)
	}
	if planID != nil {
		plan := env.store.plan(*planID)
		require.NotNil(t, plan)
		require.Equal(t, len(members), plan.Installments)
	}
	return members
}

// MockLocker is a mock implementation of shared.Locker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocker) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockLocker) Close() error {
	args := m.Called()
	return args.Error(0)
}
