package billing

import (
	"context"
	"testing"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerQueryService(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()
	detail := createTestPlan(t, env, 3, 250)
	other := seedStandalone(t, env, 1000)

	_, err := env.services.Status.MarkPaid(ctx, detail.Installments[0].ID, date(2024, 1, 9))
	require.NoError(t, err)
	_, err = env.services.Status.MarkPaid(ctx, other.ID, date(2024, 5, 1))
	require.NoError(t, err)

	got, err := env.services.Query.GetInstallment(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusPaid, got.Status)

	items, err := env.services.Query.ListInstallments(ctx, billing.InstallmentFilter{
		ClientID: &detail.Plan.ClientID,
		Statuses: []billing.PaymentStatus{billing.PaymentStatusPending},
	})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	from, to := date(2024, 1, 1), date(2024, 1, 31)
	report, err := env.services.Query.ListCashFlow(ctx, billing.CashFlowFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, 1, report.Summary.Count)
	assert.Equal(t, "250", report.Summary.Income.Amount().String())
}
