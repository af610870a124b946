package billing

import (
	"context"
	"testing"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDuplicator_PaidSeriesMember(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()
	detail := createTestPlan(t, env, 3, 250)
	source := detail.Installments[1]

	partial := decimal.NewFromInt(100)
	_, err := env.services.Status.ChangeStatus(ctx, source.ID, billing.PaymentStatusPartiallyPaid, billing.InstallmentPatch{PaidAmount: &partial})
	require.NoError(t, err)
	_, err = env.services.Status.MarkPaid(ctx, source.ID, date(2024, 2, 8))
	require.NoError(t, err)
	before := env.store.installment(source.ID)

	clone, err := env.services.Duplicator.Duplicate(ctx, source.ID)
	require.NoError(t, err)

	assert.NotEqual(t, source.ID, clone.ID)
	assert.Equal(t, "Mensalidade (2/3) (Cópia)", clone.Description)
	assert.Equal(t, billing.PaymentStatusPending, clone.Status)
	assert.Nil(t, clone.PaymentDate)
	assert.Nil(t, clone.PaidAmount)
	assert.False(t, clone.IsInSeries())
	assert.Equal(t, before.ClientID, clone.ClientID)
	assert.True(t, before.Amount.Equal(clone.Amount))
	assert.Equal(t, before.DueDate, clone.DueDate)
	assert.Equal(t, before.PaymentMethod, clone.PaymentMethod)

	assert.Equal(t, before, env.store.installment(source.ID), "source is never written")
	assert.NotNil(t, env.store.installment(clone.ID))
	assert.Empty(t, env.store.entriesFor(clone.ID))

	// the copy is not a sibling
	members := requireContiguous(t, env, detail.Plan.ClientID, "Mensalidade", &detail.Plan.ID)
	assert.Len(t, members, 3)
	assert.Contains(t, env.publisher.types(), billing.EventTypeInstallmentDuplicated)
}

func TestDuplicator_NotFound(t *testing.T) {
	env := newTestEnv(true)
	_, err := env.services.Duplicator.Duplicate(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, billing.IsNotFound(err))
}

func TestDuplicator_CustomSuffix(t *testing.T) {
	env := newTestEnv(true)
	p := seedStandalone(t, env, 80)
	d := NewDuplicator(env.scope, nil, Settings{CopySuffix: " - copy"}, zap.NewNop())

	clone, err := d.Duplicate(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Consultoria - copy", clone.Description)
}
