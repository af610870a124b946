package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlan(t *testing.T, installments int) *RecurringBillingPlan {
	plan, err := NewRecurringBillingPlan(PlanParams{
		ClientID:      uuid.New(),
		Description:   "Mensalidade",
		Amount:        decimal.NewFromInt(250),
		Installments:  installments,
		DueDay:        10,
		StartDate:     date(2024, 1, 10),
		PaymentMethod: "pix",
	})
	require.NoError(t, err)
	return plan
}

func TestNewRecurringBillingPlan_Validation(t *testing.T) {
	valid := PlanParams{
		ClientID:     uuid.New(),
		Description:  "Mensalidade",
		Amount:       decimal.NewFromInt(100),
		Installments: 3,
		DueDay:       5,
		StartDate:    date(2024, 1, 1),
	}

	tests := []struct {
		name   string
		mutate func(p *PlanParams)
	}{
		{"missing client", func(p *PlanParams) { p.ClientID = uuid.Nil }},
		{"empty description", func(p *PlanParams) { p.Description = " " }},
		{"zero amount", func(p *PlanParams) { p.Amount = decimal.Zero }},
		{"no installments", func(p *PlanParams) { p.Installments = 0 }},
		{"due day zero", func(p *PlanParams) { p.DueDay = 0 }},
		{"due day 32", func(p *PlanParams) { p.DueDay = 32 }},
		{"missing start", func(p *PlanParams) { p.StartDate = time.Time{} }},
		{"end before start", func(p *PlanParams) { end := date(2023, 12, 1); p.EndDate = &end }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)
			_, err := NewRecurringBillingPlan(params)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}

	t.Run("suffix in description is stripped", func(t *testing.T) {
		params := valid
		params.Description = "Aluguel (1/12)"
		plan, err := NewRecurringBillingPlan(params)
		require.NoError(t, err)
		assert.Equal(t, "Aluguel", plan.Description)
		assert.Equal(t, PlanStatusPending, plan.Status)
	})
}

func TestRecurringBillingPlan_DueDateFor(t *testing.T) {
	t.Run("starts on the start month when due day is not before start", func(t *testing.T) {
		plan := newTestPlan(t, 3)
		assert.Equal(t, date(2024, 1, 10), plan.DueDateFor(1))
		assert.Equal(t, date(2024, 2, 10), plan.DueDateFor(2))
		assert.Equal(t, date(2024, 3, 10), plan.DueDateFor(3))
	})

	t.Run("starts next month when due day already passed", func(t *testing.T) {
		plan := newTestPlan(t, 2)
		plan.StartDate = date(2024, 1, 15)
		assert.Equal(t, date(2024, 2, 10), plan.DueDateFor(1))
		assert.Equal(t, date(2024, 3, 10), plan.DueDateFor(2))
	})

	t.Run("clamps to short months", func(t *testing.T) {
		plan := newTestPlan(t, 4)
		plan.DueDay = 31
		plan.StartDate = date(2024, 1, 1)
		assert.Equal(t, date(2024, 1, 31), plan.DueDateFor(1))
		assert.Equal(t, date(2024, 2, 29), plan.DueDateFor(2))
		assert.Equal(t, date(2024, 3, 31), plan.DueDateFor(3))
		assert.Equal(t, date(2024, 4, 30), plan.DueDateFor(4))
	})

	t.Run("crosses year boundary", func(t *testing.T) {
		plan := newTestPlan(t, 2)
		plan.StartDate = date(2024, 12, 1)
		assert.Equal(t, date(2024, 12, 10), plan.DueDateFor(1))
		assert.Equal(t, date(2025, 1, 10), plan.DueDateFor(2))
	})
}

func TestRecurringBillingPlan_GenerateInstallments(t *testing.T) {
	plan := newTestPlan(t, 3)
	items := plan.GenerateInstallments()
	require.Len(t, items, 3)

	for i, item := range items {
		require.NotNil(t, item.InstallmentNumber)
		assert.Equal(t, i+1, *item.InstallmentNumber)
		assert.Equal(t, 3, *item.TotalInstallments)
		assert.Equal(t, SeriesDescription("Mensalidade", i+1, 3), item.Description)
		assert.Equal(t, plan.ClientID, item.ClientID)
		assert.Equal(t, PaymentStatusPending, item.Status)
		assert.True(t, item.Amount.Equal(plan.Amount))
	}

	series := ResolvePlanSeries(plan, items)
	assert.NoError(t, series.CheckConsistency())
}

func TestRecurringBillingPlan_ChangeStartDate(t *testing.T) {
	plan := newTestPlan(t, 1)

	offset, err := plan.ChangeStartDate(date(2024, 1, 15))
	require.NoError(t, err)
	assert.Equal(t, 5, offset)
	assert.Equal(t, date(2024, 1, 15), plan.StartDate)

	offset, err = plan.ChangeStartDate(date(2024, 1, 15))
	require.NoError(t, err)
	assert.Equal(t, 0, offset)

	end := date(2024, 2, 1)
	plan.EndDate = &end
	_, err = plan.ChangeStartDate(date(2024, 3, 1))
	assert.True(t, IsValidationError(err))
	assert.Equal(t, date(2024, 1, 15), plan.StartDate)
}

func TestRecurringBillingPlan_Lifecycle(t *testing.T) {
	plan := newTestPlan(t, 2)
	require.NoError(t, plan.Cancel())
	assert.Equal(t, PlanStatusCancelled, plan.Status)
	require.NoError(t, plan.Cancel(), "cancel is idempotent")
	assert.Equal(t, 1, plan.PendingEvents())
	assert.True(t, IsValidationError(plan.MarkPaid()))

	paid := newTestPlan(t, 2)
	require.NoError(t, paid.MarkPaid())
	assert.Equal(t, PlanStatusPaid, paid.Status)
	assert.True(t, IsValidationError(paid.Cancel()))

	assert.True(t, paid.SetInstallmentCount(1))
	assert.False(t, paid.SetInstallmentCount(1))
}
