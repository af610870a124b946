package billing

import (
	"context"
	"testing"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dueDates(env *testEnv, plan *billing.RecurringBillingPlan) []string {
	var out []string
	for _, m := range env.store.seriesOf(plan.ClientID, plan.Description) {
		out = append(out, m.DueDate.Format(billing.DateLayout))
	}
	return out
}

func TestScheduleShifter_Preview(t *testing.T) {
	env := newTestEnv(true)
	detail := createTestPlan(t, env, 3, 250)

	preview, err := env.services.Shifter.PreviewStartDateChange(context.Background(), detail.Plan.ID, date(2024, 2, 10))
	require.NoError(t, err)
	assert.Equal(t, 31, preview.DayOffset)
	assert.Equal(t, 3, preview.SiblingCount)
	assert.True(t, preview.RequiresConfirmation)

	// nothing written
	assert.Equal(t, date(2024, 1, 10), env.store.plan(detail.Plan.ID).StartDate)
	assert.Equal(t, []string{"2024-01-10", "2024-02-10", "2024-03-10"}, dueDates(env, detail.Plan))
}

func TestScheduleShifter_ConfirmedShift(t *testing.T) {
	env := newTestEnv(true)
	detail := createTestPlan(t, env, 3, 250)

	result, err := env.services.Shifter.ApplyStartDateChange(context.Background(), ApplyStartDateInput{
		PlanID:       detail.Plan.ID,
		NewStartDate: date(2024, 2, 10),
		ConfirmShift: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 31, result.DayOffset)
	assert.Equal(t, 3, result.SiblingCount)
	assert.True(t, result.Shifted)

	assert.Equal(t, date(2024, 2, 10), env.store.plan(detail.Plan.ID).StartDate)
	assert.Equal(t, []string{"2024-02-10", "2024-03-12", "2024-04-10"}, dueDates(env, detail.Plan))
	assert.Equal(t, []string{billing.EventTypePlanScheduleShifted}, env.publisher.types())
}

func TestScheduleShifter_Linearity(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()
	detail := createTestPlan(t, env, 4, 250)
	original := dueDates(env, detail.Plan)

	apply := func(start string) {
		t.Helper()
		d, err := billing.ParseDate(start)
		require.NoError(t, err)
		_, err = env.services.Shifter.ApplyStartDateChange(ctx, ApplyStartDateInput{
			PlanID:       detail.Plan.ID,
			NewStartDate: d,
			ConfirmShift: true,
		})
		require.NoError(t, err)
	}

	apply("2024-01-25") // +15
	apply("2024-03-01") // +36
	shifted := env.store.seriesOf(detail.Plan.ClientID, "Mensalidade")
	for i, m := range shifted {
		assert.Equal(t, billing.AddDays(detail.Installments[i].DueDate, 51), m.DueDate)
	}

	apply("2024-01-10") // -51
	assert.Equal(t, original, dueDates(env, detail.Plan))
}

func TestScheduleShifter_UnconfirmedShiftKeepsDueDates(t *testing.T) {
	env := newTestEnv(true)
	detail := createTestPlan(t, env, 3, 250)

	result, err := env.services.Shifter.ApplyStartDateChange(context.Background(), ApplyStartDateInput{
		PlanID:       detail.Plan.ID,
		NewStartDate: date(2024, 1, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, -5, result.DayOffset)
	assert.False(t, result.Shifted)

	assert.Equal(t, date(2024, 1, 5), env.store.plan(detail.Plan.ID).StartDate)
	assert.Equal(t, []string{"2024-01-10", "2024-02-10", "2024-03-10"}, dueDates(env, detail.Plan))
	assert.Empty(t, env.publisher.types())
}

func TestScheduleShifter_PlanWithoutInstallments(t *testing.T) {
	env := newTestEnv(true)
	plan, err := billing.NewRecurringBillingPlan(billing.PlanParams{
		ClientID:     uuid.New(),
		Description:  "Anuidade",
		Amount:       decimal.NewFromInt(900),
		Installments: 1,
		DueDay:       5,
		StartDate:    date(2024, 1, 5),
	})
	require.NoError(t, err)
	env.store.seedPlan(plan)

	preview, err := env.services.Shifter.PreviewStartDateChange(context.Background(), plan.ID, date(2024, 2, 5))
	require.NoError(t, err)
	assert.False(t, preview.RequiresConfirmation)

	result, err := env.services.Shifter.ApplyStartDateChange(context.Background(), ApplyStartDateInput{
		PlanID:       plan.ID,
		NewStartDate: date(2024, 2, 5),
	})
	require.NoError(t, err)
	assert.Zero(t, result.SiblingCount)
	assert.False(t, result.Shifted)
	assert.Equal(t, date(2024, 2, 5), env.store.plan(plan.ID).StartDate)
}

func TestScheduleShifter_StaleOldStartDate(t *testing.T) {
	env := newTestEnv(true)
	detail := createTestPlan(t, env, 3, 250)

	old := date(2024, 1, 11)
	_, err := env.services.Shifter.ApplyStartDateChange(context.Background(), ApplyStartDateInput{
		PlanID:       detail.Plan.ID,
		OldStartDate: &old,
		NewStartDate: date(2024, 2, 10),
		ConfirmShift: true,
	})
	require.Error(t, err)
	assert.True(t, billing.IsConcurrencyConflict(err))
	assert.Equal(t, date(2024, 1, 10), env.store.plan(detail.Plan.ID).StartDate)
}

func TestScheduleShifter_SameDateIsNoOp(t *testing.T) {
	env := newTestEnv(true)
	detail := createTestPlan(t, env, 3, 250)
	version := env.store.plan(detail.Plan.ID).Version

	result, err := env.services.Shifter.ApplyStartDateChange(context.Background(), ApplyStartDateInput{
		PlanID:       detail.Plan.ID,
		NewStartDate: date(2024, 1, 10),
		ConfirmShift: true,
	})
	require.NoError(t, err)
	assert.Zero(t, result.DayOffset)
	assert.False(t, result.Shifted)
	assert.Equal(t, version, env.store.plan(detail.Plan.ID).Version)
}

func TestScheduleShifter_SaveFailureAtomic(t *testing.T) {
	env := newTestEnv(true)
	detail := createTestPlan(t, env, 3, 250)
	env.store.failOn("installment.save", 1)

	_, err := env.services.Shifter.ApplyStartDateChange(context.Background(), ApplyStartDateInput{
		PlanID:       detail.Plan.ID,
		NewStartDate: date(2024, 2, 10),
		ConfirmShift: true,
	})
	require.Error(t, err)
	assert.True(t, billing.IsStoreError(err))
	assert.Equal(t, date(2024, 1, 10), env.store.plan(detail.Plan.ID).StartDate)
	assert.Equal(t, []string{"2024-01-10", "2024-02-10", "2024-03-10"}, dueDates(env, detail.Plan))
}
