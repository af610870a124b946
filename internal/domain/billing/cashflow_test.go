package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncomeEntryForInstallment(t *testing.T) {
	p := newTestInstallment(t, 1000)

	_, err := NewIncomeEntryForInstallment(p, "")
	assert.True(t, IsValidationError(err), "unpaid installment has no payment date")

	_, err = p.MarkPaid(date(2024, 5, 1))
	require.NoError(t, err)

	entry, err := NewIncomeEntryForInstallment(p, "")
	require.NoError(t, err)
	assert.Equal(t, CashFlowTypeIncome, entry.Type)
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, date(2024, 5, 1), entry.Date)
	assert.Equal(t, DefaultLedgerCategory, entry.Category)
	assert.Equal(t, p.Description, entry.Description)
	require.NotNil(t, entry.PaymentID)
	assert.Equal(t, p.ID, *entry.PaymentID)
}

func TestNewIncomeEntryForPlan(t *testing.T) {
	plan := newTestPlan(t, 1)
	entry, err := NewIncomeEntryForPlan(plan, date(2024, 2, 1), "mensalidades")
	require.NoError(t, err)
	assert.Equal(t, plan.ID, *entry.PaymentID)
	assert.Equal(t, "mensalidades", entry.Category)
}

func TestNewCashFlowEntry_Validation(t *testing.T) {
	_, err := NewCashFlowEntry(CashFlowType("transfer"), decimal.NewFromInt(1), date(2024, 1, 1), "", "")
	assert.True(t, IsValidationError(err))
	_, err = NewCashFlowEntry(CashFlowTypeExpense, decimal.Zero, date(2024, 1, 1), "", "")
	assert.True(t, IsValidationError(err))
}

func TestSummarize(t *testing.T) {
	in, err := NewCashFlowEntry(CashFlowTypeIncome, decimal.NewFromInt(1000), date(2024, 1, 1), "a", "")
	require.NoError(t, err)
	in2, err := NewCashFlowEntry(CashFlowTypeIncome, decimal.RequireFromString("250.50"), date(2024, 1, 2), "b", "")
	require.NoError(t, err)
	out, err := NewCashFlowEntry(CashFlowTypeExpense, decimal.NewFromInt(300), date(2024, 1, 3), "c", "rent")
	require.NoError(t, err)

	summary := Summarize([]*CashFlowEntry{in, in2, out})
	assert.Equal(t, "1250.50", summary.Income.Amount().StringFixed(2))
	assert.Equal(t, "300.00", summary.Expense.Amount().StringFixed(2))
	assert.Equal(t, "950.50", summary.Balance.Amount().StringFixed(2))
	assert.Equal(t, 3, summary.Count)
}
