package billing

import (
	"strings"
	"time"

	"github.com/backoffice/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashFlowType distinguishes income from expense entries
type CashFlowType string

const (
	CashFlowTypeIncome  CashFlowType = "income"
	CashFlowTypeExpense CashFlowType = "expense"
)

// IsValid checks if the cash flow type is valid
func (t CashFlowType) IsValid() bool {
	return t == CashFlowTypeIncome || t == CashFlowTypeExpense
}

// DefaultLedgerCategory is the category used for booked installment payments
const DefaultLedgerCategory = "payment"

// CashFlowEntry is an append-only ledger record.
// PaymentID is a lookup reference to the installment (or plan) that produced it.
type CashFlowEntry struct {
	ID          uuid.UUID
	Type        CashFlowType
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	Category    string
	PaymentID   *uuid.UUID
	CreatedAt   time.Time
}

// NewCashFlowEntry validates and creates a ledger entry
func NewCashFlowEntry(entryType CashFlowType, amount decimal.Decimal, date time.Time, description, category string) (*CashFlowEntry, error) {
	if !entryType.IsValid() {
		return nil, NewValidationError("invalid cash flow type: %q", entryType)
	}
	if !amount.IsPositive() {
		return nil, NewValidationError("cash flow amount must be greater than zero")
	}
	if date.IsZero() {
		return nil, NewValidationError("cash flow date is required")
	}
	if strings.TrimSpace(category) == "" {
		category = DefaultLedgerCategory
	}
	return &CashFlowEntry{
		ID:          uuid.New(),
		Type:        entryType,
		Amount:      amount,
		Date:        NormalizeDate(date),
		Description: description,
		Category:    category,
		CreatedAt:   time.Now(),
	}, nil
}

// NewIncomeEntryForInstallment builds the income entry booked when an installment is paid
func NewIncomeEntryForInstallment(p *PaymentInstallment, category string) (*CashFlowEntry, error) {
	if p.PaymentDate == nil {
		return nil, NewValidationError("installment %s has no payment_date", p.ID)
	}
	entry, err := NewCashFlowEntry(CashFlowTypeIncome, p.Amount, *p.PaymentDate, p.Description, category)
	if err != nil {
		return nil, err
	}
	id := p.ID
	entry.PaymentID = &id
	return entry, nil
}

// NewIncomeEntryForPlan builds the single entry booked for a plan settled without installments
func NewIncomeEntryForPlan(plan *RecurringBillingPlan, paymentDate time.Time, category string) (*CashFlowEntry, error) {
	entry, err := NewCashFlowEntry(CashFlowTypeIncome, plan.Amount, paymentDate, plan.Description, category)
	if err != nil {
		return nil, err
	}
	id := plan.ID
	entry.PaymentID = &id
	return entry, nil
}

// CashFlowSummary aggregates a set of entries
type CashFlowSummary struct {
	Income  valueobject.Money
	Expense valueobject.Money
	Balance valueobject.Money
	Count   int
}

// Summarize totals income and expense
func Summarize(entries []*CashFlowEntry) CashFlowSummary {
	var income, expense []decimal.Decimal
	for _, e := range entries {
		switch e.Type {
		case CashFlowTypeIncome:
			income = append(income, e.Amount)
		case CashFlowTypeExpense:
			expense = append(expense, e.Amount)
		}
	}
	in := valueobject.Sum(valueobject.DefaultCurrency, income...)
	out := valueobject.Sum(valueobject.DefaultCurrency, expense...)
	balance, _ := in.Subtract(out)
	return CashFlowSummary{
		Income:  in,
		Expense: out,
		Balance: balance,
		Count:   len(entries),
	}
}
