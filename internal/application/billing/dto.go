package billing

import (
	"time"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeleteResult reports what a delete did to the surrounding series
type DeleteResult struct {
	InstallmentID   uuid.UUID
	WasInSeries     bool
	Renumbered      int // siblings whose number, total or description changed
	RemainingCount  int
	PlanID          *uuid.UUID
	NeedsResequence bool     // delete stored but renumbering failed; run ResequenceSeries
	Warnings        []string // non-fatal issues, e.g. an inconsistent series found before the delete
}

// HasWarnings reports whether the delete succeeded with a warning
func (r *DeleteResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// ResequenceResult reports a series repair
type ResequenceResult struct {
	BaseDescription string
	Total           int
	Renumbered      int
	PlanID          *uuid.UUID
	WasConsistent   bool
}

// MarkPaidResult reports a settlement
type MarkPaidResult struct {
	Installment  *billing.PaymentInstallment
	LedgerBooked bool // false when an entry already existed
}

// UpdateResult reports an installment edit
type UpdateResult struct {
	Installment  *billing.PaymentInstallment
	LedgerBooked bool
}

// ShiftPreview is surfaced to the user before due dates are moved
type ShiftPreview struct {
	PlanID               uuid.UUID
	OldStartDate         time.Time
	NewStartDate         time.Time
	DayOffset            int
	SiblingCount         int
	RequiresConfirmation bool
}

// ApplyStartDateInput changes a plan's start date.
// OldStartDate, when set, must match the stored start date.
type ApplyStartDateInput struct {
	PlanID       uuid.UUID
	OldStartDate *time.Time
	NewStartDate time.Time
	ConfirmShift bool
}

// ShiftResult reports a start date change
type ShiftResult struct {
	Plan         *billing.RecurringBillingPlan
	DayOffset    int
	SiblingCount int
	Shifted      bool // due dates moved
}

// CreatePlanInput is the input of CreatePlan
type CreatePlanInput struct {
	ClientID      uuid.UUID
	Description   string
	Amount        decimal.Decimal
	Installments  int
	DueDay        int
	StartDate     time.Time
	EndDate       *time.Time
	PaymentMethod string
	EmailTemplate string
}

// PlanDetail is a plan with its currently resolved series
type PlanDetail struct {
	Plan         *billing.RecurringBillingPlan
	Installments []*billing.PaymentInstallment
}

// PlanSettlementResult reports MarkPlanPaid
type PlanSettlementResult struct {
	Plan          *billing.RecurringBillingPlan
	Settled       int // installments moved into paid by this call
	LedgerBooked  int // new cash flow entries
	AlreadyPaid   int
	SkippedCancel int
}

// MissingLedgerEntry is a paid installment without its income entry
type MissingLedgerEntry struct {
	InstallmentID uuid.UUID
	ClientID      uuid.UUID
	Description   string
	Amount        decimal.Decimal
	PaymentDate   *time.Time
	Repaired      bool
	Error         string
}

// ReconciliationReport is the outcome of Reconcile
type ReconciliationReport struct {
	CheckedAt time.Time
	Missing   []MissingLedgerEntry
	Repaired  int
	Failed    int
}

// IsClean reports whether nothing was missing
func (r *ReconciliationReport) IsClean() bool {
	return len(r.Missing) == 0
}

// CashFlowReport lists ledger entries with their totals
type CashFlowReport struct {
	Entries []*billing.CashFlowEntry
	Summary billing.CashFlowSummary
}
