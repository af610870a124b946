package billing

import (
	"strings"
	"time"

	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecurringBillingPlan describes a recurring charge that generates a series of installments
type RecurringBillingPlan struct {
	shared.BaseAggregateRoot
	ClientID      uuid.UUID
	Description   string // base description shared by every installment of the series
	Amount        decimal.Decimal
	Installments  int // must equal the number of sibling installments in the store
	DueDay        int
	StartDate     time.Time
	EndDate       *time.Time
	Status        PlanStatus
	PaymentMethod string
	EmailTemplate string
}

// PlanParams holds the input for a new plan
type PlanParams struct {
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

// NewRecurringBillingPlan validates params and creates a pending plan
func NewRecurringBillingPlan(params PlanParams) (*RecurringBillingPlan, error) {
	if params.ClientID == uuid.Nil {
		return nil, NewValidationError("client_id is required")
	}
	description := BaseDescription(strings.TrimSpace(params.Description))
	if description == "" {
		return nil, NewValidationError("description is required")
	}
	if !params.Amount.IsPositive() {
		return nil, NewValidationError("amount must be greater than zero")
	}
	if params.Installments < 1 {
		return nil, NewValidationError("installments must be at least 1")
	}
	if params.DueDay < 1 || params.DueDay > 31 {
		return nil, NewValidationError("due_day must be between 1 and 31")
	}
	if params.StartDate.IsZero() {
		return nil, NewValidationError("start_date is required")
	}
	start := NormalizeDate(params.StartDate)
	var end *time.Time
	if params.EndDate != nil {
		e := NormalizeDate(*params.EndDate)
		if e.Before(start) {
			return nil, NewValidationError("end_date cannot be before start_date")
		}
		end = &e
	}

	return &RecurringBillingPlan{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientID:          params.ClientID,
		Description:       description,
		Amount:            params.Amount,
		Installments:      params.Installments,
		DueDay:            params.DueDay,
		StartDate:         start,
		EndDate:           end,
		Status:            PlanStatusPending,
		PaymentMethod:     params.PaymentMethod,
		EmailTemplate:     params.EmailTemplate,
	}, nil
}

// DueDateFor returns the due date of the i-th installment (1-based).
// Installments fall on DueDay of consecutive months, clamped to short months.
// The first one is never before StartDate.
func (p *RecurringBillingPlan) DueDateFor(number int) time.Time {
	shift := 0
	if dueDateInMonth(p.StartDate, p.DueDay, 0).Before(p.StartDate) {
		shift = 1
	}
	return dueDateInMonth(p.StartDate, p.DueDay, number-1+shift)
}

// GenerateInstallments builds the full pending series for the plan
func (p *RecurringBillingPlan) GenerateInstallments() []*PaymentInstallment {
	out := make([]*PaymentInstallment, 0, p.Installments)
	for i := 1; i <= p.Installments; i++ {
		number, total := i, p.Installments
		out = append(out, &PaymentInstallment{
			BaseAggregateRoot: shared.NewBaseAggregateRoot(),
			ClientID:          p.ClientID,
			Description:       SeriesDescription(p.Description, i, p.Installments),
			Amount:            p.Amount,
			DueDate:           p.DueDateFor(i),
			PaymentMethod:     p.PaymentMethod,
			EmailTemplate:     p.EmailTemplate,
			Status:            PaymentStatusPending,
			InstallmentNumber: &number,
			TotalInstallments: &total,
		})
	}
	return out
}

// SetInstallmentCount records the current series size; reports whether it changed
func (p *RecurringBillingPlan) SetInstallmentCount(n int) bool {
	if p.Installments == n {
		return false
	}
	p.Installments = n
	p.IncrementVersion()
	return true
}

// ChangeStartDate stores the new start date and returns the signed day offset
// from the previous one.
func (p *RecurringBillingPlan) ChangeStartDate(newStart time.Time) (int, error) {
	if newStart.IsZero() {
		return 0, NewValidationError("start_date is required")
	}
	newStart = NormalizeDate(newStart)
	if p.EndDate != nil && p.EndDate.Before(newStart) {
		return 0, NewValidationError("start_date cannot be after end_date")
	}
	offset := DaysBetween(newStart, p.StartDate)
	if offset == 0 {
		return 0, nil
	}
	p.StartDate = newStart
	p.IncrementVersion()
	return offset, nil
}

// Cancel terminates the plan
func (p *RecurringBillingPlan) Cancel() error {
	switch p.Status {
	case PlanStatusCancelled:
		return nil
	case PlanStatusPaid:
		return NewValidationError("plan %s is already paid and cannot be cancelled", p.ID)
	}
	p.Status = PlanStatusCancelled
	p.IncrementVersion()
	p.AddDomainEvent(NewPlanCancelledEvent(p))
	return nil
}

// MarkPaid closes the plan as fully settled
func (p *RecurringBillingPlan) MarkPaid() error {
	if p.Status == PlanStatusCancelled {
		return NewValidationError("plan %s is cancelled and cannot be paid", p.ID)
	}
	if p.Status == PlanStatusPaid {
		return nil
	}
	p.Status = PlanStatusPaid
	p.IncrementVersion()
	return nil
}
