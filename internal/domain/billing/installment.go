package billing

import (
	"strings"
	"time"

	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentInstallment is one billable payment, either standalone or a member of a series
type PaymentInstallment struct {
	shared.BaseAggregateRoot
	ClientID          uuid.UUID
	Description       string
	Amount            decimal.Decimal
	DueDate           time.Time
	PaymentDate       *time.Time
	PaymentMethod     string
	EmailTemplate     string
	Status            PaymentStatus
	InstallmentNumber *int // 1-based position in the series, nil for one-off payments
	TotalInstallments *int
	PaidAmount        *decimal.Decimal // set only while partially_paid
}

// NewPaymentInstallment creates a standalone pending installment
func NewPaymentInstallment(clientID uuid.UUID, description string, amount decimal.Decimal, dueDate time.Time, paymentMethod string) (*PaymentInstallment, error) {
	if clientID == uuid.Nil {
		return nil, NewValidationError("client_id is required")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, NewValidationError("description is required")
	}
	if !amount.IsPositive() {
		return nil, NewValidationError("amount must be greater than zero")
	}
	if dueDate.IsZero() {
		return nil, NewValidationError("due_date is required")
	}

	return &PaymentInstallment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientID:          clientID,
		Description:       description,
		Amount:            amount,
		DueDate:           NormalizeDate(dueDate),
		PaymentMethod:     paymentMethod,
		Status:            PaymentStatusPending,
	}, nil
}

// IsInSeries reports whether the installment belongs to a series
func (p *PaymentInstallment) IsInSeries() bool {
	return p.InstallmentNumber != nil
}

// BaseDescription returns the description without the "(i/N)" suffix
func (p *PaymentInstallment) BaseDescription() string {
	return BaseDescription(p.Description)
}

// IsPaid reports whether the installment is fully settled
func (p *PaymentInstallment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// ChangeStatus validates and applies a status transition.
// It returns true when the transition realizes income and the ledger has to be synchronized.
func (p *PaymentInstallment) ChangeStatus(to PaymentStatus, paymentDate *time.Time, paidAmount *decimal.Decimal) (bool, error) {
	from := p.Status
	if paymentDate == nil && to == PaymentStatusPaid && from == PaymentStatusPaid {
		paymentDate = p.PaymentDate
	}
	if paidAmount == nil && to == PaymentStatusPartiallyPaid {
		paidAmount = p.PaidAmount
	}
	if err := ValidateTransition(from, to, TransitionFields{
		Amount:      p.Amount,
		PaymentDate: paymentDate,
		PaidAmount:  paidAmount,
	}); err != nil {
		return false, err
	}

	p.applyStatus(to, paymentDate, paidAmount)
	p.IncrementVersion()

	realized := RealizesIncome(from, to)
	if realized {
		p.AddDomainEvent(NewInstallmentPaidEvent(p))
	}
	return realized, nil
}

// MarkPaid settles the installment on the given date
func (p *PaymentInstallment) MarkPaid(paymentDate time.Time) (bool, error) {
	return p.ChangeStatus(PaymentStatusPaid, &paymentDate, nil)
}

func (p *PaymentInstallment) applyStatus(to PaymentStatus, paymentDate *time.Time, paidAmount *decimal.Decimal) {
	p.Status = to
	switch {
	case to != PaymentStatusPaid:
		p.PaymentDate = nil
	case paymentDate != nil:
		d := NormalizeDate(*paymentDate)
		p.PaymentDate = &d
	}
	if to == PaymentStatusPartiallyPaid {
		v := *paidAmount
		p.PaidAmount = &v
	} else {
		p.PaidAmount = nil
	}
}

// Cancel moves a non-paid installment to cancelled. Paid installments are left alone.
func (p *PaymentInstallment) Cancel() bool {
	if p.Status == PaymentStatusPaid || p.Status == PaymentStatusCancelled {
		return false
	}
	p.Status = PaymentStatusCancelled
	p.PaymentDate = nil
	p.PaidAmount = nil
	p.IncrementVersion()
	return true
}

// InstallmentPatch is a partial edit; nil fields are left unchanged
type InstallmentPatch struct {
	Description   *string
	Amount        *decimal.Decimal
	DueDate       *time.Time
	PaymentMethod *string
	EmailTemplate *string
	Status        *PaymentStatus
	PaymentDate   *time.Time
	PaidAmount    *decimal.Decimal
}

// ApplyPatch validates the resulting record as a whole before changing anything.
// It returns true when the edit moves the installment into paid.
func (p *PaymentInstallment) ApplyPatch(patch InstallmentPatch) (bool, error) {
	description := p.Description
	if patch.Description != nil {
		description = strings.TrimSpace(*patch.Description)
		if description == "" {
			return false, NewValidationError("description cannot be empty")
		}
		if p.IsInSeries() && BaseDescription(description) != p.BaseDescription() {
			return false, NewValidationError("description of a series installment follows its plan and cannot be renamed")
		}
		if p.IsInSeries() {
			description = SeriesDescription(p.BaseDescription(), *p.InstallmentNumber, *p.TotalInstallments)
		}
	}

	amount := p.Amount
	if patch.Amount != nil {
		if !patch.Amount.IsPositive() {
			return false, NewValidationError("amount must be greater than zero")
		}
		amount = *patch.Amount
	}

	dueDate := p.DueDate
	if patch.DueDate != nil {
		if patch.DueDate.IsZero() {
			return false, NewValidationError("due_date cannot be empty")
		}
		dueDate = NormalizeDate(*patch.DueDate)
	}

	from := p.Status
	to := p.Status
	if patch.Status != nil {
		to = *patch.Status
	}
	// a stored payment date only carries over while the record stays paid
	var paymentDate *time.Time
	if from == PaymentStatusPaid {
		paymentDate = p.PaymentDate
	}
	if patch.PaymentDate != nil {
		paymentDate = patch.PaymentDate
	}
	paidAmount := p.PaidAmount
	if patch.PaidAmount != nil {
		paidAmount = patch.PaidAmount
	}

	if err := ValidateTransition(from, to, TransitionFields{
		Amount:      amount,
		PaymentDate: paymentDate,
		PaidAmount:  paidAmount,
	}); err != nil {
		return false, err
	}

	p.Description = description
	p.Amount = amount
	p.DueDate = dueDate
	if patch.PaymentMethod != nil {
		p.PaymentMethod = *patch.PaymentMethod
	}
	if patch.EmailTemplate != nil {
		p.EmailTemplate = *patch.EmailTemplate
	}
	p.applyStatus(to, paymentDate, paidAmount)
	p.IncrementVersion()

	realized := RealizesIncome(from, to)
	if realized {
		p.AddDomainEvent(NewInstallmentPaidEvent(p))
	}
	return realized, nil
}

// assignSeriesPosition sets number, total and description; reports whether anything changed
func (p *PaymentInstallment) assignSeriesPosition(base string, number, total int) bool {
	description := SeriesDescription(base, number, total)
	if p.InstallmentNumber != nil && *p.InstallmentNumber == number &&
		p.TotalInstallments != nil && *p.TotalInstallments == total &&
		p.Description == description {
		return false
	}
	n, t := number, total
	p.InstallmentNumber = &n
	p.TotalInstallments = &t
	p.Description = description
	p.IncrementVersion()
	return true
}

// ShiftDueDate moves the due date by whole calendar days
func (p *PaymentInstallment) ShiftDueDate(days int) {
	if days == 0 {
		return
	}
	p.DueDate = AddDays(p.DueDate, days)
	p.IncrementVersion()
}

// Duplicate builds a new standalone pending installment from p.
// Status, payment date, series linkage and partial amount never carry over; p is not modified.
func (p *PaymentInstallment) Duplicate(suffix string) *PaymentInstallment {
	clone := &PaymentInstallment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientID:          p.ClientID,
		Description:       p.Description + suffix,
		Amount:            p.Amount,
		DueDate:           p.DueDate,
		PaymentMethod:     p.PaymentMethod,
		EmailTemplate:     p.EmailTemplate,
		Status:            PaymentStatusPending,
	}
	clone.AddDomainEvent(NewInstallmentDuplicatedEvent(p, clone))
	return clone
}
