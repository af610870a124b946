package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a payment installment
type PaymentStatus string

const (
	PaymentStatusPending         PaymentStatus = "pending"
	PaymentStatusBilled          PaymentStatus = "billed"
	PaymentStatusAwaitingInvoice PaymentStatus = "awaiting_invoice"
	PaymentStatusPartiallyPaid   PaymentStatus = "partially_paid"
	PaymentStatusPaid            PaymentStatus = "paid"
	PaymentStatusOverdue         PaymentStatus = "overdue"
	PaymentStatusCancelled       PaymentStatus = "cancelled"
)

// AllPaymentStatuses lists every valid status
func AllPaymentStatuses() []PaymentStatus {
	return []PaymentStatus{
		PaymentStatusPending,
		PaymentStatusBilled,
		PaymentStatusAwaitingInvoice,
		PaymentStatusPartiallyPaid,
		PaymentStatusPaid,
		PaymentStatusOverdue,
		PaymentStatusCancelled,
	}
}

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusBilled, PaymentStatusAwaitingInvoice,
		PaymentStatusPartiallyPaid, PaymentStatusPaid, PaymentStatusOverdue, PaymentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// PlanStatus represents the lifecycle of a recurring billing plan
type PlanStatus string

const (
	PlanStatusPending   PlanStatus = "pending"
	PlanStatusPaid      PlanStatus = "paid"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// IsValid checks if the plan status is valid
func (s PlanStatus) IsValid() bool {
	switch s {
	case PlanStatusPending, PlanStatusPaid, PlanStatusCancelled:
		return true
	}
	return false
}

func (s PlanStatus) String() string {
	return string(s)
}

// TransitionFields carries the values a status transition is checked against
type TransitionFields struct {
	Amount      decimal.Decimal
	PaymentDate *time.Time
	PaidAmount  *decimal.Decimal
}

// ValidateTransition centralizes the field co-requirements of a status change.
// Any status may move to any other status; only the fields are checked.
func ValidateTransition(from, to PaymentStatus, fields TransitionFields) error {
	if !to.IsValid() {
		return NewValidationError("invalid payment status: %q", to)
	}
	if from != "" && !from.IsValid() {
		return NewValidationError("invalid current payment status: %q", from)
	}

	switch to {
	case PaymentStatusPaid:
		if fields.PaymentDate == nil || fields.PaymentDate.IsZero() {
			return NewValidationError("payment_date is required when status is paid")
		}
	case PaymentStatusPartiallyPaid:
		if fields.PaidAmount == nil {
			return NewValidationError("paid_amount is required when status is partially_paid")
		}
		if !fields.PaidAmount.IsPositive() {
			return NewValidationError("paid_amount must be greater than zero")
		}
		if fields.PaidAmount.GreaterThanOrEqual(fields.Amount) {
			return NewValidationError("paid_amount %s must be less than amount %s",
				fields.PaidAmount.StringFixed(2), fields.Amount.StringFixed(2))
		}
	}
	return nil
}

// RealizesIncome reports whether moving from one status to another books income.
// Only full settlement is booked; partial captures leave the balance open.
func RealizesIncome(from, to PaymentStatus) bool {
	return to == PaymentStatusPaid && from != PaymentStatusPaid
}
