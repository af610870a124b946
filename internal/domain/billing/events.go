package billing

import (
	"time"

	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeInstallmentPaid       = "InstallmentPaid"
	EventTypeInstallmentDeleted    = "InstallmentDeleted"
	EventTypeInstallmentDuplicated = "InstallmentDuplicated"
	EventTypeSeriesRenumbered      = "SeriesRenumbered"
	EventTypePlanScheduleShifted   = "PlanScheduleShifted"
	EventTypePlanCancelled         = "PlanCancelled"

	AggregateTypeInstallment = "PaymentInstallment"
	AggregateTypePlan        = "RecurringBillingPlan"
)

// InstallmentPaidEvent is raised when an installment moves into paid
type InstallmentPaidEvent struct {
	shared.BaseDomainEvent
	InstallmentID uuid.UUID       `json:"installment_id"`
	ClientID      uuid.UUID       `json:"client_id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"payment_date"`
}

// NewInstallmentPaidEvent creates a new InstallmentPaidEvent
func NewInstallmentPaidEvent(p *PaymentInstallment) *InstallmentPaidEvent {
	var paid time.Time
	if p.PaymentDate != nil {
		paid = *p.PaymentDate
	}
	return &InstallmentPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentPaid, AggregateTypeInstallment, p.ID),
		InstallmentID:   p.ID,
		ClientID:        p.ClientID,
		Description:     p.Description,
		Amount:          p.Amount,
		PaymentDate:     paid,
	}
}

// InstallmentDeletedEvent is raised after an installment is removed
type InstallmentDeletedEvent struct {
	shared.BaseDomainEvent
	InstallmentID     uuid.UUID `json:"installment_id"`
	ClientID          uuid.UUID `json:"client_id"`
	Description       string    `json:"description"`
	InstallmentNumber *int      `json:"installment_number,omitempty"`
}

// NewInstallmentDeletedEvent creates a new InstallmentDeletedEvent
func NewInstallmentDeletedEvent(p *PaymentInstallment) *InstallmentDeletedEvent {
	return &InstallmentDeletedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeInstallmentDeleted, AggregateTypeInstallment, p.ID),
		InstallmentID:     p.ID,
		ClientID:          p.ClientID,
		Description:       p.Description,
		InstallmentNumber: p.InstallmentNumber,
	}
}

// InstallmentDuplicatedEvent is raised when a payment is cloned
type InstallmentDuplicatedEvent struct {
	shared.BaseDomainEvent
	SourceID    uuid.UUID `json:"source_id"`
	DuplicateID uuid.UUID `json:"duplicate_id"`
}

// NewInstallmentDuplicatedEvent creates a new InstallmentDuplicatedEvent
func NewInstallmentDuplicatedEvent(source, clone *PaymentInstallment) *InstallmentDuplicatedEvent {
	return &InstallmentDuplicatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentDuplicated, AggregateTypeInstallment, clone.ID),
		SourceID:        source.ID,
		DuplicateID:     clone.ID,
	}
}

// SeriesRenumberedEvent is raised after a series is renumbered
type SeriesRenumberedEvent struct {
	shared.BaseDomainEvent
	ClientID        uuid.UUID   `json:"client_id"`
	BaseDescription string      `json:"base_description"`
	Total           int         `json:"total"`
	Changed         []uuid.UUID `json:"changed"`
}

// NewSeriesRenumberedEvent creates a new SeriesRenumberedEvent.
// The aggregate is the plan when one exists, otherwise uuid.Nil.
func NewSeriesRenumberedEvent(planID uuid.UUID, series *Series, changed []*PaymentInstallment) *SeriesRenumberedEvent {
	ids := make([]uuid.UUID, 0, len(changed))
	for _, c := range changed {
		ids = append(ids, c.ID)
	}
	return &SeriesRenumberedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSeriesRenumbered, AggregateTypePlan, planID),
		ClientID:        series.ClientID,
		BaseDescription: series.BaseDescription,
		Total:           series.Len(),
		Changed:         ids,
	}
}

// PlanScheduleShiftedEvent is raised when sibling due dates move with a start date change
type PlanScheduleShiftedEvent struct {
	shared.BaseDomainEvent
	PlanID       uuid.UUID `json:"plan_id"`
	DayOffset    int       `json:"day_offset"`
	SiblingCount int       `json:"sibling_count"`
}

// NewPlanScheduleShiftedEvent creates a new PlanScheduleShiftedEvent
func NewPlanScheduleShiftedEvent(plan *RecurringBillingPlan, offset, siblings int) *PlanScheduleShiftedEvent {
	return &PlanScheduleShiftedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanScheduleShifted, AggregateTypePlan, plan.ID),
		PlanID:          plan.ID,
		DayOffset:       offset,
		SiblingCount:    siblings,
	}
}

// PlanCancelledEvent is raised when a plan is cancelled
type PlanCancelledEvent struct {
	shared.BaseDomainEvent
	PlanID   uuid.UUID `json:"plan_id"`
	ClientID uuid.UUID `json:"client_id"`
}

// NewPlanCancelledEvent creates a new PlanCancelledEvent
func NewPlanCancelledEvent(plan *RecurringBillingPlan) *PlanCancelledEvent {
	return &PlanCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanCancelled, AggregateTypePlan, plan.ID),
		PlanID:          plan.ID,
		ClientID:        plan.ClientID,
	}
}
