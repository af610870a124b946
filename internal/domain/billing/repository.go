package billing

import (
	"context"
	"time"

	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// InstallmentFilter defines filtering options for installment queries
type InstallmentFilter struct {
	shared.Filter
	ClientID          *uuid.UUID
	DescriptionPrefix string // matched literally, LIKE wildcards are escaped
	TotalInstallments *int
	Statuses          []PaymentStatus
	SeriesOnly        bool // only records with an installment number
	DueFrom           *time.Time
	DueTo             *time.Time
}

// InstallmentRepository defines persistence for payment installments
type InstallmentRepository interface {
	// FindByID returns shared.ErrNotFound when the installment does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentInstallment, error)

	// FindAll lists installments matching the filter, ordered by installment number then due date
	FindAll(ctx context.Context, filter InstallmentFilter) ([]*PaymentInstallment, error)

	// Save creates or updates an installment
	Save(ctx context.Context, installment *PaymentInstallment) error

	// SaveBatch creates or updates several installments in order
	SaveBatch(ctx context.Context, installments []*PaymentInstallment) error

	// Delete removes an installment; returns shared.ErrNotFound when nothing was deleted
	Delete(ctx context.Context, id uuid.UUID) error

	// FindPaidWithoutCashFlowEntry lists paid installments that have no ledger entry
	FindPaidWithoutCashFlowEntry(ctx context.Context) ([]*PaymentInstallment, error)
}

// PlanFilter defines filtering options for plan queries
type PlanFilter struct {
	shared.Filter
	ClientID *uuid.UUID
	Status   *PlanStatus
}

// PlanRepository defines persistence for recurring billing plans
type PlanRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RecurringBillingPlan, error)

	// FindBySeries finds the plan owning the series identified by client and base description
	FindBySeries(ctx context.Context, clientID uuid.UUID, baseDescription string) (*RecurringBillingPlan, error)

	FindAll(ctx context.Context, filter PlanFilter) ([]*RecurringBillingPlan, error)

	// Save creates or updates a plan
	Save(ctx context.Context, plan *RecurringBillingPlan) error
}

// CashFlowFilter defines filtering options for ledger queries
type CashFlowFilter struct {
	shared.Filter
	PaymentID *uuid.UUID
	Type      *CashFlowType
	Category  string
	From      *time.Time
	To        *time.Time
}

// CashFlowRepository defines persistence for the append-only ledger
type CashFlowRepository interface {
	FindAll(ctx context.Context, filter CashFlowFilter) ([]*CashFlowEntry, error)

	// Insert appends an entry. Returns ErrAlreadyBooked when an entry with the
	// same payment id already exists.
	Insert(ctx context.Context, entry *CashFlowEntry) error
}
