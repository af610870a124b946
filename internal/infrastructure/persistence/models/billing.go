package models

import (
	"time"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecurringBillingPlanModel is the persistence model for RecurringBillingPlan
type RecurringBillingPlanModel struct {
	VersionedRow
	ClientID      uuid.UUID          `gorm:"type:uuid;not null;index:idx_plan_series,priority:1"`
	Description   string             `gorm:"type:varchar(300);not null;index:idx_plan_series,priority:2"`
	Amount        decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	Installments  int                `gorm:"not null;default:0"`
	DueDay        int                `gorm:"not null"`
	StartDate     time.Time          `gorm:"type:date;not null"`
	EndDate       *time.Time         `gorm:"type:date"`
	Status        billing.PlanStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentMethod string             `gorm:"type:varchar(50)"`
	EmailTemplate string             `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (RecurringBillingPlanModel) TableName() string {
	return "recurring_billing_plans"
}

// ToDomain converts the persistence model to a domain plan
func (m *RecurringBillingPlanModel) ToDomain() *billing.RecurringBillingPlan {
	var end *time.Time
	if m.EndDate != nil {
		e := billing.NormalizeDate(*m.EndDate)
		end = &e
	}
	return &billing.RecurringBillingPlan{
		BaseAggregateRoot: m.aggregateRoot(),
		ClientID:          m.ClientID,
		Description:       m.Description,
		Amount:            m.Amount,
		Installments:      m.Installments,
		DueDay:            m.DueDay,
		StartDate:         billing.NormalizeDate(m.StartDate),
		EndDate:           end,
		Status:            m.Status,
		PaymentMethod:     m.PaymentMethod,
		EmailTemplate:     m.EmailTemplate,
	}
}

// FromDomain populates the persistence model from a domain plan
func (m *RecurringBillingPlanModel) FromDomain(p *billing.RecurringBillingPlan) {
	m.VersionedRow = versionedRowOf(p.BaseAggregateRoot)
	m.ClientID = p.ClientID
	m.Description = p.Description
	m.Amount = p.Amount
	m.Installments = p.Installments
	m.DueDay = p.DueDay
	m.StartDate = p.StartDate
	m.EndDate = p.EndDate
	m.Status = p.Status
	m.PaymentMethod = p.PaymentMethod
	m.EmailTemplate = p.EmailTemplate
}

// RecurringBillingPlanModelFromDomain creates a persistence model from a domain plan
func RecurringBillingPlanModelFromDomain(p *billing.RecurringBillingPlan) *RecurringBillingPlanModel {
	m := &RecurringBillingPlanModel{}
	m.FromDomain(p)
	return m
}

// PaymentInstallmentModel is the persistence model for PaymentInstallment.
// Series members share client_id and the base of description.
type PaymentInstallmentModel struct {
	VersionedRow
	ClientID          uuid.UUID             `gorm:"type:uuid;not null;index:idx_installment_series,priority:1"`
	Description       string                `gorm:"type:varchar(300);not null;index:idx_installment_series,priority:2"`
	Amount            decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	DueDate           time.Time             `gorm:"type:date;not null;index"`
	PaymentDate       *time.Time            `gorm:"type:date"`
	PaymentMethod     string                `gorm:"type:varchar(50)"`
	EmailTemplate     string                `gorm:"type:varchar(100)"`
	Status            billing.PaymentStatus `gorm:"type:varchar(30);not null;default:'pending';index"`
	InstallmentNumber *int
	TotalInstallments *int
	PaidAmount        *decimal.Decimal `gorm:"type:decimal(18,2)"`
}

// TableName returns the table name for GORM
func (PaymentInstallmentModel) TableName() string {
	return "payment_installments"
}

// ToDomain converts the persistence model to a domain installment
func (m *PaymentInstallmentModel) ToDomain() *billing.PaymentInstallment {
	var paid *time.Time
	if m.PaymentDate != nil {
		d := billing.NormalizeDate(*m.PaymentDate)
		paid = &d
	}
	return &billing.PaymentInstallment{
		BaseAggregateRoot: m.aggregateRoot(),
		ClientID:          m.ClientID,
		Description:       m.Description,
		Amount:            m.Amount,
		DueDate:           billing.NormalizeDate(m.DueDate),
		PaymentDate:       paid,
		PaymentMethod:     m.PaymentMethod,
		EmailTemplate:     m.EmailTemplate,
		Status:            m.Status,
		InstallmentNumber: m.InstallmentNumber,
		TotalInstallments: m.TotalInstallments,
		PaidAmount:        m.PaidAmount,
	}
}

// FromDomain populates the persistence model from a domain installment
func (m *PaymentInstallmentModel) FromDomain(p *billing.PaymentInstallment) {
	m.VersionedRow = versionedRowOf(p.BaseAggregateRoot)
	m.ClientID = p.ClientID
	m.Description = p.Description
	m.Amount = p.Amount
	m.DueDate = p.DueDate
	m.PaymentDate = p.PaymentDate
	m.PaymentMethod = p.PaymentMethod
	m.EmailTemplate = p.EmailTemplate
	m.Status = p.Status
	m.InstallmentNumber = p.InstallmentNumber
	m.TotalInstallments = p.TotalInstallments
	m.PaidAmount = p.PaidAmount
}

// PaymentInstallmentModelFromDomain creates a persistence model from a domain installment
func PaymentInstallmentModelFromDomain(p *billing.PaymentInstallment) *PaymentInstallmentModel {
	m := &PaymentInstallmentModel{}
	m.FromDomain(p)
	return m
}

// CashFlowEntryModel is the persistence model for the append-only ledger.
// payment_id is unique so a payment can be booked at most once; NULLs
// (manual entries) are not constrained.
type CashFlowEntryModel struct {
	ID          uuid.UUID            `gorm:"type:uuid;primary_key"`
	Type        billing.CashFlowType `gorm:"type:varchar(20);not null;index"`
	Amount      decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Date        time.Time            `gorm:"type:date;not null;index"`
	Description string               `gorm:"type:varchar(300)"`
	Category    string               `gorm:"type:varchar(50);not null;index"`
	PaymentID   *uuid.UUID           `gorm:"type:uuid;uniqueIndex:idx_cash_flow_payment_id"`
	CreatedAt   time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CashFlowEntryModel) TableName() string {
	return "cash_flow_entries"
}

// ToDomain converts the persistence model to a domain entry
func (m *CashFlowEntryModel) ToDomain() *billing.CashFlowEntry {
	return &billing.CashFlowEntry{
		ID:          m.ID,
		Type:        m.Type,
		Amount:      m.Amount,
		Date:        billing.NormalizeDate(m.Date),
		Description: m.Description,
		Category:    m.Category,
		PaymentID:   m.PaymentID,
		CreatedAt:   m.CreatedAt,
	}
}

// CashFlowEntryModelFromDomain creates a persistence model from a domain entry
func CashFlowEntryModelFromDomain(e *billing.CashFlowEntry) *CashFlowEntryModel {
	return &CashFlowEntryModel{
		ID:          e.ID,
		Type:        e.Type,
		Amount:      e.Amount,
		Date:        e.Date,
		Description: e.Description,
		Category:    e.Category,
		PaymentID:   e.PaymentID,
		CreatedAt:   e.CreatedAt,
	}
}

// AllModels lists every model for schema management in tests and tooling
func AllModels() []any {
	return []any{
		&RecurringBillingPlanModel{},
		&PaymentInstallmentModel{},
		&CashFlowEntryModel{},
	}
}
