package dto

import (
	"time"

	appbilling "github.com/backoffice/ledger/internal/application/billing"
	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePlanRequest is the body of POST /plans
type CreatePlanRequest struct {
	ClientID      string          `json:"client_id" binding:"required,uuid"`
	Description   string          `json:"description" binding:"required,max=300"`
	Amount        decimal.Decimal `json:"amount"`
	Installments  int             `json:"installments" binding:"required,min=1,max=600"`
	DueDay        int             `json:"due_day" binding:"required,min=1,max=31"`
	StartDate     string          `json:"start_date" binding:"required,ledger_date"`
	EndDate       *string         `json:"end_date" binding:"omitempty,ledger_date"`
	PaymentMethod string          `json:"payment_method" binding:"required,max=50"`
	EmailTemplate string          `json:"email_template" binding:"omitempty,max=100"`
}

// StartDateChangeRequest is the body of the start date preview and apply endpoints
type StartDateChangeRequest struct {
	NewStartDate string  `json:"new_start_date" binding:"required,ledger_date"`
	OldStartDate *string `json:"old_start_date" binding:"omitempty,ledger_date"`
	ConfirmShift bool    `json:"confirm_shift"`
}

// MarkPaidRequest is the body of the mark-paid endpoints
type MarkPaidRequest struct {
	PaymentDate string `json:"payment_date" binding:"required,ledger_date"`
}

// UpdateInstallmentRequest is the body of PATCH /installments/:id; omitted fields are kept
type UpdateInstallmentRequest struct {
	Description   *string          `json:"description" binding:"omitempty,max=300"`
	Amount        *decimal.Decimal `json:"amount"`
	DueDate       *string          `json:"due_date" binding:"omitempty,ledger_date"`
	PaymentMethod *string          `json:"payment_method" binding:"omitempty,max=50"`
	EmailTemplate *string          `json:"email_template" binding:"omitempty,max=100"`
	Status        *string          `json:"status" binding:"omitempty,payment_status"`
	PaymentDate   *string          `json:"payment_date" binding:"omitempty,ledger_date"`
	PaidAmount    *decimal.Decimal `json:"paid_amount"`
}

// ListInstallmentsQuery holds the query parameters of GET /installments
type ListInstallmentsQuery struct {
	ListRequest
	ClientID string   `form:"client_id" binding:"omitempty,uuid"`
	Status   []string `form:"status" binding:"omitempty,dive,payment_status"`
	DueFrom  string   `form:"due_from" binding:"omitempty,ledger_date"`
	DueTo    string   `form:"due_to" binding:"omitempty,ledger_date"`
}

// ListCashFlowQuery holds the query parameters of GET /cash-flow
type ListCashFlowQuery struct {
	ListRequest
	PaymentID string `form:"payment_id" binding:"omitempty,uuid"`
	Type      string `form:"type" binding:"omitempty,oneof=income expense"`
	Category  string `form:"category" binding:"omitempty,max=50"`
	From      string `form:"from" binding:"omitempty,ledger_date"`
	To        string `form:"to" binding:"omitempty,ledger_date"`
}

// InstallmentResponse is the API view of a payment installment
type InstallmentResponse struct {
	ID                uuid.UUID        `json:"id"`
	ClientID          uuid.UUID        `json:"client_id"`
	Description       string           `json:"description"`
	Amount            decimal.Decimal  `json:"amount"`
	DueDate           string           `json:"due_date"`
	PaymentDate       *string          `json:"payment_date"`
	PaymentMethod     string           `json:"payment_method"`
	EmailTemplate     string           `json:"email_template,omitempty"`
	Status            string           `json:"status"`
	InstallmentNumber *int             `json:"installment_number"`
	TotalInstallments *int             `json:"total_installments"`
	PaidAmount        *decimal.Decimal `json:"paid_amount,omitempty"`
	Version           int              `json:"version"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// PlanResponse is the API view of a recurring billing plan
type PlanResponse struct {
	ID            uuid.UUID       `json:"id"`
	ClientID      uuid.UUID       `json:"client_id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Installments  int             `json:"installments"`
	DueDay        int             `json:"due_day"`
	StartDate     string          `json:"start_date"`
	EndDate       *string         `json:"end_date"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	EmailTemplate string          `json:"email_template,omitempty"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PlanDetailResponse is a plan with its series
type PlanDetailResponse struct {
	Plan         PlanResponse          `json:"plan"`
	Installments []InstallmentResponse `json:"installments"`
}

// CashFlowEntryResponse is the API view of a ledger entry
type CashFlowEntryResponse struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	PaymentID   *uuid.UUID      `json:"payment_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CashFlowSummaryResponse holds ledger totals
type CashFlowSummaryResponse struct {
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
	Count    int             `json:"count"`
}

// CashFlowReportResponse is the body of GET /cash-flow
type CashFlowReportResponse struct {
	Entries []CashFlowEntryResponse `json:"entries"`
	Summary CashFlowSummaryResponse `json:"summary"`
}

// InstallmentChangeResponse reports a settlement or edit and whether it booked the ledger
type InstallmentChangeResponse struct {
	Installment  InstallmentResponse `json:"installment"`
	LedgerBooked bool                `json:"ledger_booked"`
}

// DeleteInstallmentResponse reports a delete and the renumbering it caused
type DeleteInstallmentResponse struct {
	InstallmentID   uuid.UUID  `json:"installment_id"`
	WasInSeries     bool       `json:"was_in_series"`
	Renumbered      int        `json:"renumbered"`
	RemainingCount  int        `json:"remaining_count"`
	PlanID          *uuid.UUID `json:"plan_id"`
	NeedsResequence bool       `json:"needs_resequence"`
	Warnings        []string   `json:"warnings,omitempty"`
}

// ResequenceResponse reports a series repair
type ResequenceResponse struct {
	BaseDescription string     `json:"base_description"`
	Total           int        `json:"total"`
	Renumbered      int        `json:"renumbered"`
	PlanID          *uuid.UUID `json:"plan_id"`
	WasConsistent   bool       `json:"was_consistent"`
}

// ShiftPreviewResponse is the body of the start date preview
type ShiftPreviewResponse struct {
	PlanID               uuid.UUID `json:"plan_id"`
	OldStartDate         string    `json:"old_start_date"`
	NewStartDate         string    `json:"new_start_date"`
	DayOffset            int       `json:"day_offset"`
	SiblingCount         int       `json:"sibling_count"`
	RequiresConfirmation bool      `json:"requires_confirmation"`
}

// ShiftResultResponse reports an applied start date change
type ShiftResultResponse struct {
	Plan         PlanResponse `json:"plan"`
	DayOffset    int          `json:"day_offset"`
	SiblingCount int          `json:"sibling_count"`
	Shifted      bool         `json:"shifted"`
}

// PlanSettlementResponse reports MarkPlanPaid
type PlanSettlementResponse struct {
	Plan          PlanResponse `json:"plan"`
	Settled       int          `json:"settled"`
	LedgerBooked  int          `json:"ledger_booked"`
	AlreadyPaid   int          `json:"already_paid"`
	SkippedCancel int          `json:"skipped_cancelled"`
}

// MissingLedgerEntryResponse is one paid installment without its income entry
type MissingLedgerEntryResponse struct {
	InstallmentID uuid.UUID       `json:"installment_id"`
	ClientID      uuid.UUID       `json:"client_id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   *string         `json:"payment_date"`
	Repaired      bool            `json:"repaired"`
	Error         string          `json:"error,omitempty"`
}

// ReconciliationResponse is the body of the reconciliation endpoints
type ReconciliationResponse struct {
	CheckedAt time.Time                    `json:"checked_at"`
	Clean     bool                         `json:"clean"`
	Missing   []MissingLedgerEntryResponse `json:"missing"`
	Repaired  int                          `json:"repaired"`
	Failed    int                          `json:"failed"`
}

func formatDate(t time.Time) string {
	return t.Format(billing.DateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

// ToInstallmentResponse converts a domain installment
func ToInstallmentResponse(p *billing.PaymentInstallment) InstallmentResponse {
	return InstallmentResponse{
		ID:                p.ID,
		ClientID:          p.ClientID,
		Description:       p.Description,
		Amount:            p.Amount,
		DueDate:           formatDate(p.DueDate),
		PaymentDate:       formatDatePtr(p.PaymentDate),
		PaymentMethod:     p.PaymentMethod,
		EmailTemplate:     p.EmailTemplate,
		Status:            string(p.Status),
		InstallmentNumber: p.InstallmentNumber,
		TotalInstallments: p.TotalInstallments,
		PaidAmount:        p.PaidAmount,
		Version:           p.Version,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ToInstallmentResponses converts a list of installments
func ToInstallmentResponses(items []*billing.PaymentInstallment) []InstallmentResponse {
	result := make([]InstallmentResponse, len(items))
	for i, item := range items {
		result[i] = ToInstallmentResponse(item)
	}
	return result
}

// ToPlanResponse converts a domain plan
func ToPlanResponse(p *billing.RecurringBillingPlan) PlanResponse {
	return PlanResponse{
		ID:            p.ID,
		ClientID:      p.ClientID,
		Description:   p.Description,
		Amount:        p.Amount,
		Installments:  p.Installments,
		DueDay:        p.DueDay,
		StartDate:     formatDate(p.StartDate),
		EndDate:       formatDatePtr(p.EndDate),
		Status:        string(p.Status),
		PaymentMethod: p.PaymentMethod,
		EmailTemplate: p.EmailTemplate,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ToPlanDetailResponse converts a plan with its series
func ToPlanDetailResponse(d *appbilling.PlanDetail) PlanDetailResponse {
	return PlanDetailResponse{
		Plan:         ToPlanResponse(d.Plan),
		Installments: ToInstallmentResponses(d.Installments),
	}
}

// ToCashFlowReportResponse converts a ledger listing
func ToCashFlowReportResponse(r *appbilling.CashFlowReport) CashFlowReportResponse {
	entries := make([]CashFlowEntryResponse, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = CashFlowEntryResponse{
			ID:          e.ID,
			Type:        string(e.Type),
			Amount:      e.Amount,
			Date:        formatDate(e.Date),
			Description: e.Description,
			Category:    e.Category,
			PaymentID:   e.PaymentID,
			CreatedAt:   e.CreatedAt,
		}
	}
	return CashFlowReportResponse{
		Entries: entries,
		Summary: CashFlowSummaryResponse{
			Income:   r.Summary.Income.Amount(),
			Expense:  r.Summary.Expense.Amount(),
			Balance:  r.Summary.Balance.Amount(),
			Currency: string(r.Summary.Income.Currency()),
			Count:    r.Summary.Count,
		},
	}
}

// ToDeleteInstallmentResponse converts a delete result
func ToDeleteInstallmentResponse(r *appbilling.DeleteResult) DeleteInstallmentResponse {
	return DeleteInstallmentResponse{
		InstallmentID:   r.InstallmentID,
		WasInSeries:     r.WasInSeries,
		Renumbered:      r.Renumbered,
		RemainingCount:  r.RemainingCount,
		PlanID:          r.PlanID,
		NeedsResequence: r.NeedsResequence,
		Warnings:        r.Warnings,
	}
}

// ToResequenceResponse converts a repair result
func ToResequenceResponse(r *appbilling.ResequenceResult) ResequenceResponse {
	return ResequenceResponse{
		BaseDescription: r.BaseDescription,
		Total:           r.Total,
		Renumbered:      r.Renumbered,
		PlanID:          r.PlanID,
		WasConsistent:   r.WasConsistent,
	}
}

// ToShiftPreviewResponse converts a schedule preview
func ToShiftPreviewResponse(p *appbilling.ShiftPreview) ShiftPreviewResponse {
	return ShiftPreviewResponse{
		PlanID:               p.PlanID,
		OldStartDate:         formatDate(p.OldStartDate),
		NewStartDate:         formatDate(p.NewStartDate),
		DayOffset:            p.DayOffset,
		SiblingCount:         p.SiblingCount,
		RequiresConfirmation: p.RequiresConfirmation,
	}
}

// ToShiftResultResponse converts an applied start date change
func ToShiftResultResponse(r *appbilling.ShiftResult) ShiftResultResponse {
	return ShiftResultResponse{
		Plan:         ToPlanResponse(r.Plan),
		DayOffset:    r.DayOffset,
		SiblingCount: r.SiblingCount,
		Shifted:      r.Shifted,
	}
}

// ToPlanSettlementResponse converts a whole-plan settlement
func ToPlanSettlementResponse(r *appbilling.PlanSettlementResult) PlanSettlementResponse {
	return PlanSettlementResponse{
		Plan:          ToPlanResponse(r.Plan),
		Settled:       r.Settled,
		LedgerBooked:  r.LedgerBooked,
		AlreadyPaid:   r.AlreadyPaid,
		SkippedCancel: r.SkippedCancel,
	}
}

// ToReconciliationResponse converts a reconciliation report
func ToReconciliationResponse(r *appbilling.ReconciliationReport) ReconciliationResponse {
	missing := make([]MissingLedgerEntryResponse, len(r.Missing))
	for i, m := range r.Missing {
		missing[i] = MissingLedgerEntryResponse{
			InstallmentID: m.InstallmentID,
			ClientID:      m.ClientID,
			Description:   m.Description,
			Amount:        m.Amount,
			PaymentDate:   formatDatePtr(m.PaymentDate),
			Repaired:      m.Repaired,
			Error:         m.Error,
		}
	}
	return ReconciliationResponse{
		CheckedAt: r.CheckedAt,
		Clean:     r.IsClean(),
		Missing:   missing,
		Repaired:  r.Repaired,
		Failed:    r.Failed,
	}
}
