package handler

import (
	appbilling "github.com/backoffice/ledger/internal/application/billing"
	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/interfaces/http/dto"
	"github.com/backoffice/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CashFlowHandler handles ledger and reconciliation endpoints
type CashFlowHandler struct {
	BaseHandler
	query          *appbilling.LedgerQueryService
	reconciliation *appbilling.ReconciliationService
}

// NewCashFlowHandler creates a new CashFlowHandler
func NewCashFlowHandler(services *appbilling.Services) *CashFlowHandler {
	return &CashFlowHandler{
		query:          services.Query,
		reconciliation: services.Reconciliation,
	}
}

// List godoc
// @Summary      List cash flow entries with totals
// @Tags         cash-flow
// @Produce      json
// @Param        payment_id query string false "Installment or plan ID" format(uuid)
// @Param        type       query string false "income or expense"
// @Param        from       query string false "Lower date bound (YYYY-MM-DD)"
// @Param        to         query string false "Upper date bound (YYYY-MM-DD)"
// @Success      200 {object} dto.Response
// @Router       /cash-flow [get]
func (h *CashFlowHandler) List(c *gin.Context) {
	var q dto.ListCashFlowQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := billing.CashFlowFilter{Filter: toFilter(q.ListRequest), Category: q.Category}
	if q.PaymentID != "" {
		paymentID := uuid.MustParse(q.PaymentID)
		filter.PaymentID = &paymentID
	}
	if q.Type != "" {
		t := billing.CashFlowType(q.Type)
		filter.Type = &t
	}
	var err error
	if filter.From, err = parseOptionalDate(&q.From); err != nil {
		h.HandleError(c, err)
		return
	}
	if filter.To, err = parseOptionalDate(&q.To); err != nil {
		h.HandleError(c, err)
		return
	}

	report, err := h.query.ListCashFlow(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.ToCashFlowReportResponse(report), filter.Page, filter.PageSize, len(report.Entries))
}

// Reconcile lists paid installments that have no income entry
func (h *CashFlowHandler) Reconcile(c *gin.Context) {
	h.reconcile(c, false)
}

// Repair books the missing income entries found by a reconciliation
func (h *CashFlowHandler) Repair(c *gin.Context) {
	h.reconcile(c, true)
}

func (h *CashFlowHandler) reconcile(c *gin.Context, repair bool) {
	report, err := h.reconciliation.Reconcile(c.Request.Context(), repair)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToReconciliationResponse(report))
}
