package handler

import (
	appbilling "github.com/backoffice/ledger/internal/application/billing"
	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/interfaces/http/dto"
	"github.com/backoffice/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PlanHandler handles recurring billing plan endpoints
type PlanHandler struct {
	BaseHandler
	plans   *appbilling.PlanService
	shifter *appbilling.ScheduleShifter
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(services *appbilling.Services) *PlanHandler {
	return &PlanHandler{
		plans:   services.Plans,
		shifter: services.Shifter,
	}
}

// Create godoc
// @Summary      Create a recurring billing plan and its installment series
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        request body dto.CreatePlanRequest true "Plan"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /plans [post]
func (h *PlanHandler) Create(c *gin.Context) {
	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	input, err := toCreatePlanInput(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	detail, err := h.plans.CreatePlan(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToPlanDetailResponse(detail))
}

func toCreatePlanInput(req dto.CreatePlanRequest) (appbilling.CreatePlanInput, error) {
	start, err := parseOptionalDate(&req.StartDate)
	if err != nil {
		return appbilling.CreatePlanInput{}, err
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return appbilling.CreatePlanInput{}, err
	}
	return appbilling.CreatePlanInput{
		ClientID:      uuid.MustParse(req.ClientID),
		Description:   req.Description,
		Amount:        req.Amount,
		Installments:  req.Installments,
		DueDay:        req.DueDay,
		StartDate:     *start,
		EndDate:       end,
		PaymentMethod: req.PaymentMethod,
		EmailTemplate: req.EmailTemplate,
	}, nil
}

// GetByID godoc
// @Summary      Get a plan with its current series
// @Tags         plans
// @Produce      json
// @Param        id path string true "Plan ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /plans/{id} [get]
func (h *PlanHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	detail, err := h.plans.GetPlan(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToPlanDetailResponse(detail))
}

// Cancel cancels a plan and its unpaid installments
func (h *PlanHandler) Cancel(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	detail, err := h.plans.CancelPlan(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToPlanDetailResponse(detail))
}

// MarkPaid settles every open installment of the plan
func (h *PlanHandler) MarkPaid(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	paymentDate, err := billing.ParseDate(req.PaymentDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.plans.MarkPlanPaid(c.Request.Context(), id, paymentDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToPlanSettlementResponse(result))
}

// PreviewStartDate reports how a start date change would move the series
func (h *PlanHandler) PreviewStartDate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.StartDateChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	newStart, err := parseOptionalDate(&req.NewStartDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	preview, err := h.shifter.PreviewStartDateChange(c.Request.Context(), id, *newStart)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToShiftPreviewResponse(preview))
}

// ChangeStartDate godoc
// @Summary      Change a plan's start date
// @Description  Moves the due dates of the series by the same day offset when confirm_shift is true.
// @Description  old_start_date, when sent, must match the stored start date (409 otherwise).
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        id path string true "Plan ID" format(uuid)
// @Param        request body dto.StartDateChangeRequest true "Start date change"
// @Success      200 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /plans/{id}/start-date [put]
func (h *PlanHandler) ChangeStartDate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.StartDateChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	newStart, err := parseOptionalDate(&req.NewStartDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	oldStart, err := parseOptionalDate(req.OldStartDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.shifter.ApplyStartDateChange(c.Request.Context(), appbilling.ApplyStartDateInput{
		PlanID:       id,
		OldStartDate: oldStart,
		NewStartDate: *newStart,
		ConfirmShift: req.ConfirmShift,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToShiftResultResponse(result))
}
