package handler

import (
	"net/http"

	appbilling "github.com/backoffice/ledger/internal/application/billing"
	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/interfaces/http/dto"
	"github.com/backoffice/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InstallmentHandler handles payment installment endpoints
type InstallmentHandler struct {
	BaseHandler
	query      *appbilling.LedgerQueryService
	sequencer  *appbilling.InstallmentSequencer
	status     *appbilling.PaymentStatusService
	duplicator *appbilling.Duplicator
}

// NewInstallmentHandler creates a new InstallmentHandler
func NewInstallmentHandler(services *appbilling.Services) *InstallmentHandler {
	return &InstallmentHandler{
		query:      services.Query,
		sequencer:  services.Sequencer,
		status:     services.Status,
		duplicator: services.Duplicator,
	}
}

// List godoc
// @Summary      List installments
// @Tags         installments
// @Produce      json
// @Param        client_id query string false "Client ID" format(uuid)
// @Param        status    query []string false "Statuses"
// @Param        due_from  query string false "Due date lower bound (YYYY-MM-DD)"
// @Param        due_to    query string false "Due date upper bound (YYYY-MM-DD)"
// @Success      200 {object} dto.Response
// @Router       /installments [get]
func (h *InstallmentHandler) List(c *gin.Context) {
	var q dto.ListInstallmentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := billing.InstallmentFilter{Filter: toFilter(q.ListRequest)}
	if q.ClientID != "" {
		clientID := uuid.MustParse(q.ClientID)
		filter.ClientID = &clientID
	}
	for _, s := range q.Status {
		filter.Statuses = append(filter.Statuses, billing.PaymentStatus(s))
	}
	var err error
	if filter.DueFrom, err = parseOptionalDate(&q.DueFrom); err != nil {
		h.HandleError(c, err)
		return
	}
	if filter.DueTo, err = parseOptionalDate(&q.DueTo); err != nil {
		h.HandleError(c, err)
		return
	}

	items, err := h.query.ListInstallments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.ToInstallmentResponses(items), filter.Page, filter.PageSize, len(items))
}

// GetByID returns one installment
func (h *InstallmentHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	inst, err := h.query.GetInstallment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToInstallmentResponse(inst))
}

// Update godoc
// @Summary      Edit an installment
// @Description  Partial update. Moving the status into paid books the income entry once.
// @Tags         installments
// @Accept       json
// @Produce      json
// @Param        id path string true "Installment ID" format(uuid)
// @Param        request body dto.UpdateInstallmentRequest true "Fields to change"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /installments/{id} [patch]
func (h *InstallmentHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	patch, err := toInstallmentPatch(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.status.UpdateInstallment(c.Request.Context(), id, patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.InstallmentChangeResponse{
		Installment:  dto.ToInstallmentResponse(result.Installment),
		LedgerBooked: result.LedgerBooked,
	})
}

func toInstallmentPatch(req dto.UpdateInstallmentRequest) (billing.InstallmentPatch, error) {
	patch := billing.InstallmentPatch{
		Description:   req.Description,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		EmailTemplate: req.EmailTemplate,
		PaidAmount:    req.PaidAmount,
	}
	var err error
	if patch.DueDate, err = parseOptionalDate(req.DueDate); err != nil {
		return patch, err
	}
	if patch.PaymentDate, err = parseOptionalDate(req.PaymentDate); err != nil {
		return patch, err
	}
	if req.Status != nil {
		status := billing.PaymentStatus(*req.Status)
		patch.Status = &status
	}
	return patch, nil
}

// Delete godoc
// @Summary      Delete an installment
// @Description  Siblings of a series are renumbered and the owning plan's count is updated.
// @Tags         installments
// @Produce      json
// @Param        id path string true "Installment ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /installments/{id} [delete]
func (h *InstallmentHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	result, err := h.sequencer.DeleteInstallment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToDeleteInstallmentResponse(result))
}

// MarkPaid settles one installment and books its income entry
func (h *InstallmentHandler) MarkPaid(c *gin.Context) {
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

	result, err := h.status.MarkPaid(c.Request.Context(), id, paymentDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.InstallmentChangeResponse{
		Installment:  dto.ToInstallmentResponse(result.Installment),
		LedgerBooked: result.LedgerBooked,
	})
}

// Duplicate copies an installment as a new standalone pending record
func (h *InstallmentHandler) Duplicate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	copied, err := h.duplicator.Duplicate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.ToInstallmentResponse(copied)))
}

// Resequence repairs the numbering of the series the installment belongs to
func (h *InstallmentHandler) Resequence(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	result, err := h.sequencer.ResequenceSeries(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToResequenceResponse(result))
}
