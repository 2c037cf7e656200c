package handler

import (
	"github.com/gin-gonic/gin"
	invoicingapp "github.com/sistemita/backend/internal/application/invoicing"
)

// ImputationHandler applies, changes and reverses credit note imputations
type ImputationHandler struct {
	BaseHandler
	imputationService *invoicingapp.ImputationService
}

// NewImputationHandler creates a new ImputationHandler
func NewImputationHandler(imputationService *invoicingapp.ImputationService) *ImputationHandler {
	return &ImputationHandler{imputationService: imputationService}
}

// Create godoc
// @ID           createImputation
// @Summary      Apply a credit note to invoices
// @Description  Invoices are consumed in the given order until the credit note is used up
// @Tags         imputations
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replay protection key"
// @Param        request body invoicingapp.CreateImputationRequest true "Credit note and invoices"
// @Success      201 {object} APIResponse[invoicingapp.ImputationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /imputations [post]
func (h *ImputationHandler) Create(c *gin.Context) {
	var req invoicingapp.CreateImputationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	imputation, err := h.imputationService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, imputation)
}

// GetByID godoc
// @ID           getImputation
// @Summary      Get an imputation with its lines
// @Tags         imputations
// @Produce      json
// @Param        id path string true "Imputation ID" format(uuid)
// @Success      200 {object} APIResponse[invoicingapp.ImputationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /imputations/{id} [get]
func (h *ImputationHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	imputation, err := h.imputationService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, imputation)
}

// Update godoc
// @ID           updateImputation
// @Summary      Add, replace or remove invoices of an imputation
// @Description  Actions run in order against one running credit note balance
// @Tags         imputations
// @Accept       json
// @Produce      json
// @Param        id path string true "Imputation ID" format(uuid)
// @Param        request body invoicingapp.UpdateImputationRequest true "Ordered actions"
// @Success      200 {object} APIResponse[invoicingapp.ImputationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /imputations/{id} [put]
func (h *ImputationHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req invoicingapp.UpdateImputationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	imputation, err := h.imputationService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, imputation)
}

// Reverse godoc
// @ID           reverseImputation
// @Summary      Undo an imputation
// @Description  Returns every applied amount to its invoice and to the credit note
// @Tags         imputations
// @Produce      json
// @Param        id path string true "Imputation ID" format(uuid)
// @Success      200 {object} APIResponse[invoicingapp.ReversalResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /imputations/{id} [delete]
func (h *ImputationHandler) Reverse(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	reversal, err := h.imputationService.Reverse(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reversal)
}
