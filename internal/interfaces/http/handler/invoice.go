package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	invoicingapp "github.com/sistemita/backend/internal/application/invoicing"
)

// InvoiceHandler handles invoice and credit note endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *invoicingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *invoicingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Create godoc
// @ID           createInvoice
// @Summary      Register an invoice or credit note
// @Description  Stores an invoice of a client or provider. Total is net plus IVA.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replay protection key"
// @Param        request body invoicingapp.CreateInvoiceRequest true "Invoice data"
// @Success      201 {object} APIResponse[invoicingapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req invoicingapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetByID godoc
// @ID           getInvoice
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[invoicingapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

type outstandingQuery struct {
	Side     string `form:"side" binding:"required,oneof=CLIENT PROVIDER"`
	OwnerID  string `form:"owner_id" binding:"required,uuid"`
	Currency string `form:"currency" binding:"omitempty,len=3"`
}

// ListOutstanding godoc
// @ID           listOutstandingInvoices
// @Summary      List unpaid invoices of an owner
// @Description  Oldest first, the order the allocator consumes them in
// @Tags         invoices
// @Produce      json
// @Param        side query string true "Ledger side" Enums(CLIENT, PROVIDER)
// @Param        owner_id query string true "Client or provider ID" format(uuid)
// @Param        currency query string false "ISO currency code"
// @Success      200 {object} APIResponse[[]invoicingapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/outstanding [get]
func (h *InvoiceHandler) ListOutstanding(c *gin.Context) {
	var q outstandingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	invoices, err := h.invoiceService.ListOutstanding(c.Request.Context(), invoicingapp.OutstandingFilter{
		Side:     q.Side,
		OwnerID:  uuid.MustParse(q.OwnerID),
		Currency: q.Currency,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, int64(len(invoices)), 0, 0)
}

type listQuery struct {
	Side     string `form:"side" binding:"omitempty,oneof=CLIENT PROVIDER"`
	OwnerID  string `form:"owner_id" binding:"omitempty,uuid"`
	Paid     *bool  `form:"paid"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        side query string false "Ledger side" Enums(CLIENT, PROVIDER)
// @Param        owner_id query string false "Client or provider ID" format(uuid)
// @Param        paid query bool false "Paid flag"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]invoicingapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	filter := invoicingapp.InvoiceListFilter{
		Side:     q.Side,
		Paid:     q.Paid,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if q.OwnerID != "" {
		ownerID := uuid.MustParse(q.OwnerID)
		filter.OwnerID = &ownerID
	}

	page, err := h.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
