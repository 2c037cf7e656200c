package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	bankingapp "github.com/sistemita/backend/internal/application/banking"
	"github.com/sistemita/backend/internal/domain/banking"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/infrastructure/scheduler"
	"github.com/sistemita/backend/internal/infrastructure/statement"
	"github.com/sistemita/backend/internal/interfaces/http/dto"
)

const (
	defaultUnreconciledLimit = 100
	maxUnreconciledLimit     = 1000
)

// BankingHandler imports bank statements and runs the reconciliation sweep
type BankingHandler struct {
	BaseHandler
	importService         *bankingapp.StatementImportService
	reconciliationService *bankingapp.ReconciliationService
	reconcileEnabled      bool
	scheduler             ReconciliationScheduler
}

// ReconciliationScheduler is the daily sweep as seen by the API
type ReconciliationScheduler interface {
	Status() scheduler.Status
	TriggerManualRun() error
}

// NewBankingHandler creates a new BankingHandler. When reconcileEnabled is
// false POST /bank/reconciliations answers INVALID_STATE.
func NewBankingHandler(
	importService *bankingapp.StatementImportService,
	reconciliationService *bankingapp.ReconciliationService,
	reconcileEnabled bool,
) *BankingHandler {
	return &BankingHandler{
		importService:         importService,
		reconciliationService: reconciliationService,
		reconcileEnabled:      reconcileEnabled,
	}
}

// MovementResponse represents a bank movement in API responses
type MovementResponse struct {
	ID      uuid.UUID       `json:"id"`
	Date    time.Time       `json:"date"`
	Code    string          `json:"code"`
	Concept string          `json:"concept"`
	Amount  decimal.Decimal `json:"amount"`
	Balance decimal.Decimal `json:"balance"`
	LineNo  int             `json:"line_no"`
}

// WithScheduler exposes the scheduled sweep under /bank/reconciliations/schedule
func (h *BankingHandler) WithScheduler(s ReconciliationScheduler) *BankingHandler {
	h.scheduler = s
	return h
}

func toMovementResponse(m *banking.BankMovement) MovementResponse {
	return MovementResponse{
		ID:      m.ID,
		Date:    m.Date,
		Code:    m.Code,
		Concept: m.Concept,
		Amount:  m.Amount,
		Balance: m.Balance,
		LineNo:  m.LineNo,
	}
}

// ImportStatement godoc
// @ID           importBankStatement
// @Summary      Import a bank statement
// @Description  Stores the movements of an uploaded statement. The format is guessed from the file name when empty.
// @Tags         banking
// @Accept       multipart/form-data
// @Produce      json
// @Param        Idempotency-Key header string false "Replay protection key"
// @Param        file formData file true "Statement file"
// @Param        format formData string false "File format" Enums(text, xlsx)
// @Param        encoding formData string false "Text encoding" Enums(auto, utf8, windows1252)
// @Param        sheet formData string false "Worksheet name for xlsx files"
// @Success      201 {object} APIResponse[bankingapp.ImportReport]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /bank/statements [post]
func (h *BankingHandler) ImportStatement(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A statement file is required in the 'file' field")
		return
	}

	format := statement.FormatFromFilename(fileHeader.Filename)
	if raw := c.PostForm("format"); raw != "" {
		if format, err = statement.ParseFormat(raw); err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeUnsupportedMedia, err.Error())
			return
		}
	}
	// empty keeps the configured default encoding
	var encoding statement.Encoding
	if raw := c.PostForm("encoding"); raw != "" {
		if encoding, err = statement.ParseEncoding(raw); err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeUnsupportedMedia, err.Error())
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	report, err := h.importService.Import(c.Request.Context(), file, bankingapp.ImportRequest{
		FileName: fileHeader.Filename,
		Format:   format,
		Encoding: encoding,
		Sheet:    c.PostForm("sheet"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, report)
}

// ListUnreconciled godoc
// @ID           listUnreconciledMovements
// @Summary      List movements waiting for a settlement
// @Description  The meta total counts all of them, not only the returned page
// @Tags         banking
// @Produce      json
// @Param        limit query int false "Maximum movements returned" default(100) maximum(1000)
// @Success      200 {object} APIResponse[[]MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /bank/movements/unreconciled [get]
func (h *BankingHandler) ListUnreconciled(c *gin.Context) {
	limit := defaultUnreconciledLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxUnreconciledLimit {
			h.BadRequest(c, "limit must be between 1 and "+strconv.Itoa(maxUnreconciledLimit))
			return
		}
		limit = n
	}

	movements, total, err := h.reconciliationService.ListUnreconciled(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	items := make([]MovementResponse, len(movements))
	for i, m := range movements {
		items[i] = toMovementResponse(m)
	}
	h.SuccessWithMeta(c, items, total, 0, 0)
}

// Reconcile godoc
// @ID           runReconciliation
// @Summary      Run a reconciliation sweep
// @Description  Settles every unreconciled movement whose code has a rule and returns the run report
// @Tags         banking
// @Produce      json
// @Param        Idempotency-Key header string false "Replay protection key"
// @Success      200 {object} APIResponse[bankingapp.RunReport]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /bank/reconciliations [post]
func (h *BankingHandler) Reconcile(c *gin.Context) {
	if !h.reconcileEnabled {
		h.HandleError(c, shared.NewDomainError(shared.CodeInvalidState, "Reconciliation is disabled"))
		return
	}

	report, err := h.reconciliationService.Run(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// ScheduleStatus godoc
// @ID           getReconciliationSchedule
// @Summary      Scheduled sweep status
// @Description  Schedule, last and next run of the daily reconciliation sweep
// @Tags         banking
// @Produce      json
// @Success      200 {object} APIResponse[scheduler.Status]
// @Failure      422 {object} ErrorResponse
// @Router       /bank/reconciliations/schedule [get]
func (h *BankingHandler) ScheduleStatus(c *gin.Context) {
	if h.scheduler == nil {
		h.HandleError(c, shared.NewDomainError(shared.CodeInvalidState, "Scheduled reconciliation is disabled"))
		return
	}
	h.Success(c, h.scheduler.Status())
}

// TriggerScheduledRun godoc
// @ID           triggerReconciliationSchedule
// @Summary      Start the scheduled sweep now
// @Description  The sweep runs in the background; poll the schedule status for its report
// @Tags         banking
// @Produce      json
// @Success      202 {object} APIResponse[scheduler.Status]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /bank/reconciliations/schedule/run [post]
func (h *BankingHandler) TriggerScheduledRun(c *gin.Context) {
	if h.scheduler == nil {
		h.HandleError(c, shared.NewDomainError(shared.CodeInvalidState, "Scheduled reconciliation is disabled"))
		return
	}

	err := h.scheduler.TriggerManualRun()
	switch {
	case errors.Is(err, scheduler.ErrRunInProgress):
		h.HandleError(c, shared.NewDomainError(shared.CodeConcurrencyConflict, err.Error()))
		return
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		h.HandleError(c, shared.NewDomainError(shared.CodeInvalidState, err.Error()))
		return
	case err != nil:
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(h.scheduler.Status()))
}
