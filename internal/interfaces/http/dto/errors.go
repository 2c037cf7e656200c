package dto

import (
	"net/http"

	"github.com/sistemita/backend/internal/domain/shared"
)

// Codes produced by the HTTP layer itself. Domain codes from the shared
// package are passed through unchanged.
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeValidation       = shared.CodeValidation
	ErrCodeNotFound         = shared.CodeNotFound
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
	ErrCodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	ErrCodeUnsupportedMedia = "UNSUPPORTED_FORMAT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidJSON:      http.StatusBadRequest,
	ErrCodeDuplicateRequest: http.StatusConflict,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeUnsupportedMedia: http.StatusBadRequest,

	// Malformed values -> 400
	shared.CodeValidation:    http.StatusBadRequest,
	shared.CodeInvalidInput:  http.StatusBadRequest,
	shared.CodeInvalidTaxID:  http.StatusBadRequest,
	shared.CodeInvalidAmount: http.StatusBadRequest,

	// Well-formed but against a business rule -> 422
	shared.CodeInvalidCurrency:    http.StatusUnprocessableEntity,
	shared.CodeOwnerMismatch:      http.StatusUnprocessableEntity,
	shared.CodeNotCreditNote:      http.StatusUnprocessableEntity,
	shared.CodeInvoiceAlreadyPaid: http.StatusUnprocessableEntity,
	shared.CodeInvalidState:       http.StatusUnprocessableEntity,
	shared.CodeDuplicateInvoice:   http.StatusUnprocessableEntity,

	shared.CodeNotFound:            http.StatusNotFound,
	shared.CodeAlreadyExists:       http.StatusConflict,
	shared.CodeCreditNoteInUse:     http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown validation-family codes map to 422, anything else to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if shared.IsValidation(shared.NewDomainError(code, "")) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
