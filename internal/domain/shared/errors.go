package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so wrapped copies of the
// common errors below match errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a domain error in the validation family.
// code should be one of the validation codes listed in validationCodes.
func NewValidationError(code, message string) *DomainError {
	if _, ok := validationCodes[code]; !ok {
		code = CodeValidation
	}
	return NewDomainError(code, message)
}

// NewNotFoundError creates a NOT_FOUND error naming the missing resource
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

// Error codes
const (
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidCurrency     = "INVALID_CURRENCY"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeInvalidTaxID        = "INVALID_TAX_ID"
	CodeDuplicateInvoice    = "DUPLICATE_INVOICE"
	CodeOwnerMismatch       = "OWNER_MISMATCH"
	CodeNotCreditNote       = "NOT_CREDIT_NOTE"
	CodeInvoiceAlreadyPaid  = "INVOICE_ALREADY_PAID"
	CodeCreditNoteInUse     = "CREDIT_NOTE_IN_USE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeInvalidState        = "INVALID_STATE"
)

var validationCodes = map[string]struct{}{
	CodeValidation:         {},
	CodeInvalidInput:       {},
	CodeInvalidCurrency:    {},
	CodeInvalidAmount:      {},
	CodeInvalidTaxID:       {},
	CodeDuplicateInvoice:   {},
	CodeOwnerMismatch:      {},
	CodeNotCreditNote:      {},
	CodeInvoiceAlreadyPaid: {},
	CodeCreditNoteInUse:    {},
	CodeInvalidState:       {},
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
)

// IsNotFound reports whether err is a NOT_FOUND domain error
func IsNotFound(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == CodeNotFound
}

// IsValidation reports whether err belongs to the validation family
func IsValidation(err error) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	_, ok := validationCodes[de.Code]
	return ok
}
