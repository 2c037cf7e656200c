package statement

import (
	"errors"
	"fmt"
	"strings"
)

// Row error codes
const (
	ErrCodeRequiredField = "ERR_STATEMENT_REQUIRED_FIELD"
	ErrCodeInvalidDate   = "ERR_STATEMENT_INVALID_DATE"
	ErrCodeInvalidAmount = "ERR_STATEMENT_INVALID_AMOUNT"
	ErrCodeMalformedRow  = "ERR_STATEMENT_MALFORMED_ROW"
	ErrCodeInvalidRow    = "ERR_STATEMENT_INVALID_ROW"
)

// Common statement errors
var (
	// ErrEmptyFile is returned when the statement has no content
	ErrEmptyFile = errors.New("statement file is empty")

	// ErrInvalidEncoding is returned when a file declared UTF-8 is not
	ErrInvalidEncoding = errors.New("statement file is not valid UTF-8")

	// ErrMissingHeader is returned when the statement has no header row
	ErrMissingHeader = errors.New("statement file missing header row")

	// ErrInvalidFile is returned when a spreadsheet cannot be opened
	ErrInvalidFile = errors.New("statement file cannot be read")

	// ErrUnsupportedFormat is returned for unknown file formats
	ErrUnsupportedFormat = errors.New("unsupported statement format")

	// ErrUnsupportedEncoding is returned for unknown text encodings
	ErrUnsupportedEncoding = errors.New("unsupported statement encoding")
)

// MissingColumnsError lists required columns absent from the header
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "statement file missing columns: " + strings.Join(e.Columns, ", ")
}

// RowError represents an error in a specific statement line
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection keeps the first maxErrors row errors and counts the rest
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a new ErrorCollection with a maximum error limit
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]RowError, 0),
		maxErrors: maxErrors,
	}
}

// Add adds an error to the collection
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddError adds an error for a row and column
func (ec *ErrorCollection) AddError(row int, column, code, message, value string) {
	ec.Add(RowError{Row: row, Column: column, Code: code, Message: message, Value: value})
}

// Errors returns the kept errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount returns the number of errors added, kept or not
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors reports whether any error was added
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated reports whether errors were dropped
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > len(ec.errors)
}
