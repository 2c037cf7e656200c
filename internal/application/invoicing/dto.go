package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/invoicing"
)

// CreateInvoiceRequest registers an invoice or credit note
type CreateInvoiceRequest struct {
	Side     string          `json:"side" binding:"required,oneof=CLIENT PROVIDER"`
	OwnerID  uuid.UUID       `json:"owner_id" binding:"required"`
	Type     string          `json:"type" binding:"required"`
	Number   string          `json:"number" binding:"required,max=50"`
	Date     time.Time       `json:"date" binding:"required"`
	Currency string          `json:"currency" binding:"required,len=3"`
	Net      decimal.Decimal `json:"net" binding:"decimal_gte0"`
	TaxRate  decimal.Decimal `json:"tax_rate" binding:"decimal_gte0"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	Side          string          `json:"side"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Type          string          `json:"type"`
	Number        string          `json:"number"`
	Date          time.Time       `json:"date"`
	Currency      string          `json:"currency"`
	Net           decimal.Decimal `json:"net"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Total         decimal.Decimal `json:"total"`
	AmountImputed decimal.Decimal `json:"amount_imputed"`
	Paid          bool            `json:"paid"`
	CreditNote    bool            `json:"credit_note"`
	Version       int             `json:"version"`
}

// OutstandingFilter selects the candidate invoices of an owner
type OutstandingFilter struct {
	Side     string
	OwnerID  uuid.UUID
	Currency string
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	Side     string
	OwnerID  *uuid.UUID
	Paid     *bool
	Page     int
	PageSize int
}

// CreateImputationRequest applies a credit note to invoices in the given order.
// Side and OwnerID are optional; when present they must match the credit note.
type CreateImputationRequest struct {
	Side         string      `json:"side,omitempty"`
	OwnerID      *uuid.UUID  `json:"owner_id,omitempty"`
	Date         time.Time   `json:"date"`
	CreditNoteID uuid.UUID   `json:"credit_note_id" binding:"required"`
	InvoiceIDs   []uuid.UUID `json:"invoice_ids" binding:"required,min=1,dive,required"`
}

// ImputationChangeRequest is one change of an UpdateImputationRequest
type ImputationChangeRequest struct {
	Action        string     `json:"action" binding:"required,oneof=add update delete"`
	InvoiceID     uuid.UUID  `json:"invoice_id" binding:"required"`
	ReplacementID *uuid.UUID `json:"replacement_id,omitempty"`
}

// UpdateImputationRequest adds, replaces or removes invoices of an imputation
type UpdateImputationRequest struct {
	Actions []ImputationChangeRequest `json:"actions" binding:"required,min=1,dive"`
}

// ImputationLineResponse represents one imputed invoice
type ImputationLineResponse struct {
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	Position     int             `json:"position"`
	InvoiceTotal decimal.Decimal `json:"invoice_total"`
	Amount       decimal.Decimal `json:"amount"`
}

// ImputationResponse represents an imputation in API responses
type ImputationResponse struct {
	ID                  uuid.UUID                `json:"id"`
	Side                string                   `json:"side"`
	OwnerID             uuid.UUID                `json:"owner_id"`
	Date                time.Time                `json:"date"`
	CreditNoteID        uuid.UUID                `json:"credit_note_id"`
	Currency            string                   `json:"currency"`
	Lines               []ImputationLineResponse `json:"lines"`
	InvoicesTotal       decimal.Decimal          `json:"invoices_total"`
	CreditNoteAmount    decimal.Decimal          `json:"credit_note_amount"`
	NetTotal            decimal.Decimal          `json:"net_total"`
	CreditNoteRemaining decimal.Decimal          `json:"credit_note_remaining"`
	Version             int                      `json:"version"`
}

// ReversalResponse describes an undone imputation
type ReversalResponse struct {
	ImputationID        uuid.UUID       `json:"imputation_id"`
	CreditNoteID        uuid.UUID       `json:"credit_note_id"`
	Returned            decimal.Decimal `json:"returned"`
	CreditNoteRemaining decimal.Decimal `json:"credit_note_remaining"`
	RestoredInvoices    []uuid.UUID     `json:"restored_invoices"`
}

// ToInvoiceResponse converts a domain invoice to a response
func ToInvoiceResponse(inv *invoicing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		Side:          string(inv.Side),
		OwnerID:       inv.OwnerID,
		Type:          string(inv.Type),
		Number:        inv.Number,
		Date:          inv.Date,
		Currency:      string(inv.Currency),
		Net:           inv.Net,
		TaxRate:       inv.TaxRate,
		Total:         inv.Total,
		AmountImputed: inv.AmountImputed,
		Paid:          inv.Paid,
		CreditNote:    inv.IsCreditNote(),
		Version:       inv.Version,
	}
}

// ToImputationResponse converts a domain imputation to a response
func ToImputationResponse(imp *invoicing.Imputation, creditNote *invoicing.Invoice) ImputationResponse {
	lines := make([]ImputationLineResponse, len(imp.Lines))
	for i, l := range imp.Lines {
		lines[i] = ImputationLineResponse{
			InvoiceID:    l.InvoiceID,
			Position:     l.Position,
			InvoiceTotal: l.InvoiceTotal,
			Amount:       l.Amount,
		}
	}
	return ImputationResponse{
		ID:                  imp.ID,
		Side:                string(imp.Side),
		OwnerID:             imp.OwnerID,
		Date:                imp.Date,
		CreditNoteID:        imp.CreditNoteID,
		Currency:            string(imp.Currency),
		Lines:               lines,
		InvoicesTotal:       imp.InvoicesTotal,
		CreditNoteAmount:    imp.CreditNoteAmount,
		NetTotal:            imp.NetTotal,
		CreditNoteRemaining: creditNote.Total,
		Version:             imp.Version,
	}
}
