package invoicing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeInvoice    = "Invoice"
	AggregateTypeImputation = "Imputation"
)

// Event type constants
const (
	EventTypeInvoiceRegistered  = "InvoiceRegistered"
	EventTypeImputationApplied  = "ImputationApplied"
	EventTypeImputationUpdated  = "ImputationUpdated"
	EventTypeImputationReversed = "ImputationReversed"
)

// InvoiceRegisteredEvent is published when an invoice or credit note is registered
type InvoiceRegisteredEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Side      Side            `json:"side"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Type      InvoiceType     `json:"type"`
	Number    string          `json:"number"`
	Total     decimal.Decimal `json:"total"`
}

// NewInvoiceRegisteredEvent creates a new InvoiceRegisteredEvent
func NewInvoiceRegisteredEvent(inv *Invoice) *InvoiceRegisteredEvent {
	return &InvoiceRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceRegistered, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		Side:            inv.Side,
		OwnerID:         inv.OwnerID,
		Type:            inv.Type,
		Number:          inv.Number,
		Total:           inv.Total,
	}
}

// ImputationAppliedEvent is published when a credit note is first applied
type ImputationAppliedEvent struct {
	shared.BaseDomainEvent
	ImputationID uuid.UUID       `json:"imputation_id"`
	CreditNoteID uuid.UUID       `json:"credit_note_id"`
	InvoiceIDs   []uuid.UUID     `json:"invoice_ids"`
	Applied      decimal.Decimal `json:"applied"`
	Remaining    decimal.Decimal `json:"remaining"`
}

// NewImputationAppliedEvent creates a new ImputationAppliedEvent
func NewImputationAppliedEvent(imp *Imputation, result *AllocationResult) *ImputationAppliedEvent {
	return &ImputationAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeImputationApplied, AggregateTypeImputation, imp.ID),
		ImputationID:    imp.ID,
		CreditNoteID:    imp.CreditNoteID,
		InvoiceIDs:      imp.InvoiceIDs(),
		Applied:         result.Applied,
		Remaining:       result.Remaining,
	}
}

// ImputationUpdatedEvent is published after invoices are added, replaced or removed
type ImputationUpdatedEvent struct {
	shared.BaseDomainEvent
	ImputationID uuid.UUID       `json:"imputation_id"`
	InvoiceIDs   []uuid.UUID     `json:"invoice_ids"`
	Applied      decimal.Decimal `json:"applied"` // may be negative when lines were removed
	Remaining    decimal.Decimal `json:"remaining"`
}

// NewImputationUpdatedEvent creates a new ImputationUpdatedEvent
func NewImputationUpdatedEvent(imp *Imputation, result *AllocationResult) *ImputationUpdatedEvent {
	return &ImputationUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeImputationUpdated, AggregateTypeImputation, imp.ID),
		ImputationID:    imp.ID,
		InvoiceIDs:      imp.InvoiceIDs(),
		Applied:         result.Applied,
		Remaining:       result.Remaining,
	}
}

// ImputationReversedEvent is published when an imputation is undone
type ImputationReversedEvent struct {
	shared.BaseDomainEvent
	ImputationID uuid.UUID       `json:"imputation_id"`
	CreditNoteID uuid.UUID       `json:"credit_note_id"`
	Returned     decimal.Decimal `json:"returned"`
}

// NewImputationReversedEvent creates a new ImputationReversedEvent
func NewImputationReversedEvent(imp *Imputation, returned decimal.Decimal) *ImputationReversedEvent {
	return &ImputationReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeImputationReversed, AggregateTypeImputation, imp.ID),
		ImputationID:    imp.ID,
		CreditNoteID:    imp.CreditNoteID,
		Returned:        returned,
	}
}
