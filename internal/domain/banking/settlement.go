package banking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/shared"
)

// SettlementKind identifies what a reconciled movement was
type SettlementKind string

const (
	SettlementCheckTax          SettlementKind = "CHECK_TAX"          // impuesto a los débitos y créditos
	SettlementVAT               SettlementKind = "VAT"                // IVA tasa general
	SettlementConsultantPayment SettlementKind = "CONSULTANT_PAYMENT" // pago confirmado a consultor
	SettlementClientCollection  SettlementKind = "CLIENT_COLLECTION"  // cobro de cliente
)

// IsValid checks if the kind is a known value
func (k SettlementKind) IsValid() bool {
	switch k {
	case SettlementCheckTax, SettlementVAT, SettlementConsultantPayment, SettlementClientCollection:
		return true
	}
	return false
}

// Settlement reconciles exactly one bank movement
type Settlement struct {
	shared.BaseAggregateRoot
	Kind         SettlementKind  `json:"kind"`
	MovementID   uuid.UUID       `json:"movement_id"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	ConsultantID *uuid.UUID      `json:"consultant_id,omitempty"`
	DeliveryRef  string          `json:"delivery_ref,omitempty"`
	ClientID     *uuid.UUID      `json:"client_id,omitempty"`
	InvoiceID    *uuid.UUID      `json:"invoice_id,omitempty"`
}

// newSettlement takes date and unsigned amount from the movement
func newSettlement(kind SettlementKind, m *BankMovement) *Settlement {
	s := &Settlement{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		MovementID:        m.ID,
		Date:              m.Date,
		Amount:            m.AbsAmount(),
	}
	s.AddDomainEvent(NewMovementReconciledEvent(s, m))
	return s
}

// NewTaxSettlement creates a check-tax or VAT settlement
func NewTaxSettlement(kind SettlementKind, m *BankMovement) (*Settlement, error) {
	if kind != SettlementCheckTax && kind != SettlementVAT {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "Tax settlement kind must be CHECK_TAX or VAT")
	}
	return newSettlement(kind, m), nil
}

// NewConsultantPaymentSettlement confirms a planned payment
func NewConsultantPaymentSettlement(m *BankMovement, payment *PlannedPayment) *Settlement {
	s := newSettlement(SettlementConsultantPayment, m)
	consultantID := payment.ConsultantID
	s.ConsultantID = &consultantID
	s.DeliveryRef = payment.DeliveryRef
	return s
}

// NewClientCollectionSettlement records a client paying a debt
func NewClientCollectionSettlement(m *BankMovement, debt *Debt) *Settlement {
	s := newSettlement(SettlementClientCollection, m)
	clientID, invoiceID := debt.ClientID, debt.InvoiceID
	s.ClientID = &clientID
	s.InvoiceID = &invoiceID
	return s
}
