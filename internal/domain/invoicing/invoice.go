package invoicing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
)

// Side tells whether an invoice was issued to a client or received from a provider
type Side string

const (
	SideClient   Side = "CLIENT"
	SideProvider Side = "PROVIDER"
)

// IsValid checks if the side is a known value
func (s Side) IsValid() bool {
	return s == SideClient || s == SideProvider
}

// InvoiceType is the AFIP voucher letter. Credit notes carry the NC prefix.
type InvoiceType string

const (
	InvoiceTypeA   InvoiceType = "A"
	InvoiceTypeB   InvoiceType = "B"
	InvoiceTypeC   InvoiceType = "C"
	InvoiceTypeE   InvoiceType = "E"
	InvoiceTypeNCA InvoiceType = "NCA"
	InvoiceTypeNCB InvoiceType = "NCB"
	InvoiceTypeNCC InvoiceType = "NCC"
	InvoiceTypeNCE InvoiceType = "NCE"
)

const creditNotePrefix = "NC"

// IsCreditNote reports whether the type denotes a credit note
func (t InvoiceType) IsCreditNote() bool {
	return strings.HasPrefix(string(t), creditNotePrefix)
}

// IsValid checks if the type is a known value
func (t InvoiceType) IsValid() bool {
	switch t {
	case InvoiceTypeA, InvoiceTypeB, InvoiceTypeC, InvoiceTypeE,
		InvoiceTypeNCA, InvoiceTypeNCB, InvoiceTypeNCC, InvoiceTypeNCE:
		return true
	}
	return false
}

// Invoice is a client or provider invoice (Factura / FacturaProveedor).
// A credit note is an Invoice whose type starts with NC; for it Total is the
// remaining balance still available to impute.
type Invoice struct {
	shared.BaseAggregateRoot
	Side          Side                 `json:"side"`
	OwnerID       uuid.UUID            `json:"owner_id"` // client or provider
	Type          InvoiceType          `json:"type"`
	Number        string               `json:"number"`
	Date          time.Time            `json:"date"`
	Currency      valueobject.Currency `json:"currency"`
	Net           decimal.Decimal      `json:"net"`
	TaxRate       decimal.Decimal      `json:"tax_rate"` // IVA percent
	Total         decimal.Decimal      `json:"total"`    // amount still outstanding
	AmountImputed decimal.Decimal      `json:"amount_imputed"`
	Paid          bool                 `json:"paid"`
}

// NewInvoice registers an invoice. Total is computed as net plus IVA.
func NewInvoice(
	side Side,
	ownerID uuid.UUID,
	invoiceType InvoiceType,
	number string,
	date time.Time,
	currency valueobject.Currency,
	net valueobject.Money,
	taxRate decimal.Decimal,
) (*Invoice, error) {
	if !side.IsValid() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "Invoice side must be CLIENT or PROVIDER")
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "Invoice owner cannot be empty")
	}
	if !invoiceType.IsValid() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "Unknown invoice type: "+string(invoiceType))
	}
	number = strings.TrimSpace(number)
	if number == "" || len(number) > 50 {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "Invoice number must have between 1 and 50 characters")
	}
	if net.Currency() != currency {
		return nil, shared.NewValidationError(shared.CodeInvalidCurrency, "Net amount currency does not match invoice currency")
	}
	if net.IsNegative() {
		return nil, shared.NewValidationError(shared.CodeInvalidAmount, "Net amount cannot be negative")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewValidationError(shared.CodeInvalidAmount, "Tax rate must be between 0 and 100")
	}

	total, err := net.Add(net.CalculatePercentage(taxRate))
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Side:              side,
		OwnerID:           ownerID,
		Type:              invoiceType,
		Number:            number,
		Date:              date,
		Currency:          currency,
		Net:               net.Amount(),
		TaxRate:           taxRate,
		Total:             total.Amount(),
		AmountImputed:     decimal.Zero,
		Paid:              total.IsZero(),
	}
	inv.AddDomainEvent(NewInvoiceRegisteredEvent(inv))
	return inv, nil
}

// IsCreditNote reports whether the invoice is a credit note
func (i *Invoice) IsCreditNote() bool {
	return i.Type.IsCreditNote()
}

// IsOutstanding reports whether the invoice still has something to pay
func (i *Invoice) IsOutstanding() bool {
	return !i.Paid && i.Total.IsPositive()
}

// restore gives back an amount previously imputed to the invoice
func (i *Invoice) restore(amount decimal.Decimal) {
	i.Total = i.Total.Add(amount)
	i.AmountImputed = i.AmountImputed.Sub(amount)
	i.Paid = false
	i.touch()
}

func (i *Invoice) touch() {
	i.UpdatedAt = time.Now()
}
