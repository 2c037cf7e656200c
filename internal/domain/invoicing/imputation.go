package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
)

// ImputationLine records what an imputation applied to one invoice
type ImputationLine struct {
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	Position     int             `json:"position"`
	InvoiceTotal decimal.Decimal `json:"invoice_total"` // outstanding total before the imputation touched it
	Amount       decimal.Decimal `json:"amount"`
}

// Imputation applies one credit note against an ordered set of invoices of
// the same owner (FacturaImputada)
type Imputation struct {
	shared.BaseAggregateRoot
	Side             Side                 `json:"side"`
	OwnerID          uuid.UUID            `json:"owner_id"`
	Date             time.Time            `json:"date"`
	CreditNoteID     uuid.UUID            `json:"credit_note_id"`
	Currency         valueobject.Currency `json:"currency"`
	Lines            []ImputationLine     `json:"lines"`
	InvoicesTotal    decimal.Decimal      `json:"invoices_total"`     // monto_facturas
	CreditNoteAmount decimal.Decimal      `json:"credit_note_amount"` // monto_nota_de_credito
	NetTotal         decimal.Decimal      `json:"net_total"`          // total_factura
}

// NewImputation creates an empty imputation for the credit note
func NewImputation(date time.Time, creditNote *Invoice) *Imputation {
	return &Imputation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Side:              creditNote.Side,
		OwnerID:           creditNote.OwnerID,
		Date:              date,
		CreditNoteID:      creditNote.ID,
		Currency:          creditNote.Currency,
		Lines:             make([]ImputationLine, 0),
		InvoicesTotal:     decimal.Zero,
		CreditNoteAmount:  decimal.Zero,
		NetTotal:          decimal.Zero,
	}
}

// Line returns the line for the invoice, if any
func (imp *Imputation) Line(invoiceID uuid.UUID) (ImputationLine, bool) {
	for _, l := range imp.Lines {
		if l.InvoiceID == invoiceID {
			return l, true
		}
	}
	return ImputationLine{}, false
}

// InvoiceIDs returns the invoice ids in line order
func (imp *Imputation) InvoiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(imp.Lines))
	for i, l := range imp.Lines {
		ids[i] = l.InvoiceID
	}
	return ids
}

// AppliedTotal sums the amounts applied by all lines
func (imp *Imputation) AppliedTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range imp.Lines {
		sum = sum.Add(l.Amount)
	}
	return sum
}

func (imp *Imputation) appendLine(invoiceID uuid.UUID, totalBefore, amount decimal.Decimal) {
	next := 1
	if n := len(imp.Lines); n > 0 {
		next = imp.Lines[n-1].Position + 1
	}
	imp.Lines = append(imp.Lines, ImputationLine{
		InvoiceID:    invoiceID,
		Position:     next,
		InvoiceTotal: totalBefore,
		Amount:       amount,
	})
}

func (imp *Imputation) removeLine(invoiceID uuid.UUID) {
	kept := imp.Lines[:0]
	for _, l := range imp.Lines {
		if l.InvoiceID != invoiceID {
			kept = append(kept, l)
		}
	}
	imp.Lines = kept
}

// recalculate refreshes the header totals. The credit note amount is what
// the credit note had before this imputation applied anything.
func (imp *Imputation) recalculate(creditNote *Invoice) {
	invoices := decimal.Zero
	for _, l := range imp.Lines {
		invoices = invoices.Add(l.InvoiceTotal)
	}
	imp.InvoicesTotal = invoices
	imp.CreditNoteAmount = creditNote.Total.Add(imp.AppliedTotal())
	imp.NetTotal = decimal.Max(invoices.Sub(imp.CreditNoteAmount), decimal.Zero)
	imp.UpdatedAt = time.Now()
}
