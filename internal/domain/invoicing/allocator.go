package invoicing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/shared"
)

// ChangeAction is the kind of change applied to an existing imputation
type ChangeAction string

const (
	ChangeAdd    ChangeAction = "add"
	ChangeUpdate ChangeAction = "update"
	ChangeDelete ChangeAction = "delete"
)

// IsValid checks if the action is a known value
func (a ChangeAction) IsValid() bool {
	return a == ChangeAdd || a == ChangeUpdate || a == ChangeDelete
}

// ImputationChange is one entry of an Update call. Invoice is the target for
// add, and the invoice being replaced or removed for update and delete.
// Replacement is only used by update.
type ImputationChange struct {
	Action      ChangeAction
	Invoice     *Invoice
	Replacement *Invoice
}

// AllocationResult describes what an allocator call did
type AllocationResult struct {
	Applied   decimal.Decimal // net amount moved from the credit note to invoices
	Remaining decimal.Decimal // credit note balance after the call
	Touched   []*Invoice      // invoices whose balances changed, credit note excluded
}

// CreditNoteAllocator distributes a credit note's remaining balance across
// outstanding invoices in the order given. It works on in-memory aggregates;
// callers persist the credit note, the touched invoices and the imputation
// in one transaction.
type CreditNoteAllocator struct{}

// NewCreditNoteAllocator creates a new allocator
func NewCreditNoteAllocator() *CreditNoteAllocator {
	return &CreditNoteAllocator{}
}

// Allocate applies the credit note to invoices in order, appending one line
// per invoice to the imputation. Invoices reached after the balance is
// exhausted get a zero-amount line and are left unchanged.
func (a *CreditNoteAllocator) Allocate(imp *Imputation, creditNote *Invoice, invoices []*Invoice) (*AllocationResult, error) {
	if err := checkCreditNote(imp, creditNote); err != nil {
		return nil, err
	}
	start := creditNote.Total
	if start.IsZero() {
		return &AllocationResult{Applied: decimal.Zero, Remaining: decimal.Zero}, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(invoices))
	for _, inv := range invoices {
		_, dup := seen[inv.ID]
		_, exists := imp.Line(inv.ID)
		if dup || exists {
			return nil, shared.NewValidationError(shared.CodeDuplicateInvoice,
				fmt.Sprintf("Invoice %s is already part of the imputation", inv.Number))
		}
		seen[inv.ID] = struct{}{}
	}

	tracker := newTouchTracker()
	remaining := start
	for _, inv := range invoices {
		remaining = a.applyTo(imp, inv, remaining, tracker)
	}

	a.settleCreditNote(creditNote, start, remaining)
	imp.recalculate(creditNote)
	result := tracker.result(start, remaining)
	imp.AddDomainEvent(NewImputationAppliedEvent(imp, result))
	return result, nil
}

// Update applies add, update and delete changes to an existing imputation.
// The credit note balance is read once; amounts reversed by update and
// delete return to the running balance available to later changes.
func (a *CreditNoteAllocator) Update(imp *Imputation, creditNote *Invoice, changes []ImputationChange) (*AllocationResult, error) {
	if err := checkCreditNote(imp, creditNote); err != nil {
		return nil, err
	}

	tracker := newTouchTracker()
	start := creditNote.Total
	remaining := start
	for idx, ch := range changes {
		if ch.Invoice == nil {
			return nil, shared.NewValidationError(shared.CodeInvalidInput, fmt.Sprintf("Change %d has no invoice", idx))
		}
		switch ch.Action {
		case ChangeAdd:
			if _, exists := imp.Line(ch.Invoice.ID); exists {
				return nil, shared.NewValidationError(shared.CodeDuplicateInvoice,
					fmt.Sprintf("Invoice %s is already part of the imputation", ch.Invoice.Number))
			}
			remaining = a.applyTo(imp, ch.Invoice, remaining, tracker)
		case ChangeDelete:
			returned, err := a.detach(imp, ch.Invoice, tracker)
			if err != nil {
				return nil, err
			}
			remaining = remaining.Add(returned)
		case ChangeUpdate:
			if ch.Replacement == nil {
				return nil, shared.NewValidationError(shared.CodeInvalidInput, fmt.Sprintf("Change %d has no replacement invoice", idx))
			}
			returned, err := a.detach(imp, ch.Invoice, tracker)
			if err != nil {
				return nil, err
			}
			remaining = remaining.Add(returned)
			if _, exists := imp.Line(ch.Replacement.ID); exists {
				return nil, shared.NewValidationError(shared.CodeDuplicateInvoice,
					fmt.Sprintf("Invoice %s is already part of the imputation", ch.Replacement.Number))
			}
			remaining = a.applyTo(imp, ch.Replacement, remaining, tracker)
		default:
			return nil, shared.NewValidationError(shared.CodeInvalidInput, "Unknown change action: "+string(ch.Action))
		}
	}

	a.settleCreditNote(creditNote, start, remaining)
	imp.recalculate(creditNote)
	result := tracker.result(start, remaining)
	imp.AddDomainEvent(NewImputationUpdatedEvent(imp, result))
	return result, nil
}

// Reverse undoes every non-zero line of the imputation and returns the
// applied total to the credit note. The imputation is left without lines.
// invoices must contain every invoice referenced by a non-zero line.
func (a *CreditNoteAllocator) Reverse(imp *Imputation, creditNote *Invoice, invoices []*Invoice) (*AllocationResult, error) {
	if err := checkCreditNote(imp, creditNote); err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*Invoice, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
	}

	tracker := newTouchTracker()
	returned := decimal.Zero
	for _, line := range imp.Lines {
		if line.Amount.IsZero() {
			continue
		}
		inv, ok := byID[line.InvoiceID]
		if !ok {
			return nil, shared.NewNotFoundError(fmt.Sprintf("Invoice %s of the imputation not found", line.InvoiceID))
		}
		inv.restore(line.Amount)
		tracker.add(inv)
		returned = returned.Add(line.Amount)
	}

	creditNote.Total = creditNote.Total.Add(returned)
	creditNote.AmountImputed = creditNote.AmountImputed.Sub(returned)
	creditNote.Paid = false
	creditNote.touch()

	imp.Lines = imp.Lines[:0]
	imp.AddDomainEvent(NewImputationReversedEvent(imp, returned))
	return &AllocationResult{
		Applied:   returned.Neg(),
		Remaining: creditNote.Total,
		Touched:   tracker.invoices,
	}, nil
}

// applyTo imputes as much of remaining as the invoice takes and records the line
func (a *CreditNoteAllocator) applyTo(imp *Imputation, inv *Invoice, remaining decimal.Decimal, tracker *touchTracker) decimal.Decimal {
	before := inv.Total
	var applied decimal.Decimal

	switch {
	case remaining.IsZero():
		applied = decimal.Zero
	case remaining.Equal(inv.Total):
		applied = remaining
		inv.AmountImputed = inv.AmountImputed.Add(remaining)
		remaining = decimal.Zero
		inv.Paid = true
		inv.Total = decimal.Zero
	case remaining.GreaterThan(inv.Total):
		applied = inv.Total
		remaining = remaining.Sub(inv.Total)
		inv.AmountImputed = inv.AmountImputed.Add(inv.Total)
		inv.Paid = true
		inv.Total = decimal.Zero
	default:
		applied = remaining
		inv.AmountImputed = inv.AmountImputed.Add(remaining)
		inv.Total = inv.Total.Sub(remaining)
		remaining = decimal.Zero
	}

	if !applied.IsZero() {
		inv.touch()
		tracker.add(inv)
	}
	imp.appendLine(inv.ID, before, applied)
	return remaining
}

// detach reverses the invoice's line and removes it, returning the amount given back
func (a *CreditNoteAllocator) detach(imp *Imputation, inv *Invoice, tracker *touchTracker) (decimal.Decimal, error) {
	line, ok := imp.Line(inv.ID)
	if !ok {
		return decimal.Zero, shared.NewNotFoundError(
			fmt.Sprintf("Invoice %s is not part of the imputation", inv.Number))
	}
	if !line.Amount.IsZero() {
		inv.restore(line.Amount)
		tracker.add(inv)
	}
	imp.removeLine(inv.ID)
	return line.Amount, nil
}

func (a *CreditNoteAllocator) settleCreditNote(creditNote *Invoice, start, remaining decimal.Decimal) {
	creditNote.AmountImputed = creditNote.AmountImputed.Add(start.Sub(remaining))
	creditNote.Total = remaining
	creditNote.Paid = remaining.IsZero()
	creditNote.touch()
}

func checkCreditNote(imp *Imputation, creditNote *Invoice) error {
	if imp == nil || creditNote == nil {
		return shared.NewValidationError(shared.CodeInvalidInput, "Imputation and credit note are required")
	}
	if !creditNote.IsCreditNote() {
		return shared.NewValidationError(shared.CodeNotCreditNote,
			fmt.Sprintf("Invoice %s is not a credit note", creditNote.Number))
	}
	if imp.CreditNoteID != creditNote.ID {
		return shared.NewValidationError(shared.CodeCreditNoteInUse, "Credit note does not belong to the imputation")
	}
	return nil
}

type touchTracker struct {
	seen     map[uuid.UUID]struct{}
	invoices []*Invoice
}

func newTouchTracker() *touchTracker {
	return &touchTracker{seen: make(map[uuid.UUID]struct{})}
}

func (t *touchTracker) add(inv *Invoice) {
	if _, ok := t.seen[inv.ID]; ok {
		return
	}
	t.seen[inv.ID] = struct{}{}
	t.invoices = append(t.invoices, inv)
}

func (t *touchTracker) result(start, remaining decimal.Decimal) *AllocationResult {
	return &AllocationResult{
		Applied:   start.Sub(remaining),
		Remaining: remaining,
		Touched:   t.invoices,
	}
}
