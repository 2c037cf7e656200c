package invoicing

import (
	"context"

	"github.com/google/uuid"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
)

// InvoiceRepository defines the interface for invoice and credit note persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDs finds the invoices with the given IDs. Order is not guaranteed
	// and missing IDs are simply absent from the result.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Invoice, error)

	// FindOutstanding lists unpaid invoices of an owner in a currency, credit
	// notes excluded, ordered by date then number
	FindOutstanding(ctx context.Context, side Side, ownerID uuid.UUID, currency valueobject.Currency) ([]*Invoice, error)

	// FindAll finds invoices matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]*Invoice, error)

	// Count counts invoices matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates a new invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock updates balances with optimistic locking (version check).
	// On success the invoice version is incremented.
	SaveWithLock(ctx context.Context, invoice *Invoice) error
}

// ImputationRepository defines the interface for imputation persistence
type ImputationRepository interface {
	// FindByID loads an imputation together with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Imputation, error)

	// FindByCreditNote returns the imputation owning the credit note
	FindByCreditNote(ctx context.Context, creditNoteID uuid.UUID) (*Imputation, error)

	// Save creates the imputation and its lines
	Save(ctx context.Context, imputation *Imputation) error

	// SaveWithLock updates the header if the stored version still matches,
	// replaces the lines and increments the version. A stale version
	// returns ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, imputation *Imputation) error

	// Delete deletes the imputation and its lines
	Delete(ctx context.Context, id uuid.UUID) error
}
