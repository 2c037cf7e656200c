package banking

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/partner"
)

// BankMovementRepository defines the interface for bank movement persistence
type BankMovementRepository interface {
	// FindByID finds a movement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*BankMovement, error)

	// FindUnreconciled lists movements without a settlement in sweep order
	// (date, statement line, id). A non-nil after returns only movements
	// past that position. limit <= 0 means no limit.
	FindUnreconciled(ctx context.Context, after *MovementCursor, limit int) ([]*BankMovement, error)

	// CountUnreconciled counts movements without a settlement
	CountUnreconciled(ctx context.Context) (int64, error)

	// CreateBatch inserts movements, skipping fingerprints already stored.
	// Returns the number of rows actually inserted.
	CreateBatch(ctx context.Context, movements []*BankMovement) (int, error)
}

// SettlementRepository defines the interface for settlement persistence
type SettlementRepository interface {
	// Save creates a settlement. A second settlement for the same movement
	// is rejected with ALREADY_EXISTS.
	Save(ctx context.Context, settlement *Settlement) error

	// FindByMovement returns the settlement of a movement
	FindByMovement(ctx context.Context, movementID uuid.UUID) (*Settlement, error)
}

// PlannedPaymentRepository defines the interface for planned payment persistence
type PlannedPaymentRepository interface {
	// FindPendingByConsultantAndAmount returns the oldest planned payment of
	// the consultant with exactly the given amount
	FindPendingByConsultantAndAmount(ctx context.Context, consultantID uuid.UUID, amount decimal.Decimal) (*PlannedPayment, error)

	Save(ctx context.Context, payment *PlannedPayment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DebtRepository defines the interface for outstanding client debt persistence
type DebtRepository interface {
	// FindByClientAndAmount returns the oldest debt of the client with exactly the given amount
	FindByClientAndAmount(ctx context.Context, clientID uuid.UUID, amount decimal.Decimal) (*Debt, error)

	Save(ctx context.Context, debt *Debt) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repositories is the set of stores a matcher may read and write while
// settling a movement. Implementations are bound to one transaction.
type Repositories interface {
	Consultants() partner.ConsultantRepository
	Clients() partner.ClientRepository
	PlannedPayments() PlannedPaymentRepository
	Debts() DebtRepository
	Settlements() SettlementRepository
}
