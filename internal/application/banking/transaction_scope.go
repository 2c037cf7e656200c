package banking

import (
	"context"

	"github.com/sistemita/backend/internal/domain/banking"
	"github.com/sistemita/backend/internal/domain/partner"
)

// TransactionScope provides transactional access to banking repositories.
// One scope execution settles exactly one movement.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the matcher repositories plus the movement store,
// all bound to the current transaction
type TransactionalRepositories interface {
	banking.Repositories
	Movements() banking.BankMovementRepository
}

// NoOpTransactionScope runs fn against plain repositories, without a transaction.
// Used in tests.
type NoOpTransactionScope struct {
	Repos TransactionalRepositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over repos
func NewNoOpTransactionScope(repos TransactionalRepositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{Repos: repos}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.Repos)
}

// RepositorySet is a plain TransactionalRepositories implementation
type RepositorySet struct {
	MovementRepo       banking.BankMovementRepository
	SettlementRepo     banking.SettlementRepository
	PlannedPaymentRepo banking.PlannedPaymentRepository
	DebtRepo           banking.DebtRepository
	ConsultantRepo     partner.ConsultantRepository
	ClientRepo         partner.ClientRepository
}

func (r *RepositorySet) Movements() banking.BankMovementRepository         { return r.MovementRepo }
func (r *RepositorySet) Settlements() banking.SettlementRepository         { return r.SettlementRepo }
func (r *RepositorySet) PlannedPayments() banking.PlannedPaymentRepository { return r.PlannedPaymentRepo }
func (r *RepositorySet) Debts() banking.DebtRepository                     { return r.DebtRepo }
func (r *RepositorySet) Consultants() partner.ConsultantRepository         { return r.ConsultantRepo }
func (r *RepositorySet) Clients() partner.ClientRepository                 { return r.ClientRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*RepositorySet)(nil)
