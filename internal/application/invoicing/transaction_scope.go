package invoicing

import (
	"context"

	"github.com/sistemita/backend/internal/domain/invoicing"
)

// TransactionScope provides transactional access to invoicing repositories.
// All repository operations run inside fn commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to invoicing repositories within a transaction.
type TransactionalRepositories interface {
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() invoicing.InvoiceRepository
	// ImputationRepo returns the imputation repository scoped to the current transaction
	ImputationRepo() invoicing.ImputationRepository
}

// NoOpTransactionScope runs fn against plain repositories, without a transaction.
// Used in tests.
type NoOpTransactionScope struct {
	invoiceRepo    invoicing.InvoiceRepository
	imputationRepo invoicing.ImputationRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(invoiceRepo invoicing.InvoiceRepository, imputationRepo invoicing.ImputationRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo:    invoiceRepo,
		imputationRepo: imputationRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() invoicing.InvoiceRepository {
	return s.invoiceRepo
}

// ImputationRepo returns the imputation repository.
func (s *NoOpTransactionScope) ImputationRepo() invoicing.ImputationRepository {
	return s.imputationRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
