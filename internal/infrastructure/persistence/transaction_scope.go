package persistence

import (
	"context"

	appbanking "github.com/sistemita/backend/internal/application/banking"
	appinvoicing "github.com/sistemita/backend/internal/application/invoicing"
	"github.com/sistemita/backend/internal/domain/banking"
	"github.com/sistemita/backend/internal/domain/invoicing"
	"github.com/sistemita/backend/internal/domain/partner"
	"gorm.io/gorm"
)

// InvoicingTransactionScope implements the invoicing TransactionScope using GORM transactions.
type InvoicingTransactionScope struct {
	db *gorm.DB
}

// NewInvoicingTransactionScope creates a new InvoicingTransactionScope.
func NewInvoicingTransactionScope(db *gorm.DB) *InvoicingTransactionScope {
	return &InvoicingTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *InvoicingTransactionScope) Execute(ctx context.Context, fn func(repos appinvoicing.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&invoicingRepositories{tx: tx})
	})
}

type invoicingRepositories struct {
	tx *gorm.DB
}

func (r *invoicingRepositories) InvoiceRepo() invoicing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *invoicingRepositories) ImputationRepo() invoicing.ImputationRepository {
	return NewGormImputationRepository(r.tx)
}

// BankingTransactionScope implements the banking TransactionScope using GORM transactions.
type BankingTransactionScope struct {
	db *gorm.DB
}

// NewBankingTransactionScope creates a new BankingTransactionScope.
func NewBankingTransactionScope(db *gorm.DB) *BankingTransactionScope {
	return &BankingTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *BankingTransactionScope) Execute(ctx context.Context, fn func(repos appbanking.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&bankingRepositories{tx: tx})
	})
}

type bankingRepositories struct {
	tx *gorm.DB
}

func (r *bankingRepositories) Movements() banking.BankMovementRepository {
	return NewGormBankMovementRepository(r.tx)
}

func (r *bankingRepositories) Settlements() banking.SettlementRepository {
	return NewGormSettlementRepository(r.tx)
}

func (r *bankingRepositories) PlannedPayments() banking.PlannedPaymentRepository {
	return NewGormPlannedPaymentRepository(r.tx)
}

func (r *bankingRepositories) Debts() banking.DebtRepository {
	return NewGormDebtRepository(r.tx)
}

func (r *bankingRepositories) Consultants() partner.ConsultantRepository {
	return NewGormConsultantRepository(r.tx)
}

func (r *bankingRepositories) Clients() partner.ClientRepository {
	return NewGormClientRepository(r.tx)
}

var (
	_ appinvoicing.TransactionScope          = (*InvoicingTransactionScope)(nil)
	_ appinvoicing.TransactionalRepositories = (*invoicingRepositories)(nil)
	_ appbanking.TransactionScope            = (*BankingTransactionScope)(nil)
	_ appbanking.TransactionalRepositories   = (*bankingRepositories)(nil)
)
