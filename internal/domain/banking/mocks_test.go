package banking

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/partner"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/mock"
)

type MockConsultantRepository struct {
	mock.Mock
}

func (m *MockConsultantRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Consultant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Consultant), args.Error(1)
}

func (m *MockConsultantRepository) FindByAccountNumber(ctx context.Context, accountNumber string) (*partner.Consultant, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Consultant), args.Error(1)
}

func (m *MockConsultantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Consultant, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Consultant), args.Error(1)
}

func (m *MockConsultantRepository) Save(ctx context.Context, consultant *partner.Consultant) error {
	return m.Called(ctx, consultant).Error(0)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Client), args.Error(1)
}

func (m *MockClientRepository) FindByTaxIDAndName(ctx context.Context, taxID valueobject.TaxID, name string) (*partner.Client, error) {
	args := m.Called(ctx, taxID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Client), args.Error(1)
}

func (m *MockClientRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Client, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Client), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, client *partner.Client) error {
	return m.Called(ctx, client).Error(0)
}

type MockPlannedPaymentRepository struct {
	mock.Mock
}

func (m *MockPlannedPaymentRepository) FindPendingByConsultantAndAmount(ctx context.Context, consultantID uuid.UUID, amount decimal.Decimal) (*PlannedPayment, error) {
	args := m.Called(ctx, consultantID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PlannedPayment), args.Error(1)
}

func (m *MockPlannedPaymentRepository) Save(ctx context.Context, payment *PlannedPayment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPlannedPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockDebtRepository struct {
	mock.Mock
}

func (m *MockDebtRepository) FindByClientAndAmount(ctx context.Context, clientID uuid.UUID, amount decimal.Decimal) (*Debt, error) {
	args := m.Called(ctx, clientID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Debt), args.Error(1)
}

func (m *MockDebtRepository) Save(ctx context.Context, debt *Debt) error {
	return m.Called(ctx, debt).Error(0)
}

func (m *MockDebtRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockRepositories struct {
	consultants *MockConsultantRepository
	clients     *MockClientRepository
	payments    *MockPlannedPaymentRepository
	debts       *MockDebtRepository
}

func newMockRepositories() *mockRepositories {
	return &mockRepositories{
		consultants: new(MockConsultantRepository),
		clients:     new(MockClientRepository),
		payments:    new(MockPlannedPaymentRepository),
		debts:       new(MockDebtRepository),
	}
}

func (r *mockRepositories) Consultants() partner.ConsultantRepository { return r.consultants }
func (r *mockRepositories) Clients() partner.ClientRepository         { return r.clients }
func (r *mockRepositories) PlannedPayments() PlannedPaymentRepository { return r.payments }
func (r *mockRepositories) Debts() DebtRepository                     { return r.debts }
func (r *mockRepositories) Settlements() SettlementRepository         { return nil }

// decimalEq matches decimals by value rather than representation
func decimalEq(want string) interface{} {
	d := decimal.RequireFromString(want)
	return mock.MatchedBy(func(got decimal.Decimal) bool { return got.Equal(d) })
}
