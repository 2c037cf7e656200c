package invoicing

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sistemita/backend/internal/domain/invoicing"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// memoryInvoiceRepo stores copies so a failed call never leaks mutations
type memoryInvoiceRepo struct {
	rows map[uuid.UUID]invoicing.Invoice
}

func newMemoryInvoiceRepo(invoices ...*invoicing.Invoice) *memoryInvoiceRepo {
	r := &memoryInvoiceRepo{rows: make(map[uuid.UUID]invoicing.Invoice)}
	for _, inv := range invoices {
		r.rows[inv.ID] = *inv
	}
	return r
}

func (r *memoryInvoiceRepo) get(id uuid.UUID) invoicing.Invoice {
	return r.rows[id]
}

func (r *memoryInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &row, nil
}

func (r *memoryInvoiceRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*invoicing.Invoice, error) {
	out := make([]*invoicing.Invoice, 0, len(ids))
	seen := make(map[uuid.UUID]struct{})
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if row, ok := r.rows[id]; ok {
			out = append(out, &row)
		}
	}
	return out, nil
}

func (r *memoryInvoiceRepo) FindOutstanding(_ context.Context, side invoicing.Side, ownerID uuid.UUID, currency valueobject.Currency) ([]*invoicing.Invoice, error) {
	out := make([]*invoicing.Invoice, 0)
	for _, row := range r.rows {
		if row.Side == side && row.OwnerID == ownerID && row.Currency == currency && !row.IsCreditNote() && row.IsOutstanding() {
			inv := row
			out = append(out, &inv)
		}
	}
	return out, nil
}

func (r *memoryInvoiceRepo) FindAll(_ context.Context, _ shared.Filter) ([]*invoicing.Invoice, error) {
	out := make([]*invoicing.Invoice, 0, len(r.rows))
	for _, row := range r.rows {
		inv := row
		out = append(out, &inv)
	}
	return out, nil
}

func (r *memoryInvoiceRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.rows)), nil
}

func (r *memoryInvoiceRepo) Save(_ context.Context, inv *invoicing.Invoice) error {
	r.rows[inv.ID] = *inv
	return nil
}

func (r *memoryInvoiceRepo) SaveWithLock(_ context.Context, inv *invoicing.Invoice) error {
	stored, ok := r.rows[inv.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != inv.Version {
		return shared.ErrConcurrencyConflict
	}
	inv.IncrementVersion()
	r.rows[inv.ID] = *inv
	return nil
}

type memoryImputationRepo struct {
	rows map[uuid.UUID]invoicing.Imputation
}

func newMemoryImputationRepo() *memoryImputationRepo {
	return &memoryImputationRepo{rows: make(map[uuid.UUID]invoicing.Imputation)}
}

func cloneImputation(imp invoicing.Imputation) invoicing.Imputation {
	imp.Lines = append([]invoicing.ImputationLine(nil), imp.Lines...)
	return imp
}

func (r *memoryImputationRepo) FindByID(_ context.Context, id uuid.UUID) (*invoicing.Imputation, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	imp := cloneImputation(row)
	return &imp, nil
}

func (r *memoryImputationRepo) FindByCreditNote(_ context.Context, creditNoteID uuid.UUID) (*invoicing.Imputation, error) {
	for _, row := range r.rows {
		if row.CreditNoteID == creditNoteID {
			imp := cloneImputation(row)
			return &imp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryImputationRepo) Save(_ context.Context, imp *invoicing.Imputation) error {
	r.rows[imp.ID] = cloneImputation(*imp)
	return nil
}

func (r *memoryImputationRepo) SaveWithLock(_ context.Context, imp *invoicing.Imputation) error {
	row, ok := r.rows[imp.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if row.Version != imp.Version {
		return shared.ErrConcurrencyConflict
	}
	imp.IncrementVersion()
	r.rows[imp.ID] = cloneImputation(*imp)
	return nil
}

func (r *memoryImputationRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.rows[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// MockInvoiceRepository is a testify mock of invoicing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*invoicing.Invoice, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOutstanding(ctx context.Context, side invoicing.Side, ownerID uuid.UUID, currency valueobject.Currency) ([]*invoicing.Invoice, error) {
	args := m.Called(ctx, side, ownerID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*invoicing.Invoice, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, inv *invoicing.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, inv *invoicing.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

var (
	_ invoicing.InvoiceRepository    = (*memoryInvoiceRepo)(nil)
	_ invoicing.ImputationRepository = (*memoryImputationRepo)(nil)
	_ invoicing.InvoiceRepository    = (*MockInvoiceRepository)(nil)
)
