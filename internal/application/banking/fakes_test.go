package banking

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/banking"
	"github.com/sistemita/backend/internal/domain/partner"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
)

// memoryStore keeps every banking table in memory and exposes them as repositories
type memoryStore struct {
	movements   []*banking.BankMovement
	settlements map[uuid.UUID]*banking.Settlement // by movement
	payments    map[uuid.UUID]*banking.PlannedPayment
	debts       map[uuid.UUID]*banking.Debt
	consultants []*partner.Consultant
	clients     []*partner.Client
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		settlements: make(map[uuid.UUID]*banking.Settlement),
		payments:    make(map[uuid.UUID]*banking.PlannedPayment),
		debts:       make(map[uuid.UUID]*banking.Debt),
	}
}

type (
	movementRepo   memoryStore
	settlementRepo memoryStore
	paymentRepo    memoryStore
	debtRepo       memoryStore
	consultantRepo memoryStore
	clientRepo     memoryStore
)

func (s *memoryStore) Movements() banking.BankMovementRepository         { return (*movementRepo)(s) }
func (s *memoryStore) Settlements() banking.SettlementRepository         { return (*settlementRepo)(s) }
func (s *memoryStore) PlannedPayments() banking.PlannedPaymentRepository { return (*paymentRepo)(s) }
func (s *memoryStore) Debts() banking.DebtRepository                     { return (*debtRepo)(s) }
func (s *memoryStore) Consultants() partner.ConsultantRepository         { return (*consultantRepo)(s) }
func (s *memoryStore) Clients() partner.ClientRepository                 { return (*clientRepo)(s) }

func (r *movementRepo) FindByID(_ context.Context, id uuid.UUID) (*banking.BankMovement, error) {
	for _, m := range r.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *movementRepo) FindUnreconciled(_ context.Context, after *banking.MovementCursor, limit int) ([]*banking.BankMovement, error) {
	out := make([]*banking.BankMovement, 0)
	for _, m := range r.movements {
		if _, ok := r.settlements[m.ID]; ok {
			continue
		}
		if after != nil && !after.Less(m.Cursor()) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Cursor().Less(out[j].Cursor())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *movementRepo) CountUnreconciled(ctx context.Context) (int64, error) {
	out, _ := r.FindUnreconciled(ctx, nil, 0)
	return int64(len(out)), nil
}

func (r *movementRepo) CreateBatch(_ context.Context, movements []*banking.BankMovement) (int, error) {
	known := make(map[string]struct{}, len(r.movements))
	for _, m := range r.movements {
		known[m.Fingerprint] = struct{}{}
	}
	inserted := 0
	for _, m := range movements {
		if _, dup := known[m.Fingerprint]; dup {
			continue
		}
		known[m.Fingerprint] = struct{}{}
		r.movements = append(r.movements, m)
		inserted++
	}
	return inserted, nil
}

func (r *settlementRepo) Save(_ context.Context, s *banking.Settlement) error {
	if _, ok := r.settlements[s.MovementID]; ok {
		return shared.ErrAlreadyExists
	}
	r.settlements[s.MovementID] = s
	return nil
}

func (r *settlementRepo) FindByMovement(_ context.Context, movementID uuid.UUID) (*banking.Settlement, error) {
	s, ok := r.settlements[movementID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return s, nil
}

func (r *paymentRepo) FindPendingByConsultantAndAmount(_ context.Context, consultantID uuid.UUID, amount decimal.Decimal) (*banking.PlannedPayment, error) {
	for _, p := range r.payments {
		if p.ConsultantID == consultantID && p.Amount.Equal(amount) {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *paymentRepo) Save(_ context.Context, p *banking.PlannedPayment) error {
	r.payments[p.ID] = p
	return nil
}

func (r *paymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.payments, id)
	return nil
}

func (r *debtRepo) FindByClientAndAmount(_ context.Context, clientID uuid.UUID, amount decimal.Decimal) (*banking.Debt, error) {
	for _, d := range r.debts {
		if d.ClientID == clientID && d.Amount.Equal(amount) {
			return d, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *debtRepo) Save(_ context.Context, d *banking.Debt) error {
	r.debts[d.ID] = d
	return nil
}

func (r *debtRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.debts, id)
	return nil
}

func (r *consultantRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Consultant, error) {
	for _, c := range r.consultants {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *consultantRepo) FindByAccountNumber(_ context.Context, account string) (*partner.Consultant, error) {
	for _, c := range r.consultants {
		if c.AccountNumber == account {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *consultantRepo) FindAll(_ context.Context, _ shared.Filter) ([]partner.Consultant, error) {
	out := make([]partner.Consultant, len(r.consultants))
	for i, c := range r.consultants {
		out[i] = *c
	}
	return out, nil
}

func (r *consultantRepo) Save(_ context.Context, c *partner.Consultant) error {
	r.consultants = append(r.consultants, c)
	return nil
}

func (r *clientRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Client, error) {
	for _, c := range r.clients {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *clientRepo) FindByTaxIDAndName(_ context.Context, taxID valueobject.TaxID, name string) (*partner.Client, error) {
	for _, c := range r.clients {
		if c.TaxID == taxID && strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name)) {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *clientRepo) FindAll(_ context.Context, _ shared.Filter) ([]partner.Client, error) {
	out := make([]partner.Client, len(r.clients))
	for i, c := range r.clients {
		out[i] = *c
	}
	return out, nil
}

func (r *clientRepo) Save(_ context.Context, c *partner.Client) error {
	r.clients = append(r.clients, c)
	return nil
}

var _ TransactionalRepositories = (*memoryStore)(nil)
