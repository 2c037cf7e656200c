package banking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/banking"
	"github.com/sistemita/backend/internal/domain/partner"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const consultantAccount = "0110599520000012345678"

var sweepDate = time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func clientConcept(name, taxID string) string {
	return fmt.Sprintf("%-38s", "TRANSF RECIBIDA CTA 0000012345") + name + " " + taxID + "0000000001 "
}

func addMovement(t *testing.T, store *memoryStore, lineNo int, code, concept, amount string) *banking.BankMovement {
	t.Helper()
	m, err := banking.NewBankMovement(sweepDate, code, concept, decimal.RequireFromString(amount), decimal.NewFromInt(100000), lineNo, 0)
	require.NoError(t, err)
	_, err = store.Movements().CreateBatch(context.Background(), []*banking.BankMovement{m})
	require.NoError(t, err)
	return m
}

type sweepFixture struct {
	store      *memoryStore
	consultant *partner.Consultant
	client     *partner.Client
	payment    *banking.PlannedPayment
	debt       *banking.Debt
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()
	ctx := context.Background()
	store := newMemoryStore()

	consultant, err := partner.NewConsultant("Juan Perez", "20123456786", consultantAccount)
	require.NoError(t, err)
	require.NoError(t, store.Consultants().Save(ctx, consultant))
	client, err := partner.NewClient("ACME SA", "30712345671", "")
	require.NoError(t, err)
	require.NoError(t, store.Clients().Save(ctx, client))

	payment, err := banking.NewPlannedPayment(consultant.ID, "ENTREGA-7", decimal.NewFromInt(5000), sweepDate)
	require.NoError(t, err)
	require.NoError(t, store.PlannedPayments().Save(ctx, payment))
	debt, err := banking.NewDebt(client.ID, uuid.New(), decimal.NewFromInt(1210))
	require.NoError(t, err)
	require.NoError(t, store.Debts().Save(ctx, debt))

	return &sweepFixture{store: store, consultant: consultant, client: client, payment: payment, debt: debt}
}

func TestReconciliationService_Run(t *testing.T) {
	f := newSweepFixture(t)
	vat := addMovement(t, f.store, 1, banking.CodeVAT, "IVA PERCEPCION", "-21.00")
	checkTax := addMovement(t, f.store, 2, banking.CodeCheckTaxDebit, "IMP LEY 25413", "-6.00")
	unknownAccount := addMovement(t, f.store, 3, banking.CodeConsultantTransfer, "TRANSFERENCIA 9999999999999999999999", "-5000.00")
	consultantPay := addMovement(t, f.store, 4, banking.CodeConsultantTransfer, "TRANSFERENCIA A TERCEROS "+consultantAccount, "-5000.00")
	collection := addMovement(t, f.store, 5, banking.CodeClientTransfer, clientConcept("ACME SA", "30712345671"), "1210.00")
	noDebt := addMovement(t, f.store, 6, banking.CodeClientTransfer, clientConcept("ACME SA", "30712345671"), "999.00")
	unmatched := addMovement(t, f.store, 7, "9999", "COMISION", "-1.00")

	publisher := &recordingPublisher{}
	service := NewReconciliationService(NewNoOpTransactionScope(f.store), nil, ReconciliationConfig{}, nil)
	service.SetEventPublisher(publisher)

	report, err := service.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 7, report.Processed)
	assert.Equal(t, 4, report.Reconciled)
	assert.Equal(t, 2, report.Unmatched)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, map[string]int{
		string(banking.SettlementVAT):               1,
		string(banking.SettlementCheckTax):          1,
		string(banking.SettlementConsultantPayment): 1,
		string(banking.SettlementClientCollection):  1,
	}, report.ByKind)

	outcomes := make(map[string]string)
	for _, o := range report.Outcomes {
		outcomes[o.MovementID.String()] = o.Outcome
	}
	assert.Equal(t, OutcomeReconciled, outcomes[vat.ID.String()])
	assert.Equal(t, OutcomeReconciled, outcomes[checkTax.ID.String()])
	assert.Equal(t, OutcomeUnmatched, outcomes[unknownAccount.ID.String()])
	assert.Equal(t, OutcomeReconciled, outcomes[consultantPay.ID.String()])
	assert.Equal(t, OutcomeReconciled, outcomes[collection.ID.String()])
	assert.Equal(t, OutcomeSkipped, outcomes[noDebt.ID.String()])
	assert.Equal(t, OutcomeUnmatched, outcomes[unmatched.ID.String()])

	vatSettlement := f.store.settlements[vat.ID]
	require.NotNil(t, vatSettlement)
	assert.True(t, decimal.NewFromInt(21).Equal(vatSettlement.Amount))
	assert.Equal(t, sweepDate, vatSettlement.Date)

	assert.Empty(t, f.store.payments)
	assert.Empty(t, f.store.debts)
	assert.Len(t, publisher.events, 4)

	// a second run only sees what is still unreconciled
	again, err := service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, again.Processed)
	assert.Equal(t, 0, again.Reconciled)
}

// brokenMatcher claims every movement with its code and fails to settle it
type brokenMatcher struct {
	code string
}

func (b *brokenMatcher) Name() string                 { return "broken" }
func (b *brokenMatcher) Kind() banking.SettlementKind { return banking.SettlementVAT }

func (b *brokenMatcher) Matches(_ context.Context, m *banking.BankMovement, _ banking.Repositories) (bool, error) {
	return m.Code == b.code, nil
}

func (b *brokenMatcher) Settle(_ context.Context, _ *banking.BankMovement, _ banking.Repositories) (*banking.Settlement, error) {
	return nil, errors.New("connection reset by peer")
}

func TestReconciliationService_FailureDoesNotBlockNext(t *testing.T) {
	store := newMemoryStore()
	broken := addMovement(t, store, 1, "7777", "X", "-1.00")
	vat := addMovement(t, store, 2, banking.CodeVAT, "IVA", "-2.00")
	registry := banking.NewMatcherRegistry(&brokenMatcher{code: "7777"}, banking.NewVATMatcher())

	t.Run("continues by default", func(t *testing.T) {
		service := NewReconciliationService(NewNoOpTransactionScope(store), registry, ReconciliationConfig{}, nil)

		report, err := service.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, 1, report.Reconciled)
		assert.False(t, report.Aborted)
		require.Len(t, report.Outcomes, 2)
		assert.Equal(t, broken.ID, report.Outcomes[0].MovementID)
		assert.Equal(t, "broken", report.Outcomes[0].Matcher)
		assert.Contains(t, report.Outcomes[0].Reason, "connection reset")
		assert.Contains(t, store.settlements, vat.ID)
	})
}

func TestReconciliationService_StopOnError(t *testing.T) {
	store := newMemoryStore()
	addMovement(t, store, 1, "7777", "X", "-1.00")
	addMovement(t, store, 2, banking.CodeVAT, "IVA", "-2.00")
	registry := banking.NewMatcherRegistry(&brokenMatcher{code: "7777"}, banking.NewVATMatcher())
	service := NewReconciliationService(NewNoOpTransactionScope(store), registry, ReconciliationConfig{StopOnError: true}, nil)

	report, err := service.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, report.Aborted)
	assert.Equal(t, 1, report.Processed)
	assert.Empty(t, store.settlements)
}

func TestReconciliationService_BatchSize(t *testing.T) {
	t.Run("pages through every movement", func(t *testing.T) {
		store := newMemoryStore()
		for i := 1; i <= 5; i++ {
			addMovement(t, store, i, banking.CodeVAT, fmt.Sprintf("IVA %d", i), "-1.00")
		}
		service := NewReconciliationService(NewNoOpTransactionScope(store), nil, ReconciliationConfig{BatchSize: 2}, nil)

		report, err := service.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 5, report.Processed)
		assert.Equal(t, 5, report.Reconciled)
		_, total, err := service.ListUnreconciled(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("unmatched movements do not hide later ones", func(t *testing.T) {
		store := newMemoryStore()
		addMovement(t, store, 1, "9999", "COMISION", "-1.00")
		addMovement(t, store, 2, "9998", "GASTOS", "-2.00")
		vat := addMovement(t, store, 3, banking.CodeVAT, "IVA", "-21.00")
		service := NewReconciliationService(NewNoOpTransactionScope(store), nil, ReconciliationConfig{BatchSize: 2}, nil)

		for run := 0; run < 2; run++ {
			report, err := service.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 2, report.Unmatched)
		}

		_, settled := store.settlements[vat.ID]
		assert.True(t, settled)
		assert.Len(t, store.settlements, 1)
	})
}

func TestReconciliationService_ReconcileOne(t *testing.T) {
	store := newMemoryStore()
	vat := addMovement(t, store, 1, banking.CodeVAT, "IVA", "-2.00")
	service := NewReconciliationService(NewNoOpTransactionScope(store), nil, ReconciliationConfig{}, nil)

	outcome, err := service.ReconcileOne(context.Background(), vat.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReconciled, outcome.Outcome)
	assert.Equal(t, string(banking.SettlementVAT), outcome.Kind)
	require.NotNil(t, outcome.SettlementID)

	outcome, err = service.ReconcileOne(context.Background(), vat.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome.Outcome)
	assert.Len(t, store.settlements, 1)

	_, err = service.ReconcileOne(context.Background(), uuid.New())
	assert.True(t, shared.IsNotFound(err))
}

func decimalFrom(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
