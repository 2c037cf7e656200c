package banking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/partner"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const consultantAccount = "0110599520000012345678"

var movementDate = time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)

func newTestMovement(t *testing.T, code, concept, amount string) *BankMovement {
	t.Helper()
	m, err := NewBankMovement(movementDate, code, concept, decimal.RequireFromString(amount), decimal.NewFromInt(100000), 1, 0)
	require.NoError(t, err)
	return m
}

func clientConcept(name, taxID string) string {
	return fmt.Sprintf("%-38s", "TRANSF RECIBIDA CTA 0000012345") + name + " " + taxID + "0000000001 "
}

func TestBankMovement(t *testing.T) {
	t.Run("fingerprint is stable and depends on occurrence", func(t *testing.T) {
		a, err := NewBankMovement(movementDate, "3254", "IVA", decimal.RequireFromString("-10.5"), decimal.Zero, 3, 0)
		require.NoError(t, err)
		b, err := NewBankMovement(movementDate, "3254", "IVA ", decimal.RequireFromString("-10.50"), decimal.Zero, 9, 0)
		require.NoError(t, err)
		c, err := NewBankMovement(movementDate, "3254", "IVA", decimal.RequireFromString("-10.5"), decimal.Zero, 4, 1)
		require.NoError(t, err)

		assert.Equal(t, a.Fingerprint, b.Fingerprint)
		assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
		assert.Len(t, a.Fingerprint, 64)
	})

	t.Run("requires code and date", func(t *testing.T) {
		_, err := NewBankMovement(movementDate, " ", "x", decimal.Zero, decimal.Zero, 1, 0)
		assert.True(t, shared.IsValidation(err))
		_, err = NewBankMovement(time.Time{}, "3254", "x", decimal.Zero, decimal.Zero, 1, 0)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestMatcherRegistry_Classify(t *testing.T) {
	ctx := context.Background()
	registry := DefaultMatcherRegistry()

	names := make([]string, 0)
	for _, m := range registry.Matchers() {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"check_tax", "vat", "consultant_payment", "client_collection"}, names)

	t.Run("code matchers", func(t *testing.T) {
		repos := newMockRepositories()
		tests := []struct {
			code string
			want SettlementKind
		}{
			{code: CodeCheckTaxDebit, want: SettlementCheckTax},
			{code: CodeCheckTaxCredit, want: SettlementCheckTax},
			{code: CodeVAT, want: SettlementVAT},
			{code: CodeClientTransfer, want: SettlementClientCollection},
			{code: CodeClientTransferAlt, want: SettlementClientCollection},
		}
		for _, tt := range tests {
			t.Run(tt.code, func(t *testing.T) {
				matcher, err := registry.Classify(ctx, newTestMovement(t, tt.code, "x", "-1"), repos)
				require.NoError(t, err)
				require.NotNil(t, matcher)
				assert.Equal(t, tt.want, matcher.Kind())
			})
		}
	})

	t.Run("unknown code has no match", func(t *testing.T) {
		matcher, err := registry.Classify(ctx, newTestMovement(t, "9999", "x", "-1"), newMockRepositories())
		require.NoError(t, err)
		assert.Nil(t, matcher)
	})

	t.Run("consultant transfer to an unknown account has no match", func(t *testing.T) {
		repos := newMockRepositories()
		repos.consultants.On("FindByAccountNumber", ctx, "2850590940090418135201").Return(nil, shared.ErrNotFound)

		m := newTestMovement(t, CodeConsultantTransfer, "TRANSFERENCIA A TERCEROS 2850590940090418135201 ", "-5000")
		matcher, err := registry.Classify(ctx, m, repos)
		require.NoError(t, err)
		assert.Nil(t, matcher)
		repos.consultants.AssertExpectations(t)
	})

	t.Run("consultant transfer without account has no match", func(t *testing.T) {
		m := newTestMovement(t, CodeConsultantTransfer, "TRANSFERENCIA", "-5000")
		matcher, err := registry.Classify(ctx, m, newMockRepositories())
		require.NoError(t, err)
		assert.Nil(t, matcher)
	})

	t.Run("lookup errors are returned", func(t *testing.T) {
		repos := newMockRepositories()
		repos.consultants.On("FindByAccountNumber", ctx, consultantAccount).Return(nil, assert.AnError)

		m := newTestMovement(t, CodeConsultantTransfer, "TRANSF "+consultantAccount, "-5000")
		_, err := registry.Classify(ctx, m, repos)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestTaxMatchers_Settle(t *testing.T) {
	ctx := context.Background()

	t.Run("VAT debit becomes a positive settlement on the movement date", func(t *testing.T) {
		m := newTestMovement(t, CodeVAT, "IVA TASA GENERAL", "-1234.56")

		s, err := NewVATMatcher().Settle(ctx, m, newMockRepositories())
		require.NoError(t, err)
		assert.Equal(t, SettlementVAT, s.Kind)
		assert.Equal(t, m.ID, s.MovementID)
		assert.True(t, s.Amount.Equal(decimal.RequireFromString("1234.56")))
		assert.Equal(t, movementDate, s.Date)
		assert.Equal(t, EventTypeMovementReconciled, s.GetDomainEvents()[0].EventType())
	})

	t.Run("check tax", func(t *testing.T) {
		m := newTestMovement(t, CodeCheckTaxCredit, "IMP LEY 25413", "-6.00")

		s, err := NewCheckTaxMatcher().Settle(ctx, m, newMockRepositories())
		require.NoError(t, err)
		assert.Equal(t, SettlementCheckTax, s.Kind)
		assert.True(t, s.Amount.Equal(decimal.NewFromInt(6)))
	})
}

func TestConsultantPaymentMatcher_Settle(t *testing.T) {
	ctx := context.Background()
	consultant, err := partner.NewConsultant("Juan Perez", "20123456786", consultantAccount)
	require.NoError(t, err)
	m := newTestMovement(t, CodeConsultantTransfer, "  TRANSFERENCIA A TERCEROS "+consultantAccount+"  ", "-5000.00")

	t.Run("confirms the planned payment", func(t *testing.T) {
		payment, err := NewPlannedPayment(consultant.ID, "ENTREGA-42", decimal.NewFromInt(5000), movementDate)
		require.NoError(t, err)

		repos := newMockRepositories()
		repos.consultants.On("FindByAccountNumber", ctx, consultantAccount).Return(consultant, nil)
		repos.payments.On("FindPendingByConsultantAndAmount", ctx, consultant.ID, decimalEq("5000")).Return(payment, nil)
		repos.payments.On("Delete", ctx, payment.ID).Return(nil)

		matcher := NewConsultantPaymentMatcher()
		ok, err := matcher.Matches(ctx, m, repos)
		require.NoError(t, err)
		require.True(t, ok)

		s, err := matcher.Settle(ctx, m, repos)
		require.NoError(t, err)
		assert.Equal(t, SettlementConsultantPayment, s.Kind)
		require.NotNil(t, s.ConsultantID)
		assert.Equal(t, consultant.ID, *s.ConsultantID)
		assert.Equal(t, "ENTREGA-42", s.DeliveryRef)
		assert.True(t, s.Amount.Equal(decimal.NewFromInt(5000)))
		repos.payments.AssertExpectations(t)
	})

	t.Run("missing planned payment is not found", func(t *testing.T) {
		repos := newMockRepositories()
		repos.consultants.On("FindByAccountNumber", ctx, consultantAccount).Return(consultant, nil)
		repos.payments.On("FindPendingByConsultantAndAmount", ctx, consultant.ID, mock.Anything).Return(nil, shared.ErrNotFound)

		_, err := NewConsultantPaymentMatcher().Settle(ctx, m, repos)
		require.Error(t, err)
		assert.True(t, shared.IsNotFound(err))
		repos.payments.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestClientCollectionMatcher_Settle(t *testing.T) {
	ctx := context.Background()
	client, err := partner.NewClient("ACME SA", "30712345671", "")
	require.NoError(t, err)
	taxID := valueobject.MustNewTaxID("30712345671")
	m := newTestMovement(t, CodeClientTransfer, clientConcept("ACME SA", "30712345671"), "12100.00")

	t.Run("collects the debt", func(t *testing.T) {
		invoiceID := client.ID // any id works as invoice reference here
		debt, err := NewDebt(client.ID, invoiceID, decimal.NewFromInt(12100))
		require.NoError(t, err)

		repos := newMockRepositories()
		repos.clients.On("FindByTaxIDAndName", ctx, taxID, "ACME SA").Return(client, nil)
		repos.debts.On("FindByClientAndAmount", ctx, client.ID, decimalEq("12100")).Return(debt, nil)
		repos.debts.On("Delete", ctx, debt.ID).Return(nil)

		s, err := NewClientCollectionMatcher().Settle(ctx, m, repos)
		require.NoError(t, err)
		assert.Equal(t, SettlementClientCollection, s.Kind)
		require.NotNil(t, s.ClientID)
		require.NotNil(t, s.InvoiceID)
		assert.Equal(t, client.ID, *s.ClientID)
		assert.Equal(t, invoiceID, *s.InvoiceID)
		repos.debts.AssertExpectations(t)
	})

	t.Run("unknown client is not found", func(t *testing.T) {
		repos := newMockRepositories()
		repos.clients.On("FindByTaxIDAndName", ctx, taxID, "ACME SA").Return(nil, shared.ErrNotFound)

		_, err := NewClientCollectionMatcher().Settle(ctx, m, repos)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("malformed concept is a validation error", func(t *testing.T) {
		short := newTestMovement(t, CodeClientTransferAlt, "TRANSF CORTA", "100")
		_, err := NewClientCollectionMatcher().Settle(ctx, short, newMockRepositories())
		assert.True(t, shared.IsValidation(err))
	})
}

func TestParseClientConcept(t *testing.T) {
	name, taxID, err := ParseClientConcept(clientConcept("LOS ÑANDÚES SRL", "30712345671"))
	require.NoError(t, err)
	assert.Equal(t, "LOS ÑANDÚES SRL", name)
	assert.Equal(t, "30712345671", taxID.String())

	_, _, err = ParseClientConcept(clientConcept("ACME SA", "30712345670"))
	assert.True(t, shared.IsValidation(err))
}

func TestConceptAccountNumber(t *testing.T) {
	got, ok := ConceptAccountNumber("TRANSF " + consultantAccount + "   ")
	assert.True(t, ok)
	assert.Equal(t, consultantAccount, got)

	_, ok = ConceptAccountNumber("TRANSF A 12345")
	assert.False(t, ok)
}
