package banking

import (
	"context"
	"fmt"
	"strings"

	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
)

// Bank operation codes handled by the reconciler
const (
	CodeCheckTaxDebit      = "4633"
	CodeCheckTaxCredit     = "4637"
	CodeVAT                = "3254"
	CodeConsultantTransfer = "0824"
	CodeClientTransfer     = "2376"
	CodeClientTransferAlt  = "2377"
)

// Layout of client transfer concepts: a fixed-width bank prefix, the payer
// name followed by its CUIT, and a fixed-width suffix.
const (
	clientConceptPrefix = 38
	clientConceptSuffix = 11
)

// Matcher recognizes one kind of bank movement and settles it.
// Matches must not write; Settle may delete the records it consumes but
// leaves saving the returned settlement to the caller.
type Matcher interface {
	Name() string
	Kind() SettlementKind
	Matches(ctx context.Context, m *BankMovement, repos Repositories) (bool, error)
	Settle(ctx context.Context, m *BankMovement, repos Repositories) (*Settlement, error)
}

// MatcherRegistry is an ordered list of matchers; the first match wins
type MatcherRegistry struct {
	matchers []Matcher
}

// NewMatcherRegistry creates a registry evaluating matchers in the given order
func NewMatcherRegistry(matchers ...Matcher) *MatcherRegistry {
	return &MatcherRegistry{matchers: matchers}
}

// DefaultMatcherRegistry returns the registry with the four built-in matchers
func DefaultMatcherRegistry() *MatcherRegistry {
	return NewMatcherRegistry(
		NewCheckTaxMatcher(),
		NewVATMatcher(),
		NewConsultantPaymentMatcher(),
		NewClientCollectionMatcher(),
	)
}

// Matchers returns the matchers in evaluation order
func (r *MatcherRegistry) Matchers() []Matcher {
	out := make([]Matcher, len(r.matchers))
	copy(out, r.matchers)
	return out
}

// Classify returns the first matcher accepting the movement, or nil
func (r *MatcherRegistry) Classify(ctx context.Context, m *BankMovement, repos Repositories) (Matcher, error) {
	for _, matcher := range r.matchers {
		ok, err := matcher.Matches(ctx, m, repos)
		if err != nil {
			return nil, fmt.Errorf("matcher %s: %w", matcher.Name(), err)
		}
		if ok {
			return matcher, nil
		}
	}
	return nil, nil
}

// codeMatcher settles movements by operation code alone
type codeMatcher struct {
	name  string
	kind  SettlementKind
	codes map[string]struct{}
}

func newCodeMatcher(name string, kind SettlementKind, codes ...string) *codeMatcher {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return &codeMatcher{name: name, kind: kind, codes: set}
}

func (c *codeMatcher) Name() string         { return c.name }
func (c *codeMatcher) Kind() SettlementKind { return c.kind }

func (c *codeMatcher) Matches(_ context.Context, m *BankMovement, _ Repositories) (bool, error) {
	_, ok := c.codes[m.Code]
	return ok, nil
}

func (c *codeMatcher) Settle(_ context.Context, m *BankMovement, _ Repositories) (*Settlement, error) {
	return NewTaxSettlement(c.kind, m)
}

// NewCheckTaxMatcher matches the tax on bank debits and credits
func NewCheckTaxMatcher() Matcher {
	return newCodeMatcher("check_tax", SettlementCheckTax, CodeCheckTaxDebit, CodeCheckTaxCredit)
}

// NewVATMatcher matches general-rate VAT charged by the bank
func NewVATMatcher() Matcher {
	return newCodeMatcher("vat", SettlementVAT, CodeVAT)
}

// ConsultantPaymentMatcher confirms transfers to consultants. The concept
// ends with the destination CBU.
type ConsultantPaymentMatcher struct{}

// NewConsultantPaymentMatcher creates a ConsultantPaymentMatcher
func NewConsultantPaymentMatcher() *ConsultantPaymentMatcher {
	return &ConsultantPaymentMatcher{}
}

func (c *ConsultantPaymentMatcher) Name() string         { return "consultant_payment" }
func (c *ConsultantPaymentMatcher) Kind() SettlementKind { return SettlementConsultantPayment }

func (c *ConsultantPaymentMatcher) Matches(ctx context.Context, m *BankMovement, repos Repositories) (bool, error) {
	if m.Code != CodeConsultantTransfer {
		return false, nil
	}
	account, ok := ConceptAccountNumber(m.Concept)
	if !ok {
		return false, nil
	}
	if _, err := repos.Consultants().FindByAccountNumber(ctx, account); err != nil {
		if shared.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *ConsultantPaymentMatcher) Settle(ctx context.Context, m *BankMovement, repos Repositories) (*Settlement, error) {
	account, ok := ConceptAccountNumber(m.Concept)
	if !ok {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "Concept does not end with an account number")
	}
	consultant, err := repos.Consultants().FindByAccountNumber(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("find consultant by account %s: %w", account, err)
	}
	payment, err := repos.PlannedPayments().FindPendingByConsultantAndAmount(ctx, consultant.ID, m.AbsAmount())
	if err != nil {
		return nil, fmt.Errorf("find planned payment of %s for %s: %w", consultant.Name, m.AbsAmount().StringFixed(2), err)
	}
	settlement := NewConsultantPaymentSettlement(m, payment)
	if err := repos.PlannedPayments().Delete(ctx, payment.ID); err != nil {
		return nil, fmt.Errorf("delete planned payment: %w", err)
	}
	return settlement, nil
}

// ClientCollectionMatcher settles transfers received from clients against
// their outstanding debts
type ClientCollectionMatcher struct{}

// NewClientCollectionMatcher creates a ClientCollectionMatcher
func NewClientCollectionMatcher() *ClientCollectionMatcher {
	return &ClientCollectionMatcher{}
}

func (c *ClientCollectionMatcher) Name() string         { return "client_collection" }
func (c *ClientCollectionMatcher) Kind() SettlementKind { return SettlementClientCollection }

func (c *ClientCollectionMatcher) Matches(_ context.Context, m *BankMovement, _ Repositories) (bool, error) {
	return m.Code == CodeClientTransfer || m.Code == CodeClientTransferAlt, nil
}

func (c *ClientCollectionMatcher) Settle(ctx context.Context, m *BankMovement, repos Repositories) (*Settlement, error) {
	name, taxID, err := ParseClientConcept(m.Concept)
	if err != nil {
		return nil, err
	}
	client, err := repos.Clients().FindByTaxIDAndName(ctx, taxID, name)
	if err != nil {
		return nil, fmt.Errorf("find client %s (%s): %w", name, taxID.Formatted(), err)
	}
	debt, err := repos.Debts().FindByClientAndAmount(ctx, client.ID, m.AbsAmount())
	if err != nil {
		return nil, fmt.Errorf("find debt of %s for %s: %w", client.Name, m.AbsAmount().StringFixed(2), err)
	}
	settlement := NewClientCollectionSettlement(m, debt)
	if err := repos.Debts().Delete(ctx, debt.ID); err != nil {
		return nil, fmt.Errorf("delete debt: %w", err)
	}
	return settlement, nil
}

// ConceptAccountNumber returns the last 22 characters of the trimmed
// concept when they form a CBU
func ConceptAccountNumber(concept string) (string, bool) {
	runes := []rune(strings.TrimSpace(concept))
	if len(runes) < valueobject.AccountNumberLength {
		return "", false
	}
	account, err := valueobject.NormalizeAccountNumber(string(runes[len(runes)-valueobject.AccountNumberLength:]))
	if err != nil {
		return "", false
	}
	return account, true
}

// ParseClientConcept extracts payer name and CUIT from a client transfer concept
func ParseClientConcept(concept string) (string, valueobject.TaxID, error) {
	runes := []rune(concept)
	if len(runes) <= clientConceptPrefix+clientConceptSuffix+valueobject.TaxIDLength {
		return "", valueobject.TaxID{}, shared.NewValidationError(shared.CodeInvalidInput,
			fmt.Sprintf("Client transfer concept too short: %q", concept))
	}
	payer := runes[clientConceptPrefix : len(runes)-clientConceptSuffix]
	rawTaxID := string(payer[len(payer)-valueobject.TaxIDLength:])
	name := strings.TrimSpace(string(payer[:len(payer)-valueobject.TaxIDLength]))
	if name == "" {
		return "", valueobject.TaxID{}, shared.NewValidationError(shared.CodeInvalidInput,
			fmt.Sprintf("Client transfer concept has no payer name: %q", concept))
	}
	taxID, err := valueobject.NewTaxID(rawTaxID)
	if err != nil {
		return "", valueobject.TaxID{}, shared.NewValidationError(shared.CodeInvalidTaxID, err.Error())
	}
	return name, taxID, nil
}
