package banking

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
)

// BankMovement is one line of a bank statement. Movements are immutable;
// a movement is reconciled when a Settlement references it.
type BankMovement struct {
	shared.BaseEntity
	Date        time.Time       `json:"date"`
	Code        string          `json:"code"` // bank operation code
	Concept     string          `json:"concept"`
	Amount      decimal.Decimal `json:"amount"`  // pesos, negative for debits
	Balance     decimal.Decimal `json:"balance"` // running balance printed by the bank
	LineNo      int             `json:"line_no"` // position in the imported statement
	Fingerprint string          `json:"fingerprint"`
}

// MovementCursor is a position in sweep order: date, statement line, id
type MovementCursor struct {
	Date   time.Time
	LineNo int
	ID     uuid.UUID
}

// Cursor returns the sweep position of the movement
func (m *BankMovement) Cursor() MovementCursor {
	return MovementCursor{Date: m.Date, LineNo: m.LineNo, ID: m.ID}
}

// Less reports whether c sorts before o
func (c MovementCursor) Less(o MovementCursor) bool {
	if !c.Date.Equal(o.Date) {
		return c.Date.Before(o.Date)
	}
	if c.LineNo != o.LineNo {
		return c.LineNo < o.LineNo
	}
	return bytes.Compare(c.ID[:], o.ID[:]) < 0
}

// NewBankMovement creates a movement. occurrence distinguishes identical
// lines within the same statement (0 for the first one), so re-importing a
// statement yields the same fingerprints.
func NewBankMovement(date time.Time, code, concept string, amount, balance decimal.Decimal, lineNo, occurrence int) (*BankMovement, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "Movement code cannot be empty")
	}
	if date.IsZero() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "Movement date cannot be empty")
	}
	m := &BankMovement{
		BaseEntity: shared.NewBaseEntity(),
		Date:       date,
		Code:       code,
		Concept:    concept,
		Amount:     amount.Round(valueobject.MoneyPlaces),
		Balance:    balance.Round(valueobject.MoneyPlaces),
		LineNo:     lineNo,
	}
	m.Fingerprint = Fingerprint(m.Date, m.Code, m.Concept, m.Amount, m.Balance, occurrence)
	return m, nil
}

// AbsAmount returns the unsigned amount used by settlements
func (m *BankMovement) AbsAmount() decimal.Decimal {
	return m.Amount.Abs()
}

// Fingerprint hashes the normalized fields of a statement line
func Fingerprint(date time.Time, code, concept string, amount, balance decimal.Decimal, occurrence int) string {
	h := sha256.New()
	for _, part := range []string{
		date.Format("2006-01-02"),
		code,
		strings.TrimSpace(concept),
		amount.StringFixed(valueobject.MoneyPlaces),
		balance.StringFixed(valueobject.MoneyPlaces),
		strconv.Itoa(occurrence),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0x1f})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PlannedPayment is a payment to a consultant waiting for bank confirmation (PagoPlanificado)
type PlannedPayment struct {
	shared.BaseEntity
	ConsultantID uuid.UUID       `json:"consultant_id"`
	DeliveryRef  string          `json:"delivery_ref"` // entrega the payment belongs to
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"due_date"`
}

// NewPlannedPayment creates a planned payment
func NewPlannedPayment(consultantID uuid.UUID, deliveryRef string, amount decimal.Decimal, dueDate time.Time) (*PlannedPayment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewValidationError(shared.CodeInvalidAmount, "Planned payment amount must be positive")
	}
	return &PlannedPayment{
		BaseEntity:   shared.NewBaseEntity(),
		ConsultantID: consultantID,
		DeliveryRef:  strings.TrimSpace(deliveryRef),
		Amount:       amount.Round(valueobject.MoneyPlaces),
		DueDate:      dueDate,
	}, nil
}

// Debt is an outstanding amount a client owes for an invoice
type Debt struct {
	shared.BaseEntity
	ClientID  uuid.UUID       `json:"client_id"`
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewDebt creates a debt record
func NewDebt(clientID, invoiceID uuid.UUID, amount decimal.Decimal) (*Debt, error) {
	if !amount.IsPositive() {
		return nil, shared.NewValidationError(shared.CodeInvalidAmount, "Debt amount must be positive")
	}
	return &Debt{
		BaseEntity: shared.NewBaseEntity(),
		ClientID:   clientID,
		InvoiceID:  invoiceID,
		Amount:     amount.Round(valueobject.MoneyPlaces),
	}, nil
}
