package valueobject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	ARS Currency = "ARS" // Argentine Peso (default)
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = ARS

// MoneyPlaces is the number of decimal places every stored amount keeps
const MoneyPlaces int32 = 2

// ParseCurrency validates a currency code
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	switch c {
	case ARS, USD, EUR:
		return c, nil
	case "":
		return "", errors.New("currency cannot be empty")
	default:
		return "", fmt.Errorf("unsupported currency: %s", code)
	}
}

// Money is a value object representing monetary amounts
// It is immutable - all operations return new Money instances
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency.
// The amount is rounded to MoneyPlaces.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{
		amount:   amount.Round(MoneyPlaces),
		currency: currency,
	}, nil
}

// NewMoneyARS creates Money in ARS
func NewMoneyARS(amount decimal.Decimal) Money {
	return Money{amount: amount.Round(MoneyPlaces), currency: ARS}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns a new Money with the sum of both amounts
// Returns error if currencies don't match
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{
		amount:   m.amount.Add(other.amount),
		currency: m.currency,
	}, nil
}

// CalculatePercentage returns the percentage of this Money, rounded to MoneyPlaces
func (m Money) CalculatePercentage(percent decimal.Decimal) Money {
	return Money{
		amount:   m.amount.Mul(percent).Div(decimal.NewFromInt(100)).Round(MoneyPlaces),
		currency: m.currency,
	}
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(MoneyPlaces), m.currency)
}

// ParseLocalizedAmount parses an amount written with "." as thousands
// separator and "," as decimal separator, e.g. "-1.234,56". Amounts with
// more than two significant decimals are rejected.
func ParseLocalizedAmount(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return decimal.Zero, errors.New("amount cannot be empty")
	}
	raw = strings.ReplaceAll(raw, " ", "")
	raw = strings.TrimPrefix(raw, "$")
	normalized := strings.ReplaceAll(raw, ".", "")
	normalized = strings.Replace(normalized, ",", ".", 1)
	if strings.Contains(normalized, ",") {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.Equal(d.Round(MoneyPlaces)) {
		return decimal.Zero, fmt.Errorf("invalid amount %q: more than %d decimals", s, MoneyPlaces)
	}
	return d, nil
}
