package valueobject

import (
	"errors"
	"fmt"
	"strings"
)

// TaxIDLength is the number of digits of a CUIT
const TaxIDLength = 11

// AccountNumberLength is the number of digits of a CBU
const AccountNumberLength = 22

var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// TaxID is an Argentine CUIT/CUIL, stored as 11 digits without separators
type TaxID struct {
	value string
}

// NewTaxID parses a CUIT. Dashes and spaces are ignored; the check digit is verified.
func NewTaxID(raw string) (TaxID, error) {
	digits := stripSeparators(raw)
	if len(digits) != TaxIDLength || !isDigits(digits) {
		return TaxID{}, fmt.Errorf("tax id must have %d digits: %q", TaxIDLength, raw)
	}
	if checkDigit(digits[:10]) != int(digits[10]-'0') {
		return TaxID{}, fmt.Errorf("tax id check digit mismatch: %q", raw)
	}
	return TaxID{value: digits}, nil
}

// MustNewTaxID is NewTaxID for constants and tests, panics on invalid input
func MustNewTaxID(raw string) TaxID {
	id, err := NewTaxID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the 11 digits
func (t TaxID) String() string {
	return t.value
}

// Formatted returns the dashed form XX-XXXXXXXX-X
func (t TaxID) Formatted() string {
	if t.value == "" {
		return ""
	}
	return t.value[:2] + "-" + t.value[2:10] + "-" + t.value[10:]
}

// IsZero returns true for an unset tax id
func (t TaxID) IsZero() bool {
	return t.value == ""
}

func checkDigit(base string) int {
	sum := 0
	for i, w := range cuitWeights {
		sum += int(base[i]-'0') * w
	}
	d := 11 - sum%11
	switch d {
	case 11:
		return 0
	case 10:
		return 9
	default:
		return d
	}
}

// NormalizeAccountNumber validates a CBU and returns its 22 digits
func NormalizeAccountNumber(raw string) (string, error) {
	digits := stripSeparators(raw)
	if digits == "" {
		return "", errors.New("account number cannot be empty")
	}
	if len(digits) != AccountNumberLength || !isDigits(digits) {
		return "", fmt.Errorf("account number must have %d digits: %q", AccountNumberLength, raw)
	}
	return digits, nil
}

func stripSeparators(s string) string {
	return strings.NewReplacer("-", "", " ", "", ".", "").Replace(strings.TrimSpace(s))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
