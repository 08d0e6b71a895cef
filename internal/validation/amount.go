package validation

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountInvalid     = errors.New("invalid amount")
	ErrAmountNotPositive = errors.New("amount must be positive")
	ErrAmountNegative    = errors.New("amount cannot be negative")
)

// ParseAmount parses a money amount from user or model input. Accepts plain
// numbers and common shorthand: "500", "$500", "€500.50", "1,250.00".
// Returns the amount rounded to cents (half-up).
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "$€£")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")

	if s == "" {
		return decimal.Zero, ErrAmountInvalid
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrAmountInvalid
	}
	return d.Round(2), nil
}

// ParsePositiveAmount parses an amount that must be strictly positive, like
// a goal target or a deposit.
func ParsePositiveAmount(raw string) (decimal.Decimal, error) {
	d, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrAmountNotPositive
	}
	return d, nil
}

// ParseNonNegativeAmount parses an amount that may be zero, like an initial
// deposit.
func ParseNonNegativeAmount(raw string) (decimal.Decimal, error) {
	d, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, ErrAmountNegative
	}
	return d, nil
}
