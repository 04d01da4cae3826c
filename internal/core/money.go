// Package core provides money parsing and handling utilities.
//
// This file contains the Money type used for transaction amounts. Amounts
// are arbitrary-precision decimals so that sums and balances stay exact;
// they travel as bare JSON numbers.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	d decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

// MoneyFromFloat converts a float64, mainly for fixtures and generated data.
func MoneyFromFloat(f float64) Money {
	return Money{d: decimal.NewFromFloat(f)}
}

// ParseMoney parses a decimal string of any sign.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// exponent notation (1e3).
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

// ParseAmount parses a transaction amount, which must be strictly positive.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("0")     -> error
//	ParseAmount("-5")    -> error
func ParseAmount(s string) (Money, error) {
	m, err := ParseMoney(s)
	if err != nil {
		return Money{}, err
	}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

func (m Money) Validate() error {
	if !m.d.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) IsPositive() bool { return m.d.IsPositive() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) Abs() Money { return Money{d: m.d.Abs()} }

func (m Money) Decimal() decimal.Decimal { return m.d }

// Float64 returns the value for display and charting. Use Money for sums.
func (m Money) Float64() float64 {
	return m.d.InexactFloat64()
}

// PercentOf returns m / total * 100, or 0 when total is zero.
func (m Money) PercentOf(total Money) float64 {
	if total.d.IsZero() {
		return 0
	}
	return m.d.Div(total.d).Mul(hundred).InexactFloat64()
}

func (m Money) String() string {
	return m.d.String()
}

// Input renders the value as a form field would hold it.
func (m Money) Input() string {
	if m.d.IsZero() {
		return ""
	}
	return m.d.String()
}

// USD formats the value as en-US dollars, e.g. "$1,234.50" or "-$3.00".
func (m Money) USD() string {
	s := m.d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + "." + frac
	if m.d.IsNegative() {
		return "-" + out
	}
	return out
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return m.d.UnmarshalJSON(b)
}
