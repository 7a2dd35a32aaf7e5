// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package models

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a non-negative amount with exactly two fractional digits.
// It marshals as a JSON number ("17.00" on the wire is 17.00, not "17").
type Money struct {
	d decimal.Decimal
}

// NewMoney rounds v half away from zero to two decimals.
func NewMoney(v decimal.Decimal) Money {
	return Money{d: v.Round(2)}
}

// MoneyFromFloat is a convenience for tests and the seed catalogue.
func MoneyFromFloat(f float64) Money {
	return NewMoney(decimal.NewFromFloat(f))
}

// ParseMoney accepts "8.50", "8,50" and "8" (currency signs are stripped).
func ParseMoney(s string) (Money, error) {
	clean := strings.TrimSpace(s)
	clean = strings.NewReplacer("€", "", "$", "", " ", "").Replace(clean)
	clean = strings.ReplaceAll(clean, ",", ".")
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoney(d), nil
}

// Decimal returns the underlying value.
func (m Money) Decimal() decimal.Decimal { return m.d }

// Times returns round2(m × n).
func (m Money) Times(n int) Money {
	return NewMoney(m.d.Mul(decimal.NewFromInt(int64(n))))
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// Equal compares amounts, ignoring representation.
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// String formats with a decimal point: "17.00".
func (m Money) String() string { return m.d.StringFixed(2) }

// Comma formats with a decimal comma: "17,00".
func (m Money) Comma() string { return strings.Replace(m.String(), ".", ",", 1) }

// Digits drops the decimal point: "17.00" becomes "1700".
func (m Money) Digits() string { return strings.Replace(m.String(), ".", "", 1) }

// MarshalJSON writes a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted amount.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
