// Package core provides money parsing and handling utilities.
//
// This file contains the lenient amount reader used by the ledger and the
// percentage helper shared by every margin computation.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Exponent bounds for a readable amount. Anything outside is treated as
// malformed: rescaling such values during aggregation costs time proportional
// to the exponent.
const (
	minAmountExponent = -10
	maxAmountExponent = 18
)

// ParseAmount reads a non-negative decimal amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted, as are
// surrounding spaces. ok is false for empty, malformed or negative input, and
// for scientific notation whose exponent falls outside [-10, 18].
//
// Examples:
//   ParseAmount("12.34") -> 12.34, true
//   ParseAmount("12,34") -> 12.34, true
//   ParseAmount("-1")    -> 0, false
//   ParseAmount("abc")   -> 0, false
//   ParseAmount("1e-40") -> 0, false
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	// A single comma is a decimal separator; anything else is malformed.
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return decimal.Zero, false
	}
	return d, true
}

// CoerceAmount is ParseAmount with the zero default applied.
func CoerceAmount(s string) decimal.Decimal {
	d, _ := ParseAmount(s)
	return d
}

// MarginPercent returns profit/revenue*100 rounded to two places, or zero when
// revenue is not positive.
func MarginPercent(profit, revenue decimal.Decimal) decimal.Decimal {
	if !revenue.IsPositive() {
		return decimal.Zero
	}
	return profit.Div(revenue).Mul(hundred).Round(2)
}
