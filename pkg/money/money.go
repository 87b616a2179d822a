// Package money converts between decimal major units and int64 minor units.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ToMinor converts a major-unit amount (e.g. 10.50) to minor units (1050),
// rounding half away from zero
func ToMinor(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromMinor converts minor units to a decimal major-unit amount
func FromMinor(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

// Float is FromMinor as a float64, for JSON responses
func Float(v int64) float64 {
	return FromMinor(v).InexactFloat64()
}
