/*
Package finance provides the calculation primitives for the lease engine.

PURPOSE:
  This package contains domain-agnostic financial building blocks: a
  day-granular calendar Date matching spreadsheet EOMONTH/EDATE semantics,
  compound-interest and present-value factor math, and risk-free rate
  tables for provision discounting. Everything monetary is decimal.Decimal;
  no float64 ever touches a balance.

KEY CONCEPTS IN THIS FILE (money.go):
  - Decimal construction and comparison helpers shared across packages
  - Clamp: bounded values (depreciation can never exceed carrying amount)

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere to avoid floating-point drift
  2. Purity: no package-level mutable state outside the rate table
  3. Injection: callers supply rate lookups, the engine never reads files

SEE ALSO:
  - calendar.go: Date type and spreadsheet date functions
  - compound.go: growth and present-value factors
  - rates.go: risk-free rate tables
*/
package finance

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var (
	Zero    = decimal.Zero
	One     = decimal.NewFromInt(1)
	Hundred = decimal.NewFromInt(100)
	Twelve  = decimal.NewFromInt(12)

	daysPerYear = decimal.NewFromInt(365)
)

func FromInt(v int64) decimal.Decimal     { return decimal.NewFromInt(v) }
func FromFloat(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// MustDecimal parses s, returning zero on malformed input. Used for
// constants and seeded reference data, never for user payloads.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// Sum adds a variadic list of decimals.
func Sum(vs ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vs {
		total = total.Add(v)
	}
	return total
}

// NormalizePercent interprets a rate field that legacy data recorded
// inconsistently: values >= 1 are whole percents (5 means 5%), values
// below 1 are decimals (0.05 also means 5%). Returns a whole percent.
func NormalizePercent(v decimal.Decimal) decimal.Decimal {
	if v.IsZero() {
		return decimal.Zero
	}
	if v.Abs().LessThan(One) {
		return v.Mul(Hundred)
	}
	return v
}
