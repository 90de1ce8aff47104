/*
compound.go - Growth and present-value factor math

PURPOSE:
  The engine discounts and accretes cash flows with the exact factor the
  legacy spreadsheet used:

      (1 + rate * m/12) ^ ((days/365) * 12/m)

  where m is the compounding interval in months. Exponents are fractional,
  so powers go through decimal.PowWithPrecision rather than float math.

SEE ALSO:
  - lease/schedule.go: the valuation pass consuming these factors
*/
package finance

import (
	"github.com/shopspring/decimal"
)

// powPrecision bounds the internal precision of fractional exponentiation.
// 24 digits keeps factor products stable over multi-decade schedules while
// staying cheap.
const powPrecision = 24

// DeriveCompoundMonths maps a payment frequency to the compounding
// interval the legacy engine used: quarterly and semi-annual frequencies
// compound at their own interval, annual-or-longer compounds annually,
// anything else monthly. An explicit interval is honored only when it
// matches the payment frequency.
func DeriveCompoundMonths(frequencyMonths, explicit int) int {
	derived := 1
	switch {
	case frequencyMonths == 3:
		derived = 3
	case frequencyMonths == 6:
		derived = 6
	case frequencyMonths >= 12:
		derived = 12
	}
	if explicit > 0 && explicit == frequencyMonths {
		return explicit
	}
	return derived
}

// GrowthFactor returns (1 + rate*m/12)^((days/365)*12/m) for a decimal
// annual rate (0.08 for 8%). Non-positive day counts and rates yield a
// factor of one.
func GrowthFactor(rate decimal.Decimal, days int, compoundMonths int) decimal.Decimal {
	if days <= 0 || !rate.IsPositive() || compoundMonths <= 0 {
		return One
	}
	m := decimal.NewFromInt(int64(compoundMonths))
	base := One.Add(rate.Mul(m).Div(Twelve))
	exp := decimal.NewFromInt(int64(days)).Div(daysPerYear).Mul(Twelve).Div(m)
	f, err := base.PowWithPrecision(exp, powPrecision)
	if err != nil {
		return One
	}
	return f
}

// PVFactor discounts one currency unit from days in the future back to
// today at the given decimal annual rate.
func PVFactor(rate decimal.Decimal, days int, compoundMonths int) decimal.Decimal {
	return One.Div(GrowthFactor(rate, days, compoundMonths))
}

// MonthlyPVFactor is the monthly-compounded special case used for
// security-deposit and provision discounting: 1/(1+rate/12)^((days/365)*12).
func MonthlyPVFactor(rate decimal.Decimal, days int) decimal.Decimal {
	return PVFactor(rate, days, 1)
}

// CompoundPow raises base to an integer power, used by the rental
// escalation chain ((1+pct)^k).
func CompoundPow(base decimal.Decimal, k int) decimal.Decimal {
	if k <= 0 {
		return One
	}
	f, err := base.PowWithPrecision(decimal.NewFromInt(int64(k)), powPrecision)
	if err != nil {
		return One
	}
	return f
}
