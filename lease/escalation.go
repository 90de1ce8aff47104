/*
escalation.go - Escalated rental resolution

PURPOSE:
  Answers "what is the rental for payment number n, and through when
  does that amount run?". Escalations are anchored to a yearly grid
  built from the escalation start date and the lease's accrual day, so
  the bracket search first locates the grid, then steps escalation
  periods forward. When the grid is misaligned with the payment cycle
  (offset anchor), the boundary payment is a day-weighted blend of the
  old and new rates.

BOUNDS:
  The period search never exceeds 200 steps; running out means the
  escalation terms can't describe the lease and the caller gets
  ErrComputationExhausted rather than a silent wrong rental.
*/
package lease

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/finance"
)

const maxEscalationIterations = 200

// ResolveRental returns the escalated rental for the 1-based payment
// index n, together with the boundary date of its escalation period.
// A payment dated strictly before the boundary uses the returned
// amount; a payment on or after it belongs to the next bracket. Leases
// without escalation terms resolve to Rental1 bounded by EndDate.
func ResolveRental(ld *LeaseData, n int) (decimal.Decimal, finance.Date, error) {
	fre := ld.EscalationFreqMonths
	pct := finance.NormalizePercent(ld.EscalationPercent)
	if fre == 0 || pct.IsZero() || ld.FrequencyMonths == 0 {
		return ld.Rental1, ld.EndDate, nil
	}

	escStart := ld.EscalationStart
	if escStart.IsZero() {
		escStart = ld.StartDate
	}

	day := escalationDay(ld.DayOfMonth, ld.StartDate)

	// Anchor grid: one year before the escalation start, in the lease
	// start month, on the accrual day.
	begind := finance.NewDate(escStart.Year()-1, ld.StartDate.Month(), ld.AccrualDay)

	startd := begind
	for t := 1; t <= 24; t++ {
		e := begind.AddMonths(ld.FrequencyMonths * t)
		if escStart.Before(e) {
			startd = begind.AddMonths(ld.FrequencyMonths * (t - 1))
			break
		}
		if escStart.Equal(e) {
			startd = e
			break
		}
	}

	begdate := startd
	begdate1 := dateOnDay(begdate.Year(), begdate.Month(), day)
	startd = finance.NewDate(startd.Year(), startd.Month(), ld.AccrualDay)

	// Misalignment between the accrual anchor and the escalation start,
	// in days. Non-zero engages the blended boundary payments.
	offse := finance.DaysBetween(escStart, startd)

	u := n
	if n%2 == 0 {
		u = n - 1
	}
	k := 0
	if offse != 0 {
		k = u / 2
	}

	growth := finance.One.Add(pct.Div(finance.Hundred))
	rental := ld.Rental1

	for i := u; i <= maxEscalationIterations; {
		validUntil := begdate1.AddMonths(fre * (i - k)).AddDays(-1)
		amount := rental.Mul(finance.CompoundPow(growth, i-1-k))

		if n == i {
			return amount, validUntil, nil
		}
		if validUntil.AfterOrEqual(ld.EndDate) {
			return amount, ld.EndDate, nil
		}

		if offse != 0 {
			validUntil = begdate1.AddMonths(fre * (i - k))
			periodDays := finance.DaysBetween(
				begdate.AddMonths(fre*(i-k)),
				begdate.AddMonths(fre*(i-k)+ld.FrequencyMonths),
			)
			if offse < 0 {
				offse = periodDays + offse
			}
			off := decimal.NewFromInt(int64(offse))
			period := decimal.NewFromInt(int64(periodDays))
			// Day-weighted blend of the new and old escalated amounts
			// across the boundary period.
			amount = rental.Mul(finance.CompoundPow(growth, i-k)).Mul(off).Div(period).
				Add(rental.Mul(finance.CompoundPow(growth, i-1-k)).Mul(period.Sub(off)).Div(period))
			i++
			if n == i {
				return amount, validUntil, nil
			}
			k++
			if validUntil.AfterOrEqual(ld.EndDate) {
				return amount, ld.EndDate, nil
			}
		}
		i++
	}

	return decimal.Zero, finance.Date{}, &ExhaustedError{
		Stage:      "escalation",
		Iterations: maxEscalationIterations,
		LeaseID:    ld.ID,
	}
}

// escalationDay resolves the grid day. The "Last" rule collapses to a
// fixed day per the lease start month (31/28/30), not per period.
func escalationDay(dm DayOfMonth, start finance.Date) int {
	if !dm.Last {
		if dm.Day >= 1 {
			return dm.Day
		}
		return 1
	}
	switch start.Month() {
	case time.January, time.March, time.May, time.July, time.August, time.October, time.December:
		return 31
	case time.February:
		return 28
	default:
		return 30
	}
}

// dateOnDay builds a date clamping the day into the month.
func dateOnDay(year int, month time.Month, day int) finance.Date {
	eom := finance.NewDate(year, month, 1).EOMonth(0)
	if day > eom.Day() {
		day = eom.Day()
	}
	return finance.NewDate(year, month, day)
}
