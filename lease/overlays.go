/*
overlays.go - Post-valuation schedule adjustments

PURPOSE:
  Three dated overlay tables adjust the finished schedule in a fixed
  order: security-deposit step-ups add their discounted value to the
  matching row, impairments add straight to that row's depreciation,
  and manual rental overrides replace the rental (and its discounted
  value) on their dates. Each table walks the schedule once; a zero
  date ends the table.
*/
package lease

import (
	"github.com/warp/lease-engine/finance"
)

// applySecurityIncreases adds the present value of each step-up to the
// security column of the row dated exactly at the step-up.
func applySecurityIncreases(ld *LeaseData, rows []ScheduleRow) {
	if len(rows) == 0 || len(ld.SecurityIncreases) == 0 {
		return
	}
	secRate := ld.securityRate()
	last := rows[len(rows)-1].Date

	for _, inc := range ld.SecurityIncreases {
		if inc.Date.IsZero() {
			break
		}
		if !inc.Amount.IsPositive() || !secRate.IsPositive() {
			continue
		}
		for i := range rows {
			if !rows[i].Date.Equal(inc.Date) {
				continue
			}
			daysRemaining := finance.DaysBetween(rows[i].Date, last)
			if daysRemaining > 0 {
				pv := inc.Amount.Mul(finance.MonthlyPVFactor(secRate, daysRemaining))
				rows[i].SecurityDepositPV = rows[i].SecurityDepositPV.Add(pv)
			}
			break
		}
	}
}

// applyImpairments adds each impairment to the depreciation of its row.
// The right-of-use recursion is not replayed; the workbook recognized
// the hit in the period's expense only.
func applyImpairments(ld *LeaseData, rows []ScheduleRow) {
	for _, imp := range ld.Impairments {
		if imp.Date.IsZero() {
			break
		}
		if !imp.Amount.IsPositive() {
			continue
		}
		for i := range rows {
			if rows[i].Date.Equal(imp.Date) {
				rows[i].Depreciation = rows[i].Depreciation.Add(imp.Amount)
				break
			}
		}
	}
}

// applyManualRentals replaces the rental on override dates when the
// lease runs in manual-adjust mode. An entry without its own amount
// falls back to Rental2. Liability is not replayed; overrides are a
// reporting adjustment, same as the workbook.
func applyManualRentals(ld *LeaseData, rows []ScheduleRow) {
	if !ld.ManualAdjust {
		return
	}
	for _, ov := range ld.ManualRentals {
		if ov.Date.IsZero() {
			break
		}
		amount := ov.Amount
		if amount.IsZero() {
			amount = ld.Rental2
		}
		for i := range rows {
			if rows[i].Date.Equal(ov.Date) {
				rows[i].Rental = amount
				rows[i].PVOfRent = rows[i].PVFactor.Mul(amount)
				break
			}
		}
	}
}
