/*
projection.go - Forward reporting periods

PURPOSE:
  Projects up to six future periods past the closing date, each period
  stepping to the end of the month N months out: closing liability and
  right-of-use at the projection date plus the period's depreciation,
  interest and rent. Projections clip at the lease end and are
  suppressed entirely when a termination or modification forces the
  lease shut around the balance date.
*/
package lease

import (
	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/finance"
)

const maxProjectionPeriods = 6

// CalculateProjections steps forward from the balance date. periods is
// capped at six; months defaults to quarterly steps.
func CalculateProjections(ld *LeaseData, rows []ScheduleRow, balanceDate finance.Date, periods, months int) []Projection {
	if periods <= 0 || len(rows) == 0 {
		return nil
	}
	if periods > maxProjectionPeriods {
		periods = maxProjectionPeriods
	}
	if months <= 0 {
		months = 3
	}

	sign := finance.One
	if ld.Sublease {
		sign = finance.FromInt(-1)
	}

	lastDate := rows[len(rows)-1].Date

	// A forced end (termination or modification) at or before the
	// balance date kills projections unless the schedule still extends
	// past it; a forced end in the future is a wall we cannot project
	// through.
	forceEnd := finance.MaxDate(ld.DateModified, ld.TerminationDate)
	if !forceEnd.IsZero() {
		if forceEnd.After(balanceDate) {
			return nil
		}
		if lastDate.BeforeOrEqual(balanceDate) {
			return nil
		}
	}

	if balanceDate.After(lastDate) {
		balanceDate = lastDate
	}
	// Balance date sitting exactly on the lease end: back up to the
	// last row before it so there is still a period to project.
	if balanceDate.Equal(ld.EndDate) {
		for i := len(rows) - 1; i >= 0; i-- {
			if rows[i].Date.Before(ld.EndDate) {
				balanceDate = rows[i].Date
				break
			}
		}
	}

	var projections []Projection
	bal := balanceDate
	for mode := 1; mode <= periods; mode++ {
		open := bal
		bal = bal.EOMonth(months)
		if ld.EndDate.Before(bal) {
			bal = ld.EndDate
		}
		if !bal.After(open) {
			break
		}

		closing := BalancesAt(rows, bal)
		dep, interest, rent := projectionActivity(rows, open, bal)

		projections = append(projections, Projection{
			Mode:             mode,
			Date:             bal,
			ClosingLiability: closing.Liability.Mul(sign),
			ClosingROUAsset:  closing.ROUAsset.Mul(sign),
			Depreciation:     dep.Mul(sign),
			Interest:         interest.Mul(sign),
			RentPaid:         rent.Mul(sign),
		})

		if ld.EndDate.Before(open) {
			break
		}
		if bal.AfterOrEqual(ld.EndDate) && mode > 1 {
			break
		}
	}
	return projections
}

func projectionActivity(rows []ScheduleRow, from, to finance.Date) (dep, interest, rent decimal.Decimal) {
	if from.AfterOrEqual(to) {
		return
	}
	for i := range rows {
		row := &rows[i]
		if row.Date.After(to) {
			break
		}
		if row.Date.After(from) {
			dep = dep.Add(row.Depreciation)
			interest = interest.Add(row.Interest)
			rent = rent.Add(row.Rental)
		}
	}
	return
}
