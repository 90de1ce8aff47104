/*
activity.go - Period activity aggregation

PURPOSE:
  Sums the income-statement flows for a reporting window over the
  schedule: rows strictly after the opening date, up to and including
  the closing date. Interest and depreciation accumulate as absolute
  values; rent skips the row dated at a modification (that rental
  belongs to the successor lease); security income is the step between
  consecutive carried rows.
*/
package lease

import (
	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/finance"
)

// Activity is the aggregated P&L flow for one reporting window.
type Activity struct {
	Interest       decimal.Decimal
	Depreciation   decimal.Decimal
	RentPaid       decimal.Decimal
	AROInterest    decimal.Decimal
	SecurityChange decimal.Decimal
	ChangeInROU    decimal.Decimal
}

// AggregateActivity sums flows for rows with open < date <= close.
// dateModified, when set, excludes that row's rental from rent paid.
func AggregateActivity(rows []ScheduleRow, open, close finance.Date, dateModified finance.Date) Activity {
	var act Activity
	prevSecurity := decimal.Zero

	for i := range rows {
		row := &rows[i]
		if row.IsOpening {
			prevSecurity = row.SecurityDepositPV
			continue
		}
		if !row.Date.After(open) || row.Date.After(close) {
			continue
		}

		act.Depreciation = act.Depreciation.Add(row.Depreciation.Abs())
		act.Interest = act.Interest.Add(row.Interest.Abs())
		if dateModified.IsZero() || !row.Date.Equal(dateModified) {
			act.RentPaid = act.RentPaid.Add(row.Rental)
		}
		act.ChangeInROU = act.ChangeInROU.Add(row.ChangeInROU)
		act.AROInterest = act.AROInterest.Add(row.AROInterest)

		act.SecurityChange = act.SecurityChange.Add(row.SecurityDepositPV.Sub(prevSecurity))
		prevSecurity = row.SecurityDepositPV
	}
	return act
}
