/*
interpolate.go - Point-in-time balance lookup

PURPOSE:
  Reporting dates rarely coincide with schedule rows. The workbook's
  rule: an exact row wins; a date between two rows takes the earlier
  row's balances unchanged (carrying amounts hold until the next event
  — never averaged); a date before the schedule reads the opening row;
  a date after it reads the final row.
*/
package lease

import (
	"github.com/warp/lease-engine/finance"
)

// BalancesAt reads the carrying balances in effect at a date, per the
// straddle-copy rule above. An empty schedule yields zero balances.
func BalancesAt(rows []ScheduleRow, at finance.Date) Balances {
	if len(rows) == 0 {
		return Balances{}
	}

	idx := 0
	for i := range rows {
		if rows[i].Date.Equal(at) {
			idx = i
			break
		}
		if rows[i].Date.After(at) {
			// Straddle or before-first: the previous row carries, the
			// opening row floors.
			idx = i - 1
			if idx < 0 {
				idx = 0
			}
			break
		}
		idx = i
	}

	r := &rows[idx]
	return Balances{
		Liability:         r.Liability,
		ROUAsset:          r.ROUAsset,
		AROProvision:      r.AROProvision,
		SecurityDepositPV: r.SecurityDepositPV,
	}
}
