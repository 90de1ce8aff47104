/*
classify.go - Per-day row classification for the schedule walk

PURPOSE:
  The schedule generator walks the lease term one calendar day at a
  time and asks, for each day, what row (if any) belongs there. The
  answer is a tagged kind rather than flag mutation, so the precedence
  between payment and accrual rows is explicit:

    1. The contractual first payment date is always a payment row.
    2. Days before the first payment never pay, but month ends still
       accrue interest rows.
    3. A day matching the payment cycle (frequency anchor month plus
       day-of-month rule) is a payment row. February clamps a 29-31
       day rule to the 28th; leap-day month ends then show up as
       separate accrual rows.
    4. Any remaining month end is an accrual row.

  The terminal row (purchase option on the end date) is handled by the
  walker itself because it depends on whether a row was already emitted
  that day.
*/
package lease

import (
	"time"

	"github.com/warp/lease-engine/finance"
)

type rowKind int

const (
	rowNone rowKind = iota
	rowFirstPayment
	rowPayment
	rowAccrual
)

// classifyDay decides the row kind for one day of the walk. initialDay
// is the day-of-month rule resolved against the lease start month; it
// drives the February clamp for "Last" and 29-31 day rules.
func classifyDay(dateo, start, firstPayment finance.Date, freqMonths int, dm DayOfMonth, initialDay int) rowKind {
	if dateo.Equal(firstPayment) && !start.Equal(firstPayment) {
		return rowFirstPayment
	}
	if dateo.Before(firstPayment) {
		if dateo.IsMonthEnd() {
			return rowAccrual
		}
		return rowNone
	}
	if freqMonths > 0 && (dateo.MonthIndex()-firstPayment.MonthIndex())%freqMonths == 0 {
		day := dm.Resolve(dateo)
		if dateo.Month() == time.February && initialDay > 28 {
			day = 28
		}
		if dateo.Day() == day {
			return rowPayment
		}
	}
	if dateo.IsMonthEnd() {
		return rowAccrual
	}
	return rowNone
}
