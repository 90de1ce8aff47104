/*
schedule.go - Amortization schedule generation

PURPOSE:
  Builds the full dated schedule for one lease in three stages:

    1. Day walk: step from start to end date (classify.go decides what
       each day emits), resolving escalated or manual rentals per
       payment and the gross retirement obligation per row. The end
       date injects the purchase option.
    2. Valuation: PV factors, compounded interest, the liability
       recursion, provision discounting, depreciation and the
       right-of-use recursion, security-deposit accretion. The initial
       liability is then redefined as the sum of discounted rentals and
       the recursion is replayed once from the fixed point. A non-zero
       FVOfROU instead back-solves the discount rate by bisection.
    3. Overlays (overlays.go): security step-ups, impairments, manual
       rental overrides, in that order.

BOUNDS:
  The walk gives up after 50,000 days and each rental lookup advances
  at most 50 escalation brackets; both report ErrComputationExhausted.
*/
package lease

import (
	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/finance"
)

const (
	maxWalkDays         = 50000
	maxRentalAdvance    = 50
	maxRateSolveBisects = 64
)

// rateSolveTolerance is the currency tolerance for the FVOfROU rate
// back-solve.
var rateSolveTolerance = finance.MustDecimal("0.005")

// ScheduleGenerator builds amortization schedules. The rate lookup
// feeds provision discounting; a nil lookup means undiscounted
// provisions.
type ScheduleGenerator struct {
	Rates finance.RateLookup
}

func NewScheduleGenerator(rates finance.RateLookup) *ScheduleGenerator {
	return &ScheduleGenerator{Rates: rates}
}

// Generate produces the complete schedule for one lease under the
// given accounting standard. The input is never mutated. A lease whose
// end date does not follow its start date yields a single opening row,
// so callers can detect the all-zero output rather than fail.
func (g *ScheduleGenerator) Generate(lease LeaseData, standard Standard) ([]ScheduleRow, error) {
	ld := lease.Normalized()
	if ld.StartDate.IsZero() || ld.EndDate.IsZero() {
		return nil, ErrEmptySchedule
	}

	rows, err := g.walk(&ld)
	if err != nil {
		return nil, err
	}
	if err := g.valuate(&ld, rows, standard); err != nil {
		return nil, err
	}
	applySecurityIncreases(&ld, rows)
	applyImpairments(&ld, rows)
	applyManualRentals(&ld, rows)
	return rows, nil
}

// =============================================================================
// DAY WALK
// =============================================================================

func (g *ScheduleGenerator) walk(ld *LeaseData) ([]ScheduleRow, error) {
	start := ld.StartDate
	first := ld.firstPayment()
	end := ld.EndDate

	state, err := newRentalState(ld)
	if err != nil {
		return nil, err
	}

	rows := make([]ScheduleRow, 0, 64)
	emit := func(date finance.Date, rental decimal.Decimal) {
		rows = append(rows, ScheduleRow{
			Date:      date,
			Rental:    rental,
			PVFactor:  finance.One,
			AROGross:  aroGrossFor(ld, date),
			IsOpening: len(rows) == 0,
		})
	}

	// The opening row is always dated at the lease start; it anchors
	// every PV calculation. It pays only when the first payment falls
	// on the start date itself.
	openingRental := decimal.Zero
	if start.Equal(first) {
		openingRental, err = state.rentalFor(ld, first, true)
		if err != nil {
			return nil, err
		}
	}
	emit(start, openingRental)

	if !end.After(start) {
		return rows, nil
	}

	initialDay := ld.DayOfMonth.Resolve(start)

	for i := 1; i <= maxWalkDays; i++ {
		dateo := start.AddDays(i)
		kind := classifyDay(dateo, start, first, ld.FrequencyMonths, ld.DayOfMonth, initialDay)

		switch kind {
		case rowFirstPayment:
			rental, err := state.rentalFor(ld, dateo, true)
			if err != nil {
				return nil, err
			}
			emit(dateo, rental)
		case rowPayment:
			rental, err := state.rentalFor(ld, dateo, false)
			if err != nil {
				return nil, err
			}
			emit(dateo, rental)
		case rowAccrual:
			emit(dateo, decimal.Zero)
		}

		if dateo.Equal(end) {
			// Terminal row: the purchase option rides on whatever row
			// the end date produced, or gets its own row.
			if kind == rowNone {
				emit(dateo, ld.PurchaseOptionPrice)
			} else {
				rows[len(rows)-1].Rental = rows[len(rows)-1].Rental.Add(ld.PurchaseOptionPrice)
			}
			return rows, nil
		}
		if dateo.After(end) {
			return rows, nil
		}
	}

	return nil, &ExhaustedError{Stage: "day-walk", Iterations: maxWalkDays, LeaseID: ld.ID}
}

// rentalState tracks the current escalation bracket while the walk
// advances through payment dates.
type rentalState struct {
	rentNo       int
	amount       decimal.Decimal
	boundary     finance.Date
	lastMonthPay int
}

func newRentalState(ld *LeaseData) (*rentalState, error) {
	amount, boundary, err := ResolveRental(ld, 1)
	if err != nil {
		return nil, err
	}
	return &rentalState{rentNo: 1, amount: amount, boundary: boundary}, nil
}

// rentalFor resolves the rental paid on dateo. Auto mode advances the
// escalation bracket until it covers the date; manual mode reads the
// override table. The firstPayment flag arms the same-month guard that
// keeps a cycle date in the first payment's month from paying twice.
func (s *rentalState) rentalFor(ld *LeaseData, dateo finance.Date, firstPayment bool) (decimal.Decimal, error) {
	if !ld.AutoRentals {
		return manualRentalFor(ld, dateo), nil
	}
	amount, err := s.advance(ld, dateo)
	if err != nil {
		return decimal.Zero, err
	}
	if firstPayment {
		s.lastMonthPay = dateo.MonthIndex()
		return amount, nil
	}
	rental := decimal.Zero
	if s.lastMonthPay != dateo.MonthIndex() {
		rental = amount
	}
	s.lastMonthPay = 0
	return rental, nil
}

// advance moves forward until the current bracket covers dateo: either
// its boundary is strictly after the date, or the boundary was clamped
// to the lease end (the final bracket covers everything through end).
func (s *rentalState) advance(ld *LeaseData, dateo finance.Date) (decimal.Decimal, error) {
	for i := 0; i < maxRentalAdvance; i++ {
		if s.boundary.After(dateo) || s.boundary.Equal(ld.EndDate) {
			return s.amount, nil
		}
		s.rentNo++
		amount, boundary, err := ResolveRental(ld, s.rentNo)
		if err != nil {
			return decimal.Zero, err
		}
		s.amount, s.boundary = amount, boundary
	}
	// The workbook paid zero when no bracket could be found.
	return decimal.Zero, nil
}

// manualRentalFor reads the override table: the first dated entry on or
// after the payment date switches the lease to Rental2.
func manualRentalFor(ld *LeaseData, dateo finance.Date) decimal.Decimal {
	for _, e := range ld.ManualRentals {
		if e.Date.IsZero() {
			continue
		}
		if e.Date.AfterOrEqual(dateo) {
			return ld.Rental2
		}
	}
	return ld.Rental1
}

// aroGrossFor resolves the gross retirement obligation in effect at a
// date: the first revision dated after it wins, otherwise the base ARO.
func aroGrossFor(ld *LeaseData, dateo finance.Date) decimal.Decimal {
	for idx, e := range ld.ARORevisions {
		if e.Date.IsZero() {
			continue
		}
		if e.Date.After(dateo) {
			if !e.Amount.IsZero() {
				return e.Amount
			}
			if idx == 0 {
				return ld.ARO
			}
		}
	}
	return ld.ARO
}

// =============================================================================
// VALUATION
// =============================================================================

func (g *ScheduleGenerator) valuate(ld *LeaseData, rows []ScheduleRow, standard Standard) error {
	if len(rows) == 0 {
		return ErrEmptySchedule
	}

	ic := finance.DeriveCompoundMonths(ld.FrequencyMonths, ld.CompoundMonths)
	rate := ld.discountRate()
	secRate := ld.securityRate()
	ide := ld.netDirectExpenditure()

	endOfLife, err := endOfROULife(ld)
	if err != nil {
		return err
	}

	if !ld.FVOfROU.IsZero() {
		rate, err = solveDiscountRate(ld, rows, ic)
		if err != nil {
			return err
		}
	}

	last := rows[len(rows)-1].Date

	// Opening row.
	r0 := &rows[0]
	r0.PVFactor = finance.One
	if r0.AROGross.IsZero() {
		r0.AROGross = ld.ARO
	}
	r0.Liability = initialLiability(rows, rate, ic)
	r0.ROUAsset = initialROU(ld, r0.Liability, ide)
	r0.SecurityDepositPV = initialSecurityPV(ld, secRate, finance.DaysBetween(r0.Date, last))
	r0.PVOfRent = r0.Rental

	// First pass: every column from the provisional opening liability.
	for i := 1; i < len(rows); i++ {
		prev, curr := &rows[i-1], &rows[i]

		daysFromStart := finance.DaysBetween(r0.Date, curr.Date)
		curr.PVFactor = finance.PVFactor(rate, daysFromStart, ic)

		daysBetween := finance.DaysBetween(prev.Date, curr.Date)
		if daysBetween > 0 {
			curr.Interest = prev.Liability.Mul(finance.GrowthFactor(rate, daysBetween, ic).Sub(finance.One))
		}
		curr.Liability = prev.Liability.Sub(curr.Rental).Add(curr.Interest)
		curr.PVOfRent = curr.PVFactor.Mul(curr.Rental)

		if gross := aroGrossFor(ld, curr.Date); !gross.IsZero() {
			curr.AROGross = gross
		}
		curr.AROProvision = g.aroProvision(ld, curr.AROGross, curr.Date, last)
		curr.AROInterest = curr.AROProvision.Sub(prev.AROProvision)
		// Workbook column K: provision delta net of its interest.
		curr.ChangeInROU = curr.AROProvision.Sub(curr.AROInterest).Sub(prev.AROProvision)

		curr.Depreciation = depreciationFor(ld, rows, i, endOfLife, standard)
		curr.ROUAsset = prev.ROUAsset.Sub(curr.Depreciation).Add(curr.ChangeInROU)

		curr.SecurityDepositPV = carrySecurityPV(ld, secRate, prev, curr, r0.Date)
	}

	// Fixed point: the opening liability is the sum of discounted
	// rentals, so replay the liability and asset recursion from it.
	total := decimal.Zero
	for i := range rows {
		total = total.Add(rows[i].PVOfRent)
	}
	r0.Liability = total
	r0.ROUAsset = initialROU(ld, total, ide)
	for i := 1; i < len(rows); i++ {
		prev, curr := &rows[i-1], &rows[i]
		daysBetween := finance.DaysBetween(prev.Date, curr.Date)
		curr.Interest = decimal.Zero
		if daysBetween > 0 {
			curr.Interest = prev.Liability.Mul(finance.GrowthFactor(rate, daysBetween, ic).Sub(finance.One))
		}
		curr.Liability = prev.Liability.Sub(curr.Rental).Add(curr.Interest)
		curr.Depreciation = depreciationFor(ld, rows, i, endOfLife, standard)
		curr.ROUAsset = prev.ROUAsset.Sub(curr.Depreciation).Add(curr.ChangeInROU)
	}

	applyTransition(ld, rows)
	return nil
}

// applyTransition handles option 2B: the right-of-use resets to the
// liability plus prepaid accrual on the eve of the transition date.
func applyTransition(ld *LeaseData, rows []ScheduleRow) {
	if ld.TransitionOption != "2B" || ld.TransitionDate.IsZero() {
		return
	}
	eve := ld.TransitionDate.AddDays(-1)
	for i := range rows {
		if rows[i].Date.Equal(eve) {
			rows[i].ROUAsset = rows[i].Liability.Add(ld.PrepaidAccrual)
			return
		}
	}
}

// initialLiability sums the discounted future rentals; the opening row
// and non-paying rows contribute nothing.
func initialLiability(rows []ScheduleRow, rate decimal.Decimal, ic int) decimal.Decimal {
	total := decimal.Zero
	start := rows[0].Date
	for i := 1; i < len(rows); i++ {
		if !rows[i].Rental.IsPositive() {
			continue
		}
		days := finance.DaysBetween(start, rows[i].Date)
		if days > 0 {
			total = total.Add(rows[i].Rental.Mul(finance.PVFactor(rate, days, ic)))
		}
	}
	return total
}

func initialROU(ld *LeaseData, liability, ide decimal.Decimal) decimal.Decimal {
	if ld.Sublease {
		if !ld.SubleaseROU.IsZero() {
			return ld.SubleaseROU
		}
		return liability
	}
	return liability.Add(ide)
}

func initialSecurityPV(ld *LeaseData, secRate decimal.Decimal, daysRemaining int) decimal.Decimal {
	if !ld.SecurityDeposit.IsPositive() || !secRate.IsPositive() || daysRemaining <= 0 {
		return decimal.Zero
	}
	return ld.SecurityDeposit.Mul(finance.MonthlyPVFactor(secRate, daysRemaining))
}

// carrySecurityPV accretes the deposit by the ratio of successive
// monthly discount factors measured from the schedule anchor.
func carrySecurityPV(ld *LeaseData, secRate decimal.Decimal, prev, curr *ScheduleRow, anchor finance.Date) decimal.Decimal {
	if !secRate.IsPositive() || !ld.SecurityDeposit.IsPositive() {
		return decimal.Zero
	}
	fPrev := finance.MonthlyPVFactor(secRate, finance.DaysBetween(anchor, prev.Date))
	fCurr := finance.MonthlyPVFactor(secRate, finance.DaysBetween(anchor, curr.Date))
	if !fCurr.IsPositive() {
		return prev.SecurityDepositPV
	}
	return prev.SecurityDepositPV.Mul(fPrev).Div(fCurr)
}

// aroProvision discounts the gross obligation at the risk-free rate for
// its table over the days remaining to the final row. A zero table or
// missing rate leaves the obligation undiscounted.
func (g *ScheduleGenerator) aroProvision(ld *LeaseData, gross decimal.Decimal, at, last finance.Date) decimal.Decimal {
	if !gross.IsPositive() || ld.AROTable <= 0 {
		return decimal.Zero
	}
	var rate decimal.Decimal
	if g.Rates != nil {
		rate = g.Rates.Rate(at, ld.AROTable)
	}
	if !rate.IsPositive() {
		return gross
	}
	daysRemaining := finance.DaysBetween(at, last)
	if daysRemaining <= 0 {
		return gross
	}
	return gross.Mul(finance.MonthlyPVFactor(rate, daysRemaining))
}

// endOfROULife picks the depreciation horizon. Finance-classified
// US-GAAP leases, bargain purchases and title transfers depreciate to
// the asset's useful life; supplying those flags without a useful life
// has no defined semantics.
func endOfROULife(ld *LeaseData) (finance.Date, error) {
	if ld.FinanceLeaseUSGAAP || ld.BargainPurchase || ld.TitleTransfer {
		if ld.UsefulLife.IsZero() {
			return finance.Date{}, &UnsupportedConfigError{
				LeaseID: ld.ID,
				Reason:  "finance lease / bargain purchase / title transfer requires a useful life date",
			}
		}
		return ld.UsefulLife, nil
	}
	return ld.EndDate, nil
}

// depreciationFor computes one row's depreciation. IFRS and IndAS (and
// US-GAAP finance leases) depreciate straight-line over the remaining
// life; US-GAAP operating leases level the total cost, spreading the
// carrying amount plus all future interest over remaining months and
// deducting the period's interest.
func depreciationFor(ld *LeaseData, rows []ScheduleRow, i int, endOfLife finance.Date, standard Standard) decimal.Decimal {
	prev, curr := &rows[i-1], &rows[i]

	if standard.IsUSGAAP() && !ld.FinanceLeaseUSGAAP {
		futureInterest := decimal.Zero
		for j := i; j < len(rows); j++ {
			futureInterest = futureInterest.Add(rows[j].Interest.Abs())
		}

		daysInPeriod := finance.FromInt(int64(finance.DaysBetween(prev.Date.AddDays(-1), curr.Date)))
		daysInCurrMonth := finance.FromInt(int64(curr.Date.EOMonth(0).Day()))

		eolNext := endOfLife.AddDays(1)
		monthsDiff := finance.FromInt(int64(eolNext.MonthIndex() - prev.Date.MonthIndex()))
		daysInPrevMonth := finance.FromInt(int64(prev.Date.EOMonth(0).Day()))
		dayAdjustment := finance.FromInt(int64(eolNext.Day() - prev.Date.Day())).Div(daysInPrevMonth)
		remainingMonths := monthsDiff.Add(dayAdjustment)
		if !remainingMonths.IsPositive() {
			return decimal.Zero
		}

		dep := prev.ROUAsset.Add(futureInterest).
			Mul(daysInPeriod.Div(daysInCurrMonth)).
			Div(remainingMonths).
			Sub(curr.Interest)
		dep = finance.Min(dep, prev.ROUAsset)
		if dep.IsNegative() {
			return decimal.Zero
		}
		return dep
	}

	totalDays := finance.DaysBetween(prev.Date, endOfLife)
	if totalDays <= 0 {
		return decimal.Zero
	}
	daysDiff := finance.DaysBetween(prev.Date, curr.Date)
	dep := prev.ROUAsset.Mul(finance.FromInt(int64(daysDiff))).Div(finance.FromInt(int64(totalDays)))
	dep = finance.Min(dep, prev.ROUAsset)
	if dep.IsNegative() {
		return decimal.Zero
	}
	return dep
}

// =============================================================================
// DISCOUNT RATE BACK-SOLVE
// =============================================================================

// solveDiscountRate finds the rate at which the discounted rentals sum
// to the stated fair value of the right-of-use. The sum is strictly
// decreasing in the rate, so a bisection over (0.01%, 100%) converges;
// a fair value outside that bracket is unattainable.
func solveDiscountRate(ld *LeaseData, rows []ScheduleRow, ic int) (decimal.Decimal, error) {
	target := ld.FVOfROU.Abs()

	pvTotal := func(rate decimal.Decimal) decimal.Decimal {
		total := rows[0].Rental
		start := rows[0].Date
		for i := 1; i < len(rows); i++ {
			if !rows[i].Rental.IsPositive() {
				continue
			}
			days := finance.DaysBetween(start, rows[i].Date)
			total = total.Add(rows[i].Rental.Mul(finance.PVFactor(rate, days, ic)))
		}
		return total
	}

	lo := finance.MustDecimal("0.0001")
	hi := finance.One
	if pvTotal(lo).LessThan(target) || pvTotal(hi).GreaterThan(target) {
		return decimal.Zero, &ExhaustedError{Stage: "rate-solve", Iterations: 0, LeaseID: ld.ID}
	}

	two := finance.FromInt(2)
	for i := 0; i < maxRateSolveBisects; i++ {
		mid := lo.Add(hi).Div(two)
		v := pvTotal(mid)
		if v.Sub(target).Abs().LessThanOrEqual(rateSolveTolerance) {
			return mid, nil
		}
		if v.GreaterThan(target) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return decimal.Zero, &ExhaustedError{Stage: "rate-solve", Iterations: maxRateSolveBisects, LeaseID: ld.ID}
}
