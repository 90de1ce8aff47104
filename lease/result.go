/*
result.go - Per-lease result compilation

PURPOSE:
  Runs one lease through the pipeline for a reporting window: schedule,
  opening balances, period activity, closing balances, the liability
  split, gains and losses, and optional forward projections.

SPLIT POLICIES:
  How much of the closing liability is current (due within 12 months)
  is a policy choice, injected as SplitPolicy:
    - ProportionalSplit: the legacy 70/30 heuristic (default)
    - PVNext12Months: discounted rentals falling due in the next year
    - ProjectedLiability: interpolate the liability 12 months out
*/
package lease

import (
	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/finance"
)

// =============================================================================
// LIABILITY SPLIT POLICIES
// =============================================================================

// SplitInput carries everything a split policy may need.
type SplitInput struct {
	Total    decimal.Decimal // non-negative closing liability
	Schedule []ScheduleRow
	Closing  finance.Date
	Lease    *LeaseData
}

// SplitPolicy divides the closing liability into current and
// non-current portions. current + nonCurrent must equal Total.
type SplitPolicy interface {
	Split(in SplitInput) (current, nonCurrent decimal.Decimal)
}

// ProportionalSplit is the legacy heuristic: a fixed share of the
// closing liability is current. The workbook hard-coded 30%; treat
// this as provisional and prefer PVNext12Months for new reporting.
type ProportionalSplit struct {
	CurrentRatio decimal.Decimal
}

func DefaultSplitPolicy() SplitPolicy {
	return ProportionalSplit{CurrentRatio: finance.MustDecimal("0.3")}
}

func (p ProportionalSplit) Split(in SplitInput) (decimal.Decimal, decimal.Decimal) {
	current := in.Total.Mul(p.CurrentRatio)
	return current, in.Total.Sub(current)
}

// PVNext12Months takes the rentals falling due within twelve months of
// the closing date, discounted back to the closing date by the ratio
// of PV factors.
type PVNext12Months struct{}

func (PVNext12Months) Split(in SplitInput) (decimal.Decimal, decimal.Decimal) {
	if len(in.Schedule) == 0 || in.Lease == nil {
		return decimal.Zero, in.Total
	}
	rate := in.Lease.discountRate()
	ic := finance.DeriveCompoundMonths(in.Lease.FrequencyMonths, in.Lease.CompoundMonths)
	anchor := in.Schedule[0].Date
	horizon := in.Closing.AddMonths(12)

	fClose := finance.PVFactor(rate, finance.DaysBetween(anchor, in.Closing), ic)
	current := decimal.Zero
	for i := range in.Schedule {
		row := &in.Schedule[i]
		if !row.Date.After(in.Closing) || row.Date.After(horizon) {
			continue
		}
		if !row.Rental.IsPositive() {
			continue
		}
		current = current.Add(row.PVOfRent.Div(fClose))
	}
	current = finance.Min(current, in.Total)
	return current, in.Total.Sub(current)
}

// ProjectedLiability interpolates the liability twelve months past the
// closing date; the portion surviving that horizon is non-current.
// The workbook formula reads either way round; this follows the
// projection definition as written, with the ambiguity noted in the
// design log.
type ProjectedLiability struct{}

func (ProjectedLiability) Split(in SplitInput) (decimal.Decimal, decimal.Decimal) {
	projected := BalancesAt(in.Schedule, in.Closing.AddMonths(12)).Liability
	nonCurrent := finance.Max(in.Total.Sub(projected), decimal.Zero)
	nonCurrent = finance.Min(nonCurrent, in.Total)
	return in.Total.Sub(nonCurrent), nonCurrent
}

// =============================================================================
// RESULT COMPILER
// =============================================================================

type ResultCompiler struct {
	Generator *ScheduleGenerator
	Split     SplitPolicy
}

func NewResultCompiler(gen *ScheduleGenerator, split SplitPolicy) *ResultCompiler {
	if split == nil {
		split = DefaultSplitPolicy()
	}
	return &ResultCompiler{Generator: gen, Split: split}
}

// Compile runs one lease for the reporting window and returns both the
// result and the schedule it was derived from.
func (c *ResultCompiler) Compile(lease LeaseData, f Filters) (*Result, []ScheduleRow, error) {
	if err := f.Validate(); err != nil {
		return nil, nil, err
	}
	std := f.standard()

	rows, err := c.Generator.Generate(lease, std)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptySchedule
	}
	ld := lease.Normalized()

	var mod *ModificationOutcome
	if ld.ModifiesID > 0 {
		mod = ComputeModificationOutcome(&ld, rows, f.EndDate)
	}

	opening := BalancesAt(rows, f.StartDate)
	activity := AggregateActivity(rows, f.StartDate, f.EndDate, ld.DateModified)
	closing := BalancesAt(rows, f.EndDate)

	total := decimal.Zero
	if closing.Liability.IsPositive() {
		total = closing.Liability
	}
	current, nonCurrent := c.Split.Split(SplitInput{
		Total:    total,
		Schedule: rows,
		Closing:  f.EndDate,
		Lease:    &ld,
	})

	res := &Result{
		LeaseID:     ld.ID,
		Description: ld.Description,
		AssetClass:  ld.AssetClass,
		AssetCode:   ld.AssetCode,

		OpeningLiability: opening.Liability,
		OpeningROUAsset:  opening.ROUAsset,
		OpeningARO:       opening.AROProvision,
		OpeningSecurity:  opening.SecurityDepositPV,

		InterestExpense:       activity.Interest,
		DepreciationExpense:   activity.Depreciation,
		RentPaid:              activity.RentPaid,
		AROInterest:           activity.AROInterest,
		SecurityDepositChange: activity.SecurityChange,
		ChangeInROU:           activity.ChangeInROU,

		ClosingLiabilityCurrent:    current,
		ClosingLiabilityNonCurrent: nonCurrent,
		ClosingROUAsset:            closing.ROUAsset,
		ClosingARO:                 closing.AROProvision,
		ClosingSecurity:            closing.SecurityDepositPV,

		Currency:      ld.Currency,
		CostCentre:    ld.CostCentre,
		ProfitCentre:  ld.ProfitCentre,
		EntityName:    ld.EntityName,
		Counterparty:  ld.Counterparty,
		BorrowingRate: ld.BorrowingRate,
		Sublease:      ld.Sublease,
		StartDate:     ld.StartDate,
		EndDate:       ld.EndDate,
	}

	res.TerminationGainLoss = terminationGainLoss(&ld, rows, f.EndDate)
	if ld.Sublease && ld.ModifiesID == 0 {
		res.SubleaseGainLoss = rows[0].ROUAsset.Sub(rows[0].Liability)
	}
	if mod != nil {
		res.ModificationGain = mod.ModificationGain
		res.CovidPEGain = mod.CovidPEGain
		res.SubleaseGainLoss = res.SubleaseGainLoss.Add(mod.SubleaseModificationGainLoss)
	}
	res.GainLossPnL = finance.Sum(
		res.TerminationGainLoss,
		res.ModificationGain,
		res.CovidPEGain,
		res.SubleaseGainLoss,
	)

	if f.EnableProjections {
		res.Projections = CalculateProjections(&ld, rows, f.EndDate, f.ProjectionPeriods, f.ProjectionMonths)
	}

	return res, rows, nil
}

// terminationGainLoss derecognizes the lease at its termination date:
// penalty plus the asset given up, less the liability extinguished and
// the gross deposit recovered net of its carrying value, less the
// retirement provision released.
func terminationGainLoss(ld *LeaseData, rows []ScheduleRow, close finance.Date) decimal.Decimal {
	if ld.TerminationDate.IsZero() || ld.TerminationDate.After(close) {
		return decimal.Zero
	}
	bal := BalancesAt(rows, ld.TerminationDate)
	gross := grossSecurity(ld, ld.TerminationDate)
	return finance.Sum(
		ld.TerminationPenalty,
		bal.ROUAsset,
		bal.Liability.Neg(),
		gross.Neg(),
		bal.SecurityDepositPV,
		bal.AROProvision.Neg(),
	)
}

// grossSecurity is the face deposit plus step-ups effective by a date.
func grossSecurity(ld *LeaseData, by finance.Date) decimal.Decimal {
	gross := ld.SecurityDeposit
	for _, inc := range ld.SecurityIncreases {
		if inc.Date.IsZero() {
			break
		}
		if inc.Date.BeforeOrEqual(by) {
			gross = gross.Add(inc.Amount)
		}
	}
	return gross
}
