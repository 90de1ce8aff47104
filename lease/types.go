/*
Package lease implements the lease-accounting calculation engine.

PURPOSE:
  Reproduces, in exact financial terms, the amortization workbook the
  accounting team ran for years: a day-by-day payment schedule with
  escalated rentals, discounted liability and right-of-use recursion,
  asset-retirement provisioning and security-deposit accretion, then
  period results, current/non-current splits, and balanced journal
  entries — for one lease or a filtered portfolio.

KEY CONCEPTS IN THIS FILE (types.go):
  - LeaseData: the full contract record, including dated overlay arrays
  - ScheduleRow: one dated row of the amortization schedule
  - Filters: the reporting window, standard, and portfolio filters
  - Result: per-period balances and activity for one lease
  - JournalEntry: one line of the double-entry output

DESIGN PRINCIPLES:
  1. Purity: the engine never mutates LeaseData; enriched values come
     back in Result / ModificationOutcome
  2. Precision: decimal.Decimal for every monetary value
  3. Bounded inputs: overlay arrays are truncated to their caps at
     construction, never rejected

SEE ALSO:
  - schedule.go: the day walk and valuation passes
  - result.go: per-lease compilation
  - bulk.go: concurrent portfolio processing
*/
package lease

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/finance"
)

// =============================================================================
// ACCOUNTING STANDARD
// =============================================================================

type Standard string

const (
	StandardIFRS   Standard = "IFRS"
	StandardIndAS  Standard = "IndAS"
	StandardUSGAAP Standard = "US-GAAP"
)

// IsUSGAAP distinguishes the operating-lease depreciation model; IndAS
// follows IFRS everywhere the engine cares.
func (s Standard) IsUSGAAP() bool { return s == StandardUSGAAP }

// =============================================================================
// OVERLAY ARRAY CAPS
// =============================================================================

const (
	MaxSecurityIncreases = 4
	MaxARORevisions      = 8
	MaxImpairments       = 5
	MaxManualRentals     = 20
)

// DatedAmount is one entry of an overlay array: an amount taking effect
// at (or matched against) a schedule date. A zero Date ends the array.
type DatedAmount struct {
	Date   finance.Date
	Amount decimal.Decimal
}

func truncateDated(in []DatedAmount, cap int) []DatedAmount {
	if len(in) <= cap {
		return in
	}
	out := make([]DatedAmount, cap)
	copy(out, in[:cap])
	return out
}

// =============================================================================
// DAY-OF-MONTH RULE
// =============================================================================

// DayOfMonth is either a literal day or the "Last" rule, which resolves
// to each month's final day.
type DayOfMonth struct {
	Last bool
	Day  int
}

func DayLast() DayOfMonth     { return DayOfMonth{Last: true} }
func DayOn(d int) DayOfMonth  { return DayOfMonth{Day: d} }

// ParseDayOfMonth accepts "Last" (any case), a numeric string, or "".
// Anything unrecognized falls back to day 1, matching the workbook.
func ParseDayOfMonth(s string) DayOfMonth {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "last") {
		return DayLast()
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 31 {
		return DayOn(n)
	}
	return DayOn(1)
}

// Resolve returns the payment day for the month containing d.
func (dm DayOfMonth) Resolve(d finance.Date) int {
	if dm.Last {
		return d.EOMonth(0).Day()
	}
	if dm.Day >= 1 {
		return dm.Day
	}
	return 1
}

func (dm DayOfMonth) String() string {
	if dm.Last {
		return "Last"
	}
	return strconv.Itoa(dm.Day)
}

// =============================================================================
// LEASE DATA - One contract record
// =============================================================================

type LeaseData struct {
	ID          int64
	Description string
	AssetClass  string
	AssetCode   string

	// Anchor dates
	StartDate        finance.Date
	FirstPaymentDate finance.Date // zero means payments begin at StartDate
	EndDate          finance.Date
	TerminationDate  finance.Date
	DateModified     finance.Date // effective date of the successor modification
	TransitionDate   finance.Date

	// Payment terms
	FrequencyMonths int
	DayOfMonth      DayOfMonth
	AccrualDay      int // day the escalation anchor lands on, default 1
	AutoRentals     bool
	ManualAdjust    bool

	// Rentals
	Rental1       decimal.Decimal
	Rental2       decimal.Decimal
	ManualRentals []DatedAmount // cap 20; zero Amount falls back to Rental2

	// Escalation
	EscalationPercent    decimal.Decimal // whole percent or decimal, normalized on use
	EscalationFreqMonths int
	EscalationStart      finance.Date // zero means StartDate

	// Discounting
	BorrowingRate  decimal.Decimal // whole percent
	CompoundMonths int             // honored only when equal to FrequencyMonths
	FVOfROU        decimal.Decimal // non-zero back-solves the discount rate

	// Purchase option
	BargainPurchase     bool
	TitleTransfer       bool
	PurchaseOptionPrice decimal.Decimal
	UsefulLife          finance.Date

	// Security deposit
	SecurityDeposit   decimal.Decimal
	SecurityDiscount  decimal.Decimal // whole percent or decimal
	SecurityIncreases []DatedAmount   // cap 4

	// Asset retirement obligation
	ARO          decimal.Decimal
	AROTable     int
	ARORevisions []DatedAmount // cap 8

	Impairments []DatedAmount // cap 5

	// Modification chain
	ModifiesID int64

	// Initial recognition adjustments
	InitialDirectExpenditure decimal.Decimal
	LeaseIncentive           decimal.Decimal
	PrepaidAccrual           decimal.Decimal
	TransitionOption         string // "2B" resets ROU at transition

	// Classification flags
	Sublease           bool
	SubleaseROU        decimal.Decimal
	ShortTermIFRS      bool
	ShortTermUSGAAP    bool
	FinanceLeaseUSGAAP bool
	PracticalExpedient bool

	TerminationPenalty decimal.Decimal

	// Descriptive pass-through
	Currency     string
	EntityName   string
	CostCentre   string
	ProfitCentre string
	Counterparty string
}

// Normalized returns a copy with overlay arrays truncated to their caps
// and defaults filled in. The engine always works on the normalized copy.
func (ld LeaseData) Normalized() LeaseData {
	ld.ManualRentals = truncateDated(ld.ManualRentals, MaxManualRentals)
	ld.SecurityIncreases = truncateDated(ld.SecurityIncreases, MaxSecurityIncreases)
	ld.ARORevisions = truncateDated(ld.ARORevisions, MaxARORevisions)
	ld.Impairments = truncateDated(ld.Impairments, MaxImpairments)
	if ld.AccrualDay <= 0 {
		ld.AccrualDay = 1
	}
	return ld
}

// firstPayment resolves the effective first payment date.
func (ld *LeaseData) firstPayment() finance.Date {
	if ld.FirstPaymentDate.IsZero() {
		return ld.StartDate
	}
	return ld.FirstPaymentDate
}

// discountRate returns the decimal borrowing rate; the workbook fell
// back to 8% when the field was blank, and downstream files depend on
// that.
func (ld *LeaseData) discountRate() decimal.Decimal {
	r := finance.NormalizePercent(ld.BorrowingRate)
	if r.IsZero() {
		r = finance.FromInt(8)
	}
	return r.Div(finance.Hundred)
}

// securityRate returns the decimal security-deposit discount rate.
func (ld *LeaseData) securityRate() decimal.Decimal {
	return finance.NormalizePercent(ld.SecurityDiscount).Div(finance.Hundred)
}

// netDirectExpenditure is initial direct expenditure net of incentive.
func (ld *LeaseData) netDirectExpenditure() decimal.Decimal {
	return ld.InitialDirectExpenditure.Sub(ld.LeaseIncentive)
}

// =============================================================================
// SCHEDULE ROW - One dated row of the amortization schedule
// =============================================================================

type ScheduleRow struct {
	Date              finance.Date
	Rental            decimal.Decimal
	PVFactor          decimal.Decimal
	Interest          decimal.Decimal
	Liability         decimal.Decimal
	PVOfRent          decimal.Decimal
	ROUAsset          decimal.Decimal
	Depreciation      decimal.Decimal
	ChangeInROU       decimal.Decimal
	SecurityDepositPV decimal.Decimal
	AROGross          decimal.Decimal
	AROInterest       decimal.Decimal
	AROProvision      decimal.Decimal
	IsOpening         bool
}

// =============================================================================
// FILTERS - Reporting window and portfolio selection
// =============================================================================

type Filters struct {
	StartDate finance.Date // opening balance date (exclusive for activity)
	EndDate   finance.Date // closing balance date (inclusive)
	Standard  Standard

	CostCentre   string
	Entity       string
	AssetClass   string
	ProfitCentre string

	EnableProjections bool
	ProjectionPeriods int // capped at 6
	ProjectionMonths  int
}

func (f Filters) standard() Standard {
	if f.Standard == "" {
		return StandardIFRS
	}
	return f.Standard
}

// Validate fails fast when the reporting window is incomplete.
func (f Filters) Validate() error {
	if f.StartDate.IsZero() || f.EndDate.IsZero() {
		return ErrFiltersIncomplete
	}
	return nil
}

// =============================================================================
// BALANCES - Point-in-time snapshot from the schedule
// =============================================================================

type Balances struct {
	Liability         decimal.Decimal
	ROUAsset          decimal.Decimal
	AROProvision      decimal.Decimal
	SecurityDepositPV decimal.Decimal
}

// =============================================================================
// RESULT - Per-lease output for one reporting window
// =============================================================================

type Result struct {
	LeaseID     int64
	Description string
	AssetClass  string
	AssetCode   string

	OpeningLiability decimal.Decimal
	OpeningROUAsset  decimal.Decimal
	OpeningARO       decimal.Decimal
	OpeningSecurity  decimal.Decimal

	InterestExpense       decimal.Decimal
	DepreciationExpense   decimal.Decimal
	RentPaid              decimal.Decimal
	AROInterest           decimal.Decimal
	SecurityDepositChange decimal.Decimal
	ChangeInROU           decimal.Decimal

	ClosingLiabilityCurrent    decimal.Decimal
	ClosingLiabilityNonCurrent decimal.Decimal
	ClosingROUAsset            decimal.Decimal
	ClosingARO                 decimal.Decimal
	ClosingSecurity            decimal.Decimal

	// Gain/loss recognized in the period, with its components.
	GainLossPnL         decimal.Decimal
	TerminationGainLoss decimal.Decimal
	ModificationGain    decimal.Decimal
	CovidPEGain         decimal.Decimal
	SubleaseGainLoss    decimal.Decimal

	Projections []Projection

	Currency      string
	CostCentre    string
	ProfitCentre  string
	EntityName    string
	Counterparty  string
	BorrowingRate decimal.Decimal
	Sublease      bool
	StartDate     finance.Date
	EndDate       finance.Date
}

// ClosingLiabilityTotal is the recombined split.
func (r *Result) ClosingLiabilityTotal() decimal.Decimal {
	return r.ClosingLiabilityCurrent.Add(r.ClosingLiabilityNonCurrent)
}

// subleaseSign is the -1 multiplier applied to sublease results on the
// portfolio and journal surfaces.
func (r *Result) subleaseSign() decimal.Decimal {
	if r.Sublease {
		return finance.FromInt(-1)
	}
	return finance.One
}

// =============================================================================
// PROJECTION - One forward reporting period
// =============================================================================

type Projection struct {
	Mode             int // 1-based period number
	Date             finance.Date
	ClosingLiability decimal.Decimal
	ClosingROUAsset  decimal.Decimal
	Depreciation     decimal.Decimal
	Interest         decimal.Decimal
	RentPaid         decimal.Decimal
}

// =============================================================================
// JOURNAL ENTRY - One line of the double-entry output
// =============================================================================

type JournalEntry struct {
	BSPL                  string // "BS" or "PL"
	AccountCode           string
	AccountName           string
	ResultPeriod          decimal.Decimal
	PreviousPeriod        decimal.Decimal
	IncrementalAdjustment decimal.Decimal
	IFRSAdjustment        decimal.Decimal
	USGAAPEntry           decimal.Decimal
}
