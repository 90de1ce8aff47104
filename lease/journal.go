/*
journal.go - Double-entry journal generation

PURPOSE:
  Turns one compiled result into the period's journal lines: balance
  sheet lines carry closing balances (liabilities and recoverable
  deposits with a credit sign), P&L lines carry the period's activity,
  and a final Retained Earnings line forces the set to balance to zero.
  Sublease results flip sign on every line. Previous-period amounts,
  when supplied, feed the incremental adjustment column.
*/
package lease

import (
	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/finance"
)

// Chart of accounts for the tracked lines.
var accountCodes = map[string]string{
	"Lease Liability Non-current": "2101",
	"Lease Liability Current":     "2102",
	"RoU Asset (net)":             "1200",
	"Interest Cost":               "5101",
	"Depreciation":                "5102",
	"Rent Paid":                   "5103",
	"ARO Interest":                "5104",
	"Interest on Security Dep":    "5105",
	"ARO Provision Closing":       "2201",
	"Security Deposit":            "1201",
	"Retained Earnings":           "3100",
	"(Gain)/Loss in P&L":          "5200",
}

type JournalGenerator struct {
	Standard Standard
}

func NewJournalGenerator(std Standard) *JournalGenerator {
	if std == "" {
		std = StandardIFRS
	}
	return &JournalGenerator{Standard: std}
}

// Generate builds the journal lines for one result. previous may be
// nil for the first reporting period.
func (g *JournalGenerator) Generate(result *Result, previous *Result) []JournalEntry {
	sign := result.subleaseSign()
	prevSign := finance.One
	if previous != nil {
		prevSign = previous.subleaseSign()
	}
	prev := func(pick func(*Result) decimal.Decimal) decimal.Decimal {
		if previous == nil {
			return decimal.Zero
		}
		return pick(previous).Mul(prevSign)
	}

	var entries []JournalEntry
	add := func(bspl, name string, resultPeriod, previousPeriod decimal.Decimal) {
		entries = append(entries, JournalEntry{
			BSPL:           bspl,
			AccountCode:    accountCodes[name],
			AccountName:    name,
			ResultPeriod:   resultPeriod.Mul(sign),
			PreviousPeriod: previousPeriod,
		})
	}

	add("BS", "Lease Liability Non-current",
		result.ClosingLiabilityNonCurrent.Neg(),
		prev(func(r *Result) decimal.Decimal { return r.ClosingLiabilityNonCurrent.Neg() }))
	add("BS", "Lease Liability Current",
		result.ClosingLiabilityCurrent.Neg(),
		prev(func(r *Result) decimal.Decimal { return r.ClosingLiabilityCurrent.Neg() }))
	add("PL", "Interest Cost",
		result.InterestExpense,
		prev(func(r *Result) decimal.Decimal { return r.InterestExpense }))
	add("BS", "RoU Asset (net)",
		result.ClosingROUAsset,
		prev(func(r *Result) decimal.Decimal { return r.ClosingROUAsset }))
	add("PL", "Depreciation",
		result.DepreciationExpense,
		prev(func(r *Result) decimal.Decimal { return r.DepreciationExpense }))

	if !result.GainLossPnL.IsZero() {
		add("PL", "(Gain)/Loss in P&L",
			result.GainLossPnL,
			prev(func(r *Result) decimal.Decimal { return r.GainLossPnL }))
	}
	if !result.AROInterest.IsZero() {
		add("PL", "ARO Interest",
			result.AROInterest,
			prev(func(r *Result) decimal.Decimal { return r.AROInterest }))
	}
	if !result.ClosingARO.IsZero() {
		add("BS", "ARO Provision Closing",
			result.ClosingARO,
			prev(func(r *Result) decimal.Decimal { return r.ClosingARO }))
	}
	if !result.SecurityDepositChange.IsZero() {
		add("PL", "Interest on Security Dep",
			result.SecurityDepositChange,
			prev(func(r *Result) decimal.Decimal { return r.SecurityDepositChange }))
	}
	// The deposit shows as a single recoverable line, never split.
	if result.ClosingSecurity.IsPositive() {
		add("BS", "Security Deposit",
			result.ClosingSecurity.Neg(),
			prev(func(r *Result) decimal.Decimal { return r.ClosingSecurity.Neg() }))
	}
	add("PL", "Rent Paid",
		result.RentPaid.Neg(),
		prev(func(r *Result) decimal.Decimal { return r.RentPaid.Neg() }))

	// Balancing line.
	sumResult, sumPrevious := decimal.Zero, decimal.Zero
	for _, e := range entries {
		sumResult = sumResult.Add(e.ResultPeriod)
		sumPrevious = sumPrevious.Add(e.PreviousPeriod)
	}
	entries = append(entries, JournalEntry{
		BSPL:           "BS",
		AccountCode:    accountCodes["Retained Earnings"],
		AccountName:    "Retained Earnings",
		ResultPeriod:   sumResult.Neg(),
		PreviousPeriod: sumPrevious.Neg(),
	})

	std := g.Standard
	if std == "" {
		std = StandardIFRS
	}
	for i := range entries {
		e := &entries[i]
		e.IncrementalAdjustment = e.ResultPeriod.Sub(e.PreviousPeriod)
		if std.IsUSGAAP() {
			e.USGAAPEntry = e.ResultPeriod
		} else {
			e.IFRSAdjustment = e.ResultPeriod
		}
	}
	return entries
}

// journalBalanceTolerance absorbs decimal dust when verifying.
var journalBalanceTolerance = finance.MustDecimal("0.01")

// VerifyBalance reports whether the result-period column sums to zero.
func VerifyBalance(entries []JournalEntry) bool {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.ResultPeriod)
	}
	return total.Abs().LessThan(journalBalanceTolerance)
}
