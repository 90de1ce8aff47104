/*
modification.go - Lease modification outcomes

PURPOSE:
  When a lease record supersedes another (ModifiesID set), the carrying
  amounts of the predecessor are captured at the modification date and
  the remeasurement gain is derived from them. The outcome is returned
  as its own value; the lease record is never written back.
*/
package lease

import (
	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/finance"
)

// ModificationOutcome captures the predecessor's carrying amounts at
// the modification date and the gains derived from them. The COVID
// practical-expedient and sublease components need the successor
// schedule and stay zero when it is not part of the calculation.
type ModificationOutcome struct {
	LiabilityAtModification decimal.Decimal
	ROUAtModification       decimal.Decimal
	SecurityAtModification  decimal.Decimal
	AROAtModification       decimal.Decimal
	AccumulatedDepreciation decimal.Decimal
	GrossSecurity           decimal.Decimal

	ModificationGain             decimal.Decimal
	CovidPEGain                  decimal.Decimal
	SubleaseModificationGainLoss decimal.Decimal
}

// ComputeModificationOutcome reads the modification-date balances from
// the schedule and derives the remeasurement gain: the extinguished
// liability and provision, net of the deposit's carrying value, and
// the movement from the face deposit to its gross (stepped-up) amount.
func ComputeModificationOutcome(ld *LeaseData, rows []ScheduleRow, balanceDate finance.Date) *ModificationOutcome {
	out := &ModificationOutcome{}
	if ld.ModifiesID <= 0 || ld.DateModified.IsZero() {
		return out
	}

	out.GrossSecurity = grossSecurity(ld, balanceDate)

	// Exact-match row preferred, carrying-rule lookup otherwise;
	// depreciation accumulates over the rows before the modification.
	matched := false
	for i := range rows {
		if rows[i].Date.Equal(ld.DateModified) {
			out.LiabilityAtModification = rows[i].Liability
			out.ROUAtModification = rows[i].ROUAsset
			out.SecurityAtModification = rows[i].SecurityDepositPV
			out.AROAtModification = rows[i].AROProvision
			matched = true
			break
		}
		if rows[i].Date.Before(ld.DateModified) {
			out.AccumulatedDepreciation = out.AccumulatedDepreciation.Add(rows[i].Depreciation.Abs())
		}
	}
	if !matched {
		bal := BalancesAt(rows, ld.DateModified)
		out.LiabilityAtModification = bal.Liability
		out.ROUAtModification = bal.ROUAsset
		out.SecurityAtModification = bal.SecurityDepositPV
		out.AROAtModification = bal.AROProvision
	}

	out.ModificationGain = finance.Sum(
		out.LiabilityAtModification,
		out.AROAtModification,
		out.SecurityAtModification.Neg(),
		ld.SecurityDeposit.Neg(),
		out.GrossSecurity,
	)
	return out
}
