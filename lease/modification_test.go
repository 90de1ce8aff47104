package lease_test

import (
	"testing"
	"time"

	"github.com/warp/lease-engine/lease"
)

func TestComputeModificationOutcome_CapturesCarryingAmounts(t *testing.T) {
	// GIVEN: A successor record modifying lease 7, effective on a
	//        schedule row
	// THEN: The outcome reads that row's balances and derives the
	//       remeasurement gain from them

	ld := (&lease.LeaseData{
		ID:              8,
		ModifiesID:      7,
		DateModified:    date(2024, time.February, 1),
		SecurityDeposit: money("500"),
		StartDate:       date(2024, time.January, 1),
		EndDate:         date(2024, time.December, 31),
	}).Normalized()

	rows := []lease.ScheduleRow{
		{Date: date(2024, time.January, 1), Liability: money("1000"), ROUAsset: money("900"), IsOpening: true},
		{Date: date(2024, time.January, 31), Liability: money("950"), ROUAsset: money("850"), Depreciation: money("50")},
		{Date: date(2024, time.February, 1), Liability: money("920"), ROUAsset: money("830"), SecurityDepositPV: money("480")},
	}

	out := lease.ComputeModificationOutcome(&ld, rows, date(2024, time.December, 31))

	if !out.LiabilityAtModification.Equal(money("920")) {
		t.Errorf("liability at modification = %s, want 920", out.LiabilityAtModification)
	}
	if !out.AccumulatedDepreciation.Equal(money("50")) {
		t.Errorf("accumulated depreciation = %s, want 50", out.AccumulatedDepreciation)
	}
	// Gain: liability + provision - deposit carrying - face deposit + gross.
	want := money("920").Add(money("480").Neg()).Add(money("500").Neg()).Add(money("500"))
	if !out.ModificationGain.Equal(want) {
		t.Errorf("modification gain = %s, want %s", out.ModificationGain, want)
	}
}

func TestComputeModificationOutcome_NoModificationIsZero(t *testing.T) {
	ld := flatLease().Normalized()
	out := lease.ComputeModificationOutcome(&ld, nil, date(2024, time.December, 31))
	if !out.ModificationGain.IsZero() {
		t.Errorf("gain without a modification = %s, want zero", out.ModificationGain)
	}
}
