package lease_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/lease-engine/finance"
	"github.com/warp/lease-engine/lease"
)

func reportingYear2024() lease.Filters {
	return lease.Filters{
		StartDate: date(2024, time.January, 1),
		EndDate:   date(2024, time.December, 31),
		Standard:  lease.StandardIFRS,
	}
}

// =============================================================================
// FILTER VALIDATION
// =============================================================================

func TestFilters_IncompleteWindowFailsFast(t *testing.T) {
	f := lease.Filters{StartDate: date(2024, time.January, 1)}
	if err := f.Validate(); !errors.Is(err, lease.ErrFiltersIncomplete) {
		t.Errorf("got %v, want ErrFiltersIncomplete", err)
	}
	if !lease.IsClientError(lease.ErrFiltersIncomplete) {
		t.Error("incomplete filters should classify as a client error")
	}
}

// =============================================================================
// LIABILITY SPLIT POLICIES
// =============================================================================

func TestProportionalSplit_LegacyThirtyPercent(t *testing.T) {
	// GIVEN: The default split policy
	// THEN: 30% of the closing liability is current, and the two parts
	//       recombine exactly

	current, nonCurrent := lease.DefaultSplitPolicy().Split(lease.SplitInput{Total: money("1000")})
	if !current.Equal(money("300")) {
		t.Errorf("current = %s, want 300", current)
	}
	if !current.Add(nonCurrent).Equal(money("1000")) {
		t.Errorf("split parts sum to %s, want the total", current.Add(nonCurrent))
	}
}

func TestPVNext12Months_CapsAtTheTotal(t *testing.T) {
	// GIVEN: Discounted rentals in the next year exceeding the closing
	//        liability
	// THEN: The current portion clamps to the total, never negative
	//       non-current

	ld := flatLease()
	rows := []lease.ScheduleRow{
		{Date: date(2024, time.January, 1), PVFactor: finance.One, IsOpening: true},
		{Date: date(2024, time.July, 1), Rental: money("500"), PVOfRent: money("490"), PVFactor: money("0.98")},
		{Date: date(2025, time.January, 1), Rental: money("500"), PVOfRent: money("480"), PVFactor: money("0.96")},
	}

	current, nonCurrent := lease.PVNext12Months{}.Split(lease.SplitInput{
		Total:    money("100"),
		Schedule: rows,
		Closing:  date(2024, time.June, 30),
		Lease:    &ld,
	})
	if !current.Equal(money("100")) {
		t.Errorf("current = %s, want capped at 100", current)
	}
	if !nonCurrent.IsZero() {
		t.Errorf("non-current = %s, want zero", nonCurrent)
	}
}

// =============================================================================
// COMPILATION
// =============================================================================

func TestCompile_PopulatesBalancesAndActivity(t *testing.T) {
	// GIVEN: The escalating lease and the 2024 reporting year
	// WHEN: Compiling
	// THEN: Opening balances read the schedule start, rent accumulates,
	//       and the closing liability split recombines to the schedule's
	//       carrying amount

	compiler := lease.NewResultCompiler(newGenerator(), nil)
	res, rows, err := compiler.Compile(escalatingLease(), reportingYear2024())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if res.LeaseID != 1024 {
		t.Errorf("lease id = %d, want 1024", res.LeaseID)
	}
	if !res.OpeningLiability.Equal(rows[0].Liability) {
		t.Errorf("opening liability %s != schedule opening %s", res.OpeningLiability, rows[0].Liability)
	}
	if !res.RentPaid.IsPositive() || !res.InterestExpense.IsPositive() || !res.DepreciationExpense.IsPositive() {
		t.Error("a full reporting year should accumulate rent, interest, and depreciation")
	}

	closing := lease.BalancesAt(rows, date(2024, time.December, 31))
	if !res.ClosingLiabilityTotal().Equal(closing.Liability) {
		t.Errorf("split total %s != closing liability %s", res.ClosingLiabilityTotal(), closing.Liability)
	}
	// Default policy: 30% current.
	if !res.ClosingLiabilityCurrent.Equal(closing.Liability.Mul(money("0.3"))) {
		t.Errorf("current portion = %s, want 30%% of %s", res.ClosingLiabilityCurrent, closing.Liability)
	}
}

func TestCompile_RejectsIncompleteFilters(t *testing.T) {
	compiler := lease.NewResultCompiler(newGenerator(), nil)
	_, _, err := compiler.Compile(escalatingLease(), lease.Filters{})
	if !errors.Is(err, lease.ErrFiltersIncomplete) {
		t.Errorf("got %v, want ErrFiltersIncomplete", err)
	}
}

func TestCompile_SubleaseRecognizesDayOneGainLoss(t *testing.T) {
	// GIVEN: A sublease carrying a stated right-of-use above the liability
	// THEN: The difference lands in the period gain/loss

	ld := escalatingLease()
	ld.Sublease = true
	ld.SubleaseROU = money("9000000")

	compiler := lease.NewResultCompiler(newGenerator(), nil)
	res, rows, err := compiler.Compile(ld, reportingYear2024())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	want := rows[0].ROUAsset.Sub(rows[0].Liability)
	if !res.SubleaseGainLoss.Equal(want) {
		t.Errorf("sublease gain/loss = %s, want %s", res.SubleaseGainLoss, want)
	}
	if !res.GainLossPnL.Equal(want) {
		t.Errorf("P&L gain/loss = %s, want %s", res.GainLossPnL, want)
	}
}

func TestCompile_TerminationBeforeCloseRecognizesGainLoss(t *testing.T) {
	// GIVEN: A lease terminating mid-window with a penalty
	// THEN: A non-zero termination gain/loss is recognized

	ld := escalatingLease()
	ld.TerminationDate = date(2024, time.June, 30)
	ld.TerminationPenalty = money("25000")

	compiler := lease.NewResultCompiler(newGenerator(), nil)
	res, _, err := compiler.Compile(ld, reportingYear2024())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.TerminationGainLoss.IsZero() {
		t.Error("termination inside the window should recognize a gain or loss")
	}
	if !res.GainLossPnL.Equal(res.TerminationGainLoss) {
		t.Errorf("P&L gain/loss = %s, want the termination component %s", res.GainLossPnL, res.TerminationGainLoss)
	}
}

func TestCompile_ProjectionsWhenEnabled(t *testing.T) {
	// GIVEN: Projections requested for three forward periods
	// THEN: Each projection advances and the liability declines

	f := reportingYear2024()
	f.EnableProjections = true
	f.ProjectionPeriods = 3
	f.ProjectionMonths = 12

	compiler := lease.NewResultCompiler(newGenerator(), nil)
	res, _, err := compiler.Compile(escalatingLease(), f)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(res.Projections) != 3 {
		t.Fatalf("got %d projections, want 3", len(res.Projections))
	}
	for i := 1; i < len(res.Projections); i++ {
		if !res.Projections[i].Date.After(res.Projections[i-1].Date) {
			t.Fatal("projection dates should advance")
		}
	}
}
