package finance_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/finance"
)

func approx(t *testing.T, got decimal.Decimal, want string, tolerance string, label string) {
	t.Helper()
	w := finance.MustDecimal(want)
	tol := finance.MustDecimal(tolerance)
	if got.Sub(w).Abs().GreaterThan(tol) {
		t.Errorf("%s = %s, want %s (±%s)", label, got, want, tolerance)
	}
}

// =============================================================================
// COMPOUND INTERVAL DERIVATION
// =============================================================================

func TestDeriveCompoundMonths(t *testing.T) {
	cases := []struct {
		freq, explicit, want int
	}{
		{1, 0, 1},
		{2, 0, 1},
		{3, 0, 3},
		{6, 0, 6},
		{12, 0, 12},
		{24, 0, 12}, // annual-or-longer compounds annually
		{1, 1, 1},
		{3, 3, 3},
		// An explicit interval only counts when it matches the frequency.
		{1, 12, 1},
		{6, 12, 6},
	}
	for _, c := range cases {
		if got := finance.DeriveCompoundMonths(c.freq, c.explicit); got != c.want {
			t.Errorf("DeriveCompoundMonths(%d, %d) = %d, want %d", c.freq, c.explicit, got, c.want)
		}
	}
}

// =============================================================================
// GROWTH AND PV FACTORS
// =============================================================================

func TestGrowthFactor_MonthlyCompounding(t *testing.T) {
	// GIVEN: 12% annual, monthly compounding, one full year
	// THEN: (1.01)^12

	got := finance.GrowthFactor(finance.MustDecimal("0.12"), 365, 1)
	approx(t, got, "1.12682503", "0.00000001", "GrowthFactor(0.12, 365, 1)")
}

func TestGrowthFactor_AnnualCompounding(t *testing.T) {
	// GIVEN: 8% annual, annual compounding, one full year
	// THEN: Exactly one compounding period, 1.08

	got := finance.GrowthFactor(finance.MustDecimal("0.08"), 365, 12)
	approx(t, got, "1.08", "0.00000001", "GrowthFactor(0.08, 365, 12)")
}

func TestGrowthFactor_Guards(t *testing.T) {
	rate := finance.MustDecimal("0.08")
	if got := finance.GrowthFactor(rate, 0, 1); !got.Equal(finance.One) {
		t.Errorf("zero days should yield a factor of one, got %s", got)
	}
	if got := finance.GrowthFactor(rate, -30, 1); !got.Equal(finance.One) {
		t.Errorf("negative days should yield a factor of one, got %s", got)
	}
	if got := finance.GrowthFactor(decimal.Zero, 365, 1); !got.Equal(finance.One) {
		t.Errorf("zero rate should yield a factor of one, got %s", got)
	}
}

func TestPVFactor_InvertsGrowth(t *testing.T) {
	rate := finance.MustDecimal("0.08")
	product := finance.GrowthFactor(rate, 500, 1).Mul(finance.PVFactor(rate, 500, 1))
	approx(t, product, "1", "0.0000000001", "growth * pv")
}

func TestMonthlyPVFactor_IsMonthlyCompoundedPV(t *testing.T) {
	rate := finance.MustDecimal("0.075")
	if got, want := finance.MonthlyPVFactor(rate, 730), finance.PVFactor(rate, 730, 1); !got.Equal(want) {
		t.Errorf("MonthlyPVFactor = %s, want %s", got, want)
	}
}

func TestCompoundPow(t *testing.T) {
	base := finance.MustDecimal("1.05")
	approx(t, finance.CompoundPow(base, 1), "1.05", "0.0000000001", "1.05^1")
	approx(t, finance.CompoundPow(base, 3), "1.157625", "0.0000000001", "1.05^3")
	if got := finance.CompoundPow(base, 0); !got.Equal(finance.One) {
		t.Errorf("1.05^0 = %s, want 1", got)
	}
	if got := finance.CompoundPow(base, -2); !got.Equal(finance.One) {
		t.Errorf("negative power should clamp to one, got %s", got)
	}
}

// =============================================================================
// PERCENT NORMALIZATION
// =============================================================================

func TestNormalizePercent(t *testing.T) {
	// Legacy data records 5% as either 5 or 0.05; both normalize to the
	// whole percent.
	cases := []struct {
		in, want string
	}{
		{"5", "5"},
		{"0.05", "5"},
		{"8", "8"},
		{"0.0703", "7.03"},
		{"0", "0"},
		{"1", "1"},
	}
	for _, c := range cases {
		got := finance.NormalizePercent(finance.MustDecimal(c.in))
		if !got.Equal(finance.MustDecimal(c.want)) {
			t.Errorf("NormalizePercent(%s) = %s, want %s", c.in, got, c.want)
		}
	}
}
