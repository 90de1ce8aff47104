package finance_test

import (
	"strings"
	"testing"
	"time"

	"github.com/warp/lease-engine/finance"
)

func testCurve() *finance.RateTable {
	rt := finance.NewRateTable()
	rt.Add(1, d(2019, time.January, 1), finance.MustDecimal("7.48"))
	rt.Add(1, d(2019, time.March, 1), finance.MustDecimal("7.35"))
	rt.Add(1, d(2019, time.May, 1), finance.MustDecimal("7.03"))
	return rt
}

// =============================================================================
// LOOKUP RULE
// =============================================================================

func TestRateTable_FirstEntryOnOrBeforeWins(t *testing.T) {
	rt := testCurve()

	// Exact hit.
	if got := rt.Rate(d(2019, time.March, 1), 1); !got.Equal(finance.MustDecimal("0.0735")) {
		t.Errorf("rate at 2019-03-01 = %s, want 0.0735", got)
	}
	// Between two entries: the earlier one carries.
	if got := rt.Rate(d(2019, time.April, 15), 1); !got.Equal(finance.MustDecimal("0.0735")) {
		t.Errorf("rate at 2019-04-15 = %s, want 0.0735", got)
	}
	// After every entry: the newest.
	if got := rt.Rate(d(2025, time.January, 1), 1); !got.Equal(finance.MustDecimal("0.0703")) {
		t.Errorf("rate at 2025-01-01 = %s, want 0.0703", got)
	}
}

func TestRateTable_OlderThanEveryEntryFallsBackToNewest(t *testing.T) {
	rt := testCurve()
	if got := rt.Rate(d(2010, time.June, 1), 1); !got.Equal(finance.MustDecimal("0.0703")) {
		t.Errorf("pre-curve rate = %s, want newest 0.0703", got)
	}
}

func TestRateTable_UnknownTablesResolveToZero(t *testing.T) {
	rt := testCurve()
	if got := rt.Rate(d(2019, time.June, 1), 0); !got.IsZero() {
		t.Errorf("table 0 rate = %s, want zero", got)
	}
	if got := rt.Rate(d(2019, time.June, 1), 99); !got.IsZero() {
		t.Errorf("unknown table rate = %s, want zero", got)
	}
}

// =============================================================================
// CSV INGESTION
// =============================================================================

func TestLoadCSV(t *testing.T) {
	// GIVEN: The three-column file the finance team maintains, with header
	csv := "table,effective_date,rate_percent\n" +
		"1,2019-01-01,7.48\n" +
		"1,2019-05-01,7.03\n" +
		"2,2019-03-01,8.51\n"

	rt := finance.NewRateTable()
	if err := rt.LoadCSV(strings.NewReader(csv)); err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}

	if got := rt.Rate(d(2019, time.February, 1), 1); !got.Equal(finance.MustDecimal("0.0748")) {
		t.Errorf("table 1 rate = %s, want 0.0748", got)
	}
	if got := rt.Rate(d(2019, time.June, 1), 2); !got.Equal(finance.MustDecimal("0.0851")) {
		t.Errorf("table 2 rate = %s, want 0.0851", got)
	}
}

func TestLoadCSV_MalformedRowReportsLineNumber(t *testing.T) {
	csv := "table,effective_date,rate_percent\n" +
		"1,2019-01-01,7.48\n" +
		"1,not-a-date,7.03\n"

	rt := finance.NewRateTable()
	err := rt.LoadCSV(strings.NewReader(csv))
	if err == nil {
		t.Fatal("expected an error for the malformed date")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error should name line 3, got: %v", err)
	}
}

// =============================================================================
// EXPORT
// =============================================================================

func TestPoints_RoundTripsWholePercents(t *testing.T) {
	rt := testCurve()
	pts := rt.Points()
	if len(pts) != 3 {
		t.Fatalf("Points() returned %d entries, want 3", len(pts))
	}
	// Newest first within the table.
	if !pts[0].From.Equal(d(2019, time.May, 1)) {
		t.Errorf("first point dated %s, want 2019-05-01", pts[0].From)
	}
	if !pts[0].Percent.Equal(finance.MustDecimal("7.03")) {
		t.Errorf("exported percent = %s, want the whole percent 7.03", pts[0].Percent)
	}
}

// =============================================================================
// SHIPPED CURVE
// =============================================================================

func TestDefaultRateTable(t *testing.T) {
	rt := finance.DefaultRateTable()
	if got := rt.Rate(d(2019, time.June, 1), 1); !got.Equal(finance.MustDecimal("0.0703")) {
		t.Errorf("table 1 at 2019-06-01 = %s, want 0.0703", got)
	}
	if got := rt.Rate(d(2019, time.March, 15), 1); !got.Equal(finance.MustDecimal("0.0735")) {
		t.Errorf("table 1 at 2019-03-15 = %s, want 0.0735", got)
	}
	if got := rt.Rate(d(2019, time.March, 1), 2); !got.Equal(finance.MustDecimal("0.0851")) {
		t.Errorf("table 2 at 2019-03-01 = %s, want 0.0851", got)
	}
}
