package finance_test

import (
	"testing"
	"time"

	"github.com/warp/lease-engine/finance"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(y int, m time.Month, day int) finance.Date {
	return finance.NewDate(y, m, day)
}

// =============================================================================
// EDATE / EOMONTH SEMANTICS
// =============================================================================

func TestAddMonths_ClampsToShorterMonth(t *testing.T) {
	// GIVEN: January 31 in a leap year
	// WHEN: Adding one month
	// THEN: The day clamps to February 29, not March 2

	got := d(2024, time.January, 31).AddMonths(1)
	if !got.Equal(d(2024, time.February, 29)) {
		t.Errorf("Jan 31 2024 + 1 month = %s, want 2024-02-29", got)
	}

	got = d(2023, time.January, 31).AddMonths(1)
	if !got.Equal(d(2023, time.February, 28)) {
		t.Errorf("Jan 31 2023 + 1 month = %s, want 2023-02-28", got)
	}
}

func TestAddMonths_NegativeOffsets(t *testing.T) {
	// GIVEN: March 31
	// WHEN: Subtracting one month
	// THEN: The day clamps into February

	got := d(2024, time.March, 31).AddMonths(-1)
	if !got.Equal(d(2024, time.February, 29)) {
		t.Errorf("Mar 31 2024 - 1 month = %s, want 2024-02-29", got)
	}

	got = d(2024, time.February, 15).AddMonths(-14)
	if !got.Equal(d(2022, time.December, 15)) {
		t.Errorf("Feb 15 2024 - 14 months = %s, want 2022-12-15", got)
	}
}

func TestAddMonths_CrossesYearBoundary(t *testing.T) {
	got := d(2024, time.November, 30).AddMonths(3)
	if !got.Equal(d(2025, time.February, 28)) {
		t.Errorf("Nov 30 2024 + 3 months = %s, want 2025-02-28", got)
	}
}

func TestEOMonth(t *testing.T) {
	cases := []struct {
		in     finance.Date
		offset int
		want   finance.Date
	}{
		{d(2024, time.January, 15), 0, d(2024, time.January, 31)},
		{d(2024, time.January, 15), 1, d(2024, time.February, 29)},
		{d(2023, time.January, 15), 1, d(2023, time.February, 28)},
		{d(2024, time.December, 1), -1, d(2024, time.November, 30)},
	}
	for _, c := range cases {
		if got := c.in.EOMonth(c.offset); !got.Equal(c.want) {
			t.Errorf("EOMonth(%s, %d) = %s, want %s", c.in, c.offset, got, c.want)
		}
	}
}

func TestIsMonthEnd(t *testing.T) {
	// GIVEN: February 28 in a common year and in a leap year
	// THEN: Only the common year treats it as the month end

	if !d(2023, time.February, 28).IsMonthEnd() {
		t.Error("2023-02-28 should be a month end")
	}
	if d(2024, time.February, 28).IsMonthEnd() {
		t.Error("2024-02-28 should not be a month end (leap year)")
	}
	if !d(2024, time.February, 29).IsMonthEnd() {
		t.Error("2024-02-29 should be a month end")
	}
}

// =============================================================================
// ORDINALS AND DIFFERENCES
// =============================================================================

func TestMonthIndex_SameMonthCollapses(t *testing.T) {
	a := d(2024, time.January, 1)
	b := d(2024, time.January, 31)
	c := d(2024, time.February, 1)
	if a.MonthIndex() != b.MonthIndex() {
		t.Error("dates in the same month should share a month index")
	}
	if c.MonthIndex() != a.MonthIndex()+1 {
		t.Error("the following month should increment the index by one")
	}
}

func TestDaysBetween(t *testing.T) {
	if got := finance.DaysBetween(d(2024, time.January, 1), d(2024, time.January, 16)); got != 15 {
		t.Errorf("DaysBetween = %d, want 15", got)
	}
	if got := finance.DaysBetween(d(2024, time.January, 16), d(2024, time.January, 1)); got != -15 {
		t.Errorf("reversed DaysBetween = %d, want -15", got)
	}
	// Leap day counts.
	if got := finance.DaysBetween(d(2024, time.February, 1), d(2024, time.March, 1)); got != 29 {
		t.Errorf("Feb 2024 span = %d days, want 29", got)
	}
}

// =============================================================================
// PARSING
// =============================================================================

func TestParseDate(t *testing.T) {
	// GIVEN: The ISO form used in payloads
	got, err := finance.ParseDate("2024-06-30")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !got.Equal(d(2024, time.June, 30)) {
		t.Errorf("ParseDate = %s, want 2024-06-30", got)
	}

	// Empty means "not set", never an error.
	got, err = finance.ParseDate("")
	if err != nil {
		t.Fatalf("ParseDate(\"\"): %v", err)
	}
	if !got.IsZero() {
		t.Error("empty string should parse to the zero date")
	}

	if _, err := finance.ParseDate("30/06/2024"); err == nil {
		t.Error("non-ISO date should fail to parse")
	}
}
