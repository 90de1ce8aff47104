package finance

import (
	"encoding/json"
	"strings"
	"time"
)

// =============================================================================
// DATE - Day-granular calendar point with spreadsheet semantics
// =============================================================================

// Date is a calendar day in UTC. The zero value means "not set", which the
// lease data model uses for optional anchor dates.
type Date struct {
	t time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts the ISO form used throughout payloads and rate files.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(o Date) bool        { return d.t.Before(o.t) }
func (d Date) After(o Date) bool         { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool         { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.t.After(o.t) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.t.Before(o.t) }
func (d Date) IsZero() bool              { return d.t.IsZero() }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }

// MonthIndex collapses year+month into a single comparable ordinal,
// the spreadsheet's year*12+month trick for "same calendar month".
func (d Date) MonthIndex() int { return d.t.Year()*12 + int(d.t.Month()) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// AddMonths follows spreadsheet EDATE: the day of month is preserved and
// clamped to the end of the target month instead of overflowing the way
// time.AddDate does (Jan 31 + 1 month is Feb 28/29, not Mar 2/3).
func (d Date) AddMonths(n int) Date {
	y, m, day := d.t.Year(), int(d.t.Month()), d.t.Day()
	m += n
	y += (m - 1) / 12
	m = (m-1)%12 + 1
	if m < 1 {
		m += 12
		y--
	}
	if max := daysInMonth(y, time.Month(m)); day > max {
		day = max
	}
	return NewDate(y, time.Month(m), day)
}

// EOMonth returns the last day of the month n months away (spreadsheet
// EOMONTH).
func (d Date) EOMonth(n int) Date {
	shifted := d.AddMonths(n)
	return NewDate(shifted.Year(), shifted.Month(), daysInMonth(shifted.Year(), shifted.Month()))
}

// IsMonthEnd reports whether the next calendar day falls in a new month.
func (d Date) IsMonthEnd() bool {
	return d.t.Month() != d.t.AddDate(0, 0, 1).Month()
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns to - from in whole days; negative when to precedes
// from.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

func Today() Date {
	return DateOf(time.Now())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format("2006-01-02")
}

// JSON round-trips as "YYYY-MM-DD"; empty string and null mean unset.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
