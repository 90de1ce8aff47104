/*
rates.go - Risk-free rate tables for provision discounting

PURPOSE:
  Asset-retirement provisions discount at a risk-free rate published per
  effective date in numbered tables. The engine never owns the data; it
  receives a RateLookup and asks for "the rate in table N effective at
  date D". RateTable is the in-memory implementation, loadable from the
  three-column CSV the finance team maintains (table, date, percent).

LOOKUP RULE:
  Entries sort newest-first; the first entry dated on or before the query
  wins. A query older than every entry falls back to the most recent rate.
  Unknown or zero table ids resolve to a zero rate, which callers treat
  as "do not discount".
*/
package finance

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// RateLookup resolves a decimal annual rate (0.0703 for 7.03%) for a
// table at a date. Implementations must be safe for concurrent use.
type RateLookup interface {
	Rate(at Date, table int) decimal.Decimal
}

// RateLookupFunc adapts a plain function to RateLookup.
type RateLookupFunc func(at Date, table int) decimal.Decimal

func (f RateLookupFunc) Rate(at Date, table int) decimal.Decimal { return f(at, table) }

type ratePoint struct {
	from Date
	rate decimal.Decimal
}

// RateTable holds dated rate curves keyed by table id.
type RateTable struct {
	mu     sync.RWMutex
	tables map[int][]ratePoint
}

func NewRateTable() *RateTable {
	return &RateTable{tables: make(map[int][]ratePoint)}
}

// Add records a rate effective from the given date. The rate is a whole
// percent (7.03 means 7.03%); it is stored as a decimal fraction.
func (rt *RateTable) Add(table int, from Date, percent decimal.Decimal) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.tables[table] = append(rt.tables[table], ratePoint{from: from, rate: percent.Div(Hundred)})
	rt.sortLocked(table)
}

func (rt *RateTable) sortLocked(table int) {
	pts := rt.tables[table]
	sort.Slice(pts, func(i, j int) bool { return pts[i].from.After(pts[j].from) })
}

// Rate implements RateLookup.
func (rt *RateTable) Rate(at Date, table int) decimal.Decimal {
	if table == 0 {
		return decimal.Zero
	}
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	pts, ok := rt.tables[table]
	if !ok || len(pts) == 0 {
		return decimal.Zero
	}
	for _, p := range pts {
		if p.from.BeforeOrEqual(at) {
			return p.rate
		}
	}
	// Older than every published entry: fall back to the newest rate.
	return pts[0].rate
}

// Point is one exported curve entry. Percent is a whole percent again
// (the inverse of Add).
type Point struct {
	Table   int
	From    Date
	Percent decimal.Decimal
}

// Points returns every entry across all tables, newest-first within a
// table, table ids ascending.
func (rt *RateTable) Points() []Point {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	ids := make([]int, 0, len(rt.tables))
	for id := range rt.tables {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var out []Point
	for _, id := range ids {
		for _, p := range rt.tables[id] {
			out = append(out, Point{Table: id, From: p.from, Percent: p.rate.Mul(Hundred)})
		}
	}
	return out
}

// LoadCSV ingests rows of "table,effective_date,rate_percent". A header
// row is skipped; malformed rows are an error with their line number.
func (rt *RateTable) LoadCSV(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("rate csv: %w", err)
	}
	for i, rec := range records {
		if i == 0 && isHeaderRow(rec) {
			continue
		}
		if len(rec) < 3 {
			return fmt.Errorf("rate csv line %d: want 3 columns, got %d", i+1, len(rec))
		}
		table, err := strconv.Atoi(rec[0])
		if err != nil {
			return fmt.Errorf("rate csv line %d: table id: %w", i+1, err)
		}
		from, err := ParseDate(rec[1])
		if err != nil {
			return fmt.Errorf("rate csv line %d: date: %w", i+1, err)
		}
		percent, err := decimal.NewFromString(rec[2])
		if err != nil {
			return fmt.Errorf("rate csv line %d: rate: %w", i+1, err)
		}
		rt.Add(table, from, percent)
	}
	return nil
}

func isHeaderRow(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	_, err := strconv.Atoi(rec[0])
	return err != nil
}

// DefaultRateTable seeds the published curve the legacy workbook shipped
// with, so a server starts with usable reference data before any upload.
func DefaultRateTable() *RateTable {
	rt := NewRateTable()
	seed := []struct {
		table       int
		y, m, d     int
		ratePercent string
	}{
		{1, 2019, 5, 1, "7.03"},
		{1, 2019, 3, 31, "7.41"},
		{1, 2019, 3, 1, "7.35"},
		{1, 2019, 2, 1, "7.59"},
		{1, 2019, 1, 1, "7.48"},
		{1, 2018, 12, 1, "7.37"},
		{1, 2018, 11, 1, "7.61"},
		{1, 2018, 10, 1, "7.85"},
		{1, 2018, 9, 1, "8.02"},
		{1, 2018, 8, 1, "7.95"},
		{1, 2018, 7, 1, "7.77"},
		{1, 2018, 6, 1, "7.90"},
		{1, 2018, 5, 1, "7.83"},
		{1, 2018, 4, 1, "7.77"},
		{1, 2018, 3, 1, "7.40"},
		{1, 2018, 2, 1, "7.73"},
		{1, 2018, 1, 1, "7.43"},
		{1, 2017, 12, 1, "7.32"},
		{1, 2017, 11, 1, "7.06"},
		{1, 2017, 10, 1, "6.86"},
		{1, 2017, 9, 1, "6.67"},
		{1, 2017, 8, 1, "6.53"},
		{1, 2017, 7, 1, "6.47"},
		{1, 2017, 6, 1, "6.51"},
		{1, 2017, 5, 1, "6.66"},
		{1, 2017, 4, 1, "6.96"},
		{1, 2017, 3, 1, "6.69"},
		{1, 2017, 2, 1, "6.87"},
		{1, 2017, 1, 1, "6.41"},
		{1, 2016, 12, 1, "6.52"},
		{1, 2016, 11, 1, "6.25"},
		{1, 2016, 10, 1, "6.89"},
		{1, 2016, 9, 1, "6.96"},
		{1, 2016, 8, 1, "7.11"},
		{1, 2016, 7, 1, "7.16"},
		{1, 2012, 3, 31, "7.45"},
		{2, 2019, 3, 1, "8.51"},
	}
	for _, s := range seed {
		rt.Add(s.table, NewDate(s.y, time.Month(s.m), s.d), MustDecimal(s.ratePercent))
	}
	return rt
}
