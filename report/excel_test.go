package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/warp/lease-engine/finance"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/report"
)

func TestWorkbook_AllSheets(t *testing.T) {
	// GIVEN: A schedule, one result, and a journal
	// WHEN: Building and streaming the workbook
	// THEN: The three sheets exist with their data and the scratch sheet
	//       is gone

	wb := report.NewWorkbook()

	rows := []lease.ScheduleRow{
		{Date: finance.NewDate(2024, time.January, 1), Liability: finance.MustDecimal("1000"), IsOpening: true},
		{Date: finance.NewDate(2024, time.January, 31), Rental: finance.MustDecimal("100"), Liability: finance.MustDecimal("905")},
	}
	if err := wb.AddSchedule(1024, rows); err != nil {
		t.Fatalf("AddSchedule: %v", err)
	}

	results := []*lease.Result{{
		LeaseID:     1024,
		Description: "Warehouse",
		RentPaid:    finance.MustDecimal("1200"),
	}}
	var totals lease.AggregateTotals
	totals.RentPaid = finance.MustDecimal("1200")
	if err := wb.AddResults(results, totals); err != nil {
		t.Fatalf("AddResults: %v", err)
	}

	entries := []lease.JournalEntry{
		{BSPL: "PL", AccountCode: "5103", AccountName: "Rent Paid", ResultPeriod: finance.MustDecimal("-1200")},
		{BSPL: "BS", AccountCode: "3100", AccountName: "Retained Earnings", ResultPeriod: finance.MustDecimal("1200")},
	}
	if err := wb.AddJournal(entries); err != nil {
		t.Fatalf("AddJournal: %v", err)
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("workbook stream is empty")
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Schedule 1024", "Results", "Journal"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Errorf("sheet %q missing", sheet)
		}
	}
	if idx, _ := f.GetSheetIndex("Sheet1"); idx >= 0 {
		t.Error("the default scratch sheet should be dropped")
	}

	// Spot-check one cell per sheet.
	if got, _ := f.GetCellValue("Schedule 1024", "A2"); got != "2024-01-01" {
		t.Errorf("schedule A2 = %q, want the opening date", got)
	}
	if got, _ := f.GetCellValue("Results", "B2"); got != "Warehouse" {
		t.Errorf("results B2 = %q, want Warehouse", got)
	}
	if got, _ := f.GetCellValue("Journal", "C2"); got != "Rent Paid" {
		t.Errorf("journal C2 = %q, want Rent Paid", got)
	}
}
