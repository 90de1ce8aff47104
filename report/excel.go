/*
Package report renders engine output as Excel workbooks.

PURPOSE:
  The accounting team reviewed the legacy workbook in Excel; this
  package gives them the same artifact from the engine: a Schedule
  sheet (the day-by-day amortization rows), a Results sheet (one row
  per lease), and a Journal sheet (the consolidated double entry).

NOTE:
  Values are written as numbers so Excel formats and sums them; the
  float conversion is presentational only, the engine keeps decimals
  end to end.
*/
package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/lease-engine/lease"
)

const (
	sheetSchedule = "Schedule"
	sheetResults  = "Results"
	sheetJournal  = "Journal"
)

// Workbook accumulates sheets for one export.
type Workbook struct {
	f *excelize.File
}

func NewWorkbook() *Workbook {
	return &Workbook{f: excelize.NewFile()}
}

// AddSchedule writes one lease's amortization schedule.
func (w *Workbook) AddSchedule(leaseID int64, rows []lease.ScheduleRow) error {
	name := sheetSchedule
	if leaseID > 0 {
		name = fmt.Sprintf("%s %d", sheetSchedule, leaseID)
	}
	if _, err := w.f.NewSheet(name); err != nil {
		return err
	}

	headers := []string{
		"Date", "Rental", "PV Factor", "PV of Rent", "Interest", "Liability",
		"Depreciation", "RoU Asset", "Change in RoU",
		"Security Deposit PV", "ARO Interest", "ARO Provision",
	}
	if err := w.writeHeaders(name, headers); err != nil {
		return err
	}

	for i := range rows {
		row := &rows[i]
		values := []any{
			row.Date.String(),
			num(row.Rental),
			num(row.PVFactor),
			num(row.PVOfRent),
			num(row.Interest),
			num(row.Liability),
			num(row.Depreciation),
			num(row.ROUAsset),
			num(row.ChangeInROU),
			num(row.SecurityDepositPV),
			num(row.AROInterest),
			num(row.AROProvision),
		}
		if err := w.writeRow(name, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

// AddResults writes one row per lease plus the portfolio totals.
func (w *Workbook) AddResults(results []*lease.Result, totals lease.AggregateTotals) error {
	if _, err := w.f.NewSheet(sheetResults); err != nil {
		return err
	}

	headers := []string{
		"Lease ID", "Description", "Asset Class", "Entity", "Cost Centre",
		"Opening Liability", "Opening RoU",
		"Interest", "Depreciation", "Rent Paid", "ARO Interest", "Security Income",
		"Closing Liability Current", "Closing Liability Non-current",
		"Closing RoU", "Closing ARO", "Closing Security", "Gain/Loss P&L",
	}
	if err := w.writeHeaders(sheetResults, headers); err != nil {
		return err
	}

	rowNo := 2
	for _, r := range results {
		values := []any{
			r.LeaseID, r.Description, r.AssetClass, r.EntityName, r.CostCentre,
			num(r.OpeningLiability), num(r.OpeningROUAsset),
			num(r.InterestExpense), num(r.DepreciationExpense), num(r.RentPaid),
			num(r.AROInterest), num(r.SecurityDepositChange),
			num(r.ClosingLiabilityCurrent), num(r.ClosingLiabilityNonCurrent),
			num(r.ClosingROUAsset), num(r.ClosingARO), num(r.ClosingSecurity),
			num(r.GainLossPnL),
		}
		if err := w.writeRow(sheetResults, rowNo, values); err != nil {
			return err
		}
		rowNo++
	}

	totalValues := []any{
		"", "Total", "", "", "",
		num(totals.OpeningLiability), num(totals.OpeningROUAsset),
		num(totals.InterestExpense), num(totals.DepreciationExpense), num(totals.RentPaid),
		num(totals.AROInterest), num(totals.SecurityDepositChange),
		num(totals.ClosingLiabilityCurrent), num(totals.ClosingLiabilityNonCurrent),
		num(totals.ClosingROUAsset), num(totals.ClosingARO), num(totals.ClosingSecurity),
		num(totals.GainLossPnL),
	}
	return w.writeRow(sheetResults, rowNo, totalValues)
}

// AddJournal writes the consolidated journal lines.
func (w *Workbook) AddJournal(entries []lease.JournalEntry) error {
	if _, err := w.f.NewSheet(sheetJournal); err != nil {
		return err
	}

	headers := []string{
		"BS/PL", "Account Code", "Account Name",
		"Result Period", "Previous Period", "Incremental Adjustment",
		"IFRS Adjustment", "US-GAAP Entry",
	}
	if err := w.writeHeaders(sheetJournal, headers); err != nil {
		return err
	}

	for i := range entries {
		e := &entries[i]
		values := []any{
			e.BSPL, e.AccountCode, e.AccountName,
			num(e.ResultPeriod), num(e.PreviousPeriod), num(e.IncrementalAdjustment),
			num(e.IFRSAdjustment), num(e.USGAAPEntry),
		}
		if err := w.writeRow(sheetJournal, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

// Write finishes the workbook and streams it. The default empty sheet
// excelize creates is dropped first.
func (w *Workbook) Write(out io.Writer) error {
	w.f.DeleteSheet("Sheet1")
	if idx, err := w.f.GetSheetIndex(sheetResults); err == nil && idx >= 0 {
		w.f.SetActiveSheet(idx)
	}
	return w.f.Write(out)
}

func (w *Workbook) writeHeaders(sheet string, headers []string) error {
	return w.writeRow(sheet, 1, toAny(headers))
}

func (w *Workbook) writeRow(sheet string, rowNo int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNo)
		if err != nil {
			return err
		}
		if err := w.f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func num(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
