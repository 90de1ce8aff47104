/*
bulk.go - Concurrent portfolio processing

PURPOSE:
  Runs a filtered set of leases through the compiler on a worker pool,
  merges the per-lease results in lease-ID order, consolidates their
  journals by account, and totals the portfolio (subleases contributing
  with flipped sign). A lease that fails stays out of the output; the
  rest of the portfolio is unaffected.

FILTERING:
  Portfolio filters are equality-if-set. A lease also drops out when it
  ends, terminates, or was modified before the reporting window opens,
  when it starts after the window closes, when its own end date does
  not follow its start date (a malformed record), or when it is flagged
  short-term under the reporting standard.
*/
package lease

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// PORTFOLIO TOTALS
// =============================================================================

// AggregateTotals sums the portfolio's results, each weighted by the
// sublease sign.
type AggregateTotals struct {
	OpeningLiability decimal.Decimal
	OpeningROUAsset  decimal.Decimal

	InterestExpense       decimal.Decimal
	DepreciationExpense   decimal.Decimal
	RentPaid              decimal.Decimal
	AROInterest           decimal.Decimal
	SecurityDepositChange decimal.Decimal

	ClosingLiabilityCurrent    decimal.Decimal
	ClosingLiabilityNonCurrent decimal.Decimal
	ClosingROUAsset            decimal.Decimal
	ClosingARO                 decimal.Decimal
	ClosingSecurity            decimal.Decimal

	GainLossPnL decimal.Decimal
}

func (t *AggregateTotals) add(r *Result) {
	sign := r.subleaseSign()
	t.OpeningLiability = t.OpeningLiability.Add(r.OpeningLiability.Mul(sign))
	t.OpeningROUAsset = t.OpeningROUAsset.Add(r.OpeningROUAsset.Mul(sign))
	t.InterestExpense = t.InterestExpense.Add(r.InterestExpense.Mul(sign))
	t.DepreciationExpense = t.DepreciationExpense.Add(r.DepreciationExpense.Mul(sign))
	t.RentPaid = t.RentPaid.Add(r.RentPaid.Mul(sign))
	t.AROInterest = t.AROInterest.Add(r.AROInterest.Mul(sign))
	t.SecurityDepositChange = t.SecurityDepositChange.Add(r.SecurityDepositChange.Mul(sign))
	t.ClosingLiabilityCurrent = t.ClosingLiabilityCurrent.Add(r.ClosingLiabilityCurrent.Mul(sign))
	t.ClosingLiabilityNonCurrent = t.ClosingLiabilityNonCurrent.Add(r.ClosingLiabilityNonCurrent.Mul(sign))
	t.ClosingROUAsset = t.ClosingROUAsset.Add(r.ClosingROUAsset.Mul(sign))
	t.ClosingARO = t.ClosingARO.Add(r.ClosingARO.Mul(sign))
	t.ClosingSecurity = t.ClosingSecurity.Add(r.ClosingSecurity.Mul(sign))
	t.GainLossPnL = t.GainLossPnL.Add(r.GainLossPnL.Mul(sign))
}

// =============================================================================
// BULK PROCESSOR
// =============================================================================

type BulkProcessor struct {
	Compiler *ResultCompiler
	Journal  *JournalGenerator
	Workers  int
	Log      *logrus.Logger
}

func NewBulkProcessor(compiler *ResultCompiler, log *logrus.Logger) *BulkProcessor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BulkProcessor{
		Compiler: compiler,
		Workers:  runtime.NumCPU(),
		Log:      log,
	}
}

// BulkOutcome is one portfolio run.
type BulkOutcome struct {
	Results              []*Result
	ConsolidatedJournals []JournalEntry
	Totals               AggregateTotals

	TotalCount int // leases offered
	Processed  int // leases that produced a result
	Skipped    int // filtered out or failed
}

// Process runs every in-scope lease concurrently and merges the
// outputs deterministically.
func (p *BulkProcessor) Process(ctx context.Context, leases []LeaseData, f Filters) (*BulkOutcome, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	outcome := &BulkOutcome{TotalCount: len(leases)}

	var inScope []LeaseData
	for i := range leases {
		if p.inScope(&leases[i], f) {
			inScope = append(inScope, leases[i])
		} else {
			outcome.Skipped++
		}
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(inScope) {
		workers = len(inScope)
	}

	jobs := make(chan LeaseData)
	resultCh := make(chan *Result, len(inScope))
	failCh := make(chan *LeaseFailure, len(inScope))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ld := range jobs {
				res, _, err := p.Compiler.Compile(ld, f)
				if err != nil {
					failCh <- &LeaseFailure{LeaseID: ld.ID, Date: f.EndDate, Err: err}
					continue
				}
				resultCh <- res
			}
		}()
	}

feed:
	for _, ld := range inScope {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- ld:
		}
	}
	close(jobs)
	wg.Wait()
	close(resultCh)
	close(failCh)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for fail := range failCh {
		outcome.Skipped++
		p.Log.WithFields(logrus.Fields{
			"lease_id": fail.LeaseID,
			"date":     fail.Date.String(),
		}).WithError(fail.Err).Error("lease failed, excluded from portfolio")
	}

	for res := range resultCh {
		outcome.Results = append(outcome.Results, res)
	}
	sort.Slice(outcome.Results, func(i, j int) bool {
		return outcome.Results[i].LeaseID < outcome.Results[j].LeaseID
	})
	outcome.Processed = len(outcome.Results)

	journal := p.Journal
	if journal == nil {
		journal = NewJournalGenerator(f.standard())
	}
	consolidated := newJournalConsolidator()
	for _, res := range outcome.Results {
		outcome.Totals.add(res)
		consolidated.merge(journal.Generate(res, nil))
	}
	outcome.ConsolidatedJournals = consolidated.entries()

	return outcome, nil
}

// inScope applies the portfolio filters and short-term exemptions.
func (p *BulkProcessor) inScope(ld *LeaseData, f Filters) bool {
	if f.CostCentre != "" && ld.CostCentre != f.CostCentre {
		return false
	}
	if f.Entity != "" && ld.EntityName != f.Entity {
		return false
	}
	if f.AssetClass != "" && ld.AssetClass != f.AssetClass {
		return false
	}
	if f.ProfitCentre != "" && ld.ProfitCentre != f.ProfitCentre {
		return false
	}

	// A record whose end does not follow its start is malformed; it is
	// skipped here, while a direct single-lease compile still yields the
	// degenerate single-row schedule.
	if !ld.EndDate.After(ld.StartDate) {
		return false
	}

	if !ld.DateModified.IsZero() && ld.DateModified.Before(f.StartDate) {
		return false
	}
	if !ld.TerminationDate.IsZero() && ld.TerminationDate.Before(f.StartDate) {
		return false
	}
	if ld.EndDate.Before(f.StartDate) {
		return false
	}
	if ld.StartDate.After(f.EndDate) {
		return false
	}

	if f.standard().IsUSGAAP() {
		if ld.ShortTermUSGAAP {
			return false
		}
	} else if ld.ShortTermIFRS {
		return false
	}
	return true
}

// =============================================================================
// JOURNAL CONSOLIDATION
// =============================================================================

// journalConsolidator sums journal lines across leases by account,
// keeping first-seen account order.
type journalConsolidator struct {
	order []string
	byKey map[string]*JournalEntry
}

func newJournalConsolidator() *journalConsolidator {
	return &journalConsolidator{byKey: make(map[string]*JournalEntry)}
}

func (c *journalConsolidator) merge(lines []JournalEntry) {
	for i := range lines {
		line := &lines[i]
		key := line.AccountCode + "|" + line.AccountName
		agg, ok := c.byKey[key]
		if !ok {
			copied := *line
			c.byKey[key] = &copied
			c.order = append(c.order, key)
			continue
		}
		agg.ResultPeriod = agg.ResultPeriod.Add(line.ResultPeriod)
		agg.PreviousPeriod = agg.PreviousPeriod.Add(line.PreviousPeriod)
		agg.IncrementalAdjustment = agg.IncrementalAdjustment.Add(line.IncrementalAdjustment)
		agg.IFRSAdjustment = agg.IFRSAdjustment.Add(line.IFRSAdjustment)
		agg.USGAAPEntry = agg.USGAAPEntry.Add(line.USGAAPEntry)
	}
}

func (c *journalConsolidator) entries() []JournalEntry {
	out := make([]JournalEntry, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, *c.byKey[key])
	}
	return out
}
