/*
Package factory provides JSON to Go lease conversion.

PURPOSE:
  Converts JSON lease definitions into lease.LeaseData records. This is
  the ingestion boundary: the accounting team uploads contracts as JSON
  (exported from their register), and the factory produces the engine's
  typed record with dates parsed, day-of-month rules resolved, and the
  overlay arrays truncated to their caps.

JSON SCHEMA:
  {
    "id": 1024,
    "description": "Mumbai warehouse",
    "asset_class": "Building",
    "start_date": "2024-01-01",
    "first_payment_date": "2024-01-16",
    "end_date": "2028-12-31",
    "frequency_months": 1,
    "day_of_month": "Last",
    "rental1": "150000",
    "escalation_percent": "5",
    "escalation_freq_months": 12,
    "borrowing_rate": "8",
    "security_deposit": "500000",
    "security_discount": "7.5",
    "aro": "200000",
    "aro_table": 1,
    "security_increases": [{"date": "2025-06-30", "amount": "50000"}]
  }

KEY FEATURES:
  - Dates are "YYYY-MM-DD"; empty or absent means not set
  - day_of_month accepts "Last" (any case) or a numeric string;
    anything else falls back to day 1
  - Monetary fields are decimal strings, never floats
  - Overlay arrays longer than their caps are truncated, not rejected

USAGE:
  f := factory.NewLeaseFactory()
  ld, err := f.ParseLease(jsonStr)

SEE ALSO:
  - lease/types.go: LeaseData definition and caps
  - store/sqlite: persists the same JSON payload
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/finance"
	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// LeaseJSON is the JSON representation of one lease contract.
type LeaseJSON struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	AssetClass  string `json:"asset_class,omitempty"`
	AssetCode   string `json:"asset_code,omitempty"`

	StartDate        string `json:"start_date"`
	FirstPaymentDate string `json:"first_payment_date,omitempty"`
	EndDate          string `json:"end_date"`
	TerminationDate  string `json:"termination_date,omitempty"`
	DateModified     string `json:"date_modified,omitempty"`
	TransitionDate   string `json:"transition_date,omitempty"`

	FrequencyMonths int    `json:"frequency_months"`
	DayOfMonth      string `json:"day_of_month,omitempty"`
	AccrualDay      int    `json:"accrual_day,omitempty"`
	AutoRentals     bool   `json:"auto_rentals,omitempty"`
	ManualAdjust    bool   `json:"manual_adjust,omitempty"`

	Rental1       string            `json:"rental1"`
	Rental2       string            `json:"rental2,omitempty"`
	ManualRentals []DatedAmountJSON `json:"manual_rentals,omitempty"`

	EscalationPercent    string `json:"escalation_percent,omitempty"`
	EscalationFreqMonths int    `json:"escalation_freq_months,omitempty"`
	EscalationStart      string `json:"escalation_start,omitempty"`

	BorrowingRate  string `json:"borrowing_rate,omitempty"`
	CompoundMonths int    `json:"compound_months,omitempty"`
	FVOfROU        string `json:"fv_of_rou,omitempty"`

	BargainPurchase     bool   `json:"bargain_purchase,omitempty"`
	TitleTransfer       bool   `json:"title_transfer,omitempty"`
	PurchaseOptionPrice string `json:"purchase_option_price,omitempty"`
	UsefulLife          string `json:"useful_life,omitempty"`

	SecurityDeposit   string            `json:"security_deposit,omitempty"`
	SecurityDiscount  string            `json:"security_discount,omitempty"`
	SecurityIncreases []DatedAmountJSON `json:"security_increases,omitempty"`

	ARO          string            `json:"aro,omitempty"`
	AROTable     int               `json:"aro_table,omitempty"`
	ARORevisions []DatedAmountJSON `json:"aro_revisions,omitempty"`

	Impairments []DatedAmountJSON `json:"impairments,omitempty"`

	ModifiesID int64 `json:"modifies_id,omitempty"`

	InitialDirectExpenditure string `json:"initial_direct_expenditure,omitempty"`
	LeaseIncentive           string `json:"lease_incentive,omitempty"`
	PrepaidAccrual           string `json:"prepaid_accrual,omitempty"`
	TransitionOption         string `json:"transition_option,omitempty"`

	Sublease           bool   `json:"sublease,omitempty"`
	SubleaseROU        string `json:"sublease_rou,omitempty"`
	ShortTermIFRS      bool   `json:"short_term_ifrs,omitempty"`
	ShortTermUSGAAP    bool   `json:"short_term_usgaap,omitempty"`
	FinanceLeaseUSGAAP bool   `json:"finance_lease_usgaap,omitempty"`
	PracticalExpedient bool   `json:"practical_expedient,omitempty"`

	TerminationPenalty string `json:"termination_penalty,omitempty"`

	Currency     string `json:"currency,omitempty"`
	EntityName   string `json:"entity_name,omitempty"`
	CostCentre   string `json:"cost_centre,omitempty"`
	ProfitCentre string `json:"profit_centre,omitempty"`
	Counterparty string `json:"counterparty,omitempty"`
}

// DatedAmountJSON is one overlay entry.
type DatedAmountJSON struct {
	Date   string `json:"date"`
	Amount string `json:"amount,omitempty"`
}

// =============================================================================
// LEASE FACTORY
// =============================================================================

// LeaseFactory converts JSON leases to engine records.
type LeaseFactory struct{}

func NewLeaseFactory() *LeaseFactory {
	return &LeaseFactory{}
}

// ParseLease parses a JSON string into a LeaseData record.
func (f *LeaseFactory) ParseLease(jsonStr string) (lease.LeaseData, error) {
	var lj LeaseJSON
	if err := json.Unmarshal([]byte(jsonStr), &lj); err != nil {
		return lease.LeaseData{}, fmt.Errorf("failed to parse lease JSON: %w", err)
	}
	return f.FromJSON(lj)
}

// ParseLeases parses a JSON array of leases.
func (f *LeaseFactory) ParseLeases(jsonStr string) ([]lease.LeaseData, error) {
	var ljs []LeaseJSON
	if err := json.Unmarshal([]byte(jsonStr), &ljs); err != nil {
		return nil, fmt.Errorf("failed to parse lease JSON array: %w", err)
	}
	out := make([]lease.LeaseData, 0, len(ljs))
	for i, lj := range ljs {
		ld, err := f.FromJSON(lj)
		if err != nil {
			return nil, fmt.Errorf("lease %d: %w", i, err)
		}
		out = append(out, ld)
	}
	return out, nil
}

// FromJSON converts LeaseJSON to LeaseData, applying the caps and
// defaults via Normalized.
func (f *LeaseFactory) FromJSON(lj LeaseJSON) (lease.LeaseData, error) {
	if lj.StartDate == "" || lj.EndDate == "" {
		return lease.LeaseData{}, fmt.Errorf("lease %d: start_date and end_date are required", lj.ID)
	}

	p := &fieldParser{}
	ld := lease.LeaseData{
		ID:          lj.ID,
		Description: lj.Description,
		AssetClass:  lj.AssetClass,
		AssetCode:   lj.AssetCode,

		StartDate:        p.date("start_date", lj.StartDate),
		FirstPaymentDate: p.date("first_payment_date", lj.FirstPaymentDate),
		EndDate:          p.date("end_date", lj.EndDate),
		TerminationDate:  p.date("termination_date", lj.TerminationDate),
		DateModified:     p.date("date_modified", lj.DateModified),
		TransitionDate:   p.date("transition_date", lj.TransitionDate),

		FrequencyMonths: lj.FrequencyMonths,
		DayOfMonth:      lease.ParseDayOfMonth(lj.DayOfMonth),
		AccrualDay:      lj.AccrualDay,
		AutoRentals:     lj.AutoRentals,
		ManualAdjust:    lj.ManualAdjust,

		Rental1:       p.amount("rental1", lj.Rental1),
		Rental2:       p.amount("rental2", lj.Rental2),
		ManualRentals: p.dated("manual_rentals", lj.ManualRentals),

		EscalationPercent:    p.amount("escalation_percent", lj.EscalationPercent),
		EscalationFreqMonths: lj.EscalationFreqMonths,
		EscalationStart:      p.date("escalation_start", lj.EscalationStart),

		BorrowingRate:  p.amount("borrowing_rate", lj.BorrowingRate),
		CompoundMonths: lj.CompoundMonths,
		FVOfROU:        p.amount("fv_of_rou", lj.FVOfROU),

		BargainPurchase:     lj.BargainPurchase,
		TitleTransfer:       lj.TitleTransfer,
		PurchaseOptionPrice: p.amount("purchase_option_price", lj.PurchaseOptionPrice),
		UsefulLife:          p.date("useful_life", lj.UsefulLife),

		SecurityDeposit:   p.amount("security_deposit", lj.SecurityDeposit),
		SecurityDiscount:  p.amount("security_discount", lj.SecurityDiscount),
		SecurityIncreases: p.dated("security_increases", lj.SecurityIncreases),

		ARO:          p.amount("aro", lj.ARO),
		AROTable:     lj.AROTable,
		ARORevisions: p.dated("aro_revisions", lj.ARORevisions),

		Impairments: p.dated("impairments", lj.Impairments),

		ModifiesID: lj.ModifiesID,

		InitialDirectExpenditure: p.amount("initial_direct_expenditure", lj.InitialDirectExpenditure),
		LeaseIncentive:           p.amount("lease_incentive", lj.LeaseIncentive),
		PrepaidAccrual:           p.amount("prepaid_accrual", lj.PrepaidAccrual),
		TransitionOption:         lj.TransitionOption,

		Sublease:           lj.Sublease,
		SubleaseROU:        p.amount("sublease_rou", lj.SubleaseROU),
		ShortTermIFRS:      lj.ShortTermIFRS,
		ShortTermUSGAAP:    lj.ShortTermUSGAAP,
		FinanceLeaseUSGAAP: lj.FinanceLeaseUSGAAP,
		PracticalExpedient: lj.PracticalExpedient,

		TerminationPenalty: p.amount("termination_penalty", lj.TerminationPenalty),

		Currency:     lj.Currency,
		EntityName:   lj.EntityName,
		CostCentre:   lj.CostCentre,
		ProfitCentre: lj.ProfitCentre,
		Counterparty: lj.Counterparty,
	}
	if p.err != nil {
		return lease.LeaseData{}, fmt.Errorf("lease %d: %w", lj.ID, p.err)
	}

	return ld.Normalized(), nil
}

// ToJSON converts a LeaseData record back to its JSON representation.
func (f *LeaseFactory) ToJSON(ld lease.LeaseData) LeaseJSON {
	return LeaseJSON{
		ID:          ld.ID,
		Description: ld.Description,
		AssetClass:  ld.AssetClass,
		AssetCode:   ld.AssetCode,

		StartDate:        dateString(ld.StartDate),
		FirstPaymentDate: dateString(ld.FirstPaymentDate),
		EndDate:          dateString(ld.EndDate),
		TerminationDate:  dateString(ld.TerminationDate),
		DateModified:     dateString(ld.DateModified),
		TransitionDate:   dateString(ld.TransitionDate),

		FrequencyMonths: ld.FrequencyMonths,
		DayOfMonth:      ld.DayOfMonth.String(),
		AccrualDay:      ld.AccrualDay,
		AutoRentals:     ld.AutoRentals,
		ManualAdjust:    ld.ManualAdjust,

		Rental1:       amountString(ld.Rental1),
		Rental2:       amountString(ld.Rental2),
		ManualRentals: datedJSON(ld.ManualRentals),

		EscalationPercent:    amountString(ld.EscalationPercent),
		EscalationFreqMonths: ld.EscalationFreqMonths,
		EscalationStart:      dateString(ld.EscalationStart),

		BorrowingRate:  amountString(ld.BorrowingRate),
		CompoundMonths: ld.CompoundMonths,
		FVOfROU:        amountString(ld.FVOfROU),

		BargainPurchase:     ld.BargainPurchase,
		TitleTransfer:       ld.TitleTransfer,
		PurchaseOptionPrice: amountString(ld.PurchaseOptionPrice),
		UsefulLife:          dateString(ld.UsefulLife),

		SecurityDeposit:   amountString(ld.SecurityDeposit),
		SecurityDiscount:  amountString(ld.SecurityDiscount),
		SecurityIncreases: datedJSON(ld.SecurityIncreases),

		ARO:          amountString(ld.ARO),
		AROTable:     ld.AROTable,
		ARORevisions: datedJSON(ld.ARORevisions),

		Impairments: datedJSON(ld.Impairments),

		ModifiesID: ld.ModifiesID,

		InitialDirectExpenditure: amountString(ld.InitialDirectExpenditure),
		LeaseIncentive:           amountString(ld.LeaseIncentive),
		PrepaidAccrual:           amountString(ld.PrepaidAccrual),
		TransitionOption:         ld.TransitionOption,

		Sublease:           ld.Sublease,
		SubleaseROU:        amountString(ld.SubleaseROU),
		ShortTermIFRS:      ld.ShortTermIFRS,
		ShortTermUSGAAP:    ld.ShortTermUSGAAP,
		FinanceLeaseUSGAAP: ld.FinanceLeaseUSGAAP,
		PracticalExpedient: ld.PracticalExpedient,

		TerminationPenalty: amountString(ld.TerminationPenalty),

		Currency:     ld.Currency,
		EntityName:   ld.EntityName,
		CostCentre:   ld.CostCentre,
		ProfitCentre: ld.ProfitCentre,
		Counterparty: ld.Counterparty,
	}
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// fieldParser accumulates the first parse failure so the call sites
// stay flat.
type fieldParser struct {
	err error
}

func (p *fieldParser) date(field, s string) finance.Date {
	d, err := finance.ParseDate(s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", field, err)
	}
	return d
}

func (p *fieldParser) amount(field, s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", field, err)
	}
	return d
}

func (p *fieldParser) dated(field string, in []DatedAmountJSON) []lease.DatedAmount {
	if len(in) == 0 {
		return nil
	}
	out := make([]lease.DatedAmount, 0, len(in))
	for i, dj := range in {
		out = append(out, lease.DatedAmount{
			Date:   p.date(fmt.Sprintf("%s[%d].date", field, i), dj.Date),
			Amount: p.amount(fmt.Sprintf("%s[%d].amount", field, i), dj.Amount),
		})
	}
	return out
}

func dateString(d finance.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func amountString(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func datedJSON(in []lease.DatedAmount) []DatedAmountJSON {
	if len(in) == 0 {
		return nil
	}
	out := make([]DatedAmountJSON, 0, len(in))
	for _, da := range in {
		out = append(out, DatedAmountJSON{
			Date:   dateString(da.Date),
			Amount: amountString(da.Amount),
		})
	}
	return out
}
