/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Monetary fields are decimal.Decimal, which marshals as a quoted
  decimal string. Clients never see binary floats.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/lease.go: LeaseJSON, the lease payload format
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// FiltersDTO is the reporting window and portfolio selection.
type FiltersDTO struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Standard  string `json:"standard,omitempty"` // IFRS (default), IndAS, US-GAAP

	CostCentre   string `json:"cost_centre,omitempty"`
	Entity       string `json:"entity,omitempty"`
	AssetClass   string `json:"asset_class,omitempty"`
	ProfitCentre string `json:"profit_centre,omitempty"`

	EnableProjections bool `json:"enable_projections,omitempty"`
	ProjectionPeriods int  `json:"projection_periods,omitempty"`
	ProjectionMonths  int  `json:"projection_months,omitempty"`
}

// CalculateRequest runs one stored lease for a reporting window.
type CalculateRequest struct {
	LeaseID int64      `json:"lease_id"`
	Filters FiltersDTO `json:"filters"`
}

// BulkRequest runs the stored register for a reporting window.
type BulkRequest struct {
	Filters FiltersDTO `json:"filters"`
}

// RatePointDTO is one rate curve entry; percent is a whole percent.
type RatePointDTO struct {
	Table         int             `json:"table"`
	EffectiveFrom string          `json:"effective_from"`
	RatePercent   decimal.Decimal `json:"rate_percent"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ScheduleRowDTO is one amortization schedule row.
type ScheduleRowDTO struct {
	Date              string          `json:"date"`
	Rental            decimal.Decimal `json:"rental"`
	PVFactor          decimal.Decimal `json:"pv_factor"`
	PVOfRent          decimal.Decimal `json:"pv_of_rent"`
	Interest          decimal.Decimal `json:"interest"`
	Liability         decimal.Decimal `json:"liability"`
	Depreciation      decimal.Decimal `json:"depreciation"`
	ROUAsset          decimal.Decimal `json:"rou_asset"`
	ChangeInROU       decimal.Decimal `json:"change_in_rou"`
	SecurityDepositPV decimal.Decimal `json:"security_deposit_pv"`
	AROInterest       decimal.Decimal `json:"aro_interest"`
	AROProvision      decimal.Decimal `json:"aro_provision"`
}

// ProjectionDTO is one forward reporting period.
type ProjectionDTO struct {
	Mode             int             `json:"mode"`
	Date             string          `json:"date"`
	ClosingLiability decimal.Decimal `json:"closing_liability"`
	ClosingROUAsset  decimal.Decimal `json:"closing_rou_asset"`
	Depreciation     decimal.Decimal `json:"depreciation"`
	Interest         decimal.Decimal `json:"interest"`
	RentPaid         decimal.Decimal `json:"rent_paid"`
}

// ResultDTO is one lease's period result.
type ResultDTO struct {
	LeaseID     int64  `json:"lease_id"`
	Description string `json:"description"`
	AssetClass  string `json:"asset_class,omitempty"`
	EntityName  string `json:"entity_name,omitempty"`
	CostCentre  string `json:"cost_centre,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Sublease    bool   `json:"sublease,omitempty"`

	OpeningLiability decimal.Decimal `json:"opening_liability"`
	OpeningROUAsset  decimal.Decimal `json:"opening_rou_asset"`
	OpeningARO       decimal.Decimal `json:"opening_aro"`
	OpeningSecurity  decimal.Decimal `json:"opening_security"`

	InterestExpense       decimal.Decimal `json:"interest_expense"`
	DepreciationExpense   decimal.Decimal `json:"depreciation_expense"`
	RentPaid              decimal.Decimal `json:"rent_paid"`
	AROInterest           decimal.Decimal `json:"aro_interest"`
	SecurityDepositChange decimal.Decimal `json:"security_deposit_change"`

	ClosingLiabilityCurrent    decimal.Decimal `json:"closing_liability_current"`
	ClosingLiabilityNonCurrent decimal.Decimal `json:"closing_liability_non_current"`
	ClosingROUAsset            decimal.Decimal `json:"closing_rou_asset"`
	ClosingARO                 decimal.Decimal `json:"closing_aro"`
	ClosingSecurity            decimal.Decimal `json:"closing_security"`

	GainLossPnL         decimal.Decimal `json:"gain_loss_pnl"`
	TerminationGainLoss decimal.Decimal `json:"termination_gain_loss,omitempty"`
	ModificationGain    decimal.Decimal `json:"modification_gain,omitempty"`
	SubleaseGainLoss    decimal.Decimal `json:"sublease_gain_loss,omitempty"`

	Projections []ProjectionDTO `json:"projections,omitempty"`
}

// JournalEntryDTO is one journal line.
type JournalEntryDTO struct {
	BSPL                  string          `json:"bs_pl"`
	AccountCode           string          `json:"account_code"`
	AccountName           string          `json:"account_name"`
	ResultPeriod          decimal.Decimal `json:"result_period"`
	PreviousPeriod        decimal.Decimal `json:"previous_period"`
	IncrementalAdjustment decimal.Decimal `json:"incremental_adjustment"`
	IFRSAdjustment        decimal.Decimal `json:"ifrs_adjustment"`
	USGAAPEntry           decimal.Decimal `json:"usgaap_entry"`
}

// CalculateResponse is one lease run.
type CalculateResponse struct {
	Result   ResultDTO         `json:"result"`
	Schedule []ScheduleRowDTO  `json:"schedule"`
	Journal  []JournalEntryDTO `json:"journal"`
}

// TotalsDTO is the portfolio totals row.
type TotalsDTO struct {
	OpeningLiability decimal.Decimal `json:"opening_liability"`
	OpeningROUAsset  decimal.Decimal `json:"opening_rou_asset"`

	InterestExpense       decimal.Decimal `json:"interest_expense"`
	DepreciationExpense   decimal.Decimal `json:"depreciation_expense"`
	RentPaid              decimal.Decimal `json:"rent_paid"`
	AROInterest           decimal.Decimal `json:"aro_interest"`
	SecurityDepositChange decimal.Decimal `json:"security_deposit_change"`

	ClosingLiabilityCurrent    decimal.Decimal `json:"closing_liability_current"`
	ClosingLiabilityNonCurrent decimal.Decimal `json:"closing_liability_non_current"`
	ClosingROUAsset            decimal.Decimal `json:"closing_rou_asset"`
	ClosingARO                 decimal.Decimal `json:"closing_aro"`
	ClosingSecurity            decimal.Decimal `json:"closing_security"`

	GainLossPnL decimal.Decimal `json:"gain_loss_pnl"`
}

// BulkResponse is one portfolio run.
type BulkResponse struct {
	Results []ResultDTO       `json:"results"`
	Journal []JournalEntryDTO `json:"journal"`
	Totals  TotalsDTO         `json:"totals"`

	TotalCount int `json:"total_count"`
	Processed  int `json:"processed"`
	Skipped    int `json:"skipped"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func (f FiltersDTO) toFilters() (lease.Filters, error) {
	start, err := parseDateField("start_date", f.StartDate)
	if err != nil {
		return lease.Filters{}, err
	}
	end, err := parseDateField("end_date", f.EndDate)
	if err != nil {
		return lease.Filters{}, err
	}
	return lease.Filters{
		StartDate:         start,
		EndDate:           end,
		Standard:          lease.Standard(f.Standard),
		CostCentre:        f.CostCentre,
		Entity:            f.Entity,
		AssetClass:        f.AssetClass,
		ProfitCentre:      f.ProfitCentre,
		EnableProjections: f.EnableProjections,
		ProjectionPeriods: f.ProjectionPeriods,
		ProjectionMonths:  f.ProjectionMonths,
	}, nil
}

func toScheduleRowDTOs(rows []lease.ScheduleRow) []ScheduleRowDTO {
	dtos := make([]ScheduleRowDTO, len(rows))
	for i := range rows {
		row := &rows[i]
		dtos[i] = ScheduleRowDTO{
			Date:              row.Date.String(),
			Rental:            row.Rental,
			PVFactor:          row.PVFactor,
			PVOfRent:          row.PVOfRent,
			Interest:          row.Interest,
			Liability:         row.Liability,
			Depreciation:      row.Depreciation,
			ROUAsset:          row.ROUAsset,
			ChangeInROU:       row.ChangeInROU,
			SecurityDepositPV: row.SecurityDepositPV,
			AROInterest:       row.AROInterest,
			AROProvision:      row.AROProvision,
		}
	}
	return dtos
}

func toResultDTO(r *lease.Result) ResultDTO {
	dto := ResultDTO{
		LeaseID:     r.LeaseID,
		Description: r.Description,
		AssetClass:  r.AssetClass,
		EntityName:  r.EntityName,
		CostCentre:  r.CostCentre,
		Currency:    r.Currency,
		Sublease:    r.Sublease,

		OpeningLiability: r.OpeningLiability,
		OpeningROUAsset:  r.OpeningROUAsset,
		OpeningARO:       r.OpeningARO,
		OpeningSecurity:  r.OpeningSecurity,

		InterestExpense:       r.InterestExpense,
		DepreciationExpense:   r.DepreciationExpense,
		RentPaid:              r.RentPaid,
		AROInterest:           r.AROInterest,
		SecurityDepositChange: r.SecurityDepositChange,

		ClosingLiabilityCurrent:    r.ClosingLiabilityCurrent,
		ClosingLiabilityNonCurrent: r.ClosingLiabilityNonCurrent,
		ClosingROUAsset:            r.ClosingROUAsset,
		ClosingARO:                 r.ClosingARO,
		ClosingSecurity:            r.ClosingSecurity,

		GainLossPnL:         r.GainLossPnL,
		TerminationGainLoss: r.TerminationGainLoss,
		ModificationGain:    r.ModificationGain,
		SubleaseGainLoss:    r.SubleaseGainLoss,
	}
	for _, p := range r.Projections {
		dto.Projections = append(dto.Projections, ProjectionDTO{
			Mode:             p.Mode,
			Date:             p.Date.String(),
			ClosingLiability: p.ClosingLiability,
			ClosingROUAsset:  p.ClosingROUAsset,
			Depreciation:     p.Depreciation,
			Interest:         p.Interest,
			RentPaid:         p.RentPaid,
		})
	}
	return dto
}

func toResultDTOs(results []*lease.Result) []ResultDTO {
	dtos := make([]ResultDTO, len(results))
	for i, r := range results {
		dtos[i] = toResultDTO(r)
	}
	return dtos
}

func toJournalDTOs(entries []lease.JournalEntry) []JournalEntryDTO {
	dtos := make([]JournalEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = JournalEntryDTO{
			BSPL:                  e.BSPL,
			AccountCode:           e.AccountCode,
			AccountName:           e.AccountName,
			ResultPeriod:          e.ResultPeriod,
			PreviousPeriod:        e.PreviousPeriod,
			IncrementalAdjustment: e.IncrementalAdjustment,
			IFRSAdjustment:        e.IFRSAdjustment,
			USGAAPEntry:           e.USGAAPEntry,
		}
	}
	return dtos
}

func toTotalsDTO(t lease.AggregateTotals) TotalsDTO {
	return TotalsDTO{
		OpeningLiability:           t.OpeningLiability,
		OpeningROUAsset:            t.OpeningROUAsset,
		InterestExpense:            t.InterestExpense,
		DepreciationExpense:        t.DepreciationExpense,
		RentPaid:                   t.RentPaid,
		AROInterest:                t.AROInterest,
		SecurityDepositChange:      t.SecurityDepositChange,
		ClosingLiabilityCurrent:    t.ClosingLiabilityCurrent,
		ClosingLiabilityNonCurrent: t.ClosingLiabilityNonCurrent,
		ClosingROUAsset:            t.ClosingROUAsset,
		ClosingARO:                 t.ClosingARO,
		ClosingSecurity:            t.ClosingSecurity,
		GainLossPnL:                t.GainLossPnL,
	}
}
