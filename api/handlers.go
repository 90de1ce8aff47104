/*
handlers.go - HTTP API handlers for the lease accounting engine

PURPOSE:
  Exposes the lease engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Leases:
    GET    /api/leases                 List the register
    POST   /api/leases                 Upsert one lease (factory JSON)
    GET    /api/leases/{id}            Get one lease
    DELETE /api/leases/{id}            Remove a lease
    GET    /api/leases/{id}/schedule   Amortization schedule

  Calculation:
    POST   /api/calculate              One lease: result + schedule + journal
    POST   /api/bulk                   Portfolio run with filters
    POST   /api/bulk/export            Portfolio run as .xlsx download

  Rates:
    GET    /api/rates                  List rate curve points
    POST   /api/rates                  Upsert rate points (JSON array)
    POST   /api/rates/upload           Upload rate CSV (table,date,percent)

ARCHITECTURE:
  Handler holds all dependencies:
  - Store: lease register and rate curves
  - Factory: JSON to LeaseData conversion
  - Compiler/Bulk: the calculation engine, rebuilt when rates change

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, unsupported configurations
  - 404: Lease not found
  - 422: Computation could not converge
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/warp/lease-engine/factory"
	"github.com/warp/lease-engine/finance"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/report"
	"github.com/warp/lease-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Factory *factory.LeaseFactory
	Log     *logrus.Logger

	mu       sync.RWMutex
	rates    *finance.RateTable
	compiler *lease.ResultCompiler
}

// NewHandler creates a handler seeded with the shipped rate curve.
func NewHandler(store *sqlite.Store, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &Handler{
		Store:   store,
		Factory: factory.NewLeaseFactory(),
		Log:     log,
	}
	h.setRates(finance.DefaultRateTable())
	return h
}

// ReloadRates rebuilds the engine from the stored rate curve. An empty
// store keeps the shipped default.
func (h *Handler) ReloadRates(ctx context.Context) error {
	points, err := h.Store.ListRatePoints(ctx)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}
	rt := finance.NewRateTable()
	for _, p := range points {
		rt.Add(p.Table, p.EffectiveFrom, p.Percent)
	}
	h.setRates(rt)
	return nil
}

func (h *Handler) setRates(rt *finance.RateTable) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rates = rt
	h.compiler = lease.NewResultCompiler(lease.NewScheduleGenerator(rt), nil)
}

func (h *Handler) engine() *lease.ResultCompiler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.compiler
}

// =============================================================================
// LEASE REGISTER HANDLERS
// =============================================================================

// ListLeases returns the register, optionally narrowed by query params.
func (h *Handler) ListLeases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := lease.Filters{
		CostCentre:   q.Get("cost_centre"),
		Entity:       q.Get("entity"),
		AssetClass:   q.Get("asset_class"),
		ProfitCentre: q.Get("profit_centre"),
	}

	leases, err := h.Store.ListLeases(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leases", err)
		return
	}

	dtos := make([]factory.LeaseJSON, len(leases))
	for i, ld := range leases {
		dtos[i] = h.Factory.ToJSON(ld)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLease returns a single lease.
func (h *Handler) GetLease(w http.ResponseWriter, r *http.Request) {
	id, err := leaseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid lease id", err)
		return
	}

	ld, err := h.Store.GetLease(r.Context(), id)
	if errors.Is(err, lease.ErrLeaseNotFound) {
		writeError(w, http.StatusNotFound, "Lease not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get lease", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Factory.ToJSON(ld))
}

// SaveLease upserts one lease from its JSON payload.
func (h *Handler) SaveLease(w http.ResponseWriter, r *http.Request) {
	var lj factory.LeaseJSON
	if err := json.NewDecoder(r.Body).Decode(&lj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ld, err := h.Factory.FromJSON(lj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid lease", err)
		return
	}
	if ld.ID <= 0 {
		writeError(w, http.StatusBadRequest, "Lease id must be positive", nil)
		return
	}

	if err := h.Store.SaveLease(r.Context(), ld); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save lease", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.Factory.ToJSON(ld))
}

// DeleteLease removes a lease from the register.
func (h *Handler) DeleteLease(w http.ResponseWriter, r *http.Request) {
	id, err := leaseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid lease id", err)
		return
	}

	err = h.Store.DeleteLease(r.Context(), id)
	if errors.Is(err, lease.ErrLeaseNotFound) {
		writeError(w, http.StatusNotFound, "Lease not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete lease", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSchedule returns one lease's amortization schedule.
// Query params: standard (optional).
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := leaseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid lease id", err)
		return
	}

	ld, err := h.Store.GetLease(r.Context(), id)
	if errors.Is(err, lease.ErrLeaseNotFound) {
		writeError(w, http.StatusNotFound, "Lease not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get lease", err)
		return
	}

	std := lease.Standard(r.URL.Query().Get("standard"))
	if std == "" {
		std = lease.StandardIFRS
	}
	rows, err := h.engine().Generator.Generate(ld, std)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleRowDTOs(rows))
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// Calculate runs one stored lease for a reporting window.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	f, err := req.Filters.toFilters()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filters", err)
		return
	}

	ld, err := h.Store.GetLease(r.Context(), req.LeaseID)
	if errors.Is(err, lease.ErrLeaseNotFound) {
		writeError(w, http.StatusNotFound, "Lease not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get lease", err)
		return
	}

	result, rows, err := h.engine().Compile(ld, f)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	journal := lease.NewJournalGenerator(f.Standard).Generate(result, nil)

	writeJSON(w, http.StatusOK, CalculateResponse{
		Result:   toResultDTO(result),
		Schedule: toScheduleRowDTOs(rows),
		Journal:  toJournalDTOs(journal),
	})
}

// Bulk runs the stored register for a reporting window.
func (h *Handler) Bulk(w http.ResponseWriter, r *http.Request) {
	outcome, status, err := h.runBulk(r)
	if err != nil {
		writeError(w, status, "Bulk run failed", err)
		return
	}
	writeJSON(w, http.StatusOK, BulkResponse{
		Results:    toResultDTOs(outcome.Results),
		Journal:    toJournalDTOs(outcome.ConsolidatedJournals),
		Totals:     toTotalsDTO(outcome.Totals),
		TotalCount: outcome.TotalCount,
		Processed:  outcome.Processed,
		Skipped:    outcome.Skipped,
	})
}

// BulkExport runs the register and streams the Excel workbook.
func (h *Handler) BulkExport(w http.ResponseWriter, r *http.Request) {
	outcome, status, err := h.runBulk(r)
	if err != nil {
		writeError(w, status, "Bulk run failed", err)
		return
	}

	wb := report.NewWorkbook()
	if err := wb.AddResults(outcome.Results, outcome.Totals); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}
	if err := wb.AddJournal(outcome.ConsolidatedJournals); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=lease-results.xlsx")
	if err := wb.Write(w); err != nil {
		h.Log.WithError(err).Error("failed to stream workbook")
	}
}

func (h *Handler) runBulk(r *http.Request) (*lease.BulkOutcome, int, error) {
	var req BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err)
	}
	f, err := req.Filters.toFilters()
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	leases, err := h.Store.ListLeases(r.Context(), f)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	proc := lease.NewBulkProcessor(h.engine(), h.Log)
	proc.Journal = lease.NewJournalGenerator(f.Standard)
	outcome, err := proc.Process(r.Context(), leases, f)
	if err != nil {
		if lease.IsClientError(err) {
			return nil, http.StatusBadRequest, err
		}
		return nil, http.StatusInternalServerError, err
	}
	return outcome, http.StatusOK, nil
}

// =============================================================================
// RATE CURVE HANDLERS
// =============================================================================

// ListRates returns every stored rate point.
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	points, err := h.Store.ListRatePoints(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rates", err)
		return
	}
	dtos := make([]RatePointDTO, len(points))
	for i, p := range points {
		dtos[i] = RatePointDTO{
			Table:         p.Table,
			EffectiveFrom: p.EffectiveFrom.String(),
			RatePercent:   p.Percent,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveRates upserts a JSON array of rate points and rebuilds the engine.
func (h *Handler) SaveRates(w http.ResponseWriter, r *http.Request) {
	var dtos []RatePointDTO
	if err := json.NewDecoder(r.Body).Decode(&dtos); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	points := make([]sqlite.RatePoint, 0, len(dtos))
	for i, dto := range dtos {
		from, err := finance.ParseDate(dto.EffectiveFrom)
		if err != nil || from.IsZero() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Rate point %d: invalid effective_from", i), err)
			return
		}
		points = append(points, sqlite.RatePoint{
			Table:         dto.Table,
			EffectiveFrom: from,
			Percent:       dto.RatePercent,
		})
	}

	if err := h.Store.SaveRatePoints(r.Context(), points); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rates", err)
		return
	}
	if err := h.ReloadRates(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload rates", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"saved": len(points)})
}

// UploadRates ingests the three-column rate CSV and rebuilds the engine.
func (h *Handler) UploadRates(w http.ResponseWriter, r *http.Request) {
	rt := finance.NewRateTable()
	if err := rt.LoadCSV(r.Body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate CSV", err)
		return
	}

	// Persist via the same path the JSON upsert takes.
	points := ratePointsOf(rt)
	if err := h.Store.SaveRatePoints(r.Context(), points); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rates", err)
		return
	}
	if err := h.ReloadRates(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload rates", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"saved": len(points)})
}

// =============================================================================
// HELPERS
// =============================================================================

func ratePointsOf(rt *finance.RateTable) []sqlite.RatePoint {
	var out []sqlite.RatePoint
	for _, p := range rt.Points() {
		out = append(out, sqlite.RatePoint{
			Table:         p.Table,
			EffectiveFrom: p.From,
			Percent:       p.Percent,
		})
	}
	return out
}

func leaseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseDateField(field, s string) (finance.Date, error) {
	d, err := finance.ParseDate(s)
	if err != nil {
		return finance.Date{}, fmt.Errorf("%s: %w", field, err)
	}
	if d.IsZero() {
		return finance.Date{}, fmt.Errorf("%s is required", field)
	}
	return d, nil
}

// writeEngineError maps engine failures to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case lease.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Lease not found", err)
	case errors.Is(err, lease.ErrComputationExhausted):
		writeError(w, http.StatusUnprocessableEntity, "Computation did not converge", err)
	case lease.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	default:
		writeError(w, http.StatusInternalServerError, "Calculation failed", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
