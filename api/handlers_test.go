package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/warp/lease-engine/api"
	"github.com/warp/lease-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const warehousePayload = `{
	"id": 1024,
	"description": "Mumbai warehouse",
	"asset_class": "Building",
	"start_date": "2024-01-01",
	"first_payment_date": "2024-01-16",
	"end_date": "2028-12-31",
	"frequency_months": 1,
	"day_of_month": "Last",
	"auto_rentals": true,
	"rental1": "150000",
	"escalation_percent": "5",
	"escalation_freq_months": 1,
	"borrowing_rate": "8"
}`

const year2024Filters = `{"start_date": "2024-01-01", "end_date": "2024-12-31"}`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	return api.NewRouter(api.NewHandler(store, log))
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

// =============================================================================
// LEASE REGISTER
// =============================================================================

func TestLeaseRegisterCRUD(t *testing.T) {
	router := newTestRouter(t)

	// Create.
	rec := do(t, router, http.MethodPost, "/api/leases", warehousePayload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/leases = %d, want 201: %s", rec.Code, rec.Body)
	}

	// Read back.
	rec = do(t, router, http.MethodGet, "/api/leases/1024", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/leases/1024 = %d, want 200", rec.Code)
	}
	var got map[string]any
	decode(t, rec, &got)
	if got["description"] != "Mumbai warehouse" {
		t.Errorf("description = %v, want Mumbai warehouse", got["description"])
	}

	// List.
	rec = do(t, router, http.MethodGet, "/api/leases", "")
	var list []map[string]any
	decode(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("register lists %d leases, want 1", len(list))
	}

	// Delete.
	rec = do(t, router, http.MethodDelete, "/api/leases/1024", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE = %d, want 204", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/api/leases/1024", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", rec.Code)
	}
}

func TestSaveLease_RejectsInvalidPayloads(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/leases", `{"id": 1, "start_date": "2024-01-01"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing end_date = %d, want 400", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/api/leases",
		`{"id": 0, "start_date": "2024-01-01", "end_date": "2024-12-31"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-positive id = %d, want 400", rec.Code)
	}
}

func TestGetLease_UnknownIDIs404(t *testing.T) {
	router := newTestRouter(t)
	if rec := do(t, router, http.MethodGet, "/api/leases/999", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET unknown lease = %d, want 404", rec.Code)
	}
}

func TestGetSchedule(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/api/leases", warehousePayload)

	rec := do(t, router, http.MethodGet, "/api/leases/1024/schedule", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET schedule = %d, want 200: %s", rec.Code, rec.Body)
	}

	var rows []api.ScheduleRowDTO
	decode(t, rec, &rows)
	if len(rows) == 0 {
		t.Fatal("schedule should have rows")
	}
	if rows[0].Date != "2024-01-01" {
		t.Errorf("first row dated %s, want the lease start", rows[0].Date)
	}
}

// =============================================================================
// CALCULATION
// =============================================================================

func TestCalculate(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/api/leases", warehousePayload)

	body := `{"lease_id": 1024, "filters": ` + year2024Filters + `}`
	rec := do(t, router, http.MethodPost, "/api/calculate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/calculate = %d, want 200: %s", rec.Code, rec.Body)
	}

	var resp api.CalculateResponse
	decode(t, rec, &resp)
	if resp.Result.LeaseID != 1024 {
		t.Errorf("result lease id = %d, want 1024", resp.Result.LeaseID)
	}
	if !resp.Result.RentPaid.IsPositive() {
		t.Errorf("rent paid = %s, want positive for a full year", resp.Result.RentPaid)
	}
	if len(resp.Schedule) == 0 || len(resp.Journal) == 0 {
		t.Error("response should carry the schedule and journal")
	}
}

func TestCalculate_ValidationAndMissing(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/api/leases", warehousePayload)

	// Incomplete window.
	rec := do(t, router, http.MethodPost, "/api/calculate",
		`{"lease_id": 1024, "filters": {"start_date": "2024-01-01"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("incomplete filters = %d, want 400", rec.Code)
	}

	// Unknown lease.
	rec = do(t, router, http.MethodPost, "/api/calculate",
		`{"lease_id": 404, "filters": `+year2024Filters+`}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown lease = %d, want 404", rec.Code)
	}
}

func TestBulk(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/api/leases", warehousePayload)

	rec := do(t, router, http.MethodPost, "/api/bulk", `{"filters": `+year2024Filters+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/bulk = %d, want 200: %s", rec.Code, rec.Body)
	}

	var resp api.BulkResponse
	decode(t, rec, &resp)
	if resp.TotalCount != 1 || resp.Processed != 1 || resp.Skipped != 0 {
		t.Errorf("counts = %d/%d/%d, want 1/1/0", resp.TotalCount, resp.Processed, resp.Skipped)
	}
	if len(resp.Journal) == 0 {
		t.Error("bulk response should carry the consolidated journal")
	}
	if !resp.Totals.RentPaid.Equal(resp.Results[0].RentPaid) {
		t.Error("single-lease totals should equal the lease's own result")
	}
}

func TestBulkExport_StreamsWorkbook(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/api/leases", warehousePayload)

	rec := do(t, router, http.MethodPost, "/api/bulk/export", `{"filters": `+year2024Filters+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/bulk/export = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q, want an xlsx stream", ct)
	}
	// xlsx files are zip archives.
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("body should be a zip-packaged workbook")
	}
}

// =============================================================================
// RATE CURVES
// =============================================================================

func TestRates_SaveListAndUpload(t *testing.T) {
	router := newTestRouter(t)

	// Empty store: no stored points yet (the engine runs on the shipped
	// curve).
	rec := do(t, router, http.MethodGet, "/api/rates", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/rates = %d, want 200", rec.Code)
	}
	var points []api.RatePointDTO
	decode(t, rec, &points)
	if len(points) != 0 {
		t.Fatalf("fresh store lists %d points, want 0", len(points))
	}

	// Upsert via JSON.
	rec = do(t, router, http.MethodPost, "/api/rates",
		`[{"table": 1, "effective_from": "2019-01-01", "rate_percent": "7.48"}]`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/rates = %d, want 201: %s", rec.Code, rec.Body)
	}

	rec = do(t, router, http.MethodGet, "/api/rates", "")
	decode(t, rec, &points)
	if len(points) != 1 || points[0].Table != 1 {
		t.Fatalf("stored points = %+v, want the saved entry", points)
	}

	// Upload via CSV.
	csv := "table,effective_date,rate_percent\n2,2019-03-01,8.51\n"
	rec = do(t, router, http.MethodPost, "/api/rates/upload", csv)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/rates/upload = %d, want 201: %s", rec.Code, rec.Body)
	}

	rec = do(t, router, http.MethodGet, "/api/rates", "")
	decode(t, rec, &points)
	if len(points) != 2 {
		t.Errorf("after upload: %d points, want 2", len(points))
	}
}

func TestRates_RejectsBadInput(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/rates",
		`[{"table": 1, "effective_from": "not-a-date", "rate_percent": "7.48"}]`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date = %d, want 400", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/api/rates/upload", "table,date,rate\n1,nope,7.0\n")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad CSV = %d, want 400", rec.Code)
	}
}

// =============================================================================
// DEV RESET
// =============================================================================

func TestResetDatabase(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/api/leases", warehousePayload)

	rec := do(t, router, http.MethodPost, "/api/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/reset = %d, want 200", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/api/leases", "")
	var list []map[string]any
	decode(t, rec, &list)
	if len(list) != 0 {
		t.Errorf("register lists %d leases after reset, want none", len(list))
	}
}
