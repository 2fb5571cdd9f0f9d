/*
handlers_test.go - HTTP tests for the payroll API

Tests for:
- Payroll calculation endpoint (reference scenario over the wire)
- Domain error -> HTTP status mapping (404, 409)
- Workflow transitions via the router
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payroll/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newTestServer wires the full router over the in-memory store with a seeded
// employee, transport benefit, and open January 2026 period.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mem := store.NewTxMemory()
	catalog := payroll.DefaultCatalog()
	service := payroll.NewService(mem, payroll.NewCalculator(catalog))

	srv := httptest.NewServer(NewRouter(NewHandler(service, catalog)))
	t.Cleanup(srv.Close)

	postJSON(t, srv, "/api/employees", map[string]any{
		"id": "emp-1", "baseSalary": "2500000",
	}, http.StatusCreated)
	postJSON(t, srv, "/api/periods", map[string]any{
		"id": "2026-01", "startDate": "2026-01-01", "endDate": "2026-01-31", "payDate": "2026-02-05",
	}, http.StatusCreated)
	postJSON(t, srv, "/api/periods/2026-01/open", nil, http.StatusOK)
	postJSON(t, srv, "/api/benefits", map[string]any{
		"id": "b-transport", "employeeId": "emp-1", "conceptCode": "TRANSPORT",
		"frequency": "monthly", "effectiveDate": "2026-01-01",
	}, http.StatusCreated)

	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any, wantStatus int) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	} else {
		buf.WriteString("{}")
	}

	resp, err := http.Post(srv.URL+path, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("POST %s: decode response: %v", path, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s: expected %d, got %d (%v)", path, wantStatus, resp.StatusCode, decoded)
	}
	return decoded
}

func getJSON(t *testing.T, srv *httptest.Server, path string, wantStatus int) map[string]any {
	t.Helper()

	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: expected %d, got %d", path, wantStatus, resp.StatusCode)
	}

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("GET %s: decode response: %v", path, err)
	}
	return decoded
}

func calculateRequest() map[string]any {
	return map[string]any{
		"employeeId": "emp-1",
		"periodId":   "2026-01",
		"worked":     map[string]any{"workedDays": "30", "workedHours": "240"},
	}
}

// =============================================================================
// CALCULATION ENDPOINTS
// =============================================================================

func TestAPI_PreviewPayroll(t *testing.T) {
	srv := newTestServer(t)

	body := postJSON(t, srv, "/api/payrolls/preview", calculateRequest(), http.StatusOK)

	if got := body["grossSalary"]; got != "2640606.00" {
		t.Errorf("gross: expected 2640606.00, got %v", got)
	}
	if got := body["netSalary"]; got != "2429357.52" {
		t.Errorf("net: expected 2429357.52, got %v", got)
	}
}

func TestAPI_CreateAndFetchPayroll(t *testing.T) {
	srv := newTestServer(t)

	created := postJSON(t, srv, "/api/payrolls", calculateRequest(), http.StatusOK)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("expected payroll id in response")
	}
	if created["status"] != "calculated" {
		t.Errorf("expected calculated, got %v", created["status"])
	}

	fetched := getJSON(t, srv, "/api/payrolls/"+id, http.StatusOK)
	if fetched["netSalary"] != "2429357.52" {
		t.Errorf("net: expected 2429357.52, got %v", fetched["netSalary"])
	}
	items, _ := fetched["lineItems"].([]any)
	if len(items) != 3 {
		t.Errorf("expected 3 line items, got %d", len(items))
	}
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestAPI_UnknownPayrollIs404(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/payrolls/missing")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAPI_FrozenPayrollIs409(t *testing.T) {
	srv := newTestServer(t)

	created := postJSON(t, srv, "/api/payrolls", calculateRequest(), http.StatusOK)
	id := created["id"].(string)

	postJSON(t, srv, "/api/payrolls/"+id+"/approve",
		map[string]any{"approverId": "manager-1"}, http.StatusOK)

	// Recalculating an approved payroll is a conflict.
	postJSON(t, srv, "/api/payrolls", calculateRequest(), http.StatusConflict)
}

func TestAPI_ClosedPeriodIs409(t *testing.T) {
	srv := newTestServer(t)

	postJSON(t, srv, "/api/periods/2026-01/close", nil, http.StatusOK)
	postJSON(t, srv, "/api/payrolls", calculateRequest(), http.StatusConflict)
}

// =============================================================================
// WORKFLOW OVER THE WIRE
// =============================================================================

func TestAPI_FullWorkflow(t *testing.T) {
	srv := newTestServer(t)

	created := postJSON(t, srv, "/api/payrolls", calculateRequest(), http.StatusOK)
	id := created["id"].(string)

	steps := []struct {
		path string
		body map[string]any
		want string
	}{
		{"/approve", map[string]any{"approverId": "manager-1"}, "approved"},
		{"/process", nil, "processed"},
		{"/pay", nil, "paid"},
	}
	for _, step := range steps {
		body := postJSON(t, srv, "/api/payrolls/"+id+step.path, step.body, http.StatusOK)
		if body["status"] != step.want {
			t.Errorf("%s: expected %s, got %v", step.path, step.want, body["status"])
		}
	}
}

func TestAPI_PeriodSummaryAndBatch(t *testing.T) {
	srv := newTestServer(t)

	// Seed a second employee and batch the period.
	postJSON(t, srv, "/api/employees", map[string]any{
		"id": "emp-2", "baseSalary": "1500000",
	}, http.StatusCreated)

	inputs := make([]map[string]any, 0, 2)
	for _, id := range []string{"emp-1", "emp-2"} {
		inputs = append(inputs, map[string]any{
			"employeeId": id,
			"worked":     map[string]any{"workedDays": "30", "workedHours": "240"},
		})
	}
	report := postJSON(t, srv, "/api/periods/2026-01/run",
		map[string]any{"workers": 2, "inputs": inputs}, http.StatusOK)

	if got := report["succeeded"]; got != float64(2) {
		t.Fatalf("expected 2 successes, got %v", got)
	}

	summary := getJSON(t, srv, "/api/periods/2026-01/summary", http.StatusOK)
	if summary["totalEmployees"] != float64(2) {
		t.Errorf("expected 2 employees, got %v", summary["totalEmployees"])
	}
	if summary["totalGross"] != "4140606.00" {
		t.Errorf("expected gross 4140606.00, got %v", summary["totalGross"])
	}
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

func TestAPI_ListConcepts(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/concepts?type=deduction&active=true")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var concepts []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&concepts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(concepts) != 2 {
		t.Fatalf("expected 2 deductions, got %d", len(concepts))
	}
	for _, c := range concepts {
		if c["type"] != "deduction" {
			t.Errorf("expected deduction, got %v", c["type"])
		}
	}
}

func TestAPI_ListEmployeeBenefits(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/employees/emp-1/benefits")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var benefits []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&benefits); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(benefits) != 1 {
		t.Fatalf("expected 1 benefit, got %d", len(benefits))
	}
	if benefits[0]["conceptCode"] != "TRANSPORT" {
		t.Errorf("expected TRANSPORT, got %v", benefits[0]["conceptCode"])
	}
}

func TestAPI_InvalidBenefitConceptIs404(t *testing.T) {
	srv := newTestServer(t)

	postJSON(t, srv, "/api/benefits", map[string]any{
		"id": "b-x", "employeeId": "emp-1", "conceptCode": "GHOST",
		"effectiveDate": "2026-01-01",
	}, http.StatusNotFound)
}
