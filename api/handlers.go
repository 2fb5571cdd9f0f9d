/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Payrolls:
    POST   /api/payrolls/preview         Pure calculation, nothing persisted
    POST   /api/payrolls                 Create or recalculate a payroll
    GET    /api/payrolls/{id}            Get payroll with line items
    POST   /api/payrolls/{id}/approve    calculated -> approved
    POST   /api/payrolls/{id}/reject     calculated -> rejected (terminal)
    POST   /api/payrolls/{id}/process    approved -> processed
    POST   /api/payrolls/{id}/pay        processed -> paid
    POST   /api/payrolls/{id}/reopen     approved -> calculated

  Periods:
    GET    /api/periods                  List periods
    POST   /api/periods                  Create a draft period
    POST   /api/periods/{id}/open        draft -> processing
    POST   /api/periods/{id}/close       processing -> closed
    POST   /api/periods/{id}/reopen      closed -> processing
    GET    /api/periods/{id}/summary     Recomputed rollup
    GET    /api/periods/{id}/payrolls    All payrolls under the period
    POST   /api/periods/{id}/run         Batch-calculate the period

  Reference data:
    GET/POST /api/employees              Employee projection
    GET      /api/employees/{id}/benefits  Benefit assignments per employee
    POST     /api/benefits               Benefit assignments
    GET      /api/concepts               Concept catalog

ERROR HANDLING:
  Domain errors map to HTTP status by classification:
  - 400: Validation errors, invalid input
  - 404: Payroll/period/employee/concept not found
  - 409: Conflict (duplicate, frozen payroll, closed period, bad transition)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *payroll.Service
	Catalog *payroll.ConceptCatalog

	// BatchWorkers bounds period runs when the request doesn't say.
	BatchWorkers int
}

// NewHandler creates a new handler around the service.
func NewHandler(service *payroll.Service, catalog *payroll.ConceptCatalog) *Handler {
	return &Handler{
		Service:      service,
		Catalog:      catalog,
		BatchWorkers: payroll.DefaultBatchWorkers,
	}
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// PreviewPayroll computes a full payroll result without persisting anything.
// POST /api/payrolls/preview
func (h *Handler) PreviewPayroll(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	worked, err := req.Worked.ToDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid worked input", err)
		return
	}

	result, err := h.Service.CalculatePayroll(
		r.Context(),
		payroll.EmployeeID(req.EmployeeID),
		payroll.PeriodID(req.PeriodID),
		worked,
	)
	if err != nil {
		writeDomainError(w, "Failed to calculate payroll", err)
		return
	}

	writeJSON(w, http.StatusOK, toCalculationResponse(result))
}

// CreateOrUpdatePayroll creates the payroll for the pair or recalculates an
// existing draft/calculated one, replacing its line items.
// POST /api/payrolls
func (h *Handler) CreateOrUpdatePayroll(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	worked, err := req.Worked.ToDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid worked input", err)
		return
	}

	record, err := h.Service.CreateOrUpdatePayroll(
		r.Context(),
		payroll.EmployeeID(req.EmployeeID),
		payroll.PeriodID(req.PeriodID),
		worked,
	)
	if err != nil {
		writeDomainError(w, "Failed to save payroll", err)
		return
	}

	writeJSON(w, http.StatusOK, toPayrollResponse(record))
}

// GetPayroll returns a payroll with its line items.
// GET /api/payrolls/{id}
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	id := payroll.PayrollID(chi.URLParam(r, "id"))

	record, err := h.Service.Store.GetPayroll(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get payroll", err)
		return
	}

	writeJSON(w, http.StatusOK, toPayrollResponse(record))
}

// ApprovePayroll moves calculated -> approved.
// POST /api/payrolls/{id}/approve
func (h *Handler) ApprovePayroll(w http.ResponseWriter, r *http.Request) {
	id := payroll.PayrollID(chi.URLParam(r, "id"))

	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	record, err := h.Service.ApprovePayroll(r.Context(), id, req.ApproverID)
	if err != nil {
		writeDomainError(w, "Failed to approve payroll", err)
		return
	}

	writeJSON(w, http.StatusOK, toPayrollResponse(record))
}

// RejectPayroll moves calculated -> rejected. Terminal.
// POST /api/payrolls/{id}/reject
func (h *Handler) RejectPayroll(w http.ResponseWriter, r *http.Request) {
	id := payroll.PayrollID(chi.URLParam(r, "id"))

	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	record, err := h.Service.RejectPayroll(r.Context(), id, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to reject payroll", err)
		return
	}

	writeJSON(w, http.StatusOK, toPayrollResponse(record))
}

// ProcessPayroll moves approved -> processed.
// POST /api/payrolls/{id}/process
func (h *Handler) ProcessPayroll(w http.ResponseWriter, r *http.Request) {
	id := payroll.PayrollID(chi.URLParam(r, "id"))

	record, err := h.Service.MarkProcessed(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to process payroll", err)
		return
	}

	writeJSON(w, http.StatusOK, toPayrollResponse(record))
}

// PayPayroll moves processed -> paid.
// POST /api/payrolls/{id}/pay
func (h *Handler) PayPayroll(w http.ResponseWriter, r *http.Request) {
	id := payroll.PayrollID(chi.URLParam(r, "id"))

	record, err := h.Service.MarkPaid(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to pay payroll", err)
		return
	}

	writeJSON(w, http.StatusOK, toPayrollResponse(record))
}

// ReopenPayroll moves approved -> calculated for corrections.
// POST /api/payrolls/{id}/reopen
func (h *Handler) ReopenPayroll(w http.ResponseWriter, r *http.Request) {
	id := payroll.PayrollID(chi.URLParam(r, "id"))

	var req ReopenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	record, err := h.Service.ReopenPayroll(r.Context(), id, req.ActorID)
	if err != nil {
		writeDomainError(w, "Failed to reopen payroll", err)
		return
	}

	writeJSON(w, http.StatusOK, toPayrollResponse(record))
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// ListPeriods returns all periods.
// GET /api/periods
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Service.Store.ListPeriods(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list periods", err)
		return
	}

	dtos := make([]PeriodResponse, len(periods))
	for i, p := range periods {
		dtos[i] = toPeriodResponse(p)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreatePeriod registers a new draft period.
// POST /api/periods
func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req CreatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := payroll.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid startDate", err)
		return
	}
	end, err := payroll.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid endDate", err)
		return
	}
	payDate, err := payroll.ParseDate(req.PayDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payDate", err)
		return
	}

	period, err := h.Service.CreatePeriod(r.Context(), payroll.PeriodID(req.ID), start, end, payDate)
	if err != nil {
		writeDomainError(w, "Failed to create period", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPeriodResponse(period))
}

// OpenPeriod moves draft -> processing.
// POST /api/periods/{id}/open
func (h *Handler) OpenPeriod(w http.ResponseWriter, r *http.Request) {
	h.periodTransition(w, r, "Failed to open period", h.Service.OpenPeriod)
}

// ClosePeriod moves processing -> closed.
// POST /api/periods/{id}/close
func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	h.periodTransition(w, r, "Failed to close period", h.Service.ClosePeriod)
}

// ReopenPeriod moves closed -> processing.
// POST /api/periods/{id}/reopen
func (h *Handler) ReopenPeriod(w http.ResponseWriter, r *http.Request) {
	h.periodTransition(w, r, "Failed to reopen period", h.Service.ReopenPeriod)
}

func (h *Handler) periodTransition(
	w http.ResponseWriter,
	r *http.Request,
	message string,
	fn func(ctx context.Context, id payroll.PeriodID) (payroll.Period, error),
) {
	id := payroll.PeriodID(chi.URLParam(r, "id"))

	period, err := fn(r.Context(), id)
	if err != nil {
		writeDomainError(w, message, err)
		return
	}

	writeJSON(w, http.StatusOK, toPeriodResponse(period))
}

// GetPeriodSummary returns the recomputed rollup for a period.
// GET /api/periods/{id}/summary
func (h *Handler) GetPeriodSummary(w http.ResponseWriter, r *http.Request) {
	id := payroll.PeriodID(chi.URLParam(r, "id"))

	summary, err := h.Service.PeriodSummary(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to summarize period", err)
		return
	}

	writeJSON(w, http.StatusOK, toPeriodSummaryResponse(summary))
}

// ListPeriodPayrolls returns all payrolls under a period.
// GET /api/periods/{id}/payrolls
func (h *Handler) ListPeriodPayrolls(w http.ResponseWriter, r *http.Request) {
	id := payroll.PeriodID(chi.URLParam(r, "id"))

	payrolls, err := h.Service.Store.ListPayrollsByPeriod(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to list payrolls", err)
		return
	}

	dtos := make([]PayrollResponse, len(payrolls))
	for i, p := range payrolls {
		dtos[i] = toPayrollResponse(p)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// RunPeriod batch-calculates every input employee under the period.
// POST /api/periods/{id}/run
func (h *Handler) RunPeriod(w http.ResponseWriter, r *http.Request) {
	id := payroll.PeriodID(chi.URLParam(r, "id"))

	var req RunPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	inputs := make([]payroll.BatchInput, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		worked, err := input.Worked.ToDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid worked input for "+input.EmployeeID, err)
			return
		}
		inputs = append(inputs, payroll.BatchInput{
			EmployeeID: payroll.EmployeeID(input.EmployeeID),
			Worked:     worked,
		})
	}

	workers := req.Workers
	if workers <= 0 {
		workers = h.BatchWorkers
	}

	report, err := h.Service.RunPeriod(r.Context(), id, inputs, workers)
	if err != nil {
		writeDomainError(w, "Failed to run period", err)
		return
	}

	writeJSON(w, http.StatusOK, toRunPeriodResponse(report))
}

// =============================================================================
// REFERENCE DATA HANDLERS
// =============================================================================

// ListEmployees returns the employee projection.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]CreateEmployeeRequest, len(employees))
	for i, e := range employees {
		dtos[i] = CreateEmployeeRequest{
			ID:         string(e.ID),
			BaseSalary: e.BaseSalary.StringFixed(2),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee registers an employee with a base salary.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Employee id is required", nil)
		return
	}
	baseSalary, err := decimal.NewFromString(req.BaseSalary)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid baseSalary", err)
		return
	}

	employee := payroll.Employee{ID: payroll.EmployeeID(req.ID), BaseSalary: baseSalary}
	if err := h.Service.Store.SaveEmployee(r.Context(), employee); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// CreateBenefit registers a benefit assignment for an employee.
// POST /api/benefits
func (h *Handler) CreateBenefit(w http.ResponseWriter, r *http.Request) {
	var req CreateBenefitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.EmployeeID == "" || req.ConceptCode == "" {
		writeError(w, http.StatusBadRequest, "id, employeeId and conceptCode are required", nil)
		return
	}
	if _, err := h.Catalog.Get(payroll.ConceptCode(req.ConceptCode)); err != nil {
		writeDomainError(w, "Unknown concept", err)
		return
	}

	amount, err := parseDecimal(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	rate, err := parseDecimal(req.Rate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate", err)
		return
	}
	effective, err := payroll.ParseDate(req.EffectiveDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effectiveDate", err)
		return
	}
	var endDate *payroll.Date
	if req.EndDate != "" {
		end, err := payroll.ParseDate(req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid endDate", err)
			return
		}
		endDate = &end
	}

	frequency := payroll.Frequency(req.Frequency)
	if frequency == "" {
		frequency = payroll.FrequencyMonthly
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	benefit := payroll.BenefitAssignment{
		ID:            req.ID,
		EmployeeID:    payroll.EmployeeID(req.EmployeeID),
		ConceptCode:   payroll.ConceptCode(req.ConceptCode),
		Amount:        amount,
		Rate:          rate,
		Frequency:     frequency,
		EffectiveDate: effective,
		EndDate:       endDate,
		Active:        active,
	}
	if err := h.Service.Store.SaveBenefit(r.Context(), benefit); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save benefit", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// ListEmployeeBenefits returns every benefit assignment recorded for an
// employee, active or not.
// GET /api/employees/{id}/benefits
func (h *Handler) ListEmployeeBenefits(w http.ResponseWriter, r *http.Request) {
	employeeID := payroll.EmployeeID(chi.URLParam(r, "id"))

	benefits, err := h.Service.Store.ListBenefitsByEmployee(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list benefits", err)
		return
	}

	dtos := make([]BenefitResponse, len(benefits))
	for i, b := range benefits {
		dtos[i] = toBenefitResponse(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListConcepts returns the concept catalog, optionally filtered by type or
// active flag via query parameters.
// GET /api/concepts
func (h *Handler) ListConcepts(w http.ResponseWriter, r *http.Request) {
	filter := payroll.ConceptFilter{}
	if t := r.URL.Query().Get("type"); t != "" {
		conceptType := payroll.ConceptType(t)
		filter.Type = &conceptType
	}
	if a := r.URL.Query().Get("active"); a != "" {
		active := a == "true"
		filter.Active = &active
	}

	concepts := h.Catalog.List(filter)
	dtos := make([]ConceptResponse, len(concepts))
	for i, c := range concepts {
		dtos[i] = toConceptResponse(c)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeDomainError maps domain error classes to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case payroll.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case payroll.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case payroll.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
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
