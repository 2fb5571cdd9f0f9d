/*
dto.go - Request/response shapes for the HTTP surface

PURPOSE:
  JSON transfer objects separating the wire format from domain types.
  Monetary values cross the wire as fixed 2-decimal strings; parsing back
  goes through decimal, never float64, so precision survives the round
  trip.

SEE ALSO:
  - handlers.go: Uses these DTOs
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// REQUESTS
// =============================================================================

type WorkedInputRequest struct {
	WorkedDays    string `json:"workedDays"`
	WorkedHours   string `json:"workedHours"`
	OvertimeHours string `json:"overtimeHours"`
}

func (r WorkedInputRequest) ToDomain() (payroll.WorkedInput, error) {
	var (
		w   payroll.WorkedInput
		err error
	)
	if w.WorkedDays, err = parseDecimal(r.WorkedDays); err != nil {
		return w, err
	}
	if w.WorkedHours, err = parseDecimal(r.WorkedHours); err != nil {
		return w, err
	}
	if w.OvertimeHours, err = parseDecimal(r.OvertimeHours); err != nil {
		return w, err
	}
	return w, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

type CalculateRequest struct {
	EmployeeID string             `json:"employeeId"`
	PeriodID   string             `json:"periodId"`
	Worked     WorkedInputRequest `json:"worked"`
}

type ApproveRequest struct {
	ApproverID string `json:"approverId"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type ReopenRequest struct {
	ActorID string `json:"actorId"`
}

type CreatePeriodRequest struct {
	ID        string `json:"id"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	PayDate   string `json:"payDate"`
}

type CreateEmployeeRequest struct {
	ID         string `json:"id"`
	BaseSalary string `json:"baseSalary"`
}

type CreateBenefitRequest struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employeeId"`
	ConceptCode   string `json:"conceptCode"`
	Amount        string `json:"amount"`
	Rate          string `json:"rate"`
	Frequency     string `json:"frequency"`
	EffectiveDate string `json:"effectiveDate"`
	EndDate       string `json:"endDate"`
	Active        *bool  `json:"active"`
}

type RunPeriodRequest struct {
	Workers int                `json:"workers"`
	Inputs  []RunPeriodInput   `json:"inputs"`
}

type RunPeriodInput struct {
	EmployeeID string             `json:"employeeId"`
	Worked     WorkedInputRequest `json:"worked"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type LineItemResponse struct {
	ConceptCode string `json:"conceptCode"`
	ConceptName string `json:"conceptName"`
	ConceptType string `json:"conceptType"`
	BaseAmount  string `json:"baseAmount"`
	Rate        string `json:"rate"`
	Quantity    string `json:"quantity"`
	Amount      string `json:"amount"`
}

func toLineItemResponses(items []payroll.LineItem) []LineItemResponse {
	result := make([]LineItemResponse, 0, len(items))
	for _, item := range items {
		result = append(result, LineItemResponse{
			ConceptCode: string(item.ConceptCode),
			ConceptName: item.ConceptName,
			ConceptType: string(item.ConceptType),
			BaseAmount:  item.BaseAmount.StringFixed(2),
			Rate:        item.Rate.String(),
			Quantity:    item.Quantity.String(),
			Amount:      item.Amount.StringFixed(2),
		})
	}
	return result
}

type CalculationResponse struct {
	BaseSalary      string             `json:"baseSalary"`
	OvertimeAmount  string             `json:"overtimeAmount"`
	TotalEarnings   string             `json:"totalEarnings"`
	GrossSalary     string             `json:"grossSalary"`
	TotalDeductions string             `json:"totalDeductions"`
	TotalTaxes      string             `json:"totalTaxes"`
	NetSalary       string             `json:"netSalary"`
	LineItems       []LineItemResponse `json:"lineItems"`
}

func toCalculationResponse(result *payroll.CalculationResult) CalculationResponse {
	return CalculationResponse{
		BaseSalary:      result.BaseSalary.StringFixed(2),
		OvertimeAmount:  result.OvertimeAmount.StringFixed(2),
		TotalEarnings:   result.TotalEarnings.StringFixed(2),
		GrossSalary:     result.GrossSalary.StringFixed(2),
		TotalDeductions: result.TotalDeductions.StringFixed(2),
		TotalTaxes:      result.TotalTaxes.StringFixed(2),
		NetSalary:       result.NetSalary.StringFixed(2),
		LineItems:       toLineItemResponses(result.LineItems),
	}
}

type PayrollResponse struct {
	ID              string             `json:"id"`
	EmployeeID      string             `json:"employeeId"`
	PeriodID        string             `json:"periodId"`
	Status          string             `json:"status"`
	BaseSalary      string             `json:"baseSalary"`
	WorkedDays      string             `json:"workedDays"`
	WorkedHours     string             `json:"workedHours"`
	OvertimeHours   string             `json:"overtimeHours"`
	OvertimeAmount  string             `json:"overtimeAmount"`
	TotalEarnings   string             `json:"totalEarnings"`
	GrossSalary     string             `json:"grossSalary"`
	TotalDeductions string             `json:"totalDeductions"`
	TotalTaxes      string             `json:"totalTaxes"`
	NetSalary       string             `json:"netSalary"`
	LineItems       []LineItemResponse `json:"lineItems"`
	CreatedAt       time.Time          `json:"createdAt"`
	CalculatedAt    *time.Time         `json:"calculatedAt,omitempty"`
	ApprovedAt      *time.Time         `json:"approvedAt,omitempty"`
	ApprovedBy      string             `json:"approvedBy,omitempty"`
	ProcessedAt     *time.Time         `json:"processedAt,omitempty"`
	PaidAt          *time.Time         `json:"paidAt,omitempty"`
	RejectedAt      *time.Time         `json:"rejectedAt,omitempty"`
	RejectionReason string             `json:"rejectionReason,omitempty"`
}

func toPayrollResponse(p payroll.Payroll) PayrollResponse {
	return PayrollResponse{
		ID:              string(p.ID),
		EmployeeID:      string(p.EmployeeID),
		PeriodID:        string(p.PeriodID),
		Status:          string(p.Status),
		BaseSalary:      p.BaseSalary.StringFixed(2),
		WorkedDays:      p.WorkedDays.String(),
		WorkedHours:     p.WorkedHours.String(),
		OvertimeHours:   p.OvertimeHours.String(),
		OvertimeAmount:  p.OvertimeAmount.StringFixed(2),
		TotalEarnings:   p.TotalEarnings.StringFixed(2),
		GrossSalary:     p.GrossSalary.StringFixed(2),
		TotalDeductions: p.TotalDeductions.StringFixed(2),
		TotalTaxes:      p.TotalTaxes.StringFixed(2),
		NetSalary:       p.NetSalary.StringFixed(2),
		LineItems:       toLineItemResponses(p.LineItems),
		CreatedAt:       p.CreatedAt,
		CalculatedAt:    p.CalculatedAt,
		ApprovedAt:      p.ApprovedAt,
		ApprovedBy:      p.ApprovedBy,
		ProcessedAt:     p.ProcessedAt,
		PaidAt:          p.PaidAt,
		RejectedAt:      p.RejectedAt,
		RejectionReason: p.RejectionReason,
	}
}

type PeriodResponse struct {
	ID        string `json:"id"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	PayDate   string `json:"payDate"`
	Status    string `json:"status"`
}

func toPeriodResponse(p payroll.Period) PeriodResponse {
	return PeriodResponse{
		ID:        string(p.ID),
		StartDate: p.StartDate.String(),
		EndDate:   p.EndDate.String(),
		PayDate:   p.PayDate.String(),
		Status:    string(p.Status),
	}
}

type PeriodSummaryResponse struct {
	PeriodID        string `json:"periodId"`
	Status          string `json:"status"`
	TotalEmployees  int    `json:"totalEmployees"`
	TotalGross      string `json:"totalGross"`
	TotalDeductions string `json:"totalDeductions"`
	TotalNet        string `json:"totalNet"`
}

func toPeriodSummaryResponse(s payroll.PeriodSummary) PeriodSummaryResponse {
	return PeriodSummaryResponse{
		PeriodID:        string(s.PeriodID),
		Status:          string(s.Status),
		TotalEmployees:  s.TotalEmployees,
		TotalGross:      s.TotalGross.StringFixed(2),
		TotalDeductions: s.TotalDeductions.StringFixed(2),
		TotalNet:        s.TotalNet.StringFixed(2),
	}
}

type BenefitResponse struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employeeId"`
	ConceptCode   string `json:"conceptCode"`
	Amount        string `json:"amount"`
	Rate          string `json:"rate"`
	Frequency     string `json:"frequency"`
	EffectiveDate string `json:"effectiveDate"`
	EndDate       string `json:"endDate,omitempty"`
	Active        bool   `json:"active"`
}

func toBenefitResponse(b payroll.BenefitAssignment) BenefitResponse {
	resp := BenefitResponse{
		ID:            b.ID,
		EmployeeID:    string(b.EmployeeID),
		ConceptCode:   string(b.ConceptCode),
		Amount:        b.Amount.String(),
		Rate:          b.Rate.String(),
		Frequency:     string(b.Frequency),
		EffectiveDate: b.EffectiveDate.String(),
		Active:        b.Active,
	}
	if b.EndDate != nil {
		resp.EndDate = b.EndDate.String()
	}
	return resp
}

type ConceptResponse struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	CalculationType string `json:"calculationType"`
	DefaultValue    string `json:"defaultValue"`
	DefaultRate     string `json:"defaultRate"`
	IsTaxable       bool   `json:"isTaxable"`
	IsMandatory     bool   `json:"isMandatory"`
	Active          bool   `json:"active"`
}

func toConceptResponse(c payroll.Concept) ConceptResponse {
	return ConceptResponse{
		Code:            string(c.Code),
		Name:            c.Name,
		Type:            string(c.Type),
		CalculationType: string(c.CalculationType),
		DefaultValue:    c.DefaultValue.String(),
		DefaultRate:     c.DefaultRate.String(),
		IsTaxable:       c.IsTaxable,
		IsMandatory:     c.IsMandatory,
		Active:          c.Active,
	}
}

type RunPeriodResponse struct {
	PeriodID  string                  `json:"periodId"`
	Succeeded int                     `json:"succeeded"`
	Failed    int                     `json:"failed"`
	Results   []RunPeriodResultDetail `json:"results"`
}

type RunPeriodResultDetail struct {
	EmployeeID string `json:"employeeId"`
	PayrollID  string `json:"payrollId,omitempty"`
	Status     string `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
}

func toRunPeriodResponse(report *payroll.BatchReport) RunPeriodResponse {
	resp := RunPeriodResponse{
		PeriodID:  string(report.PeriodID),
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
	}
	for _, result := range report.Results {
		detail := RunPeriodResultDetail{EmployeeID: string(result.EmployeeID)}
		if result.Err != nil {
			detail.Error = result.Err.Error()
		} else {
			detail.PayrollID = string(result.Payroll.ID)
			detail.Status = string(result.Payroll.Status)
		}
		resp.Results = append(resp.Results, detail)
	}
	return resp
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
