package payroll_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var workflowClock = time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)

func calculatedPayroll(t *testing.T) payroll.Payroll {
	t.Helper()
	record := payroll.NewPayroll("emp-1", "2026-01", workflowClock)

	calc := payroll.NewCalculator(payroll.DefaultCatalog())
	result, err := calc.Calculate(
		payroll.Employee{ID: "emp-1", BaseSalary: money("2500000")},
		january2026(t),
		standardWorked(),
		[]payroll.BenefitAssignment{transportBenefit()},
	)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	record, err = record.WithCalculation(result, standardWorked(), workflowClock)
	if err != nil {
		t.Fatalf("with calculation: %v", err)
	}
	return record
}

// =============================================================================
// FORWARD FLOW
// =============================================================================

func TestWorkflow_FullLifecycle(t *testing.T) {
	// draft -> calculated -> approved -> processed -> paid
	record := calculatedPayroll(t)
	if record.Status != payroll.PayrollCalculated {
		t.Fatalf("expected calculated, got %s", record.Status)
	}

	record, err := record.Approve("manager-1", workflowClock)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if record.Status != payroll.PayrollApproved || record.ApprovedBy != "manager-1" {
		t.Fatalf("expected approved by manager-1, got %s/%s", record.Status, record.ApprovedBy)
	}

	record, err = record.MarkProcessed(workflowClock)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	record, err = record.MarkPaid(workflowClock)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if record.Status != payroll.PayrollPaid || record.PaidAt == nil {
		t.Errorf("expected paid with stamp, got %s", record.Status)
	}
}

func TestWorkflow_TransitionsReturnNewStates(t *testing.T) {
	record := calculatedPayroll(t)

	approved, err := record.Approve("manager-1", workflowClock)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	if record.Status != payroll.PayrollCalculated {
		t.Error("receiver was mutated by Approve")
	}
	if approved.Status != payroll.PayrollApproved {
		t.Error("returned state not approved")
	}
}

// =============================================================================
// ILLEGAL TRANSITIONS
// =============================================================================

func TestWorkflow_SkippingStatesIsRejected(t *testing.T) {
	record := calculatedPayroll(t)

	// calculated -> processed skips approval.
	_, err := record.MarkProcessed(workflowClock)
	if !errors.Is(err, payroll.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	// calculated -> paid skips two states.
	_, err = record.MarkPaid(workflowClock)
	if !errors.Is(err, payroll.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	// draft -> approved skips calculation.
	draft := payroll.NewPayroll("emp-2", "2026-01", workflowClock)
	_, err = draft.Approve("manager-1", workflowClock)
	if !errors.Is(err, payroll.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestWorkflow_RecalculationFrozenAfterApproval(t *testing.T) {
	// GIVEN: An approved payroll
	// WHEN: Applying a new calculation
	// THEN: Refused with a frozen conflict; line items unchanged

	record := calculatedPayroll(t)
	record, err := record.Approve("manager-1", workflowClock)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	calc := payroll.NewCalculator(payroll.DefaultCatalog())
	result, err := calc.Calculate(
		payroll.Employee{ID: "emp-1", BaseSalary: money("9999999")},
		january2026(t), standardWorked(), nil,
	)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	_, err = record.WithCalculation(result, standardWorked(), workflowClock)
	if !errors.Is(err, payroll.ErrPayrollFrozen) {
		t.Fatalf("expected ErrPayrollFrozen, got %v", err)
	}
}

// =============================================================================
// REJECTION
// =============================================================================

func TestWorkflow_RejectRequiresReason(t *testing.T) {
	record := calculatedPayroll(t)

	_, err := record.Reject("", workflowClock)
	if !errors.Is(err, payroll.ErrRejectionReasonRequired) {
		t.Fatalf("expected ErrRejectionReasonRequired, got %v", err)
	}
}

func TestWorkflow_RejectedIsTerminal(t *testing.T) {
	record := calculatedPayroll(t)

	record, err := record.Reject("wrong worked hours", workflowClock)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if record.Status != payroll.PayrollRejected || record.RejectionReason == "" {
		t.Fatalf("expected rejected with reason, got %s", record.Status)
	}

	// No transition leaves rejected, including recalculation.
	if _, err := record.Approve("manager-1", workflowClock); !errors.Is(err, payroll.ErrInvalidTransition) {
		t.Errorf("approve after reject: expected ErrInvalidTransition, got %v", err)
	}

	calc := payroll.NewCalculator(payroll.DefaultCatalog())
	result, err := calc.Calculate(
		payroll.Employee{ID: "emp-1", BaseSalary: money("2500000")},
		january2026(t), standardWorked(), nil,
	)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if _, err := record.WithCalculation(result, standardWorked(), workflowClock); !errors.Is(err, payroll.ErrInvalidTransition) {
		t.Errorf("recalc after reject: expected ErrInvalidTransition, got %v", err)
	}
}

// =============================================================================
// NEGATIVE NET GATE
// =============================================================================

func TestWorkflow_NegativeNetBlocksApproval(t *testing.T) {
	// GIVEN: A concept set whose deductions exceed gross
	// WHEN: Approving
	// THEN: Blocked with a NegativeNetError, never clamped to zero

	catalog := payroll.NewCatalog(payroll.Concept{
		Code:            "GARNISH",
		Name:            "Wage garnishment",
		Type:            payroll.ConceptDeduction,
		CalculationType: payroll.CalcPercentage,
		DefaultRate:     money("150"),
		IsMandatory:     true,
		Active:          true,
	})
	calc := payroll.NewCalculator(catalog)

	result, err := calc.Calculate(
		payroll.Employee{ID: "emp-1", BaseSalary: money("1000000")},
		january2026(t), standardWorked(), nil,
	)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if !result.NetSalary.IsNegative() {
		t.Fatalf("fixture should produce negative net, got %s", result.NetSalary)
	}

	record := payroll.NewPayroll("emp-1", "2026-01", workflowClock)
	record, err = record.WithCalculation(result, standardWorked(), workflowClock)
	if err != nil {
		t.Fatalf("with calculation: %v", err)
	}

	_, err = record.Approve("manager-1", workflowClock)
	if !errors.Is(err, payroll.ErrNegativeNet) {
		t.Fatalf("expected ErrNegativeNet, got %v", err)
	}
}

// =============================================================================
// REOPEN
// =============================================================================

func TestWorkflow_ReopenRestoresMutability(t *testing.T) {
	record := calculatedPayroll(t)
	record, err := record.Approve("manager-1", workflowClock)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	record, err = record.Reopen("admin-1", workflowClock)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if record.Status != payroll.PayrollCalculated {
		t.Fatalf("expected calculated after reopen, got %s", record.Status)
	}
	if record.ApprovedBy != "" || record.ApprovedAt != nil {
		t.Error("reopen should clear approval stamps")
	}
	if record.ReopenedBy != "admin-1" || record.ReopenedAt == nil {
		t.Error("reopen should stamp the acting admin")
	}
	if !record.IsMutable() {
		t.Error("reopened payroll should accept recalculation")
	}
}

func TestWorkflow_ReopenOnlyFromApproved(t *testing.T) {
	record := calculatedPayroll(t)

	if _, err := record.Reopen("admin-1", workflowClock); !errors.Is(err, payroll.ErrInvalidTransition) {
		t.Errorf("reopen from calculated: expected ErrInvalidTransition, got %v", err)
	}
}

// =============================================================================
// RECALCULATION REPLACES LINE ITEMS
// =============================================================================

func TestWorkflow_RecalculationReplacesLineItems(t *testing.T) {
	// GIVEN: A calculated payroll with a transport benefit
	// WHEN: Recalculating without the benefit
	// THEN: The old earning item is gone, not accumulated alongside new items

	record := calculatedPayroll(t)
	before := len(record.LineItems)

	calc := payroll.NewCalculator(payroll.DefaultCatalog())
	result, err := calc.Calculate(
		payroll.Employee{ID: "emp-1", BaseSalary: money("2500000")},
		january2026(t), standardWorked(), nil, // benefit removed
	)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	record, err = record.WithCalculation(result, standardWorked(), workflowClock)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	if len(record.LineItems) >= before {
		t.Errorf("expected fewer items after removing benefit: before=%d after=%d",
			before, len(record.LineItems))
	}
	for _, item := range record.LineItems {
		if item.ConceptCode == "TRANSPORT" {
			t.Error("stale TRANSPORT item survived recalculation")
		}
	}
	if err := payroll.VerifyTotals(record); err != nil {
		t.Errorf("totals inconsistent after recalculation: %v", err)
	}
}

// =============================================================================
// WORKED INPUT SNAPSHOT
// =============================================================================

func TestWorkflow_CalculationSnapshotsWorkedInput(t *testing.T) {
	record := payroll.NewPayroll("emp-1", "2026-01", workflowClock)

	calc := payroll.NewCalculator(payroll.DefaultCatalog())
	worked := payroll.WorkedInput{
		WorkedDays:    decimal.NewFromInt(28),
		WorkedHours:   decimal.NewFromInt(224),
		OvertimeHours: decimal.NewFromInt(6),
	}
	result, err := calc.Calculate(
		payroll.Employee{ID: "emp-1", BaseSalary: money("2500000")},
		january2026(t), worked, nil,
	)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	record, err = record.WithCalculation(result, worked, workflowClock)
	if err != nil {
		t.Fatalf("with calculation: %v", err)
	}

	if !record.WorkedDays.Equal(decimal.NewFromInt(28)) ||
		!record.OvertimeHours.Equal(decimal.NewFromInt(6)) {
		t.Errorf("worked input not snapshotted: days=%s overtime=%s",
			record.WorkedDays, record.OvertimeHours)
	}
	if record.CalculatedAt == nil {
		t.Error("calculation timestamp not stamped")
	}
}
