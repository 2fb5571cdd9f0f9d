package payroll_test

import (
	"errors"
	"testing"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// FOLD TESTS
// =============================================================================

func fixtureItems() []payroll.LineItem {
	return []payroll.LineItem{
		{ConceptCode: "TRANSPORT", ConceptType: payroll.ConceptEarning, Amount: money("140606")},
		{ConceptCode: "HEALTH", ConceptType: payroll.ConceptDeduction, Amount: money("105624.24")},
		{ConceptCode: "PENSION", ConceptType: payroll.ConceptDeduction, Amount: money("105624.24")},
		{ConceptCode: "SOLIDARITY", ConceptType: payroll.ConceptTax, Amount: money("26406.06")},
	}
}

func TestAggregate_FoldsByConceptType(t *testing.T) {
	totals := payroll.Aggregate(money("2500000"), money("0"), fixtureItems())

	if !totals.TotalEarnings.Equal(money("140606")) {
		t.Errorf("earnings: expected 140606, got %s", totals.TotalEarnings)
	}
	if !totals.GrossSalary.Equal(money("2640606")) {
		t.Errorf("gross: expected 2640606, got %s", totals.GrossSalary)
	}
	if !totals.TotalDeductions.Equal(money("211248.48")) {
		t.Errorf("deductions: expected 211248.48, got %s", totals.TotalDeductions)
	}
	if !totals.TotalTaxes.Equal(money("26406.06")) {
		t.Errorf("taxes: expected 26406.06, got %s", totals.TotalTaxes)
	}
	if !totals.NetSalary.Equal(money("2402951.46")) {
		t.Errorf("net: expected 2402951.46, got %s", totals.NetSalary)
	}
}

func TestAggregate_OvertimeEntersGross(t *testing.T) {
	totals := payroll.Aggregate(money("2400000"), money("125000"), nil)

	if !totals.GrossSalary.Equal(money("2525000")) {
		t.Errorf("gross: expected 2525000, got %s", totals.GrossSalary)
	}
	if !totals.NetSalary.Equal(totals.GrossSalary) {
		t.Errorf("no items: net should equal gross, got %s", totals.NetSalary)
	}
}

func TestAggregate_EmptyItems(t *testing.T) {
	totals := payroll.Aggregate(money("1000000"), money("0"), nil)

	if !totals.TotalEarnings.IsZero() || !totals.TotalDeductions.IsZero() || !totals.TotalTaxes.IsZero() {
		t.Error("expected zero earnings/deductions/taxes for empty item set")
	}
	if !totals.GrossSalary.Equal(money("1000000")) {
		t.Errorf("gross: expected base salary, got %s", totals.GrossSalary)
	}
}

// =============================================================================
// AUDIT VERIFICATION
// =============================================================================

func TestVerifyTotals_AcceptsConsistentRecord(t *testing.T) {
	totals := payroll.Aggregate(money("2500000"), money("0"), fixtureItems())
	record := payroll.Payroll{
		ID:              "pay-emp-1-2026-01",
		BaseSalary:      money("2500000"),
		LineItems:       fixtureItems(),
		TotalEarnings:   totals.TotalEarnings,
		GrossSalary:     totals.GrossSalary,
		TotalDeductions: totals.TotalDeductions,
		TotalTaxes:      totals.TotalTaxes,
		NetSalary:       totals.NetSalary,
	}

	if err := payroll.VerifyTotals(record); err != nil {
		t.Errorf("expected consistent record to verify, got %v", err)
	}
}

func TestVerifyTotals_DetectsTamperedTotal(t *testing.T) {
	// GIVEN: A record whose stored net disagrees with its line items
	// WHEN: Verifying
	// THEN: A TotalsMismatchError names the diverging field

	totals := payroll.Aggregate(money("2500000"), money("0"), fixtureItems())
	record := payroll.Payroll{
		ID:              "pay-emp-1-2026-01",
		BaseSalary:      money("2500000"),
		LineItems:       fixtureItems(),
		TotalEarnings:   totals.TotalEarnings,
		GrossSalary:     totals.GrossSalary,
		TotalDeductions: totals.TotalDeductions,
		TotalTaxes:      totals.TotalTaxes,
		NetSalary:       totals.NetSalary.Add(money("1")),
	}

	err := payroll.VerifyTotals(record)
	if !errors.Is(err, payroll.ErrTotalsMismatch) {
		t.Fatalf("expected ErrTotalsMismatch, got %v", err)
	}

	var mismatch *payroll.TotalsMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected TotalsMismatchError, got %T", err)
	}
	if mismatch.Field != "netSalary" {
		t.Errorf("expected netSalary field, got %s", mismatch.Field)
	}
}
