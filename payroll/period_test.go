package payroll_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestPeriod_Lifecycle(t *testing.T) {
	// draft -> processing -> closed -> (reopen) -> processing
	period := january2026(t)
	if period.Status != payroll.PeriodDraft || !period.IsOpen() {
		t.Fatalf("new period should be open draft, got %s", period.Status)
	}

	period, err := period.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if period.Status != payroll.PeriodProcessing || !period.IsOpen() {
		t.Fatalf("expected open processing, got %s", period.Status)
	}

	period, err = period.Close(time.Now())
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if period.IsOpen() || period.ClosedAt == nil {
		t.Fatalf("expected closed with stamp, got %s", period.Status)
	}

	period, err = period.Reopen(time.Now())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !period.IsOpen() || period.ClosedAt != nil || period.ReopenedAt == nil {
		t.Errorf("expected reopened processing, got %s", period.Status)
	}
}

func TestPeriod_IllegalTransitions(t *testing.T) {
	period := january2026(t)

	// draft cannot close or reopen.
	if _, err := period.Close(time.Now()); err == nil {
		t.Error("closing a draft period should fail")
	}
	if _, err := period.Reopen(time.Now()); err == nil {
		t.Error("reopening a draft period should fail")
	}

	processing, err := period.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// processing cannot open again.
	if _, err := processing.Open(); err == nil {
		t.Error("opening a processing period should fail")
	}
}

func TestNewPeriod_RejectsInvertedWindow(t *testing.T) {
	_, err := payroll.NewPeriod(
		"bad",
		payroll.NewDate(2026, time.January, 31),
		payroll.NewDate(2026, time.January, 1),
		payroll.NewDate(2026, time.February, 5),
		time.Now(),
	)

	var v *payroll.ValidationErrorDetail
	if !errors.As(err, &v) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPeriod_Contains(t *testing.T) {
	period := january2026(t)

	cases := []struct {
		date payroll.Date
		want bool
	}{
		{payroll.NewDate(2025, time.December, 31), false},
		{payroll.NewDate(2026, time.January, 1), true},
		{payroll.NewDate(2026, time.January, 31), true},
		{payroll.NewDate(2026, time.February, 1), false},
	}
	for _, tc := range cases {
		if got := period.Contains(tc.date); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.date, got, tc.want)
		}
	}
}

// =============================================================================
// SUMMARY ROLLUP
// =============================================================================

func TestSummarize_FoldsPayrollsExcludingRejected(t *testing.T) {
	// GIVEN: Two calculated payrolls and one rejected payroll
	// WHEN: Summarizing the period
	// THEN: Rejected is excluded from both counts and money totals

	period := january2026(t)
	payrolls := []payroll.Payroll{
		{
			ID: "pay-1", Status: payroll.PayrollCalculated,
			GrossSalary: money("2640606"), TotalDeductions: money("211248.48"),
			TotalTaxes: money("0"), NetSalary: money("2429357.52"),
		},
		{
			ID: "pay-2", Status: payroll.PayrollApproved,
			GrossSalary: money("1500000"), TotalDeductions: money("120000"),
			TotalTaxes: money("15000"), NetSalary: money("1365000"),
		},
		{
			ID: "pay-3", Status: payroll.PayrollRejected,
			GrossSalary: money("9000000"), TotalDeductions: money("720000"),
			NetSalary: money("8280000"),
		},
	}

	summary := payroll.Summarize(period, payrolls)

	if summary.TotalEmployees != 2 {
		t.Errorf("expected 2 employees, got %d", summary.TotalEmployees)
	}
	if !summary.TotalGross.Equal(money("4140606")) {
		t.Errorf("gross: expected 4140606, got %s", summary.TotalGross)
	}
	// Deductions rollup includes taxes.
	if !summary.TotalDeductions.Equal(money("346248.48")) {
		t.Errorf("deductions: expected 346248.48, got %s", summary.TotalDeductions)
	}
	if !summary.TotalNet.Equal(money("3794357.52")) {
		t.Errorf("net: expected 3794357.52, got %s", summary.TotalNet)
	}
}

func TestSummarize_EmptyPeriod(t *testing.T) {
	summary := payroll.Summarize(january2026(t), nil)

	if summary.TotalEmployees != 0 {
		t.Errorf("expected 0 employees, got %d", summary.TotalEmployees)
	}
	if !summary.TotalGross.IsZero() || !summary.TotalNet.IsZero() {
		t.Error("expected zero totals for empty period")
	}
}
