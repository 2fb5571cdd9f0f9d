package payroll_test

import (
	"testing"
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// EFFECTIVE WINDOW TESTS
// =============================================================================

func TestBenefitAssignment_AppliesOnWindowBoundaries(t *testing.T) {
	end := payroll.NewDate(2026, time.March, 31)
	assignment := payroll.BenefitAssignment{
		ID:            "b-1",
		EmployeeID:    "emp-1",
		ConceptCode:   "TRANSPORT",
		EffectiveDate: payroll.NewDate(2026, time.January, 1),
		EndDate:       &end,
		Active:        true,
	}

	cases := []struct {
		date payroll.Date
		want bool
	}{
		{payroll.NewDate(2025, time.December, 31), false}, // before effective
		{payroll.NewDate(2026, time.January, 1), true},    // effective date inclusive
		{payroll.NewDate(2026, time.February, 15), true},
		{payroll.NewDate(2026, time.March, 31), true}, // end date inclusive
		{payroll.NewDate(2026, time.April, 1), false}, // past end
	}
	for _, tc := range cases {
		if got := assignment.AppliesOn(tc.date); got != tc.want {
			t.Errorf("AppliesOn(%s) = %v, want %v", tc.date, got, tc.want)
		}
	}
}

func TestBenefitAssignment_InactiveNeverApplies(t *testing.T) {
	assignment := payroll.BenefitAssignment{
		ID:            "b-1",
		ConceptCode:   "TRANSPORT",
		EffectiveDate: payroll.NewDate(2026, time.January, 1),
		Active:        false,
	}

	if assignment.AppliesOn(payroll.NewDate(2026, time.June, 1)) {
		t.Error("inactive assignment must not apply")
	}
}

func TestBenefitAssignment_OpenEndedApplies(t *testing.T) {
	assignment := payroll.BenefitAssignment{
		ID:            "b-1",
		ConceptCode:   "TRANSPORT",
		EffectiveDate: payroll.NewDate(2026, time.January, 1),
		Active:        true,
	}

	if !assignment.AppliesOn(payroll.NewDate(2030, time.December, 31)) {
		t.Error("open-ended assignment should apply indefinitely")
	}
}

// =============================================================================
// FREQUENCY NORMALIZATION
// =============================================================================

func TestMonthlyFactor(t *testing.T) {
	cases := []struct {
		frequency payroll.Frequency
		want      string
	}{
		{payroll.FrequencyWeekly, "4.33"},
		{payroll.FrequencyBiweekly, "2.17"},
		{payroll.FrequencyMonthly, "1"},
		{payroll.Frequency("quarterly"), "1"}, // unknown falls through to 1
	}
	for _, tc := range cases {
		if got := payroll.MonthlyFactor(tc.frequency); !got.Equal(money(tc.want)) {
			t.Errorf("MonthlyFactor(%s) = %s, want %s", tc.frequency, got, tc.want)
		}
	}
}

// =============================================================================
// RESOLUTION TESTS
// =============================================================================

func TestBenefitAssigner_ResolveOrdersAndSkips(t *testing.T) {
	// GIVEN: Assignments out of code order, one expired, one referencing an
	//        unknown concept
	// WHEN: Resolving on the period end date
	// THEN: Only effective assignments with known active concepts survive,
	//       sorted by concept code

	catalog := payroll.DefaultCatalog()
	assigner := &payroll.BenefitAssigner{Catalog: catalog}

	expiredEnd := payroll.NewDate(2025, time.June, 30)
	assignments := []payroll.BenefitAssignment{
		{
			ID: "b-transport", ConceptCode: "TRANSPORT",
			EffectiveDate: payroll.NewDate(2026, time.January, 1),
			Frequency:     payroll.FrequencyMonthly, Active: true,
		},
		{
			ID: "b-health", ConceptCode: "HEALTH",
			EffectiveDate: payroll.NewDate(2026, time.January, 1),
			Frequency:     payroll.FrequencyMonthly, Active: true,
		},
		{
			ID: "b-expired", ConceptCode: "PENSION",
			EffectiveDate: payroll.NewDate(2025, time.January, 1),
			EndDate:       &expiredEnd,
			Frequency:     payroll.FrequencyMonthly, Active: true,
		},
		{
			ID: "b-unknown", ConceptCode: "GHOST",
			EffectiveDate: payroll.NewDate(2026, time.January, 1),
			Frequency:     payroll.FrequencyMonthly, Active: true,
		},
	}

	effective := assigner.Resolve(assignments, payroll.NewDate(2026, time.January, 31))

	if len(effective) != 2 {
		t.Fatalf("expected 2 effective benefits, got %d", len(effective))
	}
	if effective[0].Concept.Code != "HEALTH" || effective[1].Concept.Code != "TRANSPORT" {
		t.Errorf("expected [HEALTH TRANSPORT], got [%s %s]",
			effective[0].Concept.Code, effective[1].Concept.Code)
	}
}

func TestBenefitAssigner_QuantityCarriesFrequencyFactor(t *testing.T) {
	catalog := payroll.DefaultCatalog()
	assigner := &payroll.BenefitAssigner{Catalog: catalog}

	effective := assigner.Resolve([]payroll.BenefitAssignment{
		{
			ID: "b-weekly", ConceptCode: "TRANSPORT",
			EffectiveDate: payroll.NewDate(2026, time.January, 1),
			Frequency:     payroll.FrequencyWeekly, Active: true,
		},
	}, payroll.NewDate(2026, time.January, 31))

	if len(effective) != 1 {
		t.Fatalf("expected 1 effective benefit, got %d", len(effective))
	}
	if !effective[0].Quantity.Equal(money("4.33")) {
		t.Errorf("expected quantity 4.33, got %s", effective[0].Quantity)
	}
}
