/*
benefit.go - Recurring per-employee benefit assignments

PURPOSE:
  A BenefitAssignment links an employee to a Concept with its own amount or
  rate and an effective window. Assignments are owned by the employee and
  maintained by HR tooling; the calculator treats them as read-only input
  and never mutates them.

EFFECTIVE SELECTION:
  An assignment applies on date d when effectiveDate <= d, endDate is unset
  or endDate >= d, and active is true.

FREQUENCY NORMALIZATION:
  Non-monthly frequencies are normalized to a monthly-equivalent
  contribution: weekly x 4.33, biweekly x 2.17, anything else x 1.
  KNOWN APPROXIMATION: these multipliers approximate average weeks per
  month; they are not exact calendar arithmetic. The source system uses the
  same factors, and reproducing them keeps historical figures comparable.

SEE ALSO:
  - concept.go: The Concept each assignment instantiates
  - calculator.go: Consumes resolved assignments per payroll run
*/
package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BENEFIT ASSIGNMENT - Employee-specific concept instantiation
// =============================================================================

type BenefitAssignment struct {
	ID          string
	EmployeeID  EmployeeID
	ConceptCode ConceptCode

	// Either a fixed Amount or a Rate (percentage of base salary). When
	// Amount is non-zero it wins; otherwise Rate drives the calculation.
	Amount Money
	Rate   Money

	Frequency     Frequency
	EffectiveDate Date
	EndDate       *Date
	Active        bool
}

// AppliesOn reports whether the assignment is effective on the given date.
func (b BenefitAssignment) AppliesOn(date Date) bool {
	if !b.Active {
		return false
	}
	if date.Before(b.EffectiveDate) {
		return false
	}
	if b.EndDate != nil && b.EndDate.Before(date) {
		return false
	}
	return true
}

// =============================================================================
// FREQUENCY NORMALIZATION
// =============================================================================

var (
	weeklyFactor   = MustParseMoney("4.33")
	biweeklyFactor = MustParseMoney("2.17")
)

// MonthlyFactor returns the monthly-equivalent multiplier for a frequency.
func MonthlyFactor(frequency Frequency) decimal.Decimal {
	switch frequency {
	case FrequencyWeekly:
		return weeklyFactor
	case FrequencyBiweekly:
		return biweeklyFactor
	default:
		return decimal.NewFromInt(1)
	}
}

// =============================================================================
// BENEFIT ASSIGNER - Resolves effective assignments for a date
// =============================================================================

// EffectiveBenefit is an assignment resolved against its concept, with the
// frequency already folded into a monthly-equivalent quantity.
type EffectiveBenefit struct {
	Assignment BenefitAssignment
	Concept    Concept

	// Quantity carries the monthly-equivalent factor into the concept
	// calculation (weekly assignments contribute 4.33 units, etc.).
	Quantity Money
}

// BenefitAssigner selects the benefit assignments effective for an employee
// on an evaluation date and resolves their concepts from the catalog.
type BenefitAssigner struct {
	Catalog *ConceptCatalog
}

// Resolve returns the effective benefits for the employee on the date,
// ordered by concept code for deterministic line item output. Assignments
// referencing unknown or inactive concepts are skipped.
func (ba *BenefitAssigner) Resolve(assignments []BenefitAssignment, date Date) []EffectiveBenefit {
	var effective []EffectiveBenefit
	for _, assignment := range assignments {
		if !assignment.AppliesOn(date) {
			continue
		}
		concept, err := ba.Catalog.Get(assignment.ConceptCode)
		if err != nil || !concept.Active {
			continue
		}
		effective = append(effective, EffectiveBenefit{
			Assignment: assignment,
			Concept:    concept,
			Quantity:   MonthlyFactor(assignment.Frequency),
		})
	}
	sort.Slice(effective, func(i, j int) bool {
		return effective[i].Concept.Code < effective[j].Concept.Code
	})
	return effective
}
