/*
calculator.go - Per-employee payroll calculation

PURPOSE:
  For one employee and one period, produces the ordered line item set
  (earnings, then deductions, then taxes) and the resulting gross/net
  figures. Pure computation: inputs are already-fetched values, there are
  no suspension points, and running it twice with unchanged inputs yields
  identical output.

ALGORITHM:
  1. Start from the employee's base salary as the earning base.
  2. Compute overtime pay via the pluggable OvertimePolicy.
  3. Resolve effective benefit assignments; append each as an earning or
     deduction line item per its concept type. Benefit rates are a
     percentage of BASE salary.
  4. Apply mandatory catalog concepts not covered by an explicit
     assignment, computed against GROSS EARNINGS SO FAR (several statutory
     concepts express their base as gross, not raw base salary). Appended
     as deduction/tax line items.
  5. gross = base + overtime + sum(earning items)
     net   = gross - sum(deduction items) - sum(tax items)

  Earnings are fully resolved before any percentage deduction or tax runs;
  the ordering is part of the contract, not an implementation detail.

IDEMPOTENT RECALCULATION:
  A recalculation always fully replaces the prior line item set. Line items
  are emitted in a deterministic order (earnings, deductions, taxes; by
  concept code within each group).

SEE ALSO:
  - benefit.go: Effective assignment resolution
  - aggregate.go: Folding line items into stored totals
*/
package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// OVERTIME POLICY - Pluggable rate policy
// =============================================================================

// OvertimePolicy computes overtime pay from the monthly base salary and the
// overtime hours worked. The rate policy is a configurable input, not a
// hard-coded constant.
type OvertimePolicy func(baseSalary Money, overtimeHours decimal.Decimal) Money

var (
	monthlyHours       = decimal.NewFromInt(240)
	overtimeMultiplier = MustParseMoney("1.25")
)

// StandardOvertime derives an hourly rate from the monthly salary over 240
// hours and applies a 1.25 multiplier.
func StandardOvertime(baseSalary Money, overtimeHours decimal.Decimal) Money {
	hourly := baseSalary.Div(monthlyHours)
	return RoundMoney(hourly.Mul(overtimeMultiplier).Mul(overtimeHours))
}

// =============================================================================
// CALCULATION RESULT
// =============================================================================

// CalculationResult is the complete output of one payroll calculation.
// Totals here are derived exclusively by the aggregator fold.
type CalculationResult struct {
	BaseSalary     Money
	OvertimeAmount Money

	LineItems []LineItem

	TotalEarnings   Money
	GrossSalary     Money
	TotalDeductions Money
	TotalTaxes      Money
	NetSalary       Money
}

// =============================================================================
// PAYROLL CALCULATOR
// =============================================================================

type PayrollCalculator struct {
	Catalog  *ConceptCatalog
	Assigner *BenefitAssigner
	Overtime OvertimePolicy
}

func NewCalculator(catalog *ConceptCatalog) *PayrollCalculator {
	return &PayrollCalculator{
		Catalog:  catalog,
		Assigner: &BenefitAssigner{Catalog: catalog},
		Overtime: StandardOvertime,
	}
}

// Calculate runs the full algorithm for one employee and period. Benefit
// assignments are evaluated for effectiveness on the period's end date.
func (pc *PayrollCalculator) Calculate(
	employee Employee,
	period Period,
	worked WorkedInput,
	assignments []BenefitAssignment,
) (*CalculationResult, error) {
	if err := worked.Validate(); err != nil {
		return nil, err
	}

	// 1. Earning base.
	baseSalary := employee.BaseSalary

	// 2. Overtime pay.
	overtime := decimal.Zero
	if worked.OvertimeHours.IsPositive() {
		policy := pc.Overtime
		if policy == nil {
			policy = StandardOvertime
		}
		overtime = policy(baseSalary, worked.OvertimeHours)
	}

	// 3. Benefit assignments: earnings first, deductions and taxes held back
	// until gross is known-complete.
	var earnings, deductions, taxes []LineItem
	covered := make(map[ConceptCode]bool)

	for _, benefit := range pc.Assigner.Resolve(assignments, period.EndDate) {
		item := benefitLineItem(benefit, baseSalary)
		covered[benefit.Concept.Code] = true
		switch benefit.Concept.Type {
		case ConceptEarning:
			earnings = append(earnings, item)
		case ConceptDeduction:
			deductions = append(deductions, item)
		case ConceptTax:
			taxes = append(taxes, item)
		}
	}

	// 5 (partial). Gross must be final before gross-based concepts run.
	totalEarnings := sumAmounts(earnings)
	gross := baseSalary.Add(overtime).Add(totalEarnings)

	// 4. Mandatory catalog concepts not covered by an explicit assignment,
	// computed against gross earnings so far.
	active := true
	for _, concept := range pc.Catalog.List(ConceptFilter{Active: &active, MandatoryOnly: true}) {
		if covered[concept.Code] || concept.Type == ConceptEarning {
			continue
		}
		item := LineItem{
			ConceptCode: concept.Code,
			ConceptName: concept.Name,
			ConceptType: concept.Type,
			BaseAmount:  gross,
			Rate:        concept.DefaultRate,
			Quantity:    decimal.NewFromInt(1),
		}
		item.Amount = concept.CalculateAmount(item.BaseAmount, item.Rate, item.Quantity)
		if concept.Type == ConceptTax {
			taxes = append(taxes, item)
		} else {
			deductions = append(deductions, item)
		}
	}

	lineItems := make([]LineItem, 0, len(earnings)+len(deductions)+len(taxes))
	lineItems = append(lineItems, earnings...)
	lineItems = append(lineItems, deductions...)
	lineItems = append(lineItems, taxes...)

	totalDeductions := sumAmounts(deductions)
	totalTaxes := sumAmounts(taxes)

	return &CalculationResult{
		BaseSalary:      baseSalary,
		OvertimeAmount:  overtime,
		LineItems:       lineItems,
		TotalEarnings:   totalEarnings,
		GrossSalary:     gross,
		TotalDeductions: totalDeductions,
		TotalTaxes:      totalTaxes,
		NetSalary:       gross.Sub(totalDeductions).Sub(totalTaxes),
	}, nil
}

// benefitLineItem computes one assignment's contribution. A non-zero fixed
// Amount on the assignment overrides the concept's default value; otherwise
// the assignment's rate (falling back to the concept default) drives the
// concept's own strategy. Clamp and rounding always come from the concept.
func benefitLineItem(benefit EffectiveBenefit, baseSalary Money) LineItem {
	concept := benefit.Concept

	rate := benefit.Assignment.Rate
	if rate.IsZero() {
		rate = concept.DefaultRate
	}

	if !benefit.Assignment.Amount.IsZero() {
		concept.CalculationType = CalcFixed
		concept.DefaultValue = benefit.Assignment.Amount
	}

	item := LineItem{
		ConceptCode: concept.Code,
		ConceptName: concept.Name,
		ConceptType: concept.Type,
		BaseAmount:  baseSalary,
		Rate:        rate,
		Quantity:    benefit.Quantity,
	}
	item.Amount = concept.CalculateAmount(item.BaseAmount, item.Rate, item.Quantity)
	return item
}

func sumAmounts(items []LineItem) Money {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}
