/*
aggregate.go - Folding line items into payroll totals

PURPOSE:
  A payroll's totals are a pure function of its line items plus the base
  salary and overtime snapshots. No independently stored total is trusted:
  any read path that needs strong consistency recomputes the fold, and
  audit tooling compares stored against derived values.

INVARIANT:
  grossSalary = baseSalary + overtimeAmount + sum(earning items)
  netSalary   = grossSalary - sum(deduction items) - sum(tax items)
  exact to 2 decimal places.

SEE ALSO:
  - calculator.go: Produces the line items being folded
  - store/: Persists totals in the same atomic write as the line items
*/
package payroll

import "github.com/shopspring/decimal"

// =============================================================================
// TOTALS - Summary fold over line items
// =============================================================================

type Totals struct {
	TotalEarnings   Money
	GrossSalary     Money
	TotalDeductions Money
	TotalTaxes      Money
	NetSalary       Money
}

// Aggregate folds line items grouped by concept type into the summary
// totals. Idempotent and recomputable from the line items alone (plus the
// base salary and overtime snapshots carried on the payroll record).
func Aggregate(baseSalary, overtimeAmount Money, items []LineItem) Totals {
	earnings := decimal.Zero
	deductions := decimal.Zero
	taxes := decimal.Zero

	for _, item := range items {
		switch item.ConceptType {
		case ConceptEarning:
			earnings = earnings.Add(item.Amount)
		case ConceptDeduction:
			deductions = deductions.Add(item.Amount)
		case ConceptTax:
			taxes = taxes.Add(item.Amount)
		}
	}

	gross := baseSalary.Add(overtimeAmount).Add(earnings)
	return Totals{
		TotalEarnings:   earnings,
		GrossSalary:     gross,
		TotalDeductions: deductions,
		TotalTaxes:      taxes,
		NetSalary:       gross.Sub(deductions).Sub(taxes),
	}
}

// VerifyTotals recomputes the fold and compares it against the totals
// stored on the payroll record. Returns a TotalsMismatchError naming the
// first diverging field. Used by audit-oriented read paths.
func VerifyTotals(p Payroll) error {
	derived := Aggregate(p.BaseSalary, p.OvertimeAmount, p.LineItems)

	checks := []struct {
		field   string
		stored  Money
		derived Money
	}{
		{"totalEarnings", p.TotalEarnings, derived.TotalEarnings},
		{"grossSalary", p.GrossSalary, derived.GrossSalary},
		{"totalDeductions", p.TotalDeductions, derived.TotalDeductions},
		{"totalTaxes", p.TotalTaxes, derived.TotalTaxes},
		{"netSalary", p.NetSalary, derived.NetSalary},
	}
	for _, check := range checks {
		if !check.stored.Equal(check.derived) {
			return &TotalsMismatchError{
				PayrollID: p.ID,
				Field:     check.field,
				Stored:    check.stored,
				Derived:   check.derived,
			}
		}
	}
	return nil
}
