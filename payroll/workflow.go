/*
workflow.go - Payroll record and lifecycle state machine

PURPOSE:
  Governs a single payroll's lifecycle:

      draft -> calculated -> approved -> processed -> paid
                    |
                    +-> rejected (terminal, carries a reason)

  Status only moves forward within the normal flow. Any backward move is
  the explicit, separately authorized reopen, not part of the ordinary
  contract. A rejected payroll is recreated, never resurrected.

TRANSITIONS:
  draft -> calculated      only after a successful calculator run; stamps
                           the calculation timestamp
  calculated -> approved   requires totals present and non-negative net;
                           stamps approver identity + timestamp. A negative
                           net is a blocking error (misconfigured concept
                           set), surfaced for human review, never clamped.
  calculated -> rejected   requires a reason; terminal
  approved -> processed    administrative stamp only, no recomputation
  processed -> paid        administrative stamp only
  approved -> calculated   explicit Reopen with an actor, outside the
                           forward-only table

  From approved onward the line items are frozen; recalculation is refused
  with a conflict error unless the reopen path is used first.

DESIGN:
  The record is a value; every transition returns a new state and leaves
  the receiver untouched. Persistence is a separate adapter, not a method
  on the entity.

SEE ALSO:
  - service.go: Orchestrates transitions against the stores
  - period.go: Period-level gating over contained payrolls
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYROLL STATUS
// =============================================================================

type PayrollStatus string

const (
	PayrollDraft      PayrollStatus = "draft"
	PayrollCalculated PayrollStatus = "calculated"
	PayrollApproved   PayrollStatus = "approved"
	PayrollProcessed  PayrollStatus = "processed"
	PayrollPaid       PayrollStatus = "paid"
	PayrollRejected   PayrollStatus = "rejected"
)

// =============================================================================
// PAYROLL - One employee's computed record within one period
// =============================================================================

type Payroll struct {
	ID         PayrollID
	EmployeeID EmployeeID
	PeriodID   PeriodID

	// Snapshots taken at calculation time.
	BaseSalary     Money
	WorkedDays     decimal.Decimal
	WorkedHours    decimal.Decimal
	OvertimeHours  decimal.Decimal
	OvertimeAmount Money

	// Derived totals, persisted in the same atomic write as LineItems.
	TotalEarnings   Money
	GrossSalary     Money
	TotalDeductions Money
	TotalTaxes      Money
	NetSalary       Money

	LineItems []LineItem

	Status PayrollStatus

	// Lifecycle stamps.
	CreatedAt       time.Time
	CalculatedAt    *time.Time
	ApprovedAt      *time.Time
	ApprovedBy      string
	ProcessedAt     *time.Time
	PaidAt          *time.Time
	RejectedAt      *time.Time
	RejectionReason string
	ReopenedAt      *time.Time
	ReopenedBy      string
}

// NewPayroll creates a draft record for the (employee, period) pair.
func NewPayroll(employeeID EmployeeID, periodID PeriodID, at time.Time) Payroll {
	return Payroll{
		ID:         PayrollIDFor(employeeID, periodID),
		EmployeeID: employeeID,
		PeriodID:   periodID,
		Status:     PayrollDraft,
		CreatedAt:  at,
	}
}

// IsMutable reports whether line items may still be (re)computed.
func (p Payroll) IsMutable() bool {
	return p.Status == PayrollDraft || p.Status == PayrollCalculated
}

// IsFrozen reports whether the record is an immutable snapshot.
func (p Payroll) IsFrozen() bool {
	switch p.Status {
	case PayrollApproved, PayrollProcessed, PayrollPaid:
		return true
	}
	return false
}

// =============================================================================
// TRANSITIONS - Each returns a new state, never mutating the receiver
// =============================================================================

// WithCalculation applies a calculator result, replacing all prior line
// items atomically and stamping the calculation time. Allowed any number of
// times while in draft or calculated.
func (p Payroll) WithCalculation(result *CalculationResult, worked WorkedInput, at time.Time) (Payroll, error) {
	if p.Status == PayrollRejected {
		return p, &TransitionError{PayrollID: p.ID, From: p.Status, To: PayrollCalculated}
	}
	if !p.IsMutable() {
		return p, &FrozenPayrollError{PayrollID: p.ID, Status: p.Status}
	}

	p.BaseSalary = result.BaseSalary
	p.WorkedDays = worked.WorkedDays
	p.WorkedHours = worked.WorkedHours
	p.OvertimeHours = worked.OvertimeHours
	p.OvertimeAmount = result.OvertimeAmount

	p.LineItems = append([]LineItem(nil), result.LineItems...)

	totals := Aggregate(p.BaseSalary, p.OvertimeAmount, p.LineItems)
	p.TotalEarnings = totals.TotalEarnings
	p.GrossSalary = totals.GrossSalary
	p.TotalDeductions = totals.TotalDeductions
	p.TotalTaxes = totals.TotalTaxes
	p.NetSalary = totals.NetSalary

	p.Status = PayrollCalculated
	p.CalculatedAt = &at
	return p, nil
}

// Approve moves calculated -> approved, stamping the approver. A negative
// net salary blocks approval; it signals a misconfigured concept set and
// must be surfaced, not silently corrected.
func (p Payroll) Approve(approverID string, at time.Time) (Payroll, error) {
	if p.Status != PayrollCalculated {
		return p, &TransitionError{PayrollID: p.ID, From: p.Status, To: PayrollApproved}
	}
	if p.CalculatedAt == nil {
		return p, &TransitionError{PayrollID: p.ID, From: p.Status, To: PayrollApproved}
	}
	if p.NetSalary.IsNegative() {
		return p, &NegativeNetError{PayrollID: p.ID, NetSalary: p.NetSalary}
	}
	p.Status = PayrollApproved
	p.ApprovedBy = approverID
	p.ApprovedAt = &at
	return p, nil
}

// Reject moves calculated -> rejected. Terminal: a rejected payroll must be
// recreated, not resurrected.
func (p Payroll) Reject(reason string, at time.Time) (Payroll, error) {
	if p.Status != PayrollCalculated {
		return p, &TransitionError{PayrollID: p.ID, From: p.Status, To: PayrollRejected}
	}
	if reason == "" {
		return p, ErrRejectionReasonRequired
	}
	p.Status = PayrollRejected
	p.RejectionReason = reason
	p.RejectedAt = &at
	return p, nil
}

// MarkProcessed moves approved -> processed. Administrative stamp only.
func (p Payroll) MarkProcessed(at time.Time) (Payroll, error) {
	if p.Status != PayrollApproved {
		return p, &TransitionError{PayrollID: p.ID, From: p.Status, To: PayrollProcessed}
	}
	p.Status = PayrollProcessed
	p.ProcessedAt = &at
	return p, nil
}

// MarkPaid moves processed -> paid. Administrative stamp only.
func (p Payroll) MarkPaid(at time.Time) (Payroll, error) {
	if p.Status != PayrollProcessed {
		return p, &TransitionError{PayrollID: p.ID, From: p.Status, To: PayrollPaid}
	}
	p.Status = PayrollPaid
	p.PaidAt = &at
	return p, nil
}

// Reopen moves approved -> calculated. This is the explicit administrative
// escape hatch, requiring an actor, and deliberately not part of the
// forward-only table.
func (p Payroll) Reopen(actorID string, at time.Time) (Payroll, error) {
	if p.Status != PayrollApproved {
		return p, &TransitionError{PayrollID: p.ID, From: p.Status, To: PayrollCalculated}
	}
	p.Status = PayrollCalculated
	p.ApprovedBy = ""
	p.ApprovedAt = nil
	p.ReopenedBy = actorID
	p.ReopenedAt = &at
	return p, nil
}
