/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Adapters (HTTP, stores) map these to their own status codes.

ERROR CATEGORIES:
  1. Validation errors - bad input shape, rejected before calculation
  2. Domain conflicts  - duplicate payroll, frozen record, closed period,
                         illegal workflow transition
  3. Invariant violations - negative net at approval, totals mismatch

PROPAGATION POLICY:
  Concept-level formula failures are contained (zero contribution + audit
  log) and never surface here. Payroll- and period-level conflicts are
  returned to the caller with the constraint and the IDs involved. Nothing
  in this engine retries automatically.

USAGE:
  if payroll.IsConflict(err) {
      // 409 for HTTP adapters
  }

SEE ALSO:
  - service.go: Raises conflict errors
  - workflow.go: Raises transition errors
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicatePayroll is returned when a payroll already exists for the
	// (employee, period) pair. The original record is left unmodified.
	ErrDuplicatePayroll = errors.New("payroll already exists for employee and period")

	// ErrPayrollFrozen is returned on any mutation attempt against a payroll
	// in approved or a later state. Recalculation requires an explicit reopen.
	ErrPayrollFrozen = errors.New("payroll is frozen")

	// ErrPeriodClosed is returned when creating or mutating a payroll under a
	// closed period.
	ErrPeriodClosed = errors.New("period is closed")

	// ErrInvalidTransition is returned for any workflow move outside the
	// forward-only tables.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNegativeNet is returned at approval time when netSalary < 0. This
	// signals a misconfigured concept set and requires human review.
	ErrNegativeNet = errors.New("net salary is negative")

	// ErrConceptNotFound is returned when a referenced concept doesn't exist.
	ErrConceptNotFound = errors.New("concept not found")

	// ErrPayrollNotFound is returned when a referenced payroll doesn't exist.
	ErrPayrollNotFound = errors.New("payroll not found")

	// ErrPeriodNotFound is returned when a referenced period doesn't exist.
	ErrPeriodNotFound = errors.New("period not found")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrTotalsMismatch is returned by audit verification when stored totals
	// disagree with the fold over line items.
	ErrTotalsMismatch = errors.New("stored totals do not match line items")

	// ErrRejectionReasonRequired is returned when rejecting without a reason.
	ErrRejectionReasonRequired = errors.New("rejection requires a reason")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicatePayrollError identifies the existing record blocking creation.
type DuplicatePayrollError struct {
	EmployeeID EmployeeID
	PeriodID   PeriodID
	ExistingID PayrollID
}

func (e *DuplicatePayrollError) Error() string {
	return fmt.Sprintf("payroll %s already exists for employee %s in period %s",
		e.ExistingID, e.EmployeeID, e.PeriodID)
}

func (e *DuplicatePayrollError) Unwrap() error { return ErrDuplicatePayroll }

// TransitionError describes an illegal workflow move.
type TransitionError struct {
	PayrollID PayrollID
	From      PayrollStatus
	To        PayrollStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("payroll %s: cannot transition from %s to %s", e.PayrollID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// FrozenPayrollError reports a mutation attempt against a finalized record.
type FrozenPayrollError struct {
	PayrollID PayrollID
	Status    PayrollStatus
}

func (e *FrozenPayrollError) Error() string {
	return fmt.Sprintf("payroll %s is frozen in status %s", e.PayrollID, e.Status)
}

func (e *FrozenPayrollError) Unwrap() error { return ErrPayrollFrozen }

// ClosedPeriodError reports an operation against a closed period.
type ClosedPeriodError struct {
	PeriodID PeriodID
}

func (e *ClosedPeriodError) Error() string {
	return fmt.Sprintf("period %s is closed", e.PeriodID)
}

func (e *ClosedPeriodError) Unwrap() error { return ErrPeriodClosed }

// NegativeNetError blocks approval when the computed net is negative.
type NegativeNetError struct {
	PayrollID PayrollID
	NetSalary Money
}

func (e *NegativeNetError) Error() string {
	return fmt.Sprintf("payroll %s has negative net salary %s; review concept configuration",
		e.PayrollID, e.NetSalary.StringFixed(2))
}

func (e *NegativeNetError) Unwrap() error { return ErrNegativeNet }

// TotalsMismatchError reports which stored total diverged during an audit read.
type TotalsMismatchError struct {
	PayrollID PayrollID
	Field     string
	Stored    Money
	Derived   Money
}

func (e *TotalsMismatchError) Error() string {
	return fmt.Sprintf("payroll %s: stored %s=%s but line items derive %s",
		e.PayrollID, e.Field, e.Stored.StringFixed(2), e.Derived.StringFixed(2))
}

func (e *TotalsMismatchError) Unwrap() error { return ErrTotalsMismatch }

// ValidationErrorDetail rejects malformed input before calculation runs.
type ValidationErrorDetail struct {
	Code    string
	Message string
}

func (e *ValidationErrorDetail) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConflict returns true for domain conflicts the caller must resolve.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicatePayroll) ||
		errors.Is(err, ErrPayrollFrozen) ||
		errors.Is(err, ErrPeriodClosed) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrNegativeNet)
}

// IsValidation returns true if the error is due to invalid client input.
func IsValidation(err error) bool {
	var v *ValidationErrorDetail
	return errors.As(err, &v) || errors.Is(err, ErrRejectionReasonRequired)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrConceptNotFound) ||
		errors.Is(err, ErrPayrollNotFound) ||
		errors.Is(err, ErrPeriodNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}
