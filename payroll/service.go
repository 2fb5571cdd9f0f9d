/*
service.go - The engine's operation surface

PURPOSE:
  Orchestrates calculation, persistence, and workflow transitions behind
  the operations collaborators call:

    CalculatePayroll        pure preview, no payroll record required
    CreateOrUpdatePayroll   persists a draft/calculated payroll
    ApprovePayroll / RejectPayroll / MarkProcessed / MarkPaid
    CreatePeriod / OpenPeriod / ClosePeriod / ReopenPeriod
    PeriodSummary
    ReopenPayroll           administrative escape hatch

GATING:
  Every mutating operation runs under the store's transaction so that the
  (employee, period) uniqueness constraint and the period/payroll status
  gates hold against concurrent callers. A closed period rejects creation,
  recalculation, and every workflow transition beneath it.

PROPAGATION:
  Conflicts surface immediately with the constraint and IDs involved.
  Nothing here retries: all operations are synchronous, deterministic, and
  idempotent by recomputation, so retries belong to the caller.

SEE ALSO:
  - calculator.go: The computation invoked here
  - store.go: Atomicity and uniqueness contracts relied upon
*/
package payroll

import (
	"context"
	"errors"
	"time"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Store      TxStore
	Calculator *PayrollCalculator

	// Clock is injectable for deterministic tests; defaults to time.Now.
	Clock func() time.Time
}

func NewService(store TxStore, calculator *PayrollCalculator) *Service {
	return &Service{Store: store, Calculator: calculator, Clock: time.Now}
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// =============================================================================
// CALCULATION OPERATIONS
// =============================================================================

// CalculatePayroll is a pure preview: it computes the full result without
// requiring or touching a payroll record.
func (s *Service) CalculatePayroll(
	ctx context.Context,
	employeeID EmployeeID,
	periodID PeriodID,
	worked WorkedInput,
) (*CalculationResult, error) {
	employee, err := s.Store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	period, err := s.Store.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	benefits, err := s.Store.ListBenefitsByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.Calculator.Calculate(employee, period, worked, benefits)
}

// CreateOrUpdatePayroll persists a draft/calculated payroll for the pair,
// creating the record if absent and otherwise replacing its line items.
// Rejected under a closed period; refused with a conflict when the existing
// record is frozen or rejected.
func (s *Service) CreateOrUpdatePayroll(
	ctx context.Context,
	employeeID EmployeeID,
	periodID PeriodID,
	worked WorkedInput,
) (Payroll, error) {
	var result Payroll
	err := s.Store.WithTx(ctx, func(store Store) error {
		period, err := store.GetPeriod(ctx, periodID)
		if err != nil {
			return err
		}
		if !period.IsOpen() {
			return &ClosedPeriodError{PeriodID: periodID}
		}

		employee, err := store.GetEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		benefits, err := store.ListBenefitsByEmployee(ctx, employeeID)
		if err != nil {
			return err
		}

		record, err := store.GetPayrollByEmployeeAndPeriod(ctx, employeeID, periodID)
		switch {
		case errors.Is(err, ErrPayrollNotFound):
			record = NewPayroll(employeeID, periodID, s.now())
			if err := store.CreatePayroll(ctx, record); err != nil {
				return err
			}
		case err != nil:
			return err
		}

		calc, err := s.Calculator.Calculate(employee, period, worked, benefits)
		if err != nil {
			return err
		}

		record, err = record.WithCalculation(calc, worked, s.now())
		if err != nil {
			return err
		}
		if err := store.SavePayroll(ctx, record); err != nil {
			return err
		}
		result = record
		return nil
	})
	return result, err
}

// =============================================================================
// WORKFLOW OPERATIONS
// =============================================================================

// ApprovePayroll moves calculated -> approved, stamping the approver.
func (s *Service) ApprovePayroll(ctx context.Context, payrollID PayrollID, approverID string) (Payroll, error) {
	return s.transition(ctx, payrollID, func(p Payroll) (Payroll, error) {
		return p.Approve(approverID, s.now())
	})
}

// RejectPayroll moves calculated -> rejected with a reason. Terminal.
func (s *Service) RejectPayroll(ctx context.Context, payrollID PayrollID, reason string) (Payroll, error) {
	return s.transition(ctx, payrollID, func(p Payroll) (Payroll, error) {
		return p.Reject(reason, s.now())
	})
}

// MarkProcessed moves approved -> processed.
func (s *Service) MarkProcessed(ctx context.Context, payrollID PayrollID) (Payroll, error) {
	return s.transition(ctx, payrollID, func(p Payroll) (Payroll, error) {
		return p.MarkProcessed(s.now())
	})
}

// MarkPaid moves processed -> paid.
func (s *Service) MarkPaid(ctx context.Context, payrollID PayrollID) (Payroll, error) {
	return s.transition(ctx, payrollID, func(p Payroll) (Payroll, error) {
		return p.MarkPaid(s.now())
	})
}

// ReopenPayroll moves approved -> calculated under an explicit actor.
// Administrative escape hatch, not part of the ordinary flow.
func (s *Service) ReopenPayroll(ctx context.Context, payrollID PayrollID, actorID string) (Payroll, error) {
	return s.transition(ctx, payrollID, func(p Payroll) (Payroll, error) {
		return p.Reopen(actorID, s.now())
	})
}

// transition applies fn to the payroll under the store transaction, first
// verifying the enclosing period still admits transitions.
func (s *Service) transition(
	ctx context.Context,
	payrollID PayrollID,
	fn func(Payroll) (Payroll, error),
) (Payroll, error) {
	var result Payroll
	err := s.Store.WithTx(ctx, func(store Store) error {
		record, err := store.GetPayroll(ctx, payrollID)
		if err != nil {
			return err
		}
		period, err := store.GetPeriod(ctx, record.PeriodID)
		if err != nil {
			return err
		}
		if !period.IsOpen() {
			return &ClosedPeriodError{PeriodID: period.ID}
		}
		record, err = fn(record)
		if err != nil {
			return err
		}
		if err := store.SavePayroll(ctx, record); err != nil {
			return err
		}
		result = record
		return nil
	})
	return result, err
}

// =============================================================================
// PERIOD OPERATIONS
// =============================================================================

// CreatePeriod registers a new draft period.
func (s *Service) CreatePeriod(ctx context.Context, id PeriodID, start, end, payDate Date) (Period, error) {
	period, err := NewPeriod(id, start, end, payDate, s.now())
	if err != nil {
		return Period{}, err
	}
	if err := s.Store.SavePeriod(ctx, period); err != nil {
		return Period{}, err
	}
	return period, nil
}

// OpenPeriod moves draft -> processing.
func (s *Service) OpenPeriod(ctx context.Context, id PeriodID) (Period, error) {
	return s.periodTransition(ctx, id, func(p Period) (Period, error) { return p.Open() })
}

// ClosePeriod moves processing -> closed, freezing all contained payrolls.
func (s *Service) ClosePeriod(ctx context.Context, id PeriodID) (Period, error) {
	return s.periodTransition(ctx, id, func(p Period) (Period, error) { return p.Close(s.now()) })
}

// ReopenPeriod moves closed -> processing. Explicit escape hatch.
func (s *Service) ReopenPeriod(ctx context.Context, id PeriodID) (Period, error) {
	return s.periodTransition(ctx, id, func(p Period) (Period, error) { return p.Reopen(s.now()) })
}

func (s *Service) periodTransition(
	ctx context.Context,
	id PeriodID,
	fn func(Period) (Period, error),
) (Period, error) {
	var result Period
	err := s.Store.WithTx(ctx, func(store Store) error {
		period, err := store.GetPeriod(ctx, id)
		if err != nil {
			return err
		}
		period, err = fn(period)
		if err != nil {
			return err
		}
		if err := store.SavePeriod(ctx, period); err != nil {
			return err
		}
		result = period
		return nil
	})
	return result, err
}

// PeriodSummary recomputes the rollup over the period's payrolls on demand.
// Stored rollups are never consulted.
func (s *Service) PeriodSummary(ctx context.Context, id PeriodID) (PeriodSummary, error) {
	period, err := s.Store.GetPeriod(ctx, id)
	if err != nil {
		return PeriodSummary{}, err
	}
	payrolls, err := s.Store.ListPayrollsByPeriod(ctx, id)
	if err != nil {
		return PeriodSummary{}, err
	}
	return Summarize(period, payrolls), nil
}
