/*
store.go - Persistence interfaces for the payroll engine

PURPOSE:
  Defines the interface between the domain logic and the database. The
  engine is persistence-agnostic; implementations exist for SQLite
  (production) and in-memory (tests/dev).

ATOMICITY CONTRACT:
  SavePayroll persists the payroll record AND its full line item set as one
  atomic unit, all-or-nothing, replacing any prior line items. A reader
  must never observe totals inconsistent with line items, and a torn
  line-item replacement is never acceptable.

UNIQUENESS CONTRACT:
  CreatePayroll enforces at most one payroll per (employee, period) pair
  under the implementation's exclusive-access discipline (SQL transaction +
  unique index, or a store-wide mutex). A duplicate creation attempt
  returns DuplicatePayrollError and leaves the original unmodified.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go:  Production SQLite
  - payroll/store/memory.go: In-memory for testing

SEE ALSO:
  - service.go: The only consumer of these interfaces
*/
package payroll

import "context"

// =============================================================================
// STORE INTERFACES
// =============================================================================

// PayrollStore persists payroll records with their line items.
type PayrollStore interface {
	// CreatePayroll inserts a new record, enforcing (employee, period)
	// uniqueness. Returns DuplicatePayrollError if one already exists.
	CreatePayroll(ctx context.Context, p Payroll) error

	// SavePayroll replaces the record and its complete line item set
	// atomically.
	SavePayroll(ctx context.Context, p Payroll) error

	// GetPayroll loads a record with its line items.
	GetPayroll(ctx context.Context, id PayrollID) (Payroll, error)

	// GetPayrollByEmployeeAndPeriod loads the unique record for the pair.
	GetPayrollByEmployeeAndPeriod(ctx context.Context, employeeID EmployeeID, periodID PeriodID) (Payroll, error)

	// ListPayrollsByPeriod returns all records under a period, ordered by
	// employee ID.
	ListPayrollsByPeriod(ctx context.Context, periodID PeriodID) ([]Payroll, error)
}

// PeriodStore persists periods.
type PeriodStore interface {
	SavePeriod(ctx context.Context, p Period) error
	GetPeriod(ctx context.Context, id PeriodID) (Period, error)
	ListPeriods(ctx context.Context) ([]Period, error)
}

// EmployeeStore provides the read-only employee identity + base salary
// input. The employee master lives elsewhere; this is the projection the
// engine consumes.
type EmployeeStore interface {
	SaveEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id EmployeeID) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
}

// BenefitStore provides the read-only benefit assignment input.
type BenefitStore interface {
	SaveBenefit(ctx context.Context, b BenefitAssignment) error
	ListBenefitsByEmployee(ctx context.Context, employeeID EmployeeID) ([]BenefitAssignment, error)
}

// Store aggregates everything the service needs.
type Store interface {
	PayrollStore
	PeriodStore
	EmployeeStore
	BenefitStore
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support. Status-gating checks and
// the uniqueness constraint are enforced under WithTx so two concurrent
// calculation requests cannot create duplicates or mutate a frozen record.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back; otherwise it is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
