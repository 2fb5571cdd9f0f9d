/*
Package sqlite provides a SQLite-backed implementation of the payroll
storage interfaces.

PURPOSE:
  Implements payroll.TxStore using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  periods:             Payroll period windows and status
  employees:           Identity + base salary projection
  benefit_assignments: Recurring per-employee benefit inputs
  payrolls:            One record per (employee, period), totals included
  payroll_lines:       Line items, replaced wholesale on recalculation

INVARIANT ENFORCEMENT:
  - UNIQUE(employee_id, period_id) on payrolls backs the one-payroll-per-
    pair constraint even if the application-level check is bypassed.
  - SavePayroll replaces the record and its full line item set inside one
    SQL transaction; a reader can never observe totals inconsistent with
    line items.
  - VerifyPayroll recomputes totals from stored lines and reports drift,
    for audit tooling that must not trust stored totals.

CONCURRENCY:
  Uses sync.Mutex around write paths plus WAL mode. WithTx holds the mutex
  for the duration, giving the exclusive-access discipline the uniqueness
  and status-gating checks require.

USAGE:
  st, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()
  svc := payroll.NewService(st, payroll.NewCalculator(catalog))

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool with versioned migrations.

SEE ALSO:
  - payroll/store.go: Interface definitions and contracts
  - payroll/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// Store implements payroll.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS periods (
		id TEXT PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		pay_date TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		closed_at TEXT,
		reopened_at TEXT
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		base_salary TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS benefit_assignments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		concept_code TEXT NOT NULL,
		amount TEXT NOT NULL,
		rate TEXT NOT NULL,
		frequency TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		end_date TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_benefits_employee
		ON benefit_assignments(employee_id);

	CREATE TABLE IF NOT EXISTS payrolls (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		period_id TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		worked_days TEXT NOT NULL,
		worked_hours TEXT NOT NULL,
		overtime_hours TEXT NOT NULL,
		overtime_amount TEXT NOT NULL,
		total_earnings TEXT NOT NULL,
		gross_salary TEXT NOT NULL,
		total_deductions TEXT NOT NULL,
		total_taxes TEXT NOT NULL,
		net_salary TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		calculated_at TEXT,
		approved_at TEXT,
		approved_by TEXT NOT NULL DEFAULT '',
		processed_at TEXT,
		paid_at TEXT,
		rejected_at TEXT,
		rejection_reason TEXT NOT NULL DEFAULT '',
		reopened_at TEXT,
		reopened_by TEXT NOT NULL DEFAULT ''
	);

	-- CRITICAL: one payroll per (employee, period). Backs the application
	-- check even if it is bypassed.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payrolls_employee_period
		ON payrolls(employee_id, period_id);

	CREATE INDEX IF NOT EXISTS idx_payrolls_period
		ON payrolls(period_id);
	CREATE INDEX IF NOT EXISTS idx_payrolls_status
		ON payrolls(status);

	CREATE TABLE IF NOT EXISTS payroll_lines (
		payroll_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		concept_code TEXT NOT NULL,
		concept_name TEXT NOT NULL,
		concept_type TEXT NOT NULL,
		base_amount TEXT NOT NULL,
		rate TEXT NOT NULL,
		quantity TEXT NOT NULL,
		amount TEXT NOT NULL,
		PRIMARY KEY (payroll_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_lines_payroll
		ON payroll_lines(payroll_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HELPERS - Value encoding
// =============================================================================

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface{ Scan(dest ...any) error }

func encodeTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeTime(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }

func decodeTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := decodeTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeDate(d payroll.Date) string { return d.String() }

func encodeDatePtr(d *payroll.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func decodeDate(s string) (payroll.Date, error) { return payroll.ParseDate(s) }

func decodeMoney(s string) (payroll.Money, error) { return decimal.NewFromString(s) }

// =============================================================================
// PERIOD STORE
// =============================================================================

func (s *Store) SavePeriod(ctx context.Context, p payroll.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePeriod(ctx, s.db, p)
}

func savePeriod(ctx context.Context, q queryer, p payroll.Period) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO periods (id, start_date, end_date, pay_date, status, created_at, closed_at, reopened_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			pay_date = excluded.pay_date,
			status = excluded.status,
			closed_at = excluded.closed_at,
			reopened_at = excluded.reopened_at`,
		string(p.ID), encodeDate(p.StartDate), encodeDate(p.EndDate), encodeDate(p.PayDate),
		string(p.Status), encodeTime(p.CreatedAt), encodeTimePtr(p.ClosedAt), encodeTimePtr(p.ReopenedAt))
	return err
}

func (s *Store) GetPeriod(ctx context.Context, id payroll.PeriodID) (payroll.Period, error) {
	return getPeriod(ctx, s.db, id)
}

func getPeriod(ctx context.Context, q queryer, id payroll.PeriodID) (payroll.Period, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, start_date, end_date, pay_date, status, created_at, closed_at, reopened_at
		FROM periods WHERE id = ?`, string(id))
	return scanPeriod(row)
}

func scanPeriod(row rowScanner) (payroll.Period, error) {
	var (
		p                        payroll.Period
		pid, start, end, pay, st string
		createdAt                string
		closedAt, reopenedAt     sql.NullString
	)
	err := row.Scan(&pid, &start, &end, &pay, &st, &createdAt, &closedAt, &reopenedAt)
	if err == sql.ErrNoRows {
		return payroll.Period{}, payroll.ErrPeriodNotFound
	}
	if err != nil {
		return payroll.Period{}, err
	}
	p.ID = payroll.PeriodID(pid)
	if p.StartDate, err = decodeDate(start); err != nil {
		return payroll.Period{}, err
	}
	if p.EndDate, err = decodeDate(end); err != nil {
		return payroll.Period{}, err
	}
	if p.PayDate, err = decodeDate(pay); err != nil {
		return payroll.Period{}, err
	}
	p.Status = payroll.PeriodStatus(st)
	if p.CreatedAt, err = decodeTime(createdAt); err != nil {
		return payroll.Period{}, err
	}
	if p.ClosedAt, err = decodeTimePtr(closedAt); err != nil {
		return payroll.Period{}, err
	}
	if p.ReopenedAt, err = decodeTimePtr(reopenedAt); err != nil {
		return payroll.Period{}, err
	}
	return p, nil
}

func (s *Store) ListPeriods(ctx context.Context) ([]payroll.Period, error) {
	return listPeriods(ctx, s.db)
}

func listPeriods(ctx context.Context, q queryer) ([]payroll.Period, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, start_date, end_date, pay_date, status, created_at, closed_at, reopened_at
		FROM periods ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []payroll.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, e payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveEmployee(ctx, s.db, e)
}

func saveEmployee(ctx context.Context, q queryer, e payroll.Employee) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO employees (id, base_salary) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET base_salary = excluded.base_salary`,
		string(e.ID), e.BaseSalary.String())
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id payroll.EmployeeID) (payroll.Employee, error) {
	return getEmployee(ctx, s.db, id)
}

func getEmployee(ctx context.Context, q queryer, id payroll.EmployeeID) (payroll.Employee, error) {
	var eid, salary string
	err := q.QueryRowContext(ctx, `SELECT id, base_salary FROM employees WHERE id = ?`, string(id)).
		Scan(&eid, &salary)
	if err == sql.ErrNoRows {
		return payroll.Employee{}, payroll.ErrEmployeeNotFound
	}
	if err != nil {
		return payroll.Employee{}, err
	}
	base, err := decodeMoney(salary)
	if err != nil {
		return payroll.Employee{}, err
	}
	return payroll.Employee{ID: payroll.EmployeeID(eid), BaseSalary: base}, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	return listEmployees(ctx, s.db)
}

func listEmployees(ctx context.Context, q queryer) ([]payroll.Employee, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, base_salary FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []payroll.Employee
	for rows.Next() {
		var eid, salary string
		if err := rows.Scan(&eid, &salary); err != nil {
			return nil, err
		}
		base, err := decodeMoney(salary)
		if err != nil {
			return nil, err
		}
		result = append(result, payroll.Employee{ID: payroll.EmployeeID(eid), BaseSalary: base})
	}
	return result, rows.Err()
}

// =============================================================================
// BENEFIT STORE
// =============================================================================

func (s *Store) SaveBenefit(ctx context.Context, b payroll.BenefitAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBenefit(ctx, s.db, b)
}

func saveBenefit(ctx context.Context, q queryer, b payroll.BenefitAssignment) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO benefit_assignments
			(id, employee_id, concept_code, amount, rate, frequency, effective_date, end_date, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			concept_code = excluded.concept_code,
			amount = excluded.amount,
			rate = excluded.rate,
			frequency = excluded.frequency,
			effective_date = excluded.effective_date,
			end_date = excluded.end_date,
			active = excluded.active`,
		b.ID, string(b.EmployeeID), string(b.ConceptCode), b.Amount.String(), b.Rate.String(),
		string(b.Frequency), encodeDate(b.EffectiveDate), encodeDatePtr(b.EndDate), b.Active)
	return err
}

func (s *Store) ListBenefitsByEmployee(ctx context.Context, employeeID payroll.EmployeeID) ([]payroll.BenefitAssignment, error) {
	return listBenefits(ctx, s.db, employeeID)
}

func listBenefits(ctx context.Context, q queryer, employeeID payroll.EmployeeID) ([]payroll.BenefitAssignment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, employee_id, concept_code, amount, rate, frequency, effective_date, end_date, active
		FROM benefit_assignments WHERE employee_id = ? ORDER BY id`, string(employeeID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []payroll.BenefitAssignment
	for rows.Next() {
		var (
			b                           payroll.BenefitAssignment
			id, eid, code, amount, rate string
			frequency, effective        string
			endDate                     sql.NullString
		)
		if err := rows.Scan(&id, &eid, &code, &amount, &rate, &frequency, &effective, &endDate, &b.Active); err != nil {
			return nil, err
		}
		b.ID = id
		b.EmployeeID = payroll.EmployeeID(eid)
		b.ConceptCode = payroll.ConceptCode(code)
		if b.Amount, err = decodeMoney(amount); err != nil {
			return nil, err
		}
		if b.Rate, err = decodeMoney(rate); err != nil {
			return nil, err
		}
		b.Frequency = payroll.Frequency(frequency)
		if b.EffectiveDate, err = decodeDate(effective); err != nil {
			return nil, err
		}
		if endDate.Valid {
			d, err := decodeDate(endDate.String)
			if err != nil {
				return nil, err
			}
			b.EndDate = &d
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// =============================================================================
// PAYROLL STORE
// =============================================================================

func (s *Store) CreatePayroll(ctx context.Context, p payroll.Payroll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createPayroll(ctx, s.db, p)
}

func createPayroll(ctx context.Context, q queryer, p payroll.Payroll) error {
	var existing string
	err := q.QueryRowContext(ctx,
		`SELECT id FROM payrolls WHERE employee_id = ? AND period_id = ?`,
		string(p.EmployeeID), string(p.PeriodID)).Scan(&existing)
	if err == nil {
		return &payroll.DuplicatePayrollError{
			EmployeeID: p.EmployeeID,
			PeriodID:   p.PeriodID,
			ExistingID: payroll.PayrollID(existing),
		}
	}
	if err != sql.ErrNoRows {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO payrolls
			(id, employee_id, period_id, base_salary, worked_days, worked_hours,
			 overtime_hours, overtime_amount, total_earnings, gross_salary,
			 total_deductions, total_taxes, net_salary, status, created_at,
			 calculated_at, approved_at, approved_by, processed_at, paid_at,
			 rejected_at, rejection_reason, reopened_at, reopened_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.ID), string(p.EmployeeID), string(p.PeriodID),
		p.BaseSalary.String(), p.WorkedDays.String(), p.WorkedHours.String(),
		p.OvertimeHours.String(), p.OvertimeAmount.String(), p.TotalEarnings.String(),
		p.GrossSalary.String(), p.TotalDeductions.String(), p.TotalTaxes.String(),
		p.NetSalary.String(), string(p.Status), encodeTime(p.CreatedAt),
		encodeTimePtr(p.CalculatedAt), encodeTimePtr(p.ApprovedAt), p.ApprovedBy,
		encodeTimePtr(p.ProcessedAt), encodeTimePtr(p.PaidAt),
		encodeTimePtr(p.RejectedAt), p.RejectionReason,
		encodeTimePtr(p.ReopenedAt), p.ReopenedBy)
	return err
}

// SavePayroll replaces the record and its full line item set inside one SQL
// transaction.
func (s *Store) SavePayroll(ctx context.Context, p payroll.Payroll) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := savePayroll(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

func savePayroll(ctx context.Context, q queryer, p payroll.Payroll) error {
	result, err := q.ExecContext(ctx, `
		UPDATE payrolls SET
			base_salary = ?, worked_days = ?, worked_hours = ?, overtime_hours = ?,
			overtime_amount = ?, total_earnings = ?, gross_salary = ?,
			total_deductions = ?, total_taxes = ?, net_salary = ?, status = ?,
			calculated_at = ?, approved_at = ?, approved_by = ?, processed_at = ?,
			paid_at = ?, rejected_at = ?, rejection_reason = ?, reopened_at = ?,
			reopened_by = ?
		WHERE id = ?`,
		p.BaseSalary.String(), p.WorkedDays.String(), p.WorkedHours.String(),
		p.OvertimeHours.String(), p.OvertimeAmount.String(), p.TotalEarnings.String(),
		p.GrossSalary.String(), p.TotalDeductions.String(), p.TotalTaxes.String(),
		p.NetSalary.String(), string(p.Status),
		encodeTimePtr(p.CalculatedAt), encodeTimePtr(p.ApprovedAt), p.ApprovedBy,
		encodeTimePtr(p.ProcessedAt), encodeTimePtr(p.PaidAt),
		encodeTimePtr(p.RejectedAt), p.RejectionReason,
		encodeTimePtr(p.ReopenedAt), p.ReopenedBy,
		string(p.ID))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return payroll.ErrPayrollNotFound
	}

	// Recalculation replaces, never appends.
	if _, err := q.ExecContext(ctx, `DELETE FROM payroll_lines WHERE payroll_id = ?`, string(p.ID)); err != nil {
		return err
	}
	for i, item := range p.LineItems {
		_, err := q.ExecContext(ctx, `
			INSERT INTO payroll_lines
				(payroll_id, position, concept_code, concept_name, concept_type,
				 base_amount, rate, quantity, amount)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(p.ID), i, string(item.ConceptCode), item.ConceptName,
			string(item.ConceptType), item.BaseAmount.String(), item.Rate.String(),
			item.Quantity.String(), item.Amount.String())
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetPayroll(ctx context.Context, id payroll.PayrollID) (payroll.Payroll, error) {
	return getPayroll(ctx, s.db, id)
}

func getPayroll(ctx context.Context, q queryer, id payroll.PayrollID) (payroll.Payroll, error) {
	row := q.QueryRowContext(ctx, selectPayroll+` WHERE id = ?`, string(id))
	p, err := scanPayroll(row)
	if err != nil {
		return payroll.Payroll{}, err
	}
	p.LineItems, err = loadLines(ctx, q, p.ID)
	if err != nil {
		return payroll.Payroll{}, err
	}
	return p, nil
}

func (s *Store) GetPayrollByEmployeeAndPeriod(ctx context.Context, employeeID payroll.EmployeeID, periodID payroll.PeriodID) (payroll.Payroll, error) {
	return getPayrollByPair(ctx, s.db, employeeID, periodID)
}

func getPayrollByPair(ctx context.Context, q queryer, employeeID payroll.EmployeeID, periodID payroll.PeriodID) (payroll.Payroll, error) {
	row := q.QueryRowContext(ctx, selectPayroll+` WHERE employee_id = ? AND period_id = ?`,
		string(employeeID), string(periodID))
	p, err := scanPayroll(row)
	if err != nil {
		return payroll.Payroll{}, err
	}
	p.LineItems, err = loadLines(ctx, q, p.ID)
	if err != nil {
		return payroll.Payroll{}, err
	}
	return p, nil
}

func (s *Store) ListPayrollsByPeriod(ctx context.Context, periodID payroll.PeriodID) ([]payroll.Payroll, error) {
	return listPayrollsByPeriod(ctx, s.db, periodID)
}

func listPayrollsByPeriod(ctx context.Context, q queryer, periodID payroll.PeriodID) ([]payroll.Payroll, error) {
	rows, err := q.QueryContext(ctx, selectPayroll+` WHERE period_id = ? ORDER BY employee_id`, string(periodID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []payroll.Payroll
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range result {
		result[i].LineItems, err = loadLines(ctx, q, result[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

const selectPayroll = `
	SELECT id, employee_id, period_id, base_salary, worked_days, worked_hours,
	       overtime_hours, overtime_amount, total_earnings, gross_salary,
	       total_deductions, total_taxes, net_salary, status, created_at,
	       calculated_at, approved_at, approved_by, processed_at, paid_at,
	       rejected_at, rejection_reason, reopened_at, reopened_by
	FROM payrolls`

func scanPayroll(row rowScanner) (payroll.Payroll, error) {
	var (
		p                                             payroll.Payroll
		id, eid, pid                                  string
		base, days, hours, otHours, otAmount          string
		earnings, gross, deductions, taxes, net, st   string
		createdAt                                     string
		calculatedAt, approvedAt, processedAt, paidAt sql.NullString
		rejectedAt, reopenedAt                        sql.NullString
	)
	err := row.Scan(&id, &eid, &pid, &base, &days, &hours, &otHours, &otAmount,
		&earnings, &gross, &deductions, &taxes, &net, &st, &createdAt,
		&calculatedAt, &approvedAt, &p.ApprovedBy, &processedAt, &paidAt,
		&rejectedAt, &p.RejectionReason, &reopenedAt, &p.ReopenedBy)
	if err == sql.ErrNoRows {
		return payroll.Payroll{}, payroll.ErrPayrollNotFound
	}
	if err != nil {
		return payroll.Payroll{}, err
	}

	p.ID = payroll.PayrollID(id)
	p.EmployeeID = payroll.EmployeeID(eid)
	p.PeriodID = payroll.PeriodID(pid)
	p.Status = payroll.PayrollStatus(st)

	for _, field := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&p.BaseSalary, base}, {&p.WorkedDays, days}, {&p.WorkedHours, hours},
		{&p.OvertimeHours, otHours}, {&p.OvertimeAmount, otAmount},
		{&p.TotalEarnings, earnings}, {&p.GrossSalary, gross},
		{&p.TotalDeductions, deductions}, {&p.TotalTaxes, taxes}, {&p.NetSalary, net},
	} {
		if *field.dst, err = decodeMoney(field.src); err != nil {
			return payroll.Payroll{}, err
		}
	}

	if p.CreatedAt, err = decodeTime(createdAt); err != nil {
		return payroll.Payroll{}, err
	}
	for _, field := range []struct {
		dst **time.Time
		src sql.NullString
	}{
		{&p.CalculatedAt, calculatedAt}, {&p.ApprovedAt, approvedAt},
		{&p.ProcessedAt, processedAt}, {&p.PaidAt, paidAt},
		{&p.RejectedAt, rejectedAt}, {&p.ReopenedAt, reopenedAt},
	} {
		if *field.dst, err = decodeTimePtr(field.src); err != nil {
			return payroll.Payroll{}, err
		}
	}
	return p, nil
}

func loadLines(ctx context.Context, q queryer, id payroll.PayrollID) ([]payroll.LineItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT concept_code, concept_name, concept_type, base_amount, rate, quantity, amount
		FROM payroll_lines WHERE payroll_id = ? ORDER BY position`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []payroll.LineItem
	for rows.Next() {
		var (
			item                         payroll.LineItem
			code, name, ctype            string
			base, rate, quantity, amount string
		)
		if err := rows.Scan(&code, &name, &ctype, &base, &rate, &quantity, &amount); err != nil {
			return nil, err
		}
		item.ConceptCode = payroll.ConceptCode(code)
		item.ConceptName = name
		item.ConceptType = payroll.ConceptType(ctype)
		if item.BaseAmount, err = decodeMoney(base); err != nil {
			return nil, err
		}
		if item.Rate, err = decodeMoney(rate); err != nil {
			return nil, err
		}
		if item.Quantity, err = decodeMoney(quantity); err != nil {
			return nil, err
		}
		if item.Amount, err = decodeMoney(amount); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a SQL transaction, holding the store mutex so
// uniqueness and status-gating checks see a stable view.
func (s *Store) WithTx(ctx context.Context, fn func(payroll.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&txView{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type txView struct {
	tx *sql.Tx
}

func (tv *txView) CreatePayroll(ctx context.Context, p payroll.Payroll) error {
	return createPayroll(ctx, tv.tx, p)
}

func (tv *txView) SavePayroll(ctx context.Context, p payroll.Payroll) error {
	return savePayroll(ctx, tv.tx, p)
}

func (tv *txView) GetPayroll(ctx context.Context, id payroll.PayrollID) (payroll.Payroll, error) {
	return getPayroll(ctx, tv.tx, id)
}

func (tv *txView) GetPayrollByEmployeeAndPeriod(ctx context.Context, employeeID payroll.EmployeeID, periodID payroll.PeriodID) (payroll.Payroll, error) {
	return getPayrollByPair(ctx, tv.tx, employeeID, periodID)
}

func (tv *txView) ListPayrollsByPeriod(ctx context.Context, periodID payroll.PeriodID) ([]payroll.Payroll, error) {
	return listPayrollsByPeriod(ctx, tv.tx, periodID)
}

func (tv *txView) SavePeriod(ctx context.Context, p payroll.Period) error {
	return savePeriod(ctx, tv.tx, p)
}

func (tv *txView) GetPeriod(ctx context.Context, id payroll.PeriodID) (payroll.Period, error) {
	return getPeriod(ctx, tv.tx, id)
}

func (tv *txView) ListPeriods(ctx context.Context) ([]payroll.Period, error) {
	return listPeriods(ctx, tv.tx)
}

func (tv *txView) SaveEmployee(ctx context.Context, e payroll.Employee) error {
	return saveEmployee(ctx, tv.tx, e)
}

func (tv *txView) GetEmployee(ctx context.Context, id payroll.EmployeeID) (payroll.Employee, error) {
	return getEmployee(ctx, tv.tx, id)
}

func (tv *txView) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	return listEmployees(ctx, tv.tx)
}

func (tv *txView) SaveBenefit(ctx context.Context, b payroll.BenefitAssignment) error {
	return saveBenefit(ctx, tv.tx, b)
}

func (tv *txView) ListBenefitsByEmployee(ctx context.Context, employeeID payroll.EmployeeID) ([]payroll.BenefitAssignment, error) {
	return listBenefits(ctx, tv.tx, employeeID)
}

// =============================================================================
// AUDIT
// =============================================================================

// VerifyPayroll reloads a record and recomputes its totals from the stored
// line items, returning TotalsMismatchError on drift. For audit tooling
// that must not trust stored totals.
func (s *Store) VerifyPayroll(ctx context.Context, id payroll.PayrollID) error {
	p, err := s.GetPayroll(ctx, id)
	if err != nil {
		return err
	}
	return payroll.VerifyTotals(p)
}
