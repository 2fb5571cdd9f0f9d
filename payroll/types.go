/*
Package payroll provides the payroll computation and period-workflow engine.

PURPOSE:
  This package turns configurable compensation rules ("concepts") plus
  per-employee inputs (base salary, worked time, recurring benefits) into a
  signed, auditable payroll record for a fixed time window, and manages that
  record through an approval lifecycle alongside its enclosing period.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A decimal monetary amount with exact 2-place rounding
  - LineItem: A single concept's contribution within a payroll
  - WorkedInput: Attendance-derived figures consumed as read-only input
  - Employee/Period/Payroll IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: records are values; transitions return new states
  2. Precision: decimal.Decimal everywhere, never float64 in domain math
  3. Derivation: payroll totals are a pure function of line items
  4. Auditability: every stored total can be recomputed and compared

USAGE:
  base := payroll.NewMoney(2500000)
  item := payroll.LineItem{
      ConceptCode: "TRANSPORT",
      ConceptType: payroll.ConceptEarning,
      Amount:      payroll.NewMoney(140606),
  }

SEE ALSO:
  - concept.go: Concept definitions and calculation strategies
  - calculator.go: Line item production from employee inputs
  - workflow.go: Payroll lifecycle state machine
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Decimal monetary amount
// =============================================================================

// Money is a monetary amount. All domain arithmetic stays in decimal space;
// conversion to float happens only at serialization boundaries.
type Money = decimal.Decimal

func NewMoney(value float64) Money      { return decimal.NewFromFloat(value) }
func NewMoneyFromInt(value int64) Money { return decimal.NewFromInt(value) }

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RoundMoney rounds half-up to 2 decimal places. All line item amounts pass
// through here exactly once, after clamping; totals sum already-rounded items.
func RoundMoney(m Money) Money { return m.Round(2) }

var hundred = decimal.NewFromInt(100)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type PeriodID string
type PayrollID string
type ConceptCode string

// PayrollIDFor derives the payroll identifier from its natural key. One
// payroll per (employee, period) means the ID is stable across recalculation.
func PayrollIDFor(employeeID EmployeeID, periodID PeriodID) PayrollID {
	return PayrollID("pay-" + string(employeeID) + "-" + string(periodID))
}

// =============================================================================
// CONCEPT CLASSIFICATION
// =============================================================================

// ConceptType classifies a concept's contribution to the payroll totals.
type ConceptType string

const (
	ConceptEarning   ConceptType = "earning"
	ConceptDeduction ConceptType = "deduction"
	ConceptTax       ConceptType = "tax"
)

// CalculationType selects the strategy used to compute a concept's amount.
type CalculationType string

const (
	// CalcFixed: defaultValue * quantity
	CalcFixed CalculationType = "fixed"

	// CalcPercentage: (baseAmount * rate / 100) * quantity
	CalcPercentage CalculationType = "percentage"

	// CalcRate: rate * quantity
	CalcRate CalculationType = "rate"

	// CalcFormula: restricted expression evaluated against the variable set
	CalcFormula CalculationType = "formula"
)

// Frequency is how often a recurring benefit assignment pays out.
type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// =============================================================================
// LINE ITEM - One concept's contribution within a payroll
// =============================================================================

// LineItem records a single concept's computed contribution. Inputs
// (BaseAmount, Rate, Quantity) are kept so the Amount can be re-derived
// during audits.
type LineItem struct {
	ConceptCode ConceptCode
	ConceptName string
	ConceptType ConceptType

	BaseAmount Money
	Rate       Money
	Quantity   Money
	Amount     Money
}

// =============================================================================
// EXTERNAL INPUTS - Read-only data from collaborators
// =============================================================================

// Employee carries the identity and base-salary snapshot the engine consumes.
// The employee master record is owned elsewhere.
type Employee struct {
	ID         EmployeeID
	BaseSalary Money
}

// WorkedInput is the attendance aggregator's output for one employee+period.
type WorkedInput struct {
	WorkedDays    decimal.Decimal
	WorkedHours   decimal.Decimal
	OvertimeHours decimal.Decimal
}

// Validate rejects inputs before any calculation runs.
func (w WorkedInput) Validate() error {
	if w.WorkedDays.IsNegative() || w.WorkedHours.IsNegative() || w.OvertimeHours.IsNegative() {
		return &ValidationErrorDetail{
			Code:    "negative_worked_input",
			Message: "worked days/hours and overtime must be non-negative",
		}
	}
	return nil
}

// =============================================================================
// DATES - Day-granular time points
// =============================================================================

// Date is a day-granular point in time, always UTC midnight.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }
func (d Date) IsZero() bool                  { return d.Time.IsZero() }

func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}
