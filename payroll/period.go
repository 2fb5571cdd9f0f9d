/*
period.go - Payroll periods and their lifecycle

PURPOSE:
  A Period owns a fixed time window over which payrolls are computed and
  aggregated:

      draft -> processing -> closed
                   ^            |
                   +-- reopen --+   (explicit escape hatch)

  While closed, no payroll under the period may be created, recalculated,
  or transitioned. Closing is terminal except for the explicit reopen.

ROLLUP TOTALS:
  The period's totalGross/totalDeductions/totalNet are a sum over its
  contained payrolls' corresponding totals, recomputed on demand. Stored
  rollups are never trusted without the ability to recompute and compare -
  the same principle as payroll totals versus line items.

SEE ALSO:
  - workflow.go: Per-payroll state machine gated by the period status
  - service.go: Open/close/reopen operations and summary computation
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PERIOD STATUS
// =============================================================================

type PeriodStatus string

const (
	PeriodDraft      PeriodStatus = "draft"
	PeriodProcessing PeriodStatus = "processing"
	PeriodClosed     PeriodStatus = "closed"
)

// =============================================================================
// PERIOD - A fixed calendar window
// =============================================================================

type Period struct {
	ID        PeriodID
	StartDate Date
	EndDate   Date
	PayDate   Date
	Status    PeriodStatus

	CreatedAt  time.Time
	ClosedAt   *time.Time
	ReopenedAt *time.Time
}

// NewPeriod creates a draft period. The window must be well-formed.
func NewPeriod(id PeriodID, start, end, payDate Date, at time.Time) (Period, error) {
	if end.Before(start) {
		return Period{}, &ValidationErrorDetail{
			Code:    "invalid_period",
			Message: "end date before start date",
		}
	}
	return Period{
		ID:        id,
		StartDate: start,
		EndDate:   end,
		PayDate:   payDate,
		Status:    PeriodDraft,
		CreatedAt: at,
	}, nil
}

// Contains reports whether the date falls within [StartDate, EndDate].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.StartDate) && d.BeforeOrEqual(p.EndDate)
}

// IsOpen reports whether payrolls under this period may be created or
// modified.
func (p Period) IsOpen() bool {
	return p.Status == PeriodDraft || p.Status == PeriodProcessing
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Open moves draft -> processing, admitting payroll activity.
func (p Period) Open() (Period, error) {
	if p.Status != PeriodDraft {
		return p, &ValidationErrorDetail{
			Code:    "invalid_period_transition",
			Message: "only a draft period can be opened (current: " + string(p.Status) + ")",
		}
	}
	p.Status = PeriodProcessing
	return p, nil
}

// Close moves processing -> closed. Terminal except for Reopen.
func (p Period) Close(at time.Time) (Period, error) {
	if p.Status != PeriodProcessing {
		return p, &ValidationErrorDetail{
			Code:    "invalid_period_transition",
			Message: "only a processing period can be closed (current: " + string(p.Status) + ")",
		}
	}
	p.Status = PeriodClosed
	p.ClosedAt = &at
	return p, nil
}

// Reopen moves closed -> processing. Explicit escape hatch.
func (p Period) Reopen(at time.Time) (Period, error) {
	if p.Status != PeriodClosed {
		return p, &ValidationErrorDetail{
			Code:    "invalid_period_transition",
			Message: "only a closed period can be reopened (current: " + string(p.Status) + ")",
		}
	}
	p.Status = PeriodProcessing
	p.ClosedAt = nil
	p.ReopenedAt = &at
	return p, nil
}

// =============================================================================
// PERIOD SUMMARY - Rollup over contained payrolls
// =============================================================================

type PeriodSummary struct {
	PeriodID        PeriodID
	Status          PeriodStatus
	TotalEmployees  int
	TotalGross      Money
	TotalDeductions Money
	TotalNet        Money
}

// Summarize folds the contained payrolls into the period rollup. Rejected
// payrolls are excluded: they carry no payable totals.
func Summarize(period Period, payrolls []Payroll) PeriodSummary {
	summary := PeriodSummary{
		PeriodID:        period.ID,
		Status:          period.Status,
		TotalGross:      decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNet:        decimal.Zero,
	}
	for _, p := range payrolls {
		if p.Status == PayrollRejected {
			continue
		}
		summary.TotalEmployees++
		summary.TotalGross = summary.TotalGross.Add(p.GrossSalary)
		summary.TotalDeductions = summary.TotalDeductions.Add(p.TotalDeductions).Add(p.TotalTaxes)
		summary.TotalNet = summary.TotalNet.Add(p.NetSalary)
	}
	return summary
}
