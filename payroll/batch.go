/*
batch.go - Batch calculation of a whole period

PURPOSE:
  Processing a period's payrolls is an embarrassingly parallel batch over
  employees: each calculation is independent and touches no shared mutable
  state beyond its own payroll + line item set. RunPeriod executes the
  batch with a bounded worker pool.

CANCELLATION:
  Cancellation is cooperative BETWEEN employees: once the context is done,
  no new per-employee calculation starts. A single employee's line item
  replacement is the atomic unit and is never torn - an in-flight
  calculation either commits fully or not at all (store transaction).

REPORTING:
  Every employee yields a result (payroll or error). Concept-level formula
  failures are already contained inside the calculator; errors here are
  per-employee conflicts or input failures and do not stop the batch.

SEE ALSO:
  - service.go: CreateOrUpdatePayroll, the per-employee unit of work
*/
package payroll

import (
	"context"
	"sort"
	"sync"
)

// =============================================================================
// BATCH TYPES
// =============================================================================

// BatchInput is one employee's worked-time figures for the period.
type BatchInput struct {
	EmployeeID EmployeeID
	Worked     WorkedInput
}

// BatchResult is the outcome for one employee.
type BatchResult struct {
	EmployeeID EmployeeID
	Payroll    Payroll
	Err        error
}

// BatchReport summarizes a period run.
type BatchReport struct {
	PeriodID  PeriodID
	Succeeded int
	Failed    int
	Results   []BatchResult
}

// DefaultBatchWorkers bounds the pool when the caller passes workers <= 0.
const DefaultBatchWorkers = 4

// =============================================================================
// PERIOD RUNNER
// =============================================================================

// RunPeriod calculates payrolls for every input employee under the period
// using at most workers concurrent calculations. The period must be open;
// that gate is re-checked per employee inside the store transaction, so a
// close racing the batch stops further commits.
func (s *Service) RunPeriod(
	ctx context.Context,
	periodID PeriodID,
	inputs []BatchInput,
	workers int,
) (*BatchReport, error) {
	period, err := s.Store.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if !period.IsOpen() {
		return nil, &ClosedPeriodError{PeriodID: periodID}
	}

	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	jobs := make(chan BatchInput)
	results := make(chan BatchResult, len(inputs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				record, err := s.CreateOrUpdatePayroll(ctx, job.EmployeeID, periodID, job.Worked)
				results <- BatchResult{EmployeeID: job.EmployeeID, Payroll: record, Err: err}
			}
		}()
	}

	// Feed jobs until done or cancelled. Cancellation stops new launches;
	// in-flight calculations finish (their commit is atomic either way).
	dispatched := 0
feed:
	for _, input := range inputs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- input:
			dispatched++
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	report := &BatchReport{PeriodID: periodID}
	for result := range results {
		if result.Err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
		report.Results = append(report.Results, result)
	}
	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].EmployeeID < report.Results[j].EmployeeID
	})

	if err := ctx.Err(); err != nil && dispatched < len(inputs) {
		return report, err
	}
	return report, nil
}
