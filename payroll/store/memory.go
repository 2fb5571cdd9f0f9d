// Package store provides payroll.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	payrolls  map[payroll.PayrollID]payroll.Payroll
	byPair    map[pairKey]payroll.PayrollID
	periods   map[payroll.PeriodID]payroll.Period
	employees map[payroll.EmployeeID]payroll.Employee
	benefits  map[payroll.EmployeeID][]payroll.BenefitAssignment
}

type pairKey struct {
	EmployeeID payroll.EmployeeID
	PeriodID   payroll.PeriodID
}

func NewMemory() *Memory {
	return &Memory{
		payrolls:  make(map[payroll.PayrollID]payroll.Payroll),
		byPair:    make(map[pairKey]payroll.PayrollID),
		periods:   make(map[payroll.PeriodID]payroll.Period),
		employees: make(map[payroll.EmployeeID]payroll.Employee),
		benefits:  make(map[payroll.EmployeeID][]payroll.BenefitAssignment),
	}
}

// clonePayroll detaches the line item slice so callers can't alias stored
// state.
func clonePayroll(p payroll.Payroll) payroll.Payroll {
	p.LineItems = append([]payroll.LineItem(nil), p.LineItems...)
	return p
}

// -----------------------------------------------------------------------------
// PayrollStore
// -----------------------------------------------------------------------------

func (m *Memory) CreatePayroll(_ context.Context, p payroll.Payroll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createPayrollLocked(p)
}

func (m *Memory) createPayrollLocked(p payroll.Payroll) error {
	key := pairKey{EmployeeID: p.EmployeeID, PeriodID: p.PeriodID}
	if existing, ok := m.byPair[key]; ok {
		return &payroll.DuplicatePayrollError{
			EmployeeID: p.EmployeeID,
			PeriodID:   p.PeriodID,
			ExistingID: existing,
		}
	}
	m.payrolls[p.ID] = clonePayroll(p)
	m.byPair[key] = p.ID
	return nil
}

func (m *Memory) SavePayroll(_ context.Context, p payroll.Payroll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.savePayrollLocked(p)
}

func (m *Memory) savePayrollLocked(p payroll.Payroll) error {
	if _, ok := m.payrolls[p.ID]; !ok {
		return payroll.ErrPayrollNotFound
	}
	// Record + line items replaced together: the map entry swap is the
	// atomic unit here.
	m.payrolls[p.ID] = clonePayroll(p)
	return nil
}

func (m *Memory) GetPayroll(_ context.Context, id payroll.PayrollID) (payroll.Payroll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getPayrollLocked(id)
}

func (m *Memory) getPayrollLocked(id payroll.PayrollID) (payroll.Payroll, error) {
	p, ok := m.payrolls[id]
	if !ok {
		return payroll.Payroll{}, payroll.ErrPayrollNotFound
	}
	return clonePayroll(p), nil
}

func (m *Memory) GetPayrollByEmployeeAndPeriod(_ context.Context, employeeID payroll.EmployeeID, periodID payroll.PeriodID) (payroll.Payroll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getByPairLocked(employeeID, periodID)
}

func (m *Memory) getByPairLocked(employeeID payroll.EmployeeID, periodID payroll.PeriodID) (payroll.Payroll, error) {
	id, ok := m.byPair[pairKey{EmployeeID: employeeID, PeriodID: periodID}]
	if !ok {
		return payroll.Payroll{}, payroll.ErrPayrollNotFound
	}
	return m.getPayrollLocked(id)
}

func (m *Memory) ListPayrollsByPeriod(_ context.Context, periodID payroll.PeriodID) ([]payroll.Payroll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listByPeriodLocked(periodID)
}

func (m *Memory) listByPeriodLocked(periodID payroll.PeriodID) ([]payroll.Payroll, error) {
	var result []payroll.Payroll
	for _, p := range m.payrolls {
		if p.PeriodID == periodID {
			result = append(result, clonePayroll(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeID < result[j].EmployeeID })
	return result, nil
}

// -----------------------------------------------------------------------------
// PeriodStore
// -----------------------------------------------------------------------------

func (m *Memory) SavePeriod(_ context.Context, p payroll.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods[p.ID] = p
	return nil
}

func (m *Memory) GetPeriod(_ context.Context, id payroll.PeriodID) (payroll.Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getPeriodLocked(id)
}

func (m *Memory) getPeriodLocked(id payroll.PeriodID) (payroll.Period, error) {
	p, ok := m.periods[id]
	if !ok {
		return payroll.Period{}, payroll.ErrPeriodNotFound
	}
	return p, nil
}

func (m *Memory) ListPeriods(_ context.Context) ([]payroll.Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []payroll.Period
	for _, p := range m.periods {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// -----------------------------------------------------------------------------
// EmployeeStore
// -----------------------------------------------------------------------------

func (m *Memory) SaveEmployee(_ context.Context, e payroll.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id payroll.EmployeeID) (payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getEmployeeLocked(id)
}

func (m *Memory) getEmployeeLocked(id payroll.EmployeeID) (payroll.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return payroll.Employee{}, payroll.ErrEmployeeNotFound
	}
	return e, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []payroll.Employee
	for _, e := range m.employees {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// -----------------------------------------------------------------------------
// BenefitStore
// -----------------------------------------------------------------------------

func (m *Memory) SaveBenefit(_ context.Context, b payroll.BenefitAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.benefits[b.EmployeeID] {
		if existing.ID == b.ID {
			m.benefits[b.EmployeeID][i] = b
			return nil
		}
	}
	m.benefits[b.EmployeeID] = append(m.benefits[b.EmployeeID], b)
	return nil
}

func (m *Memory) ListBenefitsByEmployee(_ context.Context, employeeID payroll.EmployeeID) ([]payroll.BenefitAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listBenefitsLocked(employeeID)
}

func (m *Memory) listBenefitsLocked(employeeID payroll.EmployeeID) ([]payroll.BenefitAssignment, error) {
	return append([]payroll.BenefitAssignment(nil), m.benefits[employeeID]...), nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction. For the memory store this is
// simulated with a snapshot + rollback on error; the store-wide lock held
// for the duration provides the exclusive-access discipline.
func (tm *TxMemory) WithTx(_ context.Context, fn func(payroll.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	view := &txMemoryView{parent: tm.Memory}

	if err := fn(view); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	payrolls  map[payroll.PayrollID]payroll.Payroll
	byPair    map[pairKey]payroll.PayrollID
	periods   map[payroll.PeriodID]payroll.Period
	employees map[payroll.EmployeeID]payroll.Employee
	benefits  map[payroll.EmployeeID][]payroll.BenefitAssignment
}

func (tm *TxMemory) snapshot() memorySnapshot {
	s := memorySnapshot{
		payrolls:  make(map[payroll.PayrollID]payroll.Payroll, len(tm.payrolls)),
		byPair:    make(map[pairKey]payroll.PayrollID, len(tm.byPair)),
		periods:   make(map[payroll.PeriodID]payroll.Period, len(tm.periods)),
		employees: make(map[payroll.EmployeeID]payroll.Employee, len(tm.employees)),
		benefits:  make(map[payroll.EmployeeID][]payroll.BenefitAssignment, len(tm.benefits)),
	}
	for k, v := range tm.payrolls {
		s.payrolls[k] = clonePayroll(v)
	}
	for k, v := range tm.byPair {
		s.byPair[k] = v
	}
	for k, v := range tm.periods {
		s.periods[k] = v
	}
	for k, v := range tm.employees {
		s.employees[k] = v
	}
	for k, v := range tm.benefits {
		s.benefits[k] = append([]payroll.BenefitAssignment(nil), v...)
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.payrolls = s.payrolls
	tm.byPair = s.byPair
	tm.periods = s.periods
	tm.employees = s.employees
	tm.benefits = s.benefits
}

// txMemoryView runs against the already-locked parent.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) CreatePayroll(_ context.Context, p payroll.Payroll) error {
	return tv.parent.createPayrollLocked(p)
}

func (tv *txMemoryView) SavePayroll(_ context.Context, p payroll.Payroll) error {
	return tv.parent.savePayrollLocked(p)
}

func (tv *txMemoryView) GetPayroll(_ context.Context, id payroll.PayrollID) (payroll.Payroll, error) {
	return tv.parent.getPayrollLocked(id)
}

func (tv *txMemoryView) GetPayrollByEmployeeAndPeriod(_ context.Context, employeeID payroll.EmployeeID, periodID payroll.PeriodID) (payroll.Payroll, error) {
	return tv.parent.getByPairLocked(employeeID, periodID)
}

func (tv *txMemoryView) ListPayrollsByPeriod(_ context.Context, periodID payroll.PeriodID) ([]payroll.Payroll, error) {
	return tv.parent.listByPeriodLocked(periodID)
}

func (tv *txMemoryView) SavePeriod(_ context.Context, p payroll.Period) error {
	tv.parent.periods[p.ID] = p
	return nil
}

func (tv *txMemoryView) GetPeriod(_ context.Context, id payroll.PeriodID) (payroll.Period, error) {
	return tv.parent.getPeriodLocked(id)
}

func (tv *txMemoryView) ListPeriods(_ context.Context) ([]payroll.Period, error) {
	var result []payroll.Period
	for _, p := range tv.parent.periods {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (tv *txMemoryView) SaveEmployee(_ context.Context, e payroll.Employee) error {
	tv.parent.employees[e.ID] = e
	return nil
}

func (tv *txMemoryView) GetEmployee(_ context.Context, id payroll.EmployeeID) (payroll.Employee, error) {
	return tv.parent.getEmployeeLocked(id)
}

func (tv *txMemoryView) ListEmployees(_ context.Context) ([]payroll.Employee, error) {
	var result []payroll.Employee
	for _, e := range tv.parent.employees {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (tv *txMemoryView) SaveBenefit(_ context.Context, b payroll.BenefitAssignment) error {
	for i, existing := range tv.parent.benefits[b.EmployeeID] {
		if existing.ID == b.ID {
			tv.parent.benefits[b.EmployeeID][i] = b
			return nil
		}
	}
	tv.parent.benefits[b.EmployeeID] = append(tv.parent.benefits[b.EmployeeID], b)
	return nil
}

func (tv *txMemoryView) ListBenefitsByEmployee(_ context.Context, employeeID payroll.EmployeeID) ([]payroll.BenefitAssignment, error) {
	return tv.parent.listBenefitsLocked(employeeID)
}
