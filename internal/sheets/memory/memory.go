// Package memory is an in-memory budget writer used in tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"sync"

	"condomini/internal/core"
	ports "condomini/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	tables map[string][]core.MonthlyBudget
	writes int
}

var _ ports.BudgetWriter = (*Store)(nil)

func New() *Store {
	return &Store{tables: map[string][]core.MonthlyBudget{}}
}

// WriteBudgets replaces the stored table for the building.
func (s *Store) WriteBudgets(_ context.Context, buildingName string, budgets []core.MonthlyBudget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[buildingName] = append([]core.MonthlyBudget(nil), budgets...)
	s.writes++
	return nil
}

// Budgets returns the last written table for the building.
func (s *Store) Budgets(buildingName string) []core.MonthlyBudget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.MonthlyBudget(nil), s.tables[buildingName]...)
}

// Writes returns the number of WriteBudgets calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
