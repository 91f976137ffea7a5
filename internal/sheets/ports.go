package sheets

import (
	"context"

	"condomini/internal/core"
)

// Ports for outbound adapters.
type (
	// BudgetWriter replaces a building's exported budget table with the
	// given rows.
	BudgetWriter interface {
		WriteBudgets(ctx context.Context, buildingName string, budgets []core.MonthlyBudget) error
	}
)
