package memory

import (
	"context"
	"testing"

	"condomini/internal/core"
)

func TestWriteBudgetsReplaces(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := []core.MonthlyBudget{{BuildingID: 1, Year: 2025, Month: 1}}
	second := []core.MonthlyBudget{
		{BuildingID: 1, Year: 2025, Month: 1},
		{BuildingID: 1, Year: 2025, Month: 2},
	}

	if err := s.WriteBudgets(ctx, "Via Roma 1", first); err != nil {
		t.Fatalf("WriteBudgets() error: %v", err)
	}
	if err := s.WriteBudgets(ctx, "Via Roma 1", second); err != nil {
		t.Fatalf("WriteBudgets() error: %v", err)
	}

	got := s.Budgets("Via Roma 1")
	if len(got) != 2 {
		t.Errorf("stored %d rows, want replacement with 2", len(got))
	}
	if s.Writes() != 2 {
		t.Errorf("Writes() = %d, want 2", s.Writes())
	}
	if len(s.Budgets("elsewhere")) != 0 {
		t.Error("unknown building returned rows")
	}
}
