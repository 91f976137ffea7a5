// Package budget rolls the money-flow ledger up into one row per
// (building, year, month). Budget rows hold no independent truth and are
// fully rebuildable from the ledger; approval metadata is the one exception
// and is preserved across rebuilds.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"condomini/internal/core"
)

// MaxRowsPerRun caps one repopulation. Buildings whose window would exceed
// it get the window truncated, not an unbounded insert.
const MaxRowsPerRun = 5000

// FutureYears is how far past now budget rows are materialized.
const FutureYears = 3

// CategorySum is one (year, month, category) aggregate from the ledger.
type CategorySum struct {
	Year     int
	Month    int
	Type     core.EntryType
	Category core.EntryCategory
	Amount   core.Money
}

// Store is the persistence surface the aggregator needs.
type Store interface {
	GetBuilding(ctx context.Context, id int64) (*core.Building, error)
	MonthlyCategorySums(ctx context.Context, buildingID int64) ([]CategorySum, error)
	ListBudgets(ctx context.Context, buildingID int64) ([]core.MonthlyBudget, error)
	// ReplaceBudgets atomically swaps the building's budget rows for the
	// given set.
	ReplaceBudgets(ctx context.Context, buildingID int64, rows []core.MonthlyBudget) error
}

// Aggregator rebuilds a building's monthly budgets from its ledger.
type Aggregator struct {
	store Store
	now   func() time.Time
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (a *Aggregator) WithNow(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Repopulate rebuilds every budget row of the building, one per month from
// its construction date (current year when unknown) through now+3 years, and
// returns the number of rows written. Rows are merged by (year, month):
// amounts are always recomputed from the ledger while approval metadata of
// pre-existing rows is carried over.
func (a *Aggregator) Repopulate(ctx context.Context, buildingID int64) (int, error) {
	building, err := a.store.GetBuilding(ctx, buildingID)
	if err != nil {
		return 0, err
	}

	sums, err := a.store.MonthlyCategorySums(ctx, buildingID)
	if err != nil {
		return 0, fmt.Errorf("aggregate ledger: %w", err)
	}
	incomeCats, expenseCats := discoverCategories(sums)

	existing, err := a.store.ListBudgets(ctx, buildingID)
	if err != nil {
		return 0, fmt.Errorf("list budgets: %w", err)
	}
	approval := make(map[[2]int]core.MonthlyBudget, len(existing))
	for _, row := range existing {
		approval[[2]int{row.Year, row.Month}] = row
	}

	type monthCat struct {
		year, month int
		cat         core.EntryCategory
	}
	byKey := make(map[monthCat]core.Money, len(sums))
	for _, s := range sums {
		byKey[monthCat{s.Year, s.Month, s.Category}] = s.Amount
	}

	now := a.now()
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if !building.ConstructionDate.IsZero() {
		start = time.Date(building.ConstructionDate.Year(), building.ConstructionDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	end := time.Date(now.Year()+FutureYears, time.December, 1, 0, 0, 0, 0, time.UTC)

	var rows []core.MonthlyBudget
	truncated := false
	for month := start; !month.After(end); month = month.AddDate(0, 1, 0) {
		if len(rows) == MaxRowsPerRun {
			truncated = true
			break
		}
		row := core.MonthlyBudget{
			BuildingID:    buildingID,
			Year:          month.Year(),
			Month:         int(month.Month()),
			IncomeTypes:   incomeCats,
			SpendingTypes: expenseCats,
		}
		for _, cat := range incomeCats {
			row.Incomes = append(row.Incomes, byKey[monthCat{row.Year, row.Month, cat}])
		}
		for _, cat := range expenseCats {
			row.Spendings = append(row.Spendings, byKey[monthCat{row.Year, row.Month, cat}])
		}
		if prev, ok := approval[[2]int{row.Year, row.Month}]; ok {
			row.Approved = prev.Approved
			row.ApprovedBy = prev.ApprovedBy
		}
		rows = append(rows, row)
	}
	if truncated {
		slog.WarnContext(ctx, "Budget window truncated at row cap",
			"building_id", buildingID,
			"cap", MaxRowsPerRun)
	}

	if err := a.store.ReplaceBudgets(ctx, buildingID, rows); err != nil {
		return 0, fmt.Errorf("replace budgets: %w", err)
	}

	slog.InfoContext(ctx, "Repopulated building budgets",
		"building_id", buildingID,
		"rows", len(rows),
		"income_categories", len(incomeCats),
		"spending_categories", len(expenseCats))
	return len(rows), nil
}

// discoverCategories returns the distinct income and expense categories
// actually present in the ledger, sorted for deterministic array ordering.
// Buildings with no history fall back to the fixed default lists so new
// buildings still get a usable zero-valued skeleton.
func discoverCategories(sums []CategorySum) (income, expense []core.EntryCategory) {
	seenIncome := map[core.EntryCategory]struct{}{}
	seenExpense := map[core.EntryCategory]struct{}{}
	for _, s := range sums {
		switch s.Type {
		case core.EntryIncome:
			seenIncome[s.Category] = struct{}{}
		case core.EntryExpense:
			seenExpense[s.Category] = struct{}{}
		}
	}
	for cat := range seenIncome {
		income = append(income, cat)
	}
	for cat := range seenExpense {
		expense = append(expense, cat)
	}
	if len(income) == 0 {
		income = core.DefaultIncomeCategories()
	}
	if len(expense) == 0 {
		expense = core.DefaultExpenseCategories()
	}
	sort.Slice(income, func(i, j int) bool { return income[i] < income[j] })
	sort.Slice(expense, func(i, j int) bool { return expense[i] < expense[j] })
	return income, expense
}
