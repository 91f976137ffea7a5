package core

import "errors"

// MonthlyBudget is one roll-up row per (building, year, month). The type and
// amount slices are parallel arrays; totals are always recomputed from the
// arrays and never trusted as stored truth.
type MonthlyBudget struct {
	ID            int64
	BuildingID    int64
	Year          int
	Month         int // 1-12
	IncomeTypes   []EntryCategory
	Incomes       []Money
	SpendingTypes []EntryCategory
	Spendings     []Money
	Approved      bool
	ApprovedBy    string
}

func (b MonthlyBudget) Validate() error {
	if b.Month < 1 || b.Month > 12 {
		return errors.New("invalid month")
	}
	if b.Year < 1900 || b.Year > 3000 {
		return errors.New("invalid year")
	}
	if len(b.IncomeTypes) != len(b.Incomes) {
		return errors.New("income arrays length mismatch")
	}
	if len(b.SpendingTypes) != len(b.Spendings) {
		return errors.New("spending arrays length mismatch")
	}
	return nil
}

// TotalIncome sums the income array.
func (b MonthlyBudget) TotalIncome() Money {
	var cents int64
	for _, m := range b.Incomes {
		cents += m.Cents
	}
	return Money{Cents: cents}
}

// TotalSpending sums the spending array.
func (b MonthlyBudget) TotalSpending() Money {
	var cents int64
	for _, m := range b.Spendings {
		cents += m.Cents
	}
	return Money{Cents: cents}
}
