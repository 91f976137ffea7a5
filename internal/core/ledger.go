package core

import (
	"errors"
	"time"
)

const (
	EntryIncome  EntryType = "income"
	EntryExpense EntryType = "expense"
)

// Income categories.
const (
	IncomeMonthlyFees         EntryCategory = "monthly_fees"
	IncomeSpecialContribution EntryCategory = "special_contribution"
	IncomeOther               EntryCategory = "other_income"
)

// Expense categories.
const (
	ExpenseUtilities   EntryCategory = "utilities"
	ExpenseCleaning    EntryCategory = "cleaning"
	ExpenseMaintenance EntryCategory = "maintenance"
	ExpenseInsurance   EntryCategory = "insurance"
	ExpenseSecurity    EntryCategory = "security"
	ExpenseManagement  EntryCategory = "management_fees"
	ExpenseTaxes       EntryCategory = "taxes"
	ExpenseOther       EntryCategory = "other_expense"
)

type (
	EntryType     string
	EntryCategory string

	// LedgerEntry is one income or expense money-flow record. The
	// ReferenceNumber is the idempotency key: regenerating the same
	// source+period must never duplicate a row.
	LedgerEntry struct {
		ID              int64
		BuildingID      int64
		ResidenceID     int64 // 0 when the source is a bill
		BillID          int64 // 0 when the source is a residence
		Type            EntryType
		Category        EntryCategory
		Amount          Money
		TransactionDate time.Time
		ReferenceNumber string
		Notes           string
	}
)

var incomeCategories = map[EntryCategory]struct{}{
	IncomeMonthlyFees: {}, IncomeSpecialContribution: {}, IncomeOther: {},
}

var expenseCategories = map[EntryCategory]struct{}{
	ExpenseUtilities: {}, ExpenseCleaning: {}, ExpenseMaintenance: {},
	ExpenseInsurance: {}, ExpenseSecurity: {}, ExpenseManagement: {},
	ExpenseTaxes: {}, ExpenseOther: {},
}

func (e LedgerEntry) Validate() error {
	switch e.Type {
	case EntryIncome:
		if _, ok := incomeCategories[e.Category]; !ok {
			return ErrInvalidCategory
		}
	case EntryExpense:
		if _, ok := expenseCategories[e.Category]; !ok {
			return ErrInvalidCategory
		}
	default:
		return errors.New("invalid entry type")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.TransactionDate.IsZero() {
		return errors.New("transaction date is required")
	}
	if e.ReferenceNumber == "" {
		return errors.New("reference number is required")
	}
	return nil
}

// DefaultIncomeCategories is the skeleton used for buildings without any
// ledger history, so freshly created buildings get usable zero-valued budgets.
func DefaultIncomeCategories() []EntryCategory {
	return []EntryCategory{IncomeMonthlyFees, IncomeOther}
}

// DefaultExpenseCategories mirrors DefaultIncomeCategories for the spending side.
func DefaultExpenseCategories() []EntryCategory {
	return []EntryCategory{
		ExpenseUtilities, ExpenseCleaning, ExpenseMaintenance, ExpenseOther,
	}
}
