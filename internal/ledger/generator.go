// Package ledger maintains the money-flow projection: expense entries for
// recurring bills and income entries for residence fees, kept over a fixed
// 25-year rolling horizon.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"condomini/internal/billing"
	"condomini/internal/core"
	"condomini/internal/schedule"
)

// HorizonYears is how far ahead of now the projection is materialized.
const HorizonYears = 25

const insertBatchSize = 100

// Store is the persistence surface the generator needs.
type Store interface {
	GetBill(ctx context.Context, id int64) (*core.Bill, error)
	ListRecurrentBills(ctx context.Context) ([]core.Bill, error)
	GetResidence(ctx context.Context, id int64) (*core.Residence, error)
	ListActiveResidences(ctx context.Context) ([]core.Residence, error)
	DeleteFutureBillEntries(ctx context.Context, billID int64, from time.Time) (int64, error)
	DeleteFutureResidenceEntries(ctx context.Context, residenceID int64, from time.Time) (int64, error)
	// InsertEntries writes a batch, ignoring rows whose reference number
	// already exists, and returns how many rows were actually inserted.
	InsertEntries(ctx context.Context, batch []core.LedgerEntry) (int64, error)
	LedgerStatistics(ctx context.Context) (Statistics, error)
}

// Statistics are the aggregate bounds of the ledger, for introspection.
type Statistics struct {
	TotalEntries   int64
	IncomeEntries  int64
	ExpenseEntries int64
	TotalIncome    core.Money
	TotalExpense   core.Money
	EarliestDate   time.Time
	LatestDate     time.Time
}

// billCategoryMap is the fixed lookup from bill category to expense
// category. Unmapped categories land in other_expense.
var billCategoryMap = map[core.BillCategory]core.EntryCategory{
	core.CategoryElectricity: core.ExpenseUtilities,
	core.CategoryWater:       core.ExpenseUtilities,
	core.CategoryGas:         core.ExpenseUtilities,
	core.CategoryCleaning:    core.ExpenseCleaning,
	core.CategoryMaintenance: core.ExpenseMaintenance,
	core.CategoryInsurance:   core.ExpenseInsurance,
	core.CategorySecurity:    core.ExpenseSecurity,
	core.CategoryManagement:  core.ExpenseManagement,
	core.CategoryTaxes:       core.ExpenseTaxes,
}

// ExpenseCategoryFor maps a bill category onto its ledger expense category.
func ExpenseCategoryFor(c core.BillCategory) core.EntryCategory {
	if mapped, ok := billCategoryMap[c]; ok {
		return mapped
	}
	return core.ExpenseOther
}

// Generator projects bills and residence fees into money-flow entries. Each
// run is clean -> generate -> persist; the reference number makes reruns of
// the same source+period idempotent.
type Generator struct {
	store Store
	now   func() time.Time
}

func NewGenerator(store Store) *Generator {
	return &Generator{store: store, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (g *Generator) WithNow(now func() time.Time) *Generator {
	g.now = now
	return g
}

// GenerateForBill regenerates the expense projection of a single bill.
// Returns the number of entries durably persisted.
func (g *Generator) GenerateForBill(ctx context.Context, billID int64) (int, error) {
	bill, err := g.store.GetBill(ctx, billID)
	if err != nil {
		return 0, err
	}
	return g.regenerateBill(ctx, bill)
}

// GenerateForResidence regenerates the fee income projection of a single
// residence.
func (g *Generator) GenerateForResidence(ctx context.Context, residenceID int64) (int, error) {
	res, err := g.store.GetResidence(ctx, residenceID)
	if err != nil {
		return 0, err
	}
	return g.regenerateResidence(ctx, res)
}

// GenerateAll runs the projection for every recurrent bill and every active
// residence. A failing source is logged and skipped; the returned count only
// covers persisted entries.
func (g *Generator) GenerateAll(ctx context.Context) (int, error) {
	total := 0

	bills, err := g.store.ListRecurrentBills(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurrent bills: %w", err)
	}
	for i := range bills {
		n, err := g.regenerateBill(ctx, &bills[i])
		if err != nil {
			slog.ErrorContext(ctx, "Ledger projection failed for bill",
				"bill_id", bills[i].ID, "error", err)
			continue
		}
		total += n
	}

	residences, err := g.store.ListActiveResidences(ctx)
	if err != nil {
		return total, fmt.Errorf("list active residences: %w", err)
	}
	for i := range residences {
		n, err := g.regenerateResidence(ctx, &residences[i])
		if err != nil {
			slog.ErrorContext(ctx, "Ledger projection failed for residence",
				"residence_id", residences[i].ID, "error", err)
			continue
		}
		total += n
	}

	slog.InfoContext(ctx, "Global ledger projection complete",
		"bills", len(bills),
		"residences", len(residences),
		"entries_created", total)
	return total, nil
}

// Statistics returns the ledger's aggregate counts and date bounds.
func (g *Generator) Statistics(ctx context.Context) (Statistics, error) {
	return g.store.LedgerStatistics(ctx)
}

func (g *Generator) regenerateBill(ctx context.Context, bill *core.Bill) (int, error) {
	if !bill.Recurrent() {
		return 0, fmt.Errorf("%w: bill %d has unique payment type", core.ErrInvalidOperation, bill.ID)
	}
	now := g.now()

	// CLEAN: drop the bill's future entries before regenerating.
	cleaned, err := g.store.DeleteFutureBillEntries(ctx, bill.ID, now)
	if err != nil {
		return 0, fmt.Errorf("clean future entries: %w", err)
	}

	end := now.AddDate(HorizonYears, 0, 0)
	if !bill.EndDate.IsZero() && bill.EndDate.Before(end) {
		end = bill.EndDate
	}

	// GENERATE: walk the template's stored schedule, never an inferred one.
	// The walk starts at the bill's start date so occurrences keep their
	// anchor day; past-due entries are filtered below, mirroring the clean
	// criterion.
	occurrences, truncated, err := schedule.Occurrences(bill.StartDate, end, bill.Schedule, bill.CustomDates)
	if err != nil {
		return 0, fmt.Errorf("compute occurrences: %w", err)
	}
	if truncated {
		slog.WarnContext(ctx, "Ledger occurrence expansion truncated",
			"bill_id", bill.ID, "cap", schedule.MaxOccurrences)
	}

	category := ExpenseCategoryFor(bill.Category)
	today := midnight(now)
	var entries []core.LedgerEntry
	for _, occ := range occurrences {
		for _, part := range billing.AllocatePayments(bill.Costs, occ) {
			if part.DueDate.Before(today) {
				continue
			}
			entries = append(entries, core.LedgerEntry{
				BuildingID:      bill.BuildingID,
				BillID:          bill.ID,
				Type:            core.EntryExpense,
				Category:        category,
				Amount:          part.Amount,
				TransactionDate: part.DueDate,
				ReferenceNumber: fmt.Sprintf("%s-%s", bill.Number, part.DueDate.Format("2006-01-02")),
				Notes:           fmt.Sprintf("projected from bill %s", bill.Number),
			})
		}
	}

	created := g.persist(ctx, "bill", bill.ID, entries)
	slog.InfoContext(ctx, "Regenerated bill ledger projection",
		"bill_id", bill.ID,
		"cleaned", cleaned,
		"created", created)
	return created, nil
}

func (g *Generator) regenerateResidence(ctx context.Context, res *core.Residence) (int, error) {
	if res.Status != core.ResidenceActive || res.MonthlyFee.Cents <= 0 {
		return 0, fmt.Errorf("%w: residence %d is inactive or has no fee", core.ErrInvalidOperation, res.ID)
	}
	now := g.now()

	cleaned, err := g.store.DeleteFutureResidenceEntries(ctx, res.ID, now)
	if err != nil {
		return 0, fmt.Errorf("clean future entries: %w", err)
	}

	// Residence fees are fixed-monthly: one entry on the first day of each
	// future calendar month inside the horizon.
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if month.Before(midnight(now)) {
		month = month.AddDate(0, 1, 0)
	}
	end := now.AddDate(HorizonYears, 0, 0)

	var entries []core.LedgerEntry
	for !month.After(end) {
		entries = append(entries, core.LedgerEntry{
			BuildingID:      res.BuildingID,
			ResidenceID:     res.ID,
			Type:            core.EntryIncome,
			Category:        core.IncomeMonthlyFees,
			Amount:          res.MonthlyFee,
			TransactionDate: month,
			ReferenceNumber: fmt.Sprintf("MONTHLY-%d-%s", res.ID, month.Format("2006-01")),
			Notes:           fmt.Sprintf("monthly fee for unit %s", res.Unit),
		})
		month = month.AddDate(0, 1, 0)
	}

	created := g.persist(ctx, "residence", res.ID, entries)
	slog.InfoContext(ctx, "Regenerated residence ledger projection",
		"residence_id", res.ID,
		"cleaned", cleaned,
		"created", created)
	return created, nil
}

// persist writes entries in batches. A failing batch is logged with the
// source id and period so it can be replayed manually, then skipped.
func (g *Generator) persist(ctx context.Context, sourceKind string, sourceID int64, entries []core.LedgerEntry) int {
	created := 0
	for off := 0; off < len(entries); off += insertBatchSize {
		hi := off + insertBatchSize
		if hi > len(entries) {
			hi = len(entries)
		}
		batch := entries[off:hi]
		n, err := g.store.InsertEntries(ctx, batch)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to persist ledger batch",
				"source", sourceKind,
				"source_id", sourceID,
				"period_from", batch[0].TransactionDate.Format("2006-01-02"),
				"period_to", batch[len(batch)-1].TransactionDate.Format("2006-01-02"),
				"error", err)
			continue
		}
		created += int(n)
	}
	return created
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
