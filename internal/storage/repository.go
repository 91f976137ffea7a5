// Package storage persists the projection engine's entities in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"condomini/internal/billing"
	"condomini/internal/budget"
	"condomini/internal/core"
	"condomini/internal/ledger"

	_ "modernc.org/sqlite"
)

const dateFormat = "2006-01-02"

// SQLiteRepository implements the store interfaces of the billing, ledger,
// budget, and scheduler packages over one SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// Interface conformance.
var (
	_ billing.Store = (*SQLiteRepository)(nil)
	_ ledger.Store  = (*SQLiteRepository)(nil)
	_ budget.Store  = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ---- buildings and residences ----

func (r *SQLiteRepository) GetBuilding(ctx context.Context, id int64) (*core.Building, error) {
	var (
		b            core.Building
		construction sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, construction_date FROM buildings WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &construction)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: building %d", core.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get building: %w", err)
	}
	b.ConstructionDate = parseDate(construction)
	return &b, nil
}

func (r *SQLiteRepository) GetResidence(ctx context.Context, id int64) (*core.Residence, error) {
	var res core.Residence
	err := r.db.QueryRowContext(ctx,
		`SELECT id, building_id, unit, monthly_fee_cents, status
		 FROM residences WHERE id = ?`, id).
		Scan(&res.ID, &res.BuildingID, &res.Unit, &res.MonthlyFee.Cents, &res.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: residence %d", core.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get residence: %w", err)
	}
	return &res, nil
}

func (r *SQLiteRepository) ListActiveResidences(ctx context.Context) ([]core.Residence, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, building_id, unit, monthly_fee_cents, status
		 FROM residences WHERE status = ? AND monthly_fee_cents > 0 ORDER BY id`,
		core.ResidenceActive)
	if err != nil {
		return nil, fmt.Errorf("list active residences: %w", err)
	}
	defer rows.Close()

	var out []core.Residence
	for rows.Next() {
		var res core.Residence
		if err := rows.Scan(&res.ID, &res.BuildingID, &res.Unit, &res.MonthlyFee.Cents, &res.Status); err != nil {
			return nil, fmt.Errorf("scan residence: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// BuildingForBill resolves the owning building of a bill.
func (r *SQLiteRepository) BuildingForBill(ctx context.Context, billID int64) (int64, error) {
	var buildingID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT building_id FROM bills WHERE id = ?`, billID).Scan(&buildingID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: bill %d", core.ErrNotFound, billID)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve building for bill: %w", err)
	}
	return buildingID, nil
}

// BuildingForResidence resolves the owning building of a residence.
func (r *SQLiteRepository) BuildingForResidence(ctx context.Context, residenceID int64) (int64, error) {
	var buildingID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT building_id FROM residences WHERE id = ?`, residenceID).Scan(&buildingID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: residence %d", core.ErrNotFound, residenceID)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve building for residence: %w", err)
	}
	return buildingID, nil
}

// SystemActor returns the identity automated writes are attributed to.
func (r *SQLiteRepository) SystemActor(ctx context.Context) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT name FROM users WHERE role = 'system' ORDER BY id LIMIT 1`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: system actor", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get system actor: %w", err)
	}
	return name, nil
}

// ---- bills ----

const billColumns = `id, building_id, number, title, category, payment_type,
	schedule, custom_dates, costs_cents, total_cents, start_date, end_date, status`

func (r *SQLiteRepository) GetBill(ctx context.Context, id int64) (*core.Bill, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = ?`, id)
	bill, err := scanBill(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: bill %d", core.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return bill, nil
}

func (r *SQLiteRepository) ListRecurrentBills(ctx context.Context) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+billColumns+` FROM bills
		 WHERE payment_type = ? AND status = ? ORDER BY id`,
		core.PaymentRecurrent, core.BillActive)
	if err != nil {
		return nil, fmt.Errorf("list recurrent bills: %w", err)
	}
	defer rows.Close()

	var out []core.Bill
	for rows.Next() {
		bill, err := scanBill(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, *bill)
	}
	return out, rows.Err()
}

// CreateBill inserts a template; used by seeding and tests.
func (r *SQLiteRepository) CreateBill(ctx context.Context, b core.Bill) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	customJSON, err := json.Marshal(b.CustomDates)
	if err != nil {
		return 0, fmt.Errorf("marshal custom dates: %w", err)
	}
	costs := make([]int64, len(b.Costs))
	for i, c := range b.Costs {
		costs[i] = c.Cents
	}
	costsJSON, err := json.Marshal(costs)
	if err != nil {
		return 0, fmt.Errorf("marshal costs: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bills (building_id, number, title, category, payment_type,
		   schedule, custom_dates, costs_cents, total_cents, start_date, end_date, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BuildingID, b.Number, b.Title, b.Category, b.PaymentType,
		b.Schedule, string(customJSON), string(costsJSON), b.Total.Cents,
		b.StartDate.Format(dateFormat), nullDate(b.EndDate), b.Status)
	if err != nil {
		return 0, fmt.Errorf("create bill: %w", err)
	}
	return res.LastInsertId()
}

func scanBill(scan func(dest ...any) error) (*core.Bill, error) {
	var (
		b          core.Bill
		customJSON string
		costsJSON  string
		endDate    sql.NullString
	)
	err := scan(&b.ID, &b.BuildingID, &b.Number, &b.Title, &b.Category,
		&b.PaymentType, &b.Schedule, &customJSON, &costsJSON,
		&b.Total.Cents, &startDateScanner{&b.StartDate}, &endDate, &b.Status)
	if err != nil {
		return nil, err
	}
	b.EndDate = parseDate(endDate)
	if err := json.Unmarshal([]byte(customJSON), &b.CustomDates); err != nil {
		return nil, fmt.Errorf("unmarshal custom dates: %w", err)
	}
	var costs []int64
	if err := json.Unmarshal([]byte(costsJSON), &costs); err != nil {
		return nil, fmt.Errorf("unmarshal costs: %w", err)
	}
	b.Costs = make([]core.Money, len(costs))
	for i, c := range costs {
		b.Costs[i] = core.Money{Cents: c}
	}
	return &b, nil
}

// startDateScanner parses a non-null date column into a time.Time.
type startDateScanner struct{ t *time.Time }

func (s *startDateScanner) Scan(src any) error {
	switch v := src.(type) {
	case string:
		t, err := time.Parse(dateFormat, v)
		if err != nil {
			return fmt.Errorf("parse date %q: %w", v, err)
		}
		*s.t = t
		return nil
	case time.Time:
		*s.t = v
		return nil
	default:
		return fmt.Errorf("unsupported date type %T", src)
	}
}

// ---- bill instances ----

func (r *SQLiteRepository) CountInstances(ctx context.Context, parentBillID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bill_instances WHERE parent_bill_id = ?`, parentBillID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count instances: %w", err)
	}
	return n, nil
}

// InsertInstances writes one batch inside a transaction; the batch either
// commits whole or not at all.
func (r *SQLiteRepository) InsertInstances(ctx context.Context, batch []core.BillInstance) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO bill_instances (parent_bill_id, building_id, number, title,
		   amount_cents, due_date, status, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, inst := range batch {
		_, err := stmt.ExecContext(ctx,
			inst.ParentBillID, inst.BuildingID, inst.Number, inst.Title,
			inst.Amount.Cents, inst.DueDate.Format(dateFormat), inst.Status, inst.Notes)
		if err != nil {
			return fmt.Errorf("insert instance %s: %w", inst.Number, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListInstances(ctx context.Context, parentBillID int64) ([]core.BillInstance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, parent_bill_id, building_id, number, title, amount_cents,
		   due_date, status, notes
		 FROM bill_instances WHERE parent_bill_id = ? ORDER BY due_date, number`,
		parentBillID)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	var out []core.BillInstance
	for rows.Next() {
		var inst core.BillInstance
		if err := rows.Scan(&inst.ID, &inst.ParentBillID, &inst.BuildingID,
			&inst.Number, &inst.Title, &inst.Amount.Cents,
			&startDateScanner{&inst.DueDate}, &inst.Status, &inst.Notes); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetInstance(ctx context.Context, id int64) (*core.BillInstance, error) {
	var inst core.BillInstance
	err := r.db.QueryRowContext(ctx,
		`SELECT id, parent_bill_id, building_id, number, title, amount_cents,
		   due_date, status, notes
		 FROM bill_instances WHERE id = ?`, id).
		Scan(&inst.ID, &inst.ParentBillID, &inst.BuildingID, &inst.Number,
			&inst.Title, &inst.Amount.Cents, &startDateScanner{&inst.DueDate},
			&inst.Status, &inst.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: instance %d", core.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", err)
	}
	return &inst, nil
}

// UpdateUnpaidInstances applies the non-nil fields to every instance of the
// parent that is not paid or cancelled, returning the affected row count.
func (r *SQLiteRepository) UpdateUnpaidInstances(ctx context.Context, parentBillID int64, fields billing.InstanceUpdate) (int64, error) {
	var (
		sets []string
		args []any
	)
	if fields.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *fields.Title)
	}
	if fields.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, fields.Amount.Cents)
	}
	if fields.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *fields.Notes)
	}
	if len(sets) == 0 {
		return 0, nil
	}
	args = append(args, parentBillID, core.InstancePaid, core.InstanceCancelled)

	res, err := r.db.ExecContext(ctx,
		`UPDATE bill_instances SET `+strings.Join(sets, ", ")+`
		 WHERE parent_bill_id = ? AND status NOT IN (?, ?)`, args...)
	if err != nil {
		return 0, fmt.Errorf("update unpaid instances: %w", err)
	}
	return res.RowsAffected()
}

// DeleteInstances cascades a template deletion. With unpaidOnly, frozen
// (paid/cancelled) instances survive; otherwise every instance due from the
// given time on is removed.
func (r *SQLiteRepository) DeleteInstances(ctx context.Context, parentBillID int64, from time.Time, unpaidOnly bool) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if unpaidOnly {
		res, err = r.db.ExecContext(ctx,
			`DELETE FROM bill_instances
			 WHERE parent_bill_id = ? AND status NOT IN (?, ?)`,
			parentBillID, core.InstancePaid, core.InstanceCancelled)
	} else {
		res, err = r.db.ExecContext(ctx,
			`DELETE FROM bill_instances
			 WHERE parent_bill_id = ? AND due_date >= ?`,
			parentBillID, from.Format(dateFormat))
	}
	if err != nil {
		return 0, fmt.Errorf("delete instances: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) MarkInstancePaid(ctx context.Context, id int64, paymentDate time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bill_instances SET status = ?, paid_at = ? WHERE id = ?`,
		core.InstancePaid, paymentDate.Format(dateFormat), id)
	if err != nil {
		return fmt.Errorf("mark instance paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: instance %d", core.ErrNotFound, id)
	}
	return nil
}

// ---- money flow ----

// InsertEntries writes one ledger batch inside a transaction, ignoring rows
// whose reference number already exists. The returned count is the number of
// rows actually inserted, which callers surface as entriesCreated.
func (r *SQLiteRepository) InsertEntries(ctx context.Context, batch []core.LedgerEntry) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO money_flow (building_id, residence_id, bill_id,
		   type, category, amount_cents, transaction_date, reference_number, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, e := range batch {
		res, err := stmt.ExecContext(ctx,
			e.BuildingID, nullID(e.ResidenceID), nullID(e.BillID),
			e.Type, e.Category, e.Amount.Cents,
			e.TransactionDate.Format(dateFormat), e.ReferenceNumber, e.Notes)
		if err != nil {
			return 0, fmt.Errorf("insert entry %s: %w", e.ReferenceNumber, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *SQLiteRepository) DeleteFutureBillEntries(ctx context.Context, billID int64, from time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM money_flow WHERE bill_id = ? AND transaction_date >= ?`,
		billID, from.Format(dateFormat))
	if err != nil {
		return 0, fmt.Errorf("delete future bill entries: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) DeleteFutureResidenceEntries(ctx context.Context, residenceID int64, from time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM money_flow WHERE residence_id = ? AND transaction_date >= ?`,
		residenceID, from.Format(dateFormat))
	if err != nil {
		return 0, fmt.Errorf("delete future residence entries: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) LedgerStatistics(ctx context.Context) (ledger.Statistics, error) {
	var (
		stats    ledger.Statistics
		earliest sql.NullString
		latest   sql.NullString
		income   sql.NullInt64
		expense  sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		   COUNT(CASE WHEN type = 'income' THEN 1 END),
		   COUNT(CASE WHEN type = 'expense' THEN 1 END),
		   SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END),
		   SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END),
		   MIN(transaction_date), MAX(transaction_date)
		 FROM money_flow`).
		Scan(&stats.TotalEntries, &stats.IncomeEntries, &stats.ExpenseEntries,
			&income, &expense, &earliest, &latest)
	if err != nil {
		return stats, fmt.Errorf("ledger statistics: %w", err)
	}
	stats.TotalIncome = core.Money{Cents: income.Int64}
	stats.TotalExpense = core.Money{Cents: expense.Int64}
	stats.EarliestDate = parseDate(earliest)
	stats.LatestDate = parseDate(latest)
	return stats, nil
}

// MonthlyCategorySums aggregates the building's ledger per (year, month,
// type, category), the raw material of budget rows.
func (r *SQLiteRepository) MonthlyCategorySums(ctx context.Context, buildingID int64) ([]budget.CategorySum, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT CAST(strftime('%Y', transaction_date) AS INTEGER),
		        CAST(strftime('%m', transaction_date) AS INTEGER),
		        type, category, SUM(amount_cents)
		 FROM money_flow WHERE building_id = ?
		 GROUP BY 1, 2, 3, 4`, buildingID)
	if err != nil {
		return nil, fmt.Errorf("monthly category sums: %w", err)
	}
	defer rows.Close()

	var out []budget.CategorySum
	for rows.Next() {
		var s budget.CategorySum
		if err := rows.Scan(&s.Year, &s.Month, &s.Type, &s.Category, &s.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ---- budgets ----

func (r *SQLiteRepository) ListBudgets(ctx context.Context, buildingID int64) ([]core.MonthlyBudget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, building_id, year, month, income_types, incomes_cents,
		   spending_types, spendings_cents, approved, approved_by
		 FROM budgets WHERE building_id = ? ORDER BY year, month`, buildingID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.MonthlyBudget
	for rows.Next() {
		var (
			b             core.MonthlyBudget
			incomeTypes   string
			incomes       string
			spendingTypes string
			spendings     string
		)
		if err := rows.Scan(&b.ID, &b.BuildingID, &b.Year, &b.Month,
			&incomeTypes, &incomes, &spendingTypes, &spendings,
			&b.Approved, &b.ApprovedBy); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if err := decodeBudgetArrays(&b, incomeTypes, incomes, spendingTypes, spendings); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ReplaceBudgets swaps the building's budget rows for the given set inside
// one transaction.
func (r *SQLiteRepository) ReplaceBudgets(ctx context.Context, buildingID int64, budgets []core.MonthlyBudget) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM budgets WHERE building_id = ?`, buildingID); err != nil {
		return fmt.Errorf("delete prior budgets: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO budgets (building_id, year, month, income_types,
		   incomes_cents, spending_types, spendings_cents, approved, approved_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range budgets {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("budget %d-%02d: %w", b.Year, b.Month, err)
		}
		incomeTypes, incomes, spendingTypes, spendings, err := encodeBudgetArrays(b)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			b.BuildingID, b.Year, b.Month, incomeTypes, incomes,
			spendingTypes, spendings, b.Approved, b.ApprovedBy); err != nil {
			return fmt.Errorf("insert budget %d-%02d: %w", b.Year, b.Month, err)
		}
	}
	return tx.Commit()
}

// ---- helpers ----

func encodeBudgetArrays(b core.MonthlyBudget) (incomeTypes, incomes, spendingTypes, spendings string, err error) {
	enc := func(v any) (string, error) {
		raw, err := json.Marshal(v)
		return string(raw), err
	}
	if incomeTypes, err = enc(b.IncomeTypes); err != nil {
		return
	}
	if incomes, err = enc(moneyCents(b.Incomes)); err != nil {
		return
	}
	if spendingTypes, err = enc(b.SpendingTypes); err != nil {
		return
	}
	spendings, err = enc(moneyCents(b.Spendings))
	return
}

func decodeBudgetArrays(b *core.MonthlyBudget, incomeTypes, incomes, spendingTypes, spendings string) error {
	if err := json.Unmarshal([]byte(incomeTypes), &b.IncomeTypes); err != nil {
		return fmt.Errorf("unmarshal income types: %w", err)
	}
	if err := json.Unmarshal([]byte(spendingTypes), &b.SpendingTypes); err != nil {
		return fmt.Errorf("unmarshal spending types: %w", err)
	}
	var cents []int64
	if err := json.Unmarshal([]byte(incomes), &cents); err != nil {
		return fmt.Errorf("unmarshal incomes: %w", err)
	}
	b.Incomes = centsMoney(cents)
	cents = nil
	if err := json.Unmarshal([]byte(spendings), &cents); err != nil {
		return fmt.Errorf("unmarshal spendings: %w", err)
	}
	b.Spendings = centsMoney(cents)
	return nil
}

func moneyCents(in []core.Money) []int64 {
	out := make([]int64, len(in))
	for i, m := range in {
		out[i] = m.Cents
	}
	return out
}

func centsMoney(in []int64) []core.Money {
	out := make([]core.Money, len(in))
	for i, c := range in {
		out[i] = core.Money{Cents: c}
	}
	return out
}

func parseDate(v sql.NullString) time.Time {
	if !v.Valid || v.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateFormat, v.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(dateFormat)
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
