// Package billing expands recurring bill templates into concrete future bill
// instances and maintains their lifecycle (edits, cascades, payment marking).
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"condomini/internal/core"
	"condomini/internal/schedule"
)

// Batch size for instance inserts. A failed batch is logged and skipped so
// one bad record cannot abort the whole generation.
const insertBatchSize = 100

// Store is the persistence surface the materializer needs.
type Store interface {
	GetBill(ctx context.Context, id int64) (*core.Bill, error)
	CountInstances(ctx context.Context, parentBillID int64) (int64, error)
	InsertInstances(ctx context.Context, batch []core.BillInstance) error
	ListInstances(ctx context.Context, parentBillID int64) ([]core.BillInstance, error)
	UpdateUnpaidInstances(ctx context.Context, parentBillID int64, fields InstanceUpdate) (int64, error)
	DeleteInstances(ctx context.Context, parentBillID int64, from time.Time, unpaidOnly bool) (int64, error)
	GetInstance(ctx context.Context, id int64) (*core.BillInstance, error)
	MarkInstancePaid(ctx context.Context, id int64, paymentDate time.Time) error
	SystemActor(ctx context.Context) (string, error)
}

// InstanceUpdate carries the template fields an edit may push down to
// generated instances. Nil fields are left untouched.
type InstanceUpdate struct {
	Title  *string
	Amount *core.Money
	Notes  *string
}

// GenerationResult reports what a generation run durably persisted.
type GenerationResult struct {
	BillsCreated   int
	GeneratedUntil time.Time
	// DefaultCeiling is true when no end date was set on the template and
	// the three-year default window was used.
	DefaultCeiling bool
}

// GeneratedStats summarizes the generated instances of one template.
type GeneratedStats struct {
	TotalGenerated int
	PaidBills      int
	PendingBills   int
	FutureBills    int
	TotalAmount    core.Money
	PaidAmount     core.Money
}

// Materializer turns one recurring bill template into draft instances over a
// bounded window.
type Materializer struct {
	store Store
	now   func() time.Time
}

func NewMaterializer(store Store) *Materializer {
	return &Materializer{store: store, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (m *Materializer) WithNow(now func() time.Time) *Materializer {
	m.now = now
	return m
}

// GenerateFutureInstances expands the template into draft instances from one
// year after its start date up to its end date (or now+3y when open-ended).
// Returns core.ErrNotFound for unknown bills, core.ErrInvalidOperation for
// unique-payment bills, and core.ErrDuplicateGeneration (with zero created)
// when instances already exist: an explicit cascade delete is required before
// re-running.
func (m *Materializer) GenerateFutureInstances(ctx context.Context, billID int64) (GenerationResult, error) {
	var res GenerationResult

	bill, err := m.store.GetBill(ctx, billID)
	if err != nil {
		return res, err
	}
	if !bill.Recurrent() {
		return res, fmt.Errorf("%w: bill %d has unique payment type", core.ErrInvalidOperation, billID)
	}

	existing, err := m.store.CountInstances(ctx, billID)
	if err != nil {
		return res, fmt.Errorf("count instances: %w", err)
	}
	if existing > 0 {
		return res, fmt.Errorf("%w: bill %d has %d instances", core.ErrDuplicateGeneration, billID, existing)
	}

	floor := bill.StartDate.AddDate(1, 0, 0)
	ceiling := bill.EndDate
	if ceiling.IsZero() {
		ceiling = m.now().AddDate(3, 0, 0)
		res.DefaultCeiling = true
	}
	res.GeneratedUntil = ceiling

	occurrences, truncated, err := schedule.Occurrences(floor, ceiling, bill.Schedule, bill.CustomDates)
	if err != nil {
		return res, fmt.Errorf("compute occurrences: %w", err)
	}
	if truncated {
		slog.WarnContext(ctx, "Occurrence expansion truncated",
			"bill_id", billID,
			"cap", schedule.MaxOccurrences)
	}

	actor, err := m.store.SystemActor(ctx)
	if err != nil {
		return res, fmt.Errorf("resolve system actor: %w", err)
	}
	runID := uuid.New()

	var batch []core.BillInstance
	multiPart := len(bill.Costs) > 1
	for _, occ := range occurrences {
		for _, part := range AllocatePayments(bill.Costs, occ) {
			batch = append(batch, m.instanceFor(bill, occ, part, multiPart, actor, runID))
			if len(batch) == insertBatchSize {
				res.BillsCreated += m.persistBatch(ctx, billID, batch)
				batch = batch[:0]
			}
		}
	}
	if len(batch) > 0 {
		res.BillsCreated += m.persistBatch(ctx, billID, batch)
	}

	slog.InfoContext(ctx, "Generated future bill instances",
		"bill_id", billID,
		"created", res.BillsCreated,
		"generated_until", res.GeneratedUntil.Format("2006-01-02"),
		"default_ceiling", res.DefaultCeiling,
		"run_id", runID.String())

	return res, nil
}

func (m *Materializer) instanceFor(bill *core.Bill, occ time.Time, part PaymentPart, multiPart bool, actor string, runID uuid.UUID) core.BillInstance {
	number := fmt.Sprintf("%s-%s", bill.Number, occ.Format("2006-01"))
	if multiPart {
		number = fmt.Sprintf("%s-P%d", number, part.Part)
	}
	return core.BillInstance{
		ParentBillID: bill.ID,
		BuildingID:   bill.BuildingID,
		Number:       number,
		Title:        fmt.Sprintf("%s %s (Auto-Generated)", bill.Title, occ.Format("January 2006")),
		Amount:       part.Amount,
		DueDate:      part.DueDate,
		Status:       core.InstanceDraft,
		Notes:        fmt.Sprintf("generated by %s from bill %s, run %s", actor, bill.Number, runID),
	}
}

// persistBatch inserts one batch and returns how many rows were durably
// written. Failures are logged with enough context for manual replay and
// never abort batches already committed.
func (m *Materializer) persistBatch(ctx context.Context, billID int64, batch []core.BillInstance) int {
	if err := m.store.InsertInstances(ctx, batch); err != nil {
		slog.ErrorContext(ctx, "Failed to persist instance batch",
			"bill_id", billID,
			"batch_size", len(batch),
			"first_due", batch[0].DueDate.Format("2006-01-02"),
			"error", err)
		return 0
	}
	return len(batch)
}

// PropagateEdit pushes template field changes down to the unpaid generated
// instances. Paid and cancelled instances are frozen and never touched.
func (m *Materializer) PropagateEdit(ctx context.Context, parentBillID int64, fields InstanceUpdate) (int64, error) {
	if _, err := m.store.GetBill(ctx, parentBillID); err != nil {
		return 0, err
	}
	updated, err := m.store.UpdateUnpaidInstances(ctx, parentBillID, fields)
	if err != nil {
		return 0, fmt.Errorf("update instances: %w", err)
	}
	slog.InfoContext(ctx, "Propagated template edit to instances",
		"bill_id", parentBillID,
		"updated", updated)
	return updated, nil
}

// DeleteGenerated cascades a template deletion (or schedule change) onto its
// instances. With allFuture every instance due from now on is removed; the
// unpaid-only mode preserves paid and cancelled instances.
func (m *Materializer) DeleteGenerated(ctx context.Context, parentBillID int64, allFuture bool) (int64, error) {
	deleted, err := m.store.DeleteInstances(ctx, parentBillID, m.now(), !allFuture)
	if err != nil {
		return 0, fmt.Errorf("delete instances: %w", err)
	}
	slog.InfoContext(ctx, "Cascade deleted generated instances",
		"bill_id", parentBillID,
		"deleted", deleted,
		"all_future", allFuture)
	return deleted, nil
}

// MarkPaid records the terminal paid transition on one generated instance.
// A zero paymentDate defaults to now.
func (m *Materializer) MarkPaid(ctx context.Context, instanceID int64, paymentDate time.Time) error {
	inst, err := m.store.GetInstance(ctx, instanceID)
	if err != nil {
		return err
	}
	if inst.Status == core.InstancePaid {
		return fmt.Errorf("%w: instance %d is already paid", core.ErrInvalidOperation, instanceID)
	}
	if paymentDate.IsZero() {
		paymentDate = m.now()
	}
	return m.store.MarkInstancePaid(ctx, instanceID, paymentDate)
}

// GeneratedStats aggregates the instances of one template.
func (m *Materializer) GeneratedStats(ctx context.Context, parentBillID int64) (GeneratedStats, error) {
	var stats GeneratedStats
	instances, err := m.store.ListInstances(ctx, parentBillID)
	if err != nil {
		return stats, fmt.Errorf("list instances: %w", err)
	}
	now := m.now()
	for _, inst := range instances {
		stats.TotalGenerated++
		stats.TotalAmount.Cents += inst.Amount.Cents
		switch {
		case inst.Status == core.InstancePaid:
			stats.PaidBills++
			stats.PaidAmount.Cents += inst.Amount.Cents
		case inst.DueDate.After(now):
			stats.FutureBills++
		default:
			stats.PendingBills++
		}
	}
	return stats, nil
}
