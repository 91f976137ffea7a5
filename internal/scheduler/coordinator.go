// Package scheduler decouples "a bill or residence changed" from "recompute
// ledger and budget", absorbing edit bursts with a fixed-delay, deduplicated
// task queue.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultDelay is how long the coordinator waits after the first
// notification before recomputing, so bursts of edits collapse into one run.
const DefaultDelay = 15 * time.Minute

// LedgerRunner regenerates ledger projections for a single source.
type LedgerRunner interface {
	GenerateForBill(ctx context.Context, billID int64) (int, error)
	GenerateForResidence(ctx context.Context, residenceID int64) (int, error)
}

// BudgetRunner rebuilds a building's monthly budgets.
type BudgetRunner interface {
	Repopulate(ctx context.Context, buildingID int64) (int, error)
}

// OwnerResolver maps a changed source onto its owning building.
type OwnerResolver interface {
	BuildingForBill(ctx context.Context, billID int64) (int64, error)
	BuildingForResidence(ctx context.Context, residenceID int64) (int64, error)
}

// BudgetListener is told when a building's budgets were rebuilt (e.g. to
// export a report). May be nil.
type BudgetListener interface {
	BudgetUpdated(ctx context.Context, buildingID int64)
}

// Status is the coordinator's introspection snapshot.
type Status struct {
	Delay             time.Duration
	PendingBills      int
	PendingResidences int
	PendingBuildings  int
}

// Coordinator holds the three pending-id sets and the delayed queue. It is
// an explicitly constructed object; there is no package-level state. The
// pending sets guarantee at most one in-flight regeneration per id - entries
// clear only once the scheduled chain completes, success or failure.
type Coordinator struct {
	ledger   LedgerRunner
	budget   BudgetRunner
	resolver OwnerResolver
	listener BudgetListener
	queue    *DelayedQueue
	delay    time.Duration

	mu                sync.Mutex
	pendingBills      map[int64]struct{}
	pendingResidences map[int64]struct{}
	pendingBuildings  map[int64]struct{}
}

func NewCoordinator(ledger LedgerRunner, budget BudgetRunner, resolver OwnerResolver, listener BudgetListener, delay time.Duration, clock Clock) *Coordinator {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Coordinator{
		ledger:            ledger,
		budget:            budget,
		resolver:          resolver,
		listener:          listener,
		queue:             NewDelayedQueue(clock),
		delay:             delay,
		pendingBills:      make(map[int64]struct{}),
		pendingResidences: make(map[int64]struct{}),
		pendingBuildings:  make(map[int64]struct{}),
	}
}

// Run drives the delayed queue until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	c.queue.Run(ctx)
}

// NotifyBillChanged schedules a delayed ledger+budget recomputation for the
// bill. A notification for an already-pending id is ignored: no timer reset,
// no duplicate task.
func (c *Coordinator) NotifyBillChanged(billID int64) {
	if !c.claim(c.pendingBills, billID) {
		slog.Debug("Bill change already pending, ignoring", "bill_id", billID)
		return
	}
	c.queue.Schedule(fmt.Sprintf("bill:%d", billID), c.delay, func(ctx context.Context) {
		defer c.release(c.pendingBills, billID)
		c.runBillChain(ctx, billID)
	})
}

// NotifyResidenceChanged is the residence counterpart of NotifyBillChanged.
func (c *Coordinator) NotifyResidenceChanged(residenceID int64) {
	if !c.claim(c.pendingResidences, residenceID) {
		slog.Debug("Residence change already pending, ignoring", "residence_id", residenceID)
		return
	}
	c.queue.Schedule(fmt.Sprintf("residence:%d", residenceID), c.delay, func(ctx context.Context) {
		defer c.release(c.pendingResidences, residenceID)
		c.runResidenceChain(ctx, residenceID)
	})
}

// ForceBillNow runs the full bill chain synchronously, including the budget
// step, producing the same end state the delayed path would.
func (c *Coordinator) ForceBillNow(ctx context.Context, billID int64) error {
	entries, err := c.ledger.GenerateForBill(ctx, billID)
	if err != nil {
		return fmt.Errorf("generate ledger for bill %d: %w", billID, err)
	}
	buildingID, err := c.resolver.BuildingForBill(ctx, billID)
	if err != nil {
		return fmt.Errorf("resolve building for bill %d: %w", billID, err)
	}
	slog.InfoContext(ctx, "Forced bill recomputation", "bill_id", billID, "entries", entries)
	return c.repopulateBudget(ctx, buildingID)
}

// ForceResidenceNow is the residence counterpart of ForceBillNow.
func (c *Coordinator) ForceResidenceNow(ctx context.Context, residenceID int64) error {
	entries, err := c.ledger.GenerateForResidence(ctx, residenceID)
	if err != nil {
		return fmt.Errorf("generate ledger for residence %d: %w", residenceID, err)
	}
	buildingID, err := c.resolver.BuildingForResidence(ctx, residenceID)
	if err != nil {
		return fmt.Errorf("resolve building for residence %d: %w", residenceID, err)
	}
	slog.InfoContext(ctx, "Forced residence recomputation", "residence_id", residenceID, "entries", entries)
	return c.repopulateBudget(ctx, buildingID)
}

// Status reports the configured delay and the size of each pending set.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Delay:             c.delay,
		PendingBills:      len(c.pendingBills),
		PendingResidences: len(c.pendingResidences),
		PendingBuildings:  len(c.pendingBuildings),
	}
}

// runBillChain regenerates the bill's ledger and chains the budget step.
// Every failure is caught and logged here: an escaping error would silently
// lose scheduled work.
func (c *Coordinator) runBillChain(ctx context.Context, billID int64) {
	entries, err := c.ledger.GenerateForBill(ctx, billID)
	if err != nil {
		slog.ErrorContext(ctx, "Scheduled ledger regeneration failed",
			"bill_id", billID, "error", err)
		return
	}
	buildingID, err := c.resolver.BuildingForBill(ctx, billID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to resolve owning building",
			"bill_id", billID, "error", err)
		return
	}
	slog.InfoContext(ctx, "Scheduled bill recomputation complete",
		"bill_id", billID, "entries", entries, "building_id", buildingID)
	c.notifyBudget(buildingID)
}

func (c *Coordinator) runResidenceChain(ctx context.Context, residenceID int64) {
	entries, err := c.ledger.GenerateForResidence(ctx, residenceID)
	if err != nil {
		slog.ErrorContext(ctx, "Scheduled ledger regeneration failed",
			"residence_id", residenceID, "error", err)
		return
	}
	buildingID, err := c.resolver.BuildingForResidence(ctx, residenceID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to resolve owning building",
			"residence_id", residenceID, "error", err)
		return
	}
	slog.InfoContext(ctx, "Scheduled residence recomputation complete",
		"residence_id", residenceID, "entries", entries, "building_id", buildingID)
	c.notifyBudget(buildingID)
}

// notifyBudget schedules the building's budget rebuild under the same dedup
// rule as source notifications.
func (c *Coordinator) notifyBudget(buildingID int64) {
	if !c.claim(c.pendingBuildings, buildingID) {
		slog.Debug("Budget rebuild already pending, ignoring", "building_id", buildingID)
		return
	}
	c.queue.Schedule(fmt.Sprintf("building:%d", buildingID), c.delay, func(ctx context.Context) {
		defer c.release(c.pendingBuildings, buildingID)
		if err := c.repopulateBudget(ctx, buildingID); err != nil {
			slog.ErrorContext(ctx, "Scheduled budget rebuild failed",
				"building_id", buildingID, "error", err)
		}
	})
}

func (c *Coordinator) repopulateBudget(ctx context.Context, buildingID int64) error {
	rows, err := c.budget.Repopulate(ctx, buildingID)
	if err != nil {
		return fmt.Errorf("repopulate budgets for building %d: %w", buildingID, err)
	}
	slog.InfoContext(ctx, "Budget rebuild complete", "building_id", buildingID, "rows", rows)
	if c.listener != nil {
		c.listener.BudgetUpdated(ctx, buildingID)
	}
	return nil
}

// claim adds id to the set, returning false when it was already pending.
func (c *Coordinator) claim(set map[int64]struct{}, id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, pending := set[id]; pending {
		return false
	}
	set[id] = struct{}{}
	return true
}

func (c *Coordinator) release(set map[int64]struct{}, id int64) {
	c.mu.Lock()
	delete(set, id)
	c.mu.Unlock()
}
