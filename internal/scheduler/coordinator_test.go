package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeRunners struct {
	mu             sync.Mutex
	billRuns       map[int64]int
	residenceRuns  map[int64]int
	budgetRuns     map[int64]int
	budgetUpdates  []int64
	billBuilding   map[int64]int64
	residenceOwner map[int64]int64
}

func newFakeRunners() *fakeRunners {
	return &fakeRunners{
		billRuns:       map[int64]int{},
		residenceRuns:  map[int64]int{},
		budgetRuns:     map[int64]int{},
		billBuilding:   map[int64]int64{},
		residenceOwner: map[int64]int64{},
	}
}

func (f *fakeRunners) GenerateForBill(_ context.Context, billID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.billRuns[billID]++
	return 1, nil
}

func (f *fakeRunners) GenerateForResidence(_ context.Context, residenceID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.residenceRuns[residenceID]++
	return 1, nil
}

func (f *fakeRunners) Repopulate(_ context.Context, buildingID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.budgetRuns[buildingID]++
	return 1, nil
}

func (f *fakeRunners) BuildingForBill(_ context.Context, billID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.billBuilding[billID], nil
}

func (f *fakeRunners) BuildingForResidence(_ context.Context, residenceID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.residenceOwner[residenceID], nil
}

func (f *fakeRunners) BudgetUpdated(_ context.Context, buildingID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.budgetUpdates = append(f.budgetUpdates, buildingID)
}

func (f *fakeRunners) snapshot() (bills, budgets map[int64]int, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bills = map[int64]int{}
	for k, v := range f.billRuns {
		bills[k] = v
	}
	budgets = map[int64]int{}
	for k, v := range f.budgetRuns {
		budgets[k] = v
	}
	return bills, budgets, len(f.budgetUpdates)
}

func startCoordinator(t *testing.T, f *fakeRunners, delay time.Duration) *Coordinator {
	t.Helper()
	c := NewCoordinator(f, f, f, f, delay, RealClock())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go c.Run(ctx)
	return c
}

func TestNotifyBillChangedDebounces(t *testing.T) {
	f := newFakeRunners()
	f.billBuilding[10] = 1
	c := startCoordinator(t, f, 20*time.Millisecond)

	// A burst of notifications collapses into one pending task with no
	// timer reset.
	c.NotifyBillChanged(10)
	c.NotifyBillChanged(10)
	c.NotifyBillChanged(10)

	if st := c.Status(); st.PendingBills != 1 {
		t.Errorf("PendingBills = %d after burst, want 1", st.PendingBills)
	}

	waitFor(t, func() bool {
		bills, budgets, _ := f.snapshot()
		return bills[10] == 1 && budgets[1] == 1
	}, "chain did not complete")

	bills, _, _ := f.snapshot()
	if bills[10] != 1 {
		t.Errorf("bill regenerations = %d, want 1", bills[10])
	}

	waitFor(t, func() bool {
		st := c.Status()
		return st.PendingBills == 0 && st.PendingBuildings == 0
	}, "pending sets not cleared")

	// Once cleared, a fresh notification schedules again.
	c.NotifyBillChanged(10)
	if st := c.Status(); st.PendingBills != 1 {
		t.Errorf("PendingBills = %d after re-notify, want 1", st.PendingBills)
	}
}

func TestNotifyChainsBudgetPerBuilding(t *testing.T) {
	f := newFakeRunners()
	f.billBuilding[10] = 1
	f.billBuilding[11] = 1 // same building as bill 10
	f.residenceOwner[20] = 2
	c := startCoordinator(t, f, 10*time.Millisecond)

	c.NotifyBillChanged(10)
	c.NotifyBillChanged(11)
	c.NotifyResidenceChanged(20)

	waitFor(t, func() bool {
		bills, budgets, updates := f.snapshot()
		return bills[10] == 1 && bills[11] == 1 && budgets[1] >= 1 && budgets[2] == 1 && updates >= 2
	}, "chains did not complete")

	// Both bills share building 1; its rebuild is deduplicated to one run.
	_, budgets, _ := f.snapshot()
	if budgets[1] != 1 {
		t.Errorf("building 1 rebuilds = %d, want 1", budgets[1])
	}
}

func TestForceBillNowRunsSynchronously(t *testing.T) {
	f := newFakeRunners()
	f.billBuilding[10] = 1
	// Long delay: the scheduled path would not fire during this test.
	c := NewCoordinator(f, f, f, f, time.Hour, RealClock())

	if err := c.ForceBillNow(context.Background(), 10); err != nil {
		t.Fatalf("ForceBillNow() error: %v", err)
	}

	bills, budgets, updates := f.snapshot()
	if bills[10] != 1 || budgets[1] != 1 || updates != 1 {
		t.Errorf("force chain = bill %d / budget %d / updates %d, want 1/1/1",
			bills[10], budgets[1], updates)
	}
}

func TestForceResidenceNowRunsSynchronously(t *testing.T) {
	f := newFakeRunners()
	f.residenceOwner[20] = 3
	c := NewCoordinator(f, f, f, f, time.Hour, RealClock())

	if err := c.ForceResidenceNow(context.Background(), 20); err != nil {
		t.Fatalf("ForceResidenceNow() error: %v", err)
	}
	_, budgets, _ := f.snapshot()
	if budgets[3] != 1 {
		t.Errorf("building 3 rebuilds = %d, want 1", budgets[3])
	}
}

func TestCoordinatorStatus(t *testing.T) {
	f := newFakeRunners()
	c := NewCoordinator(f, f, f, nil, 0, RealClock())
	st := c.Status()
	if st.Delay != DefaultDelay {
		t.Errorf("Delay = %v, want default %v", st.Delay, DefaultDelay)
	}
	if st.PendingBills != 0 || st.PendingResidences != 0 || st.PendingBuildings != 0 {
		t.Errorf("fresh coordinator has pending work: %+v", st)
	}
}
