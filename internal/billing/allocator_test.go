package billing

import (
	"testing"
	"time"

	"condomini/internal/core"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAllocatePaymentsSingleCost(t *testing.T) {
	occ := date(2025, 6, 10)
	parts := AllocatePayments([]core.Money{{Cents: 100000}}, occ)
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if !parts[0].DueDate.Equal(occ) {
		t.Errorf("due date = %v, want occurrence %v", parts[0].DueDate, occ)
	}
	if parts[0].Part != 1 || parts[0].Amount.Cents != 100000 {
		t.Errorf("part = %+v, want part 1 of 1000.00", parts[0])
	}
}

func TestAllocatePaymentsStaggersMonthly(t *testing.T) {
	occ := date(2025, 6, 10)
	parts := AllocatePayments([]core.Money{{Cents: 60000}, {Cents: 40000}}, occ)
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}
	if !parts[0].DueDate.Equal(occ) || parts[0].Amount.Cents != 60000 {
		t.Errorf("first part = %+v, want 600.00 due %v", parts[0], occ)
	}
	second := date(2025, 7, 10)
	if !parts[1].DueDate.Equal(second) || parts[1].Amount.Cents != 40000 {
		t.Errorf("second part = %+v, want 400.00 due %v", parts[1], second)
	}
	if parts[1].Part != 2 {
		t.Errorf("second part number = %d, want 2", parts[1].Part)
	}
}

func TestAllocatePaymentsClampsShortMonths(t *testing.T) {
	occ := date(2025, 1, 31)
	parts := AllocatePayments([]core.Money{{Cents: 1}, {Cents: 1}, {Cents: 1}}, occ)
	want := []time.Time{
		date(2025, 1, 31),
		date(2025, 2, 28),
		date(2025, 3, 31), // anchor day restored, not 28+1 month
	}
	for i := range want {
		if !parts[i].DueDate.Equal(want[i]) {
			t.Errorf("part %d due = %v, want %v", i+1, parts[i].DueDate, want[i])
		}
	}
}

func TestAllocatePaymentsDeterministic(t *testing.T) {
	costs := []core.Money{{Cents: 123}, {Cents: 456}}
	occ := date(2025, 4, 15)
	a := AllocatePayments(costs, occ)
	b := AllocatePayments(costs, occ)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("allocation not deterministic at part %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}
