package core

import (
	"testing"
	"time"
)

func validBill() Bill {
	return Bill{
		BuildingID:  1,
		Number:      "B-2025-001",
		Title:       "Electricity supply",
		Category:    CategoryElectricity,
		PaymentType: PaymentRecurrent,
		Schedule:    Monthly,
		Costs:       []Money{{Cents: 10000}},
		Total:       Money{Cents: 10000},
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:      BillActive,
	}
}

func TestBillValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Bill)
		wantErr bool
	}{
		{"valid monthly", func(b *Bill) {}, false},
		{"empty title", func(b *Bill) { b.Title = "  " }, true},
		{"unknown category", func(b *Bill) { b.Category = "snacks" }, true},
		{"zero total", func(b *Bill) { b.Total = Money{} }, true},
		{"no costs", func(b *Bill) { b.Costs = nil }, true},
		{"negative cost", func(b *Bill) { b.Costs = []Money{{Cents: -1}} }, true},
		{"missing start date", func(b *Bill) { b.StartDate = time.Time{} }, true},
		{"end before start", func(b *Bill) {
			b.EndDate = b.StartDate.AddDate(0, 0, -1)
		}, true},
		{"unknown schedule", func(b *Bill) { b.Schedule = "fortnightly" }, true},
		{"custom without dates", func(b *Bill) { b.Schedule = Custom }, true},
		{"custom with dates", func(b *Bill) {
			b.Schedule = Custom
			b.CustomDates = []MonthDay{{Month: 3, Day: 15}, {Month: 9, Day: 15}}
		}, false},
		{"custom dates on monthly", func(b *Bill) {
			b.CustomDates = []MonthDay{{Month: 3, Day: 15}}
		}, true},
		{"invalid custom date", func(b *Bill) {
			b.Schedule = Custom
			b.CustomDates = []MonthDay{{Month: 13, Day: 1}}
		}, true},
		// Unique bills skip schedule validation entirely.
		{"unique ignores schedule", func(b *Bill) {
			b.PaymentType = PaymentUnique
			b.Schedule = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBill()
			tt.mutate(&b)
			err := b.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestMonthDayDate(t *testing.T) {
	tests := []struct {
		name string
		md   MonthDay
		year int
		want time.Time
	}{
		{"plain date", MonthDay{Month: 3, Day: 15}, 2025, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"feb 30 clamps to 28", MonthDay{Month: 2, Day: 30}, 2025, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"feb 30 clamps to 29 in leap year", MonthDay{Month: 2, Day: 30}, 2024, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"apr 31 clamps to 30", MonthDay{Month: 4, Day: 31}, 2025, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.md.Date(tt.year); !got.Equal(tt.want) {
				t.Errorf("Date(%d) = %v, want %v", tt.year, got, tt.want)
			}
		})
	}
}

func TestBillInstanceFrozen(t *testing.T) {
	for status, want := range map[InstanceStatus]bool{
		InstanceDraft:     false,
		InstancePending:   false,
		InstancePaid:      true,
		InstanceCancelled: true,
	} {
		if got := (BillInstance{Status: status}).Frozen(); got != want {
			t.Errorf("Frozen() with status %s = %v, want %v", status, got, want)
		}
	}
}
