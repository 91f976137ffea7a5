package schedule

import (
	"errors"
	"testing"
	"time"

	"condomini/internal/core"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOccurrencesCounts(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		kind  core.Schedule
		want  int
	}{
		{"monthly full year", date(2025, 1, 1), date(2025, 12, 31), core.Monthly, 12},
		{"monthly inclusive end", date(2025, 1, 1), date(2025, 12, 1), core.Monthly, 12},
		{"quarterly full year", date(2025, 1, 1), date(2025, 12, 31), core.Quarterly, 4},
		{"yearly five years", date(2025, 6, 1), date(2029, 6, 1), core.Yearly, 5},
		{"weekly four weeks", date(2025, 1, 6), date(2025, 1, 27), core.Weekly, 4},
		{"single day window", date(2025, 3, 10), date(2025, 3, 10), core.Monthly, 1},
		{"end before start", date(2025, 3, 10), date(2025, 3, 9), core.Monthly, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated, err := Occurrences(tt.start, tt.end, tt.kind, nil)
			if err != nil {
				t.Fatalf("Occurrences() error: %v", err)
			}
			if truncated {
				t.Error("unexpected truncation")
			}
			if len(got) != tt.want {
				t.Errorf("got %d occurrences, want %d", len(got), tt.want)
			}
			for i := 1; i < len(got); i++ {
				if !got[i].After(got[i-1]) {
					t.Errorf("sequence not strictly increasing at %d: %v then %v", i, got[i-1], got[i])
				}
			}
		})
	}
}

func TestOccurrencesMonthEndClamp(t *testing.T) {
	// Anchored on the 31st: short months clamp, long months restore the
	// anchor day.
	got, _, err := Occurrences(date(2025, 1, 31), date(2025, 5, 31), core.Monthly, nil)
	if err != nil {
		t.Fatalf("Occurrences() error: %v", err)
	}
	want := []time.Time{
		date(2025, 1, 31),
		date(2025, 2, 28),
		date(2025, 3, 31),
		date(2025, 4, 30),
		date(2025, 5, 31),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestOccurrencesCustom(t *testing.T) {
	custom := []core.MonthDay{{Month: 9, Day: 15}, {Month: 3, Day: 15}}
	got, _, err := Occurrences(date(2025, 1, 1), date(2026, 12, 31), core.Custom, custom)
	if err != nil {
		t.Fatalf("Occurrences() error: %v", err)
	}
	want := []time.Time{
		date(2025, 3, 15), date(2025, 9, 15),
		date(2026, 3, 15), date(2026, 9, 15),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestOccurrencesCustomClampDedup(t *testing.T) {
	// Feb 29 and Feb 30 both clamp to Feb 28 in a non-leap year; the
	// duplicate must be dropped.
	custom := []core.MonthDay{{Month: 2, Day: 29}, {Month: 2, Day: 30}}
	got, _, err := Occurrences(date(2025, 1, 1), date(2025, 12, 31), core.Custom, custom)
	if err != nil {
		t.Fatalf("Occurrences() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(got))
	}
	if !got[0].Equal(date(2025, 2, 28)) {
		t.Errorf("occurrence = %v, want 2025-02-28", got[0])
	}
}

func TestOccurrencesErrors(t *testing.T) {
	if _, _, err := Occurrences(date(2025, 1, 1), date(2025, 12, 31), core.Custom, nil); !errors.Is(err, core.ErrMissingCustomDates) {
		t.Errorf("custom without dates: error = %v, want ErrMissingCustomDates", err)
	}
	if _, _, err := Occurrences(date(2025, 1, 1), date(2025, 12, 31), "fortnightly", nil); !errors.Is(err, core.ErrInvalidSchedule) {
		t.Errorf("unknown schedule: error = %v, want ErrInvalidSchedule", err)
	}
}

func TestOccurrencesTruncation(t *testing.T) {
	// Weekly over three centuries exceeds the cap.
	got, truncated, err := Occurrences(date(2000, 1, 1), date(2300, 1, 1), core.Weekly, nil)
	if err != nil {
		t.Fatalf("Occurrences() error: %v", err)
	}
	if !truncated {
		t.Error("expected truncation")
	}
	if len(got) != MaxOccurrences {
		t.Errorf("got %d occurrences, want cap %d", len(got), MaxOccurrences)
	}
}
