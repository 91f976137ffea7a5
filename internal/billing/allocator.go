package billing

import (
	"time"

	"condomini/internal/core"
)

// PaymentPart is one installment of a bill occurrence.
type PaymentPart struct {
	Amount  core.Money
	DueDate time.Time
	Part    int // 1-based installment number
}

// AllocatePayments maps a template's ordered cost list onto one occurrence
// date. A single cost falls due on the occurrence itself; N costs are
// staggered monthly, part i due occurrence+i months (day clamped to the last
// valid day of the target month). The result is deterministic for a given
// (costs, occurrence) pair, which regeneration relies on.
func AllocatePayments(costs []core.Money, occurrence time.Time) []PaymentPart {
	parts := make([]PaymentPart, 0, len(costs))
	for i, cost := range costs {
		parts = append(parts, PaymentPart{
			Amount:  cost,
			DueDate: addMonthsClamped(occurrence, i),
			Part:    i + 1,
		})
	}
	return parts
}

func addMonthsClamped(t time.Time, months int) time.Time {
	if months == 0 {
		return t
	}
	base := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	base = base.AddDate(0, months, 0)
	day := t.Day()
	if last := core.DaysInMonth(base.Year(), base.Month()); day > last {
		day = last
	}
	return time.Date(base.Year(), base.Month(), day, 0, 0, 0, 0, time.UTC)
}
