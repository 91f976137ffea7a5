// Package schedule computes the calendar date sequences recurring bills and
// fees fall due on. All functions are pure; callers bound the window.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"condomini/internal/core"
)

// MaxOccurrences caps a single expansion. Windows that would exceed it are
// truncated rather than looped unbounded.
const MaxOccurrences = 10000

// Month-overflow policy: stepping by calendar months keeps the start day and
// clamps to the last valid day of the target month (Jan 31 +1 month -> Feb 28
// or Feb 29). The anchor day is preserved across steps, so Mar gets 31 again.

// Occurrences returns the ordered, strictly increasing date sequence for the
// given recurrence inside [start, end] (inclusive). The second return value
// reports truncation at MaxOccurrences. An end before start yields an empty
// sequence and no error.
func Occurrences(start, end time.Time, kind core.Schedule, custom []core.MonthDay) ([]time.Time, bool, error) {
	start = midnightUTC(start)
	end = midnightUTC(end)
	if end.Before(start) {
		return nil, false, nil
	}

	switch kind {
	case core.Weekly:
		return stepped(start, end, func(_ int, cur time.Time) time.Time {
			return cur.AddDate(0, 0, 7)
		})
	case core.Monthly:
		return monthStepped(start, end, 1)
	case core.Quarterly:
		return monthStepped(start, end, 3)
	case core.Yearly:
		return monthStepped(start, end, 12)
	case core.Custom:
		if len(custom) == 0 {
			return nil, false, core.ErrMissingCustomDates
		}
		return customOccurrences(start, end, custom)
	default:
		return nil, false, fmt.Errorf("%w: %s", core.ErrInvalidSchedule, kind)
	}
}

// stepped walks from start using next until past end or the cap.
func stepped(start, end time.Time, next func(step int, cur time.Time) time.Time) ([]time.Time, bool, error) {
	var out []time.Time
	cur := start
	for step := 1; !cur.After(end); step++ {
		if len(out) == MaxOccurrences {
			return out, true, nil
		}
		out = append(out, cur)
		cur = next(step, cur)
	}
	return out, false, nil
}

// monthStepped anchors every occurrence on start's day-of-month, clamped per
// the overflow policy above. Steps are computed from the anchor, not from the
// previous (possibly clamped) occurrence, so Jan 31 -> Feb 28 -> Mar 31.
func monthStepped(start, end time.Time, everyMonths int) ([]time.Time, bool, error) {
	anchorDay := start.Day()
	return stepped(start, end, func(step int, _ time.Time) time.Time {
		base := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		base = base.AddDate(0, step*everyMonths, 0)
		day := anchorDay
		if last := core.DaysInMonth(base.Year(), base.Month()); day > last {
			day = last
		}
		return time.Date(base.Year(), base.Month(), day, 0, 0, 0, 0, time.UTC)
	})
}

// customOccurrences replicates the month/day pairs across every year in the
// window: after each date the next one is the next custom date later in the
// same year, else the first custom date of the following year.
func customOccurrences(start, end time.Time, custom []core.MonthDay) ([]time.Time, bool, error) {
	dates := append([]core.MonthDay(nil), custom...)
	sort.Slice(dates, func(i, j int) bool {
		if dates[i].Month != dates[j].Month {
			return dates[i].Month < dates[j].Month
		}
		return dates[i].Day < dates[j].Day
	})

	var out []time.Time
	var prev time.Time
	for year := start.Year(); year <= end.Year(); year++ {
		for _, md := range dates {
			if err := md.Validate(); err != nil {
				return nil, false, err
			}
			d := md.Date(year)
			if d.Before(start) || d.After(end) {
				continue
			}
			if !prev.IsZero() && !d.After(prev) {
				continue // duplicate pair after clamping
			}
			if len(out) == MaxOccurrences {
				return out, true, nil
			}
			out = append(out, d)
			prev = d
		}
	}
	return out, false, nil
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
