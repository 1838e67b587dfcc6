package entity

import (
	"sort"
	"time"
)

// ReviewIntervals maps a mastery level to the number of days that must pass
// between two tests. Levels without an entry are never testable.
type ReviewIntervals map[Status]int

// DefaultReviewIntervals returns the stock schedule: 1, 3, 7 and 14 days.
func DefaultReviewIntervals() ReviewIntervals {
	return ReviewIntervals{
		StatusNew:      1,
		StatusLearned:  3,
		StatusKnown:    7,
		StatusMastered: 14,
	}
}

// Interval returns the waiting period for s and whether s is scheduled at all.
func (ri ReviewIntervals) Interval(s Status) (time.Duration, bool) {
	days, ok := ri[s]
	if !ok {
		return 0, false
	}
	return time.Duration(days) * 24 * time.Hour, true
}

// IsTestable reports whether w is due for a review at now.
func (ri ReviewIntervals) IsTestable(w Word, now time.Time) bool {
	interval, ok := ri.Interval(w.Status)
	if !ok {
		return false
	}
	if w.LastTestedAt == nil {
		return true
	}
	return now.Sub(*w.LastTestedAt) >= interval
}

// Statuses returns the scheduled levels ordered from lowest to highest.
func (ri ReviewIntervals) Statuses() []Status {
	out := make([]Status, 0, len(ri))
	for s := range ri {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return StatusRank(out[i]) < StatusRank(out[j]) })
	return out
}
