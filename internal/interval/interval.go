// Package interval provides the half-open time interval primitive the
// scheduling and attendance code is built on.
package interval

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidInterval is returned when an interval would be empty or inverted.
var ErrInvalidInterval = errors.New("interval: end must be after start")

// Interval is a half-open time range [Start, End). End is always strictly
// after Start; construct values through New to keep that invariant.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New builds an interval, rejecting zero-length and inverted ranges.
func New(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("%w: [%s, %s)", ErrInvalidInterval,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether two intervals share at least one instant.
// Half-open semantics: [10:00, 11:00) and [11:00, 12:00) touch but do not
// overlap, so back-to-back bookings are allowed.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether t falls inside the interval. The end boundary is
// exclusive.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Clamp restricts the interval to bounds. The second return value is false
// when nothing of the interval remains inside bounds.
func (iv Interval) Clamp(bounds Interval) (Interval, bool) {
	start := iv.Start
	if start.Before(bounds.Start) {
		start = bounds.Start
	}
	end := iv.End
	if end.After(bounds.End) {
		end = bounds.End
	}
	if !start.Before(end) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// Merge reduces a set of intervals to a minimal disjoint cover, coalescing
// overlapping and adjacent members. The input slice is not modified.
func Merge(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}

	sorted := append([]Interval(nil), ivs...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start.After(last.End) {
			merged = append(merged, iv)
			continue
		}
		if iv.End.After(last.End) {
			last.End = iv.End
		}
	}
	return merged
}
