package slots

import (
	"errors"
	"sort"

	"staffroom/internal/interval"
)

var (
	// ErrEmptySelection is returned when no slots were picked.
	ErrEmptySelection = errors.New("slots: empty selection")

	// ErrInvalidSelection is returned when a picked slot is no longer
	// available. Selections are re-checked at reduce time; a slot may have
	// transitioned to booked or past since it was rendered.
	ErrInvalidSelection = errors.New("slots: selection contains unavailable slot")

	// ErrNonContiguousSelection is returned under a contiguous policy when
	// the sorted selection has gaps between consecutive slots.
	ErrNonContiguousSelection = errors.New("slots: selection is not contiguous")
)

// Policy controls how a selection is reduced.
//
// RequireContiguous decides what happens when the user picks slots with a gap
// between them: when false the candidate interval silently spans the gap
// (the historical portal behavior), when true the reduction fails with
// ErrNonContiguousSelection.
type Policy struct {
	RequireContiguous bool
}

// Reduce collapses a user's picked slots, in arbitrary pick order, into a
// single candidate reservation interval [earliest start, latest end).
//
// The candidate is advisory only: the caller must re-validate it against the
// authoritative reservation set at commit time, since another actor may book
// a conflicting interval between reduction and persistence.
func Reduce(selection []ClassifiedSlot, policy Policy) (interval.Interval, error) {
	if len(selection) == 0 {
		return interval.Interval{}, ErrEmptySelection
	}

	for _, cs := range selection {
		if cs.Status != StatusAvailable {
			return interval.Interval{}, ErrInvalidSelection
		}
	}

	sorted := append([]ClassifiedSlot(nil), selection...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	if policy.RequireContiguous {
		for i := 1; i < len(sorted); i++ {
			if !sorted[i].Start.Equal(sorted[i-1].End) {
				return interval.Interval{}, ErrNonContiguousSelection
			}
		}
	}

	return interval.New(sorted[0].Start, sorted[len(sorted)-1].End)
}
