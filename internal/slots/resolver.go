package slots

import (
	"time"

	"staffroom/internal/interval"
)

// Status classifies a slot for one render cycle.
type Status int

const (
	StatusAvailable Status = iota
	StatusPast
	StatusBooked
)

func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusPast:
		return "past"
	case StatusBooked:
		return "booked"
	default:
		return "unknown"
	}
}

// Reservation is a committed interval owned by a resource. ID is an opaque
// identity supplied by the data layer; it is only reported back to callers,
// never interpreted.
type Reservation struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Interval returns the reservation's time range.
func (r Reservation) Interval() interval.Interval {
	return interval.Interval{Start: r.Start, End: r.End}
}

// ClassifiedSlot is a slot with its status for one reservation snapshot.
// BlockedBy names the reservation that books the slot, when there is one.
type ClassifiedSlot struct {
	Slot
	Status    Status
	BlockedBy string
}

// Classify assigns each slot in the grid exactly one status against the
// supplied reservation snapshot and reference instant:
//
//   - Past when the slot's end is at or before now. A slot stays usable until
//     its last instant elapses, and past wins over conflict checks.
//   - Booked when the slot overlaps at least one reservation under the
//     half-open rule (a reservation ending exactly at the slot start does not
//     block it).
//   - Available otherwise.
//
// Inputs are left unmodified; the result must be recomputed whenever the
// reservation set or the reference day changes.
func Classify(grid []Slot, now time.Time, reservations []Reservation) []ClassifiedSlot {
	classified := make([]ClassifiedSlot, 0, len(grid))
	for _, slot := range grid {
		cs := ClassifiedSlot{Slot: slot, Status: StatusAvailable}

		if !slot.End.After(now) {
			cs.Status = StatusPast
			classified = append(classified, cs)
			continue
		}

		for _, res := range reservations {
			if slot.Interval().Overlaps(res.Interval()) {
				cs.Status = StatusBooked
				cs.BlockedBy = res.ID
				break
			}
		}
		classified = append(classified, cs)
	}
	return classified
}
