// Package worktime computes net elapsed work duration for attendance
// sessions: a clock-in/clock-out interval minus any break intervals.
package worktime

import (
	"errors"
	"fmt"
	"time"

	"staffroom/internal/interval"
)

// ErrIncomplete marks a session that cannot be computed yet because the
// clock-out is missing. Callers render a placeholder; this is never the same
// thing as a zero duration.
var ErrIncomplete = errors.New("worktime: session has no clock-out")

// Net returns the length of enclosing minus the time covered by breaks.
//
// Breaks are merged into a disjoint cover first, so breaks that overlap each
// other are never subtracted twice. Each break is clamped to the enclosing
// interval; portions outside it contribute nothing. The result is clamped at
// zero.
func Net(enclosing interval.Interval, breaks []interval.Interval) time.Duration {
	net := enclosing.Duration()
	for _, b := range interval.Merge(breaks) {
		clamped, ok := b.Clamp(enclosing)
		if !ok {
			continue
		}
		net -= clamped.Duration()
	}
	if net < 0 {
		net = 0
	}
	return net
}

// NetSession computes the net duration for a clock-in/clock-out pair. A nil
// clockOut yields ErrIncomplete.
func NetSession(clockIn time.Time, clockOut *time.Time, breaks []interval.Interval) (time.Duration, error) {
	if clockOut == nil {
		return 0, ErrIncomplete
	}
	session, err := interval.New(clockIn, *clockOut)
	if err != nil {
		return 0, fmt.Errorf("clock-out before clock-in: %w", err)
	}
	return Net(session, breaks), nil
}

// Format renders a duration as whole hours and minutes ("7h 30m"), truncating
// sub-minute remainders.
func Format(d time.Duration) string {
	totalMinutes := d.Milliseconds() / 60000
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
