// Package slots turns a day's operating window into a grid of fixed-width
// booking slots, classifies each slot against existing reservations, and
// reduces a user's slot selection to a single reservation interval.
//
// Everything in this package is a pure function of its inputs: no I/O, no
// clocks, no retained state. Callers supply the reservation snapshot and the
// reference "now" instant and re-invoke on every render cycle.
package slots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"staffroom/internal/interval"
)

// ErrInvalidConfiguration is returned for unusable grid parameters.
var ErrInvalidConfiguration = errors.New("slots: invalid configuration")

// Window is an operating window within a day, in "HH:MM" times-of-day.
type Window struct {
	Start string // "09:00"
	End   string // "17:00"
}

// Slot is a generated candidate interval within the operating window.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Interval returns the slot's time range.
func (s Slot) Interval() interval.Interval {
	return interval.Interval{Start: s.Start, End: s.End}
}

// Label renders the day-relative "09:00-09:30" form shown in the UI.
func (s Slot) Label() string {
	return s.Start.Format("15:04") + "-" + s.End.Format("15:04")
}

// Generate produces the ordered, contiguous, non-overlapping slot grid for a
// calendar day. Slots are exactly slotDuration wide; if the window length is
// not an exact multiple, the final partial slot is dropped rather than
// truncated or padded.
func Generate(day time.Time, window Window, slotDuration time.Duration) ([]Slot, error) {
	if slotDuration <= 0 {
		return nil, fmt.Errorf("%w: slot duration %v", ErrInvalidConfiguration, slotDuration)
	}

	windowStart, err := parseTimeOnDate(day, window.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: start time: %v", ErrInvalidConfiguration, err)
	}
	windowEnd, err := parseTimeOnDate(day, window.End)
	if err != nil {
		return nil, fmt.Errorf("%w: end time: %v", ErrInvalidConfiguration, err)
	}
	if !windowStart.Before(windowEnd) {
		return nil, fmt.Errorf("%w: window %s-%s", ErrInvalidConfiguration, window.Start, window.End)
	}

	var grid []Slot
	for cursor := windowStart; !cursor.Add(slotDuration).After(windowEnd); cursor = cursor.Add(slotDuration) {
		grid = append(grid, Slot{Start: cursor, End: cursor.Add(slotDuration)})
	}
	return grid, nil
}

func parseTimeOnDate(date time.Time, timeStr string) (time.Time, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %s", timeStr)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hour: %w", err)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid minute: %w", err)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("time out of range: %s", timeStr)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}
