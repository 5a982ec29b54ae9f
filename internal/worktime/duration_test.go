package worktime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffroom/internal/interval"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 1, 15, hour, min, 0, 0, time.UTC)
}

func span(t *testing.T, startHour, startMin, endHour, endMin int) interval.Interval {
	t.Helper()
	iv, err := interval.New(at(startHour, startMin), at(endHour, endMin))
	require.NoError(t, err)
	return iv
}

func TestNet_FullDayWithLunch(t *testing.T) {
	day := span(t, 9, 0, 17, 0)
	breaks := []interval.Interval{span(t, 12, 0, 12, 30)}

	assert.Equal(t, 7*time.Hour+30*time.Minute, Net(day, breaks))
}

func TestNet_NoBreaks(t *testing.T) {
	assert.Equal(t, 8*time.Hour, Net(span(t, 9, 0, 17, 0), nil))
}

func TestNet_BreakPartiallyOutside(t *testing.T) {
	// Break runs 16:30-17:30 but the session ends at 17:00; only the
	// overlapping half hour is subtracted.
	day := span(t, 9, 0, 17, 0)
	breaks := []interval.Interval{span(t, 16, 30, 17, 30)}

	assert.Equal(t, 7*time.Hour+30*time.Minute, Net(day, breaks))
}

func TestNet_BreakEntirelyOutside(t *testing.T) {
	day := span(t, 9, 0, 17, 0)
	breaks := []interval.Interval{span(t, 18, 0, 19, 0)}

	assert.Equal(t, 8*time.Hour, Net(day, breaks))
}

func TestNet_OverlappingBreaksNotDoubleCounted(t *testing.T) {
	// Two overlapping lunch entries cover 12:00-13:00 in total; a naive sum
	// would subtract 1h30m.
	day := span(t, 9, 0, 17, 0)
	breaks := []interval.Interval{
		span(t, 12, 0, 12, 45),
		span(t, 12, 15, 13, 0),
	}

	assert.Equal(t, 7*time.Hour, Net(day, breaks))
}

func TestNet_ClampedToZero(t *testing.T) {
	day := span(t, 9, 0, 10, 0)
	breaks := []interval.Interval{span(t, 8, 0, 11, 0)}

	assert.Equal(t, time.Duration(0), Net(day, breaks))
}

func TestNetSession(t *testing.T) {
	out := at(17, 0)

	d, err := NetSession(at(9, 0), &out, []interval.Interval{span(t, 12, 0, 12, 30)})
	require.NoError(t, err)
	assert.Equal(t, 7*time.Hour+30*time.Minute, d)
}

func TestNetSession_MissingClockOut(t *testing.T) {
	_, err := NetSession(at(9, 0), nil, nil)
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestNetSession_ClockOutBeforeClockIn(t *testing.T) {
	out := at(8, 0)
	_, err := NetSession(at(9, 0), &out, nil)
	assert.ErrorIs(t, err, interval.ErrInvalidInterval)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{7*time.Hour + 30*time.Minute, "7h 30m"},
		{8 * time.Hour, "8h 0m"},
		{45 * time.Minute, "45m"},
		{0, "0m"},
		{90*time.Second + 500*time.Millisecond, "1m"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.d))
		})
	}
}
