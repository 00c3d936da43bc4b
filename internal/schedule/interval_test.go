package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(t *testing.T, hour, min int) time.Time {
	t.Helper()
	return time.Date(2025, 12, 1, hour, min, 0, 0, time.Local) // a Monday
}

func iv(t *testing.T, startHour, startMin, endHour, endMin int) Interval {
	t.Helper()
	return Interval{Start: at(t, startHour, startMin), End: at(t, endHour, endMin)}
}

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", iv(t, 10, 0, 10, 30), iv(t, 10, 0, 10, 30), true},
		{"partial overlap", iv(t, 10, 0, 10, 30), iv(t, 10, 29, 10, 31), true},
		{"contained", iv(t, 9, 0, 17, 0), iv(t, 12, 0, 12, 30), true},
		// half-open rule: [10:00,10:30) and [10:30,11:00) share no instant
		{"touching endpoints do not overlap", iv(t, 10, 0, 10, 30), iv(t, 10, 30, 11, 0), false},
		{"disjoint", iv(t, 9, 0, 9, 30), iv(t, 11, 0, 11, 30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestIntervalContains(t *testing.T) {
	working := iv(t, 9, 0, 17, 0)

	assert.True(t, working.Contains(iv(t, 9, 0, 9, 30)))
	assert.True(t, working.Contains(iv(t, 16, 30, 17, 0)))
	assert.False(t, working.Contains(iv(t, 16, 45, 17, 15)), "crossing the closing boundary is outside")
	assert.False(t, working.Contains(iv(t, 8, 45, 9, 15)))
}

func TestFreeSlotsSingleBusyInterval(t *testing.T) {
	working := iv(t, 9, 0, 17, 0)
	busy := []Interval{iv(t, 10, 0, 10, 30)}

	slots := FreeSlots(working, busy, 30)

	// One slot per gap: the earliest option before the booking and the
	// earliest after it, not a tiling of the whole day.
	assert.Equal(t, []Interval{
		iv(t, 9, 0, 9, 30),
		iv(t, 10, 30, 11, 0),
	}, slots)
}

func TestFreeSlotsEmptyDay(t *testing.T) {
	working := iv(t, 9, 0, 17, 0)

	slots := FreeSlots(working, nil, 30)

	assert.Equal(t, []Interval{iv(t, 9, 0, 9, 30)}, slots)
}

func TestFreeSlotsGapTooShort(t *testing.T) {
	working := iv(t, 9, 0, 10, 0)
	busy := []Interval{iv(t, 9, 20, 10, 0)}

	slots := FreeSlots(working, busy, 30)

	assert.Empty(t, slots, "a 20-minute gap cannot host a 30-minute slot")
}

func TestFreeSlotsFullyBooked(t *testing.T) {
	working := iv(t, 9, 0, 12, 0)
	busy := []Interval{iv(t, 9, 0, 12, 0)}

	slots := FreeSlots(working, busy, 30)

	assert.Empty(t, slots)
}

func TestFreeSlotsBusyStartingBeforeWindow(t *testing.T) {
	working := iv(t, 9, 0, 12, 0)
	busy := []Interval{iv(t, 8, 0, 9, 30)}

	slots := FreeSlots(working, busy, 30)

	assert.Equal(t, []Interval{iv(t, 9, 30, 10, 0)}, slots)
}

func TestFreeSlotsMultipleBusyIntervals(t *testing.T) {
	working := iv(t, 9, 0, 17, 0)
	busy := []Interval{
		iv(t, 9, 0, 9, 30),
		iv(t, 10, 0, 10, 30),
		iv(t, 14, 0, 15, 0),
	}

	slots := FreeSlots(working, busy, 30)

	assert.Equal(t, []Interval{
		iv(t, 9, 30, 10, 0),
		iv(t, 10, 30, 11, 0),
		iv(t, 15, 0, 15, 30),
	}, slots)
}

func TestFreeSlotsHonorsDuration(t *testing.T) {
	working := iv(t, 9, 0, 17, 0)
	busy := []Interval{iv(t, 10, 0, 10, 30)}

	slots := FreeSlots(working, busy, 60)

	assert.Equal(t, []Interval{
		iv(t, 9, 0, 10, 0),
		iv(t, 10, 30, 11, 30),
	}, slots)
}

func TestWeekdayMondayBased(t *testing.T) {
	assert.Equal(t, 0, Weekday(time.Date(2025, 12, 1, 0, 0, 0, 0, time.Local)))  // Monday
	assert.Equal(t, 4, Weekday(time.Date(2025, 12, 5, 0, 0, 0, 0, time.Local)))  // Friday
	assert.Equal(t, 6, Weekday(time.Date(2025, 12, 7, 0, 0, 0, 0, time.Local)))  // Sunday
}
