package schedule

import "time"

// Interval is a half-open time range [Start, End). Adjacent intervals that
// merely touch do not overlap.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two half-open intervals share any instant.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Minutes is the interval length in whole minutes.
func (iv Interval) Minutes() int {
	return int(iv.End.Sub(iv.Start) / time.Minute)
}

// Contains reports whether other lies fully inside iv.
func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

// FreeSlots sweeps a working window against busy intervals sorted by start
// time and returns the bookable slots of the requested duration.
//
// Each idle gap yields at most one slot, anchored at the gap's start. The
// voice agent offers the earliest option per gap rather than enumerating
// every possible offset, so a long idle afternoon still produces a single
// candidate.
func FreeSlots(working Interval, busy []Interval, durationMinutes int) []Interval {
	var slots []Interval
	current := working.Start

	for _, b := range busy {
		if b.Start.After(current) {
			gap := Interval{Start: current, End: b.Start}
			if gap.Minutes() >= durationMinutes {
				slots = append(slots, Interval{
					Start: current,
					End:   current.Add(time.Duration(durationMinutes) * time.Minute),
				})
			}
		}
		if b.End.After(current) {
			current = b.End
		}
	}

	if working.End.After(current) {
		gap := Interval{Start: current, End: working.End}
		if gap.Minutes() >= durationMinutes {
			slots = append(slots, Interval{
				Start: current,
				End:   current.Add(time.Duration(durationMinutes) * time.Minute),
			})
		}
	}

	return slots
}
