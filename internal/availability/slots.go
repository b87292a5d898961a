package availability

import "time"

// Working day reported by the availability endpoint: 16 aligned 30-minute
// slots between 09:00 and 17:00.
const (
	WorkdayStartHour = 9
	WorkdayEndHour   = 17
	SlotLength       = 30 * time.Minute
)

type Interval struct {
	Start time.Time
	End   time.Time
}

// WorkdayWindow returns the fixed working window on the calendar day of
// date, in date's location.
func WorkdayWindow(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, WorkdayStartHour, 0, 0, 0, date.Location())
	end := time.Date(y, m, d, WorkdayEndHour, 0, 0, 0, date.Location())
	return start, end
}

// AvailableSlots returns slot start times within [windowStart, windowEnd)
// where a slot of the given length would not overlap any busy interval.
// Slots step by the slot length, so boundaries stay aligned; a busy interval
// longer than one slot blocks every slot it touches.
//
// All times are expected to be in the same location.
func AvailableSlots(windowStart, windowEnd time.Time, slotLen time.Duration, busy []Interval) []time.Time {
	if slotLen <= 0 || !windowEnd.After(windowStart) {
		return nil
	}

	var slots []time.Time
	for t := windowStart; !t.Add(slotLen).After(windowEnd); t = t.Add(slotLen) {
		if !overlapsAny(t, t.Add(slotLen), busy) {
			slots = append(slots, t)
		}
	}
	return slots
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		// Half-open intervals: touching endpoints do not overlap.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}
