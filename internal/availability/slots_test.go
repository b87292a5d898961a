package availability

import (
	"testing"
	"time"
)

func TestAvailableSlots_EmptyDay(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	windowStart, windowEnd := WorkdayWindow(day)

	slots := AvailableSlots(windowStart, windowEnd, SlotLength, nil)
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0].Format(time.RFC3339))
	}
	if !slots[15].Equal(day.Add(16*time.Hour + 30*time.Minute)) {
		t.Fatalf("expected last slot 16:30, got %s", slots[15].Format(time.RFC3339))
	}
}

func TestAvailableSlots_LongAppointmentBlocksEverySlotItTouches(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	windowStart, windowEnd := WorkdayWindow(day)

	busy := []Interval{
		{Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)},
	}

	slots := AvailableSlots(windowStart, windowEnd, SlotLength, busy)
	if len(slots) != 14 {
		t.Fatalf("expected 14 slots, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(10 * time.Hour)) {
		t.Fatalf("expected first open slot 10:00, got %s", slots[0].Format(time.RFC3339))
	}
}

func TestAvailableSlots_TouchingBusyIntervalDoesNotBlock(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	windowStart, windowEnd := WorkdayWindow(day)

	// Ends exactly when 09:30 starts; half-open, so 09:30 stays open.
	busy := []Interval{
		{Start: day.Add(9 * time.Hour), End: day.Add(9*time.Hour + 30*time.Minute)},
	}

	slots := AvailableSlots(windowStart, windowEnd, SlotLength, busy)
	if len(slots) != 15 {
		t.Fatalf("expected 15 slots, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(9*time.Hour + 30*time.Minute)) {
		t.Fatalf("expected first open slot 09:30, got %s", slots[0].Format(time.RFC3339))
	}
}

func TestAvailableSlots_MisalignedBusyIntervalBlocksBothNeighbors(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	windowStart, windowEnd := WorkdayWindow(day)

	// 09:15-09:45 straddles two aligned slots.
	busy := []Interval{
		{Start: day.Add(9*time.Hour + 15*time.Minute), End: day.Add(9*time.Hour + 45*time.Minute)},
	}

	slots := AvailableSlots(windowStart, windowEnd, SlotLength, busy)
	if len(slots) != 14 {
		t.Fatalf("expected 14 slots, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(10 * time.Hour)) {
		t.Fatalf("expected first open slot 10:00, got %s", slots[0].Format(time.RFC3339))
	}
}
