package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/careloop/appointment-service/internal/availability"
)

// Availability reports the open 30-minute slots for a doctor on a given day.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	doctorID := strings.TrimPrefix(r.URL.Path, "/api/availability/")
	if doctorID == "" || strings.Contains(doctorID, "/") {
		writeError(w, http.StatusNotFound, "Resource not found")
		return
	}

	rawDate := strings.TrimSpace(r.URL.Query().Get("date"))
	if rawDate == "" {
		writeError(w, http.StatusBadRequest, "Date parameter required")
		return
	}
	day, ok := parseDay(rawDate)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid date format")
		return
	}

	dayEnd := day.Add(24 * time.Hour)
	appts, err := h.repo.ListStartingOn(r.Context(), doctorID, day, dayEnd)
	if err != nil {
		h.logger.Error("availability query failed", "doctor_id", doctorID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	busy := make([]availability.Interval, 0, len(appts))
	for _, a := range appts {
		busy = append(busy, availability.Interval{Start: a.StartTime, End: a.EndTime()})
	}

	windowStart, windowEnd := availability.WorkdayWindow(day)
	slots := availability.AvailableSlots(windowStart, windowEnd, availability.SlotLength, busy)

	formatted := make([]string, 0, len(slots))
	for _, s := range slots {
		formatted = append(formatted, s.UTC().Format(time.RFC3339))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doctor_id":       doctorID,
		"date":            rawDate,
		"available_slots": formatted,
	})
}
