package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/careloop/appointment-service/internal/model"
	"github.com/careloop/appointment-service/internal/outbox"
	"github.com/careloop/appointment-service/internal/scheduling"
	"github.com/careloop/appointment-service/internal/storage"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// Appointments dispatches the collection routes: list and create.
func (h *Handler) Appointments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// AppointmentByID dispatches /api/appointments/{id}.
func (h *Handler) AppointmentByID(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/api/appointments/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "Appointment not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.cancel(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	appt, problems := req.validate()
	if problems != nil {
		writeValidationError(w, problems)
		return
	}

	ctx := r.Context()
	exists, err := h.patients.Exists(ctx, appt.PatientID)
	if err != nil {
		// Fail closed: an unreachable directory cannot vouch for the patient.
		h.logger.Warn("patient lookup failed", "patient_id", appt.PatientID, "err", err)
	}
	if !exists {
		writeError(w, http.StatusBadRequest, "Patient not found")
		return
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		h.logger.Error("db begin failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if conflicted := h.rejectOnConflict(w, r, tx, appt, 0); conflicted {
		return
	}

	stored, err := h.repo.Create(ctx, tx, appt)
	if err != nil {
		if storage.IsConflict(err) {
			h.metrics.ConflictsDetected.Inc()
			writeError(w, http.StatusConflict, "Scheduling conflict detected")
			return
		}
		h.logger.Error("appointment insert failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.stageEvent(ctx, tx, outbox.EventCreated, stored); err != nil {
		h.logger.Error("outbox insert failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.logger.Error("commit failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.metrics.AppointmentsCreated.Inc()
	h.logger.Info("appointment created", "id", stored.ID, "doctor_id", stored.DoctorID)
	writeJSON(w, http.StatusCreated, toResponse(stored))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, id int64) {
	appt, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Appointment not found")
			return
		}
		h.logger.Error("appointment load failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(appt))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, id int64) {
	var req updateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		h.logger.Error("db begin failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := h.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Appointment not found")
			return
		}
		h.logger.Error("appointment load failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	merged, problems := req.apply(existing)
	if problems != nil {
		writeValidationError(w, problems)
		return
	}

	// Re-check against the merged doctor/start/duration, excluding this row.
	// A notes-only update passes trivially.
	if model.Blocking(merged.Status) {
		if conflicted := h.rejectOnConflict(w, r, tx, merged, merged.ID); conflicted {
			return
		}
	}

	stored, err := h.repo.Save(ctx, tx, merged)
	if err != nil {
		if storage.IsConflict(err) {
			h.metrics.ConflictsDetected.Inc()
			writeError(w, http.StatusConflict, "Scheduling conflict detected")
			return
		}
		h.logger.Error("appointment save failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.stageEvent(ctx, tx, outbox.EventUpdated, stored); err != nil {
		h.logger.Error("outbox insert failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.logger.Error("commit failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("appointment updated", "id", stored.ID)
	writeJSON(w, http.StatusOK, toResponse(stored))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request, id int64) {
	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		h.logger.Error("db begin failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := h.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Appointment not found")
			return
		}
		h.logger.Error("appointment load failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Cancelling twice is a no-op success.
	if existing.Status == model.StatusCancelled {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	existing.Status = model.StatusCancelled
	stored, err := h.repo.Save(ctx, tx, existing)
	if err != nil {
		h.logger.Error("appointment cancel failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.stageEvent(ctx, tx, outbox.EventCancelled, stored); err != nil {
		h.logger.Error("outbox insert failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.logger.Error("commit failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.metrics.AppointmentsCancelled.Inc()
	h.logger.Info("appointment cancelled", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := storage.ListFilter{
		PatientID: strings.TrimSpace(q.Get("patient_id")),
		DoctorID:  strings.TrimSpace(q.Get("doctor_id")),
	}
	if status := strings.TrimSpace(q.Get("status")); status != "" {
		if !model.ValidStatus(status) {
			writeValidationError(w, map[string]string{"status": "must be one of scheduled, confirmed, completed, cancelled"})
			return
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(q.Get("date_from")); raw != "" {
		t, ok := parseTimestamp(raw)
		if !ok {
			if day, dayOK := parseDay(raw); dayOK {
				t, ok = day, true
			}
		}
		if !ok {
			writeValidationError(w, map[string]string{"date_from": "must be a date or timestamp"})
			return
		}
		filter.DateFrom = t
	}
	if raw := strings.TrimSpace(q.Get("date_to")); raw != "" {
		t, ok := parseTimestamp(raw)
		if !ok {
			if day, dayOK := parseDay(raw); dayOK {
				t, ok = day, true
			}
		}
		if !ok {
			writeValidationError(w, map[string]string{"date_to": "must be a date or timestamp"})
			return
		}
		filter.DateTo = t
	}

	pageNum := queryInt(q.Get("page"), 1)
	if pageNum < 1 {
		pageNum = 1
	}
	perPage := queryInt(q.Get("per_page"), defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	appts, total, err := h.repo.List(r.Context(), filter, perPage, (pageNum-1)*perPage)
	if err != nil {
		h.logger.Error("appointment list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	pages, hasNext, hasPrev := paginate(total, pageNum, perPage)
	items := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		items = append(items, toResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appointments": items,
		"total":        total,
		"pages":        pages,
		"current_page": pageNum,
		"has_next":     hasNext,
		"has_prev":     hasPrev,
	})
}

// paginate derives the page count and next/previous indicators for a page of
// the given size.
func paginate(total int64, pageNum, perPage int) (pages int64, hasNext, hasPrev bool) {
	if perPage > 0 {
		pages = (total + int64(perPage) - 1) / int64(perPage)
	}
	hasNext = int64(pageNum) < pages
	hasPrev = pageNum > 1 && total > 0
	return pages, hasNext, hasPrev
}

func queryInt(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// rejectOnConflict runs the in-transaction overlap read-check and writes the
// 409 when the candidate collides. The database exclusion constraint remains
// the authoritative guard; this check only produces the friendlier payload
// naming the colliding appointment.
func (h *Handler) rejectOnConflict(w http.ResponseWriter, r *http.Request, tx pgx.Tx, appt model.Appointment, excludeID int64) bool {
	ctx := r.Context()
	existing, err := h.repo.ListBlockingByDoctor(ctx, tx, appt.DoctorID, appt.StartTime, appt.EndTime())
	if err != nil {
		h.logger.Error("conflict check failed", "doctor_id", appt.DoctorID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return true
	}
	candidate := scheduling.Candidate{
		DoctorID:  appt.DoctorID,
		Start:     appt.StartTime,
		Duration:  time.Duration(appt.DurationMins) * time.Minute,
		ExcludeID: excludeID,
	}
	other, found := scheduling.FindConflict(candidate, existing)
	if !found {
		return false
	}
	h.metrics.ConflictsDetected.Inc()
	writeJSON(w, http.StatusConflict, map[string]any{
		"error": "Scheduling conflict detected",
		"conflicting_appointment": map[string]any{
			"id":               other.ID,
			"appointment_date": other.StartTime.UTC().Format(time.RFC3339),
			"duration_minutes": other.DurationMins,
		},
	})
	return true
}

func (h *Handler) stageEvent(ctx context.Context, tx pgx.Tx, eventType string, a model.Appointment) error {
	payload, err := json.Marshal(map[string]any{
		"appointment_id":   a.ID,
		"patient_id":       a.PatientID,
		"doctor_id":        a.DoctorID,
		"appointment_date": a.StartTime.UTC().Format(time.RFC3339),
		"duration_minutes": a.DurationMins,
		"status":           a.Status,
	})
	if err != nil {
		return err
	}
	return h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateID: strconv.FormatInt(a.ID, 10),
		EventType:   eventType,
		Payload:     payload,
	})
}
