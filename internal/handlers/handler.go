package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/careloop/appointment-service/internal/model"
	"github.com/careloop/appointment-service/internal/outbox"
	"github.com/careloop/appointment-service/internal/patients"
	"github.com/careloop/appointment-service/internal/storage"
	"github.com/careloop/appointment-service/libs/metrics"
)

type Handler struct {
	repo       *storage.AppointmentRepository
	patients   *patients.Client
	outboxRepo *outbox.Repository
	metrics    *metrics.Registry
	logger     *slog.Logger
}

func New(repo *storage.AppointmentRepository, patientsClient *patients.Client, outboxRepo *outbox.Repository, reg *metrics.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		repo:       repo,
		patients:   patientsClient,
		outboxRepo: outboxRepo,
		metrics:    reg,
		logger:     logger,
	}
}

// Index describes the service on "/" and 404s everything unrouted.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Resource not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     "Appointment Service",
		"version":     "1.0.0",
		"description": "Healthcare appointment management service",
		"endpoints": map[string]any{
			"health":    "/health",
			"readiness": "/ready",
			"metrics":   "/metrics",
			"appointments": map[string]string{
				"list":   "GET /api/appointments",
				"create": "POST /api/appointments",
				"get":    "GET /api/appointments/{id}",
				"update": "PUT /api/appointments/{id}",
				"cancel": "DELETE /api/appointments/{id}",
			},
			"availability": "GET /api/availability/{doctor_id}?date=YYYY-MM-DD",
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeValidationError(w http.ResponseWriter, messages map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":    "Validation error",
		"messages": messages,
	})
}

type appointmentResponse struct {
	ID              int64  `json:"id"`
	PatientID       string `json:"patient_id"`
	DoctorID        string `json:"doctor_id"`
	AppointmentDate string `json:"appointment_date"`
	DurationMinutes int    `json:"duration_minutes"`
	AppointmentType string `json:"appointment_type"`
	Status          string `json:"status"`
	Notes           string `json:"notes"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func toResponse(a model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		AppointmentDate: a.StartTime.UTC().Format(time.RFC3339),
		DurationMinutes: a.DurationMins,
		AppointmentType: a.Type,
		Status:          a.Status,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
