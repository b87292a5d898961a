package handlers

import (
	"strings"
	"time"

	"github.com/careloop/appointment-service/internal/model"
)

const defaultDurationMins = 30

// Accepted timestamp layouts. The upstream clients send offset-less
// ISO-8601; those are pinned to UTC, the service's single reference frame.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseDay accepts a calendar date, or a full timestamp whose date part is
// used, and returns midnight UTC of that day.
func parseDay(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation("2006-01-02", raw, time.UTC); err == nil {
		return t, true
	}
	if t, ok := parseTimestamp(raw); ok {
		return t.Truncate(24 * time.Hour), true
	}
	return time.Time{}, false
}

type createAppointmentRequest struct {
	PatientID       string `json:"patient_id"`
	DoctorID        string `json:"doctor_id"`
	AppointmentDate string `json:"appointment_date"`
	DurationMinutes *int   `json:"duration_minutes"`
	AppointmentType string `json:"appointment_type"`
	Status          string `json:"status"`
	Notes           string `json:"notes"`
}

// validate returns the appointment to store, or field-level messages when
// the request is unacceptable.
func (req createAppointmentRequest) validate() (model.Appointment, map[string]string) {
	problems := map[string]string{}

	patientID := strings.TrimSpace(req.PatientID)
	if patientID == "" {
		problems["patient_id"] = "required"
	}
	doctorID := strings.TrimSpace(req.DoctorID)
	if doctorID == "" {
		problems["doctor_id"] = "required"
	}
	apptType := strings.TrimSpace(req.AppointmentType)
	if apptType == "" {
		problems["appointment_type"] = "required"
	}

	var start time.Time
	if strings.TrimSpace(req.AppointmentDate) == "" {
		problems["appointment_date"] = "required"
	} else if t, ok := parseTimestamp(req.AppointmentDate); ok {
		start = t
	} else {
		problems["appointment_date"] = "must be an ISO-8601 timestamp"
	}

	duration := defaultDurationMins
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}
	if duration <= 0 {
		problems["duration_minutes"] = "must be positive"
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = model.StatusScheduled
	} else if !model.ValidStatus(status) {
		problems["status"] = "must be one of scheduled, confirmed, completed, cancelled"
	}

	if len(problems) > 0 {
		return model.Appointment{}, problems
	}
	return model.Appointment{
		PatientID:    patientID,
		DoctorID:     doctorID,
		StartTime:    start,
		DurationMins: duration,
		Type:         apptType,
		Status:       status,
		Notes:        strings.TrimSpace(req.Notes),
	}, nil
}

// updateAppointmentRequest is a partial update: nil means "leave unchanged".
type updateAppointmentRequest struct {
	PatientID       *string `json:"patient_id"`
	DoctorID        *string `json:"doctor_id"`
	AppointmentDate *string `json:"appointment_date"`
	DurationMinutes *int    `json:"duration_minutes"`
	AppointmentType *string `json:"appointment_type"`
	Status          *string `json:"status"`
	Notes           *string `json:"notes"`
}

// apply merges the supplied fields over the stored appointment.
func (req updateAppointmentRequest) apply(a model.Appointment) (model.Appointment, map[string]string) {
	problems := map[string]string{}

	if req.PatientID != nil {
		if v := strings.TrimSpace(*req.PatientID); v != "" {
			a.PatientID = v
		} else {
			problems["patient_id"] = "must not be empty"
		}
	}
	if req.DoctorID != nil {
		if v := strings.TrimSpace(*req.DoctorID); v != "" {
			a.DoctorID = v
		} else {
			problems["doctor_id"] = "must not be empty"
		}
	}
	if req.AppointmentDate != nil {
		if t, ok := parseTimestamp(*req.AppointmentDate); ok {
			a.StartTime = t
		} else {
			problems["appointment_date"] = "must be an ISO-8601 timestamp"
		}
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes > 0 {
			a.DurationMins = *req.DurationMinutes
		} else {
			problems["duration_minutes"] = "must be positive"
		}
	}
	if req.AppointmentType != nil {
		if v := strings.TrimSpace(*req.AppointmentType); v != "" {
			a.Type = v
		} else {
			problems["appointment_type"] = "must not be empty"
		}
	}
	if req.Status != nil {
		if model.ValidStatus(*req.Status) {
			a.Status = *req.Status
		} else {
			problems["status"] = "must be one of scheduled, confirmed, completed, cancelled"
		}
	}
	if req.Notes != nil {
		a.Notes = strings.TrimSpace(*req.Notes)
	}

	if len(problems) > 0 {
		return model.Appointment{}, problems
	}
	return a, nil
}
