package model

import "time"

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is one of the four appointment statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Blocking reports whether an appointment in this status occupies its
// doctor's time. Cancelled and completed appointments never block.
func Blocking(status string) bool {
	return status == StatusScheduled || status == StatusConfirmed
}

type Appointment struct {
	ID           int64
	PatientID    string
	DoctorID     string
	StartTime    time.Time
	DurationMins int
	Type         string
	Status       string
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EndTime is the exclusive end of the occupied interval.
func (a Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMins) * time.Minute)
}
