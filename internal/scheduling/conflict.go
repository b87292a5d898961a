package scheduling

import (
	"time"

	"github.com/careloop/appointment-service/internal/model"
)

// Candidate is a proposed appointment slot for one doctor. ExcludeID is the
// id of the appointment being updated, or zero for a new appointment.
type Candidate struct {
	DoctorID  string
	Start     time.Time
	Duration  time.Duration
	ExcludeID int64
}

func (c Candidate) end() time.Time {
	return c.Start.Add(c.Duration)
}

// FindConflict returns the first existing appointment whose occupied
// interval overlaps the candidate's. Intervals are half-open, so an
// appointment ending exactly when the candidate starts does not conflict.
// Appointments that are cancelled or completed, belong to another doctor,
// or carry the excluded id never conflict.
func FindConflict(c Candidate, existing []model.Appointment) (model.Appointment, bool) {
	for _, appt := range existing {
		if appt.ID == c.ExcludeID && c.ExcludeID != 0 {
			continue
		}
		if appt.DoctorID != c.DoctorID {
			continue
		}
		if !model.Blocking(appt.Status) {
			continue
		}
		if Overlaps(c.Start, c.end(), appt.StartTime, appt.EndTime()) {
			return appt, true
		}
	}
	return model.Appointment{}, false
}

// Overlaps is the half-open interval test: [s1,e1) and [s2,e2) overlap iff
// s1 < e2 && s2 < e1.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}
