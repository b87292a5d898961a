package scheduling

import (
	"testing"
	"time"

	"github.com/careloop/appointment-service/internal/model"
)

func appt(id int64, doctor string, start time.Time, mins int, status string) model.Appointment {
	return model.Appointment{
		ID:           id,
		DoctorID:     doctor,
		StartTime:    start,
		DurationMins: mins,
		Status:       status,
	}
}

func TestFindConflict_OverlapDetected(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	existing := []model.Appointment{
		appt(1, "dr-1", base, 30, model.StatusScheduled),
	}

	c := Candidate{DoctorID: "dr-1", Start: base.Add(15 * time.Minute), Duration: 30 * time.Minute}
	other, found := FindConflict(c, existing)
	if !found {
		t.Fatal("expected a conflict")
	}
	if other.ID != 1 {
		t.Fatalf("expected conflicting appointment 1, got %d", other.ID)
	}
}

func TestFindConflict_TouchingEndpointsDoNotConflict(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	existing := []model.Appointment{
		appt(1, "dr-1", base, 30, model.StatusScheduled),
	}

	// Starts exactly when the existing one ends.
	c := Candidate{DoctorID: "dr-1", Start: base.Add(30 * time.Minute), Duration: 30 * time.Minute}
	if _, found := FindConflict(c, existing); found {
		t.Fatal("back-to-back appointments must not conflict")
	}

	// Ends exactly when the existing one starts.
	c = Candidate{DoctorID: "dr-1", Start: base.Add(-30 * time.Minute), Duration: 30 * time.Minute}
	if _, found := FindConflict(c, existing); found {
		t.Fatal("back-to-back appointments must not conflict")
	}
}

func TestFindConflict_NonBlockingStatusesIgnored(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	existing := []model.Appointment{
		appt(1, "dr-1", base, 30, model.StatusCancelled),
		appt(2, "dr-1", base, 30, model.StatusCompleted),
	}

	c := Candidate{DoctorID: "dr-1", Start: base, Duration: 30 * time.Minute}
	if _, found := FindConflict(c, existing); found {
		t.Fatal("cancelled and completed appointments must not block")
	}
}

func TestFindConflict_OtherDoctorIgnored(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	existing := []model.Appointment{
		appt(1, "dr-2", base, 30, model.StatusScheduled),
	}

	c := Candidate{DoctorID: "dr-1", Start: base, Duration: 30 * time.Minute}
	if _, found := FindConflict(c, existing); found {
		t.Fatal("another doctor's schedule must not block")
	}
}

func TestFindConflict_ExcludesSelfOnUpdate(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	existing := []model.Appointment{
		appt(7, "dr-1", base, 30, model.StatusScheduled),
	}

	c := Candidate{DoctorID: "dr-1", Start: base.Add(10 * time.Minute), Duration: 30 * time.Minute, ExcludeID: 7}
	if _, found := FindConflict(c, existing); found {
		t.Fatal("an appointment must not conflict with itself during update")
	}
}

func TestFindConflict_PerRowDurationRespected(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	existing := []model.Appointment{
		appt(1, "dr-1", base, 90, model.StatusConfirmed),
	}

	// Would be clear of a default 30-minute appointment, but the stored row
	// runs for 90 minutes.
	c := Candidate{DoctorID: "dr-1", Start: base.Add(60 * time.Minute), Duration: 30 * time.Minute}
	if _, found := FindConflict(c, existing); !found {
		t.Fatal("expected conflict with the long-running appointment")
	}
}
