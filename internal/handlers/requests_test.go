package handlers

import (
	"testing"
	"time"

	"github.com/careloop/appointment-service/internal/model"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	for _, raw := range []string{
		"2026-03-10T14:30:00Z",
		"2026-03-10T14:30:00",
		"2026-03-10 14:30:00",
	} {
		got, ok := parseTimestamp(raw)
		if !ok {
			t.Fatalf("%q: expected parse to succeed", raw)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: got %s, want %s", raw, got, want)
		}
	}

	if _, ok := parseTimestamp("10/03/2026"); ok {
		t.Fatal("expected parse to fail for a non-ISO date")
	}
}

func TestParseDay(t *testing.T) {
	want := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	got, ok := parseDay("2026-03-10")
	if !ok || !got.Equal(want) {
		t.Fatalf("got %s ok=%v, want %s", got, ok, want)
	}

	got, ok = parseDay("2026-03-10T14:30:00Z")
	if !ok || !got.Equal(want) {
		t.Fatalf("timestamp date part: got %s ok=%v, want %s", got, ok, want)
	}
}

func TestCreateRequestValidate_MissingFields(t *testing.T) {
	_, problems := createAppointmentRequest{}.validate()
	if problems == nil {
		t.Fatal("expected validation problems")
	}
	for _, field := range []string{"patient_id", "doctor_id", "appointment_date", "appointment_type"} {
		if problems[field] == "" {
			t.Fatalf("expected a message for %s, got %v", field, problems)
		}
	}
}

func TestCreateRequestValidate_Defaults(t *testing.T) {
	appt, problems := createAppointmentRequest{
		PatientID:       "p-1",
		DoctorID:        "dr-1",
		AppointmentDate: "2026-03-10T10:00:00Z",
		AppointmentType: "checkup",
	}.validate()
	if problems != nil {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if appt.DurationMins != defaultDurationMins {
		t.Fatalf("expected default duration %d, got %d", defaultDurationMins, appt.DurationMins)
	}
	if appt.Status != model.StatusScheduled {
		t.Fatalf("expected default status scheduled, got %s", appt.Status)
	}
}

func TestCreateRequestValidate_RejectsBadValues(t *testing.T) {
	zero := 0
	_, problems := createAppointmentRequest{
		PatientID:       "p-1",
		DoctorID:        "dr-1",
		AppointmentDate: "not-a-date",
		AppointmentType: "checkup",
		DurationMinutes: &zero,
		Status:          "rescheduled",
	}.validate()
	if problems == nil {
		t.Fatal("expected validation problems")
	}
	for _, field := range []string{"appointment_date", "duration_minutes", "status"} {
		if problems[field] == "" {
			t.Fatalf("expected a message for %s, got %v", field, problems)
		}
	}
}

func TestUpdateRequestApply_PartialMerge(t *testing.T) {
	existing := model.Appointment{
		ID:           3,
		PatientID:    "p-1",
		DoctorID:     "dr-1",
		StartTime:    time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		DurationMins: 30,
		Type:         "checkup",
		Status:       model.StatusScheduled,
	}

	notes := "bring referral letter"
	status := model.StatusConfirmed
	merged, problems := updateAppointmentRequest{
		Notes:  &notes,
		Status: &status,
	}.apply(existing)
	if problems != nil {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if merged.Notes != notes || merged.Status != model.StatusConfirmed {
		t.Fatalf("merge did not apply: %+v", merged)
	}
	if merged.DoctorID != "dr-1" || merged.DurationMins != 30 {
		t.Fatalf("untouched fields changed: %+v", merged)
	}
}

func TestUpdateRequestApply_RejectsBadValues(t *testing.T) {
	existing := model.Appointment{ID: 3, Status: model.StatusScheduled}

	empty := ""
	negative := -15
	_, problems := updateAppointmentRequest{
		DoctorID:        &empty,
		DurationMinutes: &negative,
	}.apply(existing)
	if problems == nil {
		t.Fatal("expected validation problems")
	}
	if problems["doctor_id"] == "" || problems["duration_minutes"] == "" {
		t.Fatalf("expected messages for doctor_id and duration_minutes, got %v", problems)
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		total   int64
		page    int
		perPage int
		pages   int64
		hasNext bool
		hasPrev bool
	}{
		{total: 0, page: 1, perPage: 10, pages: 0, hasNext: false, hasPrev: false},
		{total: 10, page: 1, perPage: 10, pages: 1, hasNext: false, hasPrev: false},
		{total: 15, page: 1, perPage: 10, pages: 2, hasNext: true, hasPrev: false},
		{total: 15, page: 2, perPage: 10, pages: 2, hasNext: false, hasPrev: true},
		{total: 21, page: 2, perPage: 10, pages: 3, hasNext: true, hasPrev: true},
	}
	for _, tc := range tests {
		pages, hasNext, hasPrev := paginate(tc.total, tc.page, tc.perPage)
		if pages != tc.pages || hasNext != tc.hasNext || hasPrev != tc.hasPrev {
			t.Fatalf("total=%d page=%d: got (%d,%v,%v), want (%d,%v,%v)",
				tc.total, tc.page, pages, hasNext, hasPrev, tc.pages, tc.hasNext, tc.hasPrev)
		}
	}
}
