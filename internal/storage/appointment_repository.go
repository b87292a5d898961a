package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/careloop/appointment-service/internal/model"
	"github.com/careloop/appointment-service/libs/db"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const appointmentColumns = `id, patient_id, doctor_id, appointment_date, duration_minutes,
		appointment_type, status, COALESCE(notes, ''), created_at, updated_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.StartTime,
		&a.DurationMins,
		&a.Type,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

// Create inserts the appointment and returns the stored row, including the
// assigned id and server-side timestamps.
func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, a model.Appointment) (model.Appointment, error) {
	return scanAppointment(tx.QueryRow(ctx, `
		INSERT INTO appointments
			(patient_id, doctor_id, appointment_date, duration_minutes, appointment_type, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+appointmentColumns+`
	`, a.PatientID, a.DoctorID, a.StartTime, a.DurationMins, a.Type, a.Status, a.Notes))
}

func (r *AppointmentRepository) Get(ctx context.Context, id int64) (model.Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id))
}

// GetForUpdate loads a row under FOR UPDATE so the merge-and-save of a
// partial update (or a cancel) cannot race another writer on the same row.
func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (model.Appointment, error) {
	return scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id))
}

// Save persists mutated fields of an existing row and refreshes updated_at.
func (r *AppointmentRepository) Save(ctx context.Context, tx pgx.Tx, a model.Appointment) (model.Appointment, error) {
	return scanAppointment(tx.QueryRow(ctx, `
		UPDATE appointments
		SET patient_id = $2,
			doctor_id = $3,
			appointment_date = $4,
			duration_minutes = $5,
			appointment_type = $6,
			status = $7,
			notes = $8,
			updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, a.ID, a.PatientID, a.DoctorID, a.StartTime, a.DurationMins, a.Type, a.Status, a.Notes))
}

// ListBlockingByDoctor returns scheduled/confirmed appointments for the
// doctor whose occupied interval intersects [from, to). Each row's own
// duration bounds its interval. Used by both the conflict read-check and the
// availability query.
func (r *AppointmentRepository) ListBlockingByDoctor(ctx context.Context, q queryer, doctorID string, from, to time.Time) ([]model.Appointment, error) {
	rows, err := q.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
			AND status IN ('scheduled', 'confirmed')
			AND appointment_date < $3
			AND appointment_date + make_interval(mins => duration_minutes) > $2
		ORDER BY appointment_date ASC
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListStartingOn returns blocking appointments for the doctor whose start
// timestamp falls on the given calendar day [dayStart, dayEnd).
func (r *AppointmentRepository) ListStartingOn(ctx context.Context, doctorID string, dayStart, dayEnd time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
			AND status IN ('scheduled', 'confirmed')
			AND appointment_date >= $2
			AND appointment_date < $3
		ORDER BY appointment_date ASC
	`, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListFilter narrows the paginated listing. Zero values mean "no filter";
// DateFrom/DateTo are inclusive bounds on the start timestamp.
type ListFilter struct {
	PatientID string
	DoctorID  string
	Status    string
	DateFrom  time.Time
	DateTo    time.Time
}

// List returns one page of appointments matching the filter, newest filters
// applied in SQL, plus the total match count for pagination.
func (r *AppointmentRepository) List(ctx context.Context, f ListFilter, limit, offset int) ([]model.Appointment, int64, error) {
	where := ""
	var args []any
	and := func(cond string, val any) {
		args = append(args, val)
		placeholder := "$" + strconv.Itoa(len(args))
		if where == "" {
			where = "WHERE "
		} else {
			where += " AND "
		}
		where += cond + placeholder
	}
	if f.PatientID != "" {
		and("patient_id = ", f.PatientID)
	}
	if f.DoctorID != "" {
		and("doctor_id = ", f.DoctorID)
	}
	if f.Status != "" {
		and("status = ", f.Status)
	}
	if !f.DateFrom.IsZero() {
		and("appointment_date >= ", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		and("appointment_date <= ", f.DateTo)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments `+where+`
		ORDER BY appointment_date ASC, id ASC
		LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	appts, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return appts, total, nil
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// queryer lets reads run either on the pool or inside a transaction.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Pool exposes the raw pool for reads that do not need a transaction.
func (r *AppointmentRepository) Pool() *db.Pool { return r.pool }

// IsConflict reports whether err is the appointments overlap exclusion
// constraint firing (pg error 23P01). The constraint is the authoritative
// guard: two concurrent creates can both pass the in-tx read check, but only
// one can commit.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
