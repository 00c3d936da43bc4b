package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same
// repository methods run inside and outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// txBeginner is the subset of *pgxpool.Pool needed to open transactions.
// pgxmock satisfies it too, which is what the repository tests use.
type txBeginner interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PgRepository struct {
	db   querier
	pool txBeginner // nil when this repository is already transaction-bound
}

func NewPgRepository(pool txBeginner) *PgRepository {
	return &PgRepository{db: pool, pool: pool}
}

// WithTx opens a transaction and runs fn against a repository bound to it.
// Calling WithTx on an already transaction-bound repository reuses the open
// transaction.
func (r *PgRepository) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&PgRepository{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var dob *time.Time
	var email *string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Phone,
		&dob,
		&email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.DateOfBirth = dob
	p.Email = email
	return &p, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var gender, language *string

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Specialty,
		&gender,
		&language,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.Gender = gender
	d.Language = language
	return &d, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.PatientName,
		&a.PatientPhone,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func timeOfDay(t pgtype.Time) TimeOfDay {
	totalMinutes := int(t.Microseconds / int64(time.Minute/time.Microsecond))
	return TimeOfDay{Hour: totalMinutes / 60, Minute: totalMinutes % 60}
}

// Interface methods

const doctorColumns = "id, name, specialty, gender, language, created_at, updated_at"

func (r *PgRepository) FindDoctor(ctx context.Context, name, specialty string) (*Doctor, error) {
	if name != "" {
		var row pgx.Row
		if specialty != "" {
			row = r.db.QueryRow(ctx, `
				SELECT `+doctorColumns+`
				FROM doctors
				WHERE name = $1 AND specialty = $2
				ORDER BY created_at, id
				LIMIT 1
			`, name, specialty)
		} else {
			row = r.db.QueryRow(ctx, `
				SELECT `+doctorColumns+`
				FROM doctors
				WHERE name = $1
				ORDER BY created_at, id
				LIMIT 1
			`, name)
		}

		d, err := scanDoctor(row)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
	}

	if specialty != "" {
		row := r.db.QueryRow(ctx, `
			SELECT `+doctorColumns+`
			FROM doctors
			WHERE specialty = $1
			ORDER BY created_at, id
			LIMIT 1
		`, specialty)
		return scanDoctor(row)
	}

	return nil, ErrDoctorNotFound
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) WorkingHoursFor(ctx context.Context, doctorID uuid.UUID, dayOfWeek int) ([]WorkingHours, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, doctor_id, day_of_week, start_time, end_time
		FROM doctor_working_hours
		WHERE doctor_id = $1 AND day_of_week = $2
		ORDER BY start_time
	`, doctorID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WorkingHours
	for rows.Next() {
		var wh WorkingHours
		var start, end pgtype.Time
		if err := rows.Scan(&wh.ID, &wh.DoctorID, &wh.DayOfWeek, &start, &end); err != nil {
			return nil, err
		}
		wh.StartTime = timeOfDay(start)
		wh.EndTime = timeOfDay(end)
		result = append(result, wh)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

const patientColumns = "id, name, phone, date_of_birth, email, created_at, updated_at"

func (r *PgRepository) GetPatientByPhone(ctx context.Context, phone string) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE phone = $1
	`, phone)
	return scanPatient(row)
}

func (r *PgRepository) CreatePatient(ctx context.Context, name, phone string) (*Patient, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO patients (id, name, phone, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING `+patientColumns+`
	`, id, name, phone)
	return scanPatient(row)
}

func (r *PgRepository) UpdatePatientName(ctx context.Context, id uuid.UUID, name string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE patients
		SET name = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, name)
	if err != nil {
		return fmt.Errorf("update patient name: %w", err)
	}
	return nil
}

func (r *PgRepository) HasBookedOverlap(ctx context.Context, doctorID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	// Half-open overlap: existing.start < end AND existing.end > start.
	var found bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE doctor_id = $1
			  AND status = 'BOOKED'
			  AND start_time < $3
			  AND end_time > $2
			  AND ($4::uuid IS NULL OR id <> $4)
		)
	`, doctorID, start, end, exclude).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("overlap check: %w", err)
	}
	return found, nil
}

const appointmentColumns = "id, patient_id, doctor_id, patient_name, patient_phone, start_time, end_time, status, created_at, updated_at"

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, patient_name, patient_phone, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, appt.PatientID, appt.DoctorID, appt.PatientName, appt.PatientPhone, appt.StartTime, appt.EndTime, appt.Status)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) UpdateAppointmentTime(ctx context.Context, id uuid.UUID, start, end time.Time, status AppointmentStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET start_time = $2,
		    end_time = $3,
		    status = $4,
		    updated_at = now()
		WHERE id = $1
	`, id, start, end, status)
	if err != nil {
		return fmt.Errorf("update appointment time: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) BookedOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND status = 'BOOKED'
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) InsertAuditLog(ctx context.Context, entry AuditLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_logs (action_type, appointment_id, patient_id, doctor_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, entry.ActionType, entry.AppointmentID, entry.PatientID, entry.DoctorID, entry.Details)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
