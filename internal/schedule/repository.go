package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	// WithTx runs fn against a repository bound to a single transaction.
	// An error from fn rolls everything back.
	WithTx(ctx context.Context, fn func(tx Repository) error) error

	// Doctor lookup, in preference order: exact (name, specialty), then
	// name only, then specialty only. First match wins.
	FindDoctor(ctx context.Context, name, specialty string) (*Doctor, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	// Working hours for one doctor-weekday, sorted by start time.
	WorkingHoursFor(ctx context.Context, doctorID uuid.UUID, dayOfWeek int) ([]WorkingHours, error)

	// Patient identity keyed by phone.
	GetPatientByPhone(ctx context.Context, phone string) (*Patient, error)
	CreatePatient(ctx context.Context, name, phone string) (*Patient, error)
	UpdatePatientName(ctx context.Context, id uuid.UUID, name string) error

	// Conflict check: any BOOKED appointment for the doctor overlapping
	// [start, end), optionally excluding one appointment id.
	HasBookedOverlap(ctx context.Context, doctorID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) error
	UpdateAppointmentTime(ctx context.Context, id uuid.UUID, start, end time.Time, status AppointmentStatus) error

	// BOOKED appointments for the doctor on one calendar day, ordered by
	// start time. Feeds the free-slot sweep.
	BookedOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error)

	InsertAuditLog(ctx context.Context, entry AuditLog) error
}
