package schedule

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "BOOKED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	// StatusRescheduled exists in the schema for historic rows; the engine
	// never writes it (a successful reschedule sets the row back to BOOKED).
	StatusRescheduled AppointmentStatus = "RESCHEDULED"
	StatusCompleted   AppointmentStatus = "COMPLETED"
)

type ActionType string

const (
	ActionBook       ActionType = "BOOK"
	ActionCancel     ActionType = "CANCEL"
	ActionReschedule ActionType = "RESCHEDULE"
	ActionGetSlots   ActionType = "GET_SLOTS"
)

type Patient struct {
	ID          uuid.UUID
	Name        string
	Phone       string // unique natural key
	DateOfBirth *time.Time
	Email       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty string
	Gender    *string
	Language  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkingHours is one recurring weekly window for a doctor. A doctor may
// have several rows per weekday (split shifts).
type WorkingHours struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	DayOfWeek int // 0=Monday .. 6=Sunday
	StartTime TimeOfDay
	EndTime   TimeOfDay
}

type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	// Snapshot of the patient's name/phone at booking time.
	PatientName  string
	PatientPhone string
	StartTime    time.Time
	EndTime      time.Time
	Status       AppointmentStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuditLog rows are append-only facts. Entity references are weak: deleting
// a patient, doctor or appointment nulls them out, it never removes the
// trail.
type AuditLog struct {
	ID            int64
	ActionType    ActionType
	AppointmentID *uuid.UUID
	PatientID     *uuid.UUID
	DoctorID      *uuid.UUID
	Details       string
	CreatedAt     time.Time
}

// TimeOfDay is a wall-clock time without a date, matching a Postgres TIME
// column.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// At anchors the time of day to a calendar date in the given location.
func (t TimeOfDay) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, date.Location())
}

// Weekday converts Go's Sunday-based weekday to the Monday=0 convention
// used by the working-hours schedule.
func Weekday(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}
