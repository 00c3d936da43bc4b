package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/clinicvoice/voice-scheduling/internal/redis"
)

// DefaultDurationMinutes is used whenever the caller omits a duration or
// supplies something that is not a positive whole number of minutes.
const DefaultDurationMinutes = 30

// ISOLayout is the naive local-time wire format. No timezone normalization
// happens anywhere: local time in, local time out.
const ISOLayout = "2006-01-02T15:04:05"

var parseLayouts = []string{
	ISOLayout,
	"2006-01-02T15:04",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDateTime parses a naive ISO-8601 timestamp in local time.
func ParseDateTime(s string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}

// BookRequest carries the structured arguments derived from the voice
// agent's bookAppointment call.
type BookRequest struct {
	PatientName     string
	PatientPhone    string
	DoctorName      string
	Specialty       string
	StartTime       string
	DurationMinutes int
}

type BookResult struct {
	Message       string
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	DoctorName    string
	Specialty     string
	StartTime     time.Time
	EndTime       time.Time
}

type CancelRequest struct {
	AppointmentID string
}

type CancelResult struct {
	Message       string
	AppointmentID uuid.UUID
}

type RescheduleRequest struct {
	AppointmentID   string
	NewStartTime    string
	DurationMinutes int
}

type RescheduleResult struct {
	Message       string
	AppointmentID uuid.UUID
	NewStartTime  time.Time
	NewEndTime    time.Time
	DoctorID      uuid.UUID
	DoctorName    string
}

type AvailabilityRequest struct {
	DoctorName      string
	Specialty       string
	Date            string
	DurationMinutes int
}

type AvailabilityResult struct {
	DoctorID        uuid.UUID
	DoctorName      string
	Specialty       string
	Date            time.Time
	DurationMinutes int
	Slots           []Interval
}

// Service is the booking orchestrator. Every operation runs its read checks
// and writes inside one repository transaction; Book and Reschedule
// additionally serialize per doctor through the Redis lock so two racing
// requests cannot interleave their conflict check and insert.
type Service struct {
	repo   Repository
	locker redisclient.Locker
	logger zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		logger: logger,
	}
}

// Book validates the request, checks working hours and conflicts, and
// creates a BOOKED appointment with its audit entry.
func (s *Service) Book(ctx context.Context, req BookRequest) (*BookResult, error) {
	if req.PatientName == "" || req.StartTime == "" {
		return nil, validationErr("Missing required fields: patientName and startTime.")
	}

	startTime, err := ParseDateTime(req.StartTime)
	if err != nil {
		return nil, validationErr(fmt.Sprintf("Invalid datetime format for startTime: %s", req.StartTime))
	}

	duration := normalizeDuration(req.DurationMinutes)
	endTime := startTime.Add(time.Duration(duration) * time.Minute)

	doctor, err := s.repo.FindDoctor(ctx, req.DoctorName, req.Specialty)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, notFoundErr(fmt.Sprintf("No doctor found for doctorName='%s' and specialty='%s'.", req.DoctorName, req.Specialty))
		}
		return nil, fmt.Errorf("find doctor: %w", err)
	}

	var result *BookResult

	err = s.withDoctorLock(ctx, doctor.ID, func(lockCtx context.Context) error {
		return s.repo.WithTx(lockCtx, func(tx Repository) error {
			if err := s.checkSchedulable(lockCtx, tx, doctor.ID, startTime, endTime, nil); err != nil {
				return err
			}

			patient, err := s.getOrCreatePatient(lockCtx, tx, req.PatientName, req.PatientPhone)
			if err != nil {
				return fmt.Errorf("get or create patient: %w", err)
			}

			appt, err := tx.CreateAppointment(lockCtx, &Appointment{
				PatientID:    patient.ID,
				DoctorID:     doctor.ID,
				PatientName:  patient.Name,
				PatientPhone: patient.Phone,
				StartTime:    startTime,
				EndTime:      endTime,
				Status:       StatusBooked,
			})
			if err != nil {
				return fmt.Errorf("create appointment: %w", err)
			}

			err = tx.InsertAuditLog(lockCtx, AuditLog{
				ActionType:    ActionBook,
				AppointmentID: &appt.ID,
				PatientID:     &patient.ID,
				DoctorID:      &doctor.ID,
				Details:       fmt.Sprintf("Booked by voice agent at %s", time.Now().Format(ISOLayout)),
			})
			if err != nil {
				return err
			}

			result = &BookResult{
				Message:       "Appointment booked successfully.",
				AppointmentID: appt.ID,
				PatientID:     patient.ID,
				DoctorID:      doctor.ID,
				DoctorName:    doctor.Name,
				Specialty:     doctor.Specialty,
				StartTime:     appt.StartTime,
				EndTime:       appt.EndTime,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", result.AppointmentID.String()).
		Str("doctor", result.DoctorName).
		Time("start_time", result.StartTime).
		Msg("appointment booked")

	return result, nil
}

// Cancel marks an appointment CANCELLED. Cancelling twice is a success with
// no second mutation and no second audit entry.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) (*CancelResult, error) {
	if req.AppointmentID == "" {
		return nil, validationErr("appointmentId is required.")
	}

	id, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		return nil, notFoundErr("Appointment not found.")
	}

	var result *CancelResult

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		appt, err := tx.GetAppointmentByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return notFoundErr("Appointment not found.")
			}
			return fmt.Errorf("load appointment: %w", err)
		}

		if appt.Status == StatusCancelled {
			result = &CancelResult{
				Message:       "Appointment already cancelled.",
				AppointmentID: appt.ID,
			}
			return nil
		}

		if err := tx.UpdateAppointmentStatus(ctx, appt.ID, StatusCancelled); err != nil {
			return fmt.Errorf("cancel appointment: %w", err)
		}

		err = tx.InsertAuditLog(ctx, AuditLog{
			ActionType:    ActionCancel,
			AppointmentID: &appt.ID,
			PatientID:     &appt.PatientID,
			DoctorID:      &appt.DoctorID,
			Details:       fmt.Sprintf("Cancelled by voice agent at %s", time.Now().Format(ISOLayout)),
		})
		if err != nil {
			return err
		}

		result = &CancelResult{
			Message:       "Appointment cancelled.",
			AppointmentID: appt.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Reschedule moves an appointment to a new time, re-running the same
// working-hours and conflict checks as Book but excluding the appointment
// itself from conflict detection. The status is set back to BOOKED on
// success; a CANCELLED appointment can never be rescheduled.
func (s *Service) Reschedule(ctx context.Context, req RescheduleRequest) (*RescheduleResult, error) {
	if req.AppointmentID == "" || req.NewStartTime == "" {
		return nil, validationErr("appointmentId and newStartTime are required.")
	}

	id, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		return nil, notFoundErr("Appointment not found.")
	}

	newStart, err := ParseDateTime(req.NewStartTime)
	if err != nil {
		return nil, validationErr(fmt.Sprintf("Invalid datetime format for newStartTime: %s", req.NewStartTime))
	}

	duration := normalizeDuration(req.DurationMinutes)
	newEnd := newStart.Add(time.Duration(duration) * time.Minute)

	// First read resolves the doctor so the lock key is known; everything
	// is re-checked inside the lock and transaction.
	current, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, notFoundErr("Appointment not found.")
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	var result *RescheduleResult

	err = s.withDoctorLock(ctx, current.DoctorID, func(lockCtx context.Context) error {
		return s.repo.WithTx(lockCtx, func(tx Repository) error {
			appt, err := tx.GetAppointmentByID(lockCtx, id)
			if err != nil {
				if errors.Is(err, ErrAppointmentNotFound) {
					return notFoundErr("Appointment not found.")
				}
				return fmt.Errorf("load appointment: %w", err)
			}

			if appt.Status == StatusCancelled {
				return invalidStateErr("Cannot reschedule a cancelled appointment.")
			}

			if err := s.checkSchedulable(lockCtx, tx, appt.DoctorID, newStart, newEnd, &appt.ID); err != nil {
				return err
			}

			if err := tx.UpdateAppointmentTime(lockCtx, appt.ID, newStart, newEnd, StatusBooked); err != nil {
				return fmt.Errorf("reschedule appointment: %w", err)
			}

			doctor, err := tx.GetDoctorByID(lockCtx, appt.DoctorID)
			if err != nil {
				return fmt.Errorf("load doctor: %w", err)
			}

			err = tx.InsertAuditLog(lockCtx, AuditLog{
				ActionType:    ActionReschedule,
				AppointmentID: &appt.ID,
				PatientID:     &appt.PatientID,
				DoctorID:      &appt.DoctorID,
				Details:       fmt.Sprintf("Rescheduled by voice agent at %s", time.Now().Format(ISOLayout)),
			})
			if err != nil {
				return err
			}

			result = &RescheduleResult{
				Message:       "Appointment rescheduled.",
				AppointmentID: appt.ID,
				NewStartTime:  newStart,
				NewEndTime:    newEnd,
				DoctorID:      doctor.ID,
				DoctorName:    doctor.Name,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// AvailableSlots computes the bookable slots for a doctor on one calendar
// date. The observation still writes a GET_SLOTS audit entry, so it runs in
// a transaction like the mutating operations.
func (s *Service) AvailableSlots(ctx context.Context, req AvailabilityRequest) (*AvailabilityResult, error) {
	if req.Date == "" {
		return nil, validationErr("date is required (YYYY-MM-DD).")
	}

	parsed, err := ParseDateTime(req.Date)
	if err != nil {
		return nil, validationErr(fmt.Sprintf("Invalid date format (expected YYYY-MM-DD): %s", req.Date))
	}
	date := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, parsed.Location())

	duration := normalizeDuration(req.DurationMinutes)

	doctor, err := s.repo.FindDoctor(ctx, req.DoctorName, req.Specialty)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, notFoundErr(fmt.Sprintf("No doctor found for doctorName='%s' and specialty='%s'.", req.DoctorName, req.Specialty))
		}
		return nil, fmt.Errorf("find doctor: %w", err)
	}

	var result *AvailabilityResult

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		working, err := s.workingIntervals(ctx, tx, doctor.ID, date)
		if err != nil {
			return err
		}
		if len(working) == 0 {
			return schedulingErr(ReasonNotWorking, "Doctor is not working on this day.")
		}

		booked, err := tx.BookedOnDate(ctx, doctor.ID, date)
		if err != nil {
			return fmt.Errorf("load booked appointments: %w", err)
		}

		busy := make([]Interval, 0, len(booked))
		for _, a := range booked {
			busy = append(busy, Interval{Start: a.StartTime, End: a.EndTime})
		}

		var slots []Interval
		for _, w := range working {
			slots = append(slots, FreeSlots(w, busy, duration)...)
		}

		err = tx.InsertAuditLog(ctx, AuditLog{
			ActionType: ActionGetSlots,
			DoctorID:   &doctor.ID,
			Details:    fmt.Sprintf("Checked available slots for %s", date.Format("2006-01-02")),
		})
		if err != nil {
			return err
		}

		result = &AvailabilityResult{
			DoctorID:        doctor.ID,
			DoctorName:      doctor.Name,
			Specialty:       doctor.Specialty,
			Date:            date,
			DurationMinutes: duration,
			Slots:           slots,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// workingIntervals resolves the doctor's recurring schedule for the
// weekday of date into absolute intervals anchored to that date. An empty
// result means the doctor is not working that day.
func (s *Service) workingIntervals(ctx context.Context, repo Repository, doctorID uuid.UUID, date time.Time) ([]Interval, error) {
	rows, err := repo.WorkingHoursFor(ctx, doctorID, Weekday(date))
	if err != nil {
		return nil, fmt.Errorf("load working hours: %w", err)
	}

	intervals := make([]Interval, 0, len(rows))
	for _, row := range rows {
		intervals = append(intervals, Interval{
			Start: row.StartTime.At(date),
			End:   row.EndTime.At(date),
		})
	}
	return intervals, nil
}

// checkSchedulable enforces the booking rules for [start, end): the doctor
// works that day, the span fits inside one working interval, and no BOOKED
// appointment overlaps it.
func (s *Service) checkSchedulable(ctx context.Context, tx Repository, doctorID uuid.UUID, start, end time.Time, exclude *uuid.UUID) error {
	working, err := s.workingIntervals(ctx, tx, doctorID, start)
	if err != nil {
		return err
	}
	if len(working) == 0 {
		return schedulingErr(ReasonNotWorking, "Doctor is not working on this day.")
	}

	requested := Interval{Start: start, End: end}
	inside := false
	for _, w := range working {
		if w.Contains(requested) {
			inside = true
			break
		}
	}
	if !inside {
		if exclude != nil {
			return schedulingErr(ReasonOutsideHours, "Requested new time is outside doctor's working hours.")
		}
		return schedulingErr(ReasonOutsideHours, "Requested time is outside doctor's working hours.")
	}

	conflict, err := tx.HasBookedOverlap(ctx, doctorID, start, end, exclude)
	if err != nil {
		return err
	}
	if conflict {
		if exclude != nil {
			return schedulingErr(ReasonConflict, "Requested new time slot is not available for this doctor.")
		}
		return schedulingErr(ReasonConflict, "Requested time slot is not available for this doctor.")
	}

	return nil
}

// getOrCreatePatient looks a patient up by phone, creating one on first
// contact. A booking without a phone number gets a synthetic placeholder
// phone derived from the name, which deliberately allows duplicate
// "unknown" patients. A differing name on a known phone wins over the
// stored one.
func (s *Service) getOrCreatePatient(ctx context.Context, tx Repository, name, phone string) (*Patient, error) {
	if phone == "" {
		return tx.CreatePatient(ctx, name, fmt.Sprintf("UNKNOWN-%s", name))
	}

	patient, err := tx.GetPatientByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return tx.CreatePatient(ctx, name, phone)
		}
		return nil, err
	}

	if patient.Name != name {
		if err := tx.UpdatePatientName(ctx, patient.ID, name); err != nil {
			return nil, err
		}
		patient.Name = name
	}

	return patient, nil
}

// withDoctorLock serializes the critical section per doctor. Lock
// contention surfaces as a retryable scheduling rejection; the transaction
// remains the atomicity boundary either way.
func (s *Service) withDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}

	err := s.locker.WithDoctorLock(ctx, doctorID, fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return schedulingErr(ReasonContention, "Another booking for this doctor is in progress, please retry.")
	}
	return err
}

func normalizeDuration(minutes int) int {
	if minutes <= 0 {
		return DefaultDurationMinutes
	}
	return minutes
}
