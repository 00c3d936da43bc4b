package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/clinicvoice/voice-scheduling/internal/schedule"
)

// Function names the voice agent dispatches on.
const (
	FnBookAppointment       = "bookAppointment"
	FnCancelAppointment     = "cancelAppointment"
	FnRescheduleAppointment = "rescheduleAppointment"
	FnGetAvailableSlots     = "getAvailableSlots"
)

// Scheduler is the slice of the booking service the handlers need.
type Scheduler interface {
	Book(ctx context.Context, req schedule.BookRequest) (*schedule.BookResult, error)
	Cancel(ctx context.Context, req schedule.CancelRequest) (*schedule.CancelResult, error)
	Reschedule(ctx context.Context, req schedule.RescheduleRequest) (*schedule.RescheduleResult, error)
	AvailableSlots(ctx context.Context, req schedule.AvailabilityRequest) (*schedule.AvailabilityResult, error)
}

// agentHandler is the single endpoint the voice agent calls. Every failure,
// malformed input and business-rule rejection alike, is a 400 with
// {"success": false, "error": ...}.
func agentHandler(svc Scheduler, metrics *Metrics, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AgentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFailure(w, "Invalid JSON body.")
			return
		}

		if req.Function == "" {
			writeFailure(w, "Missing 'function' field.")
			return
		}

		args := req.Arguments
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}

		switch req.Function {
		case FnBookAppointment:
			handleBook(w, r, svc, metrics, logger, args)
		case FnCancelAppointment:
			handleCancel(w, r, svc, metrics, logger, args)
		case FnRescheduleAppointment:
			handleReschedule(w, r, svc, metrics, logger, args)
		case FnGetAvailableSlots:
			handleAvailability(w, r, svc, metrics, logger, args)
		default:
			writeFailure(w, "Unknown function: "+req.Function)
		}
	}
}

func handleBook(w http.ResponseWriter, r *http.Request, svc Scheduler, metrics *Metrics, logger zerolog.Logger, raw json.RawMessage) {
	var args BookArguments
	if err := json.Unmarshal(raw, &args); err != nil {
		metrics.ObserveOperation(FnBookAppointment, OutcomeRejected)
		writeFailure(w, "Invalid arguments for bookAppointment.")
		return
	}

	result, err := svc.Book(r.Context(), schedule.BookRequest{
		PatientName:     args.PatientName,
		PatientPhone:    args.PatientPhone,
		DoctorName:      args.DoctorName,
		Specialty:       args.Specialty,
		StartTime:       args.StartTime,
		DurationMinutes: int(args.DurationMinutes),
	})
	if err != nil {
		respondError(w, FnBookAppointment, metrics, logger, err)
		return
	}

	metrics.ObserveOperation(FnBookAppointment, OutcomeSuccess)
	writeJSON(w, http.StatusOK, BookResponse{
		Success:       true,
		Message:       result.Message,
		AppointmentID: result.AppointmentID.String(),
		PatientID:     result.PatientID.String(),
		DoctorID:      result.DoctorID.String(),
		DoctorName:    result.DoctorName,
		Specialty:     result.Specialty,
		StartTime:     result.StartTime.Format(schedule.ISOLayout),
		EndTime:       result.EndTime.Format(schedule.ISOLayout),
	})
}

func handleCancel(w http.ResponseWriter, r *http.Request, svc Scheduler, metrics *Metrics, logger zerolog.Logger, raw json.RawMessage) {
	var args CancelArguments
	if err := json.Unmarshal(raw, &args); err != nil {
		metrics.ObserveOperation(FnCancelAppointment, OutcomeRejected)
		writeFailure(w, "Invalid arguments for cancelAppointment.")
		return
	}

	result, err := svc.Cancel(r.Context(), schedule.CancelRequest{
		AppointmentID: args.AppointmentID,
	})
	if err != nil {
		respondError(w, FnCancelAppointment, metrics, logger, err)
		return
	}

	metrics.ObserveOperation(FnCancelAppointment, OutcomeSuccess)
	writeJSON(w, http.StatusOK, CancelResponse{
		Success:       true,
		Message:       result.Message,
		AppointmentID: result.AppointmentID.String(),
	})
}

func handleReschedule(w http.ResponseWriter, r *http.Request, svc Scheduler, metrics *Metrics, logger zerolog.Logger, raw json.RawMessage) {
	var args RescheduleArguments
	if err := json.Unmarshal(raw, &args); err != nil {
		metrics.ObserveOperation(FnRescheduleAppointment, OutcomeRejected)
		writeFailure(w, "Invalid arguments for rescheduleAppointment.")
		return
	}

	result, err := svc.Reschedule(r.Context(), schedule.RescheduleRequest{
		AppointmentID:   args.AppointmentID,
		NewStartTime:    args.NewStartTime,
		DurationMinutes: int(args.DurationMinutes),
	})
	if err != nil {
		respondError(w, FnRescheduleAppointment, metrics, logger, err)
		return
	}

	metrics.ObserveOperation(FnRescheduleAppointment, OutcomeSuccess)
	writeJSON(w, http.StatusOK, RescheduleResponse{
		Success:       true,
		Message:       result.Message,
		AppointmentID: result.AppointmentID.String(),
		NewStartTime:  result.NewStartTime.Format(schedule.ISOLayout),
		NewEndTime:    result.NewEndTime.Format(schedule.ISOLayout),
		DoctorID:      result.DoctorID.String(),
		DoctorName:    result.DoctorName,
	})
}

func handleAvailability(w http.ResponseWriter, r *http.Request, svc Scheduler, metrics *Metrics, logger zerolog.Logger, raw json.RawMessage) {
	var args AvailabilityArguments
	if err := json.Unmarshal(raw, &args); err != nil {
		metrics.ObserveOperation(FnGetAvailableSlots, OutcomeRejected)
		writeFailure(w, "Invalid arguments for getAvailableSlots.")
		return
	}

	result, err := svc.AvailableSlots(r.Context(), schedule.AvailabilityRequest{
		DoctorName:      args.DoctorName,
		Specialty:       args.Specialty,
		Date:            args.Date,
		DurationMinutes: int(args.DurationMinutes),
	})
	if err != nil {
		respondError(w, FnGetAvailableSlots, metrics, logger, err)
		return
	}

	slots := make([]Slot, 0, len(result.Slots))
	for _, s := range result.Slots {
		slots = append(slots, Slot{
			StartTime: s.Start.Format(schedule.ISOLayout),
			EndTime:   s.End.Format(schedule.ISOLayout),
		})
	}

	metrics.ObserveOperation(FnGetAvailableSlots, OutcomeSuccess)
	writeJSON(w, http.StatusOK, AvailabilityResponse{
		Success:         true,
		DoctorID:        result.DoctorID.String(),
		DoctorName:      result.DoctorName,
		Specialty:       result.Specialty,
		Date:            result.Date.Format("2006-01-02"),
		DurationMinutes: result.DurationMinutes,
		Slots:           slots,
	})
}

// respondError maps engine rejections to a 400 with the rejection message
// and anything else to an opaque 500.
func respondError(w http.ResponseWriter, function string, metrics *Metrics, logger zerolog.Logger, err error) {
	if schedule.Rejection(err) {
		metrics.ObserveOperation(function, OutcomeRejected)
		writeFailure(w, err.Error())
		return
	}

	metrics.ObserveOperation(function, OutcomeError)
	logger.Error().Err(err).Str("function", function).Msg("operation failed")
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   "Internal server error.",
	})
}

func writeFailure(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
