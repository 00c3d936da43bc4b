package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicvoice/voice-scheduling/internal/schedule"
)

type stubScheduler struct {
	bookFn       func(ctx context.Context, req schedule.BookRequest) (*schedule.BookResult, error)
	cancelFn     func(ctx context.Context, req schedule.CancelRequest) (*schedule.CancelResult, error)
	rescheduleFn func(ctx context.Context, req schedule.RescheduleRequest) (*schedule.RescheduleResult, error)
	slotsFn      func(ctx context.Context, req schedule.AvailabilityRequest) (*schedule.AvailabilityResult, error)
}

func (s *stubScheduler) Book(ctx context.Context, req schedule.BookRequest) (*schedule.BookResult, error) {
	return s.bookFn(ctx, req)
}

func (s *stubScheduler) Cancel(ctx context.Context, req schedule.CancelRequest) (*schedule.CancelResult, error) {
	return s.cancelFn(ctx, req)
}

func (s *stubScheduler) Reschedule(ctx context.Context, req schedule.RescheduleRequest) (*schedule.RescheduleResult, error) {
	return s.rescheduleFn(ctx, req)
}

func (s *stubScheduler) AvailableSlots(ctx context.Context, req schedule.AvailabilityRequest) (*schedule.AvailabilityResult, error) {
	return s.slotsFn(ctx, req)
}

func newTestHandler(svc Scheduler) http.HandlerFunc {
	metrics := NewMetrics(prometheus.NewRegistry())
	return agentHandler(svc, metrics, zerolog.Nop())
}

func post(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/agent", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	return parsed
}

func TestAgentHandlerInvalidJSON(t *testing.T) {
	handler := newTestHandler(&stubScheduler{})

	rec := post(t, handler, "{not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid JSON body.", body["error"])
}

func TestAgentHandlerMissingFunction(t *testing.T) {
	handler := newTestHandler(&stubScheduler{})

	rec := post(t, handler, `{"arguments":{}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing 'function' field.", decodeBody(t, rec)["error"])
}

func TestAgentHandlerUnknownFunction(t *testing.T) {
	handler := newTestHandler(&stubScheduler{})

	rec := post(t, handler, `{"function":"transferCall","arguments":{}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown function: transferCall", decodeBody(t, rec)["error"])
}

func TestAgentHandlerBookSuccess(t *testing.T) {
	apptID := uuid.New()
	patientID := uuid.New()
	doctorID := uuid.New()
	start := time.Date(2025, 12, 1, 10, 0, 0, 0, time.Local)

	svc := &stubScheduler{
		bookFn: func(ctx context.Context, req schedule.BookRequest) (*schedule.BookResult, error) {
			assert.Equal(t, "Ahmed Ali", req.PatientName)
			assert.Equal(t, 45, req.DurationMinutes)
			return &schedule.BookResult{
				Message:       "Appointment booked successfully.",
				AppointmentID: apptID,
				PatientID:     patientID,
				DoctorID:      doctorID,
				DoctorName:    "Dr Sarah",
				Specialty:     "General",
				StartTime:     start,
				EndTime:       start.Add(45 * time.Minute),
			}, nil
		},
	}
	handler := newTestHandler(svc)

	rec := post(t, handler, `{
		"function": "bookAppointment",
		"arguments": {
			"patientName": "Ahmed Ali",
			"patientPhone": "+971500000001",
			"doctorName": "Dr Sarah",
			"startTime": "2025-12-01T10:00:00",
			"durationMinutes": "45"
		}
	}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, apptID.String(), body["appointmentId"])
	assert.Equal(t, "2025-12-01T10:00:00", body["startTime"])
	assert.Equal(t, "2025-12-01T10:45:00", body["endTime"])
}

func TestAgentHandlerBusinessRejection(t *testing.T) {
	svc := &stubScheduler{
		bookFn: func(ctx context.Context, req schedule.BookRequest) (*schedule.BookResult, error) {
			return nil, &schedule.SchedulingError{
				Reason:  schedule.ReasonConflict,
				Message: "Requested time slot is not available for this doctor.",
			}
		},
	}
	handler := newTestHandler(svc)

	rec := post(t, handler, `{"function":"bookAppointment","arguments":{"patientName":"A","startTime":"2025-12-01T10:00:00"}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Requested time slot is not available for this doctor.", body["error"])
}

func TestAgentHandlerInternalError(t *testing.T) {
	svc := &stubScheduler{
		bookFn: func(ctx context.Context, req schedule.BookRequest) (*schedule.BookResult, error) {
			return nil, errors.New("connection refused")
		},
	}
	handler := newTestHandler(svc)

	rec := post(t, handler, `{"function":"bookAppointment","arguments":{"patientName":"A","startTime":"2025-12-01T10:00:00"}}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Internal server error.", body["error"], "internal detail is not leaked")
}

func TestAgentHandlerCancel(t *testing.T) {
	apptID := uuid.New()
	svc := &stubScheduler{
		cancelFn: func(ctx context.Context, req schedule.CancelRequest) (*schedule.CancelResult, error) {
			assert.Equal(t, apptID.String(), req.AppointmentID)
			return &schedule.CancelResult{Message: "Appointment cancelled.", AppointmentID: apptID}, nil
		},
	}
	handler := newTestHandler(svc)

	rec := post(t, handler, `{"function":"cancelAppointment","arguments":{"appointmentId":"`+apptID.String()+`"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Appointment cancelled.", decodeBody(t, rec)["message"])
}

func TestAgentHandlerAvailableSlots(t *testing.T) {
	doctorID := uuid.New()
	day := time.Date(2025, 12, 1, 0, 0, 0, 0, time.Local)

	svc := &stubScheduler{
		slotsFn: func(ctx context.Context, req schedule.AvailabilityRequest) (*schedule.AvailabilityResult, error) {
			return &schedule.AvailabilityResult{
				DoctorID:        doctorID,
				DoctorName:      "Dr Sarah",
				Specialty:       "General",
				Date:            day,
				DurationMinutes: 30,
				Slots: []schedule.Interval{
					{Start: day.Add(9 * time.Hour), End: day.Add(9*time.Hour + 30*time.Minute)},
				},
			}, nil
		},
	}
	handler := newTestHandler(svc)

	rec := post(t, handler, `{"function":"getAvailableSlots","arguments":{"doctorName":"Dr Sarah","date":"2025-12-01"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "2025-12-01", body["date"])

	slots, ok := body["slots"].([]any)
	require.True(t, ok)
	require.Len(t, slots, 1)
	slot := slots[0].(map[string]any)
	assert.Equal(t, "2025-12-01T09:00:00", slot["startTime"])
	assert.Equal(t, "2025-12-01T09:30:00", slot["endTime"])
}

func TestMinutesUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		want int
	}{
		{"number", `{"durationMinutes": 45}`, 45},
		{"numeric string", `{"durationMinutes": "45"}`, 45},
		{"garbage string falls back to unset", `{"durationMinutes": "soon"}`, 0},
		{"null falls back to unset", `{"durationMinutes": null}`, 0},
		{"missing stays unset", `{}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args BookArguments
			require.NoError(t, json.Unmarshal([]byte(tt.json), &args))
			assert.Equal(t, tt.want, int(args.DurationMinutes))
		})
	}
}
