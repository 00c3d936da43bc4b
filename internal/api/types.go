package api

import (
	"encoding/json"
	"strconv"
)

// AgentRequest is the envelope the voice agent posts: a function name and
// a loosely typed argument bag.
type AgentRequest struct {
	Function  string          `json:"function"`
	Arguments json.RawMessage `json:"arguments"`
}

// Minutes tolerates the shapes a voice agent produces for a duration:
// a JSON number, a numeric string, or garbage. Anything unusable decodes
// to zero and the service falls back to its default.
type Minutes int

func (m *Minutes) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*m = 0
		return nil
	}

	switch v := raw.(type) {
	case float64:
		*m = Minutes(int(v))
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			*m = 0
			return nil
		}
		*m = Minutes(n)
	default:
		*m = 0
	}
	return nil
}

type BookArguments struct {
	PatientName     string  `json:"patientName"`
	PatientPhone    string  `json:"patientPhone"`
	DoctorName      string  `json:"doctorName"`
	Specialty       string  `json:"specialty"`
	StartTime       string  `json:"startTime"`
	DurationMinutes Minutes `json:"durationMinutes"`
}

type CancelArguments struct {
	AppointmentID string `json:"appointmentId"`
}

type RescheduleArguments struct {
	AppointmentID   string  `json:"appointmentId"`
	NewStartTime    string  `json:"newStartTime"`
	DurationMinutes Minutes `json:"durationMinutes"`
}

type AvailabilityArguments struct {
	DoctorName      string  `json:"doctorName"`
	Specialty       string  `json:"specialty"`
	Date            string  `json:"date"`
	DurationMinutes Minutes `json:"durationMinutes"`
}

type BookResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	AppointmentID string `json:"appointmentId"`
	PatientID     string `json:"patientId"`
	DoctorID      string `json:"doctorId"`
	DoctorName    string `json:"doctorName"`
	Specialty     string `json:"specialty"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
}

type CancelResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	AppointmentID string `json:"appointmentId"`
}

type RescheduleResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	AppointmentID string `json:"appointmentId"`
	NewStartTime  string `json:"newStartTime"`
	NewEndTime    string `json:"newEndTime"`
	DoctorID      string `json:"doctorId"`
	DoctorName    string `json:"doctorName"`
}

type Slot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type AvailabilityResponse struct {
	Success         bool   `json:"success"`
	DoctorID        string `json:"doctorId"`
	DoctorName      string `json:"doctorName"`
	Specialty       string `json:"specialty"`
	Date            string `json:"date"`
	DurationMinutes int    `json:"durationMinutes"`
	Slots           []Slot `json:"slots"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
