package schedule

import "errors"

// The four error kinds the engine can reject an operation with. Everything
// else (connectivity, constraint violations) propagates as an ordinary
// wrapped error and is treated as internal by the caller.

// ValidationError means a required argument was missing or malformed.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError means a referenced doctor or appointment does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// SchedulingReason classifies a business-rule rejection.
type SchedulingReason string

const (
	ReasonNotWorking   SchedulingReason = "not_working"
	ReasonOutsideHours SchedulingReason = "outside_hours"
	ReasonConflict     SchedulingReason = "conflict"
	ReasonContention   SchedulingReason = "contention"
)

// SchedulingError is a business-rule rejection: the doctor is not working,
// the requested span falls outside working hours, or the slot is taken.
type SchedulingError struct {
	Reason  SchedulingReason
	Message string
}

func (e *SchedulingError) Error() string { return e.Message }

// InvalidStateError means the operation targets an appointment in a
// terminal state.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string { return e.Message }

func validationErr(msg string) error {
	return &ValidationError{Message: msg}
}

func notFoundErr(msg string) error {
	return &NotFoundError{Message: msg}
}

func schedulingErr(reason SchedulingReason, msg string) error {
	return &SchedulingError{Reason: reason, Message: msg}
}

func invalidStateErr(msg string) error {
	return &InvalidStateError{Message: msg}
}

// Rejection reports whether err is one of the four engine rejection kinds,
// as opposed to an internal failure.
func Rejection(err error) bool {
	var (
		validation   *ValidationError
		notFound     *NotFoundError
		scheduling   *SchedulingError
		invalidState *InvalidStateError
	)
	return errors.As(err, &validation) ||
		errors.As(err, &notFound) ||
		errors.As(err, &scheduling) ||
		errors.As(err, &invalidState)
}
