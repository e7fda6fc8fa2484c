// Package apperr defines the error taxonomy shared by the domain services.
// Every expected failure is a tagged value with a stable machine-readable
// code; handlers map kinds to HTTP statuses and callers branch on codes
// instead of parsing messages.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindValidation: malformed or missing input. The caller can correct
	// the request and retry.
	KindValidation Kind = iota + 1
	// KindConflict: the request was well formed but lost to current state
	// (slot full, capacity race, terminal status). Retry with different
	// parameters may succeed.
	KindConflict
	// KindNotFound: the referenced entity does not exist.
	KindNotFound
	// KindUnavailable: the store failed or timed out. Retryable with
	// backoff.
	KindUnavailable
)

// Stable reason codes surfaced to API callers.
const (
	CodeNoScheduleForDay     = "NO_SCHEDULE_FOR_DAY"
	CodeOutsideScheduleHours = "OUTSIDE_SCHEDULE_HOURS"
	CodeOnLeave              = "ON_LEAVE"
	CodeSlotFull             = "SLOT_FULL"
	CodePastDateTime         = "PAST_DATETIME"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeInvalidStatus        = "INVALID_STATUS"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeTerminalStatus       = "TERMINAL_STATUS"
	CodeNotFound             = "NOT_FOUND"
	CodeDoctorNotFound       = "DOCTOR_NOT_FOUND"
	CodeQueueEmpty           = "QUEUE_EMPTY"
	CodeStoreUnavailable     = "STORE_UNAVAILABLE"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(code, format string, args ...interface{}) *Error {
	return New(KindValidation, code, format, args...)
}

func Conflict(code, format string, args ...interface{}) *Error {
	return New(KindConflict, code, format, args...)
}

func NotFound(code, format string, args ...interface{}) *Error {
	return New(KindNotFound, code, format, args...)
}

func Unavailable(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnavailable, Code: CodeStoreUnavailable, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or 0 when err carries no taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// CodeOf returns the reason code of err, or "" for untagged errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsValidation(err error) bool  { return KindOf(err) == KindValidation }
func IsConflict(err error) bool    { return KindOf(err) == KindConflict }
func IsNotFound(err error) bool    { return KindOf(err) == KindNotFound }
func IsUnavailable(err error) bool { return KindOf(err) == KindUnavailable }
