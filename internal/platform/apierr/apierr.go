package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure categories the API exposes. Callers
// branch on Kind instead of inspecting messages.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindExternalService Kind = "external_service"
	KindProcessing      Kind = "processing"
	KindConflict        Kind = "conflict"
	KindConfiguration   Kind = "configuration"
)

// Codes used across the nutrition core.
const (
	CodeInvalidMeasurement  = "invalid_measurement"
	CodeInvalidInput        = "invalid_input"
	CodeCompletionFailed    = "COMPLETION_FAILED"
	CodeCompletionInvalid   = "COMPLETION_UNPARSABLE"
	CodeFeedbackParseFailed = "FEEDBACK_PARSE_FAILED"
	CodeGenerationInvalid   = "GENERATION_INVALID"
	CodeVersionConflict     = "PLAN_VERSION_CONFLICT"
	CodeMissingCollaborator = "MISSING_COLLABORATOR"
)

type Error struct {
	Kind   Kind
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, status int, code string, err error) *Error {
	return &Error{Kind: kind, Status: status, Code: code, Err: err}
}

func Validation(code string, err error) *Error {
	return New(KindValidation, http.StatusBadRequest, code, err)
}

func Validationf(code, format string, args ...any) *Error {
	return Validation(code, fmt.Errorf(format, args...))
}

func External(code string, err error) *Error {
	return New(KindExternalService, http.StatusServiceUnavailable, code, err)
}

func Processing(code string, err error) *Error {
	return New(KindProcessing, http.StatusUnprocessableEntity, code, err)
}

func Conflict(code string, err error) *Error {
	return New(KindConflict, http.StatusConflict, code, err)
}

func Configuration(code string, err error) *Error {
	return New(KindConfiguration, http.StatusInternalServerError, code, err)
}

// Is reports whether err (or anything it wraps) is an apierr of the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// CodeOf returns the machine code carried by err, or "" when err is not typed.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// StatusOf returns the HTTP status for err, defaulting to 500 for untyped errors.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}
