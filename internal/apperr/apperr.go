package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes, one per failure kind the API can surface. Handlers map these to
// HTTP statuses; no failure is reported under a generic code when a specific
// one applies.
const (
	CodeValidationFailed     = "validation_failed"
	CodeInvalidMedia         = "invalid_media"
	CodeUnauthorized         = "unauthorized"
	CodeNotFound             = "not_found"
	CodeTranscriptionFailed  = "transcription_failed"
	CodeSummarizationFailed  = "summarization_failed"
	CodeQAFailed             = "qa_failed"
	CodeMalformedSummary     = "malformed_summary"
	CodeStoreFailed          = "store_failed"
)

type Error struct {
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

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeValidationFailed, fmt.Errorf(format, args...))
}

func InvalidMedia(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeInvalidMedia, fmt.Errorf(format, args...))
}

func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, err)
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

func Transcription(err error) *Error {
	return New(http.StatusBadGateway, CodeTranscriptionFailed, err)
}

func Summarization(err error) *Error {
	return New(http.StatusBadGateway, CodeSummarizationFailed, err)
}

func QA(err error) *Error {
	return New(http.StatusBadGateway, CodeQAFailed, err)
}

func MalformedSummary(err error) *Error {
	return New(http.StatusBadGateway, CodeMalformedSummary, err)
}

func Store(err error) *Error {
	return New(http.StatusInternalServerError, CodeStoreFailed, err)
}

// CodeOf returns the error's code when it is (or wraps) an *Error.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// StatusOf returns the HTTP status for err, defaulting to 500 for errors that
// did not originate in this package.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}
