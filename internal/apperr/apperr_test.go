package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeAndStatusOfWrappedError(t *testing.T) {
	base := NotFound("meeting %s not found", "m1")
	wrapped := fmt.Errorf("handling request: %w", base)

	if CodeOf(wrapped) != CodeNotFound {
		t.Fatalf("expected code to survive wrapping, got %q", CodeOf(wrapped))
	}
	if StatusOf(wrapped) != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", StatusOf(wrapped))
	}
}

func TestForeignErrorDefaults(t *testing.T) {
	err := errors.New("plain failure")
	if CodeOf(err) != "" {
		t.Fatalf("expected empty code for a foreign error, got %q", CodeOf(err))
	}
	if StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500 default, got %d", StatusOf(err))
	}
}

func TestConstructorStatuses(t *testing.T) {
	cases := []struct {
		err    *Error
		code   string
		status int
	}{
		{Validation("bad"), CodeValidationFailed, http.StatusBadRequest},
		{InvalidMedia("bad"), CodeInvalidMedia, http.StatusBadRequest},
		{Unauthorized(errors.New("no")), CodeUnauthorized, http.StatusUnauthorized},
		{NotFound("missing"), CodeNotFound, http.StatusNotFound},
		{Transcription(errors.New("x")), CodeTranscriptionFailed, http.StatusBadGateway},
		{Summarization(errors.New("x")), CodeSummarizationFailed, http.StatusBadGateway},
		{QA(errors.New("x")), CodeQAFailed, http.StatusBadGateway},
		{MalformedSummary(errors.New("x")), CodeMalformedSummary, http.StatusBadGateway},
		{Store(errors.New("x")), CodeStoreFailed, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if tc.err.Code != tc.code {
			t.Fatalf("expected code %q, got %q", tc.code, tc.err.Code)
		}
		if tc.err.Status != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.code, tc.status, tc.err.Status)
		}
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("root cause")
	err := Store(fmt.Errorf("saving: %w", inner))
	if !errors.Is(err, inner) {
		t.Fatalf("expected errors.Is to reach the root cause")
	}
}
