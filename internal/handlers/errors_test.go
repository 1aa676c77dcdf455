package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bookbuddy/internal/rewards"
	"bookbuddy/internal/service"
	"bookbuddy/internal/validation"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body, got %q", recorder.Body.String())
	}
	if body.Error != "Teapot" {
		t.Fatalf("expected error 'Teapot', got %q", body.Error)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Default()
	originalOutput := logger.Writer()
	logger.SetOutput(&buf)
	defer logger.SetOutput(originalOutput)

	recorder := httptest.NewRecorder()
	err := errors.New("boom")

	respondWithError(recorder, 500, "Internal server error", "", err)

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
}

func TestWriteServiceErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", validation.ValidationError{Field: "title", Message: "title is required"}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("failed to submit: %w", validation.ValidationError{Field: "title"}), http.StatusBadRequest},
		{"invalid state", fmt.Errorf("%w: %w", service.ErrInvalidState, rewards.ErrInvalidTransition), http.StatusConflict},
		{"unavailable", fmt.Errorf("failed to list books: %w: %w", service.ErrUnavailable, errors.New("db closed")), http.StatusServiceUnavailable},
		{"forbidden", service.ErrNotAuthorized, http.StatusForbidden},
		{"unverified email", service.ErrEmailNotVerified, http.StatusForbidden},
		{"child not found", service.ErrChildNotFound, http.StatusNotFound},
		{"prize not found", service.ErrPrizeNotFound, http.StatusNotFound},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired session", service.ErrSessionExpired, http.StatusUnauthorized},
		{"email taken", service.ErrEmailTaken, http.StatusConflict},
		{"unknown", errors.New("surprise"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			writeServiceError(recorder, "test", tt.err)
			if recorder.Code != tt.want {
				t.Errorf("status = %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestWriteServiceErrorIncludesField(t *testing.T) {
	recorder := httptest.NewRecorder()
	writeServiceError(recorder, "test", validation.ValidationError{Field: "summary", Message: "summary is required"})

	var body ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Field != "summary" || body.Error != "summary is required" {
		t.Errorf("body = %+v", body)
	}
}

func TestGradeInputAcceptsStringsAndNumbers(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"grade_level":"K"}`, "K"},
		{`{"grade_level":4}`, "4"},
		{`{}`, ""},
	}

	for _, tt := range tests {
		var req childRequest
		if err := json.Unmarshal([]byte(tt.raw), &req); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.raw, err)
		}
		if string(req.GradeLevel) != tt.want {
			t.Errorf("Unmarshal(%s) grade = %q, want %q", tt.raw, req.GradeLevel, tt.want)
		}
	}

	var req childRequest
	if err := json.Unmarshal([]byte(`{"grade_level":true}`), &req); err == nil {
		t.Error("expected error for boolean grade")
	}
}
