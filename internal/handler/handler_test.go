package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goalfund/goalfund/internal/ledger"
	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/service"
	"github.com/goalfund/goalfund/internal/store"
)

func TestHandler_Info(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	New().Info(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["service"] != "goalfund" || body["version"] != Version {
		t.Errorf("body = %v", body)
	}
}

func TestHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := New()
	tests := []struct {
		name       string
		fn         http.HandlerFunc
		wantStatus int
		wantCode   string
	}{
		{"not found", h.NotFound, http.StatusNotFound, "NOT_FOUND"},
		{"method not allowed", h.MethodNotAllowed, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			tc.fn(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var body map[string]string
			_ = json.NewDecoder(rec.Body).Decode(&body)
			if body["code"] != tc.wantCode {
				t.Errorf("code = %q, want %q", body["code"], tc.wantCode)
			}
		})
	}
}

func TestHandleServiceError(t *testing.T) {
	t.Parallel()

	e := errorResponder{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", model.NewValidationError("name", "is required"), http.StatusBadRequest, "VALIDATION_ERROR", "name: is required"},
		{"wrapped validation", fmt.Errorf("create goal: %w", model.NewValidationError("targetAmount", "must be greater than zero")),
			http.StatusBadRequest, "VALIDATION_ERROR", "targetAmount: must be greater than zero"},
		{"goal not found", fmt.Errorf("apply transaction: %w", store.ErrGoalNotFound), http.StatusNotFound, "NOT_FOUND", "goal not found"},
		{"bare not found", model.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "resource not found"},
		{"not owner", service.ErrNotOwner, http.StatusForbidden, "FORBIDDEN", ""},
		{"ledger not owner", fmt.Errorf("apply transaction: %w", ledger.ErrNotGoalOwner), http.StatusForbidden, "FORBIDDEN", ""},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED", ""},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			e.handleServiceError(rec, httptest.NewRequest(http.MethodGet, "/api/goals/1", nil), tc.err)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["code"] != tc.wantCode {
				t.Errorf("code = %q, want %q", body["code"], tc.wantCode)
			}
			if tc.wantMsg != "" && body["error"] != tc.wantMsg {
				t.Errorf("error = %q, want %q", body["error"], tc.wantMsg)
			}
		})
	}
}
