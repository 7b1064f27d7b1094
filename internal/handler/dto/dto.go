// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"strings"
	"time"

	"github.com/goalfund/goalfund/internal/model"
)

// DateLayout is the calendar-date form accepted for goal and transaction
// dates. Full RFC 3339 timestamps are accepted too.
const DateLayout = "2006-01-02"

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ParseDate parses a request date. An empty value yields the zero time so
// that model validation reports the field as missing.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, model.NewValidationError(field, "must be a date like 2025-01-31")
	}
	return t.UTC(), nil
}
