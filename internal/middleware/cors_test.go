package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		allowedOrigins []string
		requestOrigin  string
		method         string
		wantStatus     int
		wantHeader     string
	}{
		{
			name:          "no origins configured blocks all",
			requestOrigin: "https://example.com",
			method:        http.MethodGet,
			wantStatus:    http.StatusOK,
		},
		{
			name:           "allowed origin gets header",
			allowedOrigins: []string{"https://app.goalfund.test"},
			requestOrigin:  "https://app.goalfund.test",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantHeader:     "https://app.goalfund.test",
		},
		{
			name:           "disallowed origin blocked on preflight",
			allowedOrigins: []string{"https://app.goalfund.test"},
			requestOrigin:  "https://evil.test",
			method:         http.MethodOptions,
			wantStatus:     http.StatusForbidden,
		},
		{
			name:           "preflight returns no content",
			allowedOrigins: []string{"https://app.goalfund.test"},
			requestOrigin:  "https://app.goalfund.test",
			method:         http.MethodOptions,
			wantStatus:     http.StatusNoContent,
			wantHeader:     "https://app.goalfund.test",
		},
		{
			name:           "case insensitive origin match",
			allowedOrigins: []string{"HTTPS://APP.GOALFUND.TEST"},
			requestOrigin:  "https://app.goalfund.test",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantHeader:     "https://app.goalfund.test",
		},
		{
			name:           "wildcard subdomain matches",
			allowedOrigins: []string{"*.goalfund.test"},
			requestOrigin:  "https://staging.goalfund.test",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantHeader:     "https://staging.goalfund.test",
		},
		{
			name:           "wildcard does not match lookalike domain",
			allowedOrigins: []string{"*.goalfund.test"},
			requestOrigin:  "https://evilgoalfund.test",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultCORSConfig()
			cfg.AllowedOrigins = tc.allowedOrigins
			handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tc.method, "/api/goals", nil)
			req.Header.Set("Origin", tc.requestOrigin)
			if tc.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantHeader {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tc.wantHeader)
			}
		})
	}
}

func TestCORS_CredentialsAndSameOrigin(t *testing.T) {
	t.Parallel()

	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://app.goalfund.test"}
	handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	req.Header.Set("Origin", "https://app.goalfund.test")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("credentials header missing for allowed origin")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/goals", nil))
	if rec.Header().Get("Access-Control-Allow-Origin") != "" || rec.Header().Get("Vary") != "" {
		t.Error("same-origin request should not get CORS headers")
	}
}
