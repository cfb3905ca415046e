package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/intranet-portal/internal/application"
)

type fakeSessionValidator struct {
	principal application.Principal
	err       error
	tokens    []string
}

func (f *fakeSessionValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	f.tokens = append(f.tokens, token)
	return f.principal, f.err
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		cookie         *http.Cookie
		header         string
		err            error
		expectedStatus int
	}{
		{name: "missing credentials", expectedStatus: http.StatusUnauthorized},
		{name: "malformed authorization header", header: "Token abc", expectedStatus: http.StatusUnauthorized},
		{name: "unknown session", header: "Bearer nope", err: application.ErrUnauthorized, expectedStatus: http.StatusUnauthorized},
		{name: "revoked session", cookie: &http.Cookie{Name: "session_token", Value: "revoked"}, err: application.ErrSessionRevoked, expectedStatus: http.StatusUnauthorized},
		{name: "disabled account", header: "Bearer tok", err: application.ErrAccountDisabled, expectedStatus: http.StatusForbidden},
		{name: "store failure", header: "Bearer tok", err: errors.New("database is locked"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			validator := &fakeSessionValidator{err: tc.err}
			handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler should not be called when authentication fails")
			}))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			if recorder.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d", tc.expectedStatus, recorder.Code)
			}
		})
	}
}

func TestRequireSession_AttachesPrincipal(t *testing.T) {
	t.Parallel()

	principal := application.Principal{UserID: "emp-1", Role: application.RoleUser}
	validator := &fakeSessionValidator{principal: principal}

	var captured application.Principal
	handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Fatal("expected principal in request context")
		}
		captured = p
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if captured.UserID != "emp-1" {
		t.Fatalf("expected principal emp-1, got %+v", captured)
	}
	if len(validator.tokens) != 1 || validator.tokens[0] != "header-token" {
		t.Fatalf("expected bearer header to win over cookie, got %v", validator.tokens)
	}
}

func TestRequestLogger_AttachesLogger(t *testing.T) {
	t.Parallel()

	handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if LoggerFromContext(r.Context()) == nil {
			t.Fatal("expected request logger in context")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}
}
