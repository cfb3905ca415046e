package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/intranet-portal/internal/application"
	"github.com/example/intranet-portal/internal/config"
	"github.com/example/intranet-portal/internal/persistence"
	"github.com/example/intranet-portal/internal/persistence/sqlite"
)

var fastHash = application.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newTestStorage(t *testing.T) *sqlite.Storage {
	t.Helper()
	storage, err := sqlite.Open(filepath.Join(t.TempDir(), "portal.db"))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	if err := storage.Migrate(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return storage
}

func seedEmployee(t *testing.T, storage *sqlite.Storage, id, email, role, password string) {
	t.Helper()
	hash, err := application.CreatePasswordHash(password, fastHash)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	now := time.Now().UTC()
	err = storage.CreateEmployee(context.Background(), persistence.Employee{
		ID:           id,
		Name:         "Maria Souza",
		Email:        email,
		Role:         role,
		DepartmentID: "dep-ti",
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("failed to seed employee: %v", err)
	}
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (c *apiClient) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	recorder := httptest.NewRecorder()
	c.handler.ServeHTTP(recorder, req)
	return recorder
}

func testConfig() config.Config {
	return config.Config{
		SessionSecret:     "test-secret",
		SessionTTL:        time.Hour,
		BookingWriteMode:  config.BookingInsertIfAbsent,
		PostalCodeURL:     "http://127.0.0.1:1",
		PostalCodeTimeout: 100 * time.Millisecond,
	}
}

func TestPortalEndToEnd(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	seedEmployee(t, storage, "emp-1", "maria@example.com", application.RoleMaster, "segredo123")

	handler, err := newHandler(ctx, storage, testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("newHandler returned error: %v", err)
	}
	client := &apiClient{t: t, handler: handler}

	if rec := client.do(http.MethodGet, "/healthz", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected healthz 204, got %d", rec.Code)
	}
	if rec := client.do(http.MethodGet, "/rooms", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %d", rec.Code)
	}

	rec := client.do(http.MethodPost, "/sessions", `{"email":"maria@example.com","password":"segredo123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected login 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var session struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil || session.Token == "" {
		t.Fatalf("expected session token, got %q (%v)", rec.Body.String(), err)
	}
	client.token = session.Token

	if _, err := storage.GetSession(ctx, session.Token); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected the plain token to be absent from storage, got %v", err)
	}

	rec = client.do(http.MethodGet, "/me", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"settings.manage"`) {
		t.Fatalf("expected master capabilities, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = client.do(http.MethodPost, "/rooms", `{"name":"Sala Ipê","capacity":8,"startTime":"08:00","endTime":"18:00","worksSaturday":true,"worksSunday":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected room 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var room struct {
		Room struct {
			ID string `json:"id"`
		} `json:"room"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &room); err != nil || room.Room.ID == "" {
		t.Fatalf("expected room id, got %q (%v)", rec.Body.String(), err)
	}

	date := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
	booking := `{"date":"` + date + `","times":["12:00","12:30"],"subject":"Planejamento"}`
	if rec = client.do(http.MethodPost, "/rooms/"+room.Room.ID+"/bookings", booking); rec.Code != http.StatusCreated {
		t.Fatalf("expected booking 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec = client.do(http.MethodPost, "/rooms/"+room.Room.ID+"/bookings", booking); rec.Code != http.StatusConflict {
		t.Fatalf("expected second booking 409 in insert-if-absent mode, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = client.do(http.MethodGet, "/rooms/"+room.Room.ID+"/appointments?date="+date, "")
	if rec.Code != http.StatusOK || strings.Count(rec.Body.String(), `"subject":"Planejamento"`) != 2 {
		t.Fatalf("expected two appointments, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec = client.do(http.MethodGet, "/verify/unknown-token", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown verification token, got %d", rec.Code)
	}

	rec = client.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("expected prometheus exposition, got %d", rec.Code)
	}

	if rec = client.do(http.MethodDelete, "/sessions/current", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected logout 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec = client.do(http.MethodGet, "/me", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked session to be rejected, got %d", rec.Code)
	}
}

func TestSettingsRepositoryAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	adapter := newSettingsRepositoryAdapter(newTestStorage(t))

	if _, err := adapter.GetSettings(ctx); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first save, got %v", err)
	}

	saved := application.DefaultSettings()
	saved.Dashboard.ShowNews = false
	saved.Departments["dep-ti"] = application.DepartmentPermissions{Enabled: true, CanIssueTerms: true}
	saved.UpdatedBy = "emp-1"
	saved.UpdatedAt = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)
	if err := adapter.SaveSettings(ctx, saved); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	loaded, err := adapter.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if loaded.Dashboard.ShowNews || !loaded.Dashboard.ShowRooms {
		t.Fatalf("unexpected dashboard %+v", loaded.Dashboard)
	}
	if !loaded.Departments["dep-ti"].CanIssueTerms || loaded.UpdatedBy != "emp-1" || !loaded.UpdatedAt.Equal(saved.UpdatedAt) {
		t.Fatalf("unexpected settings %+v", loaded)
	}
}

func TestSessionRepositoryAdapter_StoresDigest(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	adapter := newSessionRepositoryAdapter(storage, "secret")
	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

	created, err := adapter.CreateSession(ctx, application.Session{
		ID: "s1", UserID: "emp-1", Token: "plain", ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if created.Token != "plain" {
		t.Fatalf("expected the caller token back, got %q", created.Token)
	}
	if _, err := storage.GetSession(ctx, adapter.digest("plain")); err != nil {
		t.Fatalf("expected digest lookup to succeed, got %v", err)
	}

	fetched, err := adapter.GetSession(ctx, "plain")
	if err != nil || fetched.ID != "s1" {
		t.Fatalf("expected session s1, got %+v (%v)", fetched, err)
	}

	if other := newSessionRepositoryAdapter(storage, "another-secret"); other.digest("plain") == adapter.digest("plain") {
		t.Fatalf("expected digest to depend on the secret")
	}

	revoked, err := adapter.RevokeSession(ctx, "plain", now.Add(time.Minute))
	if err != nil || revoked.RevokedAt == nil {
		t.Fatalf("expected revoked session, got %+v (%v)", revoked, err)
	}
}
