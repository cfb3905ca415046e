package http

import (
	"log/slog"
	"net/http"
)

type RouterConfig struct {
	Auth          *AuthHandler
	Directory     *DirectoryHandler
	Rooms         *RoomHandler
	Appointments  *AppointmentHandler
	Terms         *TermHandler
	Signatures    *SignatureHandler
	Notifications *NotificationHandler
	Settings      *SettingsHandler

	// Sessions guards every route except login, refresh, verification,
	// health and metrics. A nil validator leaves routes unguarded.
	Sessions SessionValidator
	Metrics  http.Handler
	Logger   *slog.Logger

	// Middleware wraps the mux, first entry outermost.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	guard := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.Sessions != nil {
		requireSession := RequireSession(cfg.Sessions, cfg.Logger)
		guard = func(h http.HandlerFunc) http.Handler { return requireSession(h) }
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	if h := cfg.Auth; h != nil {
		mux.HandleFunc("POST /sessions", h.CreateSession)
		mux.HandleFunc("POST /sessions/refresh", h.RefreshSession)
		mux.Handle("DELETE /sessions/current", guard(h.DeleteCurrentSession))
		mux.Handle("GET /me", guard(h.Me))
	}

	if h := cfg.Directory; h != nil {
		mux.Handle("GET /employees", guard(h.ListEmployees))
		mux.Handle("POST /employees", guard(h.CreateEmployee))
		mux.Handle("GET /employees/{id}", guard(h.GetEmployee))
		mux.Handle("PUT /employees/{id}", guard(h.UpdateEmployee))
		mux.Handle("PUT /me/signature-image", guard(h.UpdateSignatureImage))
		mux.Handle("GET /units", guard(h.ListUnits))
		mux.Handle("POST /units", guard(h.UpsertUnit))
		mux.Handle("GET /units/{id}", guard(h.GetUnit))
		mux.Handle("PUT /units/{id}", guard(h.UpsertUnit))
		mux.Handle("GET /departments", guard(h.ListDepartments))
		mux.Handle("POST /departments", guard(h.UpsertDepartment))
		mux.Handle("PUT /departments/{id}", guard(h.UpsertDepartment))
		mux.Handle("GET /systems", guard(h.ListSystems))
		mux.Handle("POST /systems", guard(h.UpsertSystem))
		mux.Handle("PUT /systems/{id}", guard(h.UpsertSystem))
		mux.Handle("GET /postal-codes/{code}", guard(h.LookupPostalCode))
	}

	if h := cfg.Rooms; h != nil {
		mux.Handle("GET /rooms", guard(h.List))
		mux.Handle("POST /rooms", guard(h.Create))
		mux.Handle("GET /rooms/{id}", guard(h.Get))
		mux.Handle("PUT /rooms/{id}", guard(h.Update))
		mux.Handle("DELETE /rooms/{id}", guard(h.Delete))
	}

	if h := cfg.Appointments; h != nil {
		mux.Handle("GET /rooms/{id}/appointments", guard(h.List))
		mux.Handle("POST /rooms/{id}/bookings", guard(h.Book))
		mux.Handle("GET /rooms/{id}/days/{date}", guard(h.Day))
		mux.Handle("GET /rooms/{id}/week", guard(h.Week))
		mux.Handle("PATCH /appointments/{id}", guard(h.Update))
		mux.Handle("DELETE /appointments/{id}", guard(h.Delete))
	}

	if h := cfg.Terms; h != nil {
		mux.Handle("GET /term-templates", guard(h.ListTemplates))
		mux.Handle("POST /term-templates", guard(h.CreateTemplate))
		mux.Handle("GET /term-templates/{id}", guard(h.GetTemplate))
		mux.Handle("PUT /term-templates/{id}", guard(h.UpdateTemplate))
		mux.Handle("GET /terms", guard(h.ListTerms))
		mux.Handle("POST /terms", guard(h.IssueTerm))
		mux.Handle("DELETE /terms/{id}", guard(h.DeleteTerm))
		mux.Handle("GET /terms/{id}/render", guard(h.RenderTerm))
		mux.Handle("POST /terms/{id}/sign", guard(h.SignTerm))
		mux.Handle("GET /terms/{id}/return", guard(h.FindReturn))
		mux.Handle("POST /terms/{id}/return", guard(h.IssueReturn))
		mux.HandleFunc("GET /verify/{token}", h.Verify)
	}

	if h := cfg.Signatures; h != nil {
		mux.Handle("GET /signature-requests", guard(h.List))
		mux.Handle("POST /signature-requests", guard(h.Request))
		mux.Handle("POST /signature-requests/{id}/complete", guard(h.Complete))
		mux.Handle("POST /signature-previews", guard(h.Preview))
		mux.Handle("GET /signature-logs", guard(h.Logs))
	}

	if h := cfg.Notifications; h != nil {
		mux.Handle("GET /notifications", guard(h.List))
		mux.Handle("POST /notifications/{id}/read", guard(h.MarkRead))
	}

	if h := cfg.Settings; h != nil {
		mux.Handle("GET /settings", guard(h.Get))
		mux.Handle("PUT /settings", guard(h.Update))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}
