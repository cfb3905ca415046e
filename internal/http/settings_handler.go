package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/intranet-portal/internal/application"
)

type settingsService interface {
	Current() application.Settings
	Update(ctx context.Context, params application.UpdateSettingsParams) (application.Settings, error)
}

// SettingsHandler reads and replaces the portal settings singleton.
type SettingsHandler struct {
	service   settingsService
	responder responder
	logger    *slog.Logger
}

func NewSettingsHandler(service settingsService, logger *slog.Logger) *SettingsHandler {
	base := defaultLogger(logger)
	return &SettingsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, settingsResponse{Settings: h.service.Current()})
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req settingsRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := handlerLogger(r.Context(), h.logger, "SettingsHandler", "Update", "principal_id", principal.UserID)

	settings, err := h.service.Update(r.Context(), application.UpdateSettingsParams{
		Principal: principal,
		Settings: application.Settings{
			Dashboard:   req.Dashboard,
			Departments: req.Departments,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "settings update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "settings updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, settingsResponse{Settings: settings})
}

type settingsRequest struct {
	Dashboard   application.DashboardSettings                `json:"dashboard"`
	Departments map[string]application.DepartmentPermissions `json:"departments"`
}

type settingsResponse struct {
	Settings application.Settings `json:"settings"`
}
