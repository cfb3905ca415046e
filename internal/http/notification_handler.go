package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/intranet-portal/internal/application"
)

type notificationService interface {
	ListNotifications(ctx context.Context, principal application.Principal) ([]application.Notification, error)
	MarkRead(ctx context.Context, principal application.Principal, notificationID string) error
}

// NotificationHandler serves the caller's inbox.
type NotificationHandler struct {
	service   notificationService
	responder responder
	logger    *slog.Logger
}

func NewNotificationHandler(service notificationService, logger *slog.Logger) *NotificationHandler {
	base := defaultLogger(logger)
	return &NotificationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	notifications, err := h.service.ListNotifications(r.Context(), principal)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "NotificationHandler", "List").ErrorContext(r.Context(), "notification list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]notificationDTO, 0, len(notifications))
	unread := 0
	for _, n := range notifications {
		if !n.Read {
			unread++
		}
		out = append(out, notificationDTO{
			ID:        n.ID,
			Kind:      n.Kind,
			Title:     n.Title,
			Body:      n.Body,
			Link:      n.Link,
			Read:      n.Read,
			CreatedAt: formatTime(n.CreatedAt),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listNotificationsResponse{Notifications: out, Unread: unread})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	if err := h.service.MarkRead(r.Context(), principal, id); err != nil {
		handlerLogger(r.Context(), h.logger, "NotificationHandler", "MarkRead", "notification_id", id).ErrorContext(r.Context(), "mark read failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type notificationDTO struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Link      string `json:"link,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

type listNotificationsResponse struct {
	Notifications []notificationDTO `json:"notifications"`
	Unread        int               `json:"unread"`
}
