package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/intranet-portal/internal/notification"
	"github.com/example/intranet-portal/internal/persistence"
)

// NotificationRepository stores inbox records.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	ListNotifications(ctx context.Context, recipientID string) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, recipientID, id string) error
}

// NotificationRenderer produces the localized title and body of a kind.
type NotificationRenderer interface {
	Render(kind string, params notification.Params) (notification.Message, error)
}

// NotifyParams describes one fan-out.
type NotifyParams struct {
	Recipients []string
	Kind       string
	Params     notification.Params
	Link       string
}

// Notifier is the side-effect hook other services call.
type Notifier interface {
	Notify(ctx context.Context, params NotifyParams) int
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, NotifyParams) int { return 0 }

func defaultNotifier(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// NotificationService writes and reads inbox records.
type NotificationService struct {
	repo        NotificationRepository
	renderer    NotificationRenderer
	idGenerator func() string
	now         func() time.Time
	metrics     Metrics
	logger      *slog.Logger
}

// NewNotificationService constructs a notification service.
func NewNotificationService(repo NotificationRepository, renderer NotificationRenderer, idGenerator func() string, now func() time.Time) *NotificationService {
	return NewNotificationServiceWithLogger(repo, renderer, idGenerator, now, nil, nil)
}

// NewNotificationServiceWithLogger constructs a notification service with metrics and a logger.
func NewNotificationServiceWithLogger(repo NotificationRepository, renderer NotificationRenderer, idGenerator func() string, now func() time.Time, metrics Metrics, logger *slog.Logger) *NotificationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &NotificationService{
		repo:        repo,
		renderer:    renderer,
		idGenerator: idGenerator,
		now:         now,
		metrics:     defaultMetrics(metrics),
		logger:      defaultLogger(logger),
	}
}

func (s *NotificationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "NotificationService", operation, attrs...)
}

// Notify writes one record per distinct non-blank recipient and returns
// how many were written. Failures are logged, never returned.
func (s *NotificationService) Notify(ctx context.Context, params NotifyParams) int {
	if s == nil || s.repo == nil {
		return 0
	}
	logger := s.loggerWith(ctx, "Notify", "kind", params.Kind)

	var msg notification.Message
	if s.renderer != nil {
		var err error
		msg, err = s.renderer.Render(params.Kind, params.Params)
		if err != nil {
			logger.ErrorContext(ctx, "failed to render notification", "error", err, "error_kind", ErrorKind(err))
			s.metrics.NotificationWritten(params.Kind, false)
			return 0
		}
	}

	seen := make(map[string]bool, len(params.Recipients))
	written := 0
	for _, recipient := range params.Recipients {
		recipient = strings.TrimSpace(recipient)
		if recipient == "" || seen[recipient] {
			continue
		}
		seen[recipient] = true

		record := Notification{
			ID:          s.idGenerator(),
			RecipientID: recipient,
			Kind:        params.Kind,
			Title:       msg.Title,
			Body:        msg.Body,
			Link:        params.Link,
			CreatedAt:   s.now(),
		}
		if err := s.repo.CreateNotification(ctx, record); err != nil {
			logger.ErrorContext(ctx, "failed to write notification", "recipient_id", recipient, "error", err, "error_kind", ErrorKind(err))
			s.metrics.NotificationWritten(params.Kind, false)
			continue
		}
		s.metrics.NotificationWritten(params.Kind, true)
		written++
	}

	logger.With("recipient_count", len(seen), "written", written).InfoContext(ctx, "notifications written")
	return written
}

// ListNotifications returns the principal's inbox, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, principal Principal) (notifications []Notification, err error) {
	if s == nil {
		err = fmt.Errorf("NotificationService is nil")
		return
	}
	if s.repo == nil {
		return nil, nil
	}
	logger := s.loggerWith(ctx, "ListNotifications", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list notifications", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(notifications)).InfoContext(ctx, "notifications listed")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	notifications, err = s.repo.ListNotifications(ctx, principal.UserID)
	if err != nil {
		return
	}
	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return
}

// MarkRead flags one of the principal's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, principal Principal, notificationID string) (err error) {
	if s == nil {
		return fmt.Errorf("NotificationService is nil")
	}
	if s.repo == nil {
		return fmt.Errorf("notification repository not configured")
	}
	logger := s.loggerWith(ctx, "MarkRead", "principal_id", principal.UserID, "notification_id", notificationID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to mark notification read", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "notification marked read")
	}()

	if principal.UserID == "" {
		return ErrUnauthorized
	}
	if err = s.repo.MarkNotificationRead(ctx, principal.UserID, strings.TrimSpace(notificationID)); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
	}
	return
}
