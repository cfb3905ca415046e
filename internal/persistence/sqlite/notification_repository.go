package sqlite

import (
	"context"

	"github.com/example/intranet-portal/internal/persistence"
)

// NotificationRepository implements persistence.NotificationRepository using SQLite
type NotificationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewNotificationRepository creates a new SQLite notification repository
func NewNotificationRepository(pool *ConnectionPool) *NotificationRepository {
	return &NotificationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateNotification inserts an unread inbox record.
func (r *NotificationRepository) CreateNotification(ctx context.Context, notification persistence.Notification) error {
	if notification.ID == "" || notification.RecipientID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, kind, title, body, link, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		notification.ID,
		notification.RecipientID,
		notification.Kind,
		notification.Title,
		notification.Body,
		notification.Link,
		boolToInt(notification.Read),
		formatTime(notification.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// ListNotifications returns a recipient's inbox, newest first.
func (r *NotificationRepository) ListNotifications(ctx context.Context, recipientID string) ([]persistence.Notification, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, recipient_id, kind, title, body, link, read, created_at
		FROM notifications
		WHERE recipient_id = ?
		ORDER BY created_at DESC, id DESC`, recipientID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var notifications []persistence.Notification
	for rows.Next() {
		var (
			notification persistence.Notification
			read         int
			createdAt    string
		)
		err := rows.Scan(
			&notification.ID,
			&notification.RecipientID,
			&notification.Kind,
			&notification.Title,
			&notification.Body,
			&notification.Link,
			&read,
			&createdAt,
		)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		notification.Read = read != 0
		if notification.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return notifications, nil
}

// MarkNotificationRead flags a notification owned by recipientID as read.
func (r *NotificationRepository) MarkNotificationRead(ctx context.Context, recipientID, id string) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND recipient_id = ?`, id, recipientID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return expectAffected(result)
}
