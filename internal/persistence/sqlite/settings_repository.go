package sqlite

import (
	"context"

	"github.com/example/intranet-portal/internal/persistence"
)

const settingsID = "general"

// SettingsRepository implements persistence.SettingsRepository using SQLite
type SettingsRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSettingsRepository creates a new SQLite settings repository
func NewSettingsRepository(pool *ConnectionPool) *SettingsRepository {
	return &SettingsRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// GetSettings returns the singleton settings document or ErrNotFound.
func (r *SettingsRepository) GetSettings(ctx context.Context) (persistence.Settings, error) {
	var (
		settings  persistence.Settings
		payload   string
		updatedAt string
	)
	err := r.helper.QueryRow(ctx,
		`SELECT payload, updated_by, updated_at FROM settings WHERE id = ?`, settingsID,
	).Scan(&payload, &settings.UpdatedBy, &updatedAt)
	if err != nil {
		return persistence.Settings{}, r.mapper.MapError(err)
	}
	settings.Payload = []byte(payload)
	if settings.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Settings{}, err
	}
	return settings, nil
}

// SaveSettings replaces the whole settings document.
func (r *SettingsRepository) SaveSettings(ctx context.Context, settings persistence.Settings) error {
	_, err := r.helper.Exec(ctx, `
		INSERT INTO settings (id, payload, updated_by, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			updated_by = excluded.updated_by,
			updated_at = excluded.updated_at`,
		settingsID,
		string(settings.Payload),
		settings.UpdatedBy,
		formatTime(settings.UpdatedAt),
	)
	return r.mapper.MapError(err)
}
