package sqlite

import (
	"context"
	"embed"
	"log/slog"

	"github.com/example/intranet-portal/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles the SQLite repositories over one connection pool.
type Storage struct {
	*DirectoryRepository
	*RoomRepository
	*AppointmentRepository
	*TermRepository
	*SignatureRepository
	*NotificationRepository
	*SettingsRepository
	*SessionRepository

	pool *ConnectionPool
}

// Open opens the database at path with the default server configuration.
func Open(path string) (*Storage, error) {
	return OpenWithConfig(migration.DefaultSQLiteConfig(path))
}

// OpenWithConfig opens the database with an explicit configuration.
func OpenWithConfig(config migration.SQLiteConfig) (*Storage, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Storage{
		DirectoryRepository:    NewDirectoryRepository(pool),
		RoomRepository:         NewRoomRepository(pool),
		AppointmentRepository:  NewAppointmentRepository(pool),
		TermRepository:         NewTermRepository(pool),
		SignatureRepository:    NewSignatureRepository(pool),
		NotificationRepository: NewNotificationRepository(pool),
		SettingsRepository:     NewSettingsRepository(pool),
		SessionRepository:      NewSessionRepository(pool),
		pool:                   pool,
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context, logger *slog.Logger) error {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewSQLiteExecutor(s.pool.DB()),
		logger,
	)
	return manager.Run(ctx)
}

// Ping reports whether the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
