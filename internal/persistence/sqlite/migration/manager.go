package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager applies pending migrations from a Source through an Executor.
type Manager struct {
	source   Source
	executor Executor
	logger   *slog.Logger
}

// NewManager creates a migration manager. A nil logger falls back to slog.Default.
func NewManager(source Source, executor Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{source: source, executor: executor, logger: logger.With("component", "migration")}
}

// Run executes all pending migrations in version order. Execution stops at the
// first failure; migrations applied before it stay recorded.
func (m *Manager) Run(ctx context.Context) error {
	started := time.Now()

	status, err := m.Status(ctx)
	if err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "migration status",
		"current_version", status.CurrentVersion,
		"pending", len(status.Pending),
	)

	for i, migration := range status.Pending {
		logger := m.logger.With("version", migration.Version, "file", migration.FilePath)
		logger.InfoContext(ctx, "applying migration", "position", i+1, "total", len(status.Pending))

		begin := time.Now()
		if err := m.executor.ExecuteMigration(ctx, migration); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return NewMigrationError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
		elapsed := time.Since(begin)
		if err := m.executor.RecordMigration(ctx, migration, elapsed); err != nil {
			logger.ErrorContext(ctx, "failed to record migration", "error", err)
			return NewMigrationError(migration.Version, migration.FilePath, "record migration", err)
		}
		logger.InfoContext(ctx, "migration applied", "duration", elapsed)
	}

	if len(status.Pending) > 0 {
		m.logger.InfoContext(ctx, "migrations completed", "count", len(status.Pending), "duration", time.Since(started))
	}
	return nil
}

// Status reports applied and pending migrations. An applied migration whose
// file checksum changed is reported as ErrChecksumMismatch.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, fmt.Errorf("failed to initialize version table: %w", err)
	}

	available, err := m.source.Scan()
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.AppliedVersions(ctx)
	if err != nil {
		return Status{}, err
	}

	checksums := make(map[string]string, len(applied))
	for _, item := range applied {
		checksums[item.Version] = item.Checksum
	}

	status := Status{Applied: applied}
	if len(applied) > 0 {
		status.CurrentVersion = applied[len(applied)-1].Version
	}
	for _, migration := range available {
		checksum, ok := checksums[migration.Version]
		if !ok {
			status.Pending = append(status.Pending, migration)
			continue
		}
		if checksum != "" && checksum != migration.Checksum {
			return Status{}, NewMigrationError(migration.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	return status, nil
}
