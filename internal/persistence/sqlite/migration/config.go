package migration

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig holds SQLite-specific database configuration
type SQLiteConfig struct {
	// DSN is the database file path or ":memory:"
	DSN string

	// BusyTimeout sets how long to wait for database locks
	BusyTimeout time.Duration

	EnableForeignKeys bool

	// JournalMode sets the SQLite journal mode (WAL, DELETE, MEMORY, ...)
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF)
	Synchronous string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConnectionManager opens SQLite connections with the configured PRAGMAs applied.
type ConnectionManager struct {
	config SQLiteConfig
}

// NewConnectionManager creates a new SQLite connection manager
func NewConnectionManager(config SQLiteConfig) *ConnectionManager {
	return &ConnectionManager{config: config}
}

// Open validates the configuration and returns a ready-to-use database handle.
func (cm *ConnectionManager) Open() (*sql.DB, error) {
	if err := cm.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}
	if err := cm.ensureDirectory(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cm.dataSourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if cm.config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cm.config.MaxOpenConns)
	}
	if cm.config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cm.config.MaxIdleConns)
	}
	if cm.config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cm.config.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return db, nil
}

// dataSourceName appends the PRAGMAs as _pragma parameters, which the
// driver runs on every new connection of the pool.
func (cm *ConnectionManager) dataSourceName() string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cm.config.BusyTimeout.Milliseconds()))
	if cm.config.JournalMode != "" {
		params.Add("_pragma", "journal_mode("+cm.config.JournalMode+")")
	}
	if cm.config.Synchronous != "" {
		params.Add("_pragma", "synchronous("+cm.config.Synchronous+")")
	}
	if cm.config.EnableForeignKeys {
		params.Add("_pragma", "foreign_keys(1)")
	}

	sep := "?"
	if strings.Contains(cm.config.DSN, "?") {
		sep = "&"
	}
	return cm.config.DSN + sep + params.Encode()
}

func (cm *ConnectionManager) ensureDirectory() error {
	if cm.config.DSN == ":memory:" || strings.HasPrefix(cm.config.DSN, "file:") {
		return nil
	}
	dir := filepath.Dir(cm.config.DSN)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

// Validate checks the configuration for unsupported values.
func (cm *ConnectionManager) Validate() error {
	if strings.TrimSpace(cm.config.DSN) == "" {
		return fmt.Errorf("DSN cannot be empty")
	}
	if cm.config.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}

	journalModes := map[string]bool{"DELETE": true, "TRUNCATE": true, "PERSIST": true, "MEMORY": true, "WAL": true, "OFF": true}
	if cm.config.JournalMode != "" && !journalModes[cm.config.JournalMode] {
		return fmt.Errorf("invalid journal mode: %s", cm.config.JournalMode)
	}
	syncModes := map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}
	if cm.config.Synchronous != "" && !syncModes[cm.config.Synchronous] {
		return fmt.Errorf("invalid synchronous mode: %s", cm.config.Synchronous)
	}
	if cm.config.MaxOpenConns < 0 || cm.config.MaxIdleConns < 0 {
		return fmt.Errorf("connection pool sizes cannot be negative")
	}
	return nil
}

// DefaultSQLiteConfig returns the configuration used by the portal server.
func DefaultSQLiteConfig(databasePath string) SQLiteConfig {
	return SQLiteConfig{
		DSN:               databasePath,
		BusyTimeout:       30 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		Synchronous:       "NORMAL",
		MaxOpenConns:      8,
		MaxIdleConns:      4,
		ConnMaxLifetime:   5 * time.Minute,
	}
}

// TempFileTestSQLiteConfig returns a configuration for file backed tests.
func TempFileTestSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		DSN:               path,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "MEMORY",
		Synchronous:       "OFF",
		MaxOpenConns:      1,
		MaxIdleConns:      1,
		ConnMaxLifetime:   time.Minute,
	}
}
