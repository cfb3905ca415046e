// Package migration applies versioned SQL migrations to the portal SQLite store.
//
// Migration files are read from an fs.FS (normally an embed.FS compiled into
// the binary) and must follow the naming convention
// {version}_{description}.sql, e.g. "001_directory.sql". Applied versions are
// tracked in the schema_migrations table together with the file checksum so a
// migration runs at most once per database.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewScanner(files, "migrations"), migration.NewSQLiteExecutor(db), logger)
//	if err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
