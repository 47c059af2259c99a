package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/rahulvs07/complyark-data-shield/pkg/database/migrations"
)

const migrationTable = "schema_migrations"

// Source returns the embedded migration set.
func Source() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{FileSystem: migrations.FS, Root: "."}
}

// Migrate applies every pending up migration and returns how many ran.
func Migrate(db *sqlx.DB) (int, error) {
	migrate.SetTable(migrationTable)
	n, err := migrate.Exec(db.DB, "postgres", Source(), migrate.Up)
	if err != nil {
		return n, fmt.Errorf("apply migrations: %w", err)
	}
	return n, nil
}
