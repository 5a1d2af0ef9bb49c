package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

const migrationTable = "schema_migrations"

// Migrate runs a goose command ("up", "down", "status", "version", ...) against
// the embedded migrations for the connection's dialect.
func Migrate(ctx context.Context, db *gorm.DB, command string, args ...string) error {
	dialect, dir, err := migrationSource(db)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}

	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	goose.SetBaseFS(sub)
	goose.SetTableName(migrationTable)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, sqlDB, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

func migrationSource(db *gorm.DB) (dialect, dir string, err error) {
	switch name := db.Dialector.Name(); name {
	case "postgres":
		return "postgres", "postgres", nil
	case "sqlite":
		return "sqlite3", "sqlite", nil
	default:
		return "", "", fmt.Errorf("no migrations for dialect %q", name)
	}
}
