package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var MigrationFiles embed.FS

// migrationsTable keeps freshtally's schema version apart from other tools
// sharing the database.
const migrationsTable = "freshtally_schema_migrations"

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("create postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// recoveryTarget is the version a dirty database is forced back to: the one
// before the interrupted migration, so Up re-applies it. Every migration file
// guards its DDL with IF [NOT] EXISTS.
func recoveryTarget(dirtyVersion uint) int {
	if dirtyVersion <= 1 {
		return database.NilVersion
	}
	return int(dirtyVersion) - 1
}

// RunMigrations brings the schema up to date. A dirty database is recovered
// first. With autoMigrate off nothing is applied and the current version is logged.
func RunMigrations(db *sql.DB, autoMigrate bool) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}

	if dirty {
		target := recoveryTarget(version)
		slog.Warn("[Migrations] Interrupted migration detected, forcing back",
			"dirty_version", version,
			"forced_version", target)
		if err := m.Force(target); err != nil {
			return fmt.Errorf("force schema version %d: %w", target, err)
		}
	}

	if !autoMigrate {
		slog.Info("[Migrations] Auto-migration disabled", "version", version, "dirty", dirty)
		return nil
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		slog.Info("[Migrations] Schema up to date", "version", version)
		return nil
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	}

	applied, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version after migrating: %w", err)
	}
	slog.Info("[Migrations] Schema migrated", "from_version", version, "to_version", applied)
	return nil
}
