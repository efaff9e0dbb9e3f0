package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var MigrationFiles embed.FS

const querySchemaStatus = `SELECT version, dirty FROM schema_migrations LIMIT 1`

// SchemaStatus describes the applied migration version.
type SchemaStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// RunMigrations applies pending migrations. With autoMigrate disabled it only
// reports the current version.
func RunMigrations(db *sql.DB, autoMigrate bool) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	if dirty {
		// A dirty flag means the last migration did not finish; refuse to guess.
		return fmt.Errorf("database schema is dirty at version %d; fix it manually and force the version", version)
	}

	if !autoMigrate {
		slog.Info("Auto-migration disabled, skipping migrations", "current_version", version)
		return nil
	}

	slog.Info("Running database migrations", "current_version", version)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("Database schema is up to date", "version", version)
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get updated migration version: %w", err)
	}

	slog.Info("Database migrations completed",
		"from_version", version,
		"to_version", newVersion,
	)
	return nil
}

// Status reports the applied schema version by reading the migrate bookkeeping
// table directly. A database without any applied migration reports version 0.
func Status(ctx context.Context, db *sql.DB) (SchemaStatus, error) {
	var st SchemaStatus
	err := db.QueryRowContext(ctx, querySchemaStatus).Scan(&st.Version, &st.Dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return SchemaStatus{}, nil
	}
	if err != nil {
		return SchemaStatus{}, fmt.Errorf("failed to read migration version: %w", err)
	}
	return st, nil
}
