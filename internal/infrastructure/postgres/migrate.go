package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/assets"
	"github.com/fastygo/taskboard/internal/config"
)

const embeddedSource = "embedded"

// RunMigrations brings the task schema up to date when enabled. Migrations are
// read from MIGRATIONS_PATH if set, otherwise from the binary.
func RunMigrations(cfg *config.Config, logger *zap.Logger) error {
	if cfg == nil || !cfg.Migrations.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := cfg.Database.URL
	if dsn == "" {
		dsn = cfg.Database.DSN()
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("ping postgres for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: "taskboard_schema_migrations"})
	if err != nil {
		return err
	}

	m, origin, err := newMigrator(cfg.Migrations.Path, cfg.Database.Name, driver)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations from %s: %w", origin, err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	logger.Info("database migrations applied",
		zap.String("source", origin),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}

func newMigrator(path, dbName string, driver database.Driver) (*migrate.Migrate, string, error) {
	if path != "" {
		sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(path))
		m, err := migrate.NewWithDatabaseInstance(sourceURL, dbName, driver)
		return m, path, err
	}
	src, err := embeddedMigrations()
	if err != nil {
		return nil, embeddedSource, err
	}
	m, err := migrate.NewWithInstance("iofs", src, dbName, driver)
	return m, embeddedSource, err
}

func embeddedMigrations() (source.Driver, error) {
	src, err := iofs.New(assets.Migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	return src, nil
}
