package db

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	dbfs "github.com/memohai/valentines/db"
	"github.com/memohai/valentines/internal/config"
)

// Target is a migration destination: a golang-migrate database URL and its migrations.
type Target struct {
	URL        string
	Migrations fs.FS
}

// ResolveTarget picks the migration target for the configured storage driver.
func ResolveTarget(driver, databaseURL string, cfg config.Config) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case config.StorageDriverPostgres, "":
		url := strings.TrimSpace(databaseURL)
		if url == "" {
			url = DSN(cfg.Postgres)
		}
		return Target{URL: url, Migrations: dbfs.PostgresMigrations()}, nil
	case config.StorageDriverSQLite:
		path := strings.TrimSpace(cfg.Storage.SQLitePath)
		if path == "" {
			return Target{}, errors.New("sqlite path is required")
		}
		return Target{URL: "sqlite://" + SQLiteDSN(path), Migrations: dbfs.SQLiteMigrations()}, nil
	default:
		return Target{}, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}

// RunMigrate applies or rolls back database migrations.
// The target's Migrations FS must contain the .sql files at its root.
// Supported commands: "up", "down", "version", "force N".
func RunMigrate(logger *slog.Logger, target Target, command string, args []string) error {
	switch command {
	case "up", "down", "version", "force":
	default:
		return fmt.Errorf("unknown migrate command: %s (use: up, down, version, force)", command)
	}
	if command == "force" && len(args) == 0 {
		return fmt.Errorf("force requires a version number argument")
	}
	if target.Migrations == nil {
		return fmt.Errorf("migration source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	sourceDriver, err := iofs.New(target.Migrations, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, target.URL)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()

	m.Log = &migrateLogger{logger: logger}

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate up: %w", err)
		}
		ver, dirty, _ := m.Version()
		logger.Info("migration complete", slog.Uint64("version", uint64(ver)), slog.Bool("dirty", dirty))

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate down: %w", err)
		}
		logger.Info("all migrations rolled back")

	case "version":
		ver, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("migrate version: %w", err)
		}
		logger.Info("current version", slog.Uint64("version", uint64(ver)), slog.Bool("dirty", dirty))

	case "force":
		var version int
		if _, err := fmt.Sscanf(args[0], "%d", &version); err != nil {
			return fmt.Errorf("invalid version: %w", err)
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("migrate force: %w", err)
		}
		logger.Info("forced version", slog.Int("version", version))
	}

	return nil
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrateLogger) Verbose() bool {
	return false
}
