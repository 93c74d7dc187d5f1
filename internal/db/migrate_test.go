package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/memohai/valentines/internal/config"
	"github.com/memohai/valentines/internal/logger"
)

func TestRunMigrateUnknownCommand(t *testing.T) {
	t.Parallel()

	if err := RunMigrate(nil, Target{}, "invalid", nil); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}

func TestRunMigrateForceRequiresVersion(t *testing.T) {
	t.Parallel()

	if err := RunMigrate(nil, Target{}, "force", nil); err == nil {
		t.Fatalf("expected error for force without version")
	}
}

func TestResolveTarget(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Storage.SQLitePath = "/var/lib/valentines/v.db"

	pg, err := ResolveTarget(config.StorageDriverPostgres, "", cfg)
	if err != nil {
		t.Fatalf("postgres target: %v", err)
	}
	if pg.URL != "postgres://postgres:@127.0.0.1:5432/valentines?sslmode=disable" {
		t.Errorf("unexpected postgres url: %s", pg.URL)
	}
	if pg.Migrations == nil {
		t.Errorf("postgres migrations missing")
	}

	override, err := ResolveTarget(config.StorageDriverPostgres, "postgres://a:b@h/db", cfg)
	if err != nil || override.URL != "postgres://a:b@h/db" {
		t.Errorf("unexpected override: %s %v", override.URL, err)
	}

	lite, err := ResolveTarget(config.StorageDriverSQLite, "", cfg)
	if err != nil || lite.URL != "sqlite://"+SQLiteDSN("/var/lib/valentines/v.db") {
		t.Errorf("unexpected sqlite target: %s %v", lite.URL, err)
	}

	if _, err := ResolveTarget("mysql", "", cfg); err == nil {
		t.Errorf("expected error for unknown driver")
	}
}

func TestRunMigrateSQLiteUpAndDown(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "migrate.db")
	target, err := ResolveTarget(config.StorageDriverSQLite, "", cfg)
	if err != nil {
		t.Fatalf("resolve target: %v", err)
	}

	log := logger.Discard()
	if err := RunMigrate(log, target, "up", nil); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if err := RunMigrate(log, target, "up", nil); err != nil {
		t.Fatalf("second up must be a no-op: %v", err)
	}

	conn, err := OpenSQLite(context.Background(), cfg.Storage.SQLitePath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer conn.Close()

	const tables = `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('members', 'valentines')`
	var count int
	if err := conn.QueryRow(tables).Scan(&count); err != nil || count != 2 {
		t.Fatalf("expected 2 tables after up, got %d (%v)", count, err)
	}

	if err := RunMigrate(log, target, "down", nil); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	if err := conn.QueryRow(tables).Scan(&count); err != nil || count != 0 {
		t.Fatalf("expected no tables after down, got %d (%v)", count, err)
	}
}
