package modules

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"

	"github.com/memohai/valentines/internal/boot"
	"github.com/memohai/valentines/internal/config"
	"github.com/memohai/valentines/internal/db"
	dbsqlc "github.com/memohai/valentines/internal/db/sqlc"
	"github.com/memohai/valentines/internal/members"
	"github.com/memohai/valentines/internal/storage/postgres"
	"github.com/memohai/valentines/internal/storage/sqlite"
	"github.com/memohai/valentines/internal/valentines"
)

var StorageModule = fx.Module(
	"storage",
	fx.Provide(provideStores),
	fx.Invoke(runMigrations),
)

type storeResult struct {
	fx.Out

	Members    members.Store
	Valentines valentines.Store
}

func provideStores(lc fx.Lifecycle, log *slog.Logger, rc *boot.RuntimeConfig, cfg config.Config) (storeResult, error) {
	ctx := context.Background()
	switch rc.StorageDriver {
	case config.StorageDriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return storeResult{}, fmt.Errorf("sqlite connect: %w", err)
		}
		appendClose(lc, func() { _ = conn.Close() })
		log.Info("storage ready", slog.String("driver", rc.StorageDriver), slog.String("path", cfg.Storage.SQLitePath))
		return sqliteStores(conn), nil
	default:
		url := rc.DatabaseURL
		if url == "" {
			url = db.DSN(cfg.Postgres)
		}
		pool, err := db.Open(ctx, url)
		if err != nil {
			return storeResult{}, fmt.Errorf("db connect: %w", err)
		}
		appendClose(lc, pool.Close)
		log.Info("storage ready", slog.String("driver", rc.StorageDriver))
		return postgresStores(pool), nil
	}
}

func sqliteStores(conn *sql.DB) storeResult {
	store := sqlite.NewStore(conn)
	return storeResult{Members: store, Valentines: store}
}

func postgresStores(pool *pgxpool.Pool) storeResult {
	store := postgres.NewStore(dbsqlc.New(pool))
	return storeResult{Members: store, Valentines: store}
}

func appendClose(lc fx.Lifecycle, closeFn func()) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closeFn()
			return nil
		},
	})
}

func runMigrations(lc fx.Lifecycle, log *slog.Logger, rc *boot.RuntimeConfig, cfg config.Config) {
	if !cfg.Storage.AutoMigrate {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			target, err := db.ResolveTarget(rc.StorageDriver, rc.DatabaseURL, cfg)
			if err != nil {
				return err
			}
			if err := db.RunMigrate(log, target, "up", nil); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			return nil
		},
	})
}
