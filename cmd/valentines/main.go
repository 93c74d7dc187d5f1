package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/valentines/cmd/valentines/modules"
	"github.com/memohai/valentines/internal/config"
	"github.com/memohai/valentines/internal/db"
	"github.com/memohai/valentines/internal/logger"
	"github.com/memohai/valentines/internal/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "valentines",
		Short:         "Anonymous valentines Telegram bot",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml (default $CONFIG_PATH or ./config.toml)")

	root.AddCommand(
		newServeCommand(&configPath),
		newMigrateCommand(&configPath),
		newVersionCommand(),
	)
	return root
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot (webhook or polling) and its HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Starting Valentines %s\n", version.GetInfo())
			app := fx.New(
				fx.Supply(modules.ConfigPath(resolveConfigPath(*configPath))),
				modules.InfraModule,
				modules.StorageModule,
				modules.CoreModule,
				modules.TelegramModule,
				modules.ServerModule,
				fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
					l := &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
					l.UseLogLevel(slog.LevelDebug)
					return l
				}),
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func newMigrateCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate <up|down|version|force N>",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"up", "down", "version", "force"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath(*configPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)

			driver := cfg.Storage.Driver
			databaseURL := strings.TrimSpace(cfg.Postgres.URL)
			if value := os.Getenv("DATABASE_URL"); value != "" {
				databaseURL = strings.TrimSpace(value)
			}
			target, err := db.ResolveTarget(driver, databaseURL, cfg)
			if err != nil {
				return err
			}
			if strings.EqualFold(strings.TrimSpace(driver), config.StorageDriverSQLite) {
				conn, err := db.OpenSQLite(context.Background(), cfg.Storage.SQLitePath)
				if err != nil {
					return err
				}
				_ = conn.Close()
			}
			return db.RunMigrate(logger.L, target, args[0], args[1:])
		},
	}
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Valentines %s\n", version.GetInfo())
		},
	}
}

func resolveConfigPath(flagValue string) string {
	if value := strings.TrimSpace(flagValue); value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv("CONFIG_PATH"))
}
