package modules

import (
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/memohai/valentines/internal/boot"
	"github.com/memohai/valentines/internal/config"
	"github.com/memohai/valentines/internal/logger"
)

// ConfigPath is the config file chosen on the command line; empty means the default.
type ConfigPath string

var InfraModule = fx.Module(
	"infra",
	fx.Provide(
		provideConfig,
		provideLogger,
		boot.ProvideRuntimeConfig,
	),
)

func provideConfig(path ConfigPath) (config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}
