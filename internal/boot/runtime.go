// Package boot provides runtime configuration for the bot process.
package boot

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/memohai/valentines/internal/config"
)

// RuntimeConfig holds settings resolved at process start.
// Values may be overridden by environment variables (BOT_TOKEN, DATABASE_URL, HTTP_ADDR, WEBHOOK_URL).
type RuntimeConfig struct {
	BotToken      string
	TelegramMode  string
	WebhookURL    string
	ServerAddr    string
	StorageDriver string
	DatabaseURL   string
	Location      *time.Location
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and applies env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	ret := &RuntimeConfig{
		BotToken:      strings.TrimSpace(cfg.Telegram.BotToken),
		TelegramMode:  strings.ToLower(strings.TrimSpace(cfg.Telegram.Mode)),
		WebhookURL:    strings.TrimSpace(cfg.Telegram.WebhookURL),
		ServerAddr:    cfg.Server.Addr,
		StorageDriver: strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)),
		DatabaseURL:   strings.TrimSpace(cfg.Postgres.URL),
	}

	if value := os.Getenv("BOT_TOKEN"); value != "" {
		ret.BotToken = strings.TrimSpace(value)
	}
	if value := os.Getenv("DATABASE_URL"); value != "" {
		ret.DatabaseURL = strings.TrimSpace(value)
	}
	if value := os.Getenv("HTTP_ADDR"); value != "" {
		ret.ServerAddr = value
	}
	if value := os.Getenv("WEBHOOK_URL"); value != "" {
		ret.WebhookURL = strings.TrimSpace(value)
	}

	if ret.BotToken == "" {
		return nil, errors.New("telegram bot token is required")
	}
	switch ret.TelegramMode {
	case "":
		ret.TelegramMode = config.DefaultTelegramMode
	case config.TelegramModeWebhook, config.TelegramModePolling:
	default:
		return nil, fmt.Errorf("unsupported telegram mode: %s", cfg.Telegram.Mode)
	}
	switch ret.StorageDriver {
	case "":
		ret.StorageDriver = config.DefaultStorageDriver
	case config.StorageDriverPostgres, config.StorageDriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}

	if limit := cfg.Valentines.ListLimit; limit < 0 || limit > config.MaxListLimit {
		return nil, fmt.Errorf("valentines.list_limit must be between 0 and %d, got %d", config.MaxListLimit, limit)
	}

	loc, err := LoadLocation(cfg.Valentines.Timezone)
	if err != nil {
		return nil, err
	}
	ret.Location = loc
	return ret, nil
}

// LoadLocation resolves a timezone name, defaulting to UTC when empty.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}
