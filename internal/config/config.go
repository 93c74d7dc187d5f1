// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath     = "config.toml"
	DefaultHTTPAddr       = ":8080"
	DefaultWebhookPath    = "/telegram/webhook"
	DefaultTelegramMode   = "webhook"
	DefaultSendRate       = 25.0
	DefaultSendBurst      = 5
	DefaultPollTimeout    = 30
	DefaultStorageDriver  = "postgres"
	DefaultSQLitePath     = "data/valentines.db"
	DefaultPGHost         = "127.0.0.1"
	DefaultPGPort         = 5432
	DefaultPGUser         = "postgres"
	DefaultPGDatabase     = "valentines"
	DefaultPGSSLMode      = "disable"
	DefaultCommunityName  = "our team"
	DefaultListLimit      = 5
	MaxListLimit          = 50
	DefaultTimezone       = "UTC"
	DefaultTimeFormat     = "02.01.2006 15:04"
	DefaultInboundWorkers = 4
	DefaultInboundQueue   = 256
)

// Telegram delivery modes.
const (
	TelegramModeWebhook = "webhook"
	TelegramModePolling = "polling"
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log        LogConfig        `toml:"log"`
	Server     ServerConfig     `toml:"server"`
	Telegram   TelegramConfig   `toml:"telegram"`
	Storage    StorageConfig    `toml:"storage"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Valentines ValentinesConfig `toml:"valentines"`
	Inbound    InboundConfig    `toml:"inbound"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP listen address and the webhook route.
type ServerConfig struct {
	Addr        string `toml:"addr"`
	WebhookPath string `toml:"webhook_path"`
}

// TelegramConfig holds bot credentials and update delivery settings.
type TelegramConfig struct {
	BotToken    string  `toml:"bot_token"`
	Mode        string  `toml:"mode"`
	WebhookURL  string  `toml:"webhook_url"`
	SecretToken string  `toml:"secret_token"`
	SendRate    float64 `toml:"send_rate"`
	SendBurst   int     `toml:"send_burst"`
	PollTimeout int     `toml:"poll_timeout"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver      string `toml:"driver"`
	SQLitePath  string `toml:"sqlite_path"`
	AutoMigrate bool   `toml:"auto_migrate"`
}

// PostgresConfig holds PostgreSQL connection parameters. URL, when set, wins over the discrete fields.
type PostgresConfig struct {
	URL      string `toml:"url"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// ValentinesConfig holds presentation settings for the bot.
type ValentinesConfig struct {
	CommunityName string `toml:"community_name"`
	ListLimit     int    `toml:"list_limit"`
	Timezone      string `toml:"timezone"`
	TimeFormat    string `toml:"time_format"`
}

// InboundConfig sizes the inbound dispatcher.
type InboundConfig struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
}

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:        DefaultHTTPAddr,
			WebhookPath: DefaultWebhookPath,
		},
		Telegram: TelegramConfig{
			Mode:        DefaultTelegramMode,
			SendRate:    DefaultSendRate,
			SendBurst:   DefaultSendBurst,
			PollTimeout: DefaultPollTimeout,
		},
		Storage: StorageConfig{
			Driver:      DefaultStorageDriver,
			SQLitePath:  DefaultSQLitePath,
			AutoMigrate: true,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Valentines: ValentinesConfig{
			CommunityName: DefaultCommunityName,
			ListLimit:     DefaultListLimit,
			Timezone:      DefaultTimezone,
			TimeFormat:    DefaultTimeFormat,
		},
		Inbound: InboundConfig{
			Workers:   DefaultInboundWorkers,
			QueueSize: DefaultInboundQueue,
		},
	}
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
// A missing file is not an error: the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
