// Package config loads the bot configuration from the environment. A .env
// file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

var (
	ErrMissingToken = errors.New("DISCORD_TOKEN is not set")
	ErrMissingAppID = errors.New("DISCORD_APP_ID is not set")
)

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`
	DiscordAppID string `env:"DISCORD_APP_ID"`
	// DiscordGuildID scopes slash commands to one guild, which registers
	// them instantly instead of after the global propagation delay.
	DiscordGuildID string `env:"DISCORD_GUILD_ID"`

	VirusTotalAPIKey string `env:"VIRUSTOTAL_API_KEY"`
	// LegacyMode makes the bot sync its own slash commands on ready.
	LegacyMode bool `env:"LEGACY_MODE" envDefault:"false"`

	CommandPrefix    string        `env:"COMMAND_PREFIX" envDefault:"$"`
	StoragePath      string        `env:"STORAGE_PATH" envDefault:"data/storage"`
	StorageQuotaMB   int64         `env:"STORAGE_QUOTA_MB" envDefault:"800"`
	DownloadWorkers  int           `env:"DOWNLOAD_WORKERS" envDefault:"3"`
	PresenceInterval time.Duration `env:"PRESENCE_INTERVAL" envDefault:"30s"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	BotName          string        `env:"BOT_NAME"`
}

// Load reads .env (if any) and parses the environment without validating.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "$"
	}
	return &cfg, nil
}

// New loads the configuration needed to run the bot.
func New() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks what the bot needs to connect.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return ErrMissingToken
	}
	if c.StorageQuotaMB <= 0 {
		return fmt.Errorf("STORAGE_QUOTA_MB must be positive, got %d", c.StorageQuotaMB)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// ValidateDeploy checks what the command deploy utility needs.
func (c *Config) ValidateDeploy() error {
	if c.DiscordToken == "" {
		return ErrMissingToken
	}
	if c.DiscordAppID == "" {
		return ErrMissingAppID
	}
	return nil
}

// StorageQuota is the per-user quota in bytes.
func (c *Config) StorageQuota() int64 {
	return c.StorageQuotaMB << 20
}

// Level is the parsed log level, info when unparseable.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
