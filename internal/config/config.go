package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken   string
	DiscordGuildID string
	DatabasePath   string
	MigrationsURL  string
	WebAddr        string
	LogLevel       slog.Level
	LobbyTimeout   time.Duration
	R2             R2Config
}

// R2Config holds the Cloudflare R2 credentials used for tournament archives.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
}

// Enabled is true when every R2 setting is present.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != ""
}

// Load reads the configuration from the environment. A .env file is loaded first
// when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN environment variable is not set")
	}

	level, err := parseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}

	timeout := 5 * time.Minute
	if raw := os.Getenv("LOBBY_TIMEOUT"); raw != "" {
		timeout, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid LOBBY_TIMEOUT environment variable: %w", err)
		}
		if timeout <= 0 {
			return nil, fmt.Errorf("LOBBY_TIMEOUT must be positive, got %s", timeout)
		}
	}

	cfg := &Config{
		DiscordToken:   token,
		DiscordGuildID: os.Getenv("DISCORD_GUILD_ID"),
		DatabasePath:   getenv("DATABASE_PATH", "winterdragon.db"),
		MigrationsURL:  getenv("MIGRATIONS_URL", "file://migrations"),
		WebAddr:        getenv("WEB_ADDR", ":8080"),
		LogLevel:       level,
		LobbyTimeout:   timeout,
		R2: R2Config{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("R2_BUCKET_NAME"),
		},
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid LOG_LEVEL %q, want debug, info, warn or error", raw)
}
