// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all telegram-drive configuration.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Telegram bot transport
	BotToken string
	ChatID   int64
	APIBase  string // overridable for tests and self-hosted bot API servers

	// Log reading
	PageSize     int
	CursorDBPath string

	// Uploads
	MaxUploadSize int64
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:    envOr("LISTEN_ADDR", ":8080"),
		MetricsAddr:   envOr("METRICS_ADDR", ":9090"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		LogFormat:     envOr("LOG_FORMAT", "json"),
		BotToken:      envOr("TG_BOT_TOKEN", ""),
		ChatID:        envInt64("TG_CHAT_ID", 0),
		APIBase:       envOr("TG_API_BASE", "https://api.telegram.org"),
		PageSize:      envInt("PAGE_SIZE", 100),
		CursorDBPath:  envOr("CURSOR_DB_PATH", "tgdrive.bolt"),
		MaxUploadSize: envInt64("MAX_UPLOAD_SIZE", 50*1024*1024), // Bot API document ceiling
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TG_BOT_TOKEN is required")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("TG_CHAT_ID is required")
	}
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return nil, fmt.Errorf("PAGE_SIZE must be between 1 and 100, got %d", cfg.PageSize)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}
