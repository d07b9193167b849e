package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultSystemPrompt seeds the conversation context when CHAT_SYSTEM_PROMPT
// is not set. It is the companion persona the service ships with.
const DefaultSystemPrompt = "Tu es un assistant ami qui répond à des questions de manière amicale et naturelle, " +
	"tu m'aides dans mes réflexions et m'accompagne dans mes décisions de tous les jours."

// Config contains all runtime settings for the chat service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	StoreTimeout     time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	BrainAdapterMode string
	BrainHTTPURL     string

	DatabaseURL string

	SystemPrompt      string
	DefaultOwnerID    string
	DefaultOwnerName  string
	DefaultOwnerEmail string
	RestoreToday      bool
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8000"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "ami"),
		AllowAnyOrigin:    false,
		BrainAdapterMode:  envOrDefault("BRAIN_ADAPTER_MODE", "auto"),
		BrainHTTPURL:      envTrimmed("BRAIN_HTTP_URL"),
		DatabaseURL:       envTrimmed("DATABASE_URL"),
		SystemPrompt:      envOrDefault("CHAT_SYSTEM_PROMPT", DefaultSystemPrompt),
		DefaultOwnerID:    envOrDefault("CHAT_DEFAULT_OWNER_ID", "default-user"),
		DefaultOwnerName:  envOrDefault("CHAT_DEFAULT_OWNER_NAME", "default_user"),
		DefaultOwnerEmail: envOrDefault("CHAT_DEFAULT_OWNER_EMAIL", "default@example.com"),
		RestoreToday:      true,
		ShutdownTimeout:   15 * time.Second,
		StoreTimeout:      5 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.StoreTimeout, err = durationFromEnv("APP_STORE_TIMEOUT", cfg.StoreTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.RestoreToday, err = boolFromEnv("CHAT_RESTORE_TODAY", cfg.RestoreToday)
	if err != nil {
		return Config{}, err
	}

	if cfg.StoreTimeout < time.Second {
		return Config{}, fmt.Errorf("APP_STORE_TIMEOUT must be at least 1s")
	}
	if cfg.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_SHUTDOWN_TIMEOUT must be positive")
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		return Config{}, fmt.Errorf("CHAT_SYSTEM_PROMPT must not be blank")
	}
	if strings.TrimSpace(cfg.DefaultOwnerID) == "" {
		return Config{}, fmt.Errorf("CHAT_DEFAULT_OWNER_ID must not be blank")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
