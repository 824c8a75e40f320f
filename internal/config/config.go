// Package config loads the relay's settings from a .env file and the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/nfrund/hexgames/internal/pubsub"
)

// Config holds all configuration for the application.
type Config struct {
	Addr       string `validate:"required"`
	SaveDir    string `validate:"required"`
	CostScript string
	LogFormat  string `validate:"oneof=text json"`
	LogLevel   string `validate:"oneof=debug info warn error"`
	Recorded   int    `validate:"gte=0"`
	Tracing    pubsub.TracingConfig
}

// New loads configuration from environment variables, reading a .env
// file first when one exists.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the environment alone.
func FromEnv() (*Config, error) {
	tracing := pubsub.DefaultTracingConfig()
	tracing.Enabled = boolEnv("RELAY_TRACING_ENABLED", tracing.Enabled)
	tracing.ServiceName = env("RELAY_TRACING_SERVICE_NAME", tracing.ServiceName)
	tracing.ZipkinURL = env("RELAY_TRACING_ZIPKIN_URL", tracing.ZipkinURL)

	recorded, err := strconv.Atoi(env("RELAY_RECORDED_MATCHES", "16"))
	if err != nil {
		return nil, fmt.Errorf("RELAY_RECORDED_MATCHES: %w", err)
	}

	cfg := &Config{
		Addr:       env("RELAY_ADDR", ":8081"),
		SaveDir:    env("SAVE_DIR", "saves"),
		CostScript: os.Getenv("COST_SCRIPT"),
		LogFormat:  env("LOG_FORMAT", "text"),
		LogLevel:   env("LOG_LEVEL", "info"),
		Recorded:   recorded,
		Tracing:    tracing,
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func boolEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
