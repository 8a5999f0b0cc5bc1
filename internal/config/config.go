// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config represents the complete server configuration
type Config struct {
	Server        ServerConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `validate:"min=1,max=65535"`
	AllowedOrigins  []string      `validate:"min=1,dive,required"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// AuthConfig holds credential verification settings
type AuthConfig struct {
	ProjectID          string        `validate:"required"`
	KeysURL            string        `validate:"omitempty,url"`
	ClockSkew          time.Duration `validate:"gte=0"`
	KeyFetchTimeout    time.Duration `validate:"gt=0"`
	MinRefreshInterval time.Duration `validate:"gte=0"`
	BackgroundRefresh  bool
}

// ObservabilityConfig holds logging and metrics configuration
type ObservabilityConfig struct {
	LogLevel       string `validate:"oneof=debug info warn error"`
	LogFormat      string `validate:"oneof=json text"`
	MetricsEnabled bool
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first if it exists; variables already set in
// the environment win. Unset variables take their defaults; values that do
// not parse are an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		Server: ServerConfig{
			Port:            env.getInt("PORT", 8081),
			AllowedOrigins:  env.getList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			ShutdownTimeout: env.getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			ProjectID:          env.get("FIREBASE_PROJECT_ID", ""),
			KeysURL:            env.get("AUTH_KEYS_URL", ""),
			ClockSkew:          env.getDuration("AUTH_CLOCK_SKEW", 0),
			KeyFetchTimeout:    env.getDuration("AUTH_KEY_FETCH_TIMEOUT", 10*time.Second),
			MinRefreshInterval: env.getDuration("AUTH_MIN_REFRESH_INTERVAL", 30*time.Second),
			BackgroundRefresh:  env.getBool("AUTH_BACKGROUND_REFRESH", true),
		},
		Observability: ObservabilityConfig{
			LogLevel:       strings.ToLower(env.get("LOG_LEVEL", "info")),
			LogFormat:      strings.ToLower(env.get("LOG_FORMAT", "json")),
			MetricsEnabled: env.getBool("METRICS_ENABLED", true),
		},
	}
	if err := env.err(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Address returns the listen address for the HTTP server.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// envReader reads typed variables and collects every parse failure.
type envReader struct {
	errs []error
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}

func (r *envReader) fail(key, value string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (r *envReader) get(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func (r *envReader) getInt(key string, defaultValue int) int {
	valueStr := r.get(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		r.fail(key, valueStr, err)
		return defaultValue
	}
	return value
}

func (r *envReader) getBool(key string, defaultValue bool) bool {
	valueStr := r.get(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		r.fail(key, valueStr, err)
		return defaultValue
	}
	return value
}

func (r *envReader) getDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := r.get(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		r.fail(key, valueStr, err)
		return defaultValue
	}
	return value
}

func (r *envReader) getList(key string, defaultValue []string) []string {
	valueStr := r.get(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
