package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration. Values come from an optional
// YAML file, with environment variables taking precedence.
type Config struct {
	Environment string `yaml:"environment"`
	APIBaseURL  string `yaml:"apiBaseUrl"`
	LogLevel    string `yaml:"logLevel"`

	// Gateway server
	ServerPort         int      `yaml:"serverPort"`
	CORSAllowedOrigins []string `yaml:"corsAllowedOrigins"`
	RateLimitPerMinute int      `yaml:"rateLimitPerMinute"`

	// Project cache
	RefreshIntervalMinutes int    `yaml:"refreshIntervalMinutes"`
	RenewalWarningDays     int    `yaml:"renewalWarningDays"`
	RedisURL               string `yaml:"redisUrl"` // optional; enables Redis session/cache stores

	// CLI session persistence. Empty means <user config dir>/projectflow/session.json.
	SessionFile string `yaml:"sessionFile"`
}

// Load reads configuration from PROJECTFLOW_CONFIG (or ./projectflow.yaml if
// present), then applies environment variable overrides.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:            "development",
		APIBaseURL:             "https://project-flow-backend.vercel.app/api",
		LogLevel:               "info",
		ServerPort:             8080,
		CORSAllowedOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		RateLimitPerMinute:     100,
		RefreshIntervalMinutes: 5,
		RenewalWarningDays:     15,
	}

	path := os.Getenv("PROJECTFLOW_CONFIG")
	if path == "" {
		if _, err := os.Stat("projectflow.yaml"); err == nil {
			path = "projectflow.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("api base URL must not be empty")
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.APIBaseURL = getEnv("PROJECTFLOW_API", cfg.APIBaseURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.SessionFile = getEnv("PROJECTFLOW_SESSION_FILE", cfg.SessionFile)

	var err error
	if cfg.ServerPort, err = getEnvInt("SERVER_PORT", cfg.ServerPort); err != nil {
		return err
	}
	if cfg.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute); err != nil {
		return err
	}
	if cfg.RefreshIntervalMinutes, err = getEnvInt("REFRESH_INTERVAL_MINUTES", cfg.RefreshIntervalMinutes); err != nil {
		return err
	}
	if cfg.RenewalWarningDays, err = getEnvInt("RENEWAL_WARNING_DAYS", cfg.RenewalWarningDays); err != nil {
		return err
	}

	if origins := parseCSVEnv("CORS_ALLOWED_ORIGINS", nil); origins != nil {
		cfg.CORSAllowedOrigins = origins
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
