package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for qualitrack-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8088"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// LLM endpoint configuration
	LLM LLMConfig `yaml:"llm"`

	// Analytics assistant configuration
	Analytics AnalyticsConfig `yaml:"analytics"`

	// Timeline predictor configuration
	Timeline TimelineConfig `yaml:"timeline"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether bearer tokens are validated.
	// Set to false for local development; identity then comes from
	// X-User-ID / X-User-Role headers.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWTSecret is the HMAC secret shared with the host application that
	// issues tokens. Secret - env only.
	JWTSecret string `yaml:"-" env:"AUTH_JWT_SECRET"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"qualitrack"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"qualitrack_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// LLMConfig holds the OpenAI-compatible chat endpoint configuration.
// The default endpoint is the Groq OpenAI-compatible API.
type LLMConfig struct {
	BaseURL        string `yaml:"base_url" env:"LLM_BASE_URL" env-default:"https://api.groq.com/openai/v1"`
	Model          string `yaml:"model" env:"LLM_MODEL" env-default:"llama-3.3-70b-versatile"`
	APIKey         string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"30"`
}

// AnalyticsConfig holds settings for the NL->SQL assistant.
type AnalyticsConfig struct {
	// QueryTimeoutSeconds bounds execution of generated SQL. Generated
	// statements are untrusted and may be arbitrarily expensive.
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds" env:"ANALYTICS_QUERY_TIMEOUT_SECONDS" env-default:"15"`

	// StrictGuard enables the restrictive SQL guard (mutating verbs,
	// SELECT *, out-of-schema tables, injection fingerprints rejected).
	StrictGuard bool `yaml:"strict_guard" env:"ANALYTICS_STRICT_GUARD" env-default:"false"`
}

// TimelineConfig holds settings for the campaign timeline predictor.
type TimelineConfig struct {
	// ModelPath points at the JSON regression artifact. Absence of the
	// file is non-fatal; the predictor falls back to the linear estimate.
	ModelPath string `yaml:"model_path" env:"TIMELINE_MODEL_PATH" env-default:"research/timeline_model.json"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.EnableVerification && c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET must be set when auth verification is enabled")
	}
	if c.Timeline.ModelPath != "" {
		// Missing artifact is fine, but a path pointing at a directory is
		// a configuration mistake worth failing fast on.
		if info, err := os.Stat(c.Timeline.ModelPath); err == nil && info.IsDir() {
			return fmt.Errorf("timeline model_path %q is a directory", c.Timeline.ModelPath)
		}
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
