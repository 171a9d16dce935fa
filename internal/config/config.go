package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Processor ProcessorConfig
	Secrets   SecretsConfig
	Cron      CronConfig
	Logger    LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// ProcessorConfig selects and configures the payment processor driver.
// Driver must be named explicitly; there is no silent fallback between
// the real processor and the mock.
type ProcessorConfig struct {
	Driver            string // "stripe" or "mock"
	BaseURL           string // processor API base URL
	APIKeySecretPath  string // where the secret manager finds the API key
	WebhookSecretPath string // where the secret manager finds the webhook signing secret
	Timeout           int    // request timeout in seconds
	MaxRetries        int
	DefaultCurrency   string
}

// SecretsConfig selects the secret manager backend
type SecretsConfig struct {
	Backend   string // "aws", "vault", or "env"
	AWSRegion string
}

// CronConfig holds configuration for scheduler-triggered endpoints
type CronConfig struct {
	Secret string // shared secret authenticating cron requests
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "payment_intents"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Processor: ProcessorConfig{
			Driver:            getEnv("PROCESSOR_DRIVER", ""),
			// The client appends /v1/payment_intents itself, so the base
			// URL carries no version segment
			BaseURL:           getEnv("PROCESSOR_BASE_URL", "https://api.stripe.com"),
			// Defaults suit the env backend; aws/vault deployments
			// override these with their secret paths
			APIKeySecretPath:  getEnv("PROCESSOR_API_KEY_SECRET", "STRIPE_API_KEY"),
			WebhookSecretPath: getEnv("PROCESSOR_WEBHOOK_SECRET", "STRIPE_WEBHOOK_SECRET"),
			Timeout:           getEnvAsInt("PROCESSOR_TIMEOUT", 10),
			MaxRetries:        getEnvAsInt("PROCESSOR_MAX_RETRIES", 2),
			DefaultCurrency:   getEnv("DEFAULT_CURRENCY", "usd"),
		},
		Secrets: SecretsConfig{
			Backend:   getEnv("SECRETS_BACKEND", "env"),
			AWSRegion: getEnv("AWS_REGION", "us-east-1"),
		},
		Cron: CronConfig{
			Secret: getEnv("CRON_SECRET", ""),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	switch cfg.Processor.Driver {
	case "stripe", "mock":
	case "":
		return nil, fmt.Errorf("PROCESSOR_DRIVER is required (stripe or mock)")
	default:
		return nil, fmt.Errorf("unknown processor driver %q (expected stripe or mock)", cfg.Processor.Driver)
	}

	switch cfg.Secrets.Backend {
	case "aws", "vault", "env":
	default:
		return nil, fmt.Errorf("unknown secrets backend %q (expected aws, vault, or env)", cfg.Secrets.Backend)
	}

	if cfg.Cron.Secret == "" {
		return nil, fmt.Errorf("CRON_SECRET is required")
	}

	return cfg, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
