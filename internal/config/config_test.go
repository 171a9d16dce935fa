package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("PROCESSOR_DRIVER", "mock")
	t.Setenv("CRON_SECRET", "cron-token")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, "payment_intents", cfg.Database.Database)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, "mock", cfg.Processor.Driver)
	// No /v1 suffix: the processor client appends the versioned path
	assert.Equal(t, "https://api.stripe.com", cfg.Processor.BaseURL)
	assert.Equal(t, "usd", cfg.Processor.DefaultCurrency)
	assert.Equal(t, "env", cfg.Secrets.Backend)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("PROCESSOR_DRIVER", "stripe")
	t.Setenv("PROCESSOR_BASE_URL", "https://api.example.test/v1")
	t.Setenv("DEFAULT_CURRENCY", "eur")
	t.Setenv("SECRETS_BACKEND", "vault")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "stripe", cfg.Processor.Driver)
	assert.Equal(t, "https://api.example.test/v1", cfg.Processor.BaseURL)
	assert.Equal(t, "eur", cfg.Processor.DefaultCurrency)
	assert.Equal(t, "vault", cfg.Secrets.Backend)
	assert.True(t, cfg.Logger.Development)
}

func TestLoadFromEnv_MissingPassword(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("PROCESSOR_DRIVER", "mock")
	t.Setenv("CRON_SECRET", "cron-token")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestLoadFromEnv_MissingDriver(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("PROCESSOR_DRIVER", "")
	t.Setenv("CRON_SECRET", "cron-token")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROCESSOR_DRIVER")
}

func TestLoadFromEnv_UnknownDriver(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PROCESSOR_DRIVER", "paypal")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paypal")
}

func TestLoadFromEnv_UnknownSecretsBackend(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SECRETS_BACKEND", "gcp")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gcp")
}

func TestLoadFromEnv_MissingCronSecret(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("PROCESSOR_DRIVER", "mock")
	t.Setenv("CRON_SECRET", "")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRON_SECRET")
}

func TestConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "app",
		Password: "pw",
		Database: "payments",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=app password=pw dbname=payments sslmode=require",
		db.ConnectionString())
}

func TestLoadFromEnv_BadIntFallsBackToDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
