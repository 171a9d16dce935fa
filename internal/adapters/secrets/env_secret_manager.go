package secrets

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kevin07696/payment-intents/internal/domain/ports"
)

// envSecretManager implements SecretManagerAdapter using environment variables.
// WARNING: This is for development only. Use AWS Secrets Manager or Vault in production.
type envSecretManager struct {
	logger *zap.Logger
}

// NewEnvSecretManager creates a secret manager backed by environment variables
func NewEnvSecretManager(logger *zap.Logger) ports.SecretManagerAdapter {
	return &envSecretManager{logger: logger}
}

// GetSecret reads a secret from the environment variable named by path
func (m *envSecretManager) GetSecret(_ context.Context, path string) (*ports.Secret, error) {
	m.logger.Debug("Reading secret from environment", zap.String("path", path))

	value, ok := os.LookupEnv(path)
	if !ok || value == "" {
		return nil, fmt.Errorf("secret not found: %s", path)
	}

	return &ports.Secret{
		Value:   value,
		Version: "v1",
	}, nil
}
