package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/kevin07696/payment-intents/internal/adapters/secrets"
	"github.com/kevin07696/payment-intents/internal/config"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
)

// initSecretManager initializes the appropriate secret manager backend.
// Supports:
//   - AWS Secrets Manager (production): SECRETS_BACKEND=aws, AWS_REGION
//   - HashiCorp Vault: SECRETS_BACKEND=vault, VAULT_ADDR plus auth env vars
//   - Environment variables (development only): SECRETS_BACKEND=env
//
// The backend is validated at config load; an unknown value never
// reaches this function.
func initSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	switch cfg.Secrets.Backend {
	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.Secrets.AWSRegion)
		awsCfg.Profile = os.Getenv("AWS_PROFILE")
		awsCfg.Endpoint = os.Getenv("AWS_SECRETS_ENDPOINT")
		return secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(os.Getenv("VAULT_ADDR"))
		if method := os.Getenv("VAULT_AUTH_METHOD"); method != "" {
			vaultCfg.AuthMethod = method
		}
		vaultCfg.Token = os.Getenv("VAULT_TOKEN")
		vaultCfg.RoleID = os.Getenv("VAULT_ROLE_ID")
		vaultCfg.SecretID = os.Getenv("VAULT_SECRET_ID")
		vaultCfg.Namespace = os.Getenv("VAULT_NAMESPACE")
		if mount := os.Getenv("VAULT_MOUNT_PATH"); mount != "" {
			vaultCfg.MountPath = mount
		}
		return secrets.NewVaultAdapter(ctx, vaultCfg, logger)

	default:
		logger.Warn("Using environment variable secret manager; not for production use")
		return secrets.NewEnvSecretManager(logger), nil
	}
}
