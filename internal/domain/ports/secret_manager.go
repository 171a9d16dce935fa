package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., webhook signing secret)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter defines the port for retrieving secrets from a
// secret management service. This service only consumes secrets (processor
// API key, webhook signing secret); rotation and writes are handled by
// operations tooling outside this codebase.
//
// Supported backends: AWS Secrets Manager, HashiCorp Vault, env vars
// (development only). Implementations are responsible for authentication
// and for caching with a sensible TTL.
type SecretManagerAdapter interface {
	// GetSecret retrieves a secret by its path/name.
	// Path format depends on implementation:
	//   - AWS:   "payment-intents/processor/api-key"
	//   - Vault: "payment-intents/processor" (KV v2, field "api-key")
	//   - Env:   the environment variable name
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
