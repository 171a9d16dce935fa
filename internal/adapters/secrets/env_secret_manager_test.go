package secrets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/payment-intents/internal/domain/ports"
)

func TestEnvSecretManager_GetSecret(t *testing.T) {
	t.Setenv("PROCESSOR_API_KEY", "sk_test_abc123")

	m := NewEnvSecretManager(zap.NewNop())

	secret, err := m.GetSecret(context.Background(), "PROCESSOR_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk_test_abc123", secret.Value)
}

func TestEnvSecretManager_NotFound(t *testing.T) {
	m := NewEnvSecretManager(zap.NewNop())

	_, err := m.GetSecret(context.Background(), "DOES_NOT_EXIST_XYZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret not found")
}

func TestSecretCache_HitAndExpiry(t *testing.T) {
	cache := newSecretCache(true, 50*time.Millisecond)

	secret := &ports.Secret{Value: "whsec_1", Version: "v1"}
	cache.set("webhook", secret)

	assert.Equal(t, secret, cache.get("webhook"))

	time.Sleep(60 * time.Millisecond)
	assert.Nil(t, cache.get("webhook"), "entry should expire after TTL")
}

func TestSecretCache_Disabled(t *testing.T) {
	cache := newSecretCache(false, time.Minute)

	cache.set("key", &ports.Secret{Value: "v"})
	assert.Nil(t, cache.get("key"))
}
