package intent

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIdempotencyKey_SuppliedKeyUsedVerbatim(t *testing.T) {
	key, generated := ResolveIdempotencyKey("order-1234")
	assert.Equal(t, "order-1234", key)
	assert.False(t, generated)
}

func TestResolveIdempotencyKey_TrimsWhitespace(t *testing.T) {
	key, generated := ResolveIdempotencyKey("  order-1234\n")
	assert.Equal(t, "order-1234", key)
	assert.False(t, generated)
}

func TestResolveIdempotencyKey_GeneratesUUIDWhenEmpty(t *testing.T) {
	key, generated := ResolveIdempotencyKey("")
	assert.True(t, generated)

	_, err := uuid.Parse(key)
	require.NoError(t, err, "generated key must be a valid UUID")
}

func TestResolveIdempotencyKey_BlankTreatedAsAbsent(t *testing.T) {
	key, generated := ResolveIdempotencyKey("   ")
	assert.True(t, generated)
	assert.NotEmpty(t, key)
}

func TestResolveIdempotencyKey_GeneratedKeysAreUnique(t *testing.T) {
	a, _ := ResolveIdempotencyKey("")
	b, _ := ResolveIdempotencyKey("")
	assert.NotEqual(t, a, b)
}
