package mock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
)

// Processor is an in-memory processor gateway for local development and
// tests. It honors idempotency keys the same way the real processor does:
// repeating a key returns the intent minted by the first call.
type Processor struct {
	mu      sync.Mutex
	intents map[string]ports.IntentResult // keyed by idempotency key
}

// NewProcessor creates an in-memory processor gateway
func NewProcessor() *Processor {
	return &Processor{
		intents: make(map[string]ports.IntentResult),
	}
}

// CreateIntent mints a payment intent, replaying the stored result when the
// idempotency key has been seen before
func (p *Processor) CreateIntent(_ context.Context, req *ports.CreateIntentRequest) (*ports.IntentResult, error) {
	if req.Amount <= 0 {
		return nil, domain.NewDomainError(domain.ErrorCodeProcessorRejected, "amount must be greater than zero")
	}
	if req.IdempotencyKey == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeProcessorRejected, "idempotency key is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.intents[req.IdempotencyKey]; ok {
		return &existing, nil
	}

	id := "pi_" + randomHex(12)
	result := ports.IntentResult{
		ID:           id,
		ClientSecret: fmt.Sprintf("%s_secret_%s", id, randomHex(12)),
		Status:       "requires_payment_method",
	}
	p.intents[req.IdempotencyKey] = result

	return &result, nil
}

// IntentCount reports how many distinct intents have been minted
func (p *Processor) IntentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.intents)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}
