package ports

import (
	"context"
)

// CreateIntentRequest carries everything the processor needs to create one
// payment intent. IdempotencyKey is forwarded to the processor so repeated
// calls with the same key yield at most one real intent.
type CreateIntentRequest struct {
	Amount         int64 // minor currency units, already validated positive
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// IntentResult is the processor's view of a created (or replayed) intent
type IntentResult struct {
	ID           string // processor-assigned intent id, e.g. "pi_..."
	ClientSecret string
	Status       string // processor-native status string
}

// ProcessorGateway defines the interface to the external payment processor.
// Implementations must classify failures into the domain taxonomy:
// network errors, timeouts and 5xx responses map to ProcessorUnavailable
// (retryable with the same key); validation rejections map to
// ProcessorRejected (not retryable).
type ProcessorGateway interface {
	CreateIntent(ctx context.Context, req *CreateIntentRequest) (*IntentResult, error)
}
