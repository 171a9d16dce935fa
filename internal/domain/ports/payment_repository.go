package ports

import (
	"context"

	"github.com/kevin07696/payment-intents/internal/domain/models"
)

// ApplyResult reports the outcome of a conditional status update
type ApplyResult int

const (
	// ApplyApplied - the status transition was written
	ApplyApplied ApplyResult = iota
	// ApplyNoRecord - no payment record exists for the intent id yet
	ApplyNoRecord
	// ApplyNoTransition - the record exists but the transition is not
	// allowed from its current status (terminal, or out-of-order replay)
	ApplyNoTransition
)

func (r ApplyResult) String() string {
	switch r {
	case ApplyApplied:
		return "applied"
	case ApplyNoRecord:
		return "no_record"
	case ApplyNoTransition:
		return "no_transition"
	default:
		return "unknown"
	}
}

// PaymentRepository is the durable store for payment records, keyed by
// processor intent id. All cross-request coordination happens here via
// atomic conditional writes; callers hold no locks.
type PaymentRepository interface {
	// UpsertOnCreate inserts the record, or if the identical id already
	// exists (a replayed retry) advances only updated_at. Amount,
	// currency and status of an existing row are never touched.
	UpsertOnCreate(ctx context.Context, tx DBTX, rec *models.PaymentRecord) error

	// ApplyStatus performs the atomic conditional update: the target
	// status is written only if the current status is one from which the
	// transition is legal. Safe under concurrent deliveries.
	ApplyStatus(ctx context.Context, tx DBTX, intentID string, target models.IntentStatus) (ApplyResult, error)

	// GetByID retrieves a payment record by processor intent id
	GetByID(ctx context.Context, tx DBTX, intentID string) (*models.PaymentRecord, error)

	// List returns the most recently created records, newest first
	List(ctx context.Context, tx DBTX, limit int32) ([]*models.PaymentRecord, error)
}
