package ports

import (
	"context"

	"github.com/kevin07696/payment-intents/internal/domain/models"
)

// EventLedger is the append-only, dedup-guaranteed store of accepted
// webhook events. The unique key on event id is the idempotence boundary:
// only first deliveries proceed to reconciliation.
type EventLedger interface {
	// Insert attempts an insert keyed by event id. A conflict means the
	// event was already processed; it is treated as a harmless duplicate
	// and firstDelivery is false with no error.
	Insert(ctx context.Context, tx DBTX, ev *models.WebhookEvent) (firstDelivery bool, err error)

	// GetByID returns one ledgered event by its event id, pgx.ErrNoRows
	// if it was never ledgered
	GetByID(ctx context.Context, tx DBTX, eventID string) (*models.WebhookEvent, error)

	// MarkApplied records that the event's status transition has been
	// reconciled (or that it carries none)
	MarkApplied(ctx context.Context, tx DBTX, eventID string) error

	// ListUnapplied returns ledgered events whose application was
	// deferred, oldest first, for the reconciliation sweep
	ListUnapplied(ctx context.Context, tx DBTX, limit int32) ([]*models.WebhookEvent, error)

	// List returns the most recently received events, newest first
	List(ctx context.Context, tx DBTX, limit int32) ([]*models.WebhookEvent, error)
}
