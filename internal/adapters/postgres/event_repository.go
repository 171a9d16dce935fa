package postgres

import (
	"context"
	"fmt"

	"github.com/kevin07696/payment-intents/internal/domain/models"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
)

// EventRepository implements ports.EventLedger against the payment_events
// table. The primary key on event_id is the deduplication boundary for
// at-least-once webhook delivery.
type EventRepository struct {
	db ports.DBPort
}

// NewEventRepository creates a new event ledger repository
func NewEventRepository(db ports.DBPort) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) querier(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.db.GetDB()
}

// Insert appends the event to the ledger. A conflict on event_id means
// the event was already accepted once; the duplicate is a no-op and
// firstDelivery is false.
func (r *EventRepository) Insert(ctx context.Context, tx ports.DBTX, ev *models.WebhookEvent) (bool, error) {
	tag, err := r.querier(tx).Exec(ctx, `
		INSERT INTO payment_events (event_id, type, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING`,
		ev.EventID, ev.Type, ev.Payload,
	)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// GetByID returns one ledgered event by its event id
func (r *EventRepository) GetByID(ctx context.Context, tx ports.DBTX, eventID string) (*models.WebhookEvent, error) {
	var ev models.WebhookEvent
	err := r.querier(tx).QueryRow(ctx, `
		SELECT event_id, type, payload, applied, applied_at, received_at
		FROM payment_events
		WHERE event_id = $1`,
		eventID,
	).Scan(&ev.EventID, &ev.Type, &ev.Payload, &ev.Applied, &ev.AppliedAt, &ev.ReceivedAt)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &ev, nil
}

// MarkApplied records that the event's status transition has been reconciled
func (r *EventRepository) MarkApplied(ctx context.Context, tx ports.DBTX, eventID string) error {
	_, err := r.querier(tx).Exec(ctx, `
		UPDATE payment_events
		SET applied = true, applied_at = now()
		WHERE event_id = $1`,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("mark event applied: %w", err)
	}
	return nil
}

// ListUnapplied returns events whose status application was deferred,
// oldest first so replays preserve delivery order
func (r *EventRepository) ListUnapplied(ctx context.Context, tx ports.DBTX, limit int32) ([]*models.WebhookEvent, error) {
	rows, err := r.querier(tx).Query(ctx, `
		SELECT event_id, type, payload, applied, applied_at, received_at
		FROM payment_events
		WHERE applied = false
		ORDER BY received_at ASC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unapplied events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// List returns the most recently received events, newest first
func (r *EventRepository) List(ctx context.Context, tx ports.DBTX, limit int32) ([]*models.WebhookEvent, error) {
	rows, err := r.querier(tx).Query(ctx, `
		SELECT event_id, type, payload, applied, applied_at, received_at
		FROM payment_events
		ORDER BY received_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func collectEvents(rows pgxRows) ([]*models.WebhookEvent, error) {
	var events []*models.WebhookEvent
	for rows.Next() {
		var ev models.WebhookEvent
		if err := rows.Scan(&ev.EventID, &ev.Type, &ev.Payload, &ev.Applied, &ev.AppliedAt, &ev.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
