package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/payment-intents/internal/domain/models"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
)

// PaymentRepository implements ports.PaymentRepository against the
// payments table. Every write is a single atomic statement; the unique
// primary key on the intent id and the conditional status predicate are
// what make concurrent creators and reconcilers safe.
type PaymentRepository struct {
	db ports.DBPort
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db ports.DBPort) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) querier(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.db.GetDB()
}

// UpsertOnCreate inserts the payment record. If the identical intent id
// already exists (a replayed retry against the same idempotency key) only
// updated_at advances; amount, currency, status and metadata are untouched.
func (r *PaymentRepository) UpsertOnCreate(ctx context.Context, tx ports.DBTX, rec *models.PaymentRecord) error {
	metadataBytes, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.querier(tx).Exec(ctx, `
		INSERT INTO payments (id, amount, currency, status, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET updated_at = now()`,
		rec.ID, rec.Amount, rec.Currency, string(rec.Status), metadataBytes,
	)
	if err != nil {
		return fmt.Errorf("upsert payment: %w", err)
	}

	return nil
}

// ApplyStatus writes the target status only if the row's current status is
// one from which the transition is legal. The allowed-set predicate keeps
// terminal-state protection and out-of-order rejection inside one atomic
// UPDATE, so concurrent deliveries for the same intent cannot interleave
// into an illegal state.
func (r *PaymentRepository) ApplyStatus(ctx context.Context, tx ports.DBTX, intentID string, target models.IntentStatus) (ports.ApplyResult, error) {
	q := r.querier(tx)

	allowed := models.AllowedPriorStatuses(target)
	if len(allowed) == 0 {
		// Nothing transitions into this status; check existence only.
		return r.classifyNoop(ctx, q, intentID)
	}

	tag, err := q.Exec(ctx, `
		UPDATE payments
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`,
		intentID, string(target), allowed,
	)
	if err != nil {
		return ports.ApplyNoTransition, fmt.Errorf("apply status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return ports.ApplyApplied, nil
	}

	return r.classifyNoop(ctx, q, intentID)
}

// classifyNoop distinguishes "record does not exist yet" from "record
// exists but the transition is not allowed" after a zero-row update
func (r *PaymentRepository) classifyNoop(ctx context.Context, q ports.DBTX, intentID string) (ports.ApplyResult, error) {
	var one int
	err := q.QueryRow(ctx, `SELECT 1 FROM payments WHERE id = $1`, intentID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ports.ApplyNoRecord, nil
	}
	if err != nil {
		return ports.ApplyNoTransition, fmt.Errorf("check payment existence: %w", err)
	}
	return ports.ApplyNoTransition, nil
}

// GetByID retrieves a payment record by processor intent id
func (r *PaymentRepository) GetByID(ctx context.Context, tx ports.DBTX, intentID string) (*models.PaymentRecord, error) {
	row := r.querier(tx).QueryRow(ctx, `
		SELECT id, amount, currency, status, metadata, created_at, updated_at
		FROM payments
		WHERE id = $1`,
		intentID,
	)

	rec, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("get payment by id: %w", err)
	}
	return rec, nil
}

// List returns the most recently created payment records, newest first
func (r *PaymentRepository) List(ctx context.Context, tx ports.DBTX, limit int32) ([]*models.PaymentRecord, error) {
	rows, err := r.querier(tx).Query(ctx, `
		SELECT id, amount, currency, status, metadata, created_at, updated_at
		FROM payments
		ORDER BY created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var records []*models.PaymentRecord
	for rows.Next() {
		rec, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	return records, nil
}

func scanPayment(row pgx.Row) (*models.PaymentRecord, error) {
	var rec models.PaymentRecord
	var status string
	var metadataBytes []byte

	if err := row.Scan(&rec.ID, &rec.Amount, &rec.Currency, &status, &metadataBytes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	rec.Status = models.IntentStatus(status)
	if len(metadataBytes) > 0 {
		if err := json.Unmarshal(metadataBytes, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return &rec, nil
}

func marshalMetadata(metadata map[string]string) ([]byte, error) {
	if metadata == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(metadata)
}
