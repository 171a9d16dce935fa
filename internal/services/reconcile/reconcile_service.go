package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/models"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
)

// Outcome classifies what processing one webhook event did
type Outcome int

const (
	// OutcomeApplied - the event's status transition was written
	OutcomeApplied Outcome = iota
	// OutcomeDuplicate - the event id was already ledgered and applied;
	// nothing changed
	OutcomeDuplicate
	// OutcomeDeferred - no payment record exists yet; the event stays
	// ledgered unapplied and a later sweep or redelivery applies it
	OutcomeDeferred
	// OutcomeSuperseded - the record already moved at or past the event's
	// target status; the stale transition was discarded
	OutcomeSuperseded
	// OutcomeIgnored - the event carries no transition (unrecognized type,
	// or an informational created event)
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeDeferred:
		return "deferred"
	case OutcomeSuperseded:
		return "superseded"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// SweepReport summarizes one reconciliation sweep over deferred events
type SweepReport struct {
	Scanned    int
	Applied    int
	Deferred   int
	Superseded int
	Ignored    int
	Failed     int
}

// Service reconciles verified webhook events into payment records. The
// ledger's unique event id is the dedup boundary; the conditional status
// update is the ordering boundary. Between them every delivery order,
// duplicate and race collapses to the same final record state.
type Service struct {
	db     ports.DBPort
	events ports.EventLedger
	repo   ports.PaymentRepository
	logger ports.Logger
}

// NewService creates a reconciliation service
func NewService(
	db ports.DBPort,
	events ports.EventLedger,
	repo ports.PaymentRepository,
	logger ports.Logger,
) *Service {
	return &Service{
		db:     db,
		events: events,
		repo:   repo,
		logger: logger,
	}
}

// ProcessEvent ledgers a verified event and applies its status transition.
// A redelivery of an already-applied event is a no-op; a redelivery of an
// event still unapplied retries the application, so both redelivery and
// the sweep converge deferred events. Every return path except a storage
// error leaves the system in a state where redelivering is harmless.
func (s *Service) ProcessEvent(ctx context.Context, ev *models.VerifiedEvent) (Outcome, error) {
	entry := &models.WebhookEvent{
		EventID:    ev.ID,
		Type:       ev.RawType,
		Payload:    ev.Raw,
		ReceivedAt: time.Now().UTC(),
	}

	firstDelivery, err := s.events.Insert(ctx, s.db.GetDB(), entry)
	if err != nil {
		return 0, domain.WrapError(domain.ErrorCodeDatabaseError, "failed to ledger event", err)
	}
	if !firstDelivery {
		existing, err := s.events.GetByID(ctx, s.db.GetDB(), ev.ID)
		if err != nil {
			return 0, domain.WrapError(domain.ErrorCodeDatabaseError, "failed to load ledgered event", err)
		}
		if existing.Applied {
			s.logger.Info("duplicate event delivery ignored",
				ports.String("event_id", ev.ID),
				ports.String("event_type", ev.RawType))
			return OutcomeDuplicate, nil
		}
		// Ledgered but never applied: the first delivery was deferred or
		// its application failed. A redelivery is another chance to
		// converge without waiting for the sweep.
		s.logger.Info("redelivery of unapplied event, retrying application",
			ports.String("event_id", ev.ID),
			ports.String("event_type", ev.RawType))
	}

	outcome, err := s.applyLedgered(ctx, ev.ID, ev.Type, ev.IntentID)
	if err != nil {
		// The event is ledgered but unapplied; the sweep will retry it
		s.logger.Error("event ledgered but application failed",
			ports.String("event_id", ev.ID),
			ports.Err(err))
		return 0, err
	}

	s.logger.Info("event reconciled",
		ports.String("event_id", ev.ID),
		ports.String("event_type", ev.RawType),
		ports.String("intent_id", ev.IntentID),
		ports.String("outcome", outcome.String()))

	return outcome, nil
}

// applyLedgered applies one ledgered event's transition and marks it
// applied in the same transaction, so a crash between the two cannot
// leave an applied-but-unmarked event.
func (s *Service) applyLedgered(ctx context.Context, eventID string, evType models.EventType, intentID string) (Outcome, error) {
	target, hasTransition := evType.TargetStatus()

	// Unrecognized types carry no transition. Created events are
	// informational: the issuance path already wrote the record.
	if !hasTransition || target == models.StatusCreated {
		if err := s.markApplied(ctx, eventID); err != nil {
			return 0, err
		}
		return OutcomeIgnored, nil
	}

	if intentID == "" {
		// Signed, recognized, but pointing at nothing we can ever match
		if err := s.markApplied(ctx, eventID); err != nil {
			return 0, err
		}
		return OutcomeIgnored, nil
	}

	var outcome Outcome
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		result, err := s.repo.ApplyStatus(ctx, tx, intentID, target)
		if err != nil {
			return fmt.Errorf("apply status: %w", err)
		}

		switch result {
		case ports.ApplyApplied:
			outcome = OutcomeApplied
		case ports.ApplyNoRecord:
			// Defer: leave the event unapplied for the sweep
			outcome = OutcomeDeferred
			return nil
		case ports.ApplyNoTransition:
			outcome = OutcomeSuperseded
		}

		if err := s.events.MarkApplied(ctx, tx, eventID); err != nil {
			return fmt.Errorf("mark applied: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, domain.WrapError(domain.ErrorCodeDatabaseError, "failed to apply event", err)
	}

	return outcome, nil
}

func (s *Service) markApplied(ctx context.Context, eventID string) error {
	if err := s.events.MarkApplied(ctx, s.db.GetDB(), eventID); err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "failed to mark event applied", err)
	}
	return nil
}

// Sweep replays ledgered events whose application was deferred, oldest
// first. Events for intents that have since been recorded get applied;
// the rest stay deferred for the next sweep.
func (s *Service) Sweep(ctx context.Context, limit int32) (*SweepReport, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	pending, err := s.events.ListUnapplied(ctx, s.db.GetDB(), limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "failed to list deferred events", err)
	}

	report := &SweepReport{Scanned: len(pending)}

	for _, entry := range pending {
		ev, err := models.DecodeEventEnvelope(entry.Payload)
		if err != nil {
			// Should not happen: payloads are parsed before ledgering.
			// Mark applied so one bad row cannot wedge the sweep.
			s.logger.Error("ledgered payload no longer parses",
				ports.String("event_id", entry.EventID),
				ports.Err(err))
			if markErr := s.markApplied(ctx, entry.EventID); markErr != nil {
				report.Failed++
				continue
			}
			report.Ignored++
			continue
		}

		outcome, err := s.applyLedgered(ctx, entry.EventID, ev.Type, ev.IntentID)
		if err != nil {
			report.Failed++
			continue
		}

		switch outcome {
		case OutcomeApplied:
			report.Applied++
		case OutcomeDeferred:
			report.Deferred++
		case OutcomeSuperseded:
			report.Superseded++
		default:
			report.Ignored++
		}
	}

	s.logger.Info("reconciliation sweep finished",
		ports.Int("scanned", report.Scanned),
		ports.Int("applied", report.Applied),
		ports.Int("deferred", report.Deferred),
		ports.Int("superseded", report.Superseded),
		ports.Int("ignored", report.Ignored),
		ports.Int("failed", report.Failed))

	return report, nil
}

// ListEvents returns the most recently ledgered events, newest first
func (s *Service) ListEvents(ctx context.Context, limit int32) ([]*models.WebhookEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	events, err := s.events.List(ctx, s.db.GetDB(), limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "failed to list events", err)
	}
	return events, nil
}
