package models

import (
	"encoding/json"
	"time"
)

// EventType enumerates the recognized webhook event kinds. Anything the
// processor sends outside this set parses to EventUnknown and is ledgered
// without producing a status transition.
type EventType string

const (
	EventIntentCreated        EventType = "payment_intent.created"
	EventIntentRequiresAction EventType = "payment_intent.requires_action"
	EventIntentSucceeded      EventType = "payment_intent.succeeded"
	EventIntentFailed         EventType = "payment_intent.payment_failed"
	EventUnknown              EventType = "unknown"
)

// ParseEventType maps a wire event-type string to the recognized enum
func ParseEventType(raw string) EventType {
	switch EventType(raw) {
	case EventIntentCreated, EventIntentRequiresAction, EventIntentSucceeded, EventIntentFailed:
		return EventType(raw)
	default:
		return EventUnknown
	}
}

// TargetStatus returns the payment status this event type drives a record
// toward. ok is false for EventUnknown, which carries no transition.
func (t EventType) TargetStatus() (IntentStatus, bool) {
	switch t {
	case EventIntentCreated:
		return StatusCreated, true
	case EventIntentRequiresAction:
		return StatusRequiresAction, true
	case EventIntentSucceeded:
		return StatusSucceeded, true
	case EventIntentFailed:
		return StatusFailed, true
	default:
		return "", false
	}
}

// WebhookEvent is one ledgered webhook delivery. EventID is the
// processor-assigned globally unique id and the deduplication key.
// Payload holds the verified raw bytes verbatim for audit and replay.
// Applied tracks whether the status transition the event carries has been
// reconciled into the payment record; an event whose application was
// deferred stays Applied=false until a redelivery or sweep applies it.
type WebhookEvent struct {
	EventID    string
	Type       string
	Payload    []byte
	Applied    bool
	AppliedAt  *time.Time
	ReceivedAt time.Time
}

// VerifiedEvent is the structured view of a webhook event after its
// signature has been verified. Raw is the exact signed byte payload.
type VerifiedEvent struct {
	ID       string
	Type     EventType
	RawType  string
	IntentID string
	Raw      []byte
}

// eventEnvelope matches the processor's webhook JSON shape
type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// DecodeEventEnvelope parses verified webhook bytes into a VerifiedEvent.
// It must only be called after signature verification succeeded.
func DecodeEventEnvelope(payload []byte) (*VerifiedEvent, error) {
	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	return &VerifiedEvent{
		ID:       env.ID,
		Type:     ParseEventType(env.Type),
		RawType:  env.Type,
		IntentID: env.Data.Object.ID,
		Raw:      payload,
	}, nil
}
