// Package fixtures provides test data builders shared across test files.
package fixtures

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kevin07696/payment-intents/internal/domain/models"
)

// PaymentBuilder provides a fluent API for building test payment records.
type PaymentBuilder struct {
	record *models.PaymentRecord
}

// NewPayment creates a payment record builder with sensible defaults.
func NewPayment() *PaymentBuilder {
	now := time.Now().UTC()
	return &PaymentBuilder{
		record: &models.PaymentRecord{
			ID:        "pi_test_0001",
			Amount:    2500, // $25.00
			Currency:  "usd",
			Status:    models.StatusCreated,
			Metadata:  map[string]string{},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func (b *PaymentBuilder) WithID(id string) *PaymentBuilder {
	b.record.ID = id
	return b
}

func (b *PaymentBuilder) WithAmount(amount int64) *PaymentBuilder {
	b.record.Amount = amount
	return b
}

func (b *PaymentBuilder) WithCurrency(currency string) *PaymentBuilder {
	b.record.Currency = currency
	return b
}

func (b *PaymentBuilder) WithStatus(status models.IntentStatus) *PaymentBuilder {
	b.record.Status = status
	return b
}

func (b *PaymentBuilder) WithMetadata(metadata map[string]string) *PaymentBuilder {
	b.record.Metadata = metadata
	return b
}

func (b *PaymentBuilder) WithCreatedAt(t time.Time) *PaymentBuilder {
	b.record.CreatedAt = t
	return b
}

func (b *PaymentBuilder) WithUpdatedAt(t time.Time) *PaymentBuilder {
	b.record.UpdatedAt = t
	return b
}

// Build returns the constructed payment record.
func (b *PaymentBuilder) Build() *models.PaymentRecord {
	return b.record
}

// EventBuilder provides a fluent API for building test webhook events.
type EventBuilder struct {
	eventID  string
	evType   string
	intentID string
	applied  bool
	received time.Time
}

// NewEvent creates a webhook event builder with sensible defaults.
func NewEvent() *EventBuilder {
	return &EventBuilder{
		eventID:  "evt_test_0001",
		evType:   string(models.EventIntentSucceeded),
		intentID: "pi_test_0001",
		received: time.Now().UTC(),
	}
}

func (b *EventBuilder) WithEventID(id string) *EventBuilder {
	b.eventID = id
	return b
}

func (b *EventBuilder) WithType(evType string) *EventBuilder {
	b.evType = evType
	return b
}

func (b *EventBuilder) WithIntentID(id string) *EventBuilder {
	b.intentID = id
	return b
}

func (b *EventBuilder) Applied() *EventBuilder {
	b.applied = true
	return b
}

func (b *EventBuilder) WithReceivedAt(t time.Time) *EventBuilder {
	b.received = t
	return b
}

// Payload returns the event serialized in the processor's envelope shape.
func (b *EventBuilder) Payload() []byte {
	payload, err := json.Marshal(map[string]interface{}{
		"id":   b.eventID,
		"type": b.evType,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id": b.intentID,
			},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("fixtures: marshal event payload: %v", err))
	}
	return payload
}

// Build returns the constructed ledger row.
func (b *EventBuilder) Build() *models.WebhookEvent {
	ev := &models.WebhookEvent{
		EventID:    b.eventID,
		Type:       b.evType,
		Payload:    b.Payload(),
		Applied:    b.applied,
		ReceivedAt: b.received,
	}
	if b.applied {
		at := b.received.Add(time.Second)
		ev.AppliedAt = &at
	}
	return ev
}

// Verified returns the structured view of the event, as the webhook
// verifier would produce it after signature verification.
func (b *EventBuilder) Verified() *models.VerifiedEvent {
	return &models.VerifiedEvent{
		ID:       b.eventID,
		Type:     models.ParseEventType(b.evType),
		RawType:  b.evType,
		IntentID: b.intentID,
		Raw:      b.Payload(),
	}
}
