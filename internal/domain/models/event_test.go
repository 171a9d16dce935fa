package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventType(t *testing.T) {
	tests := []struct {
		raw  string
		want EventType
	}{
		{"payment_intent.created", EventIntentCreated},
		{"payment_intent.requires_action", EventIntentRequiresAction},
		{"payment_intent.succeeded", EventIntentSucceeded},
		{"payment_intent.payment_failed", EventIntentFailed},
		{"payment_intent.canceled", EventUnknown},
		{"charge.succeeded", EventUnknown},
		{"", EventUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEventType(tt.raw))
		})
	}
}

func TestTargetStatus(t *testing.T) {
	status, ok := EventIntentCreated.TargetStatus()
	assert.True(t, ok)
	assert.Equal(t, StatusCreated, status)

	status, ok = EventIntentRequiresAction.TargetStatus()
	assert.True(t, ok)
	assert.Equal(t, StatusRequiresAction, status)

	status, ok = EventIntentSucceeded.TargetStatus()
	assert.True(t, ok)
	assert.Equal(t, StatusSucceeded, status)

	status, ok = EventIntentFailed.TargetStatus()
	assert.True(t, ok)
	assert.Equal(t, StatusFailed, status)

	_, ok = EventUnknown.TargetStatus()
	assert.False(t, ok)
}

func TestDecodeEventEnvelope(t *testing.T) {
	payload := []byte(`{
		"id": "evt_123",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_456", "amount": 2500}}
	}`)

	ev, err := DecodeEventEnvelope(payload)
	require.NoError(t, err)

	assert.Equal(t, "evt_123", ev.ID)
	assert.Equal(t, EventIntentSucceeded, ev.Type)
	assert.Equal(t, "payment_intent.succeeded", ev.RawType)
	assert.Equal(t, "pi_456", ev.IntentID)
	assert.Equal(t, payload, ev.Raw)
}

func TestDecodeEventEnvelope_UnknownTypeKeepsRawType(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "type": "charge.refunded", "data": {"object": {"id": "ch_1"}}}`)

	ev, err := DecodeEventEnvelope(payload)
	require.NoError(t, err)

	assert.Equal(t, EventUnknown, ev.Type)
	assert.Equal(t, "charge.refunded", ev.RawType)
}

func TestDecodeEventEnvelope_InvalidJSON(t *testing.T) {
	_, err := DecodeEventEnvelope([]byte(`{not json`))
	assert.Error(t, err)
}

func TestDecodeEventEnvelope_MissingFields(t *testing.T) {
	ev, err := DecodeEventEnvelope([]byte(`{}`))
	require.NoError(t, err)

	assert.Empty(t, ev.ID)
	assert.Equal(t, EventUnknown, ev.Type)
	assert.Empty(t, ev.IntentID)
}
