package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		APIKey:     "sk_test_secret",
		Timeout:    2 * time.Second,
		MaxRetries: 1,
	}, zap.NewNop())
	client.backoff = &noDelayBackoff{}
	return client, server
}

type noDelayBackoff struct{}

func (noDelayBackoff) NextDelay(int) time.Duration { return 0 }

func TestClient_CreateIntent_Success(t *testing.T) {
	var gotAuth, gotIdemKey, gotContentType string
	var gotAmount, gotCurrency string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payment_intents", r.URL.Path)

		gotAuth = r.Header.Get("Authorization")
		gotIdemKey = r.Header.Get("Idempotency-Key")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotAmount = r.PostForm.Get("amount")
		gotCurrency = r.PostForm.Get("currency")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_3abc","client_secret":"pi_3abc_secret_xyz","status":"requires_payment_method"}`))
	})

	result, err := client.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:         5000,
		Currency:       "inr",
		IdempotencyKey: "order-42",
		Metadata:       map[string]string{"order_id": "42"},
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_3abc", result.ID)
	assert.Equal(t, "pi_3abc_secret_xyz", result.ClientSecret)
	assert.Equal(t, "requires_payment_method", result.Status)

	assert.Equal(t, "Bearer sk_test_secret", gotAuth)
	assert.Equal(t, "order-42", gotIdemKey)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "5000", gotAmount)
	assert.Equal(t, "inr", gotCurrency)
}

func TestClient_CreateIntent_VersionedBaseURLNotDoubled(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_3abc","client_secret":"pi_3abc_secret_xyz","status":"requires_payment_method"}`))
	}))
	t.Cleanup(server.Close)

	// A base URL configured with the version segment must still reach
	// /v1/payment_intents, not /v1/v1/payment_intents
	client := NewClient(ClientConfig{
		BaseURL: server.URL + "/v1",
		APIKey:  "sk_test_secret",
		Timeout: 2 * time.Second,
	}, zap.NewNop())

	_, err := client.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:         100,
		Currency:       "usd",
		IdempotencyKey: "k1",
	})

	require.NoError(t, err)
	assert.Equal(t, "/v1/payment_intents", gotPath)
}

func TestClient_CreateIntent_RejectedNotRetried(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","message":"Your card was declined."}}`))
	})

	_, err := client.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:         100,
		Currency:       "usd",
		IdempotencyKey: "k1",
	})

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeProcessorRejected, domain.GetErrorCode(err))
	assert.Contains(t, err.Error(), "Your card was declined.")
	assert.Equal(t, 1, calls, "4xx responses must not be retried")
}

func TestClient_CreateIntent_ServerErrorRetried(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":"pi_retry","client_secret":"pi_retry_secret_a","status":"requires_payment_method"}`))
	})

	result, err := client.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:         100,
		Currency:       "usd",
		IdempotencyKey: "k1",
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_retry", result.ID)
	assert.Equal(t, 2, calls)
}

func TestClient_CreateIntent_ExhaustedRetriesUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:         100,
		Currency:       "usd",
		IdempotencyKey: "k1",
	})

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeProcessorUnavailable, domain.GetErrorCode(err))
}

func TestClient_CreateIntent_NetworkErrorUnavailable(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:         100,
		Currency:       "usd",
		IdempotencyKey: "k1",
	})

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeProcessorUnavailable, domain.GetErrorCode(err))
}

func TestClient_CreateIntent_MissingFieldsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"requires_payment_method"}`))
	})

	_, err := client.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:         100,
		Currency:       "usd",
		IdempotencyKey: "k1",
	})

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeProcessorUnavailable, domain.GetErrorCode(err))
}

func TestClient_CreateIntent_CircuitOpenFailsFast(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	client.circuitBreaker = NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:         1,
		Timeout:             time.Minute,
		MaxRequestsHalfOpen: 1,
	})

	// First call trips the breaker
	_, err := client.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount: 100, Currency: "usd", IdempotencyKey: "k1",
	})
	require.Error(t, err)

	_, err = client.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount: 100, Currency: "usd", IdempotencyKey: "k2",
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeProcessorUnavailable, domain.GetErrorCode(err))
	assert.Equal(t, StateOpen, client.circuitBreaker.State())
}
