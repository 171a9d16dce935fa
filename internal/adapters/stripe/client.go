package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
	"github.com/kevin07696/payment-intents/pkg/resilience"
	"go.uber.org/zap"
)

// Client is the Stripe-compatible processor gateway. It speaks the
// form-encoded payment_intents API and is safe to retry because every
// request carries an idempotency key.
type Client struct {
	httpClient     *http.Client
	logger         *zap.Logger
	circuitBreaker *CircuitBreaker
	backoff        resilience.BackoffStrategy
	baseURL        string
	apiKey         string
	maxRetries     int
}

// ClientConfig configures the processor client
type ClientConfig struct {
	BaseURL    string // e.g. https://api.stripe.com or a local mock
	APIKey     string
	Timeout    time.Duration // per-attempt HTTP timeout
	MaxRetries int           // retries after the first attempt
}

// NewClient creates a processor client with circuit breaker and retry support
func NewClient(config ClientConfig, logger *zap.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 2
	}

	// The request path carries the API version; a base URL configured
	// with a trailing /v1 would double it
	baseURL := strings.TrimRight(config.BaseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/v1")

	return &Client{
		httpClient:     &http.Client{Timeout: config.Timeout},
		logger:         logger,
		circuitBreaker: NewCircuitBreaker(DefaultCircuitBreakerConfig()),
		backoff:        resilience.DefaultExponentialBackoff(),
		baseURL:        baseURL,
		apiKey:         config.APIKey,
		maxRetries:     config.MaxRetries,
	}
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// CreateIntent creates a payment intent at the processor.
//
// Retrying with the same idempotency key is safe: the processor returns the
// original intent rather than creating a second one. Only transport failures
// and 5xx responses are retried; a 4xx rejection is final.
func (c *Client) CreateIntent(ctx context.Context, req *ports.CreateIntentRequest) (*ports.IntentResult, error) {
	var result *ports.IntentResult
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff.NextDelay(attempt - 1)
			c.logger.Warn("retrying processor call",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.String("idempotency_key", req.IdempotencyKey))

			select {
			case <-ctx.Done():
				return nil, domain.WrapError(domain.ErrorCodeProcessorUnavailable, "processor call cancelled", ctx.Err())
			case <-time.After(delay):
			}
		}

		err := c.circuitBreaker.Call(func() error {
			res, callErr := c.doCreateIntent(ctx, req)
			if callErr != nil {
				return callErr
			}
			result = res
			return nil
		})
		if err == nil {
			return result, nil
		}

		lastErr = err

		// Circuit open, rejection, or context cancellation: do not retry
		if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests) {
			return nil, domain.WrapError(domain.ErrorCodeProcessorUnavailable, "processor circuit open", err)
		}
		if domain.GetErrorCode(err) == domain.ErrorCodeProcessorRejected {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, domain.WrapError(domain.ErrorCodeProcessorUnavailable, "processor call cancelled", ctx.Err())
		}
	}

	if domain.GetErrorCode(lastErr) != "" {
		return nil, lastErr
	}
	return nil, domain.WrapError(domain.ErrorCodeProcessorUnavailable, "processor unreachable", lastErr)
}

func (c *Client) doCreateIntent(ctx context.Context, req *ports.CreateIntentRequest) (*ports.IntentResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", req.Currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "failed to build processor request", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("processor request failed",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)))
		return nil, domain.WrapError(domain.ErrorCodeProcessorUnavailable, "processor request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeProcessorUnavailable, "failed to read processor response", err)
	}

	c.logger.Debug("processor response",
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var intent intentResponse
		if err := json.Unmarshal(body, &intent); err != nil {
			return nil, domain.WrapError(domain.ErrorCodeProcessorUnavailable, "malformed processor response", err)
		}
		if intent.ID == "" || intent.ClientSecret == "" {
			return nil, domain.NewDomainError(domain.ErrorCodeProcessorUnavailable, "processor response missing intent fields")
		}
		return &ports.IntentResult{
			ID:           intent.ID,
			ClientSecret: intent.ClientSecret,
			Status:       intent.Status,
		}, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		message := parseErrorMessage(body)
		c.logger.Warn("processor rejected intent",
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", message))
		return nil, domain.NewDomainError(domain.ErrorCodeProcessorRejected, message)

	default:
		return nil, domain.NewDomainError(domain.ErrorCodeProcessorUnavailable,
			fmt.Sprintf("processor returned status %d", resp.StatusCode))
	}
}

func parseErrorMessage(body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return "payment intent rejected"
}
