package intent

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/services/intent"
	"github.com/kevin07696/payment-intents/pkg/observability"
)

const maxRequestBody = 16 << 10 // 16KB

// Handler serves the payment intent issuance endpoint
type Handler struct {
	service *intent.Service
	logger  *zap.Logger
}

// NewHandler creates a new intent handler
func NewHandler(service *intent.Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// CreateIntentRequest is the request body for POST /create-payment-intent
type CreateIntentRequest struct {
	Amount         int64             `json:"amount"` // minor currency units
	Currency       string            `json:"currency,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	IdempotencyKey string            `json:"idempotencyKey,omitempty"`
}

// CreateIntentResponse is what the browser needs to confirm the payment
type CreateIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	ID           string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// CreateIntent handles POST /create-payment-intent
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "only POST method is allowed", "")
		return
	}

	var req CreateIntentRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	// The Idempotency-Key header wins over the body field; clients that
	// retry at the HTTP layer set the header
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	resp, err := h.service.CreateIntent(r.Context(), &intent.CreateRequest{
		Amount:         req.Amount,
		Currency:       req.Currency,
		Metadata:       req.Metadata,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		// "invalid" keeps unvalidated input out of the currency label
		observability.RecordIntentIssued("invalid", issuanceOutcome(err), 0)
		h.respondDomainError(w, err)
		return
	}

	// Label with the currency the service actually issued in, so the
	// metric tracks defaulted requests under the configured default
	observability.RecordIntentIssued(resp.Currency, "issued", req.Amount)
	h.respondJSON(w, http.StatusOK, CreateIntentResponse{
		ClientSecret: resp.ClientSecret,
		ID:           resp.IntentID,
	})
}

// issuanceOutcome buckets issuance failures for metrics
func issuanceOutcome(err error) string {
	switch domain.GetErrorCode(err) {
	case domain.ErrorCodeProcessorRejected:
		return "rejected"
	case domain.ErrorCodeProcessorUnavailable:
		return "unavailable"
	default:
		return "error"
	}
}

// respondDomainError maps the domain error taxonomy onto HTTP statuses
func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	code := domain.GetErrorCode(err)

	var de *domain.DomainError
	message := "internal server error"
	if errors.As(err, &de) {
		message = de.Message
	}

	switch code {
	case domain.ErrorCodeAmountInvalid,
		domain.ErrorCodeCurrencyInvalid,
		domain.ErrorCodeMissingField,
		domain.ErrorCodeProcessorRejected:
		h.respondError(w, http.StatusBadRequest, message, string(code))

	case domain.ErrorCodeProcessorUnavailable:
		h.respondError(w, http.StatusBadGateway, message, string(code))

	default:
		h.logger.Error("intent request failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, message, string(code))
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, statusCode int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: message, Code: code}); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}
