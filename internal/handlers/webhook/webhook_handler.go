package webhook

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/kevin07696/payment-intents/internal/adapters/stripe"
	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
	"github.com/kevin07696/payment-intents/internal/services/reconcile"
	"github.com/kevin07696/payment-intents/pkg/observability"
)

// maxPayloadBytes caps webhook bodies; real processor events are a few KB
const maxPayloadBytes = 64 << 10

// Handler serves the inbound webhook endpoint
type Handler struct {
	verifier   ports.WebhookVerifier
	reconciler *reconcile.Service
	logger     *zap.Logger
}

// NewHandler creates a new webhook handler
func NewHandler(verifier ports.WebhookVerifier, reconciler *reconcile.Service, logger *zap.Logger) *Handler {
	return &Handler{
		verifier:   verifier,
		reconciler: reconciler,
		logger:     logger,
	}
}

// receivedResponse acknowledges a delivery so the processor stops retrying
type receivedResponse struct {
	Received bool `json:"received"`
}

// HandleWebhook handles POST /webhook.
//
// The raw body bytes are read before anything else because the signature
// covers them exactly as sent; any re-serialization breaks verification.
// A 200 tells the processor to stop redelivering, so every accepted event
// must already be durable in the ledger by the time we answer.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "only POST method is allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		h.logger.Warn("failed to read webhook body", zap.Error(err))
		http.Error(w, "Webhook Error: could not read body", http.StatusBadRequest)
		return
	}

	event, err := h.verifier.VerifyAndParse(payload, r.Header.Get(stripe.SignatureHeader))
	if err != nil {
		h.logger.Warn("webhook rejected",
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("error_code", string(domain.GetErrorCode(err))),
			zap.Error(err))
		observability.RecordWebhookEvent("unknown", "rejected")
		http.Error(w, fmt.Sprintf("Webhook Error: %v", err), http.StatusBadRequest)
		return
	}

	outcome, err := h.reconciler.ProcessEvent(r.Context(), event)
	if err != nil {
		// Not durable yet: answer 5xx so the processor redelivers
		h.logger.Error("failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.Error(err))
		observability.RecordWebhookEvent(event.RawType, "error")
		http.Error(w, "event processing failed", http.StatusInternalServerError)
		return
	}

	observability.RecordWebhookEvent(event.RawType, outcome.String())
	h.logger.Debug("webhook acknowledged",
		zap.String("event_id", event.ID),
		zap.String("outcome", outcome.String()))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(receivedResponse{Received: true}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
