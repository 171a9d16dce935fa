package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/models"
	"github.com/kevin07696/payment-intents/internal/services/intent"
	"github.com/kevin07696/payment-intents/internal/services/reconcile"
)

// Handler serves read-only inspection endpoints over payments and events
type Handler struct {
	intents    *intent.Service
	reconciler *reconcile.Service
	logger     *zap.Logger
}

// NewHandler creates a new admin handler
func NewHandler(intents *intent.Service, reconciler *reconcile.Service, logger *zap.Logger) *Handler {
	return &Handler{
		intents:    intents,
		reconciler: reconciler,
		logger:     logger,
	}
}

// PaymentView is the wire representation of one payment record
type PaymentView struct {
	ID            string            `json:"id"`
	Amount        int64             `json:"amount"`
	DisplayAmount string            `json:"display_amount"`
	Currency      string            `json:"currency"`
	Status        string            `json:"status"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}

// EventView is the wire representation of one ledgered webhook event
type EventView struct {
	EventID    string  `json:"event_id"`
	Type       string  `json:"type"`
	Applied    bool    `json:"applied"`
	AppliedAt  *string `json:"applied_at,omitempty"`
	ReceivedAt string  `json:"received_at"`
}

func toPaymentView(rec *models.PaymentRecord) PaymentView {
	return PaymentView{
		ID:            rec.ID,
		Amount:        rec.Amount,
		DisplayAmount: models.DisplayAmount(rec.Amount, rec.Currency).StringFixed(models.CurrencyExponent(rec.Currency)),
		Currency:      rec.Currency,
		Status:        string(rec.Status),
		Metadata:      rec.Metadata,
		CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     rec.UpdatedAt.Format(time.RFC3339),
	}
}

func toEventView(ev *models.WebhookEvent) EventView {
	view := EventView{
		EventID:    ev.EventID,
		Type:       ev.Type,
		Applied:    ev.Applied,
		ReceivedAt: ev.ReceivedAt.Format(time.RFC3339),
	}
	if ev.AppliedAt != nil {
		s := ev.AppliedAt.Format(time.RFC3339)
		view.AppliedAt = &s
	}
	return view
}

// ListPayments handles GET /payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "only GET method is allowed")
		return
	}

	records, err := h.intents.ListPayments(r.Context(), parseLimit(r))
	if err != nil {
		h.logger.Error("failed to list payments", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}

	views := make([]PaymentView, 0, len(records))
	for _, rec := range records {
		views = append(views, toPaymentView(rec))
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"payments": views})
}

// GetPayment handles GET /payments/{id}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "only GET method is allowed")
		return
	}

	intentID := strings.TrimPrefix(r.URL.Path, "/payments/")
	if intentID == "" || strings.Contains(intentID, "/") {
		h.respondError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	record, err := h.intents.GetPayment(r.Context(), intentID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrorCodeRecordNotFound) {
			h.respondError(w, http.StatusNotFound, "payment not found")
			return
		}
		h.logger.Error("failed to get payment",
			zap.String("intent_id", intentID),
			zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to get payment")
		return
	}

	h.respondJSON(w, http.StatusOK, toPaymentView(record))
}

// ListEvents handles GET /events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "only GET method is allowed")
		return
	}

	events, err := h.reconciler.ListEvents(r.Context(), parseLimit(r))
	if err != nil {
		h.logger.Error("failed to list events", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	views := make([]EventView, 0, len(events))
	for _, ev := range events {
		views = append(views, toEventView(ev))
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"events": views})
}

func parseLimit(r *http.Request) int32 {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0
	}
	return int32(limit)
}

func (h *Handler) respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}
