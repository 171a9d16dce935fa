package cron

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/payment-intents/internal/services/reconcile"
	"github.com/kevin07696/payment-intents/pkg/observability"
	"github.com/kevin07696/payment-intents/pkg/resilience"
)

// ReconcileHandler handles the cron endpoint that replays deferred events
type ReconcileHandler struct {
	reconciler *reconcile.Service
	logger     *zap.Logger
	timeouts   *resilience.TimeoutConfig
	cronSecret string // Secret token for authenticating cron requests
}

// NewReconcileHandler creates a new reconciliation cron handler
func NewReconcileHandler(
	reconciler *reconcile.Service,
	logger *zap.Logger,
	timeouts *resilience.TimeoutConfig,
	cronSecret string,
) *ReconcileHandler {
	return &ReconcileHandler{
		reconciler: reconciler,
		logger:     logger,
		timeouts:   timeouts,
		cronSecret: cronSecret,
	}
}

// ReconcileRequest represents the optional request body
type ReconcileRequest struct {
	BatchSize *int32 `json:"batch_size"` // Optional: defaults to 200
}

// ReconcileResponse reports what the sweep did
type ReconcileResponse struct {
	Success     bool   `json:"success"`
	Scanned     int    `json:"scanned"`
	Applied     int    `json:"applied"`
	Deferred    int    `json:"deferred"`
	Superseded  int    `json:"superseded"`
	Ignored     int    `json:"ignored"`
	Failed      int    `json:"failed"`
	ProcessedAt string `json:"processed_at"`
}

// Reconcile handles the POST /cron/reconcile endpoint.
// It is called by the scheduler to apply events that arrived before their
// payment records existed.
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Reconciliation cron job triggered",
		zap.String("method", r.Method),
		zap.String("remote_addr", r.RemoteAddr),
	)

	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "only POST method is allowed")
		return
	}

	if !h.authenticateRequest(r) {
		h.logger.Warn("Unauthorized cron request",
			zap.String("remote_addr", r.RemoteAddr),
		)
		h.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ReconcileRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn("Failed to parse request body", zap.Error(err))
			// Continue with defaults if parsing fails
		}
	}

	var batchSize int32
	if req.BatchSize != nil {
		if *req.BatchSize < 1 || *req.BatchSize > 1000 {
			h.respondError(w, http.StatusBadRequest, "batch_size must be between 1 and 1000")
			return
		}
		batchSize = *req.BatchSize
	}

	ctx, cancel := h.timeouts.CronContext(r.Context())
	defer cancel()

	report, err := h.reconciler.Sweep(ctx, batchSize)
	if err != nil {
		h.logger.Error("Reconciliation sweep failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "reconciliation sweep failed")
		return
	}

	observability.RecordReconcileSweep(
		report.Scanned, report.Applied, report.Deferred,
		report.Superseded, report.Ignored, report.Failed)

	resp := ReconcileResponse{
		Success:     report.Failed == 0,
		Scanned:     report.Scanned,
		Applied:     report.Applied,
		Deferred:    report.Deferred,
		Superseded:  report.Superseded,
		Ignored:     report.Ignored,
		Failed:      report.Failed,
		ProcessedAt: time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Success {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusPartialContent)
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// authenticateRequest verifies the cron request is authorized
func (h *ReconcileHandler) authenticateRequest(r *http.Request) bool {
	cronSecret := r.Header.Get("X-Cron-Secret")
	if cronSecret != "" && cronSecret == h.cronSecret {
		return true
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "Bearer "+h.cronSecret {
		return true
	}

	return false
}

func (h *ReconcileHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := map[string]interface{}{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}
