package intent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/models"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
	"github.com/kevin07696/payment-intents/pkg/resilience"
)

// CreateRequest is the service-level input for issuing a payment intent
type CreateRequest struct {
	Amount         int64 // minor currency units
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string // optional, client-supplied
}

// CreateResponse carries what the browser needs to confirm the payment.
// Currency is the normalized code the intent was actually issued in,
// after defaulting and lowercasing.
type CreateResponse struct {
	IntentID     string
	ClientSecret string
	Status       models.IntentStatus
	Currency     string
}

// Service issues payment intents. It validates locally, delegates intent
// creation to the processor under an idempotency key, and mirrors the
// intent into the payment store. The store is the audit source of truth;
// the processor is the payment source of truth.
type Service struct {
	db              ports.DBPort
	payments        ports.PaymentRepository
	gateway         ports.ProcessorGateway
	logger          ports.Logger
	timeouts        *resilience.TimeoutConfig
	defaultCurrency string
}

// NewService creates a new intent service
func NewService(
	db ports.DBPort,
	payments ports.PaymentRepository,
	gateway ports.ProcessorGateway,
	logger ports.Logger,
	timeouts *resilience.TimeoutConfig,
	defaultCurrency string,
) *Service {
	if defaultCurrency == "" {
		defaultCurrency = "usd"
	}
	return &Service{
		db:              db,
		payments:        payments,
		gateway:         gateway,
		logger:          logger,
		timeouts:        timeouts,
		defaultCurrency: defaultCurrency,
	}
}

// CreateIntent issues a payment intent for the given amount.
//
// Validation failures return before any processor call. After the processor
// minted an intent, a failure to persist the local record surfaces as a
// partial write: the caller may retry with the same idempotency key, which
// replays the same intent at the processor and heals the local record.
func (s *Service) CreateIntent(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	if req.Amount <= 0 {
		return nil, domain.NewDomainError(domain.ErrorCodeAmountInvalid,
			"amount must be a positive integer in minor units").WithDetail("amount", req.Amount)
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	if !validCurrency(currency) {
		return nil, domain.NewDomainError(domain.ErrorCodeCurrencyInvalid,
			"invalid currency code").WithDetail("currency", req.Currency)
	}

	key, generated := ResolveIdempotencyKey(req.IdempotencyKey)
	if generated {
		s.logger.Debug("generated idempotency key",
			ports.String("idempotency_key", key))
	}

	procCtx, cancel := s.timeouts.ProcessorContext(ctx)
	defer cancel()

	result, err := s.gateway.CreateIntent(procCtx, &ports.CreateIntentRequest{
		Amount:         req.Amount,
		Currency:       currency,
		Metadata:       req.Metadata,
		IdempotencyKey: key,
	})
	if err != nil {
		s.logger.Error("processor intent creation failed",
			ports.String("idempotency_key", key),
			ports.Int64("amount", req.Amount),
			ports.Err(err))
		return nil, err
	}

	now := time.Now().UTC()
	record := &models.PaymentRecord{
		ID:        result.ID,
		Amount:    req.Amount,
		Currency:  currency,
		Status:    models.StatusCreated,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Upsert keyed by intent id: a replayed retry lands on the same row
	if err := s.payments.UpsertOnCreate(ctx, s.db.GetDB(), record); err != nil {
		s.logger.Error("intent created at processor but record write failed",
			ports.String("intent_id", result.ID),
			ports.String("idempotency_key", key),
			ports.Err(err))
		return nil, domain.WrapError(domain.ErrorCodePartialWrite,
			"intent created but not recorded; retry with the same idempotency key", err).
			WithDetail("intent_id", result.ID)
	}

	s.logger.Info("payment intent issued",
		ports.String("intent_id", result.ID),
		ports.Int64("amount", req.Amount),
		ports.String("currency", currency),
		ports.Bool("key_generated", generated))

	return &CreateResponse{
		IntentID:     result.ID,
		ClientSecret: result.ClientSecret,
		Status:       models.StatusCreated,
		Currency:     currency,
	}, nil
}

// GetPayment retrieves one payment record by intent id
func (s *Service) GetPayment(ctx context.Context, intentID string) (*models.PaymentRecord, error) {
	if intentID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeMissingField, "intent id is required")
	}

	record, err := s.payments.GetByID(ctx, s.db.GetDB(), intentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewDomainError(domain.ErrorCodeRecordNotFound,
				"payment record not found").WithDetail("intent_id", intentID)
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "failed to load payment record", err)
	}
	return record, nil
}

// ListPayments returns the most recent payment records, newest first
func (s *Service) ListPayments(ctx context.Context, limit int32) ([]*models.PaymentRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	records, err := s.payments.List(ctx, s.db.GetDB(), limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "failed to list payment records", err)
	}
	return records, nil
}

// validCurrency accepts ISO 4217 alpha codes in lowercase
func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
