package intent_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	procmock "github.com/kevin07696/payment-intents/internal/adapters/mock"
	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/models"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
	"github.com/kevin07696/payment-intents/internal/services/intent"
	"github.com/kevin07696/payment-intents/internal/testutil/mocks"
	"github.com/kevin07696/payment-intents/pkg/resilience"
)

// MockDBPort mocks the database port
type MockDBPort struct{}

func (m *MockDBPort) GetDB() *pgxpool.Pool { return nil }

func (m *MockDBPort) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

// MockPaymentRepository mocks the payment repository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) UpsertOnCreate(ctx context.Context, tx ports.DBTX, rec *models.PaymentRecord) error {
	args := m.Called(ctx, tx, rec)
	return args.Error(0)
}

func (m *MockPaymentRepository) ApplyStatus(ctx context.Context, tx ports.DBTX, intentID string, target models.IntentStatus) (ports.ApplyResult, error) {
	args := m.Called(ctx, tx, intentID, target)
	return args.Get(0).(ports.ApplyResult), args.Error(1)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, tx ports.DBTX, intentID string) (*models.PaymentRecord, error) {
	args := m.Called(ctx, tx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) List(ctx context.Context, tx ports.DBTX, limit int32) ([]*models.PaymentRecord, error) {
	args := m.Called(ctx, tx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentRecord), args.Error(1)
}

// MockProcessorGateway mocks the processor gateway
type MockProcessorGateway struct {
	mock.Mock
}

func (m *MockProcessorGateway) CreateIntent(ctx context.Context, req *ports.CreateIntentRequest) (*ports.IntentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.IntentResult), args.Error(1)
}

func newService(repo *MockPaymentRepository, gateway *MockProcessorGateway) *intent.Service {
	return intent.NewService(
		&MockDBPort{},
		repo,
		gateway,
		mocks.NewMockLogger(),
		resilience.TestTimeoutConfig(),
		"usd",
	)
}

func TestCreateIntent_Success(t *testing.T) {
	repo := new(MockPaymentRepository)
	gateway := new(MockProcessorGateway)

	gateway.On("CreateIntent", mock.Anything, mock.MatchedBy(func(req *ports.CreateIntentRequest) bool {
		return req.Amount == 5000 && req.Currency == "inr" && req.IdempotencyKey == "order-42"
	})).Return(&ports.IntentResult{
		ID:           "pi_abc",
		ClientSecret: "pi_abc_secret_x",
		Status:       "requires_payment_method",
	}, nil)

	repo.On("UpsertOnCreate", mock.Anything, mock.Anything, mock.MatchedBy(func(rec *models.PaymentRecord) bool {
		return rec.ID == "pi_abc" &&
			rec.Amount == 5000 &&
			rec.Currency == "inr" &&
			rec.Status == models.StatusCreated
	})).Return(nil)

	svc := newService(repo, gateway)
	resp, err := svc.CreateIntent(context.Background(), &intent.CreateRequest{
		Amount:         5000,
		Currency:       "INR",
		IdempotencyKey: "order-42",
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_abc", resp.IntentID)
	assert.Equal(t, "pi_abc_secret_x", resp.ClientSecret)
	assert.Equal(t, "inr", resp.Currency)
	assert.Equal(t, models.StatusCreated, resp.Status)

	repo.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestCreateIntent_InvalidAmountSkipsProcessor(t *testing.T) {
	repo := new(MockPaymentRepository)
	gateway := new(MockProcessorGateway)
	svc := newService(repo, gateway)

	for _, amount := range []int64{0, -1, -5000} {
		_, err := svc.CreateIntent(context.Background(), &intent.CreateRequest{
			Amount: amount,
		})
		require.Error(t, err)
		assert.Equal(t, domain.ErrorCodeAmountInvalid, domain.GetErrorCode(err))
	}

	gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpsertOnCreate", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateIntent_InvalidCurrency(t *testing.T) {
	repo := new(MockPaymentRepository)
	gateway := new(MockProcessorGateway)
	svc := newService(repo, gateway)

	_, err := svc.CreateIntent(context.Background(), &intent.CreateRequest{
		Amount:   100,
		Currency: "rupees",
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeCurrencyInvalid, domain.GetErrorCode(err))
	gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

func TestCreateIntent_DefaultCurrency(t *testing.T) {
	repo := new(MockPaymentRepository)
	gateway := new(MockProcessorGateway)

	gateway.On("CreateIntent", mock.Anything, mock.MatchedBy(func(req *ports.CreateIntentRequest) bool {
		return req.Currency == "usd"
	})).Return(&ports.IntentResult{ID: "pi_1", ClientSecret: "s", Status: "requires_payment_method"}, nil)
	repo.On("UpsertOnCreate", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newService(repo, gateway)
	resp, err := svc.CreateIntent(context.Background(), &intent.CreateRequest{Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, "usd", resp.Currency)
	gateway.AssertExpectations(t)
}

func TestCreateIntent_ConfiguredDefaultCurrency(t *testing.T) {
	repo := new(MockPaymentRepository)
	gateway := new(MockProcessorGateway)

	gateway.On("CreateIntent", mock.Anything, mock.MatchedBy(func(req *ports.CreateIntentRequest) bool {
		return req.Currency == "inr"
	})).Return(&ports.IntentResult{ID: "pi_1", ClientSecret: "s", Status: "requires_payment_method"}, nil)
	repo.On("UpsertOnCreate", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := intent.NewService(&MockDBPort{}, repo, gateway,
		mocks.NewMockLogger(), resilience.TestTimeoutConfig(), "inr")

	// The response reports the currency the intent was issued in, so
	// callers see the configured default rather than assuming one
	resp, err := svc.CreateIntent(context.Background(), &intent.CreateRequest{Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, "inr", resp.Currency)
	gateway.AssertExpectations(t)
}

func TestCreateIntent_GeneratesKeyWhenAbsent(t *testing.T) {
	repo := new(MockPaymentRepository)
	gateway := new(MockProcessorGateway)

	uuidPattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	gateway.On("CreateIntent", mock.Anything, mock.MatchedBy(func(req *ports.CreateIntentRequest) bool {
		return uuidPattern.MatchString(req.IdempotencyKey)
	})).Return(&ports.IntentResult{ID: "pi_1", ClientSecret: "s", Status: "requires_payment_method"}, nil)
	repo.On("UpsertOnCreate", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newService(repo, gateway)
	_, err := svc.CreateIntent(context.Background(), &intent.CreateRequest{Amount: 100})
	require.NoError(t, err)
	gateway.AssertExpectations(t)
}

func TestCreateIntent_ProcessorErrorPassedThrough(t *testing.T) {
	repo := new(MockPaymentRepository)
	gateway := new(MockProcessorGateway)

	gateway.On("CreateIntent", mock.Anything, mock.Anything).
		Return(nil, domain.NewDomainError(domain.ErrorCodeProcessorUnavailable, "processor unreachable"))

	svc := newService(repo, gateway)
	_, err := svc.CreateIntent(context.Background(), &intent.CreateRequest{Amount: 100})

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeProcessorUnavailable, domain.GetErrorCode(err))
	assert.True(t, domain.IsRetryable(err))
	repo.AssertNotCalled(t, "UpsertOnCreate", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateIntent_StoreFailureIsPartialWrite(t *testing.T) {
	repo := new(MockPaymentRepository)
	gateway := new(MockProcessorGateway)

	gateway.On("CreateIntent", mock.Anything, mock.Anything).
		Return(&ports.IntentResult{ID: "pi_orphan", ClientSecret: "s", Status: "requires_payment_method"}, nil)
	repo.On("UpsertOnCreate", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("connection reset"))

	svc := newService(repo, gateway)
	_, err := svc.CreateIntent(context.Background(), &intent.CreateRequest{
		Amount:         100,
		IdempotencyKey: "k1",
	})

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodePartialWrite, domain.GetErrorCode(err))
	assert.True(t, domain.IsRetryable(err), "partial writes must be retryable with the same key")
}

// Five concurrent retries of the same logical request must converge on a
// single intent when the gateway honors the idempotency key.
func TestCreateIntent_ConcurrentRetriesConverge(t *testing.T) {
	repo := new(MockPaymentRepository)
	processor := procmock.NewProcessor()

	repo.On("UpsertOnCreate", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := intent.NewService(
		&MockDBPort{},
		repo,
		processor,
		mocks.NewMockLogger(),
		resilience.TestTimeoutConfig(),
		"usd",
	)

	const attempts = 5
	var wg sync.WaitGroup
	responses := make([]*intent.CreateResponse, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := svc.CreateIntent(context.Background(), &intent.CreateRequest{
				Amount:         999,
				Currency:       "eur",
				IdempotencyKey: "checkout-session-1",
			})
			assert.NoError(t, err)
			responses[i] = resp
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, processor.IntentCount(), "one logical request must mint one intent")
	for _, resp := range responses {
		require.NotNil(t, resp)
		assert.Equal(t, responses[0].IntentID, resp.IntentID)
	}
}

func TestGetPayment_NotFound(t *testing.T) {
	repo := new(MockPaymentRepository)
	gateway := new(MockProcessorGateway)

	repo.On("GetByID", mock.Anything, mock.Anything, "pi_missing").Return(nil, pgx.ErrNoRows)

	svc := newService(repo, gateway)
	_, err := svc.GetPayment(context.Background(), "pi_missing")

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeRecordNotFound, domain.GetErrorCode(err))
}

func TestGetPayment_MissingID(t *testing.T) {
	svc := newService(new(MockPaymentRepository), new(MockProcessorGateway))

	_, err := svc.GetPayment(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeMissingField, domain.GetErrorCode(err))
}
