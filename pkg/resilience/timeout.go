package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines timeout values for the application's timeout hierarchy
//
// Timeout Hierarchy (from outermost to innermost):
//
//	HTTP Handler (60s)
//	  ↓
//	Service Layer (50s)
//	  ↓
//	Processor API (30s)
//	  ↓
//	Database Query (2s/5s - based on complexity)
//
// Each layer completes before its parent times out, preventing cascading
// timeout failures.
type TimeoutConfig struct {
	// Handler layer timeouts
	HTTPHandler time.Duration // Overall request timeout (default: 60s)
	CronJob     time.Duration // Reconciliation sweep timeout (default: 5 minutes)

	// Service layer timeouts
	Service time.Duration // Service operation timeout (default: 50s)

	// External API timeouts (adapters)
	ProcessorAPI time.Duration // Processor calls (default: 30s)
	SingleRetry  time.Duration // Individual retry attempt (default: 10s)

	// Database timeouts live in the postgres adapter config:
	// SimpleQuery: 2s - ID lookups, single row operations
	// ListQuery:   5s - filtered listings
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:  60 * time.Second,
		CronJob:      5 * time.Minute,
		Service:      50 * time.Second,
		ProcessorAPI: 30 * time.Second,
		SingleRetry:  10 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:  5 * time.Second,
		CronJob:      30 * time.Second,
		Service:      4 * time.Second,
		ProcessorAPI: 2 * time.Second,
		SingleRetry:  1 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// CronContext creates a context with timeout for reconciliation sweeps
func (tc *TimeoutConfig) CronContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.CronJob)
}

// ServiceContext creates a context with timeout for service layer operations
func (tc *TimeoutConfig) ServiceContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Service)
}

// ProcessorContext creates a context for processor API calls
func (tc *TimeoutConfig) ProcessorContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.ProcessorAPI)
}

// RetryAttemptContext creates a context for a single retry attempt
func (tc *TimeoutConfig) RetryAttemptContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.SingleRetry)
}
