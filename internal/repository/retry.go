package repository

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"biorempp-backend/internal/domain/dataset"
	apperrors "biorempp-backend/internal/errors"
)

// RetryConfig defines retry behavior configuration.
type RetryConfig struct {
	MaxAttempts   int           // Maximum number of attempts, including the first
	BaseDelay     time.Duration // Base delay between retries
	MaxDelay      time.Duration // Maximum delay between retries
	BackoffFactor float64       // Exponential backoff multiplier
	JitterFactor  float64       // Jitter factor to prevent thundering herd
}

// DefaultRetryConfig returns default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

// RetryingRepository wraps a repository with exponential-backoff retries for
// transient failures. Non-retryable errors (missing source, malformed data)
// propagate immediately.
type RetryingRepository struct {
	inner  Repository
	config RetryConfig
	logger *zap.Logger
}

// NewRetryingRepository creates the retry decorator.
func NewRetryingRepository(inner Repository, config RetryConfig, logger *zap.Logger) *RetryingRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingRepository{inner: inner, config: config, logger: logger}
}

// Load retries transient load failures with exponential backoff and jitter.
func (r *RetryingRepository) Load(ctx context.Context, databaseID string, params QueryParams) (*dataset.Table, error) {
	var table *dataset.Table
	var lastErr error

	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		table, lastErr = r.inner.Load(ctx, databaseID, params)
		if lastErr == nil {
			return table, nil
		}

		if !apperrors.IsRetryable(lastErr) {
			return nil, lastErr
		}

		// Don't wait after the last attempt
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		delay := r.backoffDelay(attempt)
		r.logger.Warn("Retrying database load",
			zap.String("database", databaseID),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

// backoffDelay computes the exponential backoff delay with jitter for an
// attempt.
func (r *RetryingRepository) backoffDelay(attempt int) time.Duration {
	delay := float64(r.config.BaseDelay) * math.Pow(r.config.BackoffFactor, float64(attempt))
	if jitter := delay * r.config.JitterFactor; jitter > 0 {
		delay += (rand.Float64()*2 - 1) * jitter
	}
	if max := float64(r.config.MaxDelay); delay > max {
		delay = max
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
