package repository

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"biorempp-backend/internal/domain/dataset"
	apperrors "biorempp-backend/internal/errors"
)

// BreakerConfig holds configuration for the repository circuit breaker.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the circuit breaker.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerRepository guards a repository with a circuit breaker so that a
// persistently failing data source sheds load fast instead of tying up
// request handlers in retries.
type BreakerRepository struct {
	inner      Repository
	breaker    *gobreaker.CircuitBreaker
	retryAfter time.Duration
	logger     *zap.Logger
}

// NewBreakerRepository creates the circuit-breaker decorator.
func NewBreakerRepository(inner Repository, config BreakerConfig, logger *zap.Logger) *BreakerRepository {
	if logger == nil {
		logger = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Only trip once there are enough requests to make a decision
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// A missing database or malformed file is a data problem, not a
			// source outage; it must not open the breaker.
			if err == nil || apperrors.IsNotFound(err) || apperrors.IsParse(err) {
				return true
			}
			return false
		},
	})

	return &BreakerRepository{inner: inner, breaker: cb, retryAfter: config.Timeout, logger: logger}
}

// Load executes the inner load through the circuit breaker.
func (r *BreakerRepository) Load(ctx context.Context, databaseID string, params QueryParams) (*dataset.Table, error) {
	result, err := r.breaker.Execute(func() (any, error) {
		return r.inner.Load(ctx, databaseID, params)
	})
	if err != nil {
		switch err {
		case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
			return nil, apperrors.Unavailable("DATABASE_CIRCUIT_OPEN",
				"reference database source temporarily unavailable").
				WithResource(databaseID).
				WithCause(err).
				WithRetryAfter(r.retryAfter).
				Build()
		default:
			return nil, err
		}
	}
	return result.(*dataset.Table), nil
}
