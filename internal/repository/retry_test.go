package repository_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biorempp-backend/internal/domain/dataset"
	apperrors "biorempp-backend/internal/errors"
	"biorempp-backend/internal/repository"
	"biorempp-backend/internal/repository/mocks"
)

// flakyRepository fails the first failures loads, then delegates.
type flakyRepository struct {
	inner    repository.Repository
	failures int
	err      error
	calls    atomic.Int64
}

func (f *flakyRepository) Load(ctx context.Context, databaseID string, params repository.QueryParams) (*dataset.Table, error) {
	n := f.calls.Add(1)
	if int(n) <= f.failures {
		return nil, f.err
	}
	return f.inner.Load(ctx, databaseID, params)
}

func fastRetryConfig() repository.RetryConfig {
	return repository.RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

func TestRetryingRepository_RecoversFromTransientFailure(t *testing.T) {
	inner := mocks.NewMockRepository()
	inner.SetTable("biorempp", dataset.NewTable([]string{"ko"}, [][]string{{"K1"}}))
	flaky := &flakyRepository{
		inner:    inner,
		failures: 2,
		err:      apperrors.Unavailable("DATABASE_OPEN_FAILED", "transient").Build(),
	}

	repo := repository.NewRetryingRepository(flaky, fastRetryConfig(), nil)
	table, err := repo.Load(context.Background(), "biorempp", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, int64(3), flaky.calls.Load())
}

func TestRetryingRepository_ExhaustsAttempts(t *testing.T) {
	flaky := &flakyRepository{
		failures: 100,
		err:      apperrors.Unavailable("DATABASE_OPEN_FAILED", "down").Build(),
	}

	repo := repository.NewRetryingRepository(flaky, fastRetryConfig(), nil)
	_, err := repo.Load(context.Background(), "biorempp", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
	assert.Equal(t, int64(3), flaky.calls.Load())
}

func TestRetryingRepository_NonRetryableFailsFast(t *testing.T) {
	flaky := &flakyRepository{
		failures: 100,
		err:      apperrors.NotFound("DATABASE_NOT_FOUND", "absent").Build(),
	}

	repo := repository.NewRetryingRepository(flaky, fastRetryConfig(), nil)
	_, err := repo.Load(context.Background(), "biorempp", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, int64(1), flaky.calls.Load(), "not-found must not be retried")
}

func TestRetryingRepository_HonorsContextCancellation(t *testing.T) {
	flaky := &flakyRepository{
		failures: 100,
		err:      apperrors.Unavailable("DATABASE_OPEN_FAILED", "down").Build(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := repository.NewRetryingRepository(flaky, fastRetryConfig(), nil)
	_, err := repo.Load(ctx, "biorempp", nil)
	require.ErrorIs(t, err, context.Canceled)
}
