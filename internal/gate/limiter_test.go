package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, config Config, now *time.Time) *Limiter {
	t.Helper()
	l := NewLimiter(config)
	l.now = func() time.Time { return *now }
	t.Cleanup(l.Stop)
	return l
}

func TestAllow_ConsumesBurstThenRateLimits(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(t, Config{RequestsPerMinute: 6, Burst: 3}, &now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow(ctx, "user-1", 1), "request %d", i)
	}

	err := l.Allow(ctx, "user-1", 1)
	require.ErrorIs(t, err, financeErrors.ErrRateLimited)
	var limited *financeErrors.RateLimitedError
	require.True(t, errors.As(err, &limited))
	assert.Equal(t, 0, limited.Remaining)
	assert.Equal(t, 10*time.Second, limited.Reset)

	now = now.Add(10 * time.Second)
	assert.NoError(t, l.Allow(ctx, "user-1", 1))
}

func TestAllow_BucketsArePerUser(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(t, Config{RequestsPerMinute: 1, Burst: 1}, &now)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "user-1", 1))
	assert.ErrorIs(t, l.Allow(ctx, "user-1", 1), financeErrors.ErrRateLimited)
	assert.NoError(t, l.Allow(ctx, "user-2", 1))
	assert.Equal(t, 2, l.ActiveUsers())
}

func TestAllow_DeniedUsersAndOversizedRequests(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(t, Config{RequestsPerMinute: 10, Burst: 5, DeniedUsers: []string{" blocked "}}, &now)
	ctx := context.Background()

	assert.ErrorIs(t, l.Allow(ctx, "blocked", 1), financeErrors.ErrDenied)
	assert.ErrorIs(t, l.Allow(ctx, "user-1", 6), financeErrors.ErrDenied)
	assert.NoError(t, l.Allow(ctx, "user-1", 5))
}

func TestAllow_RejectedRequestDoesNotConsumeTokens(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(t, Config{RequestsPerMinute: 60, Burst: 2}, &now)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "user-1", 2))
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, l.Allow(ctx, "user-1", 1), financeErrors.ErrRateLimited)
	}
	now = now.Add(time.Second)
	assert.NoError(t, l.Allow(ctx, "user-1", 1))
}

func TestCleanupStaleEntries(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(t, Config{RequestsPerMinute: 10, IdleTTL: time.Minute}, &now)

	require.NoError(t, l.Allow(context.Background(), "user-1", 1))
	now = now.Add(2 * time.Minute)
	require.NoError(t, l.Allow(context.Background(), "user-2", 1))

	l.cleanupStaleEntries()
	assert.Equal(t, 1, l.ActiveUsers())
}
