package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func testClient(t *testing.T) *Client {
	return &Client{config: &ClientConfig{
		RetryConfig: &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
		Logger:      logger.NewTestLogger(t),
	}}
}

func TestExecuteWithRetry_RetriesTransientErrors(t *testing.T) {
	c := testClient(t)
	calls := 0

	err := c.ExecuteWithRetry(context.Background(), "topology", func(context.Context) error {
		calls++
		if calls < 3 {
			return status.Error(codes.Unavailable, "broker not ready")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_GivesUp(t *testing.T) {
	c := testClient(t)
	calls := 0

	err := c.ExecuteWithRetry(context.Background(), "topology", func(context.Context) error {
		calls++
		return status.Error(codes.DeadlineExceeded, "slow")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTimeout))
}

func TestExecuteWithRetry_PermanentErrorNotRetried(t *testing.T) {
	c := testClient(t)
	calls := 0

	err := c.ExecuteWithRetry(context.Background(), "deploy", func(context.Context) error {
		calls++
		return status.Error(codes.PermissionDenied, "nope")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAuthenticationError))
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	c := testClient(t)
	c.config.RetryConfig.BaseDelay = time.Hour
	c.config.RetryConfig.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.ExecuteWithRetry(ctx, "topology", func(context.Context) error {
		return stderrors.New("dial tcp: connection refused")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffDelay(t *testing.T) {
	retry := &RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, backoffDelay(retry, 0))
	assert.Equal(t, 4*time.Second, backoffDelay(retry, 2))
	assert.Equal(t, 5*time.Second, backoffDelay(retry, 3))
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(status.Error(codes.Unavailable, "x")))
	assert.False(t, isRetryableZeebeError(status.Error(codes.InvalidArgument, "x")))
	assert.True(t, isRetryableZeebeError(stderrors.New("read: connection reset by peer")))
	assert.False(t, isRetryableZeebeError(stderrors.New("bad request")))
}
