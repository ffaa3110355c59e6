package camunda

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visa-locker/internal/common/errors"
)

func newTestClient() *Client {
	return &Client{config: &ClientConfig{
		RequestTimeout: time.Second,
		RetryConfig:    &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}}
}

func TestExecuteWithRetry(t *testing.T) {
	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		res, err := newTestClient().ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			if calls < 3 {
				return nil, fmt.Errorf("rpc error: code = Unavailable")
			}
			return "ok", nil
		}, "publish_message")
		require.NoError(t, err)
		assert.Equal(t, "ok", res)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		_, err := newTestClient().ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			return nil, fmt.Errorf("connection refused")
		}, "publish_message")
		assert.Equal(t, 3, calls)
		stdErr, ok := errors.AsStandard(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeExternalService, stdErr.Code)
		assert.Contains(t, stdErr.Details, "after 3 attempts")
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		calls := 0
		_, err := newTestClient().ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			return nil, fmt.Errorf("permission denied")
		}, "publish_message")
		assert.Equal(t, 1, calls)
		stdErr, ok := errors.AsStandard(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeAuthentication, stdErr.Code)
	})

	t.Run("cancelled context stops backoff", func(t *testing.T) {
		c := newTestClient()
		c.config.RetryConfig.BaseDelay = time.Hour
		c.config.RetryConfig.MaxDelay = time.Hour
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
			return nil, fmt.Errorf("deadline exceeded")
		}, "publish_message")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		code errors.ErrorCode
	}{
		{"connection reset by peer", errors.ErrCodeExternalService},
		{"context deadline exceeded", errors.ErrCodeTimeout},
		{"message with id already exists", errors.ErrCodeBusinessRule},
		{"unauthorized", errors.ErrCodeAuthentication},
		{"something odd", errors.ErrCodeExternalService},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			stdErr, ok := errors.AsStandard(newTestClient().mapZeebeError(fmt.Errorf("%s", tt.msg), "op", 0))
			require.True(t, ok)
			assert.Equal(t, tt.code, stdErr.Code)
		})
	}
}
