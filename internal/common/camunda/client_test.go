package camunda

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedagoplay/internal/common/errors"
)

func newTestClient() *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: 2,
			BaseDelay:  time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
		},
	}}
}

func TestExecuteWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantCode  errors.ErrorCode
	}{
		{
			name:      "succeeds first time",
			wantCalls: 1,
		},
		{
			name:      "recovers from transient error",
			failures:  []error{fmt.Errorf("rpc error: code = Unavailable")},
			wantCalls: 2,
		},
		{
			name: "gives up after max retries",
			failures: []error{
				fmt.Errorf("connection refused"),
				fmt.Errorf("connection refused"),
				fmt.Errorf("connection refused"),
			},
			wantCalls: 3,
			wantCode:  errors.ErrCodeTransportFailure,
		},
		{
			name:      "permanent error not retried",
			failures:  []error{fmt.Errorf("NOT_FOUND: job 42 not found")},
			wantCalls: 1,
			wantCode:  errors.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := newTestClient().ExecuteWithRetry(context.Background(), "complete-job", func(context.Context) error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			assert.Contains(t, err.Error(), "complete-job")
		})
	}
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	c := newTestClient()
	c.config.RetryConfig.BaseDelay = time.Hour
	c.config.RetryConfig.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.ExecuteWithRetry(ctx, "complete-job", func(context.Context) error {
		return fmt.Errorf("deadline exceeded")
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTransportFailure, errors.CodeOf(err))
}

func TestHealthCheck_NoClient(t *testing.T) {
	assert.Error(t, newTestClient().HealthCheck(context.Background()))
}

func TestOpenWorker_NilClient(t *testing.T) {
	_, err := OpenWorker(nil, WorkerOptions{TaskType: "plan-activities"}, nil)
	assert.Error(t, err)
}
