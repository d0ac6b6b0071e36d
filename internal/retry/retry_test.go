package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/commercesync/internal/errors"
)

type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{MaxRetries: 3, BaseDelay: time.Second}
	assert.Equal(t, time.Second, p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 4, p.Attempts())
	assert.Equal(t, 1, Policy{MaxRetries: -1}.Attempts())
}

func TestDo(t *testing.T) {
	errMiss := errors.New("product not found")
	errBoom := errors.New("boom")

	tests := []struct {
		name             string
		failures         int
		failWith         error
		expectedCalls    int
		expectedDelays   []time.Duration
		expectedErr      error
		expectedNotFound bool
	}{
		{
			name:           "given immediate success should call once",
			failures:       0,
			expectedCalls:  1,
			expectedDelays: nil,
		},
		{
			name:           "given two transient misses should succeed on third attempt",
			failures:       2,
			failWith:       Retryable(errMiss),
			expectedCalls:  3,
			expectedDelays: []time.Duration{time.Millisecond, 2 * time.Millisecond},
		},
		{
			name:           "given permanent miss should stop after retry budget",
			failures:       100,
			failWith:       Retryable(errMiss),
			expectedCalls:  4,
			expectedDelays: []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond},
			expectedErr:    inErrors.ErrRetryExhausted,
		},
		{
			name:           "given non retryable error should not retry",
			failures:       100,
			failWith:       errBoom,
			expectedCalls:  1,
			expectedDelays: nil,
			expectedErr:    errBoom,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := &recorder{}
			p := Policy{MaxRetries: 3, BaseDelay: time.Millisecond, Sleep: rec.sleep}

			calls := 0
			result, err := Do(context.Background(), p, func(context.Context) (string, error) {
				calls++
				if calls <= test.failures {
					return "", test.failWith
				}
				return "ok", nil
			})

			assert.Equal(t, test.expectedCalls, calls)
			assert.Equal(t, test.expectedDelays, rec.delays)
			if test.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, test.expectedErr)
				assert.Empty(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", result)
		})
	}
}

func TestDoStopsWhenContextIsCanceled(t *testing.T) {
	c, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(c, Policy{MaxRetries: 3, BaseDelay: time.Hour}, func(context.Context) (int, error) {
		calls++
		return 0, Retryable(errors.New("miss"))
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}
