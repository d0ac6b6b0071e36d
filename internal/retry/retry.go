// Package retry runs an operation under a bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/commercesync/internal/errors"
	"github.com/Alturino/commercesync/internal/log"
)

type retryableError struct {
	err error
}

func (e retryableError) Error() string { return e.err.Error() }

func (e retryableError) Unwrap() error { return e.err }

// Retryable marks err as transient. Errors not marked are returned by Do
// without further attempts.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return retryableError{err: err}
}

func IsRetryable(err error) bool {
	var r retryableError
	return errors.As(err, &r)
}

type SleepFunc func(c context.Context, d time.Duration) error

func SleepContext(c context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-c.Done():
		return c.Err()
	case <-timer.C:
		return nil
	}
}

type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Sleep      SleepFunc
}

func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, BaseDelay: time.Second, Sleep: SleepContext}
}

// Delay is the wait before retry n, counted from 0: BaseDelay * 2^n.
func (p Policy) Delay(n int) time.Duration {
	return p.BaseDelay << n
}

// Attempts is the total number of calls Do makes before giving up.
func (p Policy) Attempts() int {
	return max(p.MaxRetries, 0) + 1
}

func Do[T any](c context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "retry Do").Logger()

	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var (
		result T
		err    error
	)
	attempts := p.Attempts()
	for attempt := range attempts {
		result, err = op(c)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return result, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := p.Delay(attempt)
		logger.Warn().
			Err(err).
			Int(log.KeyAttempt, attempt+1).
			Dur(log.KeyDelay, delay).
			Msgf("attempt %d/%d failed retrying in %s", attempt+1, attempts, delay)
		if sleepErr := sleep(c, delay); sleepErr != nil {
			return result, fmt.Errorf("failed waiting for retry with error=%w", errors.Join(sleepErr, err))
		}
	}

	var zero T
	return zero, fmt.Errorf(
		"%w after %d attempts with error=%w",
		inErrors.ErrRetryExhausted,
		attempts,
		err,
	)
}
