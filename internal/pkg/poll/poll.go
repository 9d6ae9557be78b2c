// Package poll implements bounded polling of remote asynchronous operations.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
)

// ErrTimeout is returned when an operation does not complete within the
// configured timeout.
var ErrTimeout = errors.New("polling timed out")

// errNotDone marks a probe that succeeded but is not finished yet, so the
// retry loop keeps going.
var errNotDone = errors.New("operation still in progress")

// Config controls the polling loop.
type Config struct {
	// Interval is the delay between probes.
	Interval time.Duration

	// Timeout bounds the total wait. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout bounds a wait when no timeout is configured.
const DefaultTimeout = 2 * time.Hour

// ProbeFunc reports whether the awaited operation has completed.
// A non-nil error aborts polling immediately.
type ProbeFunc func(ctx context.Context) (done bool, err error)

// Until probes fn at cfg.Interval until it reports done, fails, the context
// is canceled, or cfg.Timeout elapses. The first probe runs immediately.
func Until(ctx context.Context, cfg Config, fn ProbeFunc) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("poll: interval must be positive, got %v", cfg.Interval)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var probeErr error
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			done, err := fn(ctx)
			if err != nil {
				probeErr = err
				return err
			}
			if !done {
				return errNotDone
			}
			return nil
		},
		IsFatalError: func(err error) bool {
			return !errors.Is(err, errNotDone)
		},
		Attempts:    retry.UnlimitedAttempts,
		Delay:       cfg.Interval,
		MaxDuration: timeout,
		Clock:       clock.WallClock,
		Stop:        ctx.Done(),
	})

	switch {
	case err == nil:
		return nil
	case probeErr != nil:
		return probeErr
	case retry.IsDurationExceeded(err):
		return fmt.Errorf("%w after %v", ErrTimeout, timeout)
	case retry.IsRetryStopped(err):
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	default:
		return err
	}
}
