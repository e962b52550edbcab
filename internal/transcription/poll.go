package transcription

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrPollTimeout is returned when a job does not reach a terminal status
// within PollConfig.Timeout.
var ErrPollTimeout = errors.New("transcription poll timed out")

var errPending = errors.New("job still pending")

type PollConfig struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Timeout     time.Duration
}

// CheckFunc inspects a job once. done reports a completed job; a non-nil
// error is terminal and stops polling.
type CheckFunc func(ctx context.Context) (done bool, err error)

// pollUntil calls check on an exponential schedule until the job is done,
// fails, the timeout elapses, or ctx is cancelled.
func pollUntil(ctx context.Context, pc PollConfig, check CheckFunc) error {
	pctx, cancel := context.WithTimeout(ctx, pc.Timeout)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = pc.Interval
	bo.MaxInterval = pc.MaxInterval
	bo.Multiplier = 1.5
	bo.RandomizationFactor = 0.1
	bo.MaxElapsedTime = pc.Timeout
	bo.Reset()

	var terminal error
	op := func() error {
		done, err := check(pctx)
		if err != nil {
			terminal = err
			return backoff.Permanent(err)
		}
		if !done {
			return errPending
		}
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(bo, pctx))
	switch {
	case err == nil:
		return nil
	case terminal != nil:
		return terminal
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return ErrPollTimeout
	}
}
