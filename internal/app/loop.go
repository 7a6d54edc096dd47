/**
 * @description
 * The reconciliation loop: the process-wide driver that repeatedly polls the
 * designated account and matches its statements. It runs until the context
 * is cancelled; cancellation takes effect at the next suspension point, so
 * in-flight statement processing always completes.
 *
 * The loop is designed for exactly one account at a time. Running it against
 * multiple accounts concurrently would violate the provider's global rate
 * limit and is deliberately not supported.
 */

package app

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/mykolasolodukha/vilnyypay-bot/internal/store"
)

// MonitorPaychecks runs reconciliation cycles until ctx is cancelled. It
// returns a non-nil error only when the persistence layer becomes
// unreachable, which is the one condition meant to halt the process rather
// than silently lose data.
func (s *Service) MonitorPaychecks(ctx context.Context) error {
	for {
		account, err := s.repo.FindPollingAccount(ctx)
		switch {
		case errors.Is(err, store.ErrAccountNotFound):
			s.logger.Warn("no account registered for polling; skipping cycle")
		case err != nil:
			return err
		default:
			if err := s.PullAccountStatements(ctx, account, false, s.ProcessNewStatement); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
		}

		delay := s.cycleDelay()
		s.logger.Debug("reconciliation cycle finished", "next_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// cycleDelay draws the pause before the next cycle uniformly from the
// configured bounds. The jitter keeps the polling cadence from aligning with
// the provider's own rate-limit window.
func (s *Service) cycleDelay() time.Duration {
	min, max := s.opts.MonitorSleepMin, s.opts.MonitorSleepMax
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min+1)))
}
