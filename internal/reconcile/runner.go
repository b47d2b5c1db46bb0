package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is the reference polling interval for an authenticated
// session.
const DefaultInterval = 10 * time.Second

// Runner drives a Poller on a fixed interval for the lifetime of one
// session. It fires once immediately on start, skips ticks that would
// overlap an in-flight poll, and stops deterministically: after Stop
// returns, no further poll fires.
type Runner struct {
	poller    *Poller
	accountID string
	interval  time.Duration
	log       zerolog.Logger

	inFlight atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// StartRunner starts the polling schedule and returns its cancellation
// handle. A non-positive interval falls back to DefaultInterval.
func StartRunner(ctx context.Context, poller *Poller, accountID string, interval time.Duration, log zerolog.Logger) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	r := &Runner{
		poller:    poller,
		accountID: accountID,
		interval:  interval,
		log:       log,
		stopChan:  make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run(ctx)
	return r
}

func (r *Runner) run(ctx context.Context) {
	defer r.wg.Done()

	// First poll happens at session start, independent of the interval.
	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick launches one scheduled poll. The poll runs off the scheduler
// goroutine so ticks keep firing while it is in flight, and the guard drops
// any tick that would overlap: skipped, never queued for later. A panic
// inside the poll must not escape the scheduler boundary.
func (r *Runner) tick(ctx context.Context) {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.log.Debug().
			Str("account_id", r.accountID).
			Msg("Previous poll still in flight, skipping tick")
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.inFlight.Store(false)

		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error().
					Interface("panic", rec).
					Str("account_id", r.accountID).
					Msg("Panic recovered in poll tick")
			}
		}()

		result := r.poller.Poll(ctx, r.accountID)
		r.log.Debug().
			Str("account_id", r.accountID).
			Int("transactions", len(result.All)).
			Int("newly_finalized", len(result.NewlyFinalized)).
			Msg("Poll completed")
	}()
}

// Stop cancels the recurring schedule and waits for an in-flight poll to
// finish. Safe to call more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
	})
	r.wg.Wait()
}
