// Package jobs holds the maintenance tasks run by msent-server: seeding
// stock quotes, pulling news and classifying article sentiment.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/user-dev-arch/MarketSentimentApp/internal/market"
)

var (
	// ErrNoStocks is returned when news is requested before any stock exists.
	ErrNoStocks = errors.New("no stocks in database, run populate-stocks first")
	// ErrUnknownTicker is returned when --ticker names a stock not in the database.
	ErrUnknownTicker = errors.New("stock not found in database")
	// ErrNoNewsSource is returned when no news provider is configured.
	ErrNoNewsSource = errors.New("no news provider configured")
)

// DefaultRetryWait is the first pause between retries; it doubles after each.
const DefaultRetryWait = 2 * time.Second

// Runner executes jobs against the market service.
type Runner struct {
	svc       *market.Service
	out       io.Writer
	retryWait time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
	log       zerolog.Logger
}

// NewRunner creates a Runner. Progress lines go to out, which may be nil.
func NewRunner(svc *market.Service, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{
		svc:       svc,
		out:       out,
		retryWait: DefaultRetryWait,
		sleep:     sleepCtx,
		now:       time.Now,
		log:       log.With().Str("component", "jobs").Logger(),
	}
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// retry runs op up to attempts times with doubling waits between tries.
// Errors wrapped in backoff.Permanent stop immediately.
func (r *Runner) retry(ctx context.Context, attempts int, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(r.retryWait),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxElapsedTime(0),
	)
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
	n := 0
	return backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		n++
		r.log.Debug().Err(err).Int("attempt", n).Dur("wait", wait).Msg("retrying")
		r.printf("retry %d/%d in %s... ", n, attempts-1, wait)
	})
}

// pause waits d between upstream calls.
func (r *Runner) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return r.sleep(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
