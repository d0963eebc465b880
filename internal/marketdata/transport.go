// Package marketdata fetches quotes, price history and news from upstream
// market data providers.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Default transport settings.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultRetries   = 2
	DefaultRetryWait = 500 * time.Millisecond
	DefaultRate      = 5.0
)

// ErrNoData is returned when a provider answers without usable data.
var ErrNoData = errors.New("no data in response")

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: upstream status %d", e.Provider, e.StatusCode)
}

// TransportOptions configures the HTTP transport shared by providers.
type TransportOptions struct {
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
	// RatePerSec <= 0 disables rate limiting.
	RatePerSec float64
	// HTTPClient overrides the underlying client, mainly for tests.
	HTTPClient *http.Client
}

// transport is a rate-limited resty client with retries.
type transport struct {
	name    string
	rc      *resty.Client
	limiter *rate.Limiter
	retries int
	wait    time.Duration
	log     zerolog.Logger
}

func newTransport(name, baseURL string, opts TransportOptions) *transport {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = DefaultRetryWait
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetHeaders(map[string]string{
			"Accept":     "application/json",
			"User-Agent": "Mozilla/5.0 (compatible; msent-server/1.0)",
		})

	t := &transport{
		name:    name,
		rc:      rc,
		retries: opts.Retries,
		wait:    opts.RetryWait,
		log:     log.With().Str("component", "marketdata").Str("provider", name).Logger(),
	}
	if opts.RatePerSec > 0 {
		burst := int(opts.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}
	return t
}

// getJSON issues GET path with params and decodes the JSON body into out.
// Transport errors, 5xx and 429 are retried with exponential backoff.
func (t *transport) getJSON(ctx context.Context, path string, params map[string]string, out any) error {
	op := func() error {
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		resp, err := t.rc.R().
			SetContext(ctx).
			SetQueryParams(params).
			ForceContentType("application/json").
			SetResult(out).
			Get(path)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("%s: %w", t.name, err)
		}
		if !resp.IsSuccess() {
			serr := &StatusError{Provider: t.name, StatusCode: resp.StatusCode()}
			if resp.StatusCode() >= 500 || resp.StatusCode() == http.StatusTooManyRequests {
				return serr
			}
			return backoff.Permanent(serr)
		}
		return nil
	}

	var b backoff.BackOff = backoff.NewExponentialBackOff(backoff.WithInitialInterval(t.wait))
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(t.retries)), ctx)
	notify := func(err error, d time.Duration) {
		t.log.Debug().Err(err).Dur("wait", d).Str("path", path).Msg("retrying upstream request")
	}
	return backoff.RetryNotify(op, b, notify)
}
