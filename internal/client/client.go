// Package client is the HTTP client for the market sentiment API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/user-dev-arch/MarketSentimentApp/internal/endpoint"
	"github.com/user-dev-arch/MarketSentimentApp/internal/jsoncoding"
)

// Defaults applied by New when an option is zero.
const (
	DefaultTimeout   = 15 * time.Second
	DefaultRetries   = 2
	DefaultRetryWait = 300 * time.Millisecond
)

// Fetcher performs typed API calls. *Client implements it; tests substitute
// their own.
type Fetcher interface {
	FetchData(ctx context.Context, ep endpoint.Endpoint, out any) error
	PostData(ctx context.Context, ep endpoint.Endpoint, body, out any) error
}

// Fetch calls ep and decodes the response into a T.
func Fetch[T any](ctx context.Context, f Fetcher, ep endpoint.Endpoint) (T, error) {
	var out T
	if err := f.FetchData(ctx, ep, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Post sends body to ep and decodes the response into a T.
func Post[T any](ctx context.Context, f Fetcher, ep endpoint.Endpoint, body any) (T, error) {
	var out T
	if err := f.PostData(ctx, ep, body, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Retries is the number of extra attempts for GET requests. Negative
	// disables retries.
	Retries   int
	RetryWait time.Duration
	// RatePerSec limits outgoing requests. Zero means unlimited.
	RatePerSec float64
	Transport  http.RoundTripper
}

// Client is an HTTP client for the msent-server API.
type Client struct {
	baseURL   string
	http      *resty.Client
	limiter   *rate.Limiter
	retries   int
	retryWait time.Duration
	log       zerolog.Logger
}

// New creates a new API client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries == 0 {
		opts.Retries = DefaultRetries
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = DefaultRetryWait
	}

	rc := resty.New().
		SetTimeout(opts.Timeout).
		SetHeaders(map[string]string{
			"Accept":          "application/json",
			"Accept-Encoding": "br, gzip",
		}).
		OnAfterResponse(decompressMiddleware)
	if opts.Transport != nil {
		rc.SetTransport(opts.Transport)
	}

	c := &Client{
		baseURL:   opts.BaseURL,
		http:      rc,
		retries:   opts.Retries,
		retryWait: opts.RetryWait,
		log:       log.With().Str("component", "client").Logger(),
	}
	if opts.RatePerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	return c
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchData performs ep and decodes the body into out.
func (c *Client) FetchData(ctx context.Context, ep endpoint.Endpoint, out any) error {
	return c.do(ctx, string(ep.Method()), ep, nil, out)
}

// PostData sends body as snake_case JSON and decodes the response into out.
func (c *Client) PostData(ctx context.Context, ep endpoint.Endpoint, body, out any) error {
	var data []byte
	if body != nil {
		encoded, err := jsoncoding.Encode(body)
		if err != nil {
			return &NetworkError{Kind: KindInvalidData, Err: err}
		}
		data = encoded
	}
	return c.do(ctx, http.MethodPost, ep, data, out)
}

func (c *Client) do(ctx context.Context, method string, ep endpoint.Endpoint, body []byte, out any) error {
	target, err := ep.URL(c.baseURL)
	if err != nil {
		return &NetworkError{Kind: KindInvalidURL, Err: err}
	}
	c.log.Debug().Str("method", method).Str("url", target).Msg("request")

	retries := c.retries
	if method != http.MethodGet {
		retries = 0
	}

	var respBody []byte
	attempt := 0
	operation := func() error {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(&NetworkError{Kind: KindInvalidResponse, Err: err})
			}
		}
		b, err := c.execute(ctx, method, target, body)
		if err != nil {
			var ne *NetworkError
			if errors.As(err, &ne) && ne.Retryable() && ctx.Err() == nil {
				if attempt <= retries {
					c.log.Debug().Err(err).Int("attempt", attempt).Str("url", target).Msg("retrying")
				}
				return err
			}
			return backoff.Permanent(err)
		}
		respBody = b
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryWait
	bo.MaxElapsedTime = 0
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx)); err != nil {
		c.log.Debug().Err(err).Str("url", target).Msg("request failed")
		return err
	}

	if len(respBody) == 0 {
		return &NetworkError{Kind: KindInvalidData}
	}
	if out == nil {
		return nil
	}
	if err := jsoncoding.Decode(respBody, out); err != nil {
		return &NetworkError{Kind: KindDecoding, Err: err}
	}
	return nil
}

func (c *Client) execute(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, target)
	if err != nil {
		var ce *compressionError
		if errors.As(err, &ce) || gzipFailure(resp, err) {
			return nil, &NetworkError{Kind: KindCompressionFailed, Err: err}
		}
		return nil, &NetworkError{Kind: KindInvalidResponse, Err: err}
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		c.log.Debug().Int("status", status).Str("body", truncateBody(resp.Body())).Msg("error response")
		return nil, &NetworkError{Kind: KindServer, StatusCode: status, Message: errorMessage(resp.Body())}
	}
	return resp.Body(), nil
}

// errorMessage extracts the message from {"error":{"code","message"}} or
// {"error":"..."} bodies.
func errorMessage(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &envelope) != nil || len(envelope.Error) == 0 {
		return ""
	}
	var text string
	if json.Unmarshal(envelope.Error, &text) == nil {
		return text
	}
	var structured struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(envelope.Error, &structured) == nil {
		if structured.Message != "" {
			return structured.Message
		}
		return structured.Code
	}
	return ""
}

func truncateBody(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
