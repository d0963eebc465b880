// Package endpoint describes the market sentiment API endpoints.
package endpoint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
)

// ErrInvalidURL is returned when a request URL cannot be built.
var ErrInvalidURL = errors.New("invalid url")

// Method is an HTTP method supported by the API.
type Method string

const (
	GET  Method = http.MethodGet
	POST Method = http.MethodPost
)

// Kind identifies an endpoint case.
type Kind int

const (
	KindTopMovers Kind = iota
	KindNewsBuzz
	KindSentimentMovers
	KindStocks
	KindNews
	KindSentiment
	KindStockDetails
)

// Endpoint is one API call. Build values with the constructors below.
type Endpoint struct {
	kind       Kind
	limit      *int
	sentiment  *models.Sentiment
	stocks     *string
	timePeriod models.NewsTimePeriod
	id         string
	ticker     string
}

// TopMovers lists the largest price moves.
func TopMovers(limit *int) Endpoint {
	return Endpoint{kind: KindTopMovers, limit: limit}
}

// NewsBuzz lists tickers ranked by news volume.
func NewsBuzz(limit *int) Endpoint {
	return Endpoint{kind: KindNewsBuzz, limit: limit}
}

// SentimentMovers lists tickers with the largest sentiment shift.
func SentimentMovers(limit *int) Endpoint {
	return Endpoint{kind: KindSentimentMovers, limit: limit}
}

// Stocks lists tracked stocks.
func Stocks(limit *int) Endpoint {
	return Endpoint{kind: KindStocks, limit: limit}
}

// News lists articles. sentiment is sent as its label, stocks is a comma
// separated ticker list.
func News(limit *int, sentiment *models.Sentiment, stocks *string, period models.NewsTimePeriod) Endpoint {
	return Endpoint{kind: KindNews, limit: limit, sentiment: sentiment, stocks: stocks, timePeriod: period}
}

// Sentiment returns the sentiment of one article.
func Sentiment(id string) Endpoint {
	return Endpoint{kind: KindSentiment, id: id}
}

// StockDetails returns the detail page for a ticker.
func StockDetails(ticker string) Endpoint {
	return Endpoint{kind: KindStockDetails, ticker: ticker}
}

// Int is a convenience for optional limit arguments.
func Int(v int) *int {
	return &v
}

// Kind returns the endpoint case.
func (e Endpoint) Kind() Kind {
	return e.kind
}

// Method is GET for every endpoint currently defined.
func (e Endpoint) Method() Method {
	return GET
}

// Path returns the URL path relative to the API base.
func (e Endpoint) Path() string {
	switch e.kind {
	case KindTopMovers:
		return "/topMovers"
	case KindNewsBuzz:
		return "/newsBuzz"
	case KindSentimentMovers:
		return "/sentimentMovers"
	case KindStocks:
		return "/stocks"
	case KindNews:
		return "/news"
	case KindSentiment:
		return "/sentiment/" + e.id
	case KindStockDetails:
		return "/stock-details"
	}
	return "/"
}

// Headers returns the request headers. Content-Type is only set for POST.
func (e Endpoint) Headers() http.Header {
	h := http.Header{}
	if e.Method() == POST {
		h.Set("Content-Type", "application/json")
	}
	return h
}

// QueryItem is one ordered query parameter.
type QueryItem struct {
	Name  string
	Value string
}

// Query returns the query parameters in the order limit, sentiment, stocks,
// timePeriod, ticker. Absent optionals are omitted.
func (e Endpoint) Query() []QueryItem {
	var items []QueryItem
	if e.limit != nil {
		items = append(items, QueryItem{"limit", strconv.Itoa(*e.limit)})
	}
	if e.kind == KindNews {
		if e.sentiment != nil {
			items = append(items, QueryItem{"sentiment", string(*e.sentiment)})
		}
		if e.stocks != nil {
			items = append(items, QueryItem{"stocks", *e.stocks})
		}
		if e.timePeriod != "" {
			items = append(items, QueryItem{"timePeriod", string(e.timePeriod)})
		}
	}
	if e.kind == KindStockDetails {
		items = append(items, QueryItem{"ticker", e.ticker})
	}
	return items
}

// URL joins the endpoint onto base.
func (e Endpoint) URL(base string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", fmt.Errorf("%w: empty base", ErrInvalidURL)
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, base)
	}

	u.Path = strings.TrimRight(u.Path, "/") + e.Path()
	u.RawPath = ""

	items := e.Query()
	if len(items) > 0 {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			parts = append(parts, url.QueryEscape(it.Name)+"="+url.QueryEscape(it.Value))
		}
		u.RawQuery = strings.Join(parts, "&")
	} else {
		u.RawQuery = ""
	}
	return u.String(), nil
}

// NewRequest builds an *http.Request for the endpoint. body is sent only
// for POST.
func (e Endpoint) NewRequest(ctx context.Context, base string, body []byte) (*http.Request, error) {
	target, err := e.URL(base)
	if err != nil {
		return nil, err
	}
	var r io.Reader
	if e.Method() == POST && body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, string(e.Method()), target, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	for k, vs := range e.Headers() {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

func (e Endpoint) String() string {
	return string(e.Method()) + " " + e.Path()
}
