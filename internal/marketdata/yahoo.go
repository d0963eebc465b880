package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// YahooBaseURL is the Yahoo Finance chart API.
const YahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

type yahooChartResponse struct {
	Chart struct {
		Result []yahooResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooResult struct {
	Meta struct {
		RegularMarketPrice  *float64 `json:"regularMarketPrice"`
		PreviousClose       *float64 `json:"previousClose"`
		ChartPreviousClose  *float64 `json:"chartPreviousClose"`
		RegularMarketVolume *int64   `json:"regularMarketVolume"`
		MarketCap           *int64   `json:"marketCap"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Yahoo is the keyless Yahoo Finance quote provider.
type Yahoo struct {
	t *transport
}

// NewYahoo creates a Yahoo provider. An empty baseURL uses YahooBaseURL.
func NewYahoo(baseURL string, opts TransportOptions) *Yahoo {
	if baseURL == "" {
		baseURL = YahooBaseURL
	}
	return &Yahoo{t: newTransport("yahoo", baseURL, opts)}
}

func (y *Yahoo) Name() string { return "Yahoo Finance" }

func (y *Yahoo) chart(ctx context.Context, ticker, rng string) (*yahooResult, error) {
	var resp yahooChartResponse
	err := y.t.getJSON(ctx, "/"+url.PathEscape(ticker), map[string]string{
		"interval": "1d",
		"range":    rng,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo: %s: %s", e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: %s: %w", ticker, ErrNoData)
	}
	return &resp.Chart.Result[0], nil
}

// Quote returns the regular market price. The change is measured against
// the previous close.
func (y *Yahoo) Quote(ctx context.Context, ticker string) (*Quote, error) {
	r, err := y.chart(ctx, ticker, "1d")
	if err != nil {
		return nil, err
	}
	m := r.Meta
	if m.RegularMarketPrice == nil || *m.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("yahoo: %s: no price data available: %w", ticker, ErrNoData)
	}
	price := decimal.NewFromFloat(*m.RegularMarketPrice)
	prev := price
	switch {
	case m.PreviousClose != nil:
		prev = decimal.NewFromFloat(*m.PreviousClose)
	case m.ChartPreviousClose != nil:
		prev = decimal.NewFromFloat(*m.ChartPreviousClose)
	}
	return &Quote{
		Ticker:        ticker,
		Price:         price,
		Change:        price.Sub(prev),
		ChangePercent: changePercent(price, prev),
		Volume:        m.RegularMarketVolume,
		MarketCap:     m.MarketCap,
	}, nil
}

// History returns daily closes over the last days days. Null closes are skipped.
func (y *Yahoo) History(ctx context.Context, ticker string, days int) ([]Bar, error) {
	if days <= 0 {
		days = 30
	}
	r, err := y.chart(ctx, ticker, strconv.Itoa(days)+"d")
	if err != nil {
		return nil, err
	}
	if len(r.Indicators.Quote) == 0 {
		return nil, nil
	}
	q := r.Indicators.Quote[0]
	bars := make([]Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		b := Bar{
			Date:  truncateDay(time.Unix(ts, 0).UTC()),
			Close: decimal.NewFromFloat(*q.Close[i]),
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			b.Volume = *q.Volume[i]
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
