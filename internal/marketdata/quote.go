package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// Quote is the latest price for a ticker.
type Quote struct {
	Ticker        string
	Price         decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
	Volume        *int64
	MarketCap     *int64
}

// Bar is one daily close.
type Bar struct {
	Date   time.Time
	Close  decimal.Decimal
	Volume int64
}

// QuoteProvider returns quotes and daily price history.
type QuoteProvider interface {
	Name() string
	Quote(ctx context.Context, ticker string) (*Quote, error)
	// History returns daily closes for roughly the last days days, oldest first.
	History(ctx context.Context, ticker string, days int) ([]Bar, error)
}

// changePercent is (price-prev)/prev*100, or zero when prev is not positive.
func changePercent(price, prev decimal.Decimal) decimal.Decimal {
	if !prev.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
}

// cachedQuotes wraps a QuoteProvider with an in-memory TTL cache.
type cachedQuotes struct {
	QuoteProvider
	cache *cache.Cache
}

// WithCache caches quotes and history for ttl. ttl <= 0 returns p unchanged.
func WithCache(p QuoteProvider, ttl time.Duration) QuoteProvider {
	if ttl <= 0 {
		return p
	}
	return &cachedQuotes{QuoteProvider: p, cache: cache.New(ttl, 2*ttl)}
}

func (c *cachedQuotes) Quote(ctx context.Context, ticker string) (*Quote, error) {
	key := "quote_" + ticker
	if v, ok := c.cache.Get(key); ok {
		q := *v.(*Quote)
		return &q, nil
	}
	q, err := c.QuoteProvider.Quote(ctx, ticker)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, q)
	cp := *q
	return &cp, nil
}

func (c *cachedQuotes) History(ctx context.Context, ticker string, days int) ([]Bar, error) {
	key := fmt.Sprintf("history_%s_%d", ticker, days)
	if v, ok := c.cache.Get(key); ok {
		return append([]Bar(nil), v.([]Bar)...), nil
	}
	bars, err := c.QuoteProvider.History(ctx, ticker, days)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		c.cache.SetDefault(key, bars)
	}
	return append([]Bar(nil), bars...), nil
}
