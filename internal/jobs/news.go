package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/user-dev-arch/MarketSentimentApp/internal/marketdata"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/store"
)

// NewsOptions configures PopulateNews.
type NewsOptions struct {
	Delay        time.Duration
	Retries      int
	Limit        int // articles per stock
	Period       models.NewsTimePeriod
	Ticker       string // only this stock when set
	SkipExisting bool   // skip stocks with news in the last 24 hours
}

// NewsResult summarises a PopulateNews run.
type NewsResult struct {
	Stocks  int
	Skipped int
	Failed  []string
	Fetched int
	Saved   int
}

// PopulateNews pulls recent articles for every stored stock, or a single
// ticker, and upserts them by link.
func (r *Runner) PopulateNews(ctx context.Context, opts NewsOptions) (NewsResult, error) {
	var res NewsResult
	source := r.svc.NewsSource()
	if source == nil {
		return res, ErrNoNewsSource
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Period == "" {
		opts.Period = models.Period7d
	}

	tickers, err := r.newsTickers(opts.Ticker)
	if err != nil {
		return res, err
	}
	res.Stocks = len(tickers)
	r.printf("Period %s, %d per stock, %d stock(s)\n", opts.Period, opts.Limit, len(tickers))

	db := r.svc.DB()
	recent := r.now().Add(-24 * time.Hour)
	for i, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		r.printf("Processing %s (%d/%d)... ", ticker, i+1, len(tickers))

		if opts.SkipExisting {
			n, err := db.CountNews(store.NewsFilter{Since: recent, Tickers: []string{ticker}})
			if err != nil {
				return res, err
			}
			if n > 0 {
				res.Skipped++
				r.printf("skipped (has recent news)\n")
				continue
			}
		}

		var arts []marketdata.Article
		err := r.retry(ctx, opts.Retries, func() error {
			got, err := source.Fetch(ctx, ticker, marketdata.NewsQuery{Limit: opts.Limit, Period: opts.Period})
			if err != nil {
				return err
			}
			arts = got
			return nil
		})
		switch {
		case err != nil:
			res.Failed = append(res.Failed, ticker)
			r.log.Warn().Err(err).Str("ticker", ticker).Msg("news fetch failed")
			r.printf("failed: %v\n", err)
		case len(arts) == 0:
			res.Failed = append(res.Failed, ticker)
			r.printf("no news found\n")
		default:
			saved, err := r.svc.SaveArticles(arts)
			if err != nil {
				return res, fmt.Errorf("save news for %s: %w", ticker, err)
			}
			res.Fetched += len(arts)
			res.Saved += saved
			if saved > 0 {
				r.printf("fetched %d, saved %d new\n", len(arts), saved)
			} else {
				r.printf("fetched %d, all already exist\n", len(arts))
			}
		}

		if i < len(tickers)-1 {
			if err := r.pause(ctx, opts.Delay); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

func (r *Runner) newsTickers(only string) ([]string, error) {
	db := r.svc.DB()
	if only = strings.ToUpper(strings.TrimSpace(only)); only != "" {
		if _, err := db.GetStock(only); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%s: %w", only, ErrUnknownTicker)
			}
			return nil, err
		}
		return []string{only}, nil
	}

	stocks, err := db.ListStocks(0)
	if err != nil {
		return nil, err
	}
	if len(stocks) == 0 {
		return nil, ErrNoStocks
	}
	tickers := make([]string, 0, len(stocks))
	for _, s := range stocks {
		tickers = append(tickers, s.Ticker)
	}
	return tickers, nil
}
