package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/user-dev-arch/MarketSentimentApp/internal/marketdata"
)

// StocksOptions configures PopulateStocks.
type StocksOptions struct {
	Delay   time.Duration // pause between tickers
	Retries int           // attempts per ticker
	Tickers []string      // defaults to the popular tickers
}

// StocksResult summarises a PopulateStocks run.
type StocksResult struct {
	Created int
	Updated int
	Failed  []string
}

// PopulateStocks fetches a quote for each ticker and upserts the stock row
// with its company name, price, daily change, volume and market cap.
func (r *Runner) PopulateStocks(ctx context.Context, opts StocksOptions) (StocksResult, error) {
	var res StocksResult
	tickers := opts.Tickers
	if len(tickers) == 0 {
		tickers = marketdata.PopularTickers
	}
	quotes := r.svc.Quotes()
	r.printf("Using %s for quotes, %s between calls\n", quotes.Name(), opts.Delay)

	for i, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		r.printf("Processing %s (%d/%d)... ", ticker, i+1, len(tickers))

		var q *marketdata.Quote
		err := r.retry(ctx, opts.Retries, func() error {
			got, err := quotes.Quote(ctx, ticker)
			if err != nil {
				return err
			}
			if !got.Price.IsPositive() {
				return backoff.Permanent(marketdata.ErrNoData)
			}
			q = got
			return nil
		})
		if err != nil {
			res.Failed = append(res.Failed, ticker)
			r.log.Warn().Err(err).Str("ticker", ticker).Msg("quote failed")
			r.printf("no data (%v)\n", err)
		} else {
			created, err := r.svc.SaveQuote(ticker, q)
			switch {
			case err != nil:
				return res, fmt.Errorf("save %s: %w", ticker, err)
			case created:
				res.Created++
				r.printf("created\n")
			default:
				res.Updated++
				r.printf("updated\n")
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
