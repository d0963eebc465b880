package market

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/user-dev-arch/MarketSentimentApp/internal/marketdata"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/store"
)

// StockDetails assembles the detail page for a ticker. Unknown tickers are
// created. The quote is refreshed when older than the quote TTL or never
// fetched, and missing daily closes of the last 30 days are backfilled.
// Upstream failures are logged and the stored data served.
func (s *Service) StockDetails(ctx context.Context, ticker string) (*StockDetails, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, ErrInvalidTicker
	}

	st, _, err := s.db.GetOrCreateStock(ticker, marketdata.CompanyName(ticker))
	if err != nil {
		return nil, err
	}

	if s.quoteStale(st) {
		q, err := s.quotes.Quote(ctx, ticker)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("quote refresh failed")
		case q.Price.IsPositive():
			applyQuote(st, q)
			if _, err := s.db.UpsertStock(st); err != nil {
				return nil, err
			}
		}
	}

	start := s.today().AddDate(0, 0, -historyDays)
	if err := s.backfillHistory(ctx, ticker, start); err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("price history backfill failed")
	}

	points, err := s.db.PriceHistory(ticker, start, historyDays)
	if err != nil {
		return nil, err
	}
	prices := make([]float64, 0, len(points))
	for _, p := range points {
		prices = append(prices, p.Price.InexactFloat64())
	}

	counts, err := s.db.SentimentCounts(ticker, start, zeroTime, true)
	if err != nil {
		return nil, err
	}
	recent, err := s.db.ListNews(store.NewsFilter{Tickers: []string{ticker}, Limit: recentNewsLimit})
	if err != nil {
		return nil, err
	}
	total, err := s.db.CountNews(store.NewsFilter{Tickers: []string{ticker}})
	if err != nil {
		return nil, err
	}

	d := &StockDetails{
		StockDetails: models.StockDetails{
			CompanyFullName: st.CompanyFullName,
			MarketCap:       FormatNumber(st.MarketCap),
			Volume:          FormatNumber(st.Volume),
			NewsBuzz:        fmt.Sprintf("%.6f", math.Min(float64(total)/100, maxBuzz)),
			PricesHistory:   prices,
			NewsSentiment: models.SentimentCard{
				Bullish: counts.Bullish,
				Bearish: counts.Bearish,
				Neutral: counts.Neutral,
			},
		},
		RecentNews: newsItems(recent),
	}
	if st.CurrentPrice.Valid {
		d.Price = st.CurrentPrice.Decimal.InexactFloat64()
	}
	if st.ChangeInDay.Valid {
		d.ChangeInDay = st.ChangeInDay.Decimal.InexactFloat64()
	}
	return d, nil
}

func (s *Service) quoteStale(st *store.Stock) bool {
	if !st.CurrentPrice.Valid || st.CurrentPrice.Decimal.IsZero() {
		return true
	}
	return s.now().Sub(st.UpdatedAt) > s.quoteTTL
}

// backfillHistory fetches daily closes for dates in [start, start+30d)
// that are not stored yet.
func (s *Service) backfillHistory(ctx context.Context, ticker string, start time.Time) error {
	have, err := s.db.PriceDates(ticker, start)
	if err != nil {
		return err
	}
	missing := map[string]bool{}
	oldest := ""
	for i := 0; i < historyDays; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		if !have[day] {
			missing[day] = true
			if oldest == "" {
				oldest = day
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	oldestDay, _ := time.Parse("2006-01-02", oldest)
	days := int(s.today().Sub(oldestDay).Hours()/24) + 1
	bars, err := s.quotes.History(ctx, ticker, days)
	if err != nil {
		return err
	}
	for _, b := range bars {
		if !missing[b.Date.Format("2006-01-02")] {
			continue
		}
		vol := b.Volume
		if err := s.db.UpsertPriceHistory(ticker, store.PricePoint{Date: b.Date, Price: b.Close, Volume: &vol}); err != nil {
			return err
		}
	}
	return nil
}
