package market

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/user-dev-arch/MarketSentimentApp/internal/marketdata"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/store"
)

var hundred = decimal.NewFromInt(100)

type mover struct {
	ticker string
	change decimal.Decimal
	price  decimal.Decimal
}

// TopMovers returns the popular stocks with the largest absolute price
// change. Stocks quoted within the quote TTL are served from the database;
// the rest are refreshed from the quote provider, falling back to stored
// values when the provider fails.
func (s *Service) TopMovers(ctx context.Context, limit int) ([]models.TopMover, error) {
	limit = orDefault(limit, DefaultMoversLimit)
	tickers := marketdata.TopTickers(limit * 3)

	stored, err := s.db.StocksByTicker(tickers)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var (
		mu     sync.Mutex
		movers []mover
		stale  []string
	)
	for _, t := range tickers {
		st := stored[t]
		if st != nil && st.Quoted() && now.Sub(st.UpdatedAt) < s.quoteTTL {
			movers = append(movers, storedMover(st))
			continue
		}
		stale = append(stale, t)
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, t := range stale {
		g.Go(func() error {
			m, ok := s.refreshMover(ctx, t, stored[t])
			if ok {
				mu.Lock()
				movers = append(movers, m)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	sort.SliceStable(movers, func(i, j int) bool {
		ai, aj := movers[i].change.Abs(), movers[j].change.Abs()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return movers[i].ticker < movers[j].ticker
	})
	if len(movers) > limit {
		movers = movers[:limit]
	}

	out := make([]models.TopMover, len(movers))
	for i, m := range movers {
		out[i] = models.TopMover{
			Ticker:       m.ticker,
			Change:       m.change.StringFixed(2),
			CurrentPrice: m.price.StringFixed(2),
		}
	}
	return out, nil
}

// storedMover derives the absolute change from the stored percentage.
func storedMover(st *store.Stock) mover {
	price := st.CurrentPrice.Decimal
	return mover{
		ticker: st.Ticker,
		change: st.ChangeInDay.Decimal.Div(hundred).Mul(price),
		price:  price,
	}
}

func (s *Service) refreshMover(ctx context.Context, ticker string, prev *store.Stock) (mover, bool) {
	q, err := s.quotes.Quote(ctx, ticker)
	if err == nil && q.Price.IsPositive() {
		if _, err := s.SaveQuote(ticker, q); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("save quote")
		}
		return mover{ticker: ticker, change: q.Change, price: q.Price}, true
	}
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("quote refresh failed")
	}
	if prev != nil && prev.Quoted() {
		return storedMover(prev), true
	}
	return mover{}, false
}

// SaveQuote writes a quote onto the stock row, creating it if needed, and
// reports whether the row is new.
func (s *Service) SaveQuote(ticker string, q *marketdata.Quote) (bool, error) {
	st, created, err := s.db.GetOrCreateStock(ticker, marketdata.CompanyName(ticker))
	if err != nil {
		return false, err
	}
	applyQuote(st, q)
	_, err = s.db.UpsertStock(st)
	return created, err
}

func applyQuote(st *store.Stock, q *marketdata.Quote) {
	st.CurrentPrice = decimal.NewNullDecimal(q.Price)
	st.ChangeInDay = decimal.NewNullDecimal(q.ChangePercent)
	if q.Volume != nil && *q.Volume != 0 {
		st.Volume = q.Volume
	}
	if q.MarketCap != nil && *q.MarketCap != 0 {
		st.MarketCap = q.MarketCap
	}
}

// SentimentMovers returns the stocks whose news sentiment score moved the
// most between the previous week and the last day. Scores are
// int((bullish-bearish)/total*100) over analysed articles. Each computed
// score is stored on the stock.
func (s *Service) SentimentMovers(ctx context.Context, limit int) ([]models.SentimentMover, error) {
	limit = orDefault(limit, DefaultMoversLimit)
	stocks, err := s.db.ListStocks(limit * 3)
	if err != nil {
		return nil, err
	}

	today := s.today()
	yesterday := today.AddDate(0, 0, -1)
	weekAgo := today.AddDate(0, 0, -7)

	var out []models.SentimentMover
	for _, st := range stocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recent, err := s.db.SentimentCounts(st.Ticker, yesterday, zeroTime, true)
		if err != nil {
			return nil, err
		}
		if recent.Total() == 0 {
			continue
		}
		score := recent.Score()

		prev, err := s.db.SentimentCounts(st.Ticker, weekAgo, yesterday, true)
		if err != nil {
			return nil, err
		}
		change := 0
		if prev.Total() > 0 {
			change = score - prev.Score()
		}

		if err := s.db.SetSentimentScore(st.Ticker, score); err != nil {
			s.log.Warn().Err(err).Str("ticker", st.Ticker).Msg("store sentiment score")
		}
		out = append(out, models.SentimentMover{Ticker: st.Ticker, SentimentScore: score, Change: float64(change)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return abs(out[i].Change) > abs(out[j].Change)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []models.SentimentMover{}
	}
	return out, nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Stocks returns stored stocks ordered by ticker.
func (s *Service) Stocks(ctx context.Context, limit int) ([]StockItem, error) {
	stocks, err := s.db.ListStocks(orDefault(limit, DefaultStocksLimit))
	if err != nil {
		return nil, err
	}
	out := make([]StockItem, 0, len(stocks))
	for _, st := range stocks {
		out = append(out, stockItem(st))
	}
	return out, nil
}
