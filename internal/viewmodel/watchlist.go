package viewmodel

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/user-dev-arch/MarketSentimentApp/internal/client"
	"github.com/user-dev-arch/MarketSentimentApp/internal/endpoint"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/preview"
	"github.com/user-dev-arch/MarketSentimentApp/internal/watchlist"
)

// WatchlistState is the watchlist screen content.
type WatchlistState struct {
	SavedTickers []string
	Stocks       []models.Stock
}

// Watchlist shows the saved tickers.
type Watchlist struct {
	observable[WatchlistState]
	fetcher client.Fetcher
	store   *watchlist.Store
	log     zerolog.Logger
}

// NewWatchlist creates the model and reads the saved tickers.
func NewWatchlist(f client.Fetcher, store *watchlist.Store) *Watchlist {
	w := &Watchlist{fetcher: f, store: store, log: componentLogger("watchlist")}
	w.state.SavedTickers = store.All()
	return w
}

// Refresh re-reads the saved tickers.
func (w *Watchlist) Refresh() {
	saved := w.store.All()
	w.update(func(s *WatchlistState) { s.SavedTickers = saved })
}

// LoadStocks fetches the stock list.
func (w *Watchlist) LoadStocks(ctx context.Context) error {
	stocks, err := client.Fetch[[]models.Stock](ctx, w.fetcher, endpoint.Stocks(endpoint.Int(StocksLimit)))
	if err != nil {
		w.log.Warn().Err(err).Msg("LoadStocks")
		stocks = preview.Stocks()
	}
	w.update(func(s *WatchlistState) { s.Stocks = stocks })
	return err
}

// WatchlistRowState is one watchlist row.
type WatchlistRowState struct {
	Ticker  string
	Details *models.StockDetails
}

// WatchlistRow loads details for a single saved ticker. Failures leave
// Details nil.
type WatchlistRow struct {
	observable[WatchlistRowState]
	fetcher client.Fetcher
	log     zerolog.Logger
}

func NewWatchlistRow(f client.Fetcher) *WatchlistRow {
	return &WatchlistRow{fetcher: f, log: componentLogger("watchlist_row")}
}

// LoadDetails fetches details for ticker.
func (r *WatchlistRow) LoadDetails(ctx context.Context, ticker string) error {
	ticker = models.NormalizeTicker(ticker)
	details, err := client.Fetch[models.StockDetails](ctx, r.fetcher, endpoint.StockDetails(ticker))
	if err != nil {
		r.log.Warn().Err(err).Str("ticker", ticker).Msg("LoadDetails")
		r.update(func(s *WatchlistRowState) {
			s.Ticker = ticker
			s.Details = nil
		})
		return err
	}
	r.update(func(s *WatchlistRowState) {
		s.Ticker = ticker
		s.Details = &details
	})
	return nil
}
