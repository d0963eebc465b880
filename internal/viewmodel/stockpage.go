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

// StockPageState is the detail screen content for one ticker.
type StockPageState struct {
	Ticker   string
	Details  *models.StockDetails
	IsSaved  bool
	Fallback bool
}

// StockPage loads stock details and manages the saved flag.
type StockPage struct {
	observable[StockPageState]
	fetcher   client.Fetcher
	watchlist *watchlist.Store
	log       zerolog.Logger
}

func NewStockPage(f client.Fetcher, wl *watchlist.Store) *StockPage {
	return &StockPage{fetcher: f, watchlist: wl, log: componentLogger("stock_page")}
}

// LoadDetails fetches the details for ticker. On error the preview details
// are shown.
func (p *StockPage) LoadDetails(ctx context.Context, ticker string) error {
	ticker = models.NormalizeTicker(ticker)
	details, err := client.Fetch[models.StockDetails](ctx, p.fetcher, endpoint.StockDetails(ticker))
	if err != nil {
		p.log.Warn().Err(err).Str("ticker", ticker).Msg("LoadDetails")
		details = preview.StockDetails()
	}
	p.update(func(s *StockPageState) {
		s.Ticker = ticker
		s.Details = &details
		s.Fallback = err != nil
	})
	return err
}

// RefreshSaved re-reads the saved flag for ticker.
func (p *StockPage) RefreshSaved(ticker string) {
	saved := p.watchlist.IsSaved(ticker)
	p.update(func(s *StockPageState) { s.IsSaved = saved })
}

// Save adds ticker to the watchlist.
func (p *StockPage) Save(ticker string) error {
	err := p.watchlist.Save(ticker)
	p.RefreshSaved(ticker)
	return err
}

// Delete removes ticker from the watchlist.
func (p *StockPage) Delete(ticker string) error {
	err := p.watchlist.Remove(ticker)
	p.RefreshSaved(ticker)
	return err
}
