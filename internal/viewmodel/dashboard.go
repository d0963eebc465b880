package viewmodel

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/user-dev-arch/MarketSentimentApp/internal/client"
	"github.com/user-dev-arch/MarketSentimentApp/internal/endpoint"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/preview"
)

// Row counts requested by the dashboard.
const (
	DashboardLimit = 3
	StocksLimit    = 100
)

// DashboardState is the dashboard screen content.
type DashboardState struct {
	TopMovers       []models.TopMover
	NewsBuzz        []models.NewsBuzz
	SentimentMovers []models.SentimentMover
	Stocks          []models.Stock
	// Fallback is true when any list holds preview data.
	Fallback bool
}

// Dashboard loads the dashboard lists.
type Dashboard struct {
	observable[DashboardState]
	fetcher client.Fetcher
	log     zerolog.Logger
}

func NewDashboard(f client.Fetcher) *Dashboard {
	return &Dashboard{fetcher: f, log: componentLogger("dashboard")}
}

// LoadTopMovers fetches the top movers. On error the preview list is used
// and the error returned.
func (d *Dashboard) LoadTopMovers(ctx context.Context) error {
	movers, err := client.Fetch[[]models.TopMover](ctx, d.fetcher, endpoint.TopMovers(endpoint.Int(DashboardLimit)))
	if err != nil {
		d.log.Warn().Err(err).Msg("LoadTopMovers")
		movers = preview.TopMovers()
	}
	d.update(func(s *DashboardState) {
		s.TopMovers = movers
		s.Fallback = s.Fallback || err != nil
	})
	return err
}

// LoadNewsBuzz fetches the news buzz ranking.
func (d *Dashboard) LoadNewsBuzz(ctx context.Context) error {
	buzz, err := client.Fetch[[]models.NewsBuzz](ctx, d.fetcher, endpoint.NewsBuzz(endpoint.Int(DashboardLimit)))
	if err != nil {
		d.log.Warn().Err(err).Msg("LoadNewsBuzz")
		buzz = preview.NewsBuzz()
	}
	d.update(func(s *DashboardState) {
		s.NewsBuzz = buzz
		s.Fallback = s.Fallback || err != nil
	})
	return err
}

// LoadSentimentMovers fetches the sentiment movers.
func (d *Dashboard) LoadSentimentMovers(ctx context.Context) error {
	movers, err := client.Fetch[[]models.SentimentMover](ctx, d.fetcher, endpoint.SentimentMovers(endpoint.Int(DashboardLimit)))
	if err != nil {
		d.log.Warn().Err(err).Msg("LoadSentimentMovers")
		movers = preview.SentimentMovers()
	}
	d.update(func(s *DashboardState) {
		s.SentimentMovers = movers
		s.Fallback = s.Fallback || err != nil
	})
	return err
}

// LoadStocks fetches the stock list.
func (d *Dashboard) LoadStocks(ctx context.Context) error {
	stocks, err := client.Fetch[[]models.Stock](ctx, d.fetcher, endpoint.Stocks(endpoint.Int(StocksLimit)))
	if err != nil {
		d.log.Warn().Err(err).Msg("LoadStocks")
		stocks = preview.Stocks()
	}
	d.update(func(s *DashboardState) {
		s.Stocks = stocks
		s.Fallback = s.Fallback || err != nil
	})
	return err
}

// LoadAll runs every load concurrently and waits for all of them. The
// first error is returned; every field is populated either way.
func (d *Dashboard) LoadAll(ctx context.Context) error {
	d.update(func(s *DashboardState) { s.Fallback = false })

	var g errgroup.Group
	g.Go(func() error { return d.LoadTopMovers(ctx) })
	g.Go(func() error { return d.LoadNewsBuzz(ctx) })
	g.Go(func() error { return d.LoadSentimentMovers(ctx) })
	g.Go(func() error { return d.LoadStocks(ctx) })
	return g.Wait()
}
