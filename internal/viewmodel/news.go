package viewmodel

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/user-dev-arch/MarketSentimentApp/internal/client"
	"github.com/user-dev-arch/MarketSentimentApp/internal/endpoint"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/preview"
)

// NewsLimit is the default number of articles requested.
const NewsLimit = 100

// NewsState is the news screen content and its filters.
type NewsState struct {
	SelectedSentiment *models.SentimentScore
	SelectedStock     *models.Stock
	TimePeriod        models.NewsTimePeriod
	Stocks            []models.Stock
	News              []models.News
	Fallback          bool
}

// News loads articles for the current filter. Changing a filter reloads.
type News struct {
	observable[NewsState]
	fetcher client.Fetcher
	limit   int
	log     zerolog.Logger
}

// NewNews creates the model with the 24h period selected. A limit <= 0
// means NewsLimit.
func NewNews(f client.Fetcher, limit int) *News {
	if limit <= 0 {
		limit = NewsLimit
	}
	n := &News{fetcher: f, limit: limit, log: componentLogger("news")}
	n.state.TimePeriod = models.Period24h
	return n
}

// SetSentiment changes the sentiment filter and reloads. nil clears it.
func (n *News) SetSentiment(ctx context.Context, score *models.SentimentScore) error {
	n.update(func(s *NewsState) { s.SelectedSentiment = score })
	return n.LoadNews(ctx)
}

// SetStock changes the stock filter and reloads. nil clears it.
func (n *News) SetStock(ctx context.Context, stock *models.Stock) error {
	n.update(func(s *NewsState) { s.SelectedStock = stock })
	return n.LoadNews(ctx)
}

// SetTimePeriod changes the period and reloads.
func (n *News) SetTimePeriod(ctx context.Context, p models.NewsTimePeriod) error {
	n.update(func(s *NewsState) { s.TimePeriod = p })
	return n.LoadNews(ctx)
}

// SetFilter replaces all filters without reloading.
func (n *News) SetFilter(score *models.SentimentScore, stock *models.Stock, p models.NewsTimePeriod) {
	n.update(func(s *NewsState) {
		s.SelectedSentiment = score
		s.SelectedStock = stock
		if p != "" {
			s.TimePeriod = p
		}
	})
}

// LoadStocks fetches the stocks offered as filter choices.
func (n *News) LoadStocks(ctx context.Context) error {
	stocks, err := client.Fetch[[]models.Stock](ctx, n.fetcher, endpoint.Stocks(endpoint.Int(StocksLimit)))
	if err != nil {
		n.log.Warn().Err(err).Msg("LoadStocks")
		stocks = preview.Stocks()
	}
	n.update(func(s *NewsState) { s.Stocks = stocks })
	return err
}

// LoadNews fetches articles matching the current filter.
func (n *News) LoadNews(ctx context.Context) error {
	n.mu.Lock()
	ep := n.endpointLocked()
	n.mu.Unlock()

	news, err := client.Fetch[[]models.News](ctx, n.fetcher, ep)
	if err != nil {
		n.log.Warn().Err(err).Msg("LoadNews")
		news = preview.News()
	}
	n.update(func(s *NewsState) {
		s.News = news
		s.Fallback = err != nil
	})
	return err
}

func (n *News) endpointLocked() endpoint.Endpoint {
	var sentiment *models.Sentiment
	if n.state.SelectedSentiment != nil {
		label := n.state.SelectedSentiment.Sentiment()
		sentiment = &label
	}
	var stocks *string
	if n.state.SelectedStock != nil {
		ticker := n.state.SelectedStock.Ticker
		stocks = &ticker
	}
	return endpoint.News(endpoint.Int(n.limit), sentiment, stocks, n.state.TimePeriod)
}
