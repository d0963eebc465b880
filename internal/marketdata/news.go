package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
)

// Article is a news item returned by a provider.
type Article struct {
	Ticker    string
	Title     string
	Content   string
	Source    string
	Author    *string
	Date      time.Time
	Link      string
	Sentiment *models.Sentiment
}

// NewsProvider returns recent articles about a ticker.
type NewsProvider interface {
	Name() string
	News(ctx context.Context, ticker string, limit int, period models.NewsTimePeriod) ([]Article, error)
}

// NewsQuery narrows a Fetch.
type NewsQuery struct {
	Limit     int
	Sentiment *models.Sentiment
	Period    models.NewsTimePeriod
}

// NewsAggregator merges articles from several providers.
type NewsAggregator struct {
	providers []NewsProvider
	log       zerolog.Logger
}

// NewNewsAggregator combines providers in priority order.
func NewNewsAggregator(providers ...NewsProvider) *NewsAggregator {
	return &NewsAggregator{
		providers: providers,
		log:       log.With().Str("component", "marketdata").Logger(),
	}
}

// Providers returns the names of the configured providers.
func (a *NewsAggregator) Providers() []string {
	names := make([]string, len(a.providers))
	for i, p := range a.providers {
		names[i] = p.Name()
	}
	return names
}

// Fetch queries every provider, keeps articles matching the sentiment
// filter, drops repeated titles and articles without a link, and truncates
// to the limit. A provider failure is logged and skipped; the error is
// returned only when every provider failed.
func (a *NewsAggregator) Fetch(ctx context.Context, ticker string, q NewsQuery) ([]Article, error) {
	if len(a.providers) == 0 {
		return nil, nil
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	var all []Article
	var errs []error
	for _, p := range a.providers {
		arts, err := p.News(ctx, ticker, q.Limit, q.Period)
		if err != nil {
			a.log.Warn().Err(err).Str("provider", p.Name()).Str("ticker", ticker).Msg("news fetch failed")
			errs = append(errs, err)
			continue
		}
		all = append(all, arts...)
	}
	if len(errs) > 0 && len(errs) == len(a.providers) {
		return nil, errors.Join(errs...)
	}

	seen := make(map[string]bool, len(all))
	out := make([]Article, 0, q.Limit)
	for _, art := range all {
		if q.Sentiment != nil && (art.Sentiment == nil || *art.Sentiment != *q.Sentiment) {
			continue
		}
		if art.Link == "" || seen[art.Title] {
			continue
		}
		seen[art.Title] = true
		out = append(out, art)
		if len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}
