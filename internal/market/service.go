// Package market computes the market sentiment API responses from the
// server database and upstream providers.
package market

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/user-dev-arch/MarketSentimentApp/internal/marketdata"
	"github.com/user-dev-arch/MarketSentimentApp/internal/sentiment"
	"github.com/user-dev-arch/MarketSentimentApp/internal/store"
)

var (
	// ErrInvalidTicker is returned when a ticker is missing.
	ErrInvalidTicker = errors.New("ticker is required")
	// ErrInvalidID is returned for a malformed article ID.
	ErrInvalidID = errors.New("invalid article id")
	// ErrInvalidSentiment is returned for an unknown sentiment filter.
	ErrInvalidSentiment = errors.New("sentiment must be Bullish, Bearish or Neutral")
	// ErrNotFound is returned when an article does not exist.
	ErrNotFound = errors.New("news article not found")
)

// Default list sizes per endpoint.
const (
	DefaultMoversLimit = 10
	DefaultStocksLimit = 50
	DefaultNewsLimit   = 20

	// DefaultQuoteTTL is how long a stored quote is served without refreshing.
	DefaultQuoteTTL = time.Hour
	// DefaultConcurrency bounds parallel upstream quote refreshes.
	DefaultConcurrency = 5

	historyDays     = 30
	recentNewsLimit = 10
	maxNewsTickers  = 3
	maxBuzz         = 0.999999
)

// NewsSource fetches articles for a ticker from upstream.
type NewsSource interface {
	Fetch(ctx context.Context, ticker string, q marketdata.NewsQuery) ([]marketdata.Article, error)
}

// Options tunes the service.
type Options struct {
	QuoteTTL    time.Duration
	Concurrency int
}

// Service answers the market API.
type Service struct {
	db       *store.DB
	quotes   marketdata.QuoteProvider
	news     NewsSource
	analyzer sentiment.Analyzer

	quoteTTL    time.Duration
	concurrency int
	now         func() time.Time
	log         zerolog.Logger
}

// New creates the service. news may be nil to disable upstream news.
func New(db *store.DB, quotes marketdata.QuoteProvider, news NewsSource, analyzer sentiment.Analyzer, opts Options) *Service {
	if opts.QuoteTTL <= 0 {
		opts.QuoteTTL = DefaultQuoteTTL
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if analyzer == nil {
		analyzer = sentiment.NewLexicon()
	}
	return &Service{
		db:          db,
		quotes:      quotes,
		news:        news,
		analyzer:    analyzer,
		quoteTTL:    opts.QuoteTTL,
		concurrency: opts.Concurrency,
		now:         time.Now,
		log:         log.With().Str("component", "market").Logger(),
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// DB returns the underlying store.
func (s *Service) DB() *store.DB {
	return s.db
}

// Quotes returns the quote provider.
func (s *Service) Quotes() marketdata.QuoteProvider {
	return s.quotes
}

// NewsSource returns the upstream news source, which may be nil.
func (s *Service) NewsSource() NewsSource {
	return s.news
}

// Analyzer returns the sentiment classifier.
func (s *Service) Analyzer() sentiment.Analyzer {
	return s.analyzer
}

// today is the start of the current UTC day.
func (s *Service) today() time.Time {
	n := s.now().UTC()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

var zeroTime time.Time

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
