package market

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/user-dev-arch/MarketSentimentApp/internal/marketdata"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/store"
)

// NewsQuery is the /news filter as received.
type NewsQuery struct {
	Limit     int
	Sentiment string
	Stocks    string
	Period    models.NewsTimePeriod
}

// ParseTickers splits a comma separated list, trimming and upper-casing
// each entry and dropping empties.
func ParseTickers(list string) []string {
	var out []string
	for _, t := range strings.Split(list, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// News returns stored articles in the period, newest first. When fewer
// than the limit are stored and tickers were given, up to three tickers
// are fetched from the news source and saved before querying again.
func (s *Service) News(ctx context.Context, q NewsQuery) ([]NewsItem, error) {
	limit := orDefault(q.Limit, DefaultNewsLimit)

	var label *models.Sentiment
	if q.Sentiment != "" {
		l, ok := models.NormalizeSentiment(q.Sentiment)
		if !ok {
			return nil, ErrInvalidSentiment
		}
		label = &l
	}

	tickers := ParseTickers(q.Stocks)
	filter := store.NewsFilter{
		Since:   s.now().AddDate(0, 0, -q.Period.Days()),
		Tickers: tickers,
		Limit:   limit,
	}
	if label != nil {
		filter.Sentiment = string(*label)
	}

	count, err := s.db.CountNews(filter)
	if err != nil {
		return nil, err
	}
	if count < limit && len(tickers) > 0 && s.news != nil {
		perTicker := max(1, limit/len(tickers))
		for _, t := range tickers[:min(len(tickers), maxNewsTickers)] {
			arts, err := s.news.Fetch(ctx, t, marketdata.NewsQuery{Limit: perTicker, Sentiment: label, Period: q.Period})
			if err != nil {
				s.log.Warn().Err(err).Str("ticker", t).Msg("upstream news")
				continue
			}
			if _, err := s.SaveArticles(arts); err != nil {
				return nil, err
			}
		}
	}

	list, err := s.db.ListNews(filter)
	if err != nil {
		return nil, err
	}
	return newsItems(list), nil
}

// SaveArticles upserts provider articles by link and returns how many
// were new. An article carrying a label is stored as analysed.
func (s *Service) SaveArticles(arts []marketdata.Article) (int, error) {
	created := 0
	for _, a := range arts {
		n := &store.News{
			Ticker:  a.Ticker,
			Title:   a.Title,
			Content: a.Content,
			Source:  a.Source,
			Author:  a.Author,
			Date:    a.Date,
			Link:    a.Link,
		}
		if a.Sentiment != nil {
			label := string(*a.Sentiment)
			n.Sentiment = &label
			n.SentimentAnalyzed = true
		}
		ok, err := s.db.UpsertNews(n)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// NewsBuzz ranks tickers by article count in the period. The score is
// count/max(maxCount, 10) capped below one.
func (s *Service) NewsBuzz(ctx context.Context, limit int, period models.NewsTimePeriod) ([]models.NewsBuzz, error) {
	limit = orDefault(limit, DefaultMoversLimit)
	counts, err := s.db.CountNewsByTicker(s.now().AddDate(0, 0, -period.Days()))
	if err != nil {
		return nil, err
	}
	stocks, err := s.db.ListStocks(0)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(stocks))
	for _, st := range stocks {
		names[st.Ticker] = st.CompanyFullName
	}

	maxCount := 0
	for _, c := range counts {
		maxCount = max(maxCount, c.Count)
	}
	denom := math.Max(float64(maxCount), 10)

	out := make([]models.NewsBuzz, 0, min(len(counts), limit))
	for _, c := range counts {
		if len(out) == limit {
			break
		}
		score := math.Min(float64(c.Count)/denom, maxBuzz)
		name := names[c.Ticker]
		if name == "" {
			name = marketdata.PlaceholderName(c.Ticker)
		}
		out = append(out, models.NewsBuzz{
			Ticker:          c.Ticker,
			Score:           decimal.NewFromFloat(score).StringFixed(6),
			CompanyFullName: name,
		})
	}
	return out, nil
}

// Sentiment returns the label of an article, classifying and storing it
// on first request.
func (s *Service) Sentiment(ctx context.Context, id string) (models.Sentiment, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrInvalidID
	}
	n, err := s.db.GetNews(parsed.String())
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if n.SentimentAnalyzed && n.Sentiment != nil {
		return models.Sentiment(*n.Sentiment), nil
	}

	label := s.Classify(n)
	if err := s.db.SetNewsSentiment(n.ID, string(label)); err != nil {
		return "", err
	}
	return label, nil
}

// Classify runs the analyzer over an article's title and content.
func (s *Service) Classify(n *store.News) models.Sentiment {
	return s.analyzer.Analyze(strings.TrimSpace(n.Title + " " + n.Content))
}
