package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
)

// AlphaVantageBaseURL is the Alpha Vantage query endpoint.
const AlphaVantageBaseURL = "https://www.alphavantage.co/query"

// Alpha Vantage overall sentiment scores beyond these bounds are labelled.
const (
	avBullishAbove = 0.35
	avBearishBelow = -0.35
)

// avStatus carries the error fields Alpha Vantage returns with status 200.
type avStatus struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

func (s avStatus) err() error {
	switch {
	case s.ErrorMessage != "":
		return fmt.Errorf("alpha vantage: %s", s.ErrorMessage)
	case s.Note != "":
		return fmt.Errorf("alpha vantage rate limit: %s", s.Note)
	case s.Information != "":
		return fmt.Errorf("alpha vantage: %s", s.Information)
	}
	return nil
}

type avGlobalQuote struct {
	avStatus
	Quote *struct {
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

type avDaily struct {
	avStatus
	Series map[string]struct {
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	} `json:"Time Series (Daily)"`
}

type avNews struct {
	avStatus
	Feed []struct {
		Title         string      `json:"title"`
		URL           string      `json:"url"`
		TimePublished string      `json:"time_published"`
		Summary       string      `json:"summary"`
		Source        string      `json:"source"`
		Authors       []string    `json:"authors"`
		Score         json.Number `json:"overall_sentiment_score"`
	} `json:"feed"`
}

// AlphaVantage provides quotes, daily history and scored news. It needs an API key.
type AlphaVantage struct {
	t   *transport
	key string
	now func() time.Time
}

// NewAlphaVantage creates the provider. An empty baseURL uses AlphaVantageBaseURL.
func NewAlphaVantage(baseURL, apiKey string, opts TransportOptions) *AlphaVantage {
	if baseURL == "" {
		baseURL = AlphaVantageBaseURL
	}
	return &AlphaVantage{t: newTransport("alphavantage", baseURL, opts), key: apiKey, now: time.Now}
}

func (a *AlphaVantage) Name() string { return "Alpha Vantage" }

func (a *AlphaVantage) query(ctx context.Context, params map[string]string, out any) error {
	params["apikey"] = a.key
	return a.t.getJSON(ctx, "", params, out)
}

// Quote uses GLOBAL_QUOTE.
func (a *AlphaVantage) Quote(ctx context.Context, ticker string) (*Quote, error) {
	var resp avGlobalQuote
	if err := a.query(ctx, map[string]string{"function": "GLOBAL_QUOTE", "symbol": ticker}, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	if resp.Quote == nil {
		return nil, fmt.Errorf("alpha vantage: %s: no quote data: %w", ticker, ErrNoData)
	}
	price, err := decimal.NewFromString(resp.Quote.Price)
	if err != nil || !price.IsPositive() {
		return nil, fmt.Errorf("alpha vantage: %s: no price data in quote: %w", ticker, ErrNoData)
	}
	q := &Quote{Ticker: ticker, Price: price}
	if d, err := decimal.NewFromString(resp.Quote.Change); err == nil {
		q.Change = d
	}
	if d, err := decimal.NewFromString(strings.TrimSuffix(resp.Quote.ChangePercent, "%")); err == nil {
		q.ChangePercent = d
	}
	if v, err := strconv.ParseInt(resp.Quote.Volume, 10, 64); err == nil {
		q.Volume = &v
	}
	return q, nil
}

// History uses TIME_SERIES_DAILY and keeps closes dated within days of today.
func (a *AlphaVantage) History(ctx context.Context, ticker string, days int) ([]Bar, error) {
	if days <= 0 {
		days = 30
	}
	size := "compact"
	if days > 100 {
		size = "full"
	}
	var resp avDaily
	if err := a.query(ctx, map[string]string{"function": "TIME_SERIES_DAILY", "symbol": ticker, "outputsize": size}, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	start := truncateDay(a.now().UTC()).AddDate(0, 0, -days)
	bars := make([]Bar, 0, days)
	for day, v := range resp.Series {
		date, err := time.Parse("2006-01-02", day)
		if err != nil || date.Before(start) {
			continue
		}
		closeVal, err := decimal.NewFromString(v.Close)
		if err != nil {
			continue
		}
		vol, _ := strconv.ParseInt(v.Volume, 10, 64)
		bars = append(bars, Bar{Date: date, Close: closeVal, Volume: vol})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// News uses NEWS_SENTIMENT. Articles are labelled from the overall sentiment score.
func (a *AlphaVantage) News(ctx context.Context, ticker string, limit int, _ models.NewsTimePeriod) ([]Article, error) {
	var resp avNews
	params := map[string]string{"function": "NEWS_SENTIMENT", "tickers": ticker}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	if err := a.query(ctx, params, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	out := make([]Article, 0, len(resp.Feed))
	for _, item := range resp.Feed {
		date, err := time.Parse("20060102T150405", item.TimePublished)
		if err != nil {
			date = a.now().UTC()
		}
		score, _ := item.Score.Float64()
		label := scoreLabel(score)
		art := Article{
			Ticker:    ticker,
			Title:     item.Title,
			Content:   item.Summary,
			Source:    orUnknown(item.Source),
			Date:      date,
			Link:      item.URL,
			Sentiment: &label,
		}
		if len(item.Authors) > 0 {
			author := strings.Join(item.Authors, ", ")
			art.Author = &author
		}
		out = append(out, art)
	}
	return out, nil
}

func scoreLabel(score float64) models.Sentiment {
	switch {
	case score > avBullishAbove:
		return models.SentimentBullish
	case score < avBearishBelow:
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
