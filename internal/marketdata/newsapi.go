package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
)

// NewsAPIBaseURL is the NewsAPI v2 endpoint.
const NewsAPIBaseURL = "https://newsapi.org/v2"

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      *string `json:"author"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Content     string  `json:"content"`
		URL         string  `json:"url"`
		PublishedAt string  `json:"publishedAt"`
	} `json:"articles"`
}

// NewsAPI searches newsapi.org for articles mentioning a ticker. Articles
// come back unlabelled.
type NewsAPI struct {
	t   *transport
	key string
	now func() time.Time
}

// NewNewsAPI creates the provider. An empty baseURL uses NewsAPIBaseURL.
func NewNewsAPI(baseURL, apiKey string, opts TransportOptions) *NewsAPI {
	if baseURL == "" {
		baseURL = NewsAPIBaseURL
	}
	return &NewsAPI{t: newTransport("newsapi", baseURL, opts), key: apiKey, now: time.Now}
}

func (n *NewsAPI) Name() string { return "NewsAPI" }

// News queries /everything over the period, newest first.
func (n *NewsAPI) News(ctx context.Context, ticker string, limit int, period models.NewsTimePeriod) ([]Article, error) {
	to := n.now().UTC()
	from := to.AddDate(0, 0, -period.Days())
	if limit <= 0 {
		limit = 10
	}

	var resp newsAPIResponse
	err := n.t.getJSON(ctx, "/everything", map[string]string{
		"q":        ticker,
		"language": "en",
		"sortBy":   "publishedAt",
		"pageSize": strconv.Itoa(limit),
		"from":     from.Format("2006-01-02"),
		"to":       to.Format("2006-01-02"),
		"apiKey":   n.key,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("newsapi: %s: %s", resp.Code, resp.Message)
	}

	out := make([]Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		date, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			date = to
		}
		content := a.Description
		if content == "" {
			content = a.Content
		}
		out = append(out, Article{
			Ticker:  ticker,
			Title:   a.Title,
			Content: content,
			Source:  orUnknown(a.Source.Name),
			Author:  a.Author,
			Date:    date.UTC(),
			Link:    a.URL,
		})
	}
	return out, nil
}
