package market

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/user-dev-arch/MarketSentimentApp/internal/jsoncoding"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/store"
)

// StockItem is a /stocks row. Price fields are null until first quoted.
type StockItem struct {
	Ticker          string  `json:"ticker"`
	CompanyFullName string  `json:"companyFullName"`
	ChangeInDay     *string `json:"changeInDay"`
	CurrentPrice    *string `json:"currentPrice"`
	SentimentScore  *int    `json:"sentimentScore"`
}

// NewsItem is an article as served, with its analysis flag.
type NewsItem struct {
	models.News
	SentimentAnalyzed bool `json:"sentimentAnalyzed"`
}

// StockDetails is the /stock-details response.
type StockDetails struct {
	models.StockDetails
	RecentNews []NewsItem `json:"recentNews"`
}

func fixed2(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(2)
	return &s
}

func stockItem(s *store.Stock) StockItem {
	return StockItem{
		Ticker:          s.Ticker,
		CompanyFullName: s.CompanyFullName,
		ChangeInDay:     fixed2(s.ChangeInDay),
		CurrentPrice:    fixed2(s.CurrentPrice),
		SentimentScore:  s.SentimentScore,
	}
}

func newsItem(n *store.News) NewsItem {
	return NewsItem{
		News: models.News{
			ID:        n.ID,
			Ticker:    n.Ticker,
			Title:     n.Title,
			Content:   n.Content,
			Source:    n.Source,
			Author:    n.Author,
			Sentiment: n.Sentiment,
			Date:      jsoncoding.Time{Time: n.Date},
			Link:      n.Link,
		},
		SentimentAnalyzed: n.SentimentAnalyzed,
	}
}

func newsItems(list []*store.News) []NewsItem {
	out := make([]NewsItem, 0, len(list))
	for _, n := range list {
		out = append(out, newsItem(n))
	}
	return out
}

// FormatNumber renders a market cap or volume as $1.23T/B/M/K, or "N/A"
// when absent or zero.
func FormatNumber(n *int64) string {
	if n == nil || *n == 0 {
		return "N/A"
	}
	v := float64(*n)
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("$%.2fK", v/1e3)
	}
	return fmt.Sprintf("$%d", *n)
}
