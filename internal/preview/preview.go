// Package preview holds the static data shown when the API is unreachable.
// Every function returns a fresh copy.
package preview

import (
	"time"

	"github.com/user-dev-arch/MarketSentimentApp/internal/jsoncoding"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
)

func TopMovers() []models.TopMover {
	return []models.TopMover{
		{Ticker: "AMD", Change: "7.19", CurrentPrice: "132.89"},
		{Ticker: "NVDA", Change: "4.22", CurrentPrice: "140.15"},
		{Ticker: "TSLA", Change: "-3.27", CurrentPrice: "242.84"},
	}
}

func NewsBuzz() []models.NewsBuzz {
	return []models.NewsBuzz{
		{Ticker: "TSLA", Score: "0.980000", CompanyFullName: "Tesla Inc."},
		{Ticker: "GOOGL", Score: "0.940000", CompanyFullName: "Alphabet Inc."},
		{Ticker: "AMD", Score: "0.910000", CompanyFullName: "Advanced Micro Devices Inc."},
	}
}

func SentimentMovers() []models.SentimentMover {
	return []models.SentimentMover{
		{Ticker: "TSLA", Change: -42, SentimentScore: -35},
		{Ticker: "AMD", Change: 35, SentimentScore: 76},
		{Ticker: "META", Change: 28, SentimentScore: 55},
	}
}

func Stocks() []models.Stock {
	score := func(v int) *int { return &v }
	return []models.Stock{
		{Ticker: "AAPL", CompanyFullName: "Apple Inc.", ChangeInDay: "1.24", CurrentPrice: "195.32", SentimentScore: score(78)},
		{Ticker: "TSLA", CompanyFullName: "Tesla Inc.", ChangeInDay: "-2.87", CurrentPrice: "239.54", SentimentScore: score(55)},
		{Ticker: "AMZN", CompanyFullName: "Amazon.com Inc.", ChangeInDay: "0.98", CurrentPrice: "177.62", SentimentScore: score(82)},
		{Ticker: "GOOGL", CompanyFullName: "Alphabet Inc.", ChangeInDay: "2.11", CurrentPrice: "142.11", SentimentScore: score(73)},
		{Ticker: "MSFT", CompanyFullName: "Microsoft Corporation", ChangeInDay: "0.57", CurrentPrice: "415.67", SentimentScore: score(88)},
	}
}

func News() []models.News {
	now := time.Now().UTC()
	str := func(s string) *string { return &s }
	return []models.News{
		{
			ID:        "7f7c2f1e-3d4b-4f39-9d2e-1a0c7b9e5a01",
			Ticker:    "AAPL",
			Title:     "Apple Unveils New MacBook Lineup",
			Content:   "Apple has introduced a new line of MacBook devices focused on performance and battery efficiency.",
			Source:    "Bloomberg",
			Author:    str("Jane Doe"),
			Sentiment: str(string(models.SentimentBearish)),
			Date:      jsoncoding.Time{Time: now},
			Link:      "https://example.com/apple-macbook-news",
		},
		{
			ID:      "0b6a4c55-8f0e-4a8e-b0a7-5c2f6e2d9b02",
			Ticker:  "TSLA",
			Title:   "Tesla Expands Gigafactory Production",
			Content: "Tesla announces expansion plans for their Gigafactory to increase EV production capacity.",
			Source:  "Reuters",
			Author:  str("John Smith"),
			Date:    jsoncoding.Time{Time: now.Add(-5 * time.Hour)},
			Link:    "https://example.com/tesla-gigafactory-update",
		},
		{
			ID:        "c3e1d7a9-2b64-4c0f-8e55-9f1a2d3b4c03",
			Ticker:    "AMZN",
			Title:     "Amazon Launches New Delivery Drones",
			Content:   "Amazon is rolling out autonomous drones across key cities to improve delivery efficiency.",
			Source:    "TechCrunch",
			Author:    str("Emily Carter"),
			Sentiment: str(string(models.SentimentBullish)),
			Date:      jsoncoding.Time{Time: now.AddDate(0, 0, -1)},
			Link:      "https://example.com/amazon-drone-news",
		},
		{
			ID:        "e9d8c7b6-a5f4-4e3d-a2c1-b0a9f8e7d604",
			Ticker:    "MSFT",
			Title:     "Microsoft Announces AI Cloud Tools",
			Content:   "Microsoft expands its AI cloud portfolio with new developer tools and enterprise services.",
			Source:    "The Verge",
			Author:    str("Michael Lee"),
			Sentiment: str(string(models.SentimentNeutral)),
			Date:      jsoncoding.Time{Time: now.AddDate(0, 0, -2)},
			Link:      "https://example.com/microsoft-ai-tools",
		},
	}
}

func StockDetails() models.StockDetails {
	return models.StockDetails{
		CompanyFullName: "Apple Inc.",
		Price:           128.90,
		ChangeInDay:     -8.0,
		MarketCap:       "$3.65T",
		Volume:          "$847.00K",
		NewsBuzz:        "0.920000",
		PricesHistory:   []float64{127, 126, 129, 130, 140, 128, 124, 123, 123, 140},
		NewsSentiment:   models.SentimentCard{Bullish: 110, Bearish: 10, Neutral: 23},
		RecentNews:      News(),
	}
}
