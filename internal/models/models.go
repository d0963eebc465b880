// Package models defines the market sentiment API types shared by the client
// and the server.
package models

import (
	"strconv"
	"strings"

	"github.com/user-dev-arch/MarketSentimentApp/internal/jsoncoding"
)

// Sentiment is a news sentiment label
type Sentiment string

const (
	SentimentBullish Sentiment = "Bullish"
	SentimentBearish Sentiment = "Bearish"
	SentimentNeutral Sentiment = "Neutral"
)

// AllSentiments lists the labels in score order.
var AllSentiments = []Sentiment{SentimentBearish, SentimentNeutral, SentimentBullish}

// IsValidSentiment checks if s is one of the three labels
func IsValidSentiment(s Sentiment) bool {
	switch s {
	case SentimentBullish, SentimentBearish, SentimentNeutral:
		return true
	}
	return false
}

// NormalizeSentiment maps case-insensitive input to a label. ok is false for
// anything else.
func NormalizeSentiment(s string) (Sentiment, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bullish", "positive":
		return SentimentBullish, true
	case "bearish", "negative":
		return SentimentBearish, true
	case "neutral":
		return SentimentNeutral, true
	}
	return "", false
}

// Score returns the numeric score for the label.
func (s Sentiment) Score() SentimentScore {
	switch s {
	case SentimentBearish:
		return ScoreBearish
	case SentimentBullish:
		return ScoreBullish
	default:
		return ScoreNeutral
	}
}

// SentimentScore is the numeric sentiment used by filters and movers.
type SentimentScore int

const (
	ScoreBearish SentimentScore = 0
	ScoreNeutral SentimentScore = 1
	ScoreBullish SentimentScore = 2
)

// Sentiment returns the label for the score. Unknown scores are neutral.
func (s SentimentScore) Sentiment() Sentiment {
	switch s {
	case ScoreBearish:
		return SentimentBearish
	case ScoreBullish:
		return SentimentBullish
	default:
		return SentimentNeutral
	}
}

func (s SentimentScore) String() string {
	return string(s.Sentiment())
}

// ParseSentimentScore accepts a label or a number 0-2.
func ParseSentimentScore(s string) (SentimentScore, bool) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		if n < 0 || n > 2 {
			return 0, false
		}
		return SentimentScore(n), true
	}
	label, ok := NormalizeSentiment(s)
	if !ok {
		return 0, false
	}
	return label.Score(), true
}

// NewsTimePeriod is the window used for news queries
type NewsTimePeriod string

const (
	Period24h NewsTimePeriod = "24h"
	Period1d  NewsTimePeriod = "1d"
	Period7d  NewsTimePeriod = "7d"
	Period30d NewsTimePeriod = "30d"
)

// ClientPeriods are the choices offered by the news filter.
var ClientPeriods = []NewsTimePeriod{Period24h, Period7d}

// Days returns the window length. Unknown periods are seven days.
func (p NewsTimePeriod) Days() int {
	switch p {
	case Period24h, Period1d:
		return 1
	case Period30d:
		return 30
	default:
		return 7
	}
}

// IsValidPeriod reports whether p is a known period.
func IsValidPeriod(p NewsTimePeriod) bool {
	switch p {
	case Period24h, Period1d, Period7d, Period30d:
		return true
	}
	return false
}

// TopMover is a stock with the largest absolute price move of the day.
type TopMover struct {
	Ticker       string `json:"ticker"`
	Change       string `json:"change"`
	CurrentPrice string `json:"currentPrice"`
}

// ChangeValue parses the decimal change.
func (m TopMover) ChangeValue() float64 {
	return parseDecimal(m.Change)
}

// PriceValue parses the decimal price.
func (m TopMover) PriceValue() float64 {
	return parseDecimal(m.CurrentPrice)
}

// NewsBuzz is a stock ranked by news volume.
type NewsBuzz struct {
	Ticker          string `json:"ticker"`
	Score           string `json:"score"`
	CompanyFullName string `json:"companyFullName"`
}

// ScoreValue parses the buzz score.
func (b NewsBuzz) ScoreValue() float64 {
	return parseDecimal(b.Score)
}

// SentimentMover is a stock whose news sentiment shifted the most.
type SentimentMover struct {
	Ticker         string  `json:"ticker"`
	Change         float64 `json:"change"`
	SentimentScore int     `json:"sentimentScore"`
}

// SentimentValue maps the score to a label: 0 bearish, 2 bullish,
// anything else neutral.
func (m SentimentMover) SentimentValue() Sentiment {
	return SentimentScore(m.SentimentScore).Sentiment()
}

// Stock is a tracked ticker with its latest quote.
type Stock struct {
	Ticker          string `json:"ticker"`
	CompanyFullName string `json:"companyFullName"`
	ChangeInDay     string `json:"changeInDay"`
	CurrentPrice    string `json:"currentPrice"`
	SentimentScore  *int   `json:"sentimentScore"`
}

// ChangeValue parses the daily change percentage.
func (s Stock) ChangeValue() float64 {
	return parseDecimal(s.ChangeInDay)
}

// PriceValue parses the current price.
func (s Stock) PriceValue() float64 {
	return parseDecimal(s.CurrentPrice)
}

// News is a news article about a ticker.
type News struct {
	ID        string          `json:"id"`
	Ticker    string          `json:"ticker"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Source    string          `json:"source"`
	Author    *string         `json:"author"`
	Sentiment *string         `json:"sentiment"`
	Date      jsoncoding.Time `json:"date"`
	Link      string          `json:"link"`
}

// SentimentLabel returns the article sentiment, or "" when not analysed.
func (n News) SentimentLabel() Sentiment {
	if n.Sentiment == nil {
		return ""
	}
	return Sentiment(*n.Sentiment)
}

// SentimentReport is the payload of the per-article sentiment endpoint.
type SentimentReport struct {
	Sentiment string `json:"sentiment"`
}

// SentimentEnvelope wraps a SentimentReport in a data object.
type SentimentEnvelope struct {
	Data SentimentReport `json:"data"`
}

// SentimentCard counts analysed articles per label.
type SentimentCard struct {
	Bullish int `json:"bullish"`
	Bearish int `json:"bearish"`
	Neutral int `json:"neutral"`
}

// Total returns the number of analysed articles.
func (c SentimentCard) Total() int {
	return c.Bullish + c.Bearish + c.Neutral
}

// Fractions returns the bullish, neutral and bearish shares. All zero when
// nothing was analysed.
func (c SentimentCard) Fractions() (bullish, neutral, bearish float64) {
	total := c.Total()
	if total == 0 {
		return 0, 0, 0
	}
	t := float64(total)
	return float64(c.Bullish) / t, float64(c.Neutral) / t, float64(c.Bearish) / t
}

// StockDetails is the detail page payload for a single ticker.
type StockDetails struct {
	CompanyFullName string        `json:"companyFullName"`
	Price           float64       `json:"price"`
	ChangeInDay     float64       `json:"changeInDay"`
	MarketCap       string        `json:"marketCap"`
	Volume          string        `json:"volume"`
	NewsBuzz        string        `json:"newsBuzz"`
	PricesHistory   []float64     `json:"pricesHistory"`
	NewsSentiment   SentimentCard `json:"newsSentiment"`
	RecentNews      []News        `json:"recentNews"`
}

// IsUp reports whether the daily change is non-negative.
func (d StockDetails) IsUp() bool {
	return d.ChangeInDay >= 0
}

// NewsBuzzValue parses the buzz score.
func (d StockDetails) NewsBuzzValue() float64 {
	return parseDecimal(d.NewsBuzz)
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

func parseDecimal(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
