package store

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one daily close.
type PricePoint struct {
	Date   time.Time
	Price  decimal.Decimal
	Volume *int64
}

// SentimentSnapshot is a ticker's label counts for one day.
type SentimentSnapshot struct {
	Ticker string
	Date   time.Time
	SentimentCounts
}

// UpsertPriceHistory stores the close for ticker on the point's date.
func (db *DB) UpsertPriceHistory(ticker string, p PricePoint) error {
	_, err := db.conn.Exec(`INSERT INTO price_history (ticker, date, price, volume) VALUES (?, ?, ?, ?)
		ON CONFLICT(ticker, date) DO UPDATE SET price = excluded.price, volume = excluded.volume`,
		ticker, formatDate(p.Date), p.Price.StringFixed(2), p.Volume)
	if err != nil {
		return fmt.Errorf("upsert price history: %w", err)
	}
	return nil
}

// PriceHistory returns up to limit closes dated on or after since, oldest
// first. When more exist the most recent limit are kept.
func (db *DB) PriceHistory(ticker string, since time.Time, limit int) ([]PricePoint, error) {
	query := `SELECT date, price, volume FROM price_history WHERE ticker = ? AND date >= ? ORDER BY date DESC`
	args := []any{ticker, formatDate(since)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("price history: %w", err)
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var p PricePoint
		var date string
		if err := rows.Scan(&date, &p.Price, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		p.Date = parseDate(date)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(points)
	return points, nil
}

// PriceDates returns the set of dates (YYYY-MM-DD) with a stored close on or after since.
func (db *DB) PriceDates(ticker string, since time.Time) (map[string]bool, error) {
	rows, err := db.conn.Query(`SELECT date FROM price_history WHERE ticker = ? AND date >= ?`, ticker, formatDate(since))
	if err != nil {
		return nil, fmt.Errorf("price dates: %w", err)
	}
	defer rows.Close()
	dates := map[string]bool{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates[d] = true
	}
	return dates, rows.Err()
}

// RecordSentimentHistory upserts the daily snapshot for the ticker.
func (db *DB) RecordSentimentHistory(s SentimentSnapshot) error {
	_, err := db.conn.Exec(`INSERT INTO news_sentiment_history (ticker, date, bullish_count, bearish_count, neutral_count, total_news)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, date) DO UPDATE SET bullish_count = excluded.bullish_count,
			bearish_count = excluded.bearish_count, neutral_count = excluded.neutral_count,
			total_news = excluded.total_news`,
		s.Ticker, formatDate(s.Date), s.Bullish, s.Bearish, s.Neutral, s.Total())
	if err != nil {
		return fmt.Errorf("record sentiment history: %w", err)
	}
	return nil
}

// SentimentHistory returns the ticker's snapshots on or after since, oldest first.
func (db *DB) SentimentHistory(ticker string, since time.Time) ([]SentimentSnapshot, error) {
	rows, err := db.conn.Query(`SELECT date, bullish_count, bearish_count, neutral_count FROM news_sentiment_history
		WHERE ticker = ? AND date >= ? ORDER BY date`, ticker, formatDate(since))
	if err != nil {
		return nil, fmt.Errorf("sentiment history: %w", err)
	}
	defer rows.Close()

	var out []SentimentSnapshot
	for rows.Next() {
		s := SentimentSnapshot{Ticker: ticker}
		var date string
		if err := rows.Scan(&date, &s.Bullish, &s.Bearish, &s.Neutral); err != nil {
			return nil, err
		}
		s.Date = parseDate(date)
		out = append(out, s)
	}
	return out, rows.Err()
}
