package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Stock is a stored equity with its last known quote.
type Stock struct {
	Ticker          string
	CompanyFullName string
	// CurrentPrice and ChangeInDay (percent) are null until first quoted.
	CurrentPrice   decimal.NullDecimal
	ChangeInDay    decimal.NullDecimal
	SentimentScore *int
	MarketCap      *int64
	Volume         *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Quoted reports whether the stock has a positive price and a change value.
func (s *Stock) Quoted() bool {
	return s.CurrentPrice.Valid && s.CurrentPrice.Decimal.IsPositive() && s.ChangeInDay.Valid
}

const stockColumns = `ticker, company_full_name, current_price, change_in_day, sentiment_score, market_cap, volume, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStock(r rowScanner) (*Stock, error) {
	s := &Stock{}
	var created, updated string
	if err := r.Scan(&s.Ticker, &s.CompanyFullName, &s.CurrentPrice, &s.ChangeInDay,
		&s.SentimentScore, &s.MarketCap, &s.Volume, &created, &updated); err != nil {
		return nil, err
	}
	s.CreatedAt = parseTime(created)
	s.UpdatedAt = parseTime(updated)
	return s, nil
}

func nullDecimalArg(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.StringFixed(2)
}

// UpsertStock inserts or updates a stock by ticker. It reports whether the
// row was created. UpdatedAt is set to the current time.
func (db *DB) UpsertStock(s *Stock) (bool, error) {
	if s.Ticker == "" {
		return false, fmt.Errorf("ticker is required")
	}
	now := db.now().UTC()

	tx, err := db.conn.Begin()
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var created string
	err = tx.QueryRow(`SELECT created_at FROM stocks WHERE ticker = ?`, s.Ticker).Scan(&created)
	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup stock: %w", err)
	}

	if exists {
		_, err = tx.Exec(`UPDATE stocks SET company_full_name = ?, current_price = ?, change_in_day = ?,
			sentiment_score = ?, market_cap = ?, volume = ?, updated_at = ? WHERE ticker = ?`,
			s.CompanyFullName, nullDecimalArg(s.CurrentPrice), nullDecimalArg(s.ChangeInDay),
			s.SentimentScore, s.MarketCap, s.Volume, formatTime(now), s.Ticker)
		s.CreatedAt = parseTime(created)
	} else {
		_, err = tx.Exec(`INSERT INTO stocks (`+stockColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.Ticker, s.CompanyFullName, nullDecimalArg(s.CurrentPrice), nullDecimalArg(s.ChangeInDay),
			s.SentimentScore, s.MarketCap, s.Volume, formatTime(now), formatTime(now))
		s.CreatedAt = now.Truncate(time.Second)
	}
	if err != nil {
		return false, fmt.Errorf("upsert stock: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	s.UpdatedAt = now.Truncate(time.Second)
	return !exists, nil
}

// GetStock returns a stock by ticker, or ErrNotFound.
func (db *DB) GetStock(ticker string) (*Stock, error) {
	s, err := scanStock(db.conn.QueryRow(`SELECT `+stockColumns+` FROM stocks WHERE ticker = ?`, ticker))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// GetOrCreateStock returns the stock for ticker, inserting an unquoted row
// named name when it does not exist yet.
func (db *DB) GetOrCreateStock(ticker, name string) (*Stock, bool, error) {
	s, err := db.GetStock(ticker)
	if err == nil {
		return s, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	s = &Stock{Ticker: ticker, CompanyFullName: name}
	if _, err := db.UpsertStock(s); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// ListStocks returns stocks ordered by ticker. limit <= 0 returns all.
func (db *DB) ListStocks(limit int) ([]*Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks ORDER BY ticker`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return db.queryStocks(query, args...)
}

// StocksByTicker returns the stored stocks among tickers keyed by ticker.
func (db *DB) StocksByTicker(tickers []string) (map[string]*Stock, error) {
	out := make(map[string]*Stock, len(tickers))
	if len(tickers) == 0 {
		return out, nil
	}
	args := make([]any, len(tickers))
	for i, t := range tickers {
		args[i] = t
	}
	stocks, err := db.queryStocks(`SELECT `+stockColumns+` FROM stocks WHERE ticker IN (`+placeholders(len(tickers))+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, s := range stocks {
		out[s.Ticker] = s
	}
	return out, nil
}

func (db *DB) queryStocks(query string, args ...any) ([]*Stock, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	defer rows.Close()

	var stocks []*Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		stocks = append(stocks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stocks: iterate: %w", err)
	}
	return stocks, nil
}

// SetSentimentScore stores the derived sentiment score without touching
// updated_at, which tracks quote freshness.
func (db *DB) SetSentimentScore(ticker string, score int) error {
	res, err := db.conn.Exec(`UPDATE stocks SET sentiment_score = ? WHERE ticker = ?`, score, ticker)
	if err != nil {
		return fmt.Errorf("set sentiment score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
