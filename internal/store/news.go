package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// News is a stored article. Link is unique across the table.
type News struct {
	ID                string
	Ticker            string
	Title             string
	Content           string
	Source            string
	Author            *string
	Date              time.Time
	Link              string
	Sentiment         *string
	SentimentAnalyzed bool
	CreatedAt         time.Time
}

// NewsFilter selects articles for ListNews.
type NewsFilter struct {
	Since     time.Time
	Tickers   []string
	Sentiment string
	Limit     int
}

// SentimentCounts tallies analysed labels.
type SentimentCounts struct {
	Bullish int
	Bearish int
	Neutral int
}

// Total is the sum of all labels.
func (c SentimentCounts) Total() int {
	return c.Bullish + c.Bearish + c.Neutral
}

// Score is int((bullish-bearish)/total*100), or 0 with no articles.
func (c SentimentCounts) Score() int {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return int(float64(c.Bullish-c.Bearish) / float64(total) * 100)
}

func (c *SentimentCounts) add(label string, n int) {
	switch label {
	case "Bullish":
		c.Bullish += n
	case "Bearish":
		c.Bearish += n
	case "Neutral":
		c.Neutral += n
	}
}

const newsColumns = `id, ticker, title, content, source, author, date, link, sentiment, sentiment_analyzed, created_at`

func scanNews(r rowScanner) (*News, error) {
	n := &News{}
	var date, created string
	if err := r.Scan(&n.ID, &n.Ticker, &n.Title, &n.Content, &n.Source, &n.Author,
		&date, &n.Link, &n.Sentiment, &n.SentimentAnalyzed, &created); err != nil {
		return nil, err
	}
	n.Date = parseTime(date)
	n.CreatedAt = parseTime(created)
	return n, nil
}

// UpsertNews inserts or updates an article keyed by its link and reports
// whether it was created. A new article gets a random UUID; an existing one
// keeps its ID, which is written back to n.
func (db *DB) UpsertNews(n *News) (bool, error) {
	if n.Link == "" {
		return false, fmt.Errorf("news link is required")
	}
	if n.Sentiment != nil && *n.Sentiment == "" {
		n.Sentiment = nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id, created string
	err = tx.QueryRow(`SELECT id, created_at FROM news WHERE link = ?`, n.Link).Scan(&id, &created)
	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup news: %w", err)
	}

	if exists {
		_, err = tx.Exec(`UPDATE news SET ticker = ?, title = ?, content = ?, source = ?, author = ?,
			date = ?, sentiment = ?, sentiment_analyzed = ? WHERE id = ?`,
			n.Ticker, n.Title, n.Content, n.Source, n.Author, formatTime(n.Date),
			n.Sentiment, n.SentimentAnalyzed, id)
		n.ID = id
		n.CreatedAt = parseTime(created)
	} else {
		now := db.now().UTC().Truncate(time.Second)
		n.ID = uuid.NewString()
		n.CreatedAt = now
		_, err = tx.Exec(`INSERT INTO news (`+newsColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.Ticker, n.Title, n.Content, n.Source, n.Author, formatTime(n.Date),
			n.Link, n.Sentiment, n.SentimentAnalyzed, formatTime(now))
	}
	if err != nil {
		return false, fmt.Errorf("upsert news: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return !exists, nil
}

// GetNews returns an article by ID, or ErrNotFound.
func (db *DB) GetNews(id string) (*News, error) {
	n, err := scanNews(db.conn.QueryRow(`SELECT `+newsColumns+` FROM news WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get news: %w", err)
	}
	return n, nil
}

func (f NewsFilter) where() (string, []any) {
	var conds []string
	var args []any
	if !f.Since.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, formatTime(f.Since))
	}
	if len(f.Tickers) > 0 {
		conds = append(conds, "ticker IN ("+placeholders(len(f.Tickers))+")")
		for _, t := range f.Tickers {
			args = append(args, t)
		}
	}
	if f.Sentiment != "" {
		conds = append(conds, "sentiment = ?")
		args = append(args, f.Sentiment)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListNews returns articles matching the filter, newest first.
func (db *DB) ListNews(f NewsFilter) ([]*News, error) {
	where, args := f.where()
	query := `SELECT ` + newsColumns + ` FROM news` + where + ` ORDER BY date DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return db.queryNews(query, args...)
}

// CountNews returns the number of articles matching the filter. Limit is ignored.
func (db *DB) CountNews(f NewsFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM news`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count news: %w", err)
	}
	return n, nil
}

// TickerCount is a per-ticker article count.
type TickerCount struct {
	Ticker string
	Count  int
}

// CountNewsByTicker returns article counts per ticker dated at or after
// since (all time when zero), largest first.
func (db *DB) CountNewsByTicker(since time.Time) ([]TickerCount, error) {
	query := `SELECT ticker, COUNT(*) AS n FROM news`
	var args []any
	if !since.IsZero() {
		query += ` WHERE date >= ?`
		args = append(args, formatTime(since))
	}
	query += ` GROUP BY ticker ORDER BY n DESC, ticker`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("count news by ticker: %w", err)
	}
	defer rows.Close()

	var counts []TickerCount
	for rows.Next() {
		var c TickerCount
		if err := rows.Scan(&c.Ticker, &c.Count); err != nil {
			return nil, fmt.Errorf("scan news count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// SentimentCounts tallies labels of the ticker's articles dated in
// [from, to). A zero to means no upper bound. With analyzedOnly only
// articles marked analysed are counted.
func (db *DB) SentimentCounts(ticker string, from, to time.Time, analyzedOnly bool) (SentimentCounts, error) {
	query := `SELECT sentiment, COUNT(*) FROM news WHERE ticker = ? AND sentiment IS NOT NULL AND date >= ?`
	args := []any{ticker, formatTime(from)}
	if !to.IsZero() {
		query += ` AND date < ?`
		args = append(args, formatTime(to))
	}
	if analyzedOnly {
		query += ` AND sentiment_analyzed = 1`
	}
	query += ` GROUP BY sentiment`
	return db.tally(query, args...)
}

// SentimentDistribution tallies the labels of every analysed article.
func (db *DB) SentimentDistribution() (SentimentCounts, error) {
	return db.tally(`SELECT sentiment, COUNT(*) FROM news WHERE sentiment_analyzed = 1 AND sentiment IS NOT NULL GROUP BY sentiment`)
}

func (db *DB) tally(query string, args ...any) (SentimentCounts, error) {
	var c SentimentCounts
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return c, fmt.Errorf("sentiment counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return c, fmt.Errorf("scan sentiment count: %w", err)
		}
		c.add(label, n)
	}
	return c, rows.Err()
}

// SetNewsSentiment stores the label and marks the article analysed.
func (db *DB) SetNewsSentiment(id, label string) error {
	res, err := db.conn.Exec(`UPDATE news SET sentiment = ?, sentiment_analyzed = 1 WHERE id = ?`, label, id)
	if err != nil {
		return fmt.Errorf("set sentiment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUnanalyzedNews returns articles needing classification, newest first:
// those not analysed or without a label, or every article when force is set.
// ticker and limit are optional.
func (db *DB) ListUnanalyzedNews(ticker string, limit int, force bool) ([]*News, error) {
	var conds []string
	var args []any
	if !force {
		conds = append(conds, "(sentiment_analyzed = 0 OR sentiment IS NULL)")
	}
	if ticker != "" {
		conds = append(conds, "ticker = ?")
		args = append(args, ticker)
	}
	query := `SELECT ` + newsColumns + ` FROM news`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY date DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return db.queryNews(query, args...)
}

func (db *DB) queryNews(query string, args ...any) ([]*News, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	defer rows.Close()

	var out []*News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list news: iterate: %w", err)
	}
	return out, nil
}
