package store

// SchemaVersion is the current server database schema version
const SchemaVersion = 2

const schema = `
CREATE TABLE IF NOT EXISTS stocks (
    ticker TEXT PRIMARY KEY,
    company_full_name TEXT NOT NULL,
    current_price TEXT,
    change_in_day TEXT,
    sentiment_score INTEGER,
    market_cap INTEGER,
    volume INTEGER,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS news (
    id TEXT PRIMARY KEY,
    ticker TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',
    author TEXT,
    date TEXT NOT NULL,
    link TEXT UNIQUE NOT NULL,
    sentiment TEXT CHECK(sentiment IN ('Bullish', 'Bearish', 'Neutral')),
    sentiment_analyzed INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS price_history (
    ticker TEXT NOT NULL,
    date TEXT NOT NULL,
    price TEXT NOT NULL,
    volume INTEGER,
    UNIQUE(ticker, date)
);

CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_news_ticker_date ON news(ticker, date DESC);
CREATE INDEX IF NOT EXISTS idx_news_sentiment ON news(sentiment);
CREATE INDEX IF NOT EXISTS idx_news_date ON news(date DESC);
`

// Migration defines a server database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the list of all server database migrations in order
var Migrations = []Migration{
	// Version 1 is the initial schema - no migration needed
	{
		Version:     2,
		Description: "Add news_sentiment_history table for daily sentiment snapshots",
		SQL: `CREATE TABLE IF NOT EXISTS news_sentiment_history (
			ticker TEXT NOT NULL,
			date TEXT NOT NULL,
			bullish_count INTEGER NOT NULL DEFAULT 0,
			bearish_count INTEGER NOT NULL DEFAULT 0,
			neutral_count INTEGER NOT NULL DEFAULT 0,
			total_news INTEGER NOT NULL DEFAULT 0,
			UNIQUE(ticker, date)
		);
		CREATE INDEX IF NOT EXISTS idx_sentiment_history_ticker ON news_sentiment_history(ticker, date DESC);`,
	},
}
