package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func addNews(t *testing.T, db *DB, ticker, link string, date time.Time, sentiment string) *News {
	t.Helper()
	n := &News{Ticker: ticker, Title: "title " + link, Content: "body", Source: "Wire", Date: date, Link: link}
	if sentiment != "" {
		n.Sentiment = strPtr(sentiment)
		n.SentimentAnalyzed = true
	}
	if _, err := db.UpsertNews(n); err != nil {
		t.Fatalf("UpsertNews(%s): %v", link, err)
	}
	return n
}

// --- Schema tests ---

func TestOpenSetsSchemaVersion(t *testing.T) {
	db := newTestDB(t)
	if v := db.SchemaVersion(); v != SchemaVersion {
		t.Errorf("schema version = %d, want %d", v, SchemaVersion)
	}
	n, err := db.RunMigrations()
	if err != nil || n != 0 {
		t.Errorf("second RunMigrations = %d, %v", n, err)
	}
	if err := db.Ping(); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertStock(&Stock{Ticker: "AAPL", CompanyFullName: "Apple Inc."}); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.GetStock("AAPL"); err != nil {
		t.Errorf("stock lost after reopen: %v", err)
	}
}

// --- Stock tests ---

func TestUpsertStock(t *testing.T) {
	db := newTestDB(t)
	s := &Stock{
		Ticker:          "AAPL",
		CompanyFullName: "Apple Inc.",
		CurrentPrice:    decimal.NewNullDecimal(decimal.RequireFromString("190.456")),
		ChangeInDay:     decimal.NewNullDecimal(decimal.RequireFromString("-1.2")),
	}
	created, err := db.UpsertStock(s)
	if err != nil || !created {
		t.Fatalf("first upsert = %v, %v", created, err)
	}
	created, err = db.UpsertStock(s)
	if err != nil || created {
		t.Fatalf("second upsert = %v, %v", created, err)
	}

	got, err := db.GetStock("AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentPrice.Decimal.String() != "190.46" || got.ChangeInDay.Decimal.String() != "-1.2" {
		t.Errorf("price/change = %s/%s", got.CurrentPrice.Decimal, got.ChangeInDay.Decimal)
	}
	if !got.Quoted() {
		t.Error("stock should be quoted")
	}
	if got.MarketCap != nil || got.SentimentScore != nil {
		t.Error("unset nullable columns should scan as nil")
	}
}

func TestGetStockNotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetStock("NOPE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetOrCreateStock(t *testing.T) {
	db := newTestDB(t)
	s, created, err := db.GetOrCreateStock("ZZZ", "ZZZ Corporation")
	if err != nil || !created {
		t.Fatalf("GetOrCreateStock = %v, %v", created, err)
	}
	if s.Quoted() || s.CurrentPrice.Valid {
		t.Error("new stock should have no price")
	}
	_, created, err = db.GetOrCreateStock("ZZZ", "Other")
	if err != nil || created {
		t.Errorf("second GetOrCreateStock = %v, %v", created, err)
	}
}

func TestListStocksOrderedAndLimited(t *testing.T) {
	db := newTestDB(t)
	for _, tk := range []string{"MSFT", "AAPL", "TSLA"} {
		db.UpsertStock(&Stock{Ticker: tk, CompanyFullName: tk})
	}
	all, err := db.ListStocks(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Ticker != "AAPL" || all[2].Ticker != "TSLA" {
		t.Errorf("order = %v", tickersOf(all))
	}
	two, _ := db.ListStocks(2)
	if len(two) != 2 {
		t.Errorf("limit 2 returned %d", len(two))
	}

	byTicker, err := db.StocksByTicker([]string{"TSLA", "NVDA"})
	if err != nil || len(byTicker) != 1 || byTicker["TSLA"] == nil {
		t.Errorf("StocksByTicker = %v, %v", byTicker, err)
	}
}

func tickersOf(stocks []*Stock) []string {
	var out []string
	for _, s := range stocks {
		out = append(out, s.Ticker)
	}
	return out
}

// --- News tests ---

func TestUpsertNewsByLink(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	first := addNews(t, db, "AAPL", "https://x/1", now, "")
	if first.ID == "" {
		t.Fatal("ID not assigned")
	}

	again := &News{Ticker: "AAPL", Title: "updated", Link: "https://x/1", Date: now, Sentiment: strPtr("Bullish"), SentimentAnalyzed: true}
	created, err := db.UpsertNews(again)
	if err != nil || created {
		t.Fatalf("re-upsert = %v, %v", created, err)
	}
	if again.ID != first.ID {
		t.Errorf("ID changed: %s -> %s", first.ID, again.ID)
	}
	got, err := db.GetNews(first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "updated" || got.Sentiment == nil || *got.Sentiment != "Bullish" || !got.SentimentAnalyzed {
		t.Errorf("got %+v", got)
	}
}

func TestUpsertNewsRejectsBadSentiment(t *testing.T) {
	db := newTestDB(t)
	_, err := db.UpsertNews(&News{Ticker: "A", Title: "t", Link: "l", Date: time.Now(), Sentiment: strPtr("Positive")})
	if err == nil {
		t.Error("expected CHECK constraint failure")
	}
}

func TestListNewsFilter(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	addNews(t, db, "AAPL", "a1", now.Add(-1*time.Hour), "Bullish")
	addNews(t, db, "AAPL", "a2", now.Add(-2*time.Hour), "Bearish")
	addNews(t, db, "MSFT", "m1", now.Add(-30*time.Minute), "Bullish")
	addNews(t, db, "AAPL", "old", now.Add(-10*24*time.Hour), "Bullish")

	all, err := db.ListNews(NewsFilter{Since: now.Add(-7 * 24 * time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Link != "m1" || all[2].Link != "a2" {
		t.Errorf("newest-first order wrong: %d items", len(all))
	}

	bull, _ := db.ListNews(NewsFilter{Since: now.Add(-7 * 24 * time.Hour), Tickers: []string{"AAPL"}, Sentiment: "Bullish"})
	if len(bull) != 1 || bull[0].Link != "a1" {
		t.Errorf("filtered = %d", len(bull))
	}

	limited, _ := db.ListNews(NewsFilter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("limit = %d", len(limited))
	}

	n, err := db.CountNews(NewsFilter{Tickers: []string{"AAPL"}})
	if err != nil || n != 3 {
		t.Errorf("CountNews = %d, %v", n, err)
	}
}

func TestCountNewsByTicker(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	addNews(t, db, "AAPL", "a1", now, "")
	addNews(t, db, "AAPL", "a2", now, "")
	addNews(t, db, "MSFT", "m1", now, "")
	addNews(t, db, "MSFT", "m-old", now.Add(-48*time.Hour), "")

	counts, err := db.CountNewsByTicker(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 2 || counts[0] != (TickerCount{"AAPL", 2}) || counts[1] != (TickerCount{"MSFT", 1}) {
		t.Errorf("counts = %v", counts)
	}
	all, _ := db.CountNewsByTicker(time.Time{})
	if all[0].Count != 2 || all[1].Count != 2 {
		t.Errorf("all-time counts = %v", all)
	}
}

func TestSentimentCounts(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	addNews(t, db, "AAPL", "b1", now, "Bullish")
	addNews(t, db, "AAPL", "b2", now, "Bullish")
	addNews(t, db, "AAPL", "r1", now, "Bearish")
	addNews(t, db, "AAPL", "n-prev", now.Add(-3*24*time.Hour), "Neutral")
	unanalysed := &News{Ticker: "AAPL", Title: "t", Link: "u1", Date: now, Sentiment: strPtr("Bullish")}
	db.UpsertNews(unanalysed)

	recent, err := db.SentimentCounts("AAPL", now.Add(-24*time.Hour), time.Time{}, true)
	if err != nil {
		t.Fatal(err)
	}
	if recent != (SentimentCounts{Bullish: 2, Bearish: 1}) {
		t.Errorf("recent = %+v", recent)
	}
	if recent.Score() != 33 {
		t.Errorf("score = %d, want 33", recent.Score())
	}

	prev, _ := db.SentimentCounts("AAPL", now.Add(-7*24*time.Hour), now.Add(-24*time.Hour), true)
	if prev != (SentimentCounts{Neutral: 1}) || prev.Score() != 0 {
		t.Errorf("prev = %+v", prev)
	}

	withUnanalysed, _ := db.SentimentCounts("AAPL", now.Add(-24*time.Hour), time.Time{}, false)
	if withUnanalysed.Bullish != 3 {
		t.Errorf("unfiltered bullish = %d", withUnanalysed.Bullish)
	}
}

func TestSetNewsSentimentAndUnanalyzed(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	a := addNews(t, db, "AAPL", "a", now, "")
	addNews(t, db, "MSFT", "m", now.Add(-time.Hour), "")
	addNews(t, db, "AAPL", "done", now, "Neutral")

	pending, err := db.ListUnanalyzedNews("", 0, false)
	if err != nil || len(pending) != 2 {
		t.Fatalf("pending = %d, %v", len(pending), err)
	}
	onlyAAPL, _ := db.ListUnanalyzedNews("AAPL", 0, false)
	if len(onlyAAPL) != 1 {
		t.Errorf("AAPL pending = %d", len(onlyAAPL))
	}
	forced, _ := db.ListUnanalyzedNews("", 0, true)
	if len(forced) != 3 {
		t.Errorf("forced = %d", len(forced))
	}

	if err := db.SetNewsSentiment(a.ID, "Bearish"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetNewsSentiment("missing", "Bearish"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id err = %v", err)
	}

	dist, err := db.SentimentDistribution()
	if err != nil {
		t.Fatal(err)
	}
	if dist != (SentimentCounts{Bearish: 1, Neutral: 1}) {
		t.Errorf("distribution = %+v", dist)
	}
}

// --- History tests ---

func TestPriceHistory(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		p := PricePoint{Date: base.AddDate(0, 0, i), Price: decimal.NewFromInt(int64(100 + i))}
		if err := db.UpsertPriceHistory("AAPL", p); err != nil {
			t.Fatal(err)
		}
	}
	// overwrite day 0
	db.UpsertPriceHistory("AAPL", PricePoint{Date: base, Price: decimal.NewFromInt(99)})

	all, err := db.PriceHistory("AAPL", base, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 || !all[0].Price.Equal(decimal.NewFromInt(99)) || !all[0].Date.Equal(base) {
		t.Errorf("history = %+v", all)
	}

	last3, _ := db.PriceHistory("AAPL", base, 3)
	if len(last3) != 3 || !last3[0].Price.Equal(decimal.NewFromInt(102)) || !last3[2].Price.Equal(decimal.NewFromInt(104)) {
		t.Errorf("last3 = %+v", last3)
	}

	dates, _ := db.PriceDates("AAPL", base.AddDate(0, 0, 3))
	if len(dates) != 2 || !dates["2026-01-04"] {
		t.Errorf("dates = %v", dates)
	}
}

func TestSentimentHistory(t *testing.T) {
	db := newTestDB(t)
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	snap := SentimentSnapshot{Ticker: "AAPL", Date: day, SentimentCounts: SentimentCounts{Bullish: 2, Neutral: 1}}
	if err := db.RecordSentimentHistory(snap); err != nil {
		t.Fatal(err)
	}
	snap.Bearish = 4
	if err := db.RecordSentimentHistory(snap); err != nil {
		t.Fatal(err)
	}
	hist, err := db.SentimentHistory("AAPL", day)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 || hist[0].Bearish != 4 || hist[0].Total() != 7 {
		t.Errorf("history = %+v", hist)
	}
}

func TestSetSentimentScoreKeepsUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	fixed := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	db.SetClock(func() time.Time { return fixed })
	db.UpsertStock(&Stock{Ticker: "AAPL", CompanyFullName: "Apple Inc."})

	db.SetClock(func() time.Time { return fixed.Add(time.Hour) })
	if err := db.SetSentimentScore("AAPL", -40); err != nil {
		t.Fatal(err)
	}
	s, _ := db.GetStock("AAPL")
	if s.SentimentScore == nil || *s.SentimentScore != -40 {
		t.Errorf("score = %v", s.SentimentScore)
	}
	if !s.UpdatedAt.Equal(fixed) {
		t.Errorf("updated_at = %v, want %v", s.UpdatedAt, fixed)
	}
	if err := db.SetSentimentScore("NOPE", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing ticker err = %v", err)
	}
}
