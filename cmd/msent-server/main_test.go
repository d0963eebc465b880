package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/user-dev-arch/MarketSentimentApp/internal/jobs"
	"github.com/user-dev-arch/MarketSentimentApp/internal/store"
)

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func runServer(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MSENT_LOG_LEVEL", "disabled")
	t.Setenv("ALPHA_VANTAGE_API_KEY", "")
	t.Setenv("NEWS_API_KEY", "")
	resetFlags(rootCmd)
	dbPath = ""

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetOut(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func seedNews(t *testing.T, path string) {
	t.Helper()
	db, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer db.Close()
	for i, title := range []string{
		"Apple shares surge on record profit",
		"Apple stock plunges after weak guidance",
	} {
		n := &store.News{
			Ticker: "AAPL",
			Title:  title,
			Source: "Wire",
			Date:   time.Now().Add(-time.Hour),
			Link:   "https://example.com/" + string(rune('a'+i)),
		}
		if _, err := db.UpsertNews(n); err != nil {
			t.Fatal(err)
		}
	}
}

func TestAnalyzeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.db")
	seedNews(t, path)

	out, err := runServer(t, "analyze", "--db", path, "--delay", "0")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	for _, want := range []string{"Articles found:     2", "Analyzed:           2", "Bullish", "Bearish", "Total         2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Nothing is left to analyze without --force.
	out, err = runServer(t, "analyze", "--db", path, "--delay", "0")
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if !strings.Contains(out, "Articles found:     0") {
		t.Errorf("second run output:\n%s", out)
	}
}

func TestAnalyzeCommandRejectsBatchSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.db")
	if _, err := runServer(t, "analyze", "--db", path, "--batch-size", "0"); err == nil {
		t.Error("expected error for --batch-size 0")
	}
}

func TestPopulateNewsWithoutProviders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.db")
	_, err := runServer(t, "populate-news", "--db", path, "--delay", "0")
	if !errors.Is(err, jobs.ErrNoNewsSource) {
		t.Errorf("err = %v, want ErrNoNewsSource", err)
	}

	if _, err := runServer(t, "populate-news", "--db", path, "--period", "2w"); err == nil {
		t.Error("expected error for invalid period")
	}
}

func TestSeconds(t *testing.T) {
	tests := map[float64]time.Duration{
		0:    0,
		-1:   0,
		0.1:  100 * time.Millisecond,
		1:    time.Second,
		2.5:  2500 * time.Millisecond,
		0.01: 10 * time.Millisecond,
	}
	for in, want := range tests {
		if got := seconds(in); got != want {
			t.Errorf("seconds(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestPrintSummaries(t *testing.T) {
	var buf bytes.Buffer
	printStocksSummary(&buf, jobs.StocksResult{Created: 2, Updated: 1, Failed: []string{"ZZZ"}})
	if !strings.Contains(buf.String(), "Created: 2") || !strings.Contains(buf.String(), "Failed tickers: ZZZ") {
		t.Errorf("stocks summary:\n%s", buf.String())
	}

	buf.Reset()
	printDistribution(&buf, store.SentimentCounts{Bullish: 1, Neutral: 2, Bearish: 1})
	if !strings.Contains(buf.String(), "(50.0%)") || !strings.Contains(buf.String(), "(25.0%)") {
		t.Errorf("distribution:\n%s", buf.String())
	}

	buf.Reset()
	printDistribution(&buf, store.SentimentCounts{})
	if !strings.Contains(buf.String(), "(0.0%)") {
		t.Errorf("empty distribution:\n%s", buf.String())
	}
}
