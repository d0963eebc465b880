package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/user-dev-arch/MarketSentimentApp/internal/market"
	"github.com/user-dev-arch/MarketSentimentApp/internal/marketdata"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/sentiment"
	"github.com/user-dev-arch/MarketSentimentApp/internal/store"
)

// offlineQuotes is a quote provider with no upstream.
type offlineQuotes struct{}

func (offlineQuotes) Name() string { return "offline" }

func (offlineQuotes) Quote(context.Context, string) (*marketdata.Quote, error) {
	return nil, errors.New("offline")
}

func (offlineQuotes) History(context.Context, string, int) ([]marketdata.Bar, error) {
	return nil, errors.New("offline")
}

// newTestServer creates a Server backed by a temp database for testing.
func newTestServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	return newTestServerWithConfig(t, nil)
}

// newTestServerWithConfig creates a test server with a custom config modifier.
func newTestServerWithConfig(t *testing.T, modCfg func(*Config)) (*Server, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := Config{ListenAddr: ":0"}
	if modCfg != nil {
		modCfg(&cfg)
	}

	svc := market.New(db, offlineQuotes{}, nil, sentiment.NewLexicon(), market.Options{})
	srv, err := NewServer(cfg, svc)
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	return srv, db
}

func doRequest(srv *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp.Error
}

func addNews(t *testing.T, db *store.DB, ticker, link, title string, label string) *store.News {
	t.Helper()
	n := &store.News{Ticker: ticker, Title: title, Content: "body", Source: "Wire", Date: time.Now().UTC().Add(-time.Hour), Link: link}
	if label != "" {
		n.Sentiment = &label
		n.SentimentAnalyzed = true
	}
	if _, err := db.UpsertNews(n); err != nil {
		t.Fatalf("upsert news: %v", err)
	}
	return n
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(srv, "GET", "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc123")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc123" {
		t.Fatalf("X-Request-ID = %q", got)
	}
}

func TestMetricz(t *testing.T) {
	srv, _ := newTestServer(t)
	doRequest(srv, "GET", "/healthz")
	doRequest(srv, "GET", "/stocks?limit=abc")

	w := doRequest(srv, "GET", "/metricz")
	var snap MetricsSnapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Requests != 3 {
		t.Errorf("requests = %d, want 3", snap.Requests)
	}
	if snap.ClientErrors != 1 {
		t.Errorf("client errors = %d, want 1", snap.ClientErrors)
	}
}

func TestInvalidLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/topMovers?limit=x", "/newsBuzz?limit=0", "/sentimentMovers?limit=-2", "/stocks?limit=1.5", "/news?limit=ten"} {
		w := doRequest(srv, "GET", path)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
			continue
		}
		if e := decodeError(t, w); e.Code != ErrCodeBadRequest || !strings.Contains(e.Message, "limit") {
			t.Errorf("%s: error = %+v", path, e)
		}
	}
}

func TestInvalidPeriod(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(srv, "GET", "/news?timePeriod=2w")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestStocks(t *testing.T) {
	srv, db := newTestServer(t)
	price := decimal.NewNullDecimal(decimal.RequireFromString("190.5"))
	if _, err := db.UpsertStock(&store.Stock{Ticker: "AAPL", CompanyFullName: "Apple Inc.", CurrentPrice: price}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertStock(&store.Stock{Ticker: "ZZZ", CompanyFullName: "ZZZ Corporation"}); err != nil {
		t.Fatal(err)
	}

	w := doRequest(srv, "GET", "/stocks")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var rows []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0]["currentPrice"] != "190.50" || rows[0]["companyFullName"] != "Apple Inc." {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1]["currentPrice"] != nil {
		t.Errorf("unquoted stock should have null price: %v", rows[1])
	}
}

func TestTopMoversOffline(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(srv, "GET", "/topMovers?limit=3")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var rows []models.TopMover
	if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) > 3 {
		t.Errorf("rows = %d, want <= 3", len(rows))
	}
}

func TestNewsFilters(t *testing.T) {
	srv, db := newTestServer(t)
	addNews(t, db, "AAPL", "a1", "Apple up", "Bullish")
	addNews(t, db, "AAPL", "a2", "Apple down", "Bearish")
	addNews(t, db, "MSFT", "m1", "Microsoft flat", "")

	w := doRequest(srv, "GET", "/news?stocks=aapl&sentiment=bullish")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var items []market.NewsItem
	if err := json.NewDecoder(w.Body).Decode(&items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Link != "a1" || !items[0].SentimentAnalyzed {
		t.Fatalf("items = %+v", items)
	}

	w = doRequest(srv, "GET", "/news?sentiment=Sideways")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad sentiment, got %d", w.Code)
	}

	w = doRequest(srv, "GET", "/news?timePeriod=24h")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 24h to be accepted, got %d", w.Code)
	}
	items = nil
	json.NewDecoder(w.Body).Decode(&items)
	if len(items) != 3 {
		t.Errorf("24h items = %d, want 3", len(items))
	}
}

func TestSentimentEndpoint(t *testing.T) {
	srv, db := newTestServer(t)

	w := doRequest(srv, "GET", "/sentiment/not-a-uuid")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if e := decodeError(t, w); e.Message != "Invalid UUID format" {
		t.Errorf("message = %q", e.Message)
	}

	w = doRequest(srv, "GET", "/sentiment/"+uuid.NewString())
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if e := decodeError(t, w); e.Code != ErrCodeNotFound || e.Message != "News article not found" {
		t.Errorf("error = %+v", e)
	}

	n := addNews(t, db, "AAPL", "s1", "Apple shares surge to record high", "")
	w = doRequest(srv, "GET", "/sentiment/"+n.ID)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var env models.SentimentEnvelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if env.Data.Sentiment != "Bullish" {
		t.Errorf("sentiment = %q, want Bullish", env.Data.Sentiment)
	}
	stored, err := db.GetNews(n.ID)
	if err != nil || !stored.SentimentAnalyzed {
		t.Errorf("label not persisted: %+v, %v", stored, err)
	}
}

func TestStockDetailsRequiresTicker(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(srv, "GET", "/stock-details")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if e := decodeError(t, w); e.Message != "Ticker parameter is required" {
		t.Errorf("message = %q", e.Message)
	}
}

func TestStockDetailsCreatesStock(t *testing.T) {
	srv, db := newTestServer(t)
	w := doRequest(srv, "GET", "/stock-details?ticker=aapl")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["companyFullName"] != "Apple Inc." {
		t.Errorf("companyFullName = %v", body["companyFullName"])
	}
	if body["marketCap"] != "N/A" {
		t.Errorf("marketCap = %v", body["marketCap"])
	}
	if _, err := db.GetStock("AAPL"); err != nil {
		t.Errorf("stock not created: %v", err)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	if w := doRequest(srv, "GET", "/nope"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := doRequest(srv, "POST", "/stocks"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestRateLimitPerIP(t *testing.T) {
	srv, _ := newTestServerWithConfig(t, func(c *Config) {
		c.RateLimit = 0.001
		c.RateBurst = 2
	})

	for i := 0; i < 2; i++ {
		if w := doRequest(srv, "GET", "/stocks"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	w := doRequest(srv, "GET", "/stocks")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if e := decodeError(t, w); e.Code != ErrCodeRateLimited {
		t.Errorf("code = %q", e.Code)
	}

	// Health checks are exempt
	if w := doRequest(srv, "GET", "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", w.Code)
	}

	// Other clients have their own bucket
	req := httptest.NewRequest("GET", "/stocks", nil)
	req.RemoteAddr = "10.1.1.1:5555"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("other ip: expected 200, got %d", rec.Code)
	}

	if got := srv.metrics.Snapshot().RateLimited; got != 1 {
		t.Errorf("rate limited metric = %d, want 1", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), recoveryMiddleware, requestIDMiddleware, loggerMiddleware)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestStartAndShutdown(t *testing.T) {
	srv, _ := newTestServerWithConfig(t, func(c *Config) { c.ListenAddr = "127.0.0.1:0" })
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	resp, err := http.Get("http://" + srv.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
