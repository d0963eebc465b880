package viewmodel

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/user-dev-arch/MarketSentimentApp/internal/client"
	"github.com/user-dev-arch/MarketSentimentApp/internal/endpoint"
	"github.com/user-dev-arch/MarketSentimentApp/internal/jsoncoding"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/prefs"
	"github.com/user-dev-arch/MarketSentimentApp/internal/preview"
	"github.com/user-dev-arch/MarketSentimentApp/internal/watchlist"
)

// fakeFetcher serves canned JSON bodies keyed by endpoint path.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	urls   []string
}

func (f *fakeFetcher) FetchData(_ context.Context, ep endpoint.Endpoint, out any) error {
	u, _ := ep.URL("http://api.test")
	f.mu.Lock()
	f.urls = append(f.urls, u)
	body, ok := f.bodies[ep.Path()]
	f.mu.Unlock()
	if !ok {
		return &client.NetworkError{Kind: client.KindServer, StatusCode: 503}
	}
	if err := jsoncoding.Decode([]byte(body), out); err != nil {
		return &client.NetworkError{Kind: client.KindDecoding, Err: err}
	}
	return nil
}

func (f *fakeFetcher) PostData(ctx context.Context, ep endpoint.Endpoint, _ any, out any) error {
	return f.FetchData(ctx, ep, out)
}

func (f *fakeFetcher) lastURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.urls) == 0 {
		return ""
	}
	return f.urls[len(f.urls)-1]
}

func newWatchlist(t *testing.T) *watchlist.Store {
	t.Helper()
	p, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("prefs.Open: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	wl, err := watchlist.New(p)
	if err != nil {
		t.Fatal(err)
	}
	return wl
}

func TestDashboardLoadAll(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{
		"/topMovers":       `[{"ticker":"NVDA","change":"5.10","current_price":"120.00"}]`,
		"/newsBuzz":        `[{"ticker":"TSLA","score":"0.500000","company_full_name":"Tesla Inc."}]`,
		"/sentimentMovers": `[{"ticker":"AMD","change":12,"sentiment_score":40}]`,
		"/stocks":          `[]`,
	}}
	d := NewDashboard(f)

	var notified int
	var mu sync.Mutex
	cancel := d.Subscribe(func(DashboardState) {
		mu.Lock()
		notified++
		mu.Unlock()
	})
	defer cancel()

	if err := d.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	s := d.State()
	if len(s.TopMovers) != 1 || s.TopMovers[0].Ticker != "NVDA" {
		t.Errorf("TopMovers = %+v", s.TopMovers)
	}
	if len(s.NewsBuzz) != 1 || s.NewsBuzz[0].CompanyFullName != "Tesla Inc." {
		t.Errorf("NewsBuzz = %+v", s.NewsBuzz)
	}
	if len(s.SentimentMovers) != 1 || s.SentimentMovers[0].Change != 12 {
		t.Errorf("SentimentMovers = %+v", s.SentimentMovers)
	}
	if s.Fallback {
		t.Error("Fallback set on success")
	}
	mu.Lock()
	defer mu.Unlock()
	if notified < 4 {
		t.Errorf("notified %d times, want >= 4", notified)
	}
}

func TestDashboardFallsBackToPreview(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{
		"/stocks": `[]`,
	}}
	d := NewDashboard(f)
	err := d.LoadAll(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var ne *client.NetworkError
	if !errors.As(err, &ne) {
		t.Errorf("err = %T, want NetworkError", err)
	}
	s := d.State()
	if len(s.TopMovers) != len(preview.TopMovers()) || len(s.SentimentMovers) != len(preview.SentimentMovers()) {
		t.Errorf("fallback lists not applied: %+v", s)
	}
	if !s.Fallback {
		t.Error("Fallback not set")
	}
	if len(s.Stocks) != 0 {
		t.Errorf("Stocks = %v, want the fetched empty list", s.Stocks)
	}
}

func TestSubscribeCancel(t *testing.T) {
	d := NewDashboard(&fakeFetcher{bodies: map[string]string{"/topMovers": `[]`}})
	calls := 0
	cancel := d.Subscribe(func(DashboardState) { calls++ })
	d.LoadTopMovers(context.Background())
	cancel()
	d.LoadTopMovers(context.Background())
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestNewsFiltersReload(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{
		"/news": `[{"id":"1","ticker":"AAPL","title":"t","content":"c","source":"s","author":null,"sentiment":"Bullish","date":"2024-01-01T00:00:00Z","link":"l"}]`,
	}}
	n := NewNews(f, 0)
	if n.State().TimePeriod != models.Period24h {
		t.Errorf("default period = %s", n.State().TimePeriod)
	}

	score := models.ScoreBullish
	if err := n.SetSentiment(context.Background(), &score); err != nil {
		t.Fatalf("SetSentiment: %v", err)
	}
	if got := f.lastURL(); got != "http://api.test/news?limit=100&sentiment=Bullish&timePeriod=24h" {
		t.Errorf("url = %s", got)
	}

	if err := n.SetStock(context.Background(), &models.Stock{Ticker: "AAPL"}); err != nil {
		t.Fatal(err)
	}
	if err := n.SetTimePeriod(context.Background(), models.Period7d); err != nil {
		t.Fatal(err)
	}
	if got := f.lastURL(); got != "http://api.test/news?limit=100&sentiment=Bullish&stocks=AAPL&timePeriod=7d" {
		t.Errorf("url = %s", got)
	}
	if len(n.State().News) != 1 {
		t.Errorf("News = %+v", n.State().News)
	}
}

func TestNewsFallback(t *testing.T) {
	n := NewNews(&fakeFetcher{}, 5)
	if err := n.LoadNews(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := len(n.State().News); got != len(preview.News()) {
		t.Errorf("News len = %d", got)
	}
	if err := n.LoadStocks(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := len(n.State().Stocks); got != len(preview.Stocks()) {
		t.Errorf("Stocks len = %d", got)
	}
}

func TestStockPageSaveDelete(t *testing.T) {
	wl := newWatchlist(t)
	p := NewStockPage(&fakeFetcher{}, wl)

	if err := p.Save("aapl"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !p.State().IsSaved || !wl.IsSaved("AAPL") {
		t.Error("Save did not mark ticker as saved")
	}
	if err := p.Delete("AAPL"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if p.State().IsSaved {
		t.Error("Delete left IsSaved true")
	}
}

func TestStockPageDetailsFallback(t *testing.T) {
	p := NewStockPage(&fakeFetcher{}, newWatchlist(t))
	if err := p.LoadDetails(context.Background(), "zzz"); err == nil {
		t.Fatal("expected error")
	}
	s := p.State()
	if s.Details == nil || s.Details.CompanyFullName != preview.StockDetails().CompanyFullName {
		t.Errorf("Details = %+v", s.Details)
	}
	if s.Ticker != "ZZZ" || !s.Fallback {
		t.Errorf("state = %+v", s)
	}
}

func TestWatchlistModel(t *testing.T) {
	wl := newWatchlist(t)
	wl.Save("MSFT")
	w := NewWatchlist(&fakeFetcher{bodies: map[string]string{"/stocks": `[{"ticker":"MSFT"}]`}}, wl)
	if !slices.Equal(w.State().SavedTickers, []string{"MSFT"}) {
		t.Errorf("SavedTickers = %v", w.State().SavedTickers)
	}

	wl.Save("AMD")
	w.Refresh()
	if !slices.Equal(w.State().SavedTickers, []string{"MSFT", "AMD"}) {
		t.Errorf("after Refresh SavedTickers = %v", w.State().SavedTickers)
	}
	if err := w.LoadStocks(context.Background()); err != nil {
		t.Fatalf("LoadStocks: %v", err)
	}
	if len(w.State().Stocks) != 1 {
		t.Errorf("Stocks = %v", w.State().Stocks)
	}
}

func TestWatchlistRowNoFallback(t *testing.T) {
	r := NewWatchlistRow(&fakeFetcher{})
	if err := r.LoadDetails(context.Background(), "aapl"); err == nil {
		t.Fatal("expected error")
	}
	if r.State().Details != nil {
		t.Error("row should not fall back to preview details")
	}

	r = NewWatchlistRow(&fakeFetcher{bodies: map[string]string{
		"/stock-details": `{"company_full_name":"Apple Inc.","price":190.5,"change_in_day":-1.2,"market_cap":"$3.00T","volume":"N/A","news_buzz":"0.120000","prices_history":[1,2],"news_sentiment":{"bullish":1,"bearish":0,"neutral":2},"recent_news":[]}`,
	}})
	if err := r.LoadDetails(context.Background(), "aapl"); err != nil {
		t.Fatalf("LoadDetails: %v", err)
	}
	d := r.State().Details
	if d == nil || d.Price != 190.5 || d.NewsSentiment.Total() != 3 {
		t.Errorf("Details = %+v", d)
	}
}

func TestWatchlistRowFailureClearsPreviousDetails(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{
		"/stock-details": `{"company_full_name":"Apple Inc.","price":190.5}`,
	}}
	r := NewWatchlistRow(f)
	if err := r.LoadDetails(context.Background(), "AAPL"); err != nil {
		t.Fatalf("LoadDetails: %v", err)
	}

	f.mu.Lock()
	delete(f.bodies, "/stock-details")
	f.mu.Unlock()

	if err := r.LoadDetails(context.Background(), "MSFT"); err == nil {
		t.Fatal("expected error")
	}
	s := r.State()
	if s.Ticker != "MSFT" || s.Details != nil {
		t.Errorf("state = %+v, want MSFT with no details", s)
	}
}
