package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/user-dev-arch/MarketSentimentApp/internal/config"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
)

const testArticleID = "3f0c8e1a-0000-4000-8000-000000000001"

// fakeAPI serves canned bodies keyed by path and records the query strings.
type fakeAPI struct {
	mu      sync.Mutex
	queries map[string]string
	bodies  map[string]string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{
		queries: make(map[string]string),
		bodies: map[string]string{
			"/topMovers":       `[{"ticker":"NVDA","change":"5.10","currentPrice":"120.00"}]`,
			"/newsBuzz":        `[{"ticker":"TSLA","score":"0.500000","companyFullName":"Tesla Inc."}]`,
			"/sentimentMovers": `[{"ticker":"AMD","change":12,"sentimentScore":2}]`,
			"/stocks":          `[{"ticker":"AAPL","companyFullName":"Apple Inc.","changeInDay":"1.25","currentPrice":"190.10","sentimentScore":2}]`,
			"/news": `[{"id":"` + testArticleID + `","ticker":"AAPL","title":"Apple beats estimates","content":"Strong quarter.",` +
				`"source":"Reuters","author":null,"sentiment":null,"date":"2024-05-01T12:00:00Z","link":"https://example.com/a"}]`,
			"/sentiment/" + testArticleID: `{"data":{"sentiment":"Bullish"}}`,
			"/stock-details": `{"companyFullName":"Apple Inc.","price":190.1,"changeInDay":1.25,"marketCap":"2.9T","volume":"50M",` +
				`"newsBuzz":"0.4","pricesHistory":[180,185,190.1],"newsSentiment":{"bullish":3,"bearish":1,"neutral":0},"recentNews":[]}`,
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.queries[r.URL.Path] = r.URL.RawQuery
		body, ok := api.bodies[r.URL.Path]
		api.mu.Unlock()
		if r.URL.Path == "/stock-details" && r.URL.Query().Get("ticker") != "AAPL" {
			ok = false
		}
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"code":"not_found","message":"not found"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) query(path string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.queries[path]
}

// setupCmdEnv points the config at a temp dir and disables retries.
func setupCmdEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MSENT_CONFIG_DIR", t.TempDir())
	t.Setenv("MSENT_API_URL", "")
	t.Setenv("MSENT_LOG_LEVEL", "disabled")
	if err := config.Set("api.retries", "0"); err != nil {
		t.Fatalf("config.Set: %v", err)
	}
}

// resetFlags restores every flag to its default so commands can run again.
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

// runCmd executes the root command with args and returns captured stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	apiURL = ""

	oldOut := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	w.Close()
	os.Stdout = oldOut
	<-done
	return buf.String(), err
}

func TestDashboardCommand(t *testing.T) {
	setupCmdEnv(t)
	_, srv := newFakeAPI(t)

	out, err := runCmd(t, "dashboard", "--api-url", srv.URL)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	for _, want := range []string{"TOP MOVERS", "NVDA", "NEWS BUZZ", "TSLA", "SENTIMENT MOVERS", "AMD"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "sample data") {
		t.Error("unexpected fallback notice")
	}
}

func TestDashboardCommandJSON(t *testing.T) {
	setupCmdEnv(t)
	_, srv := newFakeAPI(t)

	out, err := runCmd(t, "dashboard", "--json", "--api-url", srv.URL)
	if err != nil {
		t.Fatalf("dashboard --json: %v", err)
	}
	var got dashboardJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	if len(got.TopMovers) != 1 || got.TopMovers[0].Ticker != "NVDA" {
		t.Errorf("topMovers = %+v", got.TopMovers)
	}
	if len(got.SentimentMovers) != 1 || got.SentimentMovers[0].SentimentScore != 2 {
		t.Errorf("sentimentMovers = %+v", got.SentimentMovers)
	}
	if got.Sample {
		t.Error("sample = true with a working server")
	}
}

func TestDashboardFallsBackWhenServerDown(t *testing.T) {
	setupCmdEnv(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out, err := runCmd(t, "dashboard", "--json", "--api-url", url)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	var got dashboardJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	if !got.Sample {
		t.Error("sample = false with the server down")
	}
	if len(got.TopMovers) == 0 {
		t.Error("expected sample top movers")
	}
}

func TestStocksCommand(t *testing.T) {
	setupCmdEnv(t)
	api, srv := newFakeAPI(t)

	out, err := runCmd(t, "stocks", "--limit", "5", "--api-url", srv.URL)
	if err != nil {
		t.Fatalf("stocks: %v", err)
	}
	if !strings.Contains(out, "AAPL") {
		t.Errorf("output missing AAPL:\n%s", out)
	}
	if q := api.query("/stocks"); q != "limit=5" {
		t.Errorf("query = %q", q)
	}

	if _, err := runCmd(t, "stocks", "--limit", "0", "--api-url", srv.URL); err == nil {
		t.Error("expected error for --limit 0")
	}
}

func TestNewsCommandFilters(t *testing.T) {
	setupCmdEnv(t)
	api, srv := newFakeAPI(t)

	out, err := runCmd(t, "news", "--sentiment", "bullish", "--stock", "aapl", "--period", "7d", "--limit", "10", "--api-url", srv.URL)
	if err != nil {
		t.Fatalf("news: %v", err)
	}
	if !strings.Contains(out, "Apple beats estimates") {
		t.Errorf("output missing title:\n%s", out)
	}
	q := api.query("/news")
	for _, want := range []string{"limit=10", "sentiment=Bullish", "stocks=AAPL", "timePeriod=7d"} {
		if !strings.Contains(q, want) {
			t.Errorf("query %q missing %q", q, want)
		}
	}
}

func TestNewsCommandRejectsBadFilters(t *testing.T) {
	setupCmdEnv(t)
	_, srv := newFakeAPI(t)

	tests := [][]string{
		{"news", "--period", "2w"},
		{"news", "--sentiment", "euphoric"},
		{"news", "--limit", "-1"},
	}
	for _, args := range tests {
		if _, err := runCmd(t, append(args, "--api-url", srv.URL)...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestNewsShowCommand(t *testing.T) {
	setupCmdEnv(t)
	_, srv := newFakeAPI(t)

	out, err := runCmd(t, "news", "show", testArticleID, "--json", "--api-url", srv.URL)
	if err != nil {
		t.Fatalf("news show: %v", err)
	}
	var got struct {
		ID        string  `json:"id"`
		Sentiment *string `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	if got.ID != testArticleID {
		t.Errorf("id = %q", got.ID)
	}
	if got.Sentiment == nil || *got.Sentiment != "Bullish" {
		t.Errorf("sentiment = %v, want Bullish from the sentiment endpoint", got.Sentiment)
	}

	if _, err := runCmd(t, "news", "show", "does-not-exist", "--api-url", srv.URL); err == nil {
		t.Error("expected error for unknown article")
	}
}

func TestFindArticle(t *testing.T) {
	news := []models.News{{ID: "aaaaaaaa-1"}, {ID: testArticleID}}

	if n, ok := findArticle(news, testArticleID); !ok || n.ID != testArticleID {
		t.Errorf("full id: got %q, %v", n.ID, ok)
	}
	if n, ok := findArticle(news, testArticleID[:8]); !ok || n.ID != testArticleID {
		t.Errorf("short id: got %q, %v", n.ID, ok)
	}
	if _, ok := findArticle(news, "3f0c"); ok {
		t.Error("prefixes shorter than 8 characters must not match")
	}
	if _, ok := findArticle(news, "missing"); ok {
		t.Error("unexpected match")
	}
}

func TestStockCommandSaveAndUnsave(t *testing.T) {
	setupCmdEnv(t)
	api, srv := newFakeAPI(t)

	out, err := runCmd(t, "stock", "aapl", "--save", "--json", "--api-url", srv.URL)
	if err != nil {
		t.Fatalf("stock --save: %v", err)
	}
	var got stockJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	if got.Ticker != "AAPL" || !got.Saved || got.Details == nil || got.Details.CompanyFullName != "Apple Inc." {
		t.Errorf("stock = %+v", got)
	}
	if q := api.query("/stock-details"); q != "ticker=AAPL" {
		t.Errorf("query = %q", q)
	}

	out, err = runCmd(t, "watchlist", "list", "--json", "--api-url", srv.URL)
	if err != nil {
		t.Fatalf("watchlist list: %v", err)
	}
	var rows []watchlistEntry
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	if len(rows) != 1 || rows[0].Ticker != "AAPL" || rows[0].Details == nil {
		t.Errorf("rows = %+v", rows)
	}

	if _, err := runCmd(t, "stock", "AAPL", "--unsave", "--api-url", srv.URL); err != nil {
		t.Fatalf("stock --unsave: %v", err)
	}
	out, err = runCmd(t, "watchlist", "list", "--json", "--api-url", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("watchlist after unsave = %s", out)
	}

	if _, err := runCmd(t, "stock", "AAPL", "--save", "--unsave", "--api-url", srv.URL); err == nil {
		t.Error("expected error for --save with --unsave")
	}
}

func TestWatchlistCommands(t *testing.T) {
	setupCmdEnv(t)
	_, srv := newFakeAPI(t)

	if _, err := runCmd(t, "watchlist", "add", "aapl", "msft", "AAPL"); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, err := runCmd(t, "watchlist", "list", "--api-url", srv.URL)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "AAPL") || !strings.Contains(out, "MSFT") {
		t.Errorf("list output:\n%s", out)
	}
	// MSFT has no details on the fake server.
	if !strings.Contains(out, "unavailable") {
		t.Errorf("expected an unavailable row:\n%s", out)
	}

	if _, err := runCmd(t, "watchlist", "remove", "msft"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := runCmd(t, "watchlist", "clear", "--yes"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	out, err = runCmd(t, "watchlist", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Watchlist is empty") {
		t.Errorf("list after clear:\n%s", out)
	}
}

func TestConfigCommands(t *testing.T) {
	setupCmdEnv(t)

	if _, err := runCmd(t, "config", "set", "api.url", "http://example.com:9000/"); err != nil {
		t.Fatalf("set: %v", err)
	}
	out, err := runCmd(t, "config", "get", "api.url")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if strings.TrimSpace(out) != "http://example.com:9000" {
		t.Errorf("api.url = %q", out)
	}

	if _, err := runCmd(t, "config", "set", "api.url", "ftp://nope"); err == nil {
		t.Error("expected validation error")
	}
	if _, err := runCmd(t, "config", "get", "no.such.key"); err == nil {
		t.Error("expected unknown key error")
	}

	out, err = runCmd(t, "config", "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var values map[string]string
	if err := json.Unmarshal([]byte(out), &values); err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	if values["api.retries"] != "0" || values["api.url"] != "http://example.com:9000" {
		t.Errorf("values = %v", values)
	}
}

func TestVersionCommand(t *testing.T) {
	setupCmdEnv(t)
	SetVersion("v1.2.3")
	defer SetVersion("")

	out, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "msent v1.2.3") {
		t.Errorf("output = %q", out)
	}
}

func TestUnknownFlagSuggestion(t *testing.T) {
	setupCmdEnv(t)
	_, err := runCmd(t, "news", "--sentimnt", "bullish")
	if err == nil || !strings.Contains(err.Error(), "did you mean --sentiment?") {
		t.Errorf("err = %v", err)
	}
}

func TestConfigKeyHint(t *testing.T) {
	err := fmt.Errorf("%w: api.ur", config.ErrUnknownKey)
	if got := keyHint(err, "api.ur"); !strings.Contains(got, "api.url") {
		t.Errorf("keyHint = %q", got)
	}
	if got := keyHint(err, "qqqqqqqqqq"); !strings.Contains(got, "msent config --help") {
		t.Errorf("keyHint = %q", got)
	}
	if got := keyHint(errors.New("other"), "api.ur"); got != "" {
		t.Errorf("keyHint for other errors = %q", got)
	}
}
