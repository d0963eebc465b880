package watchlist

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/user-dev-arch/MarketSentimentApp/internal/prefs"
)

func newTestStore(t *testing.T) (*Store, *prefs.Store) {
	t.Helper()
	p, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("prefs.Open: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	s, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, p
}

func TestEmptyByDefault(t *testing.T) {
	s, _ := newTestStore(t)
	if got := s.All(); got == nil || len(got) != 0 {
		t.Errorf("All = %v, want empty", got)
	}
	if s.IsSaved("AAPL") {
		t.Error("IsSaved on empty list")
	}
}

func TestSaveKeepsOrderAndIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	for _, tk := range []string{"aapl", "TSLA", " AAPL ", "nvda"} {
		if err := s.Save(tk); err != nil {
			t.Fatalf("Save(%q): %v", tk, err)
		}
	}
	want := []string{"AAPL", "TSLA", "NVDA"}
	if got := s.All(); !slices.Equal(got, want) {
		t.Errorf("All = %v, want %v", got, want)
	}
	if !s.IsSaved("tsla") {
		t.Error("IsSaved(tsla) = false")
	}
}

func TestRemoveAllOccurrences(t *testing.T) {
	s, p := newTestStore(t)
	p.Set(Key, []string{"AAPL", "TSLA", "AAPL"})

	if err := s.Remove("aapl"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := s.All(); !slices.Equal(got, []string{"TSLA"}) {
		t.Errorf("All = %v, want [TSLA]", got)
	}
	if err := s.Remove("MSFT"); err != nil {
		t.Errorf("Remove missing ticker: %v", err)
	}
}

func TestCorruptValueReadsEmpty(t *testing.T) {
	s, p := newTestStore(t)
	p.SetRaw(Key, []byte(`"not a list"`))
	if got := s.All(); len(got) != 0 {
		t.Errorf("All = %v, want empty", got)
	}
	if err := s.Save("AMD"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := s.All(); !slices.Equal(got, []string{"AMD"}) {
		t.Errorf("All = %v, want [AMD]", got)
	}
}

func TestClear(t *testing.T) {
	s, _ := newTestStore(t)
	s.Save("AAPL")
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(s.All()) != 0 {
		t.Error("Clear left tickers behind")
	}
}
