// Package watchlist persists the list of saved tickers.
package watchlist

import (
	"slices"
	"sync"

	"github.com/user-dev-arch/MarketSentimentApp/internal/logging"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/prefs"
)

// Key is the preference key holding the saved tickers.
const Key = "savedStocks"

// Store is the watchlist over a preference store.
type Store struct {
	mu    sync.Mutex
	prefs *prefs.Store
}

// New registers the watchlist default and returns a Store.
func New(p *prefs.Store) (*Store, error) {
	if err := p.Register(map[string]any{Key: []string{}}); err != nil {
		return nil, err
	}
	return &Store{prefs: p}, nil
}

// All returns the saved tickers in insertion order. A missing or unreadable
// value is an empty list.
func (s *Store) All() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// IsSaved reports whether ticker is in the watchlist.
func (s *Store) IsSaved(ticker string) bool {
	return slices.Contains(s.All(), models.NormalizeTicker(ticker))
}

// Save appends ticker. Saving a ticker that is already present is a no-op.
func (s *Store) Save(ticker string) error {
	ticker = models.NormalizeTicker(ticker)
	if ticker == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	saved := s.load()
	if slices.Contains(saved, ticker) {
		return nil
	}
	return s.prefs.Set(Key, append(saved, ticker))
}

// Remove deletes every occurrence of ticker.
func (s *Store) Remove(ticker string) error {
	ticker = models.NormalizeTicker(ticker)

	s.mu.Lock()
	defer s.mu.Unlock()
	saved := s.load()
	kept := slices.DeleteFunc(saved, func(t string) bool { return t == ticker })
	return s.prefs.Set(Key, kept)
}

// Clear empties the watchlist.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Set(Key, []string{})
}

func (s *Store) load() []string {
	var saved []string
	if err := s.prefs.Get(Key, &saved); err != nil {
		logging.Component("watchlist").Warn().Err(err).Msg("reading saved tickers")
		return []string{}
	}
	if saved == nil {
		return []string{}
	}
	return saved
}
