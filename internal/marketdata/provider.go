package marketdata

import "time"

// demoKey is the placeholder Alpha Vantage key that means "no key".
const demoKey = "demo"

// Config selects and configures upstream providers.
type Config struct {
	AlphaVantageKey string
	NewsAPIKey      string
	QuoteTTL        time.Duration
	Transport       TransportOptions

	// Base URL overrides, empty for the public endpoints.
	YahooURL        string
	AlphaVantageURL string
	NewsAPIURL      string
}

// HasAlphaVantage reports whether a usable Alpha Vantage key is configured.
func (c Config) HasAlphaVantage() bool {
	return c.AlphaVantageKey != "" && c.AlphaVantageKey != demoKey
}

// NewQuoteProvider returns Alpha Vantage when a key is configured, otherwise
// Yahoo Finance, cached for QuoteTTL.
func NewQuoteProvider(cfg Config) QuoteProvider {
	var p QuoteProvider
	if cfg.HasAlphaVantage() {
		p = NewAlphaVantage(cfg.AlphaVantageURL, cfg.AlphaVantageKey, cfg.Transport)
	} else {
		p = NewYahoo(cfg.YahooURL, cfg.Transport)
	}
	return WithCache(p, cfg.QuoteTTL)
}

// NewNewsProvider returns an aggregator over NewsAPI and Alpha Vantage,
// each included only when its key is set. With no keys the aggregator is
// empty and every Fetch returns no articles.
func NewNewsProvider(cfg Config) *NewsAggregator {
	var providers []NewsProvider
	if cfg.NewsAPIKey != "" {
		providers = append(providers, NewNewsAPI(cfg.NewsAPIURL, cfg.NewsAPIKey, cfg.Transport))
	}
	if cfg.HasAlphaVantage() {
		providers = append(providers, NewAlphaVantage(cfg.AlphaVantageURL, cfg.AlphaVantageKey, cfg.Transport))
	}
	return NewNewsAggregator(providers...)
}
