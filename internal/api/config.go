package api

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the server configuration, loaded from environment variables.
type Config struct {
	ListenAddr      string
	DBPath          string
	ShutdownTimeout time.Duration
	LogFormat       string // "json" (default) or "console"
	LogLevel        string // "debug", "info" (default), "warn", "error"

	RateLimit float64 // requests per second per client IP; 0 disables
	RateBurst int
	// TrustProxy keys the limiter on X-Forwarded-For instead of the peer
	// address. Enable only behind a reverse proxy that sets the header.
	TrustProxy bool

	CORSAllowedOrigins []string // empty = disabled

	QuoteTTL        time.Duration
	AlphaVantageKey string
	NewsAPIKey      string
}

// LoadConfig reads configuration from environment variables with sensible defaults.
func LoadConfig() Config {
	cfg := Config{
		ListenAddr:      ":8080",
		DBPath:          "./data/market.db",
		ShutdownTimeout: 30 * time.Second,
		LogFormat:       "json",
		LogLevel:        "info",
		RateLimit:       10,
		RateBurst:       20,
		QuoteTTL:        time.Hour,
	}

	if v := os.Getenv("MSENT_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("MSENT_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("MSENT_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	if v := os.Getenv("MSENT_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("MSENT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MSENT_RATE_LIMIT"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n >= 0 {
			cfg.RateLimit = n
			cfg.RateBurst = max(1, int(n*2))
		}
	}
	if v := os.Getenv("MSENT_TRUST_PROXY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.TrustProxy = b
		}
	}
	if v := os.Getenv("MSENT_QUOTE_TTL"); v != "" {
		if d := parseDaysDuration(v); d > 0 {
			cfg.QuoteTTL = d
		}
	}
	cfg.AlphaVantageKey = os.Getenv("ALPHA_VANTAGE_API_KEY")
	cfg.NewsAPIKey = os.Getenv("NEWS_API_KEY")

	if v := os.Getenv("MSENT_CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	return cfg
}

// parseDaysDuration parses a string like "1d", "30d" into a time.Duration.
// Falls back to time.ParseDuration for standard Go durations.
func parseDaysDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		numStr := strings.TrimSuffix(s, "d")
		if n, err := strconv.Atoi(numStr); err == nil && n > 0 {
			return time.Duration(n) * 24 * time.Hour
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return 0
}
