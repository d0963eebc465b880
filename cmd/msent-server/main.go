package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/user-dev-arch/MarketSentimentApp/internal/api"
	"github.com/user-dev-arch/MarketSentimentApp/internal/config"
	"github.com/user-dev-arch/MarketSentimentApp/internal/logging"
	"github.com/user-dev-arch/MarketSentimentApp/internal/market"
	"github.com/user-dev-arch/MarketSentimentApp/internal/marketdata"
	"github.com/user-dev-arch/MarketSentimentApp/internal/store"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "msent-server",
	Short: "Market sentiment API server and maintenance jobs",
	Long: `msent-server serves the market sentiment API and runs the jobs that
fill its database: populate-stocks, populate-news and analyze.

Configuration comes from the environment (and .env):
  MSENT_LISTEN_ADDR       listen address (default :8080)
  MSENT_DB_PATH           SQLite database (default ./data/market.db)
  MSENT_LOG_LEVEL         debug, info, warn, error
  MSENT_LOG_FORMAT        json or text
  MSENT_SHUTDOWN_TIMEOUT  graceful shutdown timeout
  MSENT_RATE_LIMIT        requests per second per client IP, 0 disables
  MSENT_TRUST_PROXY       key the rate limit on X-Forwarded-For (behind a proxy)
  MSENT_CORS_ORIGINS      comma-separated allowed origins
  MSENT_QUOTE_TTL         quote cache lifetime, e.g. 1h or 1d
  ALPHA_VANTAGE_API_KEY   quotes and news from Alpha Vantage
  NEWS_API_KEY            news from NewsAPI`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to market.db (default: from MSENT_DB_PATH or ./data/market.db)")
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the server config and applies the --db flag.
func loadConfig() api.Config {
	cfg := api.LoadConfig()
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg
}

// openService opens the database and builds the market service with the
// configured upstream providers. The caller closes the returned store.
func openService(cfg api.Config) (*store.DB, *market.Service, error) {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	mdCfg := marketdata.Config{
		AlphaVantageKey: cfg.AlphaVantageKey,
		NewsAPIKey:      cfg.NewsAPIKey,
		QuoteTTL:        cfg.QuoteTTL,
		Transport:       marketdata.TransportOptions{RatePerSec: marketdata.DefaultRate},
	}
	quotes := marketdata.NewQuoteProvider(mdCfg)

	// A nil source keeps NewsSource() nil when no news keys are set.
	var news market.NewsSource
	if agg := marketdata.NewNewsProvider(mdCfg); len(agg.Providers()) > 0 {
		news = agg
	}

	svc := market.New(db, quotes, news, nil, market.Options{QuoteTTL: cfg.QuoteTTL})
	return db, svc, nil
}

func runServe() error {
	cfg := loadConfig()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, svc, err := openService(cfg)
	if err != nil {
		log.Error().Err(err).Msg("open service")
		return err
	}
	defer db.Close()

	srv, err := api.NewServer(cfg, svc)
	if err != nil {
		log.Error().Err(err).Msg("create server")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(); err != nil {
		log.Error().Err(err).Msg("start server")
		return err
	}
	log.Info().
		Str("addr", srv.Addr().String()).
		Str("db", cfg.DBPath).
		Bool("alpha_vantage", marketdata.Config{AlphaVantageKey: cfg.AlphaVantageKey}.HasAlphaVantage()).
		Bool("news", svc.NewsSource() != nil).
		Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown")
		return err
	}
	return nil
}
