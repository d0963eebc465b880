// Package api is the HTTP server for the market sentiment endpoints.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/user-dev-arch/MarketSentimentApp/internal/market"
	"github.com/user-dev-arch/MarketSentimentApp/internal/store"
)

// Server is the HTTP API server for msent-server.
type Server struct {
	config      Config
	http        *http.Server
	svc         *market.Service
	store       *store.DB
	metrics     *Metrics
	rateLimiter *RateLimiter
	cancel      context.CancelFunc
	addr        net.Addr
}

// NewServer creates a new Server around the market service.
func NewServer(cfg Config, svc *market.Service) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("market service is required")
	}
	s := &Server{
		config:      cfg,
		svc:         svc,
		store:       svc.DB(),
		metrics:     NewMetrics(),
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
	}

	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Addr returns the bound listen address once Start has succeeded.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Start begins listening for HTTP requests (non-blocking).
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.addr = ln.Addr()

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server")
		}
	}()

	// Periodically drop idle rate limit buckets
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("cleanup panic")
			}
		}()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.rateLimiter.Cleanup(10 * time.Minute); n > 0 {
					log.Debug().Int("count", n).Msg("dropped idle rate limit buckets")
				}
			}
		}
	}()

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.http.Shutdown(ctx)
}

// routes builds the HTTP handler with all routes and middleware.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health & metrics
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metricz", s.handleMetrics)

	// Dashboard
	mux.HandleFunc("GET /topMovers", s.handleTopMovers)
	mux.HandleFunc("GET /newsBuzz", s.handleNewsBuzz)
	mux.HandleFunc("GET /sentimentMovers", s.handleSentimentMovers)

	// Stocks & news
	mux.HandleFunc("GET /stocks", s.handleStocks)
	mux.HandleFunc("GET /stock-details", s.handleStockDetails)
	mux.HandleFunc("GET /news", s.handleNews)
	mux.HandleFunc("GET /sentiment/{id}", s.handleSentiment)

	return chain(mux, recoveryMiddleware, requestIDMiddleware, loggerMiddleware, metricsMiddleware(s.metrics), loggingMiddleware, rateLimitMiddleware(s.rateLimiter, s.config.TrustProxy), s.CORSMiddleware)
}

// handleHealth returns a health check response, pinging the database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "detail": "db unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMetrics returns a snapshot of server metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}
