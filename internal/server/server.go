// Package server exposes the read-only dashboard API described in
// spec.md §6: overview stats, top wallets, recent trades, trending
// tokens, recent alerts, paper-trading status, full CRUD over the
// custom watchlist, a process/adapter health endpoint, and a
// best-effort websocket fan-out of new alerts. It never mutates
// pipeline state beyond the custom watchlist table.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/confluence"
	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/internal/papertrader"
	"github.com/aristath/alphawallet/internal/priceroute"
	"github.com/aristath/alphawallet/internal/store"
)

// Config holds everything the dashboard API reads from or writes to.
type Config struct {
	Port    int
	Log     zerolog.Logger
	DevMode bool

	Tokens     *store.TokenRepository
	Seeds      *store.SeedTokenRepository
	Wallets    *store.WalletRepository
	Trades     *store.TradeRepository
	Positions  *store.PositionRepository
	Stats      *store.WalletStatsRepository
	Watchlist  *store.WatchlistRepository
	Custom     *store.CustomWalletRepository
	Alerts     *store.AlertRepository
	Health     *store.SourceHealthRepository
	Trader     *papertrader.Trader
	Router     *priceroute.Router
	Detector   *confluence.Detector
	StartedAt  time.Time
	JobHealth  *JobHealthTracker
}

// Server is the HTTP surface over the entity store.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
	hub    *alertHub
}

// New builds a Server, wires its routes, and creates the websocket
// fan-out hub.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
		hub:    newAlertHub(cfg.Log),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// BroadcastAlert pushes a new alert to every connected dashboard. It
// never blocks the caller: a client whose channel is full misses this
// alert rather than being waited on, since this is a pure read-side convenience and an alert
// that misses the socket is still in the entity store.
func (s *Server) BroadcastAlert(alert domain.Alert) {
	s.hub.broadcast(alert)
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ws/alerts", s.handleAlertsWS)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/overview", s.handleOverview)
			r.Get("/top-wallets", s.handleTopWallets)
			r.Get("/recent-trades", s.handleRecentTrades)
			r.Get("/trending-tokens", s.handleTrendingTokens)
			r.Get("/recent-alerts", s.handleRecentAlerts)
			r.Get("/paper-trader", s.handlePaperTraderStatus)
		})

		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", s.handleListWatchlist)
			r.Post("/", s.handleAddWatchlistWallet)
			r.Delete("/{address}", s.handleRemoveWatchlistWallet)
		})
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server, including any open
// websocket connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	s.hub.closeAll()
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
