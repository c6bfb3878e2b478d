package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/arcmarket/arcx/internal/domain"
	"github.com/arcmarket/arcx/internal/server/handler"
	"github.com/arcmarket/arcx/internal/server/middleware"
	"github.com/arcmarket/arcx/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
	AdminAPIKey string // if empty, admin endpoints fall back to APIKey

	// RateLimit requests per RateLimitWindow per client; zero disables
	// limiting. Requires a RateLimiter to be supplied.
	RateLimit       int
	RateLimitWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health  *handler.HealthHandler
	Matches *handler.MatchHandler
	Orders  *handler.OrderHandler
	Admin   *handler.AdminHandler
}

// Server is the headless HTTP + WebSocket API for the exchange.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (rate limiting, logging, CORS, auth) and attaches
// the WebSocket hub. limiter may be nil when rate limiting is disabled.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Match endpoints.
	mux.HandleFunc("POST /api/matches/taker-bid", handlers.Matches.TakerBid)
	mux.HandleFunc("POST /api/matches/taker-ask", handlers.Matches.TakerAsk)
	mux.HandleFunc("POST /api/matches/taker-bid-native", handlers.Matches.TakerBidNative)
	mux.HandleFunc("GET /api/matches", handlers.Matches.ListMatches)
	mux.HandleFunc("GET /api/matches/{id}", handlers.Matches.GetMatch)

	// Order cancellation and nonce inspection.
	mux.HandleFunc("POST /api/orders/cancel-all", handlers.Orders.CancelAll)
	mux.HandleFunc("POST /api/orders/cancel", handlers.Orders.Cancel)
	mux.HandleFunc("GET /api/orders/nonce", handlers.Orders.NonceStatus)

	// Administrative endpoints behind the admin key.
	adminKey := cfg.AdminAPIKey
	if adminKey == "" {
		adminKey = cfg.APIKey
	}
	adminAuth := middleware.Auth(adminKey)
	admin := func(h http.HandlerFunc) http.Handler {
		return adminAuth(h)
	}
	mux.Handle("POST /api/admin/currencies", admin(handlers.Admin.AddCurrency))
	mux.Handle("DELETE /api/admin/currencies/{address}", admin(handlers.Admin.RemoveCurrency))
	mux.Handle("GET /api/admin/currencies", admin(handlers.Admin.ListCurrencies))
	mux.Handle("POST /api/admin/strategies", admin(handlers.Admin.EnableStrategy))
	mux.Handle("DELETE /api/admin/strategies/{address}", admin(handlers.Admin.RemoveStrategy))
	mux.Handle("GET /api/admin/strategies", admin(handlers.Admin.ListStrategies))
	mux.Handle("POST /api/admin/royalties", admin(handlers.Admin.UpdateRoyalty))
	mux.Handle("GET /api/admin/royalties/{address}", admin(handlers.Admin.GetRoyalty))
	mux.Handle("PUT /api/admin/fee-recipient", admin(handlers.Admin.UpdateFeeRecipient))
	mux.Handle("POST /api/admin/relays", admin(handlers.Admin.AddRelay))
	mux.Handle("DELETE /api/admin/relays/{address}", admin(handlers.Admin.RemoveRelay))
	mux.Handle("POST /api/admin/archive", admin(handlers.Admin.TriggerArchive))
	mux.Handle("GET /api/admin/audit", admin(handlers.Admin.ListAudit))

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply auth middleware (skips if both keys are empty). The admin key is
	// accepted here so admin clients pass the outer gate; the per-route admin
	// middleware then requires it specifically.
	h = middleware.Auth(cfg.APIKey, cfg.AdminAPIKey)(h)

	// Apply per-client rate limiting when configured.
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateLimitWindow)(h)
	}

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
