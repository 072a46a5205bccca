package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/swingdesk/internal/domain"
	"github.com/alanyoungcy/swingdesk/internal/metrics"
	"github.com/alanyoungcy/swingdesk/internal/server/handler"
	"github.com/alanyoungcy/swingdesk/internal/server/middleware"
	"github.com/alanyoungcy/swingdesk/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
	// RateLimit requests per RateWindow per client IP. Zero disables it.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Audit and Events may be nil.
type Handlers struct {
	Health     *handler.HealthHandler
	Positions  *handler.PositionHandler
	Cycle      *handler.CycleHandler
	Candidates *handler.CandidateHandler
	Quotes     *handler.QuoteHandler
	Audit      *handler.AuditHandler
	Events     *handler.EventHandler
}

// Deps are optional collaborators of the server.
type Deps struct {
	Hub     *ws.Hub
	Metrics *metrics.Registry
	Limiter domain.RateLimiter
}

// Server is the HTTP + WebSocket query surface.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// NewServer registers every route and wraps the mux in CORS, logging, rate
// limiting and auth, outermost first.
func NewServer(cfg Config, handlers Handlers, deps Deps, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/positions", handlers.Positions.ListPositions)
	mux.HandleFunc("POST /api/positions", handlers.Positions.OpenPosition)
	mux.HandleFunc("GET /api/positions/{id}", handlers.Positions.GetPosition)
	mux.HandleFunc("POST /api/positions/{id}/close", handlers.Positions.ClosePosition)
	mux.HandleFunc("PUT /api/positions/{id}/notes", handlers.Positions.UpdateNotes)

	mux.HandleFunc("GET /api/evaluations", handlers.Cycle.Evaluations)
	mux.HandleFunc("GET /api/slots", handlers.Cycle.Slots)
	mux.HandleFunc("GET /api/brief", handlers.Cycle.Brief)
	mux.HandleFunc("POST /api/brief/run", handlers.Cycle.RunBrief)

	mux.HandleFunc("GET /api/candidates", handlers.Candidates.ListCandidates)
	mux.HandleFunc("PUT /api/candidates", handlers.Candidates.ReplaceCandidates)

	mux.HandleFunc("POST /api/quotes", handlers.Quotes.RecordQuotes)

	if handlers.Audit != nil {
		mux.HandleFunc("GET /api/audit", handlers.Audit.ListAudit)
	}
	if handlers.Events != nil {
		mux.HandleFunc("GET /api/events/{stream}", handlers.Events.Replay)
	}
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}
	if deps.Hub != nil {
		mux.HandleFunc("GET /ws", deps.Hub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey, "/api/health", "/metrics")(h)
	if deps.Limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(deps.Limiter, cfg.RateLimit, cfg.RateWindow, logger)(h)
	}
	h = middleware.Logging(logger, deps.Metrics)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		handler: h,
		logger:  logger,
	}
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
