//nolint:revive // Package name 'api' is intentionally generic for the HTTP API layer
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/BidyutOffice/cinescope/internal/api/ratelimit"
	"github.com/BidyutOffice/cinescope/internal/config"
	"github.com/BidyutOffice/cinescope/internal/detail"
	"github.com/BidyutOffice/cinescope/internal/health"
	"github.com/BidyutOffice/cinescope/internal/logger"
	"github.com/BidyutOffice/cinescope/internal/metadata"
	"github.com/BidyutOffice/cinescope/internal/scheduler"
	"github.com/BidyutOffice/cinescope/internal/websocket"
)

const (
	diagnosticsBufferSize = 200

	// tmdbHealthID is the health item fed by fetch diagnostics.
	tmdbHealthID = "tmdb"
)

// Deps are the services a Server exposes. Hub, Logs, Scheduler and Health
// are optional.
type Deps struct {
	Config    *config.Config
	Source    *metadata.Source
	Hub       *websocket.Hub
	Logs      LogsProvider
	Scheduler *scheduler.Scheduler
	Health    *health.Service
	Logger    zerolog.Logger
}

// Server handles HTTP requests for the cinescope API.
type Server struct {
	echo      *echo.Echo
	cfg       *config.Config
	source    *metadata.Source
	hub       *websocket.Hub
	scheduler *scheduler.Scheduler
	health    *health.Service
	limiter   *ratelimit.IPLimiter
	logs      LogsProvider
	logger    zerolog.Logger
	startTime time.Time

	detailLogger zerolog.Logger
	diagnostics  *logger.RingBuffer[detail.Diagnostic]
}

// NewServer creates a new API server instance.
func NewServer(deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:         e,
		cfg:          deps.Config,
		source:       deps.Source,
		hub:          deps.Hub,
		scheduler:    deps.Scheduler,
		health:       deps.Health,
		limiter:      ratelimit.NewIPLimiter(deps.Config.Server.RateLimitPerMinute),
		logs:         deps.Logs,
		logger:       deps.Logger.With().Str("component", "api").Logger(),
		startTime:    time.Now(),
		detailLogger: deps.Logger,
		diagnostics:  logger.NewRingBuffer[detail.Diagnostic](diagnosticsBufferSize),
	}

	if s.hub != nil {
		s.hub.SetAggregatorFactory(s.newAggregator)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// detailOptions are applied to every aggregation the server runs.
func (s *Server) detailOptions() []detail.Option {
	return []detail.Option{
		detail.WithRegion(s.cfg.Detail.Region),
		detail.WithVideoSite(s.cfg.Detail.VideoSite),
		detail.WithTimeout(time.Duration(s.cfg.Detail.TimeoutSeconds) * time.Second),
		detail.WithDiagnostics(s.recordDiagnostic),
	}
}

func (s *Server) newAggregator() *detail.Aggregator {
	return detail.New(s.source, s.detailLogger, s.detailOptions()...)
}

// recordDiagnostic keeps a diagnostic for /api/v1/diagnostics and streams it
// to WebSocket clients. A failed secondary fetch also marks TMDB as degraded.
func (s *Server) recordDiagnostic(d detail.Diagnostic) {
	s.diagnostics.Push(d)
	if s.health != nil {
		s.health.SetWarning(tmdbHealthID, fmt.Sprintf("%s fetch failed for movie %s: %s", d.Fetch, d.MovieID, d.Error))
	}
	if s.hub != nil {
		s.hub.Broadcast(websocket.MessageDetailDiagnostic, d)
	}
}

// Limiter returns the per-IP request limiter.
func (s *Server) Limiter() *ratelimit.IPLimiter {
	return s.limiter
}

// Start starts the HTTP server. It returns nil after Shutdown.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("Starting HTTP server")
	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
