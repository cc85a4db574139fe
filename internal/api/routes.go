package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/BidyutOffice/cinescope/internal/api/handlers"
	apimw "github.com/BidyutOffice/cinescope/internal/api/middleware"
	"github.com/BidyutOffice/cinescope/internal/detail"
	"github.com/BidyutOffice/cinescope/internal/health"
)

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID
	s.echo.Use(middleware.RequestID())

	s.echo.Use(apimw.SecurityHeaders("/api"))

	s.echo.Use(middleware.BodyLimit("64K"))

	// CORS
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Request logging
	s.echo.Use(apimw.RequestLogger(s.logger))

	// Gzip compression
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// Skip compression for WebSocket
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)

	limited := s.limiter.Middleware()
	detail.NewHandlers(s.source, s.detailLogger, s.detailOptions()...).RegisterRoutes(api, limited)
	api.GET("/search", s.searchMovies, limited)
	api.GET("/diagnostics", s.getDiagnostics)
	api.DELETE("/cache", s.clearCache)

	if s.logs != nil {
		NewLogsHandlers(s.logs, s.cfg.Logging.Path).RegisterRoutes(api.Group("/logs"))
	}

	if s.health != nil {
		health.NewHandlers(s.health).RegisterRoutes(api.Group("/health"))
	}

	if s.scheduler != nil {
		handlers.NewSchedulerHandler(s.scheduler).RegisterRoutes(api.Group("/scheduler"))
	}

	if s.hub != nil {
		s.echo.GET("/ws", s.hub.HandleWebSocket)
	}
}
