package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BidyutOffice/cinescope/internal/config"
	"github.com/BidyutOffice/cinescope/internal/detail"
	"github.com/BidyutOffice/cinescope/internal/metadata"
	"github.com/BidyutOffice/cinescope/internal/metadata/tmdb"
	"github.com/BidyutOffice/cinescope/internal/scheduler"
)

// StatusResponse describes the running server.
type StatusResponse struct {
	Version     string               `json:"version"`
	StartTime   string               `json:"startTime"`
	Uptime      string               `json:"uptime"`
	Provider    string               `json:"provider"`
	Configured  bool                 `json:"configured"`
	Region      string               `json:"region"`
	VideoSite   string               `json:"videoSite"`
	CachedItems int                  `json:"cachedItems"`
	Clients     int                  `json:"clients"`
	Tasks       []scheduler.TaskInfo `json:"tasks"`
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	resp := StatusResponse{
		Version:    config.Version,
		StartTime:  s.startTime.Format(time.RFC3339),
		Uptime:     time.Since(s.startTime).Round(time.Second).String(),
		Provider:   s.source.Name(),
		Configured: s.source.IsConfigured(),
		Region:     s.cfg.Detail.Region,
		VideoSite:  s.cfg.Detail.VideoSite,
		Tasks:      []scheduler.TaskInfo{},
	}
	if cache := s.source.Cache(); cache != nil {
		resp.CachedItems = cache.Len()
	}
	if s.hub != nil {
		resp.Clients = s.hub.ClientCount()
	}
	if s.scheduler != nil {
		resp.Tasks = s.scheduler.ListTasks()
	}

	return c.JSON(http.StatusOK, resp)
}

// searchMovies looks movies up by title.
// GET /api/v1/search?q=matrix&year=1999
func (s *Server) searchMovies(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}

	year := 0
	if raw := c.QueryParam("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "year must be a positive integer")
		}
		year = y
	}

	results, err := s.source.SearchMovies(c.Request().Context(), query, year)
	if err != nil {
		switch {
		case errors.Is(err, metadata.ErrNoProvidersConfigured):
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, tmdb.ErrRateLimited):
			return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
		default:
			s.logger.Warn().Err(err).Str("query", query).Msg("Search failed")
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
	}

	return c.JSON(http.StatusOK, results)
}

// getDiagnostics returns recent secondary fetch failures, newest last.
// GET /api/v1/diagnostics?limit=50
func (s *Server) getDiagnostics(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}

	diags := s.diagnostics.Last(limit)
	if diags == nil {
		diags = []detail.Diagnostic{}
	}
	return c.JSON(http.StatusOK, diags)
}

// clearCache drops every cached upstream response.
// DELETE /api/v1/cache
func (s *Server) clearCache(c echo.Context) error {
	removed := 0
	if cache := s.source.Cache(); cache != nil {
		removed = cache.Clear()
	}
	s.logger.Info().Int("removed", removed).Msg("Metadata cache cleared")
	return c.JSON(http.StatusOK, map[string]int{"removed": removed})
}

// queryLimit parses the optional limit query parameter. Zero means no limit.
func queryLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
	}
	return limit, nil
}
