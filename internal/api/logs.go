package api

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/BidyutOffice/cinescope/internal/logger"
)

// LogsProvider provides access to recent log entries.
type LogsProvider interface {
	GetRecentLogs(limit int) []logger.LogEntry
}

// LogsHandlers handles log-related HTTP endpoints.
type LogsHandlers struct {
	provider LogsProvider
	logDir   string
}

// NewLogsHandlers creates a new logs handlers instance. logDir is the
// configured log directory; empty disables downloads.
func NewLogsHandlers(provider LogsProvider, logDir string) *LogsHandlers {
	return &LogsHandlers{provider: provider, logDir: logDir}
}

// RegisterRoutes registers log routes on the given group.
func (h *LogsHandlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRecentLogs)
	g.GET("/download", h.DownloadLogFile)
}

// GetRecentLogs returns recent log entries from the ring buffer.
// GET /api/v1/logs?limit=100
func (h *LogsHandlers) GetRecentLogs(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}

	logs := h.provider.GetRecentLogs(limit)
	if logs == nil {
		logs = []logger.LogEntry{}
	}
	return c.JSON(http.StatusOK, logs)
}

// DownloadLogFile serves the current log file for download.
func (h *LogsHandlers) DownloadLogFile(c echo.Context) error {
	logPath := logger.FilePath(h.logDir)
	if logPath == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no log file configured")
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "log file not found")
	}

	return c.Attachment(logPath, "cinescope.log")
}
