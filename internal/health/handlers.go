package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for health endpoints.
type Handlers struct {
	health *Service
}

// NewHandlers creates new health handlers.
func NewHandlers(health *Service) *Handlers {
	return &Handlers{health: health}
}

// RegisterRoutes registers health routes on the given group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetSummary)
	g.GET("/:id", h.GetItem)
}

// GetSummary returns all tracked items.
// GET /api/v1/health
func (h *Handlers) GetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetSummary())
}

// GetItem returns one tracked item.
// GET /api/v1/health/:id
func (h *Handlers) GetItem(c echo.Context) error {
	item := h.health.GetItem(c.Param("id"))
	if item == nil {
		return echo.NewHTTPError(http.StatusNotFound, "health item not found")
	}
	return c.JSON(http.StatusOK, item)
}
