package detail

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Handlers exposes one-shot aggregations over HTTP.
type Handlers struct {
	upstream Upstream
	logger   zerolog.Logger
	opts     []Option
}

// NewHandlers creates detail handlers. opts apply to every aggregation.
func NewHandlers(upstream Upstream, logger zerolog.Logger, opts ...Option) *Handlers {
	return &Handlers{
		upstream: upstream,
		logger:   logger,
		opts:     opts,
	}
}

// RegisterRoutes registers the detail routes with optional route middleware.
func (h *Handlers) RegisterRoutes(g *echo.Group, m ...echo.MiddlewareFunc) {
	g.GET("/movies/:id", h.GetMovie, m...)
}

// GetMovie aggregates the detail view model for one movie.
// GET /api/v1/movies/:id
func (h *Handlers) GetMovie(c echo.Context) error {
	agg := New(h.upstream, h.logger, h.opts...)
	defer agg.Close()

	vm, err := agg.Fetch(c.Request().Context(), MovieID(c.Param("id")))
	if err != nil {
		var detailErr *Error
		if !errors.As(err, &detailErr) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
	}

	return c.JSON(StatusCode(vm.Error), vm)
}

// StatusCode maps an error kind to the HTTP status of a detail response.
func StatusCode(kind ErrorKind) int {
	switch kind {
	case KindNone:
		return http.StatusOK
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
