// Package middleware holds echo middleware shared by the API server.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

var securityHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "no-referrer",
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
}

// SecurityHeaders sets hardening headers on every response. Responses under
// noStorePrefix are also marked uncacheable, since detail payloads are
// per-request snapshots.
func SecurityHeaders(noStorePrefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for name, value := range securityHeaders {
				h.Set(name, value)
			}

			if noStorePrefix != "" && strings.HasPrefix(c.Request().URL.Path, noStorePrefix) {
				h.Set("Cache-Control", "no-store")
			}

			return next(c)
		}
	}
}
