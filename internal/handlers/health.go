package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports per-store status. *config.DB satisfies it.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// HealthCheck returns 503 when any store reports "down".
func HealthCheck(checker HealthChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		stores := checker.Health(c.Request().Context())

		status, code := "healthy", http.StatusOK
		for _, s := range stores {
			if s == "down" {
				status, code = "unhealthy", http.StatusServiceUnavailable
				break
			}
		}

		return c.JSON(code, echo.Map{
			"status":  status,
			"service": "soundscape-api",
			"stores":  stores,
		})
	}
}
