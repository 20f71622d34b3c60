package metrics

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// EchoMiddleware records request counts and durations labelled by route
// template, so path parameters do not explode label cardinality.
func EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ActiveConnections.Inc()
			defer ActiveConnections.Dec()

			method := c.Request().Method
			timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
				HttpRequestDuration.WithLabelValues(method, c.Path()).Observe(v)
			}))

			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is final
				c.Error(err)
			}

			timer.ObserveDuration()
			HttpRequestsTotal.WithLabelValues(method, c.Path(), strconv.Itoa(c.Response().Status)).Inc()
			return nil
		}
	}
}
