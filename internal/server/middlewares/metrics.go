package middlewares

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/itemd/internal/metrics"
)

// Metrics records request counters, latencies and the number of in-flight requests.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			metrics.IncInFlight()
			defer metrics.DecInFlight()

			start := time.Now()
			if err = next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.ObserveHTTP(c.Request().Method, route, c.Response().Status, time.Since(start))

			return nil
		}
	}
}
