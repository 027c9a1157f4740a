package middleware

import (
	"strconv"
	"time"

	"github.com/deppfellow/trialbroker/internal/server"
	"github.com/labstack/echo/v4"
)

// MetricsMiddleware records request counts and latency per route.
type MetricsMiddleware struct {
	server *server.Server
}

func NewMetricsMiddleware(s *server.Server) *MetricsMiddleware {
	return &MetricsMiddleware{server: s}
}

// Record observes every request. The status is the one the global error
// handler will write when the handler returned an error.
func (m *MetricsMiddleware) Record() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = statusFromError(err, status)
			}

			m.server.Metrics.RecordHTTPRequest(
				routeOf(c),
				c.Request().Method,
				strconv.Itoa(status),
				time.Since(start),
			)

			return err
		}
	}
}
