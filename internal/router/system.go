package router

import (
	"github.com/deppfellow/trialbroker/internal/handler"
	"github.com/deppfellow/trialbroker/internal/server"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers the endpoints outside /api: banner,
// diagnostics, schema, health, metrics and docs.
func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/", h.System.Root)
	r.GET("/test", h.System.Diagnostics)
	r.GET("/schema", h.System.Schema)

	r.GET("/status", h.Health.CheckHealth)
	r.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))

	r.Static("/static", handler.StaticDir)
	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
