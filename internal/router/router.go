// Package router builds the echo instance: it installs the middleware
// chain in order and maps every path to its handler.
package router

import (
	"net/http"

	"github.com/deppfellow/trialbroker/internal/handler"
	"github.com/deppfellow/trialbroker/internal/middleware"
	"github.com/deppfellow/trialbroker/internal/model"
	"github.com/deppfellow/trialbroker/internal/server"
	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	// Request id first so every later layer can log it; the tracing
	// transaction must exist before the context logger reads its ids.
	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Metrics.Record(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, s, h)

	api := router.Group("/api")
	registerRecordRoutes(api, h)

	return router
}

func registerRecordRoutes(g *echo.Group, h *handler.Handlers) {
	g.POST("/ctus", handler.Handle(h.CTU.Handler, h.CTU.Create, http.StatusOK, model.NewCTU))
	g.GET("/ctus", handler.Handle(h.CTU.Handler, h.CTU.List, http.StatusOK, model.NewCTUListQuery))

	g.POST("/sponsors", handler.Handle(h.Sponsor.Handler, h.Sponsor.Create, http.StatusOK, model.NewSponsor))
	g.GET("/sponsors", handler.Handle(h.Sponsor.Handler, h.Sponsor.List, http.StatusOK, model.NewSponsorListQuery))
}
