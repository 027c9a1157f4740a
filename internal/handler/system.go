package handler

import (
	"net/http"

	"github.com/deppfellow/trialbroker/internal/middleware"
	"github.com/deppfellow/trialbroker/internal/model"
	"github.com/deppfellow/trialbroker/internal/server"
	"github.com/deppfellow/trialbroker/internal/service"
	"github.com/labstack/echo/v4"
)

const rootMessage = "Clinical Trials Brokerage Backend Running"

// SystemHandler serves the root banner, diagnostics and schema discovery.
// None of these endpoints fail.
type SystemHandler struct {
	Handler
	diagnostics *service.DiagnosticsService
}

func NewSystemHandler(s *server.Server, diagnostics *service.DiagnosticsService) *SystemHandler {
	return &SystemHandler{
		Handler:     NewHandler(s),
		diagnostics: diagnostics,
	}
}

func (h *SystemHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": rootMessage})
}

// Diagnostics reports store connectivity. Probe failures are part of the
// body, the status is always 200.
func (h *SystemHandler) Diagnostics(c echo.Context) error {
	result := h.diagnostics.Probe(c.Request().Context())
	if result.Err != nil {
		middleware.GetLogger(c).Warn().
			Err(result.Err).
			Int("outcome", int(result.Outcome)).
			Msg("store probe did not succeed")
	}

	return c.JSON(http.StatusOK, h.diagnostics.Render(result))
}

func (h *SystemHandler) Schema(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"schemas": model.Collections()})
}
