package handler

import (
	"net/http"
	"time"

	"github.com/deppfellow/trialbroker/internal/middleware"
	"github.com/deppfellow/trialbroker/internal/server"
	"github.com/deppfellow/trialbroker/internal/service"
	"github.com/labstack/echo/v4"
)

// HealthHandler exposes /status for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
	diagnostics *service.DiagnosticsService
}

func NewHealthHandler(s *server.Server, diagnostics *service.DiagnosticsService) *HealthHandler {
	return &HealthHandler{
		Handler:     NewHandler(s),
		diagnostics: diagnostics,
	}
}

// CheckHealth returns 200 when the store answers a ping and 503 otherwise.
// With health checks disabled it only reports that the process is up.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      make(map[string]interface{}),
	}

	if !h.server.Config.Observability.HealthChecks.Enabled {
		return c.JSON(http.StatusOK, response)
	}

	checks := response["checks"].(map[string]interface{})

	storeStart := time.Now()
	if err := h.diagnostics.Health(c.Request().Context()); err != nil {
		checks["database"] = map[string]interface{}{
			"status":        "unhealthy",
			"response_time": time.Since(storeStart).String(),
			"error":         err.Error(),
		}
		response["status"] = "unhealthy"

		logger.Error().
			Err(err).
			Dur("response_time", time.Since(storeStart)).
			Msg("database health check failed")

		if app := h.server.LoggerService.GetApplication(); app != nil {
			app.RecordCustomEvent("HealthCheckError", map[string]interface{}{
				"check_type":       "database",
				"operation":        "health_check",
				"error_type":       "database_unhealthy",
				"response_time_ms": time.Since(storeStart).Milliseconds(),
				"error_message":    err.Error(),
			})
		}

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	checks["database"] = map[string]interface{}{
		"status":        "healthy",
		"response_time": time.Since(storeStart).String(),
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return c.JSON(http.StatusOK, response)
}
