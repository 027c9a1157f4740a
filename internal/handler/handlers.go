// Package handler is the HTTP layer. It binds and validates requests
// through the validation package, calls the service layer and writes
// the JSON response.
package handler

import (
	"github.com/deppfellow/trialbroker/internal/server"
	"github.com/deppfellow/trialbroker/internal/service"
)

type Handlers struct {
	CTU     *CTUHandler
	Sponsor *SponsorHandler
	System  *SystemHandler
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		CTU:     NewCTUHandler(s, services.CTU),
		Sponsor: NewSponsorHandler(s, services.Sponsor),
		System:  NewSystemHandler(s, services.Diagnostics),
		Health:  NewHealthHandler(s, services.Diagnostics),
		OpenAPI: NewOpenAPIHandler(s),
	}
}
