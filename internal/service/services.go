// Package service contains the business logic.
//
// It sits between the handler and repository layers.
// It receives validated data from the handler, performs
// business operations, and calls repository methods to interact
// with the data
package service

import (
	"github.com/deppfellow/trialbroker/internal/model"
	"github.com/deppfellow/trialbroker/internal/repository"
	"github.com/deppfellow/trialbroker/internal/server"
)

type Services struct {
	CTU         *RecordService[*model.CTU]
	Sponsor     *RecordService[*model.Sponsor]
	Diagnostics *DiagnosticsService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	diagnostics := NewDiagnosticsService(
		repos.System,
		s.StoreErr,
		s.Config.Database.URL != "",
		s.Config.Observability.HealthChecks.Timeout,
	)

	return &Services{
		CTU:         NewRecordService(repos.CTU, s.Metrics),
		Sponsor:     NewRecordService(repos.Sponsor, s.Metrics),
		Diagnostics: diagnostics,
	}, nil
}
