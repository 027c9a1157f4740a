package repository

import (
	"github.com/deppfellow/trialbroker/internal/model"
	"github.com/deppfellow/trialbroker/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	CTU     *RecordRepository[*model.CTU]
	Sponsor *RecordRepository[*model.Sponsor]
	System  *SystemRepository
}

// NewRepositories constructs the repository container over the server's
// store. The store may be nil when none is configured.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		CTU:     NewRecordRepository[*model.CTU](s.Store, s.Metrics, model.CollectionCTU),
		Sponsor: NewRecordRepository[*model.Sponsor](s.Store, s.Metrics, model.CollectionSponsor),
		System:  NewSystemRepository(s.Store),
	}
}
