package service

import (
	"context"
	"time"

	"github.com/deppfellow/trialbroker/internal/metrics"
	"github.com/deppfellow/trialbroker/internal/model"
	"github.com/deppfellow/trialbroker/internal/query"
	"github.com/deppfellow/trialbroker/internal/repository"
	"github.com/deppfellow/trialbroker/internal/storeerr"
)

// RecordService implements create and list for one collection.
type RecordService[T model.Record] struct {
	repo    *repository.RecordRepository[T]
	metrics *metrics.Manager
	now     func() time.Time
}

func NewRecordService[T model.Record](repo *repository.RecordRepository[T], m *metrics.Manager) *RecordService[T] {
	return &RecordService[T]{
		repo:    repo,
		metrics: m,
		now:     time.Now,
	}
}

// Create stores an already validated record and returns its new id.
//
// Client-supplied id and timestamps are replaced. Store failures come back
// as *errs.HTTPError (a PersistenceError unless the driver said otherwise).
func (s *RecordService[T]) Create(ctx context.Context, record T) (string, error) {
	record.Normalize()
	record.Stamp(s.now().UTC())

	id, err := s.repo.Insert(ctx, record)
	if err != nil {
		return "", storeerr.HandleError(err)
	}

	s.metrics.RecordCreated(s.repo.Collection())
	return id, nil
}

// List returns the records matching opts.Filter. When opts.SortBy is set
// the records are sorted in memory (stable, missing values as 0), then cut
// to opts.Limit. The result is never nil.
func (s *RecordService[T]) List(ctx context.Context, opts query.Options) ([]T, error) {
	records, err := s.repo.Find(ctx, opts.Filter)
	if err != nil {
		return nil, storeerr.HandleError(err)
	}

	if opts.SortBy != "" {
		query.Sort(records, opts.SortBy, opts.Order)
	}

	records = query.Truncate(records, opts.Limit)
	if records == nil {
		records = []T{}
	}

	s.metrics.RecordListed(s.repo.Collection(), len(records))
	return records, nil
}
