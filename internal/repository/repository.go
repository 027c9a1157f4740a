// Package repository handles all interactions with the document store.
//
// Repositories translate typed calls into Store calls, classify store
// errors and record store metrics, keeping driver concerns away from the
// service layer.
package repository

import (
	"context"
	"time"

	"github.com/deppfellow/trialbroker/internal/database"
	"github.com/deppfellow/trialbroker/internal/errs"
	"github.com/deppfellow/trialbroker/internal/metrics"
	"github.com/deppfellow/trialbroker/internal/model"
	"github.com/deppfellow/trialbroker/internal/query"
	"github.com/deppfellow/trialbroker/internal/storeerr"
	"github.com/rs/zerolog"
)

// RecordRepository persists and queries one collection of T.
type RecordRepository[T model.Record] struct {
	store      database.Store
	metrics    *metrics.Manager
	collection string
}

// NewRecordRepository builds a repository over collection. store may be
// nil, in which case every call fails with errs.ErrNotConfigured.
func NewRecordRepository[T model.Record](store database.Store, m *metrics.Manager, collection string) *RecordRepository[T] {
	return &RecordRepository[T]{
		store:      store,
		metrics:    m,
		collection: collection,
	}
}

// Collection returns the collection this repository reads and writes.
func (r *RecordRepository[T]) Collection() string {
	return r.collection
}

// Insert stores record and returns its id.
func (r *RecordRepository[T]) Insert(ctx context.Context, record T) (string, error) {
	if r.store == nil {
		return "", storeerr.Wrap(errs.ErrNotConfigured, r.collection, "insert")
	}

	start := time.Now()
	id, err := r.store.InsertOne(ctx, r.collection, record)
	r.metrics.RecordStoreOperation(r.collection, "insert", time.Since(start), err)
	if err != nil {
		r.logFailure(ctx, "insert", err)
		return "", storeerr.Wrap(err, r.collection, "insert")
	}

	return id, nil
}

// Find returns every record matching filter, in store order.
func (r *RecordRepository[T]) Find(ctx context.Context, filter query.Filter) ([]T, error) {
	if r.store == nil {
		return nil, storeerr.Wrap(errs.ErrNotConfigured, r.collection, "find")
	}

	records := []T{}

	start := time.Now()
	err := r.store.Find(ctx, r.collection, filter, &records)
	r.metrics.RecordStoreOperation(r.collection, "find", time.Since(start), err)
	if err != nil {
		r.logFailure(ctx, "find", err)
		return nil, storeerr.Wrap(err, r.collection, "find")
	}

	return records, nil
}

// logFailure logs on the request logger that EnhanceContext put in ctx.
func (r *RecordRepository[T]) logFailure(ctx context.Context, op string, err error) {
	zerolog.Ctx(ctx).Warn().
		Err(err).
		Str("collection", r.collection).
		Str("operation", op).
		Msg("store operation failed")
}
