package repository

import (
	"context"

	"github.com/deppfellow/trialbroker/internal/database"
	"github.com/deppfellow/trialbroker/internal/errs"
)

// SystemRepository exposes store-level operations used by diagnostics
// and health checks.
type SystemRepository struct {
	store database.Store
}

func NewSystemRepository(store database.Store) *SystemRepository {
	return &SystemRepository{store: store}
}

// Configured reports whether a store was available at startup.
func (r *SystemRepository) Configured() bool {
	return r.store != nil
}

// DatabaseName returns the store's database name, or "" without a store.
func (r *SystemRepository) DatabaseName() string {
	if r.store == nil {
		return ""
	}
	return r.store.Name()
}

func (r *SystemRepository) ListCollectionNames(ctx context.Context) ([]string, error) {
	if r.store == nil {
		return nil, errs.ErrNotConfigured
	}
	return r.store.ListCollectionNames(ctx)
}

func (r *SystemRepository) Ping(ctx context.Context) error {
	if r.store == nil {
		return errs.ErrNotConfigured
	}
	return r.store.Ping(ctx)
}
