package database

import (
	"context"

	"github.com/deppfellow/trialbroker/internal/query"
)

// Store is the document store the repositories talk to.
//
// Implementations must be safe for concurrent use. A nil Store means the
// store is not configured; callers check for that before calling.
type Store interface {
	// Name is the database name reported by diagnostics.
	Name() string

	// InsertOne stores doc in collection and returns the assigned id as a
	// hex string.
	InsertOne(ctx context.Context, collection string, doc any) (string, error)

	// Find decodes every document in collection matching filter into
	// results, which must be a pointer to a slice. Order is store order.
	Find(ctx context.Context, collection string, filter query.Filter, results any) error

	// ListCollectionNames lists the collections that currently exist.
	ListCollectionNames(ctx context.Context) ([]string, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close(ctx context.Context) error
}
