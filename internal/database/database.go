// Package database contains the logic for establishing
// connections to the document store.
//
// It handles:
//   - the Store contract the repositories depend on
//   - a MongoDB implementation with connection pooling
//   - wiring command logging (local env) and New Relic datastore segments
//   - an in-memory implementation used by the memory driver and by tests
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/trialbroker/internal/config"
	loggerConfig "github.com/deppfellow/trialbroker/internal/logger"
	"github.com/deppfellow/trialbroker/internal/query"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DatabasePingTimeout bounds the startup ping.
const DatabasePingTimeout = 10 * time.Second

// Database wraps the mongo client and the selected database.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zerolog.Logger

	// instrument starts New Relic datastore segments on each call.
	instrument bool
}

var _ Store = (*Database)(nil)

// New connects to MongoDB.
//
// Inputs:
//   - cfg: application config (url, name, pool settings)
//   - logger: main app logger
//   - loggerService: optional New Relic service (nil if not configured)
//
// A bad URL or an unreachable server during Connect is returned as an
// error. A failed startup ping is only logged: the client is kept and the
// driver keeps trying to reach the server in the background.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	if !cfg.Database.IsConfigured() {
		return nil, errors.New("database url and name must both be set")
	}

	clientOptions := options.Client().
		ApplyURI(cfg.Database.URL).
		SetMaxPoolSize(cfg.Database.MaxPoolSize).
		SetConnectTimeout(cfg.Database.ConnectTimeout).
		SetServerSelectionTimeout(cfg.Database.ConnectTimeout).
		SetAppName(cfg.Observability.ServiceName)

	// In local env, log every command. This is very noisy, which is why
	// it's only in local.
	if cfg.Primary.Env == "local" {
		commandLogger := loggerConfig.NewCommandLogger(logger.GetLevel())
		clientOptions.SetMonitor(newCommandMonitor(&commandLogger, cfg.Observability.Logging.SlowQueryThreshold))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	database := &Database{
		client:     client,
		db:         client.Database(cfg.Database.Name),
		log:        logger,
		instrument: loggerService.GetApplication() != nil,
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), DatabasePingTimeout)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		logger.Warn().Err(err).Str("database", cfg.Database.Name).Msg("database ping failed, continuing")
		return database, nil
	}

	logger.Info().Str("database", cfg.Database.Name).Msg("connected to the database")

	return database, nil
}

func (d *Database) Name() string {
	return d.db.Name()
}

func (d *Database) InsertOne(ctx context.Context, collection string, doc any) (string, error) {
	defer d.segment(ctx, collection, "insert").End()

	res, err := d.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		return id.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

func (d *Database) Find(ctx context.Context, collection string, filter query.Filter, results any) error {
	defer d.segment(ctx, collection, "find").End()

	cur, err := d.db.Collection(collection).Find(ctx, filter.BSON())
	if err != nil {
		return err
	}

	// All closes the cursor.
	return cur.All(ctx, results)
}

func (d *Database) ListCollectionNames(ctx context.Context) ([]string, error) {
	return d.db.ListCollectionNames(ctx, primitive.D{})
}

func (d *Database) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client and its pool.
func (d *Database) Close(ctx context.Context) error {
	d.log.Info().Msg("closing database connection")
	return d.client.Disconnect(ctx)
}

// segment starts a New Relic datastore segment on the request's
// transaction. Without APM, or outside a transaction, it is a no-op.
func (d *Database) segment(ctx context.Context, collection, operation string) *newrelic.DatastoreSegment {
	if !d.instrument {
		return &newrelic.DatastoreSegment{}
	}

	txn := newrelic.FromContext(ctx)
	return &newrelic.DatastoreSegment{
		StartTime:    txn.StartSegmentNow(),
		Product:      newrelic.DatastoreMongoDB,
		Collection:   collection,
		Operation:    operation,
		DatabaseName: d.db.Name(),
	}
}

// newCommandMonitor logs every command at debug level and commands slower
// than slowThreshold at warn.
func newCommandMonitor(log *zerolog.Logger, slowThreshold time.Duration) *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(_ context.Context, e *event.CommandStartedEvent) {
			log.Debug().
				Str("command", e.CommandName).
				Str("database", e.DatabaseName).
				Int64("request_id", e.RequestID).
				Str("body", e.Command.String()).
				Msg("command started")
		},
		Succeeded: func(_ context.Context, e *event.CommandSucceededEvent) {
			entry := log.Debug()
			if slowThreshold > 0 && e.Duration > slowThreshold {
				entry = log.Warn().Bool("slow", true)
			}
			entry.
				Str("command", e.CommandName).
				Int64("request_id", e.RequestID).
				Dur("duration", e.Duration).
				Msg("command succeeded")
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			log.Error().
				Str("command", e.CommandName).
				Int64("request_id", e.RequestID).
				Dur("duration", e.Duration).
				Str("failure", e.Failure).
				Msg("command failed")
		},
	}
}
