// Package server defines the core Server struct that composes the app's main dependencies.
//
// It contains the initialization logic to spin up the HTTP server
// and handles graceful shutdowns
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - the document store (possibly absent)
//   - the Prometheus metrics manager
//   - http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/trialbroker/internal/config"
	"github.com/deppfellow/trialbroker/internal/database"
	"github.com/deppfellow/trialbroker/internal/errs"
	"github.com/deppfellow/trialbroker/internal/metrics"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/trialbroker/internal/logger"
)

// Server is the application container that holds shared resources.
//
// It is not the HTTP server itself. It holds the config, the loggers, the
// store, the metrics manager and an internal *http.Server.
type Server struct {
	Config *config.Config
	Logger *zerolog.Logger

	// LoggerService optionally holds the New Relic application instance.
	LoggerService *loggerPkg.LoggerService

	// Store is nil when no store could be opened; StoreErr then says why.
	Store    database.Store
	StoreErr error

	Metrics *metrics.Manager

	httpServer *http.Server
}

// New constructs a Server and initializes core dependencies.
//
// It does NOT start the HTTP server. That is done in SetupHTTPServer + Start.
//
// A store that cannot be opened does not block startup: the failure is
// logged, Store stays nil and the record endpoints report it.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	server := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		Metrics:       metrics.NewManager(),
	}

	store, err := openStore(cfg, logger, loggerService)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("document store unavailable, continuing without it")
		server.StoreErr = err
	} else {
		server.Store = store
	}

	return server, nil
}

func openStore(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (database.Store, error) {
	if !cfg.Database.IsConfigured() {
		return nil, errs.ErrNotConfigured
	}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn().Str("database", cfg.Database.Name).Msg("using in-memory store, data is lost on restart")
		return database.NewMemory(cfg.Database.Name), nil
	default:
		db, err := database.New(cfg, logger, loggerService)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return db, nil
	}
}

// SetupHTTPServer configures the internal net/http server around handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:    ":" + s.Config.Server.Port,
		Handler: handler,

		// Config stores whole seconds.
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It blocks until the server stops.
//
// It requires SetupHTTPServer to be called first.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Bool("store", s.Store != nil).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server, then closes the store and
// flushes New Relic.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.Store != nil {
		if err := s.Store.Close(ctx); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	s.LoggerService.Shutdown()

	return nil
}
