package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/trialbroker/internal/config"
	"github.com/deppfellow/trialbroker/internal/handler"
	"github.com/deppfellow/trialbroker/internal/logger"
	"github.com/deppfellow/trialbroker/internal/repository"
	"github.com/deppfellow/trialbroker/internal/router"
	"github.com/deppfellow/trialbroker/internal/server"
	"github.com/deppfellow/trialbroker/internal/service"
	"github.com/rs/zerolog"
)

const DefaultContextTimeout = 30

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logger.NewCommandLogger(zerolog.InfoLevel)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	// srv.Shutdown flushes the New Relic application.
	loggerService := logger.NewLoggerService(&cfg.Observability)

	log := logger.NewLoggerWithService(&cfg.Observability, loggerService)

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	repos := repository.NewRepositories(srv)

	services, err := service.NewService(srv, repos)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create services")
	}

	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers)

	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server exited properly")
}
