package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/schoolhub/internal/bootstrap"
	"github.com/yigit/schoolhub/internal/config"
	"github.com/yigit/schoolhub/internal/pkg/tracing"
)

// Server holds the state for the HTTP server.
type Server struct {
	config  *config.Config
	handler http.Handler
	logger  zerolog.Logger
	http    *http.Server

	deps            *bootstrap.Dependencies
	storage         *bootstrap.Storage
	closeSessions   func() error
	shutdownTracing tracing.ShutdownFunc
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer() (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	shutdownTracing, err := tracing.Init(context.Background(), lgr, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName, cfg.Server.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to setup tracing: %w", err)
	}

	storage, err := bootstrap.SetupStorage(cfg, lgr)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	store, closeSessions, err := bootstrap.SetupSessionStore(cfg, lgr)
	if err != nil {
		_ = storage.Close(context.Background())
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("failed to setup session store: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(cfg, storage.Repos, store, bootstrap.NewMailer(cfg, lgr), lgr)
	if err != nil {
		_ = closeSessions()
		_ = storage.Close(context.Background())
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	router := bootstrap.SetupRouter(cfg, deps, lgr)

	return &Server{
		config:          cfg,
		handler:         bootstrap.NewHandler(cfg, router),
		logger:          lgr,
		deps:            deps,
		storage:         storage,
		closeSessions:   closeSessions,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown.
func (s *Server) Run() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting server...")

	s.http = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully stops the server and closes resources.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var errs []error

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			errs = append(errs, err)
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	if s.deps != nil && s.deps.Limiter != nil {
		s.deps.Limiter.Stop()
	}

	if s.closeSessions != nil {
		if err := s.closeSessions(); err != nil {
			s.logger.Error().Err(err).Msg("Session store close error")
			errs = append(errs, err)
		}
	}

	if s.storage != nil {
		s.logger.Info().Msg("Closing storage...")
		if err := s.storage.Close(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Storage close error")
			errs = append(errs, err)
		}
	}

	if s.shutdownTracing != nil {
		if err := s.shutdownTracing(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Tracer shutdown error")
			errs = append(errs, err)
		}
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	return errors.Join(errs...)
}
