// Package api exposes the trigger interface: an HTTP surface through
// which an external scheduler (or an operator) invokes the pipeline
// for a logical date and reads back per-node results and stored rows.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skyops/apodsync/pkg/config"
	"github.com/skyops/apodsync/pkg/pipeline"
	"github.com/skyops/apodsync/pkg/scheduler"
	"github.com/skyops/apodsync/pkg/store"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the trigger API HTTP server lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
}

// Compile-time interface check.
var _ Server = (*server)(nil)

type server struct {
	log        logrus.FieldLogger
	cfg        *config.ServerConfig
	runner     scheduler.Runner
	store      store.Store
	history    *pipeline.History
	httpServer *http.Server
}

// NewServer creates a new trigger API server.
func NewServer(
	log logrus.FieldLogger,
	cfg *config.ServerConfig,
	runner scheduler.Runner,
	st store.Store,
	history *pipeline.History,
) Server {
	return &server{
		log:     log.WithField("component", "api"),
		cfg:     cfg,
		runner:  runner,
		store:   st,
		history: history,
	}
}

// Start builds the router and starts the HTTP server.
func (s *server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Give ListenAndServe a moment to fail on bind errors.
	select {
	case err := <-errCh:
		return fmt.Errorf("starting http server: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	s.log.WithField("listen", s.cfg.Listen).Info("API server started")

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	s.log.Info("API server stopped")

	return nil
}
