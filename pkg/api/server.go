// Package api serves the recording archive over HTTP
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ssargent/nexkit/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// Routes builds the router with all routes configured
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", instrumentHandler(s.metrics, "GET", "/health", s.handleHealth))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recordings", instrumentHandler(s.metrics, "POST", "/api/v1/recordings", s.handleCreateRecording))
		r.Get("/recordings", instrumentHandler(s.metrics, "GET", "/api/v1/recordings", s.handleListRecordings))
		r.Get("/recordings/{id}", instrumentHandler(s.metrics, "GET", "/api/v1/recordings/{id}", s.handleGetRecording))
		r.Get("/recordings/{id}/file", instrumentHandler(s.metrics, "GET", "/api/v1/recordings/{id}/file", s.handleGetRecordingFile))
		r.Delete("/recordings/{id}", instrumentHandler(s.metrics, "DELETE", "/api/v1/recordings/{id}", s.handleDeleteRecording))
	})

	return r
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// StartServer serves the archive until ctx is cancelled, then shuts down
// gracefully
func StartServer(ctx context.Context, archive RecordingArchive, config ServerConfig, m *metrics.Metrics, logger *zerolog.Logger) error {
	server := NewServer(archive, config, m, logger)

	httpServer := &http.Server{
		Addr:              config.Addr(),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		server.logger.Info().Str("addr", httpServer.Addr).Msg("starting HTTP server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	server.logger.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}
