// SPDX-License-Identifier: MIT

// Package api exposes the device's observability surface: health probes, a
// JSON playback status endpoint and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/videowall/internal/controller"
	"github.com/ManuGH/videowall/internal/log"
)

const shutdownTimeout = 5 * time.Second

// StatusResponse is the payload of GET /status.
type StatusResponse struct {
	Status         string    `json:"status"`
	TransferActive bool      `json:"transfer_active"`
	MediaPath      string    `json:"media_path"`
	Timestamp      time.Time `json:"timestamp"`
}

// Server serves the HTTP observability endpoints.
type Server struct {
	addr      string
	ctrl      *controller.Controller
	mediaPath string
	version   string
	logger    zerolog.Logger
}

// NewServer creates the API server for the given controller.
func NewServer(addr string, ctrl *controller.Controller, mediaPath, version string) *Server {
	return &Server{
		addr:      addr,
		ctrl:      ctrl,
		mediaPath: mediaPath,
		version:   version,
		logger:    log.WithComponent("api"),
	}
}

// Router assembles the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleHealthz)
	r.Get("/status", s.handleStatus)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:         s.ctrl.Status().String(),
		TransferActive: s.ctrl.TransferActive(),
		MediaPath:      s.mediaPath,
		Timestamp:      time.Now().UTC(),
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info().
		Str("event", "api.listening").
		Str("addr", s.addr).
		Msg("observability endpoint listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case err := <-errCh:
		return err
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
