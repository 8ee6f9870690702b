// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package api serves settings over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cardinalhq/settingsd/config"
	"github.com/cardinalhq/settingsd/internal/apikey"
	"github.com/cardinalhq/settingsd/internal/healthcheck"
	"github.com/cardinalhq/settingsd/internal/settings"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "x-settings-api-key"

const maxBodyBytes = 1 << 20

type Server struct {
	mgr    *settings.Manager
	keys   apikey.Provider
	health *healthcheck.Checker
}

// NewServer builds a server. A nil health checker is replaced by one that is
// always healthy.
func NewServer(mgr *settings.Manager, keys apikey.Provider, health *healthcheck.Checker) *Server {
	if health == nil {
		health = healthcheck.NewChecker()
		health.SetStatus(healthcheck.StatusHealthy)
	}
	return &Server{mgr: mgr, keys: keys, health: health}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/settings", s.apiKeyMiddleware(s.handleList))
	mux.HandleFunc("POST /api/v1/settings", s.apiKeyMiddleware(s.handleSetMany))
	mux.HandleFunc("GET /api/v1/settings/form", s.apiKeyMiddleware(s.handleForm))
	mux.HandleFunc("GET /api/v1/settings/{key}", s.apiKeyMiddleware(s.handleGet))
	mux.HandleFunc("PUT /api/v1/settings/{key}", s.apiKeyMiddleware(s.handleSet))
	mux.HandleFunc("DELETE /api/v1/settings/{key}", s.apiKeyMiddleware(s.handleReset))
	mux.HandleFunc("GET /api/v1/definitions", s.apiKeyMiddleware(s.handleDefinitions))

	s.health.Register(mux)

	return otelhttp.NewHandler(recordDuration(mux), "settingsd",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/livez" && r.URL.Path != "/readyz"
		}),
	)
}

// Run serves on cfg.Addr until doneCtx is cancelled, then shuts down gracefully.
func (s *Server) Run(doneCtx context.Context, cfg config.HTTPConfig) error {
	slog.Info("Starting settings API", slog.String("addr", cfg.Addr))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-doneCtx.Done():
	}

	slog.Info("Shutting down settings API")
	s.health.SetStatus(healthcheck.StatusUnhealthy)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
