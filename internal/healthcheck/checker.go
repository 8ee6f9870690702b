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

// Package healthcheck tracks process health and readiness and serves them
// over HTTP.
package healthcheck

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type Status int32

const (
	StatusStarting Status = iota
	StatusHealthy
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

type Response struct {
	Healthy    bool            `json:"healthy"`
	Status     string          `json:"status"`
	Conditions map[string]bool `json:"conditions,omitempty"`
}

// Probe reports whether a dependency is usable, for example the database.
type Probe func(ctx context.Context) error

// Checker holds the process status and named readiness conditions.
// The zero value is usable and reports StatusStarting.
type Checker struct {
	status     atomic.Int32
	conditions sync.Map // map[string]bool
	probes     sync.Map // map[string]Probe
}

func NewChecker() *Checker {
	return &Checker{}
}

func (c *Checker) SetStatus(status Status) {
	c.status.Store(int32(status))
	slog.Debug("Health check status updated", slog.String("status", status.String()))
}

func (c *Checker) GetStatus() Status {
	return Status(c.status.Load())
}

// SetReadyCondition sets a named readiness condition. Every condition must be
// true, and the status healthy, for IsReady to return true.
func (c *Checker) SetReadyCondition(name string, ready bool) {
	c.conditions.Store(name, ready)
	slog.Debug("Ready condition updated", slog.String("condition", name), slog.Bool("ready", ready))
}

func (c *Checker) ClearReadyCondition(name string) {
	c.conditions.Delete(name)
}

// AddProbe registers a check that runs on every /readyz request.
func (c *Checker) AddProbe(name string, p Probe) {
	c.probes.Store(name, p)
}

func (c *Checker) IsReady(ctx context.Context) bool {
	ready, _ := c.readiness(ctx)
	return ready
}

func (c *Checker) readiness(ctx context.Context) (bool, map[string]bool) {
	ready := c.GetStatus() == StatusHealthy
	conds := make(map[string]bool)
	c.conditions.Range(func(key, value any) bool {
		ok := value.(bool)
		conds[key.(string)] = ok
		ready = ready && ok
		return true
	})
	c.probes.Range(func(key, value any) bool {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		err := value.(Probe)(pctx)
		if err != nil {
			slog.Warn("Readiness probe failed", slog.String("probe", key.(string)), slog.Any("error", err))
		}
		conds[key.(string)] = err == nil
		ready = ready && err == nil
		return true
	})
	return ready, conds
}

// Register mounts /healthz, /readyz and /livez on mux.
func (c *Checker) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", c.healthzHandler)
	mux.HandleFunc("GET /readyz", c.readyzHandler)
	mux.HandleFunc("GET /livez", c.livezHandler)
}

func (c *Checker) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	status := c.GetStatus()
	writeResponse(w, Response{Healthy: status == StatusHealthy, Status: status.String()})
}

func (c *Checker) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ready, conds := c.readiness(r.Context())
	writeResponse(w, Response{Healthy: ready, Status: c.GetStatus().String(), Conditions: conds})
}

func (c *Checker) livezHandler(w http.ResponseWriter, _ *http.Request) {
	status := c.GetStatus()
	writeResponse(w, Response{Healthy: status != StatusUnhealthy, Status: status.String()})
}

func writeResponse(w http.ResponseWriter, response Response) {
	w.Header().Set("Content-Type", "application/json")
	if response.Healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode health check response", slog.Any("error", err))
	}
}
