/*
Copyright 2026 The Symmetrix Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package status serves the engine's human-readable status report and
// its Prometheus metrics over HTTP.
package status

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/symmetrix-compute/sheaf-placement-engine/internal/engine"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server exposes /status, /healthz and /metrics for a running system.
type Server struct {
	system *engine.System
	logger *zap.Logger
	http   *http.Server
}

// New creates a status server bound to addr, serving metrics from the
// given gatherer.
func New(sys *engine.System, gatherer prometheus.Gatherer, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		system: sys,
		logger: logger.Named("status"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown is called. The
// http.ErrServerClosed sentinel is swallowed.
func (s *Server) ListenAndServe() error {
	s.logger.Info("status server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, s.Report(r.Context()))
}

// Report renders the status report. The same text backs the /status
// endpoint and the CLI status command.
func (s *Server) Report(ctx context.Context) string {
	cfg := s.system.Config()
	var b strings.Builder

	fmt.Fprintf(&b, "SHEAF PLACEMENT ENGINE\n\n")

	fmt.Fprintf(&b, "Configuration:\n")
	fmt.Fprintf(&b, "  Max Units: %d\n", cfg.MaxUnits)
	fmt.Fprintf(&b, "  Field Prime: %d\n", cfg.FieldPrime)
	fmt.Fprintf(&b, "  Obstruction Scoring: %s\n", enabled(cfg.EnableScoring))
	fmt.Fprintf(&b, "  Residue Tracks: %d\n", cfg.CRTResidueCount)
	fmt.Fprintf(&b, "  Diagnostic Period: %s\n", cfg.DiagnosticPeriod())

	fmt.Fprintf(&b, "\nSystem State:\n")
	fmt.Fprintf(&b, "  Registered Units: %d\n", s.system.Registry().Len())
	state := s.system.Diagnostic().Snapshot()
	fmt.Fprintf(&b, "  H2 Dimension: %d\n", state.Dimension)
	fmt.Fprintf(&b, "  H2 Valid: %s\n", yesNo(state.Valid))
	if state.Valid {
		age := time.Since(state.ComputedAt).Truncate(time.Second)
		fmt.Fprintf(&b, "  H2 Age: %s\n", age)
	}

	counters, err := s.system.Accelerator().ReadCounters(ctx)
	if err != nil {
		fmt.Fprintf(&b, "\nAccelerator Counters: unavailable (%v)\n", err)
		return b.String()
	}
	fmt.Fprintf(&b, "\nAccelerator Counters:\n")
	fmt.Fprintf(&b, "  Backend: %s\n", s.system.Accelerator().Name())
	fmt.Fprintf(&b, "  Field Operations: %d\n", counters.OperationCount)
	fmt.Fprintf(&b, "  Residue Reconstructions: %d\n", counters.Reconstructions)
	fmt.Fprintf(&b, "  Cache Hits: %d\n", counters.CacheHits)
	fmt.Fprintf(&b, "  Cache Misses: %d\n", counters.CacheMisses)
	if counters.CacheHits+counters.CacheMisses > 0 {
		fmt.Fprintf(&b, "  Cache Hit Rate: %.0f%%\n", counters.HitRate()*100)
	}
	return b.String()
}

func enabled(v bool) string {
	if v {
		return "Enabled"
	}
	return "Disabled"
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
