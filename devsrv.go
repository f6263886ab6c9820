// Package devsrv supervises a single frontend dev-server child process:
// project discovery, dependency install, spawn with port failover,
// readiness detection, health checks, and clean shutdown.
package devsrv

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/loykin/devsrv/internal/frontend"
	"github.com/loykin/devsrv/internal/logger"
	iapi "github.com/loykin/devsrv/internal/server"
)

// Re-export core types for external consumers. These are aliases so
// conversions are zero-cost.

type Spec = frontend.Spec

type Result = frontend.Result

type Status = frontend.Status

type LogConfig = logger.Config

// Supervisor is a thin facade over internal/frontend.Supervisor,
// providing a stable public API for embedding.
type Supervisor struct{ inner *frontend.Supervisor }

func New(spec Spec) *Supervisor {
	return &Supervisor{inner: frontend.New(spec)}
}

func NewWithLogger(spec Spec, lg *slog.Logger) *Supervisor {
	return &Supervisor{inner: frontend.NewWithLogger(spec, lg)}
}

// StartWithFailover walks the candidate ports in order and returns the
// first ready endpoint, or an aggregate failure naming every attempted
// port.
func (s *Supervisor) StartWithFailover(ctx context.Context) Result {
	return s.inner.StartWithFailover(ctx)
}

// Stop tears the dev server down. Idempotent.
func (s *Supervisor) Stop() { s.inner.Stop() }

// HealthCheck probes the running server once.
func (s *Supervisor) HealthCheck() bool { return s.inner.HealthCheck() }

// Build runs the configured build command to completion.
func (s *Supervisor) Build(ctx context.Context) bool { return s.inner.Build(ctx) }

// Status snapshots the supervisor.
func (s *Supervisor) Status() Status { return s.inner.Status() }

// Handler returns the HTTP control API for this supervisor, mountable
// in any mux.
func (s *Supervisor) Handler(basePath string) http.Handler {
	return iapi.NewRouter(s.inner, basePath).Handler()
}
