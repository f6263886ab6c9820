package frontend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/loykin/devsrv/internal/metrics"
)

const (
	stopGraceTimeout   = 10 * time.Second
	healthProbeTimeout = 10 * time.Second
)

// Supervisor owns at most one frontend dev-server child at a time. All
// orchestration is strictly sequential: a new attempt never starts
// while a prior attempt's process or log sinks are live.
type Supervisor struct {
	spec   Spec
	logger *slog.Logger
	ports  *portAllocator
	client *http.Client
	// probe is swappable for tests; defaults to httpProbe.
	probe func(url string) (int, error)
	// openSinks is swappable for tests; defaults to the log config.
	openSinks func(name string) (io.WriteCloser, io.WriteCloser, error)

	mu          sync.Mutex
	cur         *attempt // nil when nothing is running
	starting    bool     // a start sequence owns the attempt loop
	stopReq     bool     // Stop was called while starting
	port        int
	url         string
	pid         int
	projectPath string
}

// New builds a Supervisor from spec with defaults applied. The spec is
// copied and never mutated afterwards.
func New(spec Spec) *Supervisor {
	return NewWithLogger(spec, slog.Default())
}

// NewWithLogger is New with an explicit structured logger.
func NewWithLogger(spec Spec, lg *slog.Logger) *Supervisor {
	lg = lg.With("component", "frontend")
	s := &Supervisor{
		spec:   spec.withDefaults(),
		logger: lg,
		ports:  newPortAllocator(lg),
		client: &http.Client{Timeout: readinessProbeTimeout},
	}
	s.probe = s.httpProbe
	s.openSinks = s.spec.Log.Writers
	return s
}

// httpProbe issues one GET and reports the status code; the caller
// interprets the code.
func (s *Supervisor) httpProbe(url string) (int, error) {
	resp, err := s.client.Get(url)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// StartWithFailover walks the candidate port list in order: skip
// occupied ports, ensure dependencies (non-fatal), spawn, wait for
// readiness. The first ready port wins; a failed attempt is fully torn
// down before the next one. Only an unresolvable project path and
// exhaustion of all candidates surface as failures.
//
// At most one start sequence runs at a time: a concurrent call fails
// fast instead of spawning a second child, and a Stop issued while a
// sequence is in flight aborts it before the attempt is installed.
func (s *Supervisor) StartWithFailover(ctx context.Context) Result {
	if !s.spec.Enabled {
		return Result{Success: true, Error: "frontend disabled"}
	}
	s.mu.Lock()
	if s.cur != nil {
		r := Result{Success: true, Port: s.port, URL: s.url, PID: s.pid}
		s.mu.Unlock()
		s.logger.Info("dev server already running", "url", r.URL)
		return r
	}
	if s.starting {
		s.mu.Unlock()
		s.logger.Warn("start already in progress, rejecting concurrent start")
		return Result{Error: "start already in progress"}
	}
	s.starting = true
	s.stopReq = false
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.starting = false
		s.mu.Unlock()
	}()

	dir, err := resolvePath(".", s.spec.Path)
	if err != nil {
		s.logger.Error("cannot locate frontend project", "configured", s.spec.Path)
		return Result{Error: err.Error()}
	}
	s.mu.Lock()
	s.projectPath = dir
	s.mu.Unlock()

	ports := candidates(s.spec.StartPort, s.spec.FallbackPorts)
	if s.spec.MaxAttempts > 0 && len(ports) > s.spec.MaxAttempts {
		ports = ports[:s.spec.MaxAttempts]
	}

	for _, port := range ports {
		if s.stopRequested() {
			s.logger.Info("stop requested, aborting start sequence")
			return Result{Error: "stopped during startup"}
		}
		if s.ports.isOccupied(port) {
			s.logger.Warn("port occupied, skipping", "port", port)
			continue
		}
		s.logger.Info("attempting dev server start", "port", port)
		metrics.IncAttempt(port)

		s.ensureDependencies(ctx, dir)

		begun := time.Now()
		a, err := s.launch(dir, port)
		if err != nil {
			s.logger.Error("spawn failed", "port", port, "error", err)
			metrics.IncAttemptFailure("spawn")
			continue
		}

		res := s.newDetector(a).run(port)
		if res.state == stateReady {
			s.mu.Lock()
			if s.stopReq {
				s.mu.Unlock()
				s.logger.Info("stop requested, tearing down ready attempt", "port", res.port)
				s.shutdownAttempt(a)
				return Result{Error: "stopped during startup"}
			}
			s.cur = a
			s.port = res.port
			s.url = res.url
			s.pid = a.pid()
			s.mu.Unlock()
			if res.port != port {
				metrics.IncPortReassignment()
			}
			metrics.ObserveReadinessDuration(time.Since(begun).Seconds())
			metrics.SetRunning(true)
			return Result{Success: true, Port: res.port, URL: res.url, PID: a.pid()}
		}

		metrics.IncAttemptFailure(res.state.String())
		s.shutdownAttempt(a)
	}

	msg := fmt.Sprintf("no dev server became ready on any candidate port %v", ports)
	s.logger.Error(msg)
	return Result{Error: msg}
}

func (s *Supervisor) stopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopReq
}

// Stop terminates the running dev server and releases every resource.
// Idempotent: with nothing running it is a no-op with cleared state. A
// start sequence in flight observes the request and aborts instead of
// installing its attempt.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	s.stopReq = true
	a := s.cur
	s.cur = nil
	s.port = 0
	s.url = ""
	s.pid = 0
	s.mu.Unlock()
	if a == nil {
		return
	}
	s.logger.Info("stopping dev server", "pid", a.pid())
	s.shutdownAttempt(a)
	metrics.SetRunning(false)
	s.logger.Info("dev server stopped")
}

// shutdownAttempt terminates the child gracefully, escalates to a kill
// after the grace window, and always closes both log sinks. Errors are
// logged; the cleanup phase runs regardless.
func (s *Supervisor) shutdownAttempt(a *attempt) {
	defer a.closeSinks()

	if !a.alive() {
		return
	}
	if err := terminateProcess(a.cmd); err != nil {
		s.logger.Warn("terminate signal failed", "pid", a.pid(), "error", err)
	}
	select {
	case <-a.exited:
	case <-time.After(stopGraceTimeout):
		s.logger.Warn("dev server ignored terminate, killing", "pid", a.pid())
		if err := killProcess(a.cmd); err != nil {
			s.logger.Error("kill failed", "pid", a.pid(), "error", err)
		}
		// Kill always succeeds eventually; wait without a deadline.
		<-a.exited
	}
	if err := a.exitError(); err != nil {
		s.logger.Debug("dev server exit", "error", err)
	}
}

// HealthCheck issues one probe against the recorded URL. Stateless; it
// never retries and never mutates the supervisor.
func (s *Supervisor) HealthCheck() bool {
	s.mu.Lock()
	url := s.url
	s.mu.Unlock()
	if url == "" {
		return false
	}
	c := &http.Client{Timeout: healthProbeTimeout}
	resp, err := c.Get(url)
	if err != nil {
		s.logger.Warn("health check failed", "url", url, "error", err)
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Build runs the configured build command to completion in the project
// directory. Success iff the command exits zero.
func (s *Supervisor) Build(ctx context.Context) bool {
	dir, err := resolvePath(".", s.spec.Path)
	if err != nil {
		s.logger.Error("cannot locate frontend project", "configured", s.spec.Path)
		return false
	}
	s.logger.Info("running build", "dir", dir, "command", s.spec.BuildCommand)
	cmd := shellCommandContext(ctx, s.spec.BuildCommand)
	cmd.Dir = dir
	setSysProcAttr(cmd)
	out, err := cmd.CombinedOutput()
	if err != nil {
		s.logger.Error("build failed", "error", err, "output", tail(out, 2048))
		return false
	}
	s.logger.Info("build succeeded")
	return true
}

// Status snapshots the supervisor under lock.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Enabled: s.spec.Enabled,
		Running: s.cur != nil && s.cur.alive(),
		Port:    s.port,
		URL:     s.url,
		PID:     s.pid,
		Path:    s.projectPath,
	}
}
