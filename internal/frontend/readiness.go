package frontend

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"time"
)

const (
	pollInterval          = 2 * time.Second
	readinessProbeTimeout = 15 * time.Second
)

// localURLPattern matches the URL announcement CRA-style dev servers
// print once they bind, e.g. "Local:  http://localhost:3001".
var localURLPattern = regexp.MustCompile(`Local:\s+(http://localhost:(\d+))`)

type readyState int

const (
	stateWaiting readyState = iota
	statePortReassigned
	stateReady
	stateCrashed
	stateTimedOut
)

func (st readyState) String() string {
	switch st {
	case stateWaiting:
		return "waiting"
	case statePortReassigned:
		return "port_reassigned"
	case stateReady:
		return "ready"
	case stateCrashed:
		return "crashed"
	case stateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// readiness is the detector's terminal verdict for one attempt.
type readiness struct {
	state readyState
	port  int
	url   string
}

// detector drives the readiness state machine for a single attempt:
// liveness check, full stdout-log rescan, HTTP probe, every interval,
// bounded by timeout. Clock, sleeper, log reader and prober are fields
// so tests can run the machine without a real child or network.
type detector struct {
	timeout  time.Duration
	interval time.Duration
	now      func() time.Time
	sleep    func(time.Duration)
	alive    func() bool
	readLog  func() ([]byte, error)
	probe    func(url string) (int, error)
	logger   *slog.Logger
	state    readyState
}

func (s *Supervisor) newDetector(a *attempt) *detector {
	return &detector{
		timeout:  s.spec.ReadyTimeout,
		interval: pollInterval,
		now:      time.Now,
		sleep:    time.Sleep,
		alive:    a.alive,
		readLog:  func() ([]byte, error) { return os.ReadFile(a.stdoutPath) },
		probe:    s.probe,
		logger:   s.logger,
		state:    stateWaiting,
	}
}

func (d *detector) transition(to readyState) {
	if d.state == to {
		return
	}
	d.logger.Debug("readiness state change", "from", d.state.String(), "to", to.String())
	d.state = to
}

// run polls until the dev server answers 200 on its announced port or a
// terminal state is reached. A child that has already exited fails the
// attempt immediately rather than burning the full timeout; probe
// errors are transient and never escape the loop.
func (d *detector) run(initialPort int) readiness {
	started := d.now()
	deadline := started.Add(d.timeout)
	tracked := initialPort

	for d.now().Before(deadline) {
		if !d.alive() {
			d.transition(stateCrashed)
			d.logger.Error("dev server exited before becoming ready", "port", tracked)
			return readiness{state: stateCrashed}
		}

		// Full rescan each cycle: the log stays small for a dev server
		// and a full read tolerates truncation by the child.
		if p, ok := d.announcedPort(); ok && p != tracked {
			d.logger.Info("dev server reassigned its port", "from", tracked, "to", p)
			tracked = p
			d.transition(statePortReassigned)
		}

		url := fmt.Sprintf("http://localhost:%d", tracked)
		code, err := d.probe(url)
		switch {
		case err != nil:
			d.logger.Warn("readiness probe failed", "url", url, "error", err)
		case code == http.StatusOK:
			d.transition(stateReady)
			d.logger.Info("dev server ready",
				"url", url, "elapsed", d.now().Sub(started))
			return readiness{state: stateReady, port: tracked, url: url}
		default:
			d.logger.Warn("readiness probe not ready", "url", url, "status", code)
		}
		d.sleep(d.interval)
	}

	d.transition(stateTimedOut)
	d.logger.Error("dev server not ready before deadline",
		"port", tracked, "timeout", d.timeout)
	return readiness{state: stateTimedOut}
}

// announcedPort extracts the port last announced in the stdout log.
func (d *detector) announcedPort() (int, bool) {
	b, err := d.readLog()
	if err != nil {
		return 0, false
	}
	m := localURLPattern.FindSubmatch(b)
	if m == nil {
		return 0, false
	}
	p, err := strconv.Atoi(string(m[2]))
	if err != nil {
		return 0, false
	}
	return p, true
}
