package frontend

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"
)

// detectorHarness drives the readiness state machine with a manual
// clock, scripted log content, and scripted probe answers.
type detectorHarness struct {
	now    time.Time
	sleeps int
	alive  bool
	log    string
	// codes maps URL to status code; anything absent errors.
	codes map[string]int
}

func newHarness() *detectorHarness {
	return &detectorHarness{now: time.Unix(1000, 0), alive: true, codes: map[string]int{}}
}

func (h *detectorHarness) detector(timeout time.Duration) *detector {
	return &detector{
		timeout:  timeout,
		interval: 2 * time.Second,
		now:      func() time.Time { return h.now },
		sleep: func(d time.Duration) {
			h.sleeps++
			h.now = h.now.Add(d)
		},
		alive:   func() bool { return h.alive },
		readLog: func() ([]byte, error) { return []byte(h.log), nil },
		probe: func(url string) (int, error) {
			if c, ok := h.codes[url]; ok {
				return c, nil
			}
			return 0, errors.New("connection refused")
		},
		logger: slog.Default(),
		state:  stateWaiting,
	}
}

func TestDetectorCrashFailsWithinOneCycle(t *testing.T) {
	h := newHarness()
	h.alive = false
	res := h.detector(90 * time.Second).run(3000)
	if res.state != stateCrashed {
		t.Fatalf("want crashed, got %v", res.state)
	}
	if h.sleeps != 0 {
		t.Fatalf("crash must be detected before any wait, slept %d times", h.sleeps)
	}
}

func TestDetectorReadyOnRequestedPort(t *testing.T) {
	h := newHarness()
	h.codes["http://localhost:3000"] = http.StatusOK
	res := h.detector(90 * time.Second).run(3000)
	if res.state != stateReady || res.port != 3000 {
		t.Fatalf("want ready on 3000, got %+v", res)
	}
	if res.url != "http://localhost:3000" {
		t.Fatalf("unexpected url %q", res.url)
	}
}

func TestDetectorSwitchesToAnnouncedPort(t *testing.T) {
	h := newHarness()
	h.log = "Starting the development server...\nLocal:  http://localhost:3005\n"
	h.codes["http://localhost:3005"] = http.StatusOK
	res := h.detector(90 * time.Second).run(3001)
	if res.state != stateReady {
		t.Fatalf("want ready, got %v", res.state)
	}
	if res.port != 3005 || res.url != "http://localhost:3005" {
		t.Fatalf("probe target must follow the announced port, got %+v", res)
	}
}

func TestDetectorNon200IsNotReady(t *testing.T) {
	h := newHarness()
	h.codes["http://localhost:3000"] = http.StatusBadGateway
	res := h.detector(5 * time.Second).run(3000)
	if res.state != stateTimedOut {
		t.Fatalf("want timed_out, got %v", res.state)
	}
}

func TestDetectorTimesOutAtDeadline(t *testing.T) {
	h := newHarness()
	res := h.detector(10 * time.Second).run(3000)
	if res.state != stateTimedOut {
		t.Fatalf("want timed_out, got %v", res.state)
	}
	// 2s period against a 10s budget: five polls, then the deadline.
	if h.sleeps != 5 {
		t.Fatalf("want 5 poll cycles, got %d", h.sleeps)
	}
	if res.port != 0 || res.url != "" {
		t.Fatalf("timeout must not report a port or url: %+v", res)
	}
}

func TestDetectorBecomesReadyMidWait(t *testing.T) {
	h := newHarness()
	d := h.detector(90 * time.Second)
	// Server comes up after two cycles and announces a moved port.
	orig := d.sleep
	d.sleep = func(dur time.Duration) {
		orig(dur)
		if h.sleeps == 2 {
			h.log = fmt.Sprintf("Local:  http://localhost:%d\n", 3002)
			h.codes["http://localhost:3002"] = http.StatusOK
		}
	}
	res := d.run(3000)
	if res.state != stateReady || res.port != 3002 {
		t.Fatalf("want ready on 3002, got %+v", res)
	}
}

func TestAnnouncedPortParsing(t *testing.T) {
	cases := []struct {
		log  string
		port int
		ok   bool
	}{
		{"Local:  http://localhost:3001", 3001, true},
		{"noise\nLocal: http://localhost:4000\nmore", 4000, true},
		{"On Your Network: http://10.0.0.5:3000", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		h := newHarness()
		h.log = c.log
		d := h.detector(time.Second)
		p, ok := d.announcedPort()
		if ok != c.ok || p != c.port {
			t.Fatalf("log %q: got (%d,%v) want (%d,%v)", c.log, p, ok, c.port, c.ok)
		}
	}
}
