package frontend

import (
	"io"
	"os/exec"
	"sync"
)

// attempt owns every resource of one spawn: the child handle, the two
// log sinks, and the stdout path the readiness detector scrapes. The
// fields are populated together at launch and released together by
// shutdownAttempt, so partial state is never observable.
type attempt struct {
	cmd        *exec.Cmd
	port       int
	stdoutPath string
	outSink    io.WriteCloser
	errSink    io.WriteCloser
	closeOnce  sync.Once
	exited     chan struct{} // closed by the waiter goroutine
	mu         sync.Mutex
	exitErr    error
}

// alive reports whether the child has not yet been reaped.
func (a *attempt) alive() bool {
	select {
	case <-a.exited:
		return false
	default:
		return true
	}
}

func (a *attempt) exitError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.exitErr
}

func (a *attempt) pid() int {
	if a.cmd == nil || a.cmd.Process == nil {
		return 0
	}
	return a.cmd.Process.Pid
}

// closeSinks closes both log sinks exactly once. Safe to call from any
// exit path; later calls are no-ops.
func (a *attempt) closeSinks() {
	a.closeOnce.Do(func() {
		if a.outSink != nil {
			_ = a.outSink.Close()
		}
		if a.errSink != nil {
			_ = a.errSink.Close()
		}
	})
}

// launch opens the log sinks, then spawns the start command in dir with
// the dev-server environment pinned to port. A waiter goroutine reaps
// the child and closes a.exited, which is the single liveness signal
// for the detector and the shutdown path.
func (s *Supervisor) launch(dir string, port int) (*attempt, error) {
	outW, errW, err := s.openSinks(s.spec.Name)
	if err != nil {
		return nil, err
	}
	stdoutPath, _ := s.spec.Log.SinkPaths(s.spec.Name)

	cmd := shellCommand(s.spec.StartCommand)
	cmd.Dir = dir
	cmd.Env = childEnv(port)
	cmd.Stdout = outW
	cmd.Stderr = errW
	setSysProcAttr(cmd)

	a := &attempt{
		cmd:        cmd,
		port:       port,
		stdoutPath: stdoutPath,
		outSink:    outW,
		errSink:    errW,
		exited:     make(chan struct{}),
	}
	if err := cmd.Start(); err != nil {
		a.closeSinks()
		return nil, err
	}
	s.logger.Info("dev server spawned",
		"pid", a.pid(), "port", port, "command", s.spec.StartCommand)

	go func() {
		werr := cmd.Wait()
		a.mu.Lock()
		a.exitErr = werr
		a.mu.Unlock()
		close(a.exited)
	}()
	return a, nil
}
