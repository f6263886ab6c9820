package frontend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// ensureDependencies runs the install command when node_modules is
// missing, bounded by the configured install timeout. Failures are
// logged and swallowed: some checkouts start fine on a stale install,
// so the spawn attempt proceeds either way.
func (s *Supervisor) ensureDependencies(ctx context.Context, dir string) {
	if _, err := os.Stat(filepath.Join(dir, "node_modules")); err == nil {
		return
	}
	s.logger.Info("node_modules missing, installing dependencies",
		"dir", dir, "command", s.spec.InstallCommand)

	cctx, cancel := context.WithTimeout(ctx, s.spec.InstallTimeout)
	defer cancel()

	cmd := shellCommandContext(cctx, s.spec.InstallCommand)
	cmd.Dir = dir
	setSysProcAttr(cmd)
	// On timeout kill the whole group, not just the shell: npm forks.
	cmd.Cancel = func() error { return killProcess(cmd) }

	out, err := cmd.CombinedOutput()
	switch {
	case errors.Is(cctx.Err(), context.DeadlineExceeded):
		s.logger.Error("dependency install timed out, killed",
			"timeout", s.spec.InstallTimeout)
	case err != nil:
		s.logger.Error("dependency install failed",
			"error", err, "output", tail(out, 2048))
	default:
		s.logger.Info("dependencies installed")
	}
}

// tail returns at most n trailing bytes of b as a string.
func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
