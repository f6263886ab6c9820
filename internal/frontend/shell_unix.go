//go:build !windows

package frontend

import (
	"context"
	"os/exec"
)

// shellCommand wraps script in the platform shell. The absolute shell
// path avoids PATH dependency when the environment is overridden.
func shellCommand(script string) *exec.Cmd {
	// #nosec G204
	return exec.Command("/bin/sh", "-c", script)
}

// shellCommandContext is shellCommand bound to ctx; the command is
// force-killed when ctx expires.
func shellCommandContext(ctx context.Context, script string) *exec.Cmd {
	// #nosec G204
	return exec.CommandContext(ctx, "/bin/sh", "-c", script)
}
