//go:build windows

package frontend

import (
	"context"
	"os/exec"
)

// shellCommand wraps script in cmd.exe for Windows hosts.
func shellCommand(script string) *exec.Cmd {
	// #nosec G204
	return exec.Command("cmd", "/c", script)
}

// shellCommandContext is shellCommand bound to ctx; the command is
// force-killed when ctx expires.
func shellCommandContext(ctx context.Context, script string) *exec.Cmd {
	// #nosec G204
	return exec.CommandContext(ctx, "cmd", "/c", script)
}
