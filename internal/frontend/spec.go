package frontend

import (
	"fmt"
	"os"
	"time"

	"github.com/loykin/devsrv/internal/logger"
)

// Default configuration values matching a stock create-react-app setup.
const (
	DefaultStartPort      = 3000
	DefaultStartCommand   = "npm start"
	DefaultBuildCommand   = "npm run build"
	DefaultInstallCommand = "npm install"

	DefaultReadinessTimeout = 90 * time.Second
	DefaultInstallTimeout   = 120 * time.Second
)

// Spec describes the frontend dev server to be supervised.
// It is immutable after being handed to New; the supervisor never
// writes back into it.
type Spec struct {
	Name           string        `json:"name"`            // logical name, used for log file naming (default "frontend")
	Enabled        bool          `json:"enabled"`         // when false, StartWithFailover is a no-op
	Path           string        `json:"path"`            // project dir; auto-detected from known locations when empty
	StartPort      int           `json:"start_port"`      // first port to try
	FallbackPorts  []int         `json:"fallback_ports"`  // tried in order after StartPort
	StartCommand   string        `json:"start_command"`   // dev server command, shell-wrapped
	BuildCommand   string        `json:"build_command"`   // production build command
	InstallCommand string        `json:"install_command"` // dependency install command
	ReadyTimeout   time.Duration `json:"ready_timeout"`   // readiness wait per attempt
	InstallTimeout time.Duration `json:"install_timeout"` // wall-clock bound for the install command
	MaxAttempts    int           `json:"max_attempts"`    // cap on spawn attempts across the port list (0 = no cap)
	Log            logger.Config `json:"log"`             // child stdout/stderr sink configuration
}

// withDefaults returns a copy of s with zero values replaced by defaults.
func (s Spec) withDefaults() Spec {
	if s.Name == "" {
		s.Name = "frontend"
	}
	if s.StartPort == 0 {
		s.StartPort = DefaultStartPort
	}
	if s.FallbackPorts == nil {
		s.FallbackPorts = []int{3001, 3002}
	}
	if s.StartCommand == "" {
		s.StartCommand = DefaultStartCommand
	}
	if s.BuildCommand == "" {
		s.BuildCommand = DefaultBuildCommand
	}
	if s.InstallCommand == "" {
		s.InstallCommand = DefaultInstallCommand
	}
	if s.ReadyTimeout <= 0 {
		s.ReadyTimeout = DefaultReadinessTimeout
	}
	if s.InstallTimeout <= 0 {
		s.InstallTimeout = DefaultInstallTimeout
	}
	if s.Log.Dir == "" && s.Log.StdoutPath == "" {
		s.Log.Dir = "logs"
	}
	return s
}

// childEnv returns the parent environment overlaid with the variables a
// CRA-style dev server needs to run headless on a pinned port.
func childEnv(port int) []string {
	env := os.Environ()
	env = append(env,
		"BROWSER=none", // suppress automatic browser launch
		fmt.Sprintf("PORT=%d", port),
		"GENERATE_SOURCEMAP=false",  // faster non-debug build
		"SKIP_PREFLIGHT_CHECK=true", // bypass toolchain version conflict checks
	)
	return env
}
