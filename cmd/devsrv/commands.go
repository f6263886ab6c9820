package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loykin/devsrv/internal/config"
	"github.com/loykin/devsrv/internal/frontend"
	"github.com/loykin/devsrv/internal/logger"
	"github.com/loykin/devsrv/internal/metrics"
	"github.com/loykin/devsrv/internal/server"
	"github.com/loykin/devsrv/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	startFlags := &StartFlags{}
	serveFlags := &ServeFlags{}
	remoteFlags := &RemoteFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createStartCommand(globalFlags, startFlags),
		createServeCommand(globalFlags, serveFlags),
		createBuildCommand(globalFlags),
		createStatusCommand(remoteFlags),
		createHealthCommand(remoteFlags),
		createStopCommand(remoteFlags),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "devsrv",
		Short: "Frontend dev server supervisor",
		Long: `Devsrv locates a frontend project, starts its development server
with automatic port failover, waits for true readiness, and guarantees
clean shutdown.

Examples:
  devsrv start                          # start and serve until Ctrl-C
  devsrv start --port 3000              # pin the first candidate port
  devsrv serve --listen :8080           # daemon with HTTP control API
  devsrv status --api-url http://remote:8080`,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&flags.NoColor, "no-color", false, "disable colored log output")
	return root
}

// newSupervisor loads config, applies flag overrides, and wires the
// structured logger.
func newSupervisor(gf *GlobalFlags, mutate func(*frontend.Spec)) (*frontend.Supervisor, *config.FileConfig, error) {
	lg := logger.Setup(gf.LogLevel, !gf.NoColor)
	fc, err := config.Load(gf.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	spec := fc.FrontendSpec()
	if mutate != nil {
		mutate(&spec)
	}
	return frontend.NewWithLogger(spec, lg), fc, nil
}

func createStartCommand(gf *GlobalFlags, flags *StartFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the dev server and serve until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			sup, _, err := newSupervisor(gf, func(s *frontend.Spec) {
				s.Enabled = true
				if flags.Path != "" {
					s.Path = flags.Path
				}
				if flags.Port != 0 {
					s.StartPort = flags.Port
				}
				if flags.Timeout > 0 {
					s.ReadyTimeout = flags.Timeout
				}
			})
			if err != nil {
				return err
			}
			res := sup.StartWithFailover(cmd.Context())
			if !res.Success {
				return errors.New(res.Error)
			}
			fmt.Printf("dev server ready at %s (pid %d)\n", res.URL, res.PID)
			if flags.NonBlocking {
				sup.Stop()
				return nil
			}
			waitForInterrupt()
			sup.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.Path, "path", "", "frontend project directory (default: auto-detect)")
	cmd.Flags().IntVar(&flags.Port, "port", 0, "first candidate port")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "readiness timeout per attempt")
	cmd.Flags().BoolVar(&flags.NonBlocking, "non-blocking", false, "exit (and stop the server) right after readiness")
	_ = cmd.Flags().MarkHidden("non-blocking")
	return cmd
}

func createServeCommand(gf *GlobalFlags, flags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the supervisor daemon with its HTTP control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			sup, fc, err := newSupervisor(gf, nil)
			if err != nil {
				return err
			}
			if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
				return err
			}
			listen := flags.Listen
			if listen == "" {
				listen = fc.ListenAddr()
			}
			basePath := flags.BasePath
			if basePath == "" {
				basePath = fc.Server.BasePath
			}
			srv := server.NewServer(listen, basePath, sup)
			fmt.Printf("devsrv control API listening on %s\n", listen)

			if flags.AutoStart {
				if res := sup.StartWithFailover(cmd.Context()); !res.Success {
					fmt.Fprintf(os.Stderr, "autostart failed: %s\n", res.Error)
				}
			}
			waitForInterrupt()
			// Interrupt routes through the same shutdown path as stop.
			sup.Stop()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "control API bind address (default :8080)")
	cmd.Flags().StringVar(&flags.BasePath, "base-path", "", "URL prefix for the control API")
	cmd.Flags().BoolVar(&flags.AutoStart, "autostart", false, "start the dev server as soon as the daemon is up")
	return cmd
}

func createBuildCommand(gf *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Run the configured build command to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			sup, _, err := newSupervisor(gf, nil)
			if err != nil {
				return err
			}
			if !sup.Build(cmd.Context()) {
				return errors.New("build failed")
			}
			return nil
		},
	}
}

func createStatusCommand(flags *RemoteFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the daemon's supervisor status",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := remoteClient(flags).Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("enabled=%v running=%v port=%d url=%s pid=%d path=%s\n",
				st.Enabled, st.Running, st.Port, st.URL, st.PID, st.Path)
			return nil
		},
	}
	addRemoteFlags(cmd, flags)
	return cmd
}

func createHealthCommand(flags *RemoteFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the supervised dev server once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := remoteClient(flags).Health(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("dev server is not healthy")
			}
			fmt.Println("healthy")
			return nil
		},
	}
	addRemoteFlags(cmd, flags)
	return cmd
}

func createStopCommand(flags *RemoteFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon's dev server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return remoteClient(flags).Stop(cmd.Context())
		},
	}
	addRemoteFlags(cmd, flags)
	return cmd
}

func addRemoteFlags(cmd *cobra.Command, flags *RemoteFlags) {
	cmd.Flags().StringVar(&flags.APIUrl, "api-url", "http://localhost:8080", "daemon control API URL")
	cmd.Flags().DurationVar(&flags.APITimeout, "api-timeout", 10*time.Second, "request timeout")
}

func remoteClient(flags *RemoteFlags) *client.Client {
	return client.New(client.Config{BaseURL: flags.APIUrl, Timeout: flags.APITimeout})
}

func waitForInterrupt() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}
