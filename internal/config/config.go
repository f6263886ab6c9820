package config

import (
	"fmt"
	"time"

	"github.com/loykin/devsrv/internal/frontend"
	"github.com/loykin/devsrv/internal/logger"
	"github.com/spf13/viper"
)

// FileConfig represents the top-level TOML structure.
//
//	[frontend]
//	enabled = true
//	path = "frontend"
//	start_port = 3000
//	fallback_ports = [3001, 3002]
//	start_command = "npm start"
//	timeout_seconds = 90
//
//	[server]
//	listen = ":8080"
//
//	[log]
//	dir = "logs"
type FileConfig struct {
	Frontend FrontendConfig `toml:"frontend" mapstructure:"frontend"`
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Log      LogConfig      `toml:"log" mapstructure:"log"`
}

type FrontendConfig struct {
	Enabled        *bool  `toml:"enabled" mapstructure:"enabled"`
	Path           string `toml:"path" mapstructure:"path"`
	StartPort      int    `toml:"start_port" mapstructure:"start_port"`
	FallbackPorts  []int  `toml:"fallback_ports" mapstructure:"fallback_ports"`
	StartCommand   string `toml:"start_command" mapstructure:"start_command"`
	BuildCommand   string `toml:"build_command" mapstructure:"build_command"`
	InstallCommand string `toml:"install_command" mapstructure:"install_command"`
	TimeoutSeconds int    `toml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts" mapstructure:"max_attempts"`
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	Color      bool   `toml:"color" mapstructure:"color"`
	Dir        string `toml:"dir" mapstructure:"dir"`
	Stdout     string `toml:"stdout" mapstructure:"stdout"`
	Stderr     string `toml:"stderr" mapstructure:"stderr"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// Load reads a TOML config file and validates it. path may be empty, in
// which case an all-defaults config is returned.
func Load(path string) (*FileConfig, error) {
	var fc FileConfig
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := v.Unmarshal(&fc); err != nil {
			return nil, err
		}
	}
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	return &fc, nil
}

// Validate rejects values the supervisor cannot act on.
func (fc *FileConfig) Validate() error {
	f := fc.Frontend
	if f.StartPort != 0 && (f.StartPort < 1 || f.StartPort > 65535) {
		return fmt.Errorf("frontend.start_port %d out of range", f.StartPort)
	}
	for _, p := range f.FallbackPorts {
		if p < 1 || p > 65535 {
			return fmt.Errorf("frontend.fallback_ports entry %d out of range", p)
		}
	}
	if f.TimeoutSeconds < 0 {
		return fmt.Errorf("frontend.timeout_seconds cannot be negative")
	}
	if f.MaxAttempts < 0 {
		return fmt.Errorf("frontend.max_attempts cannot be negative")
	}
	return nil
}

// FrontendSpec converts the file representation into the immutable
// supervisor spec. Zero fields fall through to the spec defaults.
func (fc *FileConfig) FrontendSpec() frontend.Spec {
	f := fc.Frontend
	enabled := true
	if f.Enabled != nil {
		enabled = *f.Enabled
	}
	return frontend.Spec{
		Enabled:        enabled,
		Path:           f.Path,
		StartPort:      f.StartPort,
		FallbackPorts:  f.FallbackPorts,
		StartCommand:   f.StartCommand,
		BuildCommand:   f.BuildCommand,
		InstallCommand: f.InstallCommand,
		ReadyTimeout:   time.Duration(f.TimeoutSeconds) * time.Second,
		MaxAttempts:    f.MaxAttempts,
		Log: logger.Config{
			Dir:        fc.Log.Dir,
			StdoutPath: fc.Log.Stdout,
			StderrPath: fc.Log.Stderr,
			MaxSizeMB:  fc.Log.MaxSizeMB,
			MaxBackups: fc.Log.MaxBackups,
			MaxAgeDays: fc.Log.MaxAgeDays,
			Compress:   fc.Log.Compress,
		},
	}
}

// ListenAddr returns the control API bind address with its default.
func (fc *FileConfig) ListenAddr() string {
	if fc.Server.Listen == "" {
		return ":8080"
	}
	return fc.Server.Listen
}
