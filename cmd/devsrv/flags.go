package main

import "time"

// Flag structs decouple cobra from command logic for testing.

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
	LogLevel   string
	NoColor    bool
}

// StartFlags configures the local start command.
type StartFlags struct {
	Path    string
	Port    int
	Timeout time.Duration
	// NonBlocking returns right after readiness instead of serving
	// until interrupt; used by tests.
	NonBlocking bool
}

// ServeFlags configures the daemon mode.
type ServeFlags struct {
	Listen    string
	BasePath  string
	AutoStart bool
}

// RemoteFlags configures commands that talk to a running daemon.
type RemoteFlags struct {
	APIUrl     string
	APITimeout time.Duration
}
