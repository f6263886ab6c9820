package frontend

// Result reports the outcome of one StartWithFailover call.
type Result struct {
	Success bool   `json:"success"`
	Port    int    `json:"port,omitempty"`
	URL     string `json:"url,omitempty"`
	PID     int    `json:"pid,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Status is a point-in-time snapshot of the supervisor.
type Status struct {
	Enabled bool   `json:"enabled"`
	Running bool   `json:"running"`
	Port    int    `json:"port,omitempty"`
	URL     string `json:"url,omitempty"`
	PID     int    `json:"pid,omitempty"`
	Path    string `json:"path,omitempty"`
}
