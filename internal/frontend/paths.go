package frontend

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrPathNotFound is returned when no frontend project directory can be
// located. It is one of the two errors that reach the caller unabsorbed.
var ErrPathNotFound = errors.New("frontend project path not found")

// candidateDirs are probed in order when no path is configured. Order is
// significant and must stay stable across runs.
var candidateDirs = []string{
	"interface_web",
	"frontend",
	filepath.Join("services", "web_api", "interface-web-argumentative"),
}

// resolvePath locates the frontend project directory. A configured path
// that exists wins; otherwise the first candidate under root containing
// a package.json is used.
func resolvePath(root, configured string) (string, error) {
	if configured != "" {
		if info, err := os.Stat(configured); err == nil && info.IsDir() {
			return configured, nil
		}
	}
	for _, dir := range candidateDirs {
		p := filepath.Join(root, dir)
		if _, err := os.Stat(filepath.Join(p, "package.json")); err == nil {
			return p, nil
		}
	}
	return "", ErrPathNotFound
}
