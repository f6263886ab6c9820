package frontend

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gnet "github.com/shirou/gopsutil/v4/net"
)

const occupancyProbeTimeout = 1 * time.Second

// portAllocator orders candidate ports and detects occupancy before a
// spawn is attempted. An occupied port is skipped, never spawned on.
type portAllocator struct {
	logger *slog.Logger
	// connections is swappable for tests; defaults to gopsutil.
	connections func(kind string) ([]gnet.ConnectionStat, error)
	client      *http.Client
}

func newPortAllocator(lg *slog.Logger) *portAllocator {
	return &portAllocator{
		logger:      lg,
		connections: gnet.Connections,
		client:      &http.Client{Timeout: occupancyProbeTimeout},
	}
}

// candidates returns the fixed attempt order: start first, then the
// fallbacks in their configured order.
func candidates(start int, fallbacks []int) []int {
	out := make([]int, 0, 1+len(fallbacks))
	out = append(out, start)
	out = append(out, fallbacks...)
	return out
}

// isOccupied reports whether something is already listening on port.
// The connection table is the primary source; when it is unreadable
// (commonly a permissions issue on hardened hosts) a short HTTP probe
// is used instead, and if that errors too the port is assumed free so
// startup is never blocked by a failed probe.
func (pa *portAllocator) isOccupied(port int) bool {
	conns, err := pa.connections("tcp")
	if err == nil {
		for _, c := range conns {
			if c.Status == "LISTEN" && c.Laddr.Port == uint32(port) {
				return true
			}
		}
		return false
	}
	pa.logger.Warn("connection table unavailable, falling back to HTTP probe",
		"port", port, "error", err)

	resp, herr := pa.client.Get(fmt.Sprintf("http://127.0.0.1:%d", port))
	if herr == nil {
		_ = resp.Body.Close()
		// Anything answering HTTP on the port means it is taken.
		return true
	}
	return false
}
