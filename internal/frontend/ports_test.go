package frontend

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"testing"

	gnet "github.com/shirou/gopsutil/v4/net"
)

func TestCandidatesOrder(t *testing.T) {
	got := candidates(3000, []int{3001, 3002})
	if !reflect.DeepEqual(got, []int{3000, 3001, 3002}) {
		t.Fatalf("unexpected order: %v", got)
	}
	if got := candidates(8080, nil); !reflect.DeepEqual(got, []int{8080}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func fakeConns(listening ...int) func(string) ([]gnet.ConnectionStat, error) {
	return func(string) ([]gnet.ConnectionStat, error) {
		var out []gnet.ConnectionStat
		for _, p := range listening {
			out = append(out, gnet.ConnectionStat{
				Status: "LISTEN",
				Laddr:  gnet.Addr{IP: "127.0.0.1", Port: uint32(p)},
			})
		}
		// An established connection on another port must not count.
		out = append(out, gnet.ConnectionStat{
			Status: "ESTABLISHED",
			Laddr:  gnet.Addr{IP: "127.0.0.1", Port: 9999},
		})
		return out, nil
	}
}

func TestIsOccupiedConnectionTable(t *testing.T) {
	pa := newPortAllocator(slog.Default())
	pa.connections = fakeConns(3000)
	if !pa.isOccupied(3000) {
		t.Fatalf("3000 is listed as LISTEN, want occupied")
	}
	if pa.isOccupied(3001) {
		t.Fatalf("3001 not listed, want free")
	}
	if pa.isOccupied(9999) {
		t.Fatalf("ESTABLISHED must not mark a port occupied")
	}
}

func TestIsOccupiedHTTPFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	port, err := strconv.Atoi(strings.TrimPrefix(srv.URL, "http://127.0.0.1:"))
	if err != nil {
		t.Fatalf("parse test server port: %v", err)
	}

	pa := newPortAllocator(slog.Default())
	pa.connections = func(string) ([]gnet.ConnectionStat, error) {
		return nil, errors.New("permission denied")
	}
	if !pa.isOccupied(port) {
		t.Fatalf("HTTP fallback must detect the listening test server")
	}
}

func TestIsOccupiedLenientWhenBothProbesFail(t *testing.T) {
	pa := newPortAllocator(slog.Default())
	pa.connections = func(string) ([]gnet.ConnectionStat, error) {
		return nil, errors.New("permission denied")
	}
	// Nothing listens here; the HTTP probe errors and the port is
	// assumed free rather than blocking startup.
	if pa.isOccupied(1) {
		t.Fatalf("want lenient free verdict when probes are unusable")
	}
}
