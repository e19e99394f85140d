package stream

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/orrery/sim"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Clients() = %d, want %d", h.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readSnapshot(t *testing.T, conn *websocket.Conn) sim.Snapshot {
	t.Helper()
	var snap sim.Snapshot
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return snap
}

func TestNewClientGetsLatestSnapshot(t *testing.T) {
	hub := NewHub(100, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	hub.Publish(sim.Snapshot{JD: 2451545, Mode: "free"})
	conn := dial(t, srv)

	if got := readSnapshot(t, conn); got.JD != 2451545 || got.Mode != "free" {
		t.Fatalf("first snapshot = %+v", got)
	}
}

func TestPublishIsRateLimitedPerClient(t *testing.T) {
	hub := NewHub(0.5, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	hub.Publish(sim.Snapshot{JD: 1})
	hub.Publish(sim.Snapshot{JD: 2})

	if got := readSnapshot(t, conn); got.JD != 1 {
		t.Fatalf("snapshot JD = %v, want 1", got.JD)
	}
	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var extra sim.Snapshot
	if err := conn.ReadJSON(&extra); err == nil {
		t.Fatalf("second snapshot %+v should have been dropped", extra)
	}
}

func TestClientDisconnectAndClose(t *testing.T) {
	hub := NewHub(100, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	first := dial(t, srv)
	dial(t, srv)
	waitForClients(t, hub, 2)

	first.Close()
	waitForClients(t, hub, 1)

	hub.Close()
	waitForClients(t, hub, 0)
}
