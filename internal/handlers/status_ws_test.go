package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/statusboardhq/statusboard/internal/collector"
)

func dialTestWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/status/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	return conn
}

func TestStatusWSBroadcast(t *testing.T) {
	supervisor := collector.NewSupervisor(nil, time.Hour, 3)
	hub := NewStatusWSHandler(supervisor)
	defer hub.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status/ws", hub.HandleWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	conn := dialTestWS(t, server)
	defer conn.Close()

	// Registration is synchronous within the upgrade handler
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 connected client, got %d", hub.ClientCount())
	}

	hub.BroadcastOutcome(&collector.PollOutcome{
		Timestamp: time.Now(),
		HostsSeen: 3,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event StatusEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("failed to read broadcast: %v", err)
	}
	if event.Type != "poll_complete" {
		t.Errorf("unexpected event type: %s", event.Type)
	}
	if event.Outcome == nil || event.Outcome.HostsSeen != 3 {
		t.Errorf("unexpected outcome payload: %+v", event.Outcome)
	}
}

func TestStatusWSDropsClosedClients(t *testing.T) {
	supervisor := collector.NewSupervisor(nil, time.Hour, 3)
	hub := NewStatusWSHandler(supervisor)
	defer hub.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status/ws", hub.HandleWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	conn := dialTestWS(t, server)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("closed client still registered")
	}

	// Broadcasting with no clients must not panic
	hub.BroadcastOutcome(&collector.PollOutcome{Timestamp: time.Now()})
}
