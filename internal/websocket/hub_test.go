package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type headerCountingWriter struct {
	*httptest.ResponseRecorder
	writeHeaderCalls int
}

func (w *headerCountingWriter) WriteHeader(status int) {
	w.writeHeaderCalls++
	w.ResponseRecorder.WriteHeader(status)
}

func TestServeWSRejectsPlainHTTPWithSingleResponse(t *testing.T) {
	hub := NewHub()
	writer := &headerCountingWriter{ResponseRecorder: httptest.NewRecorder()}
	req := httptest.NewRequest(http.MethodGet, "/ws/balances?user_id=user-a", nil)

	ServeWS(writer, req, hub, "user-a")

	if writer.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", writer.Code)
	}
	if writer.writeHeaderCalls != 1 {
		t.Fatalf("expected exactly one WriteHeader, got %d", writer.writeHeaderCalls)
	}
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if len(hub.clients) != 0 {
		t.Fatalf("failed upgrade must not register a client")
	}
}

func TestBroadcastBalanceReachesEveryListener(t *testing.T) {
	hub := NewHub()
	first := &Client{send: make(chan []byte, 1)}
	second := &Client{send: make(chan []byte, 1)}
	hub.Register("user-a", first)
	hub.Register("user-a", second)
	hub.Register("user-b", &Client{send: make(chan []byte, 1)})

	hub.BroadcastBalance("user-a", BalanceUpdate{UserID: "user-a", Balance: "$5.00", LoanBalance: "$0.00"})

	for _, client := range []*Client{first, second} {
		select {
		case payload := <-client.send:
			if !strings.Contains(string(payload), `"balance":"$5.00"`) {
				t.Fatalf("unexpected payload: %s", payload)
			}
		default:
			t.Fatalf("listener did not receive the update")
		}
	}
}

func TestBroadcastBalanceSkipsFullBuffers(t *testing.T) {
	hub := NewHub()
	stalled := &Client{send: make(chan []byte, 1)}
	stalled.send <- []byte("backlog")
	hub.Register("user-a", stalled)

	// must not block even though the buffer is full
	hub.BroadcastBalance("user-a", BalanceUpdate{UserID: "user-a"})

	if got := <-stalled.send; string(got) != "backlog" {
		t.Fatalf("buffered message was displaced: %s", got)
	}
}

func TestUnregisterDropsEmptyUserSets(t *testing.T) {
	hub := NewHub()
	client := &Client{send: make(chan []byte, 1)}
	hub.Register("user-a", client)
	hub.Unregister("user-a", client)
	hub.Unregister("user-a", client)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if _, ok := hub.clients["user-a"]; ok {
		t.Fatalf("empty listener set must be removed")
	}
}
