package solana

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func testWSConfig() *WSConfig {
	cfg := DefaultWSConfig()
	cfg.SubscribeTimeout = 2 * time.Second
	cfg.Logger = log.New(io.Discard, "", 0)
	return &cfg
}

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestDialWS(t *testing.T) {
	server := echoServer(t)
	defer server.Close()

	client, err := DialWS(context.Background(), wsURL(server), testWSConfig())
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	defer client.Close()

	if client.closed.Load() {
		t.Error("fresh client should not be closed")
	}
}

func TestSubscribeLogsDeliversNotifications(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		if req.Method != "logsSubscribe" {
			t.Errorf("method = %s, want logsSubscribe", req.Method)
		}

		if err := conn.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: 77}); err != nil {
			return
		}
		conn.WriteJSON(wsNotification{
			JSONRPC: "2.0",
			Method:  "logsNotification",
			Params: &wsParams{
				Subscription: 77,
				Result: wsResult{
					Context: &wsContext{Slot: 4242},
					Value: wsLogsValue{
						Signature: "sigA",
						Logs:      []string{"Program log: initialize2"},
					},
				},
			},
		})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client, err := DialWS(context.Background(), wsURL(server), testWSConfig())
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeLogs(context.Background(), LogsFilter{Mentions: []string{"prog"}})
	if err != nil {
		t.Fatalf("SubscribeLogs: %v", err)
	}

	select {
	case notif := <-ch:
		if notif.Signature != "sigA" {
			t.Errorf("signature = %s, want sigA", notif.Signature)
		}
		if notif.Slot != 4242 {
			t.Errorf("slot = %d, want 4242", notif.Slot)
		}
		if len(notif.Logs) != 1 {
			t.Errorf("logs = %v, want one line", notif.Logs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for notification")
	}
}

func TestReconnectRetriesAfterFailedDial(t *testing.T) {
	notif := wsNotification{
		JSONRPC: "2.0",
		Method:  "logsNotification",
		Params: &wsParams{
			Subscription: 6,
			Result: wsResult{
				Context: &wsContext{Slot: 5151},
				Value:   wsLogsValue{Signature: "sigB", Logs: []string{"Program log: initialize2"}},
			},
		},
	}

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch attempts.Add(1) {
		case 1:
			// Confirm the subscription, then drop the connection to
			// force a reconnect.
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			_, msg, err := conn.ReadMessage()
			if err != nil {
				conn.Close()
				return
			}
			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				t.Errorf("unmarshal request: %v", err)
			}
			conn.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: 5})
			conn.Close()
		case 2:
			// Refuse the handshake so the first redial attempt fails.
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		default:
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				t.Errorf("unmarshal resubscribe: %v", err)
				return
			}
			if conn.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: 6}) != nil {
				return
			}
			for {
				if conn.WriteJSON(notif) != nil {
					return
				}
				time.Sleep(20 * time.Millisecond)
			}
		}
	}))
	defer server.Close()

	cfg := testWSConfig()
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.MaxReconnectDelay = 50 * time.Millisecond

	client, err := DialWS(context.Background(), wsURL(server), cfg)
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeLogs(context.Background(), LogsFilter{Mentions: []string{"prog"}})
	if err != nil {
		t.Fatalf("SubscribeLogs: %v", err)
	}

	select {
	case n := <-ch:
		if n.Signature != "sigB" {
			t.Errorf("signature = %s, want sigB", n.Signature)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream never resumed after a failed redial attempt")
	}
	if got := attempts.Load(); got < 3 {
		t.Errorf("connection attempts = %d, want at least 3", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	server := echoServer(t)
	defer server.Close()

	client, err := DialWS(context.Background(), wsURL(server), testWSConfig())
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("double Close: %v", err)
	}
	if !client.closed.Load() {
		t.Error("client should be closed")
	}
}

func TestSubscribeAfterClose(t *testing.T) {
	server := echoServer(t)
	defer server.Close()

	client, err := DialWS(context.Background(), wsURL(server), testWSConfig())
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	client.Close()

	if _, err := client.SubscribeLogs(context.Background(), LogsFilter{}); err == nil {
		t.Error("expected error subscribing after close")
	}
}
