package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSendStale_PostsToTopic(t *testing.T) {
	var gotPath, gotTitle, gotPriority string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("Title")
		gotPriority = r.Header.Get("Priority")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&Config{
		Enabled:  true,
		Server:   server.URL,
		Topic:    "chain-alerts",
		Priority: "default",
		Tags:     "hourglass",
	}, zap.NewNop())

	err := client.SendStale(context.Background(), "SPX", "2026-08-28", 12*time.Second)
	if err != nil {
		t.Fatalf("SendStale: %v", err)
	}

	if gotPath != "/chain-alerts" {
		t.Errorf("expected POST to /chain-alerts, got %s", gotPath)
	}
	if gotTitle != "Chain Stale: SPX 2026-08-28" {
		t.Errorf("unexpected title: %s", gotTitle)
	}
	if gotPriority != "high" {
		t.Errorf("stale alerts should be high priority, got %s", gotPriority)
	}
}

func TestSendRecovered_UsesConfiguredPriority(t *testing.T) {
	var gotPriority string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPriority = r.Header.Get("Priority")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&Config{
		Enabled:  true,
		Server:   server.URL,
		Topic:    "chain-alerts",
		Priority: "low",
	}, zap.NewNop())

	if err := client.SendRecovered(context.Background(), "SPY", "2026-08-28", time.Minute); err != nil {
		t.Fatalf("SendRecovered: %v", err)
	}
	if gotPriority != "low" {
		t.Errorf("expected configured priority 'low', got %s", gotPriority)
	}
}

func TestSend_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(&Config{
		Enabled: true,
		Server:  server.URL,
		Topic:   "chain-alerts",
	}, zap.NewNop())

	if err := client.SendStale(context.Background(), "SPX", "2026-08-28", time.Second); err == nil {
		t.Error("expected error for non-2xx response")
	}
}

func TestDisabledClientSendsNothing(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(&Config{Enabled: false, Server: server.URL, Topic: "x"}, zap.NewNop())
	if err := client.SendStale(context.Background(), "SPX", "2026-08-28", time.Second); err != nil {
		t.Fatalf("disabled client returned error: %v", err)
	}
	if called {
		t.Error("disabled client should not hit the server")
	}
}

func TestNew_ReturnsNoopWhenDisabled(t *testing.T) {
	n := New(&Config{Enabled: false}, zap.NewNop())
	if _, ok := n.(*NoopNotifier); !ok {
		t.Errorf("expected NoopNotifier, got %T", n)
	}
}
