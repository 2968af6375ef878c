package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/marketlens/optionchain/internal/engine"
)

func TestParseClientMessage(t *testing.T) {
	msg, err := parseClientMessage([]byte(`{"action":"subscribe","symbol":"SPX","expiry":"2026-08-28"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.Action != actionSubscribe || msg.Symbol != "SPX" || msg.Expiry != "2026-08-28" {
		t.Errorf("unexpected message: %+v", msg)
	}

	if _, err := parseClientMessage([]byte(`{bad json`)); err == nil {
		t.Error("expected error for malformed frame")
	}
}

func TestBuildMessages(t *testing.T) {
	var msg serverMessage

	if err := json.Unmarshal(buildAckMessage("SPX/2026-08-28"), &msg); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if msg.Type != typeAck || msg.Group != "SPX/2026-08-28" {
		t.Errorf("unexpected ack: %+v", msg)
	}

	if err := json.Unmarshal(buildErrorMessage("nope"), &msg); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if msg.Type != typeError || msg.Message != "nope" {
		t.Errorf("unexpected error message: %+v", msg)
	}

	if err := json.Unmarshal(buildPongMessage(), &msg); err != nil {
		t.Fatalf("unmarshal pong: %v", err)
	}
	if msg.Type != typePong {
		t.Errorf("unexpected pong: %+v", msg)
	}
}

func TestEncodeViewBothForms(t *testing.T) {
	enc, err := NewEncoder()
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	defer enc.Close()

	view := engine.View{Symbol: "SPX", Expiry: "2026-08-28", Spot: 6450, Version: 7}
	jsonPayload, compressedPayload, err := enc.EncodeView("SPX/2026-08-28", view)
	if err != nil {
		t.Fatalf("EncodeView: %v", err)
	}

	var msg serverMessage
	if err := json.Unmarshal(jsonPayload, &msg); err != nil {
		t.Fatalf("unmarshal view message: %v", err)
	}
	if msg.Type != typeView || msg.Group != "SPX/2026-08-28" {
		t.Errorf("unexpected view envelope: %+v", msg)
	}

	var decoded engine.View
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		t.Fatalf("unmarshal view data: %v", err)
	}
	if decoded.Spot != 6450 || decoded.Version != 7 {
		t.Errorf("unexpected view data: %+v", decoded)
	}

	// The compressed frame must decompress back to the JSON payload.
	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	plain, err := dec.DecodeAll(compressedPayload, nil)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(plain) != string(jsonPayload) {
		t.Error("compressed frame should decompress to the JSON payload")
	}
}

func TestStreamerSkipsCycleWhilePaused(t *testing.T) {
	hub := NewHub("chain", zap.NewNop())
	client := &Client{
		send:   make(chan []byte, 1),
		connID: "test-conn",
		groups: make(map[string]bool),
	}
	hub.JoinGroup(client, "SPX/2026-08-28")

	enc, err := NewEncoder()
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	defer enc.Close()

	streamer := &Streamer{
		hub:          hub,
		encoder:      enc,
		lastVersions: make(map[string]uint64),
		logger:       zap.NewNop(),
	}
	streamer.SetPauseCheck(func() bool { return true })

	streamer.broadcastChanged(context.Background())

	select {
	case payload := <-client.send:
		t.Errorf("paused streamer should push nothing, got %d bytes", len(payload))
	default:
	}
	if len(streamer.lastVersions) != 0 {
		t.Errorf("paused streamer should record no versions, got %v", streamer.lastVersions)
	}
}

func TestSplitGroup(t *testing.T) {
	tests := []struct {
		group  string
		symbol string
		expiry string
		ok     bool
	}{
		{"SPX/2026-08-28", "SPX", "2026-08-28", true},
		{"noslash", "", "", false},
		{"/2026-08-28", "", "", false},
		{"SPX/", "", "", false},
	}

	for _, tt := range tests {
		symbol, expiry, ok := splitGroup(tt.group)
		if symbol != tt.symbol || expiry != tt.expiry || ok != tt.ok {
			t.Errorf("splitGroup(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.group, symbol, expiry, ok, tt.symbol, tt.expiry, tt.ok)
		}
	}
}
