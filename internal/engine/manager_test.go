package engine

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/marketlens/optionchain/internal/config"
	"github.com/marketlens/optionchain/internal/notify"
	"github.com/marketlens/optionchain/internal/replay"
)

func newTestManager(source replay.Source) *Manager {
	return NewManager(source, replay.NewPlayback(replay.ModeRotation), SessionOptions{
		FlashDuration:  time.Minute,
		StalenessTick:  time.Minute,
		StaleThreshold: 10 * time.Second,
		Cooldown:       time.Hour,
		OIChangeNoise:  100,
	}, &notify.NoopNotifier{}, zap.NewNop())
}

func TestManagerSessionReuse(t *testing.T) {
	m := newTestManager(testSource())
	defer m.Close()

	first, err := m.Session("SPX", "2026-08-28")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	second, err := m.Session("SPX", "2026-08-28")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if first != second {
		t.Error("expected the same session instance for the same chain")
	}
}

func TestManagerUnknownSymbol(t *testing.T) {
	m := newTestManager(testSource())
	defer m.Close()

	if _, err := m.Session("BOGUS", "2026-08-28"); !errors.Is(err, config.ErrUnknownSymbol) {
		t.Errorf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestManagerMissingRecording(t *testing.T) {
	m := newTestManager(testSource())
	defer m.Close()

	if _, err := m.Session("NDX", "2026-08-28"); !errors.Is(err, replay.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
