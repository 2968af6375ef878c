package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketlens/optionchain/internal/config"
	"github.com/marketlens/optionchain/internal/notify"
	"github.com/marketlens/optionchain/internal/replay"
)

// Manager lazily creates and caches one Session per (symbol, expiry).
// All sessions share the snapshot source and playback positions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	source   replay.Source
	playback *replay.Playback
	opts     SessionOptions
	notifier notify.Notifier
	logger   *zap.Logger

	runCtx    context.Context
	runCancel context.CancelFunc
}

func NewManager(source replay.Source, playback *replay.Playback, opts SessionOptions, notifier notify.Notifier, logger *zap.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sessions:  make(map[string]*Session),
		source:    source,
		playback:  playback,
		opts:      opts,
		notifier:  notifier,
		logger:    logger,
		runCtx:    ctx,
		runCancel: cancel,
	}
}

// Session returns the session for a chain, creating it on first use.
// Unknown symbols and missing recordings are rejected up front so a bad
// request never allocates a session.
func (m *Manager) Session(symbol, expiry string) (*Session, error) {
	step, err := config.StrikeStepFor(symbol)
	if err != nil {
		return nil, err
	}
	if !m.source.Exists(symbol, expiry) {
		return nil, fmt.Errorf("%w: %s/%s", replay.ErrNotFound, symbol, expiry)
	}

	key := replay.RecordingKey(symbol, expiry)

	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[key]; ok {
		return session, nil
	}

	opts := m.opts
	opts.Step = step
	session := NewSession(symbol, expiry, m.source, m.playback, opts, m.logger)
	m.sessions[key] = session

	go session.RunStaleness(m.runCtx, m.notifier)

	m.logger.Info("session created",
		zap.String("symbol", symbol),
		zap.String("expiry", expiry),
	)
	return session, nil
}

// Poll refreshes every live session on a fixed interval until ctx is
// cancelled. Exhausted recordings are left alone; other errors are logged.
func (m *Manager) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("session poller stopping")
			return
		case <-ticker.C:
			for key, session := range m.snapshotSessions() {
				if err := session.Refresh(ctx, false); err != nil && err != ErrExhausted {
					m.logger.Warn("refresh failed", zap.String("session", key), zap.Error(err))
				}
			}
		}
	}
}

func (m *Manager) snapshotSessions() map[string]*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*Session, len(m.sessions))
	for k, s := range m.sessions {
		out[k] = s
	}
	return out
}

// Close stops staleness watchers and releases all sessions.
func (m *Manager) Close() {
	m.runCancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, session := range m.sessions {
		session.Close()
	}
	m.sessions = make(map[string]*Session)
}
