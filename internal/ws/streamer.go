package ws

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketlens/optionchain/internal/engine"
	"github.com/marketlens/optionchain/internal/prefs"
)

// Streamer pushes refreshed chain views to subscribed clients. A group is
// only broadcast when its store version moved since the last push, so idle
// chains generate no traffic.
type Streamer struct {
	hub          *Hub
	manager      *engine.Manager
	prefsStore   *prefs.Store
	encoder      *Encoder
	interval     time.Duration
	lastVersions map[string]uint64 // group -> last broadcast version
	mu           sync.Mutex
	paused       func() bool
	logger       *zap.Logger
}

// SetPauseCheck installs a predicate consulted before each broadcast cycle.
// While it returns true the streamer skips the cycle, so a recording swap
// never races a view push.
func (s *Streamer) SetPauseCheck(paused func() bool) {
	s.paused = paused
}

// NewStreamer creates a new Streamer.
func NewStreamer(hub *Hub, manager *engine.Manager, prefsStore *prefs.Store, interval time.Duration, logger *zap.Logger) (*Streamer, error) {
	enc, err := NewEncoder()
	if err != nil {
		return nil, err
	}

	return &Streamer{
		hub:          hub,
		manager:      manager,
		prefsStore:   prefsStore,
		encoder:      enc,
		interval:     interval,
		lastVersions: make(map[string]uint64),
		logger:       logger,
	}, nil
}

// Run starts the streaming loop. Call in a goroutine.
// Returns when context is cancelled.
func (s *Streamer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("streamer started",
		zap.Duration("interval", s.interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("streamer stopping")
			s.encoder.Close()
			return

		case <-ticker.C:
			s.broadcastChanged(ctx)
		}
	}
}

// broadcastChanged pushes every active group whose chain moved.
func (s *Streamer) broadcastChanged(ctx context.Context) {
	if s.paused != nil && s.paused() {
		return
	}

	groups := s.hub.ActiveGroups()
	if len(groups) == 0 {
		return
	}

	preferences := s.prefsStore.Current(ctx)

	for _, group := range groups {
		symbol, expiry, ok := splitGroup(group)
		if !ok {
			continue
		}

		session, err := s.manager.Session(symbol, expiry)
		if err != nil {
			s.logger.Debug("no session for group",
				zap.String("group", group),
				zap.Error(err),
			)
			continue
		}

		version := session.Version()
		s.mu.Lock()
		last, seen := s.lastVersions[group]
		s.mu.Unlock()
		if seen && last == version {
			continue
		}

		view := session.View(preferences)
		jsonPayload, compressedPayload, err := s.encoder.EncodeView(group, view)
		if err != nil {
			s.logger.Warn("failed to encode view",
				zap.String("group", group),
				zap.Error(err),
			)
			continue
		}

		s.hub.BroadcastDual(group, jsonPayload, compressedPayload)

		s.mu.Lock()
		s.lastVersions[group] = version
		s.mu.Unlock()

		s.logger.Debug("broadcast view",
			zap.String("group", group),
			zap.Uint64("version", version),
			zap.Int("jsonSize", len(jsonPayload)),
			zap.Int("compressedSize", len(compressedPayload)),
		)
	}
}

// splitGroup parses a "{symbol}/{expiry}" group key.
func splitGroup(group string) (symbol, expiry string, ok bool) {
	idx := strings.Index(group, "/")
	if idx <= 0 || idx == len(group)-1 {
		return "", "", false
	}
	return group[:idx], group[idx+1:], true
}
