package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Store holds the current preferences in memory and mirrors them through a
// KV. Storage failures never surface to the caller: a failed read yields
// defaults, a failed write still updates the in-memory state.
type Store struct {
	mu      sync.RWMutex
	kv      KV
	current Preferences
	loaded  bool
	logger  *zap.Logger
}

// NewStore creates a Store over the given KV.
func NewStore(kv KV, logger *zap.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Load reads stored preferences and merges them field-by-field with the
// defaults. Individually malformed fields fall back on their own; the whole
// object is never rejected for one bad field.
func (s *Store) Load(ctx context.Context) Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaults := Defaults()

	raw, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) && s.logger != nil {
			s.logger.Warn("preference read failed, using defaults", zap.Error(err))
		}
		s.current = defaults
		s.loaded = true
		return s.current
	}

	s.current = merge(defaults, []byte(raw))
	s.loaded = true
	return s.current
}

// Current returns the in-memory preferences, loading once if needed.
func (s *Store) Current(ctx context.Context) Preferences {
	s.mu.RLock()
	if s.loaded {
		p := s.current
		s.mu.RUnlock()
		return p
	}
	s.mu.RUnlock()
	return s.Load(ctx)
}

// Save merges the patch into the current preferences and attempts to
// persist. Persistence failures are swallowed after logging; the in-memory
// state always updates.
func (s *Store) Save(ctx context.Context, patch Patch) Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.current = Defaults()
		s.loaded = true
	}
	s.current = s.current.apply(patch)

	data, err := json.Marshal(s.current)
	if err != nil {
		// Preferences marshal cleanly by construction; nothing else to do.
		return s.current
	}
	if err := s.kv.Set(ctx, StorageKey, string(data)); err != nil {
		if s.logger != nil {
			s.logger.Warn("preference write failed, keeping in-memory state", zap.Error(err))
		}
	}
	return s.current
}
