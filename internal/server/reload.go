package server

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/marketlens/optionchain/internal/replay"
)

// ReloadManager coordinates recording reloads. It manages the atomic swap
// of the snapshot source and the playback reset during hot reload.
type ReloadManager struct {
	source   *replay.ReloadableSource
	playback *replay.Playback
	dataDir  string
	logger   *zap.Logger

	// Reload state
	isReloading atomic.Bool
	reloadMu    sync.Mutex // prevents concurrent reloads

	// Current state
	loadedAt time.Time
	stateMu  sync.RWMutex
}

// NewReloadManager creates a new ReloadManager.
func NewReloadManager(source *replay.ReloadableSource, playback *replay.Playback, dataDir string, logger *zap.Logger) *ReloadManager {
	return &ReloadManager{
		source:   source,
		playback: playback,
		dataDir:  dataDir,
		logger:   logger,
		loadedAt: time.Now(),
	}
}

// IsReloading returns true if a reload is currently in progress.
// Streamers should check this and skip broadcasts during reload.
func (rm *ReloadManager) IsReloading() bool {
	return rm.isReloading.Load()
}

// LoadedAt returns the timestamp when the current recordings were loaded.
func (rm *ReloadManager) LoadedAt() time.Time {
	rm.stateMu.RLock()
	defer rm.stateMu.RUnlock()
	return rm.loadedAt
}

// LoadedKeys returns the recording keys currently being served.
func (rm *ReloadManager) LoadedKeys() []string {
	return rm.source.LoadedKeys()
}

// ReloadResult contains the result of a successful reload operation.
type ReloadResult struct {
	LoadedAt         time.Time `json:"loaded_at"`
	RecordingsLoaded int       `json:"recordings_loaded"`
	PositionsReset   int       `json:"positions_reset"`
}

// Reload re-reads the data directory, swaps the source, and resets all
// playback positions. On failure the original recordings remain intact.
func (rm *ReloadManager) Reload(ctx context.Context) (*ReloadResult, error) {
	// Prevent concurrent reloads
	if !rm.reloadMu.TryLock() {
		return nil, fmt.Errorf("reload already in progress")
	}
	defer rm.reloadMu.Unlock()

	rm.logger.Info("starting hot reload", zap.String("dataDir", rm.dataDir))

	newSource, err := replay.NewMemoryLoader(rm.dataDir, rm.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load recordings: %w", err)
	}

	loadedKeys := newSource.LoadedKeys()

	// Signal streamers to pause
	rm.isReloading.Store(true)

	// Give streamers time to finish current broadcast cycle
	time.Sleep(100 * time.Millisecond)

	// Swap the source atomically
	oldSource := rm.source.Swap(newSource)

	// Reset all playback positions
	resetCount := rm.playback.Reset("")

	// Update current state
	rm.stateMu.Lock()
	rm.loadedAt = time.Now()
	loadedAt := rm.loadedAt
	rm.stateMu.Unlock()

	// Resume streamers
	rm.isReloading.Store(false)

	// Close old source (release resources)
	if err := oldSource.Close(); err != nil {
		rm.logger.Warn("failed to close old source", zap.Error(err))
	}

	rm.logger.Info("hot reload complete",
		zap.Time("loadedAt", loadedAt),
		zap.Int("recordingsLoaded", len(loadedKeys)),
		zap.Int("positionsReset", resetCount),
	)

	return &ReloadResult{
		LoadedAt:         loadedAt,
		RecordingsLoaded: len(loadedKeys),
		PositionsReset:   resetCount,
	}, nil
}
