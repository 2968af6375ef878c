package replay

import (
	"context"
	"sync"
)

// ReloadableSource wraps a Source and allows atomic replacement.
// All Source methods delegate to the current underlying source.
// This enables hot-reloading of recordings without stopping the server.
type ReloadableSource struct {
	mu      sync.RWMutex
	current Source
}

// NewReloadableSource creates a new ReloadableSource with the given initial source.
func NewReloadableSource(initial Source) *ReloadableSource {
	return &ReloadableSource{
		current: initial,
	}
}

// Swap atomically replaces the underlying source and returns the old one.
// Caller is responsible for closing the old source after swap.
func (r *ReloadableSource) Swap(newSource Source) Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.current
	r.current = newSource
	return old
}

// SnapshotAt returns the snapshot at the given index.
func (r *ReloadableSource) SnapshotAt(ctx context.Context, symbol, expiry string, index int) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.SnapshotAt(ctx, symbol, expiry, index)
}

// Length returns the number of snapshots available.
func (r *ReloadableSource) Length(symbol, expiry string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Length(symbol, expiry)
}

// Exists checks if a recording exists for the given combination.
func (r *ReloadableSource) Exists(symbol, expiry string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Exists(symbol, expiry)
}

// LoadedKeys returns all loaded recording keys.
func (r *ReloadableSource) LoadedKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.LoadedKeys()
}

// Close releases any resources held by the current source.
func (r *ReloadableSource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Close()
}

// Compile-time interface verification
var _ Source = (*ReloadableSource)(nil)
