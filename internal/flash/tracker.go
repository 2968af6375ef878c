// Package flash detects cell-level changes between consecutive chain
// snapshots and maintains the short-lived highlight markers the UI renders.
package flash

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketlens/optionchain/internal/chain"
)

// Direction of a value change.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Entry is one transient flash marker, keyed "{field}_{strike}".
type Entry struct {
	Direction Direction `json:"direction"`
	At        time.Time `json:"at"`
}

const (
	// DefaultDuration is how long a flash entry stays alive.
	DefaultDuration = 800 * time.Millisecond
	// cleanupBuffer pads the deferred cleanup past the flash duration so a
	// cleanup never races an entry created right at the boundary.
	cleanupBuffer = 100 * time.Millisecond
)

// trackedFields are compared between consecutive snapshots. Raw struct
// access, not the zero-defaulting accessor: a transition to or from a
// non-finite value must not register as a change to or from zero.
var trackedFields = []struct {
	name string
	get  func(chain.Row) float64
}{
	{chain.FieldCeLTP, func(r chain.Row) float64 { return r.CE.LTP }},
	{chain.FieldPeLTP, func(r chain.Row) float64 { return r.PE.LTP }},
	{chain.FieldCeOI, func(r chain.Row) float64 { return r.CE.OI }},
	{chain.FieldPeOI, func(r chain.Row) float64 { return r.PE.OI }},
}

// Tracker retains the previous full-chain snapshot and the live flash set
// for one chain identity. It owns both exclusively; callers interact only
// through Ingest, Entries, Version, Updates, and Close.
type Tracker struct {
	mu       sync.Mutex
	duration time.Duration
	prev     map[float64]chain.Row
	entries  map[string]Entry
	cleanup  *time.Timer
	version  uint64
	updates  chan struct{}
	closed   bool
	logger   *zap.Logger
	now      func() time.Time
}

// NewTracker creates a Tracker with the given flash duration.
func NewTracker(duration time.Duration, logger *zap.Logger) *Tracker {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Tracker{
		duration: duration,
		prev:     make(map[float64]chain.Row),
		entries:  make(map[string]Entry),
		updates:  make(chan struct{}, 1),
		logger:   logger,
		now:      time.Now,
	}
}

// Ingest diffs the new snapshot against the immediately preceding one and
// merges the resulting flash entries into the live set. The retained
// previous snapshot is replaced unconditionally, even when nothing flashed,
// so the next diff is always against this snapshot. Returns a copy of the
// live flash set.
func (t *Tracker) Ingest(rows []chain.Row) map[string]Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	now := t.now()
	t.pruneLocked(now)

	next := make(map[float64]chain.Row, len(rows))
	for _, r := range rows {
		next[r.Strike] = r
	}

	changed := false
	for strike, newRow := range next {
		oldRow, ok := t.prev[strike]
		if !ok {
			continue
		}
		for _, f := range trackedFields {
			oldVal, newVal := f.get(oldRow), f.get(newRow)
			if !isFinite(oldVal) || !isFinite(newVal) || oldVal == newVal {
				continue
			}
			dir := DirectionUp
			if newVal < oldVal {
				dir = DirectionDown
			}
			t.entries[key(f.name, strike)] = Entry{Direction: dir, At: now}
			changed = true
		}
	}

	t.prev = next

	if changed {
		t.version++
		t.scheduleCleanupLocked()
		select {
		case t.updates <- struct{}{}:
		default:
		}
		if t.logger != nil {
			t.logger.Debug("flash entries merged",
				zap.Int("live", len(t.entries)),
				zap.Uint64("version", t.version),
			)
		}
	}

	return t.copyEntriesLocked()
}

// Entries returns a copy of the currently live flash set.
func (t *Tracker) Entries() map[string]Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copyEntriesLocked()
}

// Version increments whenever any entry's timestamp changes, including a
// repeated same-direction flash on the same cell, so observers restart the
// visual emphasis on every occurrence.
func (t *Tracker) Version() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}

// Updates signals (coalesced) whenever the flash set changed.
func (t *Tracker) Updates() <-chan struct{} {
	return t.updates
}

// Close cancels any pending cleanup and clears retained state.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	if t.cleanup != nil {
		t.cleanup.Stop()
		t.cleanup = nil
	}
	t.prev = nil
	t.entries = nil
}

// scheduleCleanupLocked arms the deferred expiry sweep, always cancelling a
// previously pending one first so an old batch's cleanup cannot delete
// entries a newer batch refreshed in between.
func (t *Tracker) scheduleCleanupLocked() {
	if t.cleanup != nil {
		t.cleanup.Stop()
	}
	t.cleanup = time.AfterFunc(t.duration+cleanupBuffer, t.expire)
}

func (t *Tracker) expire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.pruneLocked(t.now())
}

func (t *Tracker) pruneLocked(now time.Time) {
	for k, e := range t.entries {
		if now.Sub(e.At) > t.duration {
			delete(t.entries, k)
		}
	}
}

func (t *Tracker) copyEntriesLocked() map[string]Entry {
	out := make(map[string]Entry, len(t.entries))
	for k, e := range t.entries {
		out[k] = e
	}
	return out
}

func key(field string, strike float64) string {
	return field + "_" + chain.FormatStrike(strike)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
