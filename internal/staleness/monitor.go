// Package staleness derives "seconds since last update" for a chain on a
// fixed tick and flags the chain stale past a threshold.
package staleness

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultInterval is the recompute tick.
	DefaultInterval = time.Second
	// DefaultThreshold is the age past which a chain counts as stale.
	DefaultThreshold = 10 * time.Second
)

// Status is one recomputed freshness sample.
type Status struct {
	ElapsedSeconds int  `json:"elapsed_seconds"`
	Stale          bool `json:"stale"`
}

// Monitor recomputes freshness on a fixed interval and immediately when the
// last-update timestamp changes. It has no side effects beyond recomputation
// and notifying subscribers; Run returns when its context is cancelled.
type Monitor struct {
	mu         sync.RWMutex
	lastUpdate time.Time
	interval   time.Duration
	threshold  time.Duration
	subs       map[chan Status]bool
	logger     *zap.Logger
	now        func() time.Time
}

// NewMonitor creates a Monitor. Non-positive interval or threshold fall back
// to the defaults.
func NewMonitor(interval, threshold time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Monitor{
		interval:  interval,
		threshold: threshold,
		subs:      make(map[chan Status]bool),
		logger:    logger,
		now:       time.Now,
	}
}

// Touch records a new last-update timestamp and recomputes immediately.
func (m *Monitor) Touch(lastUpdate time.Time) {
	m.mu.Lock()
	m.lastUpdate = lastUpdate
	m.mu.Unlock()
	m.notify(m.Status())
}

// Status returns the current freshness sample. Before the first Touch the
// chain has never updated and reports stale with zero elapsed.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastUpdate.IsZero() {
		return Status{Stale: true}
	}
	elapsed := m.now().Sub(m.lastUpdate)
	if elapsed < 0 {
		elapsed = 0
	}
	return Status{
		ElapsedSeconds: int(elapsed / time.Second),
		Stale:          elapsed > m.threshold,
	}
}

// Subscribe registers an observer channel. The returned cancel func removes
// it; the channel keeps receiving only while the monitor is observed.
func (m *Monitor) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 1)
	m.mu.Lock()
	m.subs[ch] = true
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		delete(m.subs, ch)
		m.mu.Unlock()
	}
	return ch, cancel
}

// Run ticks until ctx is cancelled, pushing a fresh sample to subscribers on
// every tick. Call in a goroutine.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if m.logger != nil {
				m.logger.Info("staleness monitor stopping")
			}
			return
		case <-ticker.C:
			m.notify(m.Status())
		}
	}
}

func (m *Monitor) notify(s Status) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for ch := range m.subs {
		select {
		case ch <- s:
		default:
			// Subscriber lagging; it will catch the next sample.
		}
	}
}
