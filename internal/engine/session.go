// Package engine owns one live analytics session per (symbol, expiry) and
// assembles the refreshed view the transport layers serve.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketlens/optionchain/internal/chain"
	"github.com/marketlens/optionchain/internal/feed"
	"github.com/marketlens/optionchain/internal/flash"
	"github.com/marketlens/optionchain/internal/notify"
	"github.com/marketlens/optionchain/internal/prefs"
	"github.com/marketlens/optionchain/internal/replay"
	"github.com/marketlens/optionchain/internal/staleness"
)

var (
	// ErrCooldown means a forced refresh arrived inside the cooldown
	// window and was dropped.
	ErrCooldown = errors.New("refresh throttled")
	// ErrExhausted means the recording ran out in exhaust mode.
	ErrExhausted = errors.New("recording exhausted")
)

// RowView is one chain row plus its per-side OI signals.
type RowView struct {
	chain.Row
	CeSignal chain.Signal `json:"ce_signal"`
	PeSignal chain.Signal `json:"pe_signal"`
}

// View is the complete render state for one chain at one instant.
type View struct {
	Symbol    string                 `json:"symbol"`
	Expiry    string                 `json:"expiry"`
	Spot      float64                `json:"spot"`
	Rows      []RowView              `json:"rows"`
	Stats     chain.Stats            `json:"stats"`
	Flashes   map[string]flash.Entry `json:"flashes"`
	Staleness staleness.Status       `json:"staleness"`
	Version   uint64                 `json:"version"`
	Filtered  bool                   `json:"filtered"`
}

// SessionOptions carries the tunables a Session is built with.
type SessionOptions struct {
	Step           float64 // strike spacing for the symbol
	FlashDuration  time.Duration
	StalenessTick  time.Duration
	StaleThreshold time.Duration
	Cooldown       time.Duration
	OIChangeNoise  float64
}

// Session drives one chain: it pulls recorded snapshots, merges them into
// the tick store, tracks flashes and freshness, and builds views on demand.
type Session struct {
	symbol string
	expiry string
	opts   SessionOptions

	source   replay.Source
	playback *replay.Playback

	store    *feed.TickStore
	tracker  *flash.Tracker
	monitor  *staleness.Monitor
	cooldown *feed.Cooldown

	sortMu sync.Mutex
	sorter *chain.Sorter

	logger *zap.Logger
}

func NewSession(symbol, expiry string, source replay.Source, playback *replay.Playback, opts SessionOptions, logger *zap.Logger) *Session {
	if opts.OIChangeNoise <= 0 {
		opts.OIChangeNoise = chain.DefaultOIChangeNoise
	}
	return &Session{
		symbol:   symbol,
		expiry:   expiry,
		opts:     opts,
		source:   source,
		playback: playback,
		store:    feed.NewTickStore(symbol, expiry),
		tracker:  flash.NewTracker(opts.FlashDuration, logger),
		monitor:  staleness.NewMonitor(opts.StalenessTick, opts.StaleThreshold, logger),
		cooldown: feed.NewCooldown(opts.Cooldown),
		sorter:   chain.NewSorter(symbol, expiry),
		logger:   logger,
	}
}

// Refresh pulls the next recorded snapshot and merges it in. A forced
// refresh inside the cooldown window returns ErrCooldown and does nothing.
func (s *Session) Refresh(ctx context.Context, forced bool) error {
	if forced && !s.cooldown.Allow() {
		return ErrCooldown
	}

	key := replay.RecordingKey(s.symbol, s.expiry)
	length, err := s.source.Length(s.symbol, s.expiry)
	if err != nil {
		return err
	}

	index, exhausted := s.playback.NextIndex(key, length)
	if exhausted {
		return ErrExhausted
	}

	snap, err := s.source.SnapshotAt(ctx, s.symbol, s.expiry, index)
	if err != nil {
		return err
	}

	if s.store.Apply(snap) {
		s.tracker.Ingest(s.store.Rows(s.opts.Step))
		s.monitor.Touch(s.store.LastUpdate())
		s.logger.Debug("chain refreshed",
			zap.String("symbol", s.symbol),
			zap.String("expiry", s.expiry),
			zap.Int("index", index),
			zap.Uint64("version", s.store.Version()),
		)
	}
	return nil
}

// View assembles the current render state under the given preferences.
// Stats always aggregate the full chain even when the rows are filtered.
func (s *Session) View(p prefs.Preferences) View {
	rows := s.store.Rows(s.opts.Step)
	spot := s.store.Spot()

	stats := chain.ComputeStats(rows, spot)

	visible := chain.FilterByRange(rows, p.StrikeRange, spot, s.opts.Step)
	filtered := len(visible) < len(rows)

	s.sortMu.Lock()
	visible = s.sorter.Apply(visible)
	s.sortMu.Unlock()

	rowViews := make([]RowView, len(visible))
	for i, row := range visible {
		rv := RowView{Row: row, CeSignal: chain.SignalNeutral, PeSignal: chain.SignalNeutral}
		if p.ShowOISignals {
			rv.CeSignal = chain.ClassifySide(row.CE, s.opts.OIChangeNoise)
			rv.PeSignal = chain.ClassifySide(row.PE, s.opts.OIChangeNoise)
		}
		rowViews[i] = rv
	}

	return View{
		Symbol:    s.symbol,
		Expiry:    s.expiry,
		Spot:      spot,
		Rows:      rowViews,
		Stats:     stats,
		Flashes:   s.tracker.Entries(),
		Staleness: s.monitor.Status(),
		Version:   s.store.Version(),
		Filtered:  filtered,
	}
}

// Rows returns the full unfiltered chain, strike ascending.
func (s *Session) Rows() []chain.Row {
	return s.store.Rows(s.opts.Step)
}

// Spot returns the last captured underlying price.
func (s *Session) Spot() float64 {
	return s.store.Spot()
}

// Version returns the store's version counter.
func (s *Session) Version() uint64 {
	return s.store.Version()
}

// Updates signals after each store change, coalesced.
func (s *Session) Updates() <-chan struct{} {
	return s.store.Updates()
}

// ToggleSort advances the sort cycle for a column and returns the
// resulting state.
func (s *Session) ToggleSort(field string) (string, chain.SortDirection) {
	s.sortMu.Lock()
	defer s.sortMu.Unlock()
	s.sorter.Toggle(field)
	return s.sorter.Column(), s.sorter.Direction()
}

// RunStaleness ticks the freshness monitor and pushes stale/recovered
// alerts through the notifier. Blocks until ctx is cancelled.
func (s *Session) RunStaleness(ctx context.Context, notifier notify.Notifier) {
	statuses, cancel := s.monitor.Subscribe()
	defer cancel()

	go s.monitor.Run(ctx)

	var staleSince time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case status := <-statuses:
			// A never-updated session reports stale with zero elapsed;
			// that is startup, not an outage.
			if status.Stale && status.ElapsedSeconds == 0 {
				continue
			}
			switch {
			case status.Stale && staleSince.IsZero():
				staleSince = time.Now()
				elapsed := time.Duration(status.ElapsedSeconds) * time.Second
				if err := notifier.SendStale(ctx, s.symbol, s.expiry, elapsed); err != nil {
					s.logger.Warn("stale alert failed", zap.Error(err))
				}
			case !status.Stale && !staleSince.IsZero():
				downFor := time.Since(staleSince)
				staleSince = time.Time{}
				if err := notifier.SendRecovered(ctx, s.symbol, s.expiry, downFor); err != nil {
					s.logger.Warn("recovery alert failed", zap.Error(err))
				}
			}
		}
	}
}

// Close releases the session's flash tracker state.
func (s *Session) Close() {
	s.tracker.Close()
}
