package feed

import (
	"sync"
	"time"

	"github.com/marketlens/optionchain/internal/chain"
	"github.com/marketlens/optionchain/internal/replay"
)

const (
	RightCall = "CE"
	RightPut  = "PE"
)

// LegKey identifies one option leg within a store.
func LegKey(symbol string, strike float64, right string) string {
	return symbol + ":" + chain.FormatStrike(strike) + ":" + right
}

type legState struct {
	strike float64
	right  string
	side   chain.Side
}

// TickStore holds the merged live state of one option chain.
// Snapshots arrive as partial leg batches; the store merges each batch
// over the previous state and bumps a version counter whenever anything
// changed. Consumers poll Version or wait on Updates to detect change.
type TickStore struct {
	mu         sync.RWMutex
	symbol     string
	expiry     string
	legs       map[string]*legState
	spot       float64
	version    uint64
	lastUpdate time.Time
	updates    chan struct{}
}

func NewTickStore(symbol, expiry string) *TickStore {
	return &TickStore{
		symbol:  symbol,
		expiry:  expiry,
		legs:    make(map[string]*legState),
		updates: make(chan struct{}, 1),
	}
}

// Apply merges a recorded snapshot into the store. Legs replace their
// previous state; a missing ltp_chg is derived from the prior LTP so a
// leg becomes signal-eligible on its second tick. Returns true when the
// snapshot changed anything.
func (s *TickStore) Apply(snap *replay.Snapshot) bool {
	s.mu.Lock()

	changed := false

	if snap.Spot != 0 && snap.Spot != s.spot {
		s.spot = snap.Spot
		changed = true
	}

	for _, leg := range snap.Legs {
		key := LegKey(s.symbol, leg.Strike, leg.Right)
		incoming := leg.Side

		prev, ok := s.legs[key]
		if ok && incoming.LTPChg == nil {
			delta := incoming.LTP - prev.side.LTP
			incoming.LTPChg = &delta
		}

		if !ok || !sideEqual(prev.side, incoming) {
			s.legs[key] = &legState{strike: leg.Strike, right: leg.Right, side: incoming}
			changed = true
		}
	}

	if changed {
		s.version++
		s.lastUpdate = snap.Timestamp
	}
	s.mu.Unlock()

	if changed {
		select {
		case s.updates <- struct{}{}:
		default:
		}
	}
	return changed
}

func sameLTPChg(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sideEqual(a, b chain.Side) bool {
	if !sameLTPChg(a.LTPChg, b.LTPChg) {
		return false
	}
	a.LTPChg, b.LTPChg = nil, nil
	return a == b
}

// Version returns the store's current version counter.
func (s *TickStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Spot returns the last captured underlying price.
func (s *TickStore) Spot() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spot
}

// LastUpdate returns the timestamp of the last applied change.
func (s *TickStore) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// Updates returns a channel that receives a signal after each change.
func (s *TickStore) Updates() <-chan struct{} {
	return s.updates
}
