package replay

import (
	"context"
	"errors"
	"time"

	"github.com/marketlens/optionchain/internal/chain"
)

var (
	ErrNotFound         = errors.New("recording not found")
	ErrIndexOutOfBounds = errors.New("index out of bounds")
)

// Leg is a single option leg update within a recorded snapshot.
// A snapshot may carry a partial set of legs; the feed layer merges
// them into the current chain state.
type Leg struct {
	Strike float64    `json:"strike"`
	Right  string     `json:"right"` // "CE" or "PE"
	Side   chain.Side `json:"side"`
}

// Snapshot is one recorded line of chain activity.
type Snapshot struct {
	Symbol    string    `json:"symbol"`
	Expiry    string    `json:"expiry"`
	Spot      float64   `json:"spot"`
	Timestamp time.Time `json:"timestamp"`
	Legs      []Leg     `json:"legs"`
}

// Source provides random access to recorded chain snapshots
type Source interface {
	// SnapshotAt returns the snapshot at the given index
	SnapshotAt(ctx context.Context, symbol, expiry string, index int) (*Snapshot, error)

	// Length returns the number of snapshots available
	Length(symbol, expiry string) (int, error)

	// Exists checks if a recording exists for the given combination
	Exists(symbol, expiry string) bool

	// LoadedKeys returns all loaded recording keys (for /symbols endpoint)
	LoadedKeys() []string

	// Close releases any resources
	Close() error
}

// RecordingKey creates a unique key for symbol/expiry
func RecordingKey(symbol, expiry string) string {
	return symbol + "/" + expiry
}
