package replay

import "sync"

// Mode defines how playback handles end-of-recording
type Mode string

const (
	ModeExhaust  Mode = "exhaust"  // stop at end
	ModeRotation Mode = "rotation" // wrap to 0
)

// Playback tracks replay positions per recording
type Playback struct {
	mu        sync.RWMutex
	positions map[string]int // key: symbol/expiry
	mode      Mode
}

func NewPlayback(mode Mode) *Playback {
	return &Playback{
		positions: make(map[string]int),
		mode:      mode,
	}
}

// NextIndex returns the current position for a recording and advances it.
// Returns (index, isExhausted).
func (p *Playback) NextIndex(key string, length int) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos := p.positions[key]

	// A recording with no snapshots is exhausted in every mode.
	if length <= 0 {
		return pos, true
	}

	// Check exhaustion in exhaust mode
	if p.mode == ModeExhaust && pos >= length {
		return pos, true
	}

	// Current position (may need wrap in rotation mode)
	current := pos
	if p.mode == ModeRotation && pos >= length {
		current = pos % length
	}

	// Advance for next request
	if p.mode == ModeRotation {
		p.positions[key] = (pos + 1) % length
	} else {
		p.positions[key] = pos + 1
	}

	return current, false
}

// Reset resets positions, optionally for a single recording key.
// Returns the number of positions cleared.
func (p *Playback) Reset(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if key == "" {
		count := len(p.positions)
		p.positions = make(map[string]int)
		return count
	}

	if _, ok := p.positions[key]; ok {
		delete(p.positions, key)
		return 1
	}
	return 0
}

// Position returns the current position without advancing (for debugging)
func (p *Playback) Position(key string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.positions[key]
}
