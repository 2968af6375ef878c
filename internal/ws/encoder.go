package ws

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/marketlens/optionchain/internal/engine"
)

// Encoder serializes chain views to the wire: JSON for plain clients and
// a zstd-compressed frame of the same JSON for compressed clients.
type Encoder struct {
	zstdEncoder *zstd.Encoder
}

// NewEncoder creates a new Encoder with Zstd compression.
func NewEncoder() (*Encoder, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &Encoder{zstdEncoder: enc}, nil
}

// EncodeView renders a view message in both wire forms.
func (e *Encoder) EncodeView(group string, view engine.View) (jsonPayload, compressedPayload []byte, err error) {
	raw, err := json.Marshal(view)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal view: %w", err)
	}

	jsonPayload = buildViewMessage(group, raw)
	compressedPayload = e.zstdEncoder.EncodeAll(jsonPayload, nil)
	return jsonPayload, compressedPayload, nil
}

// Close releases encoder resources.
func (e *Encoder) Close() {
	if e.zstdEncoder != nil {
		e.zstdEncoder.Close()
	}
}
