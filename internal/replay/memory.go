package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

type MemoryLoader struct {
	data   map[string][]Snapshot // key: symbol/expiry
	logger *zap.Logger
}

func NewMemoryLoader(dataDir string, logger *zap.Logger) (*MemoryLoader, error) {
	loader := &MemoryLoader{
		data:   make(map[string][]Snapshot),
		logger: logger,
	}

	// Walk the data directory
	err := filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}

		// Extract symbol/expiry from path
		// Format: data/{symbol}/{expiry}.jsonl
		rel, _ := filepath.Rel(dataDir, path)
		// rel = "SPX/2026-08-28.jsonl"

		symbol := filepath.Dir(rel)
		expiry := strings.TrimSuffix(filepath.Base(rel), ".jsonl")

		key := RecordingKey(symbol, expiry)

		snapshots, err := loader.loadJSONL(path)
		if err != nil {
			logger.Warn("failed to load recording", zap.String("path", path), zap.Error(err))
			return nil
		}
		if len(snapshots) == 0 {
			logger.Warn("skipping empty recording", zap.String("path", path))
			return nil
		}

		loader.data[key] = snapshots
		logger.Info("loaded recording",
			zap.String("key", key),
			zap.Int("count", len(snapshots)),
		)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walking data directory: %w", err)
	}

	if len(loader.data) == 0 {
		return nil, fmt.Errorf("no JSONL recordings found in %s", dataDir)
	}

	return loader, nil
}

func (m *MemoryLoader) loadJSONL(path string) ([]Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snapshots []Snapshot
	scanner := bufio.NewScanner(file)

	// Increase buffer size for large lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var snap Snapshot
		if err := json.Unmarshal(line, &snap); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		snapshots = append(snapshots, snap)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}

func (m *MemoryLoader) SnapshotAt(ctx context.Context, symbol, expiry string, index int) (*Snapshot, error) {
	key := RecordingKey(symbol, expiry)
	snapshots, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	if index < 0 || index >= len(snapshots) {
		return nil, ErrIndexOutOfBounds
	}
	return &snapshots[index], nil
}

func (m *MemoryLoader) Length(symbol, expiry string) (int, error) {
	key := RecordingKey(symbol, expiry)
	snapshots, ok := m.data[key]
	if !ok {
		return 0, ErrNotFound
	}
	return len(snapshots), nil
}

func (m *MemoryLoader) Exists(symbol, expiry string) bool {
	key := RecordingKey(symbol, expiry)
	_, ok := m.data[key]
	return ok
}

func (m *MemoryLoader) Close() error {
	m.data = nil
	return nil
}

// LoadedKeys returns all loaded recording keys (for /symbols endpoint)
func (m *MemoryLoader) LoadedKeys() []string {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

// Compile-time interface verification
var _ Source = (*MemoryLoader)(nil)
