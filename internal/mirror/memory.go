package mirror

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"tm-go/internal/tm"
)

// MemoryMirror keeps snapshots in memory. Use in tests.
type MemoryMirror struct {
	name string

	mu        sync.Mutex
	snapshots map[string][]byte
}

var _ tm.Mirror = (*MemoryMirror)(nil)

func NewMemoryMirror(name string) *MemoryMirror {
	return &MemoryMirror{name: name, snapshots: make(map[string][]byte)}
}

func (m *MemoryMirror) Put(_ context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[key] = data
	return nil
}

func (m *MemoryMirror) Get(_ context.Context, key string, w io.Writer) error {
	m.mu.Lock()
	data, ok := m.snapshots[key]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("snapshot not found: %s", key)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func (m *MemoryMirror) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.snapshots))
	for k := range m.snapshots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryMirror) Latest(ctx context.Context) (string, error) {
	keys, err := m.List(ctx)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", nil
	}
	return keys[len(keys)-1], nil
}
