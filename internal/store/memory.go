package store

import (
	"context"
	"slices"
	"sync"

	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the document in process memory. Nothing survives a
// restart.
type MemoryStore struct {
	mu       sync.Mutex
	readings []types.Reading
	writes   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) ReadAll(_ context.Context) ([]types.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.readings), nil
}

func (m *MemoryStore) WriteAll(_ context.Context, readings []types.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = slices.Clone(readings)
	m.writes++
	return nil
}

// Len is the number of readings currently stored.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.readings)
}

// Writes counts successful WriteAll calls.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
