package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps the document in process memory
type MemoryBackend struct {
	mu      sync.Mutex
	payload []byte
	version int64
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Get(ctx context.Context) ([]byte, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.payload == nil {
		return nil, 0, ErrNotFound
	}
	return append([]byte(nil), m.payload...), m.version, nil
}

func (m *MemoryBackend) Put(ctx context.Context, payload []byte, version, expected int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if expected != AnyVersion && m.version != expected {
		return ErrVersionConflict
	}
	m.payload = append([]byte(nil), payload...)
	m.version = version
	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
