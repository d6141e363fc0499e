package store

import "sync"

// KV is the durable string-keyed map the store persists into. Implementations
// must make each Set atomic from a reader's perspective: a Get never observes
// a partial write.
type KV interface {
	// Get returns the value for key and whether the key exists.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Watcher is implemented by KV backends that can observe external changes to
// their keys (another process writing the same files). The callback receives
// the changed key; it may fire for this process's own writes too, the store
// filters those out.
type Watcher interface {
	// Watch starts delivering change callbacks until the returned stop
	// function is called. Callbacks run on the watcher's own goroutine.
	Watch(onChange func(key string)) (stop func(), err error)
}

// MemoryKV is an in-process KV for tests. It never fails and observes no
// external changes.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV returns an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
