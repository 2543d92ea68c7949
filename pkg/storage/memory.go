package storage

import "sync"

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (ms *MemoryStore) Get(key string) (string, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	v, ok := ms.values[key]
	return v, ok
}

func (ms *MemoryStore) Set(key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.values[key] = value
	return nil
}

func (ms *MemoryStore) Delete(key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.values, key)
	return nil
}
