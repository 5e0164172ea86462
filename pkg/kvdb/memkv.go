package kvdb

import (
	"sort"
	"sync"
)

// MemKV is an in-memory, mutex-guarded KV used by tests. Grounded on main.go's MemoryKV, extended with Delete/Has
// since the pipeline needs true deletes for at-most-once spend semantics.
type MemKV struct {
	mu    sync.RWMutex
	store map[string][]byte
}

// NewMemKV creates an empty in-memory store.
func NewMemKV() *MemKV {
	return &MemKV{store: make(map[string][]byte)}
}

func (m *MemKV) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.store[string(key)]; ok {
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	}
	return nil, nil
}

func (m *MemKV) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.store[string(key)] = cp
	return nil
}

func (m *MemKV) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, string(key))
	return nil
}

func (m *MemKV) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.store[string(key)]
	return ok, nil
}

// Dump returns a copy of every key with its value (as a map, so in no
// particular order), for tests that assert two independently-built
// stores ended up byte-identical.
func (m *MemKV) Dump() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.store))
	keys := make([]string, 0, len(m.store))
	for k := range m.store {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := make([]byte, len(m.store[k]))
		copy(v, m.store[k])
		out[k] = v
	}
	return out
}
