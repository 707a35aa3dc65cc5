package credentials

import "sync"

// Memory is an in-process credential store. It backs tests and the
// degraded mode used when the filesystem store cannot be created.
type Memory struct {
	mu     sync.Mutex
	values map[string]string

	// Broken simulates an unavailable storage backend: writes are
	// dropped and reads report absence.
	Broken bool
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Broken {
		return "", false
	}
	value, ok := m.values[key]
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Broken {
		return
	}
	m.values[key] = value
}

func (m *Memory) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

func (m *Memory) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
}
