package langstore

import "sync"

// Durable keys owned by the store. Nothing else writes them.
const (
	KeyLanguage = "krishimitra-language"
	KeyTheme    = "krishimitra-theme"
)

// KV is durable string storage. ok is false when the key was never written.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// MemoryKV is an in-process KV. A fresh Store built over the same MemoryKV
// behaves like a reloaded session.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
