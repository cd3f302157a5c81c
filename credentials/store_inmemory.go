package credentials

import (
	"fmt"
	"sync"
)

// MemoryStore is an in-memory implementation of Store
type MemoryStore struct {
	mu   sync.RWMutex
	cred *Credential
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get() *Credential {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cred == nil || m.cred.AccessExpired(NowTimeFunc()) {
		return nil
	}
	c := *m.cred
	return &c
}

func (m *MemoryStore) Load() *Credential {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cred == nil {
		return nil
	}
	c := *m.cred
	return &c
}

// RefreshToken returns the refresh credential even after the access side
// has expired, until its own expiry elapses.
func (m *MemoryStore) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cred == nil || m.cred.RefreshExpired(NowTimeFunc()) {
		return ""
	}
	return m.cred.RefreshToken
}

func (m *MemoryStore) Set(c Credential) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("[MemoryStore Set] %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = &c
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	return nil
}

func (m *MemoryStore) Present() bool {
	return m.Get() != nil
}
