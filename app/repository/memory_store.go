package repository

import (
	"context"
	"sync"

	"github.com/ManuelReschke/PlanAutomator/app/models"
)

// memoryBackend keeps everything in process memory. Used for tests and for
// development runs without MySQL or Redis.
type memoryBackend struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	records  map[RecordKey][]byte
}

// NewMemoryStore creates an empty in-memory RecordStore.
func NewMemoryStore() RecordStore {
	return newRecordStore(&memoryBackend{
		accounts: make(map[string]models.Account),
		records:  make(map[RecordKey][]byte),
	})
}

func (m *memoryBackend) createAccount(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.Email]; ok {
		return ErrDuplicateAccount
	}
	m.accounts[account.Email] = *account
	return nil
}

func (m *memoryBackend) getAccount(_ context.Context, email string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *memoryBackend) updateAccount(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.Email]; !ok {
		return ErrNotFound
	}
	m.accounts[account.Email] = *account
	return nil
}

func (m *memoryBackend) load(_ context.Context, key RecordKey) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func (m *memoryBackend) store(_ context.Context, key RecordKey, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(payload))
	copy(buf, payload)
	m.records[key] = buf
	return nil
}

func (m *memoryBackend) remove(_ context.Context, keys ...RecordKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.records, k)
	}
	return nil
}
