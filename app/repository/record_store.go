package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ManuelReschke/PlanAutomator/app/models"
)

// recordStore implements the typed RecordStore on top of a JSON blob backend.
type recordStore struct {
	b     backend
	locks sync.Map // account email -> *sync.Mutex
}

func newRecordStore(b backend) *recordStore {
	return &recordStore{b: b}
}

// lock serializes read-modify-write cycles of one account within this process.
func (s *recordStore) lock(email string) func() {
	m, _ := s.locks.LoadOrStore(email, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func key(email string, kind models.RecordKind) RecordKey {
	return RecordKey{Account: models.NormalizeEmail(email), Kind: kind}
}

func (s *recordStore) get(ctx context.Context, k RecordKey, out any) (bool, error) {
	raw, err := s.b.load(ctx, k)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("%w %s: %v", ErrCorruptRecord, k, err)
	}
	return true, nil
}

func (s *recordStore) put(ctx context.Context, k RecordKey, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	return s.b.store(ctx, k, raw)
}

func (s *recordStore) CreateAccount(ctx context.Context, account *models.Account) error {
	account.Email = models.NormalizeEmail(account.Email)
	return s.b.createAccount(ctx, account)
}

func (s *recordStore) GetAccount(ctx context.Context, email string) (*models.Account, error) {
	return s.b.getAccount(ctx, models.NormalizeEmail(email))
}

func (s *recordStore) UpdateAccount(ctx context.Context, account *models.Account) error {
	account.Email = models.NormalizeEmail(account.Email)
	return s.b.updateAccount(ctx, account)
}

func (s *recordStore) GetEventLog(ctx context.Context, email string) ([]models.LogEntry, error) {
	entries := []models.LogEntry{}
	if _, err := s.get(ctx, key(email, models.RecordEventLog), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *recordStore) SaveEventLog(ctx context.Context, email string, entries []models.LogEntry) error {
	if entries == nil {
		entries = []models.LogEntry{}
	}
	return s.put(ctx, key(email, models.RecordEventLog), entries)
}

// PrependEvent inserts the entry at the head of the log so stored order equals
// creation order, newest first.
func (s *recordStore) PrependEvent(ctx context.Context, email string, entry models.LogEntry) error {
	unlock := s.lock(models.NormalizeEmail(email))
	defer unlock()

	current, err := s.GetEventLog(ctx, email)
	if err != nil {
		return err
	}
	next := make([]models.LogEntry, 0, len(current)+1)
	next = append(next, entry)
	next = append(next, current...)
	return s.SaveEventLog(ctx, email, next)
}

func (s *recordStore) ClearEventLog(ctx context.Context, email string) error {
	return s.b.remove(ctx, key(email, models.RecordEventLog))
}

func (s *recordStore) GetIntegrations(ctx context.Context, email string) ([]models.Integration, error) {
	list := []models.Integration{}
	if _, err := s.get(ctx, key(email, models.RecordIntegrations), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *recordStore) SaveIntegrations(ctx context.Context, email string, integrations []models.Integration) error {
	if integrations == nil {
		integrations = []models.Integration{}
	}
	return s.put(ctx, key(email, models.RecordIntegrations), integrations)
}

func (s *recordStore) GetEndpointConfig(ctx context.Context, email string) (models.EndpointConfig, error) {
	var cfg models.EndpointConfig
	if _, err := s.get(ctx, key(email, models.RecordEndpointConfig), &cfg); err != nil {
		return models.EndpointConfig{}, err
	}
	return cfg, nil
}

func (s *recordStore) SaveEndpointConfig(ctx context.Context, email string, cfg models.EndpointConfig) error {
	return s.put(ctx, key(email, models.RecordEndpointConfig), cfg)
}

func (s *recordStore) GetPlanMappings(ctx context.Context, email string) ([]models.PlanMapping, error) {
	list := []models.PlanMapping{}
	if _, err := s.get(ctx, key(email, models.RecordPlanMappings), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *recordStore) SavePlanMappings(ctx context.Context, email string, mappings []models.PlanMapping) error {
	if mappings == nil {
		mappings = []models.PlanMapping{}
	}
	return s.put(ctx, key(email, models.RecordPlanMappings), mappings)
}

func (s *recordStore) DeleteRecords(ctx context.Context, email string, kinds ...models.RecordKind) error {
	if len(kinds) == 0 {
		return nil
	}
	keys := make([]RecordKey, 0, len(kinds))
	for _, k := range kinds {
		keys = append(keys, key(email, k))
	}
	return s.b.remove(ctx, keys...)
}
