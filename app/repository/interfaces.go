package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuelReschke/PlanAutomator/app/models"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrCorruptRecord wraps stored documents that no longer decode.
	ErrCorruptRecord = errors.New("corrupt stored record")
)

// RecordKey addresses one per-account record.
type RecordKey struct {
	Account string
	Kind    models.RecordKind
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%s/%s", k.Kind, k.Account)
}

// RecordStore is the persistence boundary of the application. Every per-account
// method only touches keys whose Account equals the given email.
type RecordStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, email string) (*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error

	GetEventLog(ctx context.Context, email string) ([]models.LogEntry, error)
	SaveEventLog(ctx context.Context, email string, entries []models.LogEntry) error
	PrependEvent(ctx context.Context, email string, entry models.LogEntry) error
	ClearEventLog(ctx context.Context, email string) error

	GetIntegrations(ctx context.Context, email string) ([]models.Integration, error)
	SaveIntegrations(ctx context.Context, email string, integrations []models.Integration) error

	GetEndpointConfig(ctx context.Context, email string) (models.EndpointConfig, error)
	SaveEndpointConfig(ctx context.Context, email string, cfg models.EndpointConfig) error

	GetPlanMappings(ctx context.Context, email string) ([]models.PlanMapping, error)
	SavePlanMappings(ctx context.Context, email string, mappings []models.PlanMapping) error

	DeleteRecords(ctx context.Context, email string, kinds ...models.RecordKind) error
}

// backend is the raw storage engine under a RecordStore. load returns
// (nil, nil) for a missing record.
type backend interface {
	createAccount(ctx context.Context, account *models.Account) error
	getAccount(ctx context.Context, email string) (*models.Account, error)
	updateAccount(ctx context.Context, account *models.Account) error

	load(ctx context.Context, key RecordKey) ([]byte, error)
	store(ctx context.Context, key RecordKey, payload []byte) error
	remove(ctx context.Context, keys ...RecordKey) error
}
