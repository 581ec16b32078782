package repository

import (
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	DriverMySQL  = "mysql"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Factory builds the configured RecordStore once and hands out the singleton.
type Factory struct {
	driver string
	db     *gorm.DB
	redis  *redis.Client
	store  RecordStore
	once   sync.Once
}

// NewFactory creates a new repository factory. Only the handle matching the
// driver needs to be non-nil.
func NewFactory(driver string, db *gorm.DB, client *redis.Client) *Factory {
	return &Factory{
		driver: strings.ToLower(strings.TrimSpace(driver)),
		db:     db,
		redis:  client,
	}
}

// GetRecordStore returns the singleton store for the configured driver. Unknown
// drivers and missing handles fall back to the in-memory store.
func (f *Factory) GetRecordStore() RecordStore {
	f.once.Do(func() {
		switch {
		case f.driver == DriverMySQL && f.db != nil:
			f.store = NewGormStore(f.db)
		case f.driver == DriverRedis && f.redis != nil:
			f.store = NewRedisStore(f.redis)
		default:
			f.store = NewMemoryStore()
		}
	})
	return f.store
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(driver string, db *gorm.DB, client *redis.Client) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(driver, db, client)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}
