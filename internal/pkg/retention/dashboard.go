package retention

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ManuelReschke/PlanAutomator/app/repository"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/logger"
)

// DefaultRefresh is how long a dashboard snapshot may be served stale.
const DefaultRefresh = 5 * time.Second

// SnapshotCache holds computed snapshots per account.
type SnapshotCache interface {
	Get(ctx context.Context, account string) (*Snapshot, bool)
	Set(ctx context.Context, account string, snap Snapshot, ttl time.Duration)
	Invalidate(ctx context.Context, account string)
}

type memoryEntry struct {
	snap    Snapshot
	expires time.Time
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() SnapshotCache {
	return &memoryCache{entries: map[string]memoryEntry{}, now: time.Now}
}

func (c *memoryCache) Get(_ context.Context, account string) (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[account]
	if !ok || !c.now().Before(e.expires) {
		delete(c.entries, account)
		return nil, false
	}
	snap := e.snap
	return &snap, true
}

func (c *memoryCache) Set(_ context.Context, account string, snap Snapshot, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[account] = memoryEntry{snap: snap, expires: c.now().Add(ttl)}
}

func (c *memoryCache) Invalidate(_ context.Context, account string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, account)
}

type redisCache struct {
	client *redis.Client
}

// NewRedisCache stores snapshots as JSON with a TTL. Cache errors are logged
// and treated as misses.
func NewRedisCache(client *redis.Client) SnapshotCache {
	return &redisCache{client: client}
}

func snapshotKey(account string) string {
	return "planautomator:dashboard:" + account
}

func (c *redisCache) Get(ctx context.Context, account string) (*Snapshot, bool) {
	raw, err := c.client.Get(ctx, snapshotKey(account)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Get().Warn("dashboard cache read failed", zap.String("account", account), zap.Error(err))
		}
		return nil, false
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, false
	}
	return &snap, true
}

func (c *redisCache) Set(ctx context.Context, account string, snap Snapshot, ttl time.Duration) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, snapshotKey(account), raw, ttl).Err(); err != nil {
		logger.Get().Warn("dashboard cache write failed", zap.String("account", account), zap.Error(err))
	}
}

func (c *redisCache) Invalidate(ctx context.Context, account string) {
	_ = c.client.Del(ctx, snapshotKey(account)).Err()
}

// Dashboard serves snapshots for an account, recomputing at most once per
// refresh interval.
type Dashboard struct {
	store   repository.RecordStore
	cache   SnapshotCache
	refresh time.Duration
	now     func() time.Time
}

func NewDashboard(store repository.RecordStore, cache SnapshotCache, refresh time.Duration) *Dashboard {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	return &Dashboard{store: store, cache: cache, refresh: refresh, now: time.Now}
}

func (d *Dashboard) Snapshot(ctx context.Context, account string) (Snapshot, error) {
	if snap, ok := d.cache.Get(ctx, account); ok {
		return *snap, nil
	}
	entries, err := d.store.GetEventLog(ctx, account)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Compute(entries, d.now())
	d.cache.Set(ctx, account, snap, d.refresh)
	return snap, nil
}

// Invalidate drops the cached snapshot after the account's log changed.
func (d *Dashboard) Invalidate(ctx context.Context, account string) {
	d.cache.Invalidate(ctx, account)
}

// RefreshInterval is the cache lifetime, also used as the page reload period.
func (d *Dashboard) RefreshInterval() time.Duration {
	return d.refresh
}
