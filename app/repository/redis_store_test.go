package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PlanAutomator/internal/pkg/env"
)

const isolatedRecordStoreTestRedisDB = 13

// newTestRedis connects to the configured cache or skips the test.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := fmt.Sprintf("%s:%s", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379"))
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       isolatedRecordStoreTestRedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStoreContract(t *testing.T) {
	client := newTestRedis(t)
	suffix := uuid.NewString()
	alice := "alice-" + suffix + "@example.com"
	bob := "bob-" + suffix + "@example.com"

	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, KeyPrefix+"*"+suffix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	})

	runStoreContract(t, NewRedisStore(client), alice, bob)
}
