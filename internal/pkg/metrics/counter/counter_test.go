package counter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PlanAutomator/app/models"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/env"
)

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeDelivered, OutcomeOf(true, nil))
	assert.Equal(t, OutcomeSkipped, OutcomeOf(false, nil))
	assert.Equal(t, OutcomeFailed, OutcomeOf(true, errors.New("refused")))
}

func exerciseDeliveries(t *testing.T, d *Deliveries, account string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, d.Add(ctx, account, models.ProviderKiwify, OutcomeFailed))
	require.NoError(t, d.Add(ctx, account, models.ProviderKiwify, OutcomeDelivered))
	require.NoError(t, d.Add(ctx, account, models.ProviderKiwify, OutcomeDelivered))
	require.NoError(t, d.Add(ctx, account, models.ProviderCakto, OutcomeSkipped))
	require.NoError(t, d.Add(ctx, "other-"+account, models.ProviderCakto, OutcomeSkipped))

	counts, err := d.Counts(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, []Count{
		{Provider: models.ProviderCakto, Outcome: OutcomeSkipped, Count: 1},
		{Provider: models.ProviderKiwify, Outcome: OutcomeDelivered, Count: 2},
		{Provider: models.ProviderKiwify, Outcome: OutcomeFailed, Count: 1},
	}, counts)

	require.NoError(t, d.Reset(ctx, account))
	counts, err = d.Counts(ctx, account)
	require.NoError(t, err)
	assert.Empty(t, counts)

	counts, err = d.Counts(ctx, "other-"+account)
	require.NoError(t, err)
	assert.Len(t, counts, 1)
}

func TestMemoryDeliveries(t *testing.T) {
	exerciseDeliveries(t, NewDeliveries(nil), "owner@example.com")
}

func TestRedisDeliveries(t *testing.T) {
	addr := fmt.Sprintf("%s:%s", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379"))
	client := redis.NewClient(&redis.Options{Addr: addr, Password: env.GetEnv("CACHE_PASSWORD", ""), DB: 12})
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	defer client.Close()

	account := uuid.NewString() + "@example.com"
	defer client.Del(context.Background(), keyPrefix+account, keyPrefix+"other-"+account)
	exerciseDeliveries(t, NewDeliveries(client), account)
}
