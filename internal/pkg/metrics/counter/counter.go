// Package counter keeps per-account tallies of simulated webhook deliveries.
// With a redis client the tallies live in one hash per account, otherwise in
// process memory.
package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PlanAutomator/app/models"
)

type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeFailed    Outcome = "failed"
	// OutcomeSkipped is counted when the endpoint is not an http(s) URL.
	OutcomeSkipped Outcome = "skipped"
)

const keyPrefix = "planautomator:deliveries:"

// OutcomeOf classifies a simulation result.
func OutcomeOf(attempted bool, deliveryErr error) Outcome {
	switch {
	case deliveryErr != nil:
		return OutcomeFailed
	case !attempted:
		return OutcomeSkipped
	default:
		return OutcomeDelivered
	}
}

type Count struct {
	Provider models.Provider `json:"provider"`
	Outcome  Outcome         `json:"outcome"`
	Count    int64           `json:"count"`
}

type Deliveries struct {
	rdb *redis.Client

	mu  sync.Mutex
	mem map[string]map[string]int64
}

// NewDeliveries returns redis-backed counters, or in-memory ones for a nil client.
func NewDeliveries(rdb *redis.Client) *Deliveries {
	return &Deliveries{rdb: rdb, mem: make(map[string]map[string]int64)}
}

func field(p models.Provider, o Outcome) string {
	return string(p) + ":" + string(o)
}

// Add increments the counter of one provider and outcome.
func (d *Deliveries) Add(ctx context.Context, account string, p models.Provider, o Outcome) error {
	if d.rdb != nil {
		return d.rdb.HIncrBy(ctx, keyPrefix+account, field(p, o), 1).Err()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mem[account] == nil {
		d.mem[account] = make(map[string]int64)
	}
	d.mem[account][field(p, o)]++
	return nil
}

// Counts returns the non-zero counters sorted by provider and outcome.
func (d *Deliveries) Counts(ctx context.Context, account string) ([]Count, error) {
	data := make(map[string]string)
	if d.rdb != nil {
		var err error
		if data, err = d.rdb.HGetAll(ctx, keyPrefix+account).Result(); err != nil {
			return nil, fmt.Errorf("read delivery counters: %w", err)
		}
	} else {
		d.mu.Lock()
		for k, v := range d.mem[account] {
			data[k] = strconv.FormatInt(v, 10)
		}
		d.mu.Unlock()
	}

	counts := make([]Count, 0, len(data))
	for k, v := range data {
		provider, outcome, ok := strings.Cut(k, ":")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n == 0 {
			continue
		}
		counts = append(counts, Count{Provider: models.Provider(provider), Outcome: Outcome(outcome), Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Provider != counts[j].Provider {
			return counts[i].Provider < counts[j].Provider
		}
		return counts[i].Outcome < counts[j].Outcome
	})
	return counts, nil
}

// Reset drops all counters of the account.
func (d *Deliveries) Reset(ctx context.Context, account string) error {
	if d.rdb != nil {
		return d.rdb.Del(ctx, keyPrefix+account).Err()
	}
	d.mu.Lock()
	delete(d.mem, account)
	d.mu.Unlock()
	return nil
}
