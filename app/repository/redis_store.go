package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PlanAutomator/app/models"
)

const (
	KeyPrefix        = "planautomator:"
	AccountKeyPrefix = KeyPrefix + "account:"
)

// redisBackend stores each account and each record as a JSON string.
type redisBackend struct {
	client *redis.Client
}

// NewRedisStore creates a RecordStore backed by Redis.
func NewRedisStore(client *redis.Client) RecordStore {
	return newRecordStore(&redisBackend{client: client})
}

func AccountKey(email string) string {
	return AccountKeyPrefix + email
}

// RedisRecordKey renders a composite key as planautomator:<kind>:<email>.
func RedisRecordKey(k RecordKey) string {
	return fmt.Sprintf("%s%s:%s", KeyPrefix, k.Kind, k.Account)
}

// redisAccount keeps the password hash, which Account hides from JSON.
type redisAccount struct {
	models.Account
	PasswordHash string `json:"password_hash"`
}

func encodeAccount(a *models.Account) ([]byte, error) {
	return json.Marshal(redisAccount{Account: *a, PasswordHash: a.PasswordHash})
}

func (r *redisBackend) createAccount(ctx context.Context, account *models.Account) error {
	raw, err := encodeAccount(account)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, AccountKey(account.Email), raw, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicateAccount
	}
	return nil
}

func (r *redisBackend) getAccount(ctx context.Context, email string) (*models.Account, error) {
	raw, err := r.client.Get(ctx, AccountKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var ra redisAccount
	if err := json.Unmarshal(raw, &ra); err != nil {
		return nil, fmt.Errorf("%w account %s: %v", ErrCorruptRecord, email, err)
	}
	a := ra.Account
	a.PasswordHash = ra.PasswordHash
	return &a, nil
}

func (r *redisBackend) updateAccount(ctx context.Context, account *models.Account) error {
	raw, err := encodeAccount(account)
	if err != nil {
		return err
	}
	ok, err := r.client.SetXX(ctx, AccountKey(account.Email), raw, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r *redisBackend) load(ctx context.Context, key RecordKey) ([]byte, error) {
	raw, err := r.client.Get(ctx, RedisRecordKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return raw, err
}

func (r *redisBackend) store(ctx context.Context, key RecordKey, payload []byte) error {
	return r.client.Set(ctx, RedisRecordKey(key), payload, 0).Err()
}

func (r *redisBackend) remove(ctx context.Context, keys ...RecordKey) error {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, RedisRecordKey(k))
	}
	return r.client.Del(ctx, names...).Err()
}
