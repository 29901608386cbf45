// Package redis is an optional JSON read-through cache.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/redis/go-redis/v9"
)

// Cache stores JSON encoded values under short keys.
// GetJSON reports false without error on a miss.
type Cache interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
}

// DB is a Cache backed by go-redis
type DB struct {
	cli *redis.Client
	ttl time.Duration
}

// NewDB creates a new DB instance. ttl <= 0 falls back to five minutes.
func NewDB(opt *redis.Options, ttl time.Duration) *DB {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &DB{
		cli: redis.NewClient(opt),
		ttl: ttl,
	}
}

func fullKey(key string) string {
	return keyPrefix + key
}

// GetJSON loads key into v.
func (d *DB) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := d.cli.Get(ctx, fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, errors.Wrapf(err, "get %q", key)
	}

	if err = json.Unmarshal(raw, v); err != nil {
		return false, errors.Wrapf(err, "unmarshal %q", key)
	}
	return true, nil
}

// SetJSON stores v under key with the configured ttl.
func (d *DB) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %q", key)
	}

	if err = d.cli.Set(ctx, fullKey(key), raw, d.ttl).Err(); err != nil {
		return errors.Wrapf(err, "set %q", key)
	}
	return nil
}

// Delete removes keys, missing keys are ignored.
func (d *DB) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, fullKey(k))
	}
	if err := d.cli.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, "delete keys")
	}
	return nil
}

// Close releases the connection pool.
func (d *DB) Close() error {
	return d.cli.Close()
}

// Nop never stores anything, used when redis is not configured.
type Nop struct{}

// GetJSON always misses
func (Nop) GetJSON(context.Context, string, any) (bool, error) { return false, nil }

// SetJSON discards v
func (Nop) SetJSON(context.Context, string, any) error { return nil }

// Delete does nothing
func (Nop) Delete(context.Context, ...string) error { return nil }
