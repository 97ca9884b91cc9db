package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// Memcached implements Store backed by memcached, with values stored as JSON.
// Each source gets its own key prefix so the per-source key spaces stay
// independent on a shared memcached cluster.
type Memcached[T any] struct {
	client *memcache.Client
	prefix string
}

// NewMemcached creates a Memcached store. addrs is a comma-separated server
// list (e.g. "localhost:11211" or "host1:11211,host2:11211"); prefix
// namespaces this store's keys. timeout and maxIdleConns use package defaults
// when zero.
func NewMemcached[T any](addrs, prefix string, timeout time.Duration, maxIdleConns int) (*Memcached[T], error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &Memcached[T]{client: client, prefix: prefix}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (c *Memcached[T]) key(k string) string {
	return c.prefix + ":" + k
}

// Get returns the value for key. Misses and expirations both report (zero,
// false, nil); transport and decode failures report an error.
func (c *Memcached[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	if ctx.Err() != nil {
		return zero, false, ctx.Err()
	}
	item, err := c.client.Get(c.key(key))
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return zero, false, nil
		}
		return zero, false, err
	}
	var value T
	if err := json.Unmarshal(item.Value, &value); err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// Set stores value under key with the given TTL.
func (c *Memcached[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(&memcache.Item{
		Key:        c.key(key),
		Value:      raw,
		Expiration: expirationSeconds(ttl),
	})
}

// expirationSeconds converts a TTL to the protocol's whole-second relative
// expiration. Sub-second TTLs round up to one second rather than truncating
// to zero (which memcached reads as "never expire"). Zero, negative, and
// over-30-day values fall back to an hour.
func expirationSeconds(ttl time.Duration) int32 {
	const maxRelativeExp = 30 * 24 * 60 * 60 // protocol limit before absolute-timestamp semantics
	expSec := int32(ttl.Seconds())
	if expSec == 0 && ttl > 0 {
		return 1
	}
	if expSec <= 0 || expSec > maxRelativeExp {
		return 3600
	}
	return expSec
}

// Delete removes key; a miss is not an error.
func (c *Memcached[T]) Delete(ctx context.Context, key string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := c.client.Delete(c.key(key)); err != nil && err != memcache.ErrCacheMiss {
		return err
	}
	return nil
}

// Clear flushes the whole memcached cluster. Prefix-scoped deletion is not
// supported by the protocol, so this affects every store sharing the cluster.
func (c *Memcached[T]) Clear(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return c.client.FlushAll()
}

// Size is unavailable for memcached; always -1.
func (c *Memcached[T]) Size() int {
	return -1
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *Memcached[T]) Ping() error {
	return c.client.Ping()
}

// Close closes the client connections. Call during shutdown.
func (c *Memcached[T]) Close() error {
	return c.client.Close()
}
