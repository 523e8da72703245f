// Package cache is a read-through memo for query results, keyed by an
// operation name and its arguments and expired purely by time.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL applies to every cached read unless a caller asks for another.
const DefaultTTL = 30 * time.Minute

// computeTimeout bounds a shared compute once it no longer follows any
// caller's context.
const computeTimeout = 30 * time.Second

// Store holds serialized results. Implementations must be safe for concurrent
// use and must never return an entry once its TTL has elapsed.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Cache is the memo owned by the server's composition root and handed to the
// service layer.
type Cache struct {
	store  Store
	ttl    time.Duration
	flight singleflight.Group

	// gen counts invalidations. A compute that began before the latest one
	// still answers its callers but is not stored.
	mu  sync.RWMutex
	gen uint64
}

func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl}
}

func (c *Cache) TTL() time.Duration { return c.ttl }

// Invalidate drops every entry whose operation name starts with namespace,
// e.g. "rooms." removes rooms.findMany and rooms.findOne results.
func (c *Cache) Invalidate(ctx context.Context, namespace string) {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()

	if err := c.store.DeletePrefix(context.WithoutCancel(ctx), namespace); err != nil {
		log.Warn().Err(err).Str("namespace", namespace).Msg("cache invalidation failed")
	}
}

// Key builds the cache key for an operation and its arguments. Arguments are
// encoded as JSON and re-encoded through a generic value so object keys come
// out sorted; two argument values that encode to the same JSON object share a
// key regardless of field order.
func Key(operation string, args any) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode cache args for %s: %w", operation, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", fmt.Errorf("canonicalize cache args for %s: %w", operation, err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("canonicalize cache args for %s: %w", operation, err)
	}

	var b strings.Builder
	b.Grow(len(operation) + 1 + len(canonical))
	b.WriteString(operation)
	b.WriteByte(':')
	b.Write(canonical)
	return b.String(), nil
}

// Memoize returns the cached result of operation(args) or runs compute and
// caches what it returns for the cache's default TTL.
func Memoize[T any](ctx context.Context, c *Cache, operation string, args any, compute func(context.Context) (T, error)) (T, error) {
	return MemoizeFor(ctx, c, operation, args, c.ttl, compute)
}

// MemoizeFor is Memoize with an explicit TTL.
//
// A failing compute stores nothing and its error is returned as is. Backend
// errors are logged and treated as misses. Concurrent misses on the same key
// within this process share one compute, which runs detached from every
// caller's context; a caller whose context ends stops waiting without
// affecting the others. Every caller gets the decoded form of the stored
// value, so a first call and a later hit return the same thing.
func MemoizeFor[T any](ctx context.Context, c *Cache, operation string, args any, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T

	key, err := Key(operation, args)
	if err != nil {
		return zero, err
	}

	if raw, ok := c.lookup(ctx, key); ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	}

	gen := c.generation()
	detached := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		computeCtx, cancel := context.WithTimeout(detached, computeTimeout)
		defer cancel()

		result, err := compute(computeCtx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("encode cache value for %s: %w", operation, err)
		}
		c.storeIfCurrent(computeCtx, gen, key, raw, ttl)
		return raw, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		var out T
		if err := json.Unmarshal(res.Val.([]byte), &out); err != nil {
			return zero, fmt.Errorf("decode cache value for %s: %w", operation, err)
		}
		return out, nil
	}
}

func (c *Cache) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// storeIfCurrent writes raw unless an invalidation happened after gen was
// read. The read lock is held across the write so an Invalidate that starts
// meanwhile deletes what was just written.
func (c *Cache) storeIfCurrent(ctx context.Context, gen uint64, key string, raw []byte, ttl time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.gen != gen {
		log.Debug().Str("key", key).Msg("skipping cache store after invalidation")
		return
	}
	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache store failed")
	}
}

func (c *Cache) lookup(ctx context.Context, key string) ([]byte, bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache lookup failed")
		return nil, false
	}
	return raw, ok
}
