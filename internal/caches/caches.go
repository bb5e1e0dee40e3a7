// Package caches shares metrics reads between callers asking for the same thing.
//
// Results are keyed by a string built from the endpoint and its parameters. While
// a key is being fetched every other caller for that key waits on the same call,
// and once it succeeds the value is kept until its ttl runs out.
package caches

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/vinceanalytics/dash/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const DefaultTTL = 5 * time.Minute

type Options struct {
	TTL     time.Duration
	MaxCost int64
	Metrics *metrics.Metrics
}

// Cache is safe for concurrent use. A nil *Cache calls through on every lookup.
type Cache struct {
	store   *ristretto.Cache
	group   singleflight.Group
	ttl     time.Duration
	metrics *metrics.Metrics
}

func New(o Options) (*Cache, error) {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.MaxCost <= 0 {
		o.MaxCost = 1 << 14
	}
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: o.MaxCost * 10,
		MaxCost:     o.MaxCost,
		BufferItems: 64,
		// every entry costs 1, MaxCost is the number of entries.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{store: store, ttl: o.TTL, metrics: o.Metrics}, nil
}

// Do returns the cached value for key or calls fn to produce it. Concurrent calls
// for the same key share one fn invocation. Errors are returned to every waiter and
// are not stored.
//
// fn runs detached from the cancellation of ctx, a caller that gives up gets
// ctx.Err() while the shared call carries on for the others.
func (c *Cache) Do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	if c == nil {
		return fn(ctx)
	}
	if v, ok := c.store.Get(key); ok {
		c.metrics.CacheHit()
		return v, nil
	}
	c.metrics.CacheMiss()
	base := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		v, err := fn(base)
		if err != nil {
			return nil, err
		}
		c.store.SetWithTTL(key, v, 1, c.ttl)
		c.store.Wait()
		return v, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Shared {
			c.metrics.CacheShared()
		}
		return r.Val, r.Err
	}
}

// Forget drops key so the next lookup fetches again.
func (c *Cache) Forget(key string) {
	if c == nil {
		return
	}
	c.group.Forget(key)
	c.store.Del(key)
	c.store.Wait()
}

func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.store.Close()
}

// Get is Do with a typed result.
func Get[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	v, err := c.Do(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	o, _ := v.(T)
	return o, nil
}
