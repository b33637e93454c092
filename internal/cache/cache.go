// Package cache is the content-addressed result cache. Entries are keyed by a
// Fingerprint of (input bytes, configuration, output format) and live in a
// pluggable durable Store.
package cache

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// Backend names accepted by Open.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

// Options tunes a Cache.
type Options struct {
	// MaxEntries bounds the number of stored results; 0 keeps everything.
	MaxEntries int
	Logger     zerolog.Logger
}

// Cache wraps a Store with the empty-payload rule, an optional LRU bound and
// metrics.
type Cache struct {
	store Store
	index *lru.Cache[string, struct{}]
	log   zerolog.Logger
}

// Open builds the named backend rooted at dir and wraps it in a Cache.
func Open(ctx context.Context, backend, dir string, opts Options) (*Cache, error) {
	var (
		st  Store
		err error
	)
	switch backend {
	case "", BackendFS:
		st, err = NewFSStore(dir)
	case BackendSQLite:
		st, err = OpenSQLite(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
	if err != nil {
		return nil, err
	}
	c, err := New(ctx, st, opts)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return c, nil
}

// New wraps st. With a MaxEntries bound the recency index is seeded from the
// existing keys, oldest first, so a restart keeps the bound.
func New(ctx context.Context, st Store, opts Options) (*Cache, error) {
	c := &Cache{store: st, log: opts.Logger}
	if opts.MaxEntries <= 0 {
		return c, nil
	}
	idx, err := lru.NewWithEvict[string, struct{}](opts.MaxEntries, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("lru index: %w", err)
	}
	c.index = idx
	keys, err := st.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cache keys: %w", err)
	}
	for _, k := range keys {
		idx.Add(k, struct{}{})
	}
	return c, nil
}

func (c *Cache) onEvict(key string, _ struct{}) {
	cacheEvictionsTotal.Inc()
	if err := c.store.Delete(context.Background(), key); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache evict failed")
		return
	}
	c.log.Debug().Str("key", key).Msg("cache evict")
}

// Lookup returns the payload stored under fp or ErrNotFound.
func (c *Cache) Lookup(ctx context.Context, fp Fingerprint) ([]byte, error) {
	b, err := c.store.Get(ctx, fp.Key())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			cacheMissesTotal.Inc()
		}
		return nil, err
	}
	cacheHitsTotal.Inc()
	if c.index != nil {
		// Get only refreshes recency; a key evicted since the read stays out.
		c.index.Get(fp.Key())
	}
	return b, nil
}

// Put persists data under fp. Empty data is rejected with ErrEmptyPayload
// and leaves no entry behind. An existing entry is kept as is.
func (c *Cache) Put(ctx context.Context, fp Fingerprint, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyPayload
	}
	if err := c.store.Put(ctx, fp.Key(), data); err != nil {
		cacheStoreFailuresTotal.Inc()
		return err
	}
	cacheStoresTotal.Inc()
	if c.index != nil {
		c.index.Add(fp.Key(), struct{}{})
	}
	return nil
}

// Len returns the number of stored entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	if c.index != nil {
		return c.index.Len(), nil
	}
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Close releases the backend.
func (c *Cache) Close() error { return c.store.Close() }
