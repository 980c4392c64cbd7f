package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hairlab/stylist/pkg/domain/interfaces"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/utils/logging"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL        = 24 * time.Hour
	DefaultMaxEntries = 10000
)

// flight tracks one running compute. invalidated is set when Invalidate is called while it
// runs, so its result is returned to waiters but never stored.
type flight struct {
	invalidated bool
}

// Cache memoizes recommendations by request fingerprint. It satisfies interfaces.RecommendationCache.
type Cache struct {
	entries *lru.Cache[model.Fingerprint, *model.CacheEntry]
	group   singleflight.Group

	mu       sync.Mutex
	inflight map[model.Fingerprint]*flight

	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	store      interfaces.CacheStore

	// fillHook runs at the start of every fill; set only by tests
	fillHook func(fp model.Fingerprint)
}

var _ interfaces.RecommendationCache = (*Cache)(nil)

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxEntries bounds the in-memory map. Least recently used entries are evicted first.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithStore adds a persistent second level. Its failures are logged and treated as misses.
func WithStore(store interfaces.CacheStore) Option {
	return func(c *Cache) {
		c.store = store
	}
}

func New(opts ...Option) (*Cache, error) {
	c := &Cache{
		inflight:   make(map[model.Fingerprint]*flight),
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	entries, err := lru.New[model.Fingerprint, *model.CacheEntry](c.maxEntries)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LRU cache", goerr.V("max_entries", c.maxEntries))
	}
	c.entries = entries

	return c, nil
}

// GetOrCompute returns the live recommendation for req or computes it. Concurrent callers with
// the same fingerprint share one compute. The compute runs detached from the caller's
// cancellation; a caller whose ctx ends gets ctx.Err() while the compute still fills the cache.
func (c *Cache) GetOrCompute(ctx context.Context, req *model.ConsultationRequest, compute interfaces.ComputeFunc) (*model.Recommendation, error) {
	fp := req.Fingerprint()
	computeCtx := context.WithoutCancel(ctx)

	// the flight is registered together with starting the call so that Invalidate always
	// finds it
	c.mu.Lock()
	rec, result := c.liveLocked(fp)
	lookupsTotal.WithLabelValues(result).Inc()
	if rec != nil {
		c.mu.Unlock()
		return rec, nil
	}
	f, ok := c.inflight[fp]
	if !ok {
		f = &flight{}
		c.inflight[fp] = f
	}
	ch := c.group.DoChan(string(fp), func() (any, error) {
		return c.fill(computeCtx, req, compute, f)
	})
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, goerr.Wrap(ctx.Err(), "consultation abandoned by caller", goerr.V(model.FingerprintKey, fp))
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Recommendation).Clone(), nil
	}
}

// fill runs inside the singleflight group: memory first, since another flight may have
// finished since the caller missed, then the second level, then compute.
func (c *Cache) fill(ctx context.Context, req *model.ConsultationRequest, compute interfaces.ComputeFunc, f *flight) (rec *model.Recommendation, err error) {
	fp := req.Fingerprint()

	if c.fillHook != nil {
		c.fillHook(fp)
	}

	c.mu.Lock()
	if live, _ := c.liveLocked(fp); live != nil {
		if c.inflight[fp] == f {
			delete(c.inflight, fp)
		}
		c.mu.Unlock()
		return live, nil
	}
	c.mu.Unlock()

	var (
		stored    *model.CacheEntry
		fromStore bool
	)
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = goerr.New("recommendation compute panicked",
				goerr.V(model.FingerprintKey, fp),
				goerr.V("panic", fmt.Sprint(r)))
		}

		c.mu.Lock()
		if c.inflight[fp] == f {
			delete(c.inflight, fp)
		}
		if err == nil && !f.invalidated {
			if !fromStore {
				stored = &model.CacheEntry{
					Fingerprint:    fp,
					Recommendation: rec.Clone(),
					ExpiresAt:      c.now().Add(c.ttl),
				}
			}
			c.entries.Add(fp, stored)
		} else {
			stored = nil
		}
		c.mu.Unlock()

		if fromStore {
			return
		}
		if err != nil {
			computesTotal.WithLabelValues("error").Inc()
			return
		}
		computesTotal.WithLabelValues("success").Inc()
		if stored != nil {
			c.saveToStore(ctx, stored)
		}
	}()

	if entry, ok := c.loadFromStore(ctx, fp); ok {
		stored, fromStore = entry, true
		return entry.Recommendation, nil
	}

	rec, err = compute(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compute recommendation", goerr.V(model.FingerprintKey, fp))
	}
	if rec == nil {
		return nil, goerr.New("compute returned no recommendation", goerr.V(model.FingerprintKey, fp))
	}
	return rec, nil
}

// Lookup returns the live recommendation for fp or model.ErrNotFound
func (c *Cache) Lookup(ctx context.Context, fp model.Fingerprint) (*model.Recommendation, error) {
	if rec, ok := c.getLive(fp); ok {
		return rec, nil
	}

	if entry, ok := c.loadFromStore(ctx, fp); ok {
		c.mu.Lock()
		c.entries.Add(fp, entry)
		c.mu.Unlock()
		return entry.Recommendation.Clone(), nil
	}

	return nil, goerr.Wrap(model.ErrNotFound, "no live recommendation for fingerprint", goerr.V(model.FingerprintKey, fp))
}

// Invalidate removes fp immediately. A compute running for fp keeps serving its waiters but
// its result is not stored; the next GetOrCompute starts a fresh compute.
func (c *Cache) Invalidate(ctx context.Context, fp model.Fingerprint) {
	c.mu.Lock()
	c.entries.Remove(fp)
	if f, ok := c.inflight[fp]; ok {
		f.invalidated = true
		delete(c.inflight, fp)
	}
	c.group.Forget(string(fp))
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Delete(ctx, fp); err != nil && !errors.Is(err, model.ErrNotFound) {
			storeErrorsTotal.WithLabelValues("delete").Inc()
			logging.From(ctx).Warn("failed to delete cache entry from store", "fingerprint", fp, "error", err)
		}
	}
}

// Len returns the number of entries held in memory, expired ones included
func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) getLive(fp model.Fingerprint) (*model.Recommendation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, result := c.liveLocked(fp)
	lookupsTotal.WithLabelValues(result).Inc()
	return rec, rec != nil
}

// liveLocked returns a copy of the live entry for fp and the lookup result label. Expired
// entries are evicted. c.mu must be held.
func (c *Cache) liveLocked(fp model.Fingerprint) (*model.Recommendation, string) {
	entry, ok := c.entries.Get(fp)
	if !ok {
		return nil, "miss"
	}
	if entry.Expired(c.now()) {
		c.entries.Remove(fp)
		return nil, "expired"
	}
	return entry.Recommendation.Clone(), "hit"
}

func (c *Cache) loadFromStore(ctx context.Context, fp model.Fingerprint) (*model.CacheEntry, bool) {
	if c.store == nil {
		return nil, false
	}

	entry, err := c.store.Get(ctx, fp)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			storeErrorsTotal.WithLabelValues("get").Inc()
			logging.From(ctx).Warn("cache store lookup failed, treating as miss", "fingerprint", fp, "error", err)
		}
		return nil, false
	}
	if entry == nil || entry.Recommendation == nil || entry.Expired(c.now()) {
		return nil, false
	}

	lookupsTotal.WithLabelValues("store_hit").Inc()
	return entry, true
}

func (c *Cache) saveToStore(ctx context.Context, entry *model.CacheEntry) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, entry); err != nil {
		storeErrorsTotal.WithLabelValues("put").Inc()
		logging.From(ctx).Warn("failed to write cache entry to store", "fingerprint", entry.Fingerprint, "error", err)
	}
}
