package thumbcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"photo-journal/internal/logging"
	"photo-journal/internal/photo"
	"photo-journal/internal/workers"
)

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("thumbcache: closed")

const (
	// DefaultMaxEntries caps the ready store when Options.MaxEntries is zero.
	DefaultMaxEntries = 1024
	// DefaultMaxBytes is the byte budget applied by Prune.
	DefaultMaxBytes = 64 << 20
	// DefaultDecodeTimeout bounds a single decode.
	DefaultDecodeTimeout = 30 * time.Second
	// maxDecodeWorkers caps the decode pool regardless of CPU count.
	maxDecodeWorkers = 16
)

// Eviction reasons reported to the Observer.
const (
	EvictCapacity = "capacity"
	EvictStale    = "stale"
	EvictBudget   = "budget"
	EvictPurge    = "purge"
)

// Lookup results reported to the Observer.
const (
	LookupHit  = "hit"
	LookupMiss = "miss"
	LookupJoin = "join"
)

// Key identifies one rendition of a photo.
type Key struct {
	PhotoID string `json:"photoId"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Quality int    `json:"quality"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%dx%dq%d", k.PhotoID, k.Width, k.Height, k.Quality)
}

// Observer records cache activity. It is implemented by the metrics package.
type Observer interface {
	ObserveLookup(result string)
	ObserveDecode(durationSeconds float64, err error)
	ObserveEviction(reason string)
	ObserveSize(entries int, bytes int64)
}

// Options configures a Cache. Zero values select defaults.
type Options struct {
	MaxEntries    int
	MaxBytes      int64
	Workers       int
	DecodeTimeout time.Duration
	Logger        logging.Logger
	Observer      Observer
}

// PreloadResult summarizes one Preload call. Keys skipped because ctx was
// cancelled count toward Requested only.
type PreloadResult struct {
	Requested int `json:"requested"`
	Loaded    int `json:"loaded"`
	Failed    int `json:"failed"`
}

// Cache memoizes decoded thumbnails. Concurrent requests for the same key
// share one decode; failures are not remembered so the next request retries.
// It is safe for concurrent use.
type Cache struct {
	decoder photo.Decoder
	logger  logging.Logger
	obs     Observer

	// mu serializes mutations of ready so evictReason is accurate when the
	// eviction callback runs.
	mu          sync.Mutex
	ready       *lru.Cache[Key, []byte]
	evictReason string
	size        atomic.Int64
	maxBytes    int64

	flights  singleflight.Group
	inflight sync.Map // Key -> struct{}, for join accounting only
	sem      *semaphore.Weighted
	workers  int
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// New creates a cache that fills misses through decoder.
func New(decoder photo.Decoder, opts Options) (*Cache, error) {
	if decoder == nil {
		return nil, errors.New("thumbcache: nil decoder")
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Workers <= 0 {
		opts.Workers = workers.ForMixed(maxDecodeWorkers)
	}
	if opts.DecodeTimeout <= 0 {
		opts.DecodeTimeout = DefaultDecodeTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		decoder:  decoder,
		logger:   opts.Logger,
		obs:      opts.Observer,
		maxBytes: opts.MaxBytes,
		sem:      semaphore.NewWeighted(int64(opts.Workers)),
		workers:  opts.Workers,
		timeout:  opts.DecodeTimeout,
		ctx:      ctx,
		cancel:   cancel,
	}

	ready, err := lru.NewWithEvict[Key, []byte](opts.MaxEntries, c.onEvict)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("thumbcache: create store: %w", err)
	}
	c.ready = ready
	return c, nil
}

// onEvict runs synchronously inside every ready-store removal, which always
// happens with c.mu held.
func (c *Cache) onEvict(_ Key, data []byte) {
	c.size.Add(-int64(len(data)))
	if c.obs != nil {
		reason := c.evictReason
		if reason == "" {
			reason = EvictCapacity
		}
		c.obs.ObserveEviction(reason)
	}
}

// Get returns the thumbnail for key, decoding it on a miss. If a decode for
// key is already running the call waits for it instead of starting another.
// Abandoning ctx stops the wait but not the shared decode.
func (c *Cache) Get(ctx context.Context, key Key) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if data, ok := c.ready.Get(key); ok {
		c.observeLookup(LookupHit)
		return data, nil
	}

	if _, joining := c.inflight.Load(key); joining {
		c.observeLookup(LookupJoin)
	} else {
		c.observeLookup(LookupMiss)
	}

	ch := c.flights.DoChan(key.String(), func() (any, error) {
		return c.load(key)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// load runs once per flight.
func (c *Cache) load(key Key) ([]byte, error) {
	// A previous flight may have stored key after the caller's lookup.
	if data, ok := c.ready.Peek(key); ok {
		return data, nil
	}

	c.inflight.Store(key, struct{}{})
	defer c.inflight.Delete(key)

	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	if err := c.sem.Acquire(ctx, 1); err != nil {
		if c.closed.Load() {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("thumbcache: wait for decoder %s: %w", key, err)
	}
	defer c.sem.Release(1)

	start := time.Now()
	data, err := c.decoder.Decode(ctx, key.PhotoID, key.Width, key.Height, key.Quality)
	if c.obs != nil {
		c.obs.ObserveDecode(time.Since(start).Seconds(), err)
	}
	if err != nil {
		if c.closed.Load() {
			return nil, ErrClosed
		}
		c.logger.Warn("thumbnail decode failed", "thumbcache.decode", map[string]any{
			"key":   key.String(),
			"error": err.Error(),
		})
		return nil, fmt.Errorf("thumbcache: decode %s: %w", key, err)
	}

	if !c.closed.Load() {
		c.store(key, data)
	}
	return data, nil
}

func (c *Cache) store(key Key, data []byte) {
	c.mu.Lock()
	if old, ok := c.ready.Peek(key); ok {
		c.size.Add(-int64(len(old)))
	}
	c.evictReason = EvictCapacity
	c.size.Add(int64(len(data)))
	c.ready.Add(key, data)
	c.evictReason = ""
	c.mu.Unlock()
	c.observeSize()
}

// Peek returns a ready thumbnail without decoding or touching recency.
func (c *Cache) Peek(key Key) ([]byte, bool) {
	return c.ready.Peek(key)
}

// Preload warms the cache for keys with the same sharing rules as Get.
// Repeated keys are requested once. Failures are counted, not returned.
func (c *Cache) Preload(ctx context.Context, keys []Key) PreloadResult {
	unique := make([]Key, 0, len(keys))
	seen := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
	}

	result := PreloadResult{Requested: len(unique)}
	var loaded, failed atomic.Int32

	var g errgroup.Group
	g.SetLimit(c.workers)
	for _, key := range unique {
		key := key
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if _, err := c.Get(ctx, key); err != nil {
				failed.Add(1)
				c.logger.Debug("preload failed", "thumbcache.preload", map[string]any{
					"photo": key.PhotoID,
					"error": err.Error(),
				})
				return nil
			}
			loaded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	result.Loaded = int(loaded.Load())
	result.Failed = int(failed.Load())
	return result
}

// InvalidateStale drops every entry whose photo id is not in live, then
// applies the byte budget. It returns the number of entries removed.
func (c *Cache) InvalidateStale(live photo.IDSet) int {
	c.mu.Lock()
	removed := 0
	c.evictReason = EvictStale
	for _, key := range c.ready.Keys() {
		if !live.Has(key.PhotoID) && c.ready.Remove(key) {
			removed++
		}
	}
	removed += c.pruneLocked()
	c.evictReason = ""
	c.mu.Unlock()

	c.observeSize()
	return removed
}

// Prune evicts least recently used entries until the cache fits its byte
// budget. It returns the number of entries removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	removed := c.pruneLocked()
	c.mu.Unlock()

	c.observeSize()
	return removed
}

func (c *Cache) pruneLocked() int {
	prev := c.evictReason
	c.evictReason = EvictBudget
	defer func() { c.evictReason = prev }()

	removed := 0
	for c.size.Load() > c.maxBytes {
		if _, _, ok := c.ready.RemoveOldest(); !ok {
			break
		}
		removed++
	}
	return removed
}

// Purge empties the ready store. In-flight decodes are unaffected.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.evictReason = EvictPurge
	c.ready.Purge()
	c.evictReason = ""
	c.mu.Unlock()
	c.observeSize()
}

// Close cancels running decodes and empties the cache. Later calls to Get
// return ErrClosed.
func (c *Cache) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.cancel()
	c.Purge()
}

// SizeBytes returns the bytes held by ready entries.
func (c *Cache) SizeBytes() int64 {
	return c.size.Load()
}

// MaxBytes returns the budget applied by Prune.
func (c *Cache) MaxBytes() int64 {
	return c.maxBytes
}

// Len returns the number of ready entries.
func (c *Cache) Len() int {
	return c.ready.Len()
}

// Workers returns the decode concurrency bound.
func (c *Cache) Workers() int {
	return c.workers
}

func (c *Cache) observeLookup(result string) {
	if c.obs != nil {
		c.obs.ObserveLookup(result)
	}
}

func (c *Cache) observeSize() {
	if c.obs != nil {
		c.obs.ObserveSize(c.ready.Len(), c.size.Load())
	}
}
