package pagination

import (
	"context"
	"time"

	"photo-journal/internal/logging"
	"photo-journal/internal/loop"
	"photo-journal/internal/notify"
	"photo-journal/internal/photo"
)

const (
	DefaultPageSize         = 20
	DefaultSoftThreshold    = 1500.0
	DefaultHardThreshold    = 300.0
	DefaultMaxSkeletonPages = 3
	DefaultSkeletonDebounce = 500 * time.Millisecond
	DefaultFetchTimeout     = 30 * time.Second

	// pinnedSlack is how close to the end a sample must be to count as
	// pinned there.
	pinnedSlack = 1.0
)

// Fetch outcomes reported to the Observer.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

// State is the pagination state of one view.
type State struct {
	Items         []photo.Descriptor `json:"items"`
	Cursor        int                `json:"cursor"`
	HasMore       bool               `json:"hasMore"`
	IsLoadingMore bool               `json:"isLoadingMore"`
	SkeletonPages int                `json:"skeletonPages"`
}

// Snapshot returns a copy that shares nothing with s.
func (s State) Snapshot() State {
	out := s
	out.Items = make([]photo.Descriptor, len(s.Items))
	copy(out.Items, s.Items)
	return out
}

// Observer records fetch results.
type Observer interface {
	ObserveFetch(outcome string, durationSeconds float64, items int)
}

// Options configures a Controller. Zero values select defaults.
type Options struct {
	PageSize         int
	SoftThreshold    float64
	HardThreshold    float64
	MaxSkeletonPages int
	SkeletonDebounce time.Duration
	FetchTimeout     time.Duration

	// RangeStart and RangeEnd bound capture times; zero leaves a side open.
	RangeStart time.Time
	RangeEnd   time.Time

	// OnPreloadMore is called on the owner loop when a sample enters the soft
	// threshold. It fires at most once per cursor position.
	OnPreloadMore func()

	// Now is the clock used for skeleton throttling.
	Now func() time.Time

	Logger   logging.Logger
	Observer Observer
}

// Controller owns PaginationState. Every method except Subscribe and
// Unsubscribe must be called from the owner loop passed to New.
type Controller struct {
	source photo.Source
	poster loop.Poster
	opts   Options

	state State
	ids   photo.IDSet

	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc

	// reloadLimit is non-zero while a Refresh is waiting for the page that
	// replaces the current list.
	reloadLimit int

	haveSample bool
	lastOffset float64
	lastExtent float64
	softCursor int
	lastGrowth time.Time

	continuation *loop.Debouncer
	changes      notify.Broadcaster
}

// New creates a controller that fetches from source and posts completions
// to owner. Nothing is loaded until Start.
func New(source photo.Source, owner loop.Poster, opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.SoftThreshold <= 0 {
		opts.SoftThreshold = DefaultSoftThreshold
	}
	if opts.HardThreshold <= 0 {
		opts.HardThreshold = DefaultHardThreshold
	}
	if opts.MaxSkeletonPages <= 0 {
		opts.MaxSkeletonPages = DefaultMaxSkeletonPages
	}
	if opts.SkeletonDebounce <= 0 {
		opts.SkeletonDebounce = DefaultSkeletonDebounce
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		source:       source,
		poster:       owner,
		opts:         opts,
		ids:          make(photo.IDSet),
		ctx:          ctx,
		cancel:       cancel,
		softCursor:   -1,
		continuation: loop.NewDebouncer(opts.SkeletonDebounce, owner),
	}
}

// Subscribe registers fn to run after every observable change.
func (c *Controller) Subscribe(fn func()) notify.Handle {
	return c.changes.Subscribe(fn)
}

// Unsubscribe removes a subscription.
func (c *Controller) Unsubscribe(h notify.Handle) bool {
	return c.changes.Unsubscribe(h)
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	return c.state.Snapshot()
}

// Items returns the merged list. The slice must not be modified.
func (c *Controller) Items() []photo.Descriptor {
	return c.state.Items
}

// PageSize returns the configured page size.
func (c *Controller) PageSize() int {
	return c.opts.PageSize
}

// Start discards the current list and loads the first page. Fetches of the
// new generation run under ctx; completions of older generations are
// ignored.
func (c *Controller) Start(ctx context.Context) {
	c.restart(ctx)
	c.state = State{HasMore: true}
	c.ids = make(photo.IDSet)
	c.reloadLimit = 0

	if !c.loadMore() {
		c.changes.Notify()
	}
}

// Refresh reloads the list from the start. The current items stay in place
// until a single fetch covering the loaded extent (at least one page)
// arrives and replaces them. If that fetch fails the old list is kept and
// the next load retries the replacement.
func (c *Controller) Refresh(ctx context.Context) {
	limit := c.state.Cursor
	if limit < c.reloadLimit {
		limit = c.reloadLimit
	}
	if limit < c.opts.PageSize {
		limit = c.opts.PageSize
	}
	c.restart(ctx)
	c.reloadLimit = limit
	c.state.Cursor = 0
	c.state.HasMore = true
	c.state.IsLoadingMore = false

	if !c.loadMore() {
		c.changes.Notify()
	}
}

func (c *Controller) restart(ctx context.Context) {
	c.cancel()
	c.continuation.Stop()
	c.gen++
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.softCursor = -1
	c.lastGrowth = time.Time{}
}

// Close stops pending continuations and abandons in-flight fetches.
func (c *Controller) Close() {
	c.continuation.Stop()
	c.gen++
	c.cancel()
}

// OnScroll evaluates a scroll sample against the soft and hard thresholds.
func (c *Controller) OnScroll(offset, maxExtent float64) {
	c.haveSample = true
	c.lastOffset = offset
	c.lastExtent = maxExtent

	if !c.state.HasMore {
		return
	}
	distance := maxExtent - offset
	if distance <= c.opts.SoftThreshold && c.softCursor != c.state.Cursor {
		c.softCursor = c.state.Cursor
		if c.opts.OnPreloadMore != nil {
			c.opts.OnPreloadMore()
		}
	}
	if distance <= c.opts.HardThreshold {
		c.loadMore()
	}
}

// LoadMore starts a page fetch if one is allowed. It reports whether a
// fetch started.
func (c *Controller) LoadMore() bool {
	return c.loadMore()
}

func (c *Controller) loadMore() bool {
	if !c.state.HasMore || c.state.IsLoadingMore {
		return false
	}
	c.state.IsLoadingMore = true
	c.growSkeletons()

	limit := c.opts.PageSize
	if c.reloadLimit > 0 {
		limit = c.reloadLimit
	}
	gen, offset, ctx := c.gen, c.state.Cursor, c.ctx
	go c.fetch(ctx, gen, offset, limit)

	c.changes.Notify()
	return true
}

// fetch runs off the owner loop.
func (c *Controller) fetch(ctx context.Context, gen uint64, offset, limit int) {
	fctx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
	defer cancel()

	start := time.Now()
	page, err := c.source.FetchPage(fctx, c.opts.RangeStart, c.opts.RangeEnd, offset, limit)
	elapsed := time.Since(start)

	if !c.poster.Post(func() { c.complete(gen, offset, limit, page, err, elapsed) }) {
		c.opts.Logger.Debug("owner loop closed, dropping page", "pagination.post", map[string]any{"offset": offset})
	}
}

func (c *Controller) complete(gen uint64, offset, limit int, page []photo.Descriptor, err error, elapsed time.Duration) {
	if gen != c.gen {
		c.observe(OutcomeStale, elapsed, 0)
		return
	}

	c.state.IsLoadingMore = false
	if err != nil {
		c.opts.Logger.Warn("page fetch failed", "pagination.fetch", map[string]any{
			"offset": offset,
			"err":    err.Error(),
		})
		c.observe(OutcomeError, elapsed, 0)
		c.changes.Notify()
		return
	}

	c.merge(page, limit)
	c.observe(OutcomeOK, elapsed, len(page))
	c.changes.Notify()

	if c.state.HasMore && c.pinned() {
		c.continuation.Trigger(c.continueAtEnd)
	}
}

// merge appends page, skipping ids already present. A pending reload
// replaces the list instead.
func (c *Controller) merge(page []photo.Descriptor, limit int) {
	if c.reloadLimit > 0 {
		c.reloadLimit = 0
		c.state.Items = nil
		c.ids = make(photo.IDSet)
	}
	items := make([]photo.Descriptor, len(c.state.Items), len(c.state.Items)+len(page))
	copy(items, c.state.Items)
	for _, p := range page {
		if c.ids.Has(p.ID) {
			continue
		}
		c.ids.Add(p.ID)
		items = append(items, p)
	}
	c.state.Items = items
	c.state.Cursor += len(page)
	c.state.HasMore = len(page) == limit

	if !c.state.HasMore {
		c.state.SkeletonPages = 0
	} else if c.state.SkeletonPages > 0 {
		c.state.SkeletonPages--
	}
}

// continueAtEnd re-evaluates the latest sample after a merge left the view
// pinned at the end.
func (c *Controller) continueAtEnd() {
	if !c.haveSample || !c.pinned() {
		return
	}
	c.OnScroll(c.lastOffset, c.lastExtent)
}

func (c *Controller) pinned() bool {
	return c.haveSample && c.lastExtent-c.lastOffset <= pinnedSlack
}

// growSkeletons adds one skeleton page, at most once per debounce period.
func (c *Controller) growSkeletons() {
	if c.state.SkeletonPages >= c.opts.MaxSkeletonPages {
		return
	}
	now := c.opts.Now()
	if !c.lastGrowth.IsZero() && now.Sub(c.lastGrowth) < c.opts.SkeletonDebounce {
		return
	}
	c.lastGrowth = now
	c.state.SkeletonPages++
}

// Prepend inserts a freshly captured photo at the head of the list. An
// existing entry with the same id is moved.
func (c *Controller) Prepend(p photo.Descriptor) {
	items := make([]photo.Descriptor, 0, len(c.state.Items)+1)
	items = append(items, p)
	for _, existing := range c.state.Items {
		if existing.ID != p.ID {
			items = append(items, existing)
		}
	}
	c.ids.Add(p.ID)
	c.state.Items = items
	c.changes.Notify()
}

// PendingContinuation reports whether a pinned-at-end re-evaluation is armed.
func (c *Controller) PendingContinuation() bool {
	return c.continuation.Pending()
}

func (c *Controller) observe(outcome string, elapsed time.Duration, items int) {
	if c.opts.Observer != nil {
		c.opts.Observer.ObserveFetch(outcome, elapsed.Seconds(), items)
	}
}
