package prefetch

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"photo-journal/internal/logging"
	"photo-journal/internal/loop"
	"photo-journal/internal/photo"
	"photo-journal/internal/thumbcache"
)

const (
	DefaultWindow    = 60
	DefaultBatchSize = 12
	DefaultDebounce  = 200 * time.Millisecond
)

// Schedule outcomes reported to the Observer.
const (
	OutcomeScheduled  = "scheduled"
	OutcomeEmpty      = "empty"
	OutcomeDrift      = "drift"
	OutcomeThrottled  = "throttled"
	OutcomeSuperseded = "superseded"
)

// Preloader is the part of the thumbnail cache the scheduler drives.
type Preloader interface {
	Preload(ctx context.Context, keys []thumbcache.Key) thumbcache.PreloadResult
}

// Throttle reports memory pressure. memory.Monitor satisfies it.
type Throttle interface {
	ShouldThrottle() bool
}

// Observer records scheduling decisions and batch results.
type Observer interface {
	ObserveSchedule(outcome string)
	ObserveBatch(result thumbcache.PreloadResult)
}

// Options configures a Scheduler. Zero values select defaults.
type Options struct {
	Window    int
	BatchSize int
	Debounce  time.Duration

	// Rendition requested for every preloaded photo.
	Width   int
	Height  int
	Quality int

	Throttle Throttle
	Logger   logging.Logger
	Observer Observer
}

// Scheduler owns the viewport prefetch state of one view. Observe, SetItems
// and Schedule must be called from the owner loop passed to New.
type Scheduler struct {
	cache    Preloader
	debounce *loop.Debouncer
	opts     Options

	items     []photo.Descriptor
	last      int
	scheduled bool

	gen    atomic.Uint64
	runs   sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler whose debounced evaluations are posted to owner.
func New(cache Preloader, owner loop.Poster, opts Options) *Scheduler {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cache:    cache,
		debounce: loop.NewDebouncer(opts.Debounce, owner),
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetItems replaces the list the window is computed over.
func (s *Scheduler) SetItems(items []photo.Descriptor) {
	s.items = items
}

// Observe records a scroll sample. Only the last sample of a burst is
// evaluated, after the debounce delay.
func (s *Scheduler) Observe(offset, maxExtent float64) {
	s.debounce.Trigger(func() {
		s.Schedule(offset, maxExtent)
	})
}

// Schedule evaluates a settled sample immediately. It returns the window
// start and whether a preload run was started.
func (s *Scheduler) Schedule(offset, maxExtent float64) (int, bool) {
	total := len(s.items)
	if total == 0 {
		s.observe(OutcomeEmpty)
		return 0, false
	}

	start := StartIndex(offset, maxExtent, total)
	if s.scheduled && abs(start-s.last) < s.opts.BatchSize/2 {
		s.observe(OutcomeDrift)
		return start, false
	}
	if s.opts.Throttle != nil && s.opts.Throttle.ShouldThrottle() {
		s.opts.Logger.Debug("skipping window under memory pressure", "prefetch.throttle", map[string]any{"start": start})
		s.observe(OutcomeThrottled)
		return start, false
	}

	s.last = start
	s.scheduled = true

	end := start + s.opts.Window
	if end > total {
		end = total
	}
	keys := make([]thumbcache.Key, 0, end-start)
	for _, p := range s.items[start:end] {
		keys = append(keys, thumbcache.Key{
			PhotoID: p.ID,
			Width:   s.opts.Width,
			Height:  s.opts.Height,
			Quality: s.opts.Quality,
		})
	}

	gen := s.gen.Add(1)
	s.observe(OutcomeScheduled)
	s.runs.Add(1)
	go s.run(gen, keys)
	return start, true
}

// run preloads keys batch by batch until done or superseded.
func (s *Scheduler) run(gen uint64, keys []thumbcache.Key) {
	defer s.runs.Done()
	defer func() {
		if r := recover(); r != nil {
			s.opts.Logger.Error("prefetch run panicked", "prefetch.run", map[string]any{"panic": r})
		}
	}()

	for i := 0; i < len(keys); i += s.opts.BatchSize {
		if s.gen.Load() != gen || s.ctx.Err() != nil {
			s.observe(OutcomeSuperseded)
			return
		}
		end := i + s.opts.BatchSize
		if end > len(keys) {
			end = len(keys)
		}
		res := s.cache.Preload(s.ctx, keys[i:end])
		if res.Failed > 0 {
			s.opts.Logger.Debug("batch had failures", "prefetch.batch", map[string]any{
				"offset":    i,
				"failed":    res.Failed,
				"requested": res.Requested,
			})
		}
		if s.opts.Observer != nil {
			s.opts.Observer.ObserveBatch(res)
		}
	}
}

// Reset forgets the last scheduled position so the next sample always
// schedules. Used after the list is replaced wholesale.
func (s *Scheduler) Reset() {
	s.scheduled = false
	s.last = 0
}

// Close stops pending evaluations and supersedes running batches.
func (s *Scheduler) Close() {
	s.debounce.Stop()
	s.gen.Add(1)
	s.cancel()
}

// Wait blocks until every started run has returned.
func (s *Scheduler) Wait() {
	s.runs.Wait()
}

func (s *Scheduler) observe(outcome string) {
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveSchedule(outcome)
	}
}

// StartIndex maps a scroll position onto an item index in [0, total).
func StartIndex(offset, maxExtent float64, total int) int {
	if total <= 0 {
		return 0
	}
	fraction := 0.0
	if maxExtent > 0 && !math.IsNaN(offset) {
		fraction = offset / maxExtent
	}
	fraction = math.Max(0, math.Min(1, fraction))

	start := int(math.Floor(fraction * float64(total)))
	if start > total-1 {
		start = total - 1
	}
	return start
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
