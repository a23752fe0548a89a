package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"photo-journal/internal/logging"
	"photo-journal/internal/photo"
)

// scriptedSource serves a fixed library, optionally failing selected calls.
type scriptedSource struct {
	mu      sync.Mutex
	library []photo.Descriptor
	calls   []int // offsets requested
	limits  []int
	failAt  map[int]error
	extra   map[int][]photo.Descriptor // offset -> page override
}

func newScriptedSource(n int) *scriptedSource {
	base := time.Date(2026, time.May, 20, 12, 0, 0, 0, time.UTC)
	lib := make([]photo.Descriptor, n)
	for i := range lib {
		lib[i] = photo.Descriptor{ID: fmt.Sprintf("p%02d", i+1), CapturedAt: base.Add(-time.Duration(i) * time.Hour)}
	}
	return &scriptedSource{library: lib, failAt: make(map[int]error), extra: make(map[int][]photo.Descriptor)}
}

func (s *scriptedSource) FetchPage(ctx context.Context, start, end time.Time, offset, limit int) ([]photo.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, offset)
	s.limits = append(s.limits, limit)
	if err, ok := s.failAt[offset]; ok {
		delete(s.failAt, offset)
		return nil, err
	}
	if page, ok := s.extra[offset]; ok {
		return page, nil
	}
	if offset >= len(s.library) {
		return nil, nil
	}
	hi := offset + limit
	if hi > len(s.library) {
		hi = len(s.library)
	}
	return append([]photo.Descriptor(nil), s.library[offset:hi]...), nil
}

func (s *scriptedSource) Calls() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.calls...)
}

func (s *scriptedSource) Limits() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.limits...)
}

// harness stands in for the owner loop: posted tasks queue up until the
// test runs them.
type harness struct {
	tasks chan func()
}

func newHarness() *harness {
	return &harness{tasks: make(chan func(), 64)}
}

func (h *harness) Post(fn func()) bool {
	h.tasks <- fn
	return true
}

// step runs exactly one posted task.
func (h *harness) step(t *testing.T) {
	t.Helper()
	select {
	case fn := <-h.tasks:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a posted task")
	}
}

func (h *harness) idle(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case <-h.tasks:
		t.Fatal("unexpected posted task")
	case <-time.After(d):
	}
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newController(src photo.Source, h *harness, opts Options) (*Controller, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, time.May, 20, 12, 0, 0, 0, time.UTC)}
	if opts.Now == nil {
		opts.Now = clock.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return New(src, h, opts), clock
}

func ids(items []photo.Descriptor) string {
	return fmt.Sprint(photo.IDs(items))
}

func TestMergeTwoPages(t *testing.T) {
	src := newScriptedSource(25)
	h := newHarness()
	c, clock := newController(src, h, Options{PageSize: 20})

	c.Start(context.Background())
	st := c.State()
	if !st.IsLoadingMore || st.SkeletonPages != 1 {
		t.Fatalf("after Start: %+v", st)
	}
	h.step(t)

	st = c.State()
	if len(st.Items) != 20 || !st.HasMore || st.Cursor != 20 || st.IsLoadingMore {
		t.Fatalf("after page 1: len=%d hasMore=%v cursor=%d loading=%v", len(st.Items), st.HasMore, st.Cursor, st.IsLoadingMore)
	}
	if st.SkeletonPages != 0 {
		t.Errorf("merge should remove a skeleton page, got %d", st.SkeletonPages)
	}

	clock.Advance(time.Second)
	c.OnScroll(950, 1000)
	h.step(t)

	st = c.State()
	if len(st.Items) != 25 || st.HasMore || st.Cursor != 25 {
		t.Fatalf("after page 2: len=%d hasMore=%v cursor=%d", len(st.Items), st.HasMore, st.Cursor)
	}
	if st.SkeletonPages != 0 {
		t.Errorf("skeletons must be 0 when nothing more, got %d", st.SkeletonPages)
	}

	c.OnScroll(1000, 1000)
	if c.State().IsLoadingMore {
		t.Error("no fetch once hasMore is false")
	}
	if got := src.Calls(); fmt.Sprint(got) != "[0 20]" {
		t.Errorf("offsets requested = %v", got)
	}
}

func TestMergeDeduplicatesRepeatedIDs(t *testing.T) {
	src := newScriptedSource(20)
	repeat := append([]photo.Descriptor{src.library[19]}, photo.Descriptor{ID: "new", CapturedAt: time.Unix(0, 0)})
	src.extra[20] = repeat
	h := newHarness()
	c, clock := newController(src, h, Options{PageSize: 20})

	c.Start(context.Background())
	h.step(t)
	clock.Advance(time.Second)
	c.LoadMore()
	h.step(t)

	st := c.State()
	if len(st.Items) != 21 {
		t.Fatalf("expected 21 unique items, got %d", len(st.Items))
	}
	seen := photo.NewIDSet()
	for _, p := range st.Items {
		if seen.Has(p.ID) {
			t.Fatalf("duplicate id %s", p.ID)
		}
		seen.Add(p.ID)
	}
	if st.Cursor != 22 {
		t.Errorf("cursor advances by page length, got %d", st.Cursor)
	}
}

func TestThresholds(t *testing.T) {
	src := newScriptedSource(100)
	h := newHarness()
	preloads := 0
	c, clock := newController(src, h, Options{PageSize: 10, OnPreloadMore: func() { preloads++ }})
	c.Start(context.Background())
	h.step(t)
	clock.Advance(time.Second)

	c.OnScroll(0, 5000)
	if preloads != 0 || c.State().IsLoadingMore {
		t.Fatal("far from the end nothing should happen")
	}

	c.OnScroll(3600, 5000) // 1400 from end: soft only
	if preloads != 1 {
		t.Errorf("preload hook calls = %d, want 1", preloads)
	}
	if c.State().IsLoadingMore {
		t.Error("soft threshold must not fetch")
	}

	c.OnScroll(3700, 5000)
	if preloads != 1 {
		t.Error("soft hook should fire once per cursor position")
	}

	c.OnScroll(4750, 5000) // 250 from end: hard
	if !c.State().IsLoadingMore {
		t.Fatal("hard threshold should fetch")
	}
	c.OnScroll(4800, 5000)
	h.step(t)
	if n := len(src.Calls()); n != 2 {
		t.Errorf("only one fetch may be in flight, calls=%d", n)
	}

	c.OnScroll(3600, 5000)
	if preloads != 2 {
		t.Errorf("soft hook should fire again after cursor moved, got %d", preloads)
	}
}

func TestFetchFailureKeepsHasMore(t *testing.T) {
	src := newScriptedSource(40)
	src.failAt[20] = errors.New("network down")
	h := newHarness()
	rec := logging.NewRecorder()
	c, clock := newController(src, h, Options{PageSize: 20, Logger: rec})

	c.Start(context.Background())
	h.step(t)

	clock.Advance(time.Second)
	c.OnScroll(990, 1000)
	skeletons := c.State().SkeletonPages
	h.step(t)

	st := c.State()
	if st.IsLoadingMore || !st.HasMore || len(st.Items) != 20 {
		t.Fatalf("after failure: %+v", st)
	}
	if st.SkeletonPages != skeletons {
		t.Errorf("failure must not change skeletons: %d -> %d", skeletons, st.SkeletonPages)
	}
	if rec.Count("pagination.fetch") != 1 {
		t.Errorf("expected one warning, got %d", rec.Count("pagination.fetch"))
	}

	clock.Advance(time.Second)
	c.OnScroll(990, 1000)
	h.step(t)
	if got := len(c.State().Items); got != 40 {
		t.Errorf("retry should merge, items=%d", got)
	}
}

func TestSkeletonGrowthIsThrottled(t *testing.T) {
	src := newScriptedSource(1000)
	h := newHarness()
	c, _ := newController(src, h, Options{PageSize: 10})
	c.Start(context.Background())
	if c.State().SkeletonPages != 1 {
		t.Fatalf("first fetch should add a skeleton page")
	}

	// The next fetch is triggered inside the throttle window.
	h.step(t)
	c.OnScroll(1000, 1000)
	if !c.State().IsLoadingMore {
		t.Fatal("expected a second fetch")
	}
	if got := c.State().SkeletonPages; got != 0 {
		t.Errorf("growth inside the throttle window should be suppressed, got %d", got)
	}
}

func TestSkeletonGrowthIsCapped(t *testing.T) {
	c, clock := newController(newScriptedSource(0), newHarness(), Options{MaxSkeletonPages: 2})

	for i := 0; i < 5; i++ {
		c.growSkeletons()
		clock.Advance(time.Second)
	}
	if got := c.state.SkeletonPages; got != 2 {
		t.Errorf("skeleton pages = %d, want cap 2", got)
	}

	c.state.SkeletonPages = 0
	c.growSkeletons()
	c.growSkeletons()
	if got := c.state.SkeletonPages; got != 1 {
		t.Errorf("two growths in one window gave %d pages, want 1", got)
	}
}

func TestRefreshDiscardsStaleCompletion(t *testing.T) {
	src := newScriptedSource(30)
	h := newHarness()
	c, _ := newController(src, h, Options{PageSize: 20})

	c.Start(context.Background())
	c.Refresh(context.Background())

	// Both fetches complete; only the second generation may merge.
	h.step(t)
	h.step(t)

	st := c.State()
	if len(st.Items) != 20 {
		t.Errorf("expected exactly one merged page, got %d items", len(st.Items))
	}
	if st.IsLoadingMore {
		t.Error("current generation finished loading")
	}
}

// loadTwoPages leaves c with all 30 photos of a 30 photo library merged.
func loadTwoPages(t *testing.T, c *Controller, h *harness, clock *fakeClock) {
	t.Helper()
	c.Start(context.Background())
	h.step(t)
	clock.Advance(time.Second)
	c.OnScroll(950, 1000)
	h.step(t)
	if got := len(c.Items()); got != 30 {
		t.Fatalf("loaded %d items, want 30", got)
	}
}

func TestRefreshKeepsListUntilReplaced(t *testing.T) {
	src := newScriptedSource(30)
	h := newHarness()
	c, clock := newController(src, h, Options{PageSize: 20})
	loadTwoPages(t, c, h, clock)

	var seen []int
	c.Subscribe(func() { seen = append(seen, len(c.Items())) })

	src.mu.Lock()
	src.library = src.library[1:] // p01 removed from disk
	src.mu.Unlock()

	c.Refresh(context.Background())
	st := c.State()
	if !st.IsLoadingMore || len(st.Items) != 30 {
		t.Fatalf("while reloading: loading=%v items=%d, want old 30 kept", st.IsLoadingMore, len(st.Items))
	}
	h.step(t)

	st = c.State()
	if len(st.Items) != 29 || st.Items[0].ID != "p02" || st.Cursor != 29 {
		t.Fatalf("after reload: items=%d first=%s cursor=%d", len(st.Items), st.Items[0].ID, st.Cursor)
	}
	if st.HasMore {
		t.Error("a short reload page means nothing more")
	}
	for _, n := range seen {
		if n == 0 {
			t.Fatalf("subscribers saw an empty list during refresh: %v", seen)
		}
	}
	if got := src.Limits(); got[len(got)-1] != 30 {
		t.Errorf("reload limit = %d, want the loaded extent 30", got[len(got)-1])
	}
}

func TestRefreshFailureKeepsOldList(t *testing.T) {
	src := newScriptedSource(30)
	h := newHarness()
	c, clock := newController(src, h, Options{PageSize: 20})
	loadTwoPages(t, c, h, clock)

	src.mu.Lock()
	src.failAt[0] = errors.New("disk gone")
	src.mu.Unlock()

	c.Refresh(context.Background())
	h.step(t)
	st := c.State()
	if len(st.Items) != 30 || st.IsLoadingMore || !st.HasMore {
		t.Fatalf("after failed reload: items=%d loading=%v hasMore=%v", len(st.Items), st.IsLoadingMore, st.HasMore)
	}

	clock.Advance(time.Second)
	if !c.LoadMore() {
		t.Fatal("retry should start a fetch")
	}
	h.step(t)
	if got := ids(c.Items()[:2]); got != "[p01 p02]" || len(c.Items()) != 30 {
		t.Errorf("retried reload gave %s, %d items", got, len(c.Items()))
	}
	calls := src.Calls()
	if last := calls[len(calls)-1]; last != 0 {
		t.Errorf("retry fetched offset %d, want 0", last)
	}
}

func TestPinnedContinuation(t *testing.T) {
	src := newScriptedSource(60)
	h := newHarness()
	c, clock := newController(src, h, Options{PageSize: 20, SkeletonDebounce: 20 * time.Millisecond})

	c.Start(context.Background())
	c.OnScroll(0, 0) // content shorter than the viewport
	h.step(t)

	if !c.PendingContinuation() {
		t.Fatal("pinned view with more data should arm a continuation")
	}
	clock.Advance(time.Second)
	h.step(t) // continuation fires and starts the next fetch
	if !c.State().IsLoadingMore {
		t.Fatal("continuation should trigger a fetch")
	}
	h.step(t)
	if got := len(c.State().Items); got != 40 {
		t.Errorf("items = %d, want 40", got)
	}
}

func TestNoContinuationWhenNotPinned(t *testing.T) {
	src := newScriptedSource(60)
	h := newHarness()
	c, _ := newController(src, h, Options{PageSize: 20, SkeletonDebounce: 20 * time.Millisecond})

	c.Start(context.Background())
	c.OnScroll(100, 5000)
	h.step(t)
	if c.PendingContinuation() {
		t.Error("no continuation when the view is not at the end")
	}
	h.idle(t, 60*time.Millisecond)
}

func TestPrepend(t *testing.T) {
	src := newScriptedSource(5)
	h := newHarness()
	c, _ := newController(src, h, Options{PageSize: 20})
	c.Start(context.Background())
	h.step(t)

	notified := 0
	c.Subscribe(func() { notified++ })

	captured := photo.Descriptor{ID: "cam", CapturedAt: time.Now()}
	c.Prepend(captured)
	c.Prepend(photo.Descriptor{ID: "p03", CapturedAt: time.Now()})

	if got := ids(c.Items()); got != "[p03 cam p01 p02 p04 p05]" {
		t.Errorf("items = %s", got)
	}
	if notified != 2 {
		t.Errorf("notified %d times, want 2", notified)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	src := newScriptedSource(5)
	h := newHarness()
	c, _ := newController(src, h, Options{})
	c.Start(context.Background())
	h.step(t)

	snap := c.State()
	snap.Items[0].ID = "mutated"
	if c.Items()[0].ID == "mutated" {
		t.Error("snapshot shares storage with controller state")
	}
}

func TestNotifiesOncePerChange(t *testing.T) {
	src := newScriptedSource(5)
	h := newHarness()
	c, _ := newController(src, h, Options{})

	n := 0
	c.Subscribe(func() { n++ })
	c.Start(context.Background()) // reset + fetch start
	h.step(t)                     // merge
	c.OnScroll(1000, 1000)        // hasMore false: nothing

	if n != 2 {
		t.Errorf("notifications = %d, want 2", n)
	}
}
