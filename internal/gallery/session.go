package gallery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"photo-journal/internal/logging"
	"photo-journal/internal/loop"
	"photo-journal/internal/notify"
	"photo-journal/internal/pagination"
	"photo-journal/internal/photo"
	"photo-journal/internal/prefetch"
	"photo-journal/internal/selection"
	"photo-journal/internal/thumbcache"
	"photo-journal/internal/timeline"
)

// Cache is the part of the thumbnail cache a session uses.
type Cache interface {
	prefetch.Preloader
	InvalidateStale(live photo.IDSet) int
}

// Deps are the collaborators shared with the rest of the process.
type Deps struct {
	Source photo.Source
	Used   photo.UsedProvider
	Cache  Cache
	Logger logging.Logger
}

// Config tunes the components a session creates.
type Config struct {
	Pagination pagination.Options
	Prefetch   prefetch.Options
	Selection  selection.Options
	Labels     timeline.LabelFunc

	// Now is the reference clock for grouping (nil = time.Now).
	Now func() time.Time
}

// ViewModel is what a renderer needs to draw the gallery.
type ViewModel struct {
	SessionID       string           `json:"sessionId"`
	Groups          []timeline.Group `json:"groups"`
	SelectedIDs     []string         `json:"selectedIds"`
	SelectedCount   int              `json:"selectedCount"`
	MaxSelection    int              `json:"maxSelection"`
	LockDay         *photo.Day       `json:"lockDay,omitempty"`
	DimmedIDs       []string         `json:"dimmedIds,omitempty"`
	DateRestriction bool             `json:"dateRestriction"`
	HasMore         bool             `json:"hasMore"`
	IsLoadingMore   bool             `json:"isLoadingMore"`
	SkeletonPages   int              `json:"skeletonPages"`
	Total           int              `json:"total"`
}

// Session is one gallery view instance.
type Session struct {
	id     string
	loop   *loop.Loop
	deps   Deps
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	pages    *pagination.Controller
	sel      *selection.State
	prefetch *prefetch.Scheduler
	grouper  timeline.Grouper
	groups   []timeline.Group

	changes notify.Broadcaster
}

// Open starts a session: its loop goroutine, the first page fetch and a pull
// of the used set. The session lives until Close or until ctx is done.
func Open(ctx context.Context, deps Deps, cfg Config) (*Session, error) {
	if deps.Source == nil {
		return nil, errors.New("gallery: nil photo source")
	}
	if deps.Cache == nil {
		return nil, errors.New("gallery: nil thumbnail cache")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Pagination.Logger == nil {
		cfg.Pagination.Logger = deps.Logger
	}
	if cfg.Prefetch.Logger == nil {
		cfg.Prefetch.Logger = deps.Logger
	}
	if cfg.Selection.Logger == nil {
		cfg.Selection.Logger = deps.Logger
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:      uuid.NewString(),
		loop:    loop.New(0),
		deps:    deps,
		cfg:     cfg,
		ctx:     sctx,
		cancel:  cancel,
		grouper: timeline.Grouper{Labels: cfg.Labels},
	}

	pageOpts := cfg.Pagination
	pageOpts.OnPreloadMore = s.warmTail
	s.pages = pagination.New(deps.Source, s.loop, pageOpts)
	s.sel = selection.New(cfg.Selection)
	s.prefetch = prefetch.New(deps.Cache, s.loop, cfg.Prefetch)

	go func() {
		if err := s.loop.Run(sctx); err != nil && !errors.Is(err, context.Canceled) {
			deps.Logger.Warn("session loop stopped", "gallery.loop", map[string]any{
				"session": s.id,
				"error":   err.Error(),
			})
		}
	}()

	err := s.loop.Do(ctx, func() {
		s.pages.Subscribe(s.onPagesChanged)
		s.sel.Subscribe(s.changes.Notify)
		s.pages.Start(sctx)
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("gallery: start session: %w", err)
	}

	if deps.Used != nil {
		if err := s.SyncUsed(ctx); err != nil {
			deps.Logger.Debug("initial used sync failed", "gallery.open", map[string]any{"error": err.Error()})
		}
	}

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Close stops the loop and abandons outstanding work.
func (s *Session) Close() {
	_ = s.loop.Do(context.Background(), func() {
		s.pages.Close()
		s.prefetch.Close()
	})
	s.cancel()
	s.loop.Close()
}

// Done is closed once the session loop has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.loop.Done()
}

// Subscribe registers fn to run on the session loop after every observable
// change. fn must not call back into blocking Session methods.
func (s *Session) Subscribe(fn func()) notify.Handle {
	return s.changes.Subscribe(fn)
}

// Unsubscribe removes a subscription.
func (s *Session) Unsubscribe(h notify.Handle) bool {
	return s.changes.Unsubscribe(h)
}

// onPagesChanged runs on the loop after every pagination change.
func (s *Session) onPagesChanged() {
	items := s.pages.Items()
	s.groups = s.grouper.Group(items, s.cfg.Now())
	s.prefetch.SetItems(items)
	s.deps.Cache.InvalidateStale(photo.NewIDSet(photo.IDs(items)...))
	// Notifies session subscribers through the selection subscription.
	s.sel.SetPhotosPreservingSelection(items)
}

// warmTail preloads thumbnails of the last page when the view nears the
// end, ahead of the hard fetch.
func (s *Session) warmTail() {
	items := s.pages.Items()
	n := s.pages.PageSize()
	if n > len(items) {
		n = len(items)
	}
	if n == 0 {
		return
	}
	tail := items[len(items)-n:]
	keys := make([]thumbcache.Key, len(tail))
	for i, p := range tail {
		keys[i] = s.keyFor(p.ID)
	}
	go s.deps.Cache.Preload(s.ctx, keys)
}

func (s *Session) keyFor(id string) thumbcache.Key {
	return thumbcache.Key{
		PhotoID: id,
		Width:   s.cfg.Prefetch.Width,
		Height:  s.cfg.Prefetch.Height,
		Quality: s.cfg.Prefetch.Quality,
	}
}

// View builds the current view model.
func (s *Session) View(ctx context.Context) (ViewModel, error) {
	var vm ViewModel
	err := s.loop.Do(ctx, func() {
		vm = s.view()
	})
	return vm, err
}

func (s *Session) view() ViewModel {
	st := s.pages.State()
	vm := ViewModel{
		SessionID:       s.id,
		Groups:          timeline.AttachSkeletons(s.groups, st.SkeletonPages),
		SelectedIDs:     s.sel.SelectedIDs(),
		SelectedCount:   s.sel.SelectedCount(),
		MaxSelection:    s.sel.MaxSelection(),
		DateRestriction: s.sel.DateRestrictionEnabled(),
		HasMore:         st.HasMore,
		IsLoadingMore:   st.IsLoadingMore,
		SkeletonPages:   st.SkeletonPages,
		Total:           len(st.Items),
	}
	if day, ok := s.sel.LockDay(); ok {
		vm.LockDay = &day
	}
	if vm.DateRestriction {
		vm.DimmedIDs = dimmedIDs(st.Items, vm.SelectedIDs)
	}
	return vm
}

// dimmedIDs lists the photos off the selected day, in list order.
func dimmedIDs(items []photo.Descriptor, selected []string) []string {
	day, ok := timeline.SelectedDay(items, selected)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range items {
		if timeline.Dimmed(p, day, ok) {
			out = append(out, p.ID)
		}
	}
	return out
}

// Scroll feeds a scroll sample to pagination and prefetch.
func (s *Session) Scroll(ctx context.Context, offset, maxExtent float64) error {
	return s.loop.Do(ctx, func() {
		s.pages.OnScroll(offset, maxExtent)
		s.prefetch.Observe(offset, maxExtent)
	})
}

// Toggle flips the photo at index. It reports whether the selection changed.
func (s *Session) Toggle(ctx context.Context, index int) (bool, error) {
	var changed bool
	err := s.loop.Do(ctx, func() {
		changed = s.sel.Toggle(index)
	})
	return changed, err
}

// ToggleID flips the photo with the given id.
func (s *Session) ToggleID(ctx context.Context, id string) (bool, error) {
	var changed bool
	err := s.loop.Do(ctx, func() {
		if i, ok := s.sel.IndexOf(id); ok {
			changed = s.sel.Toggle(i)
		}
	})
	return changed, err
}

// Check explains whether the photo at index can be selected.
func (s *Session) Check(ctx context.Context, index int) (selection.Reason, error) {
	var reason selection.Reason
	err := s.loop.Do(ctx, func() {
		reason = s.sel.Check(index)
	})
	return reason, err
}

// CheckID is Check addressed by photo id.
func (s *Session) CheckID(ctx context.Context, id string) (selection.Reason, error) {
	reason := selection.ReasonOutOfRange
	err := s.loop.Do(ctx, func() {
		if i, ok := s.sel.IndexOf(id); ok {
			reason = s.sel.Check(i)
		}
	})
	return reason, err
}

// CanSelect reports whether the photo at index can be selected.
func (s *Session) CanSelect(ctx context.Context, index int) (bool, error) {
	reason, err := s.Check(ctx, index)
	return reason == selection.ReasonOK, err
}

// SetDateRestriction turns the single-day lock on or off.
func (s *Session) SetDateRestriction(ctx context.Context, enabled bool) error {
	return s.loop.Do(ctx, func() {
		s.sel.SetDateRestrictionEnabled(enabled)
	})
}

// ClearSelection deselects everything.
func (s *Session) ClearSelection(ctx context.Context) error {
	return s.loop.Do(ctx, func() {
		s.sel.Clear()
	})
}

// SelectedPhotos returns the selection in list order.
func (s *Session) SelectedPhotos(ctx context.Context) ([]photo.Descriptor, error) {
	var out []photo.Descriptor
	err := s.loop.Do(ctx, func() {
		out = s.sel.SelectedPhotos()
	})
	return out, err
}

// InjectCapture adds a freshly captured photo to the head of the list and
// selects it if the selection gates allow. It reports whether it ended up
// selected.
func (s *Session) InjectCapture(ctx context.Context, p photo.Descriptor) (bool, error) {
	var selected bool
	err := s.loop.Do(ctx, func() {
		s.pages.Prepend(p)
		selected = s.sel.InjectAndAutoSelect(p)
	})
	return selected, err
}

// MarkUsed adds ids to the used set, typically after a diary entry was
// saved, and clears the selection.
func (s *Session) MarkUsed(ctx context.Context, ids []string) error {
	return s.loop.Do(ctx, func() {
		s.sel.AddUsedIDs(ids...)
		s.sel.Clear()
	})
}

// ReleaseUsed makes ids selectable again, typically after a diary entry was
// deleted.
func (s *Session) ReleaseUsed(ctx context.Context, ids []string) error {
	return s.loop.Do(ctx, func() {
		s.sel.RemoveUsedIDs(ids...)
	})
}

// SyncUsed reloads the used set from the provider. The provider call runs
// off the loop.
func (s *Session) SyncUsed(ctx context.Context) error {
	if s.deps.Used == nil {
		return nil
	}
	ids, err := s.deps.Used.CurrentUsedIDs(ctx)
	if err != nil {
		s.deps.Logger.Warn("failed to load used photo ids", "gallery.sync_used", map[string]any{
			"session": s.id,
			"error":   err.Error(),
		})
		return err
	}
	return s.loop.Do(ctx, func() {
		s.sel.SetUsedIDs(ids)
	})
}

// Refresh reloads the list from the first page and re-pulls the used set.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.loop.Do(ctx, func() {
		s.prefetch.Reset()
		s.pages.Refresh(s.ctx)
	}); err != nil {
		return err
	}
	return s.SyncUsed(ctx)
}
