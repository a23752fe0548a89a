package selection

import (
	"context"

	"photo-journal/internal/logging"
	"photo-journal/internal/notify"
	"photo-journal/internal/photo"
)

// DefaultMaxSelection is the number of photos a diary entry can hold.
const DefaultMaxSelection = 3

// Reason explains why a photo can or cannot be selected.
type Reason int

const (
	// ReasonOK means the photo can be selected.
	ReasonOK Reason = iota
	// ReasonOutOfRange means the index does not address a photo.
	ReasonOutOfRange
	// ReasonAlreadySelected means the photo is selected; toggling it deselects.
	ReasonAlreadySelected
	// ReasonUsed means a diary entry already references the photo.
	ReasonUsed
	// ReasonLimitReached means the selection is full.
	ReasonLimitReached
	// ReasonWrongDay means the photo is not on the locked day.
	ReasonWrongDay
)

func (r Reason) String() string {
	switch r {
	case ReasonOK:
		return "ok"
	case ReasonOutOfRange:
		return "out_of_range"
	case ReasonAlreadySelected:
		return "already_selected"
	case ReasonUsed:
		return "used"
	case ReasonLimitReached:
		return "limit_reached"
	case ReasonWrongDay:
		return "wrong_day"
	default:
		return "unknown"
	}
}

// Observer records selection outcomes.
type Observer interface {
	ObserveToggle(outcome string)
}

// Options configures a State.
type Options struct {
	// MaxSelection caps the selection size (0 = DefaultMaxSelection).
	MaxSelection int
	// DateRestriction locks selection to a single calendar day.
	DateRestriction bool
	// Logger receives provider failures (nil = logging.Default()).
	Logger logging.Logger
	// Observer is optional.
	Observer Observer
}

// State is the photo selection state machine for one picking session. It is
// not safe for concurrent use; all calls come from the owner loop.
type State struct {
	photos []photo.Descriptor
	index  map[string]int

	selected photo.IDSet
	used     photo.IDSet

	max             int
	dateRestriction bool
	lockDay         photo.Day
	locked          bool

	changes  notify.Broadcaster
	logger   logging.Logger
	observer Observer
}

// New creates an empty selection state.
func New(opts Options) *State {
	if opts.MaxSelection <= 0 {
		opts.MaxSelection = DefaultMaxSelection
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &State{
		index:           make(map[string]int),
		selected:        make(photo.IDSet),
		used:            make(photo.IDSet),
		max:             opts.MaxSelection,
		dateRestriction: opts.DateRestriction,
		logger:          opts.Logger,
		observer:        opts.Observer,
	}
}

// Subscribe registers fn to be called after every observable change.
func (s *State) Subscribe(fn func()) notify.Handle {
	return s.changes.Subscribe(fn)
}

// Unsubscribe removes a subscription.
func (s *State) Unsubscribe(h notify.Handle) bool {
	return s.changes.Unsubscribe(h)
}

// SetPhotos replaces the photo list and clears the selection.
func (s *State) SetPhotos(list []photo.Descriptor) {
	s.replacePhotos(list)
	s.selected = make(photo.IDSet)
	s.recomputeLock()
	s.changes.Notify()
}

// SetPhotosPreservingSelection replaces the photo list and keeps every
// selected id that is still present. Ids that disappeared are dropped.
func (s *State) SetPhotosPreservingSelection(list []photo.Descriptor) {
	s.replacePhotos(list)
	for id := range s.selected {
		if _, ok := s.index[id]; !ok {
			delete(s.selected, id)
		}
	}
	s.recomputeLock()
	s.changes.Notify()
}

// replacePhotos copies list, dropping repeated ids, and rebuilds the index.
func (s *State) replacePhotos(list []photo.Descriptor) {
	photos := make([]photo.Descriptor, 0, len(list))
	index := make(map[string]int, len(list))
	for _, p := range list {
		if _, dup := index[p.ID]; dup {
			continue
		}
		index[p.ID] = len(photos)
		photos = append(photos, p)
	}
	s.photos = photos
	s.index = index
}

// Toggle flips the selection of the photo at index. Deselection always
// succeeds; selection is subject to the used, limit and day gates. It
// reports whether the state changed.
func (s *State) Toggle(index int) bool {
	if index < 0 || index >= len(s.photos) {
		s.observe(ReasonOutOfRange.String())
		return false
	}

	id := s.photos[index].ID
	if s.selected.Has(id) {
		delete(s.selected, id)
		s.recomputeLock()
		s.observe("deselected")
		s.changes.Notify()
		return true
	}

	if reason := s.Check(index); reason != ReasonOK {
		s.observe(reason.String())
		return false
	}

	s.selected.Add(id)
	s.recomputeLock()
	s.observe("selected")
	s.changes.Notify()
	return true
}

// CanSelect reports whether Toggle(index) would add the photo.
func (s *State) CanSelect(index int) bool {
	return s.Check(index) == ReasonOK
}

// Check returns the gate that would reject selecting the photo at index, or
// ReasonOK.
func (s *State) Check(index int) Reason {
	if index < 0 || index >= len(s.photos) {
		return ReasonOutOfRange
	}
	return s.check(s.photos[index])
}

func (s *State) check(p photo.Descriptor) Reason {
	switch {
	case s.selected.Has(p.ID):
		return ReasonAlreadySelected
	case s.used.Has(p.ID):
		return ReasonUsed
	case len(s.selected) >= s.max:
		return ReasonLimitReached
	case s.dateRestriction && s.locked && p.Day() != s.lockDay:
		return ReasonWrongDay
	default:
		return ReasonOK
	}
}

// Clear deselects everything.
func (s *State) Clear() {
	if len(s.selected) == 0 {
		return
	}
	s.selected = make(photo.IDSet)
	s.recomputeLock()
	s.changes.Notify()
}

// SetUsedIDs replaces the used set. Photos that are already selected stay
// selected; the set only blocks new selections.
func (s *State) SetUsedIDs(ids []string) {
	next := photo.NewIDSet(ids...)
	if sameSet(next, s.used) {
		return
	}
	s.used = next
	s.changes.Notify()
}

// AddUsedIDs marks ids as used.
func (s *State) AddUsedIDs(ids ...string) {
	changed := false
	for _, id := range ids {
		if !s.used.Has(id) {
			s.used.Add(id)
			changed = true
		}
	}
	if changed {
		s.changes.Notify()
	}
}

// RemoveUsedIDs makes ids selectable again.
func (s *State) RemoveUsedIDs(ids ...string) {
	changed := false
	for _, id := range ids {
		if s.used.Has(id) {
			s.used.Remove(id)
			changed = true
		}
	}
	if changed {
		s.changes.Notify()
	}
}

// SyncUsed pulls the used set from provider. On failure the current set is
// kept and the error is returned after being logged.
func (s *State) SyncUsed(ctx context.Context, provider photo.UsedProvider) error {
	ids, err := provider.CurrentUsedIDs(ctx)
	if err != nil {
		s.logger.Warn("failed to load used photo ids", "selection.sync_used", map[string]any{"error": err.Error()})
		return err
	}
	s.SetUsedIDs(ids)
	return nil
}

// SetDateRestrictionEnabled turns the single-day lock on or off. Turning it
// off clears the lock but keeps the selection. Turning it on over a
// selection that spans several days keeps only the photos sharing the day of
// the first selected photo in list order.
func (s *State) SetDateRestrictionEnabled(enabled bool) {
	if s.dateRestriction == enabled {
		return
	}
	s.dateRestriction = enabled
	if enabled {
		s.narrowToFirstDay()
	}
	s.recomputeLock()
	s.changes.Notify()
}

func (s *State) narrowToFirstDay() {
	selected := s.SelectedPhotos()
	if len(selected) == 0 {
		return
	}
	day := selected[0].Day()
	for _, p := range selected[1:] {
		if p.Day() != day {
			delete(s.selected, p.ID)
		}
	}
}

// InjectAndAutoSelect puts a freshly captured photo at the head of the list
// and selects it if the gates allow. It reports whether the photo ended up
// selected. An existing entry with the same id is moved rather than
// duplicated.
func (s *State) InjectAndAutoSelect(p photo.Descriptor) bool {
	list := make([]photo.Descriptor, 0, len(s.photos)+1)
	list = append(list, p)
	for _, existing := range s.photos {
		if existing.ID != p.ID {
			list = append(list, existing)
		}
	}
	s.replacePhotos(list)

	selected := s.selected.Has(p.ID)
	if !selected {
		if reason := s.check(p); reason == ReasonOK {
			s.selected.Add(p.ID)
			selected = true
			s.observe("auto_selected")
		} else {
			s.observe(reason.String())
		}
	}
	s.recomputeLock()
	s.changes.Notify()
	return selected
}

// recomputeLock derives the lock day from the selection. The lock exists
// only while date restriction is on and the selection is non-empty.
func (s *State) recomputeLock() {
	s.locked = false
	s.lockDay = photo.Day{}
	if !s.dateRestriction || len(s.selected) == 0 {
		return
	}
	day, ok := sharedDay(s.SelectedPhotos())
	if ok {
		s.lockDay = day
		s.locked = true
	}
}

func (s *State) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveToggle(outcome)
	}
}

// Photos returns a copy of the current list.
func (s *State) Photos() []photo.Descriptor {
	out := make([]photo.Descriptor, len(s.photos))
	copy(out, s.photos)
	return out
}

// Len returns the number of photos in the list.
func (s *State) Len() int {
	return len(s.photos)
}

// IndexOf returns the current index of id.
func (s *State) IndexOf(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// SelectedIDs returns the selected ids in list order.
func (s *State) SelectedIDs() []string {
	return photo.IDs(s.SelectedPhotos())
}

// SelectedPhotos returns the selected descriptors in list order.
func (s *State) SelectedPhotos() []photo.Descriptor {
	out := make([]photo.Descriptor, 0, len(s.selected))
	for _, p := range s.photos {
		if s.selected.Has(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// SelectedCount returns the number of selected photos.
func (s *State) SelectedCount() int {
	return len(s.selected)
}

// IsSelected reports whether id is selected.
func (s *State) IsSelected(id string) bool {
	return s.selected.Has(id)
}

// IsUsed reports whether id is in the used set.
func (s *State) IsUsed(id string) bool {
	return s.used.Has(id)
}

// LockDay returns the locked day, if any.
func (s *State) LockDay() (photo.Day, bool) {
	return s.lockDay, s.locked
}

// DateRestrictionEnabled reports whether the single-day lock is active.
func (s *State) DateRestrictionEnabled() bool {
	return s.dateRestriction
}

// MaxSelection returns the selection cap.
func (s *State) MaxSelection() int {
	return s.max
}

func sharedDay(photos []photo.Descriptor) (photo.Day, bool) {
	if len(photos) == 0 {
		return photo.Day{}, false
	}
	day := photos[0].Day()
	for _, p := range photos[1:] {
		if p.Day() != day {
			return photo.Day{}, false
		}
	}
	return day, true
}

func sameSet(a, b photo.IDSet) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b.Has(id) {
			return false
		}
	}
	return true
}
