package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"photo-journal/internal/database"
	"photo-journal/internal/gallery"
	"photo-journal/internal/indexer"
	"photo-journal/internal/logging"
	"photo-journal/internal/media"
	"photo-journal/internal/metrics"
	"photo-journal/internal/pagination"
	"photo-journal/internal/photo"
	"photo-journal/internal/startup"
	"photo-journal/internal/thumbcache"
)

var refNow = time.Date(2026, time.May, 20, 18, 0, 0, 0, time.UTC)

// =============================================================================
// Fakes
// =============================================================================

type fakeStore struct {
	mu       sync.Mutex
	upserted []database.PhotoRecord
	entries  map[string][]string
	nextID   int
	pingErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string][]string)}
}

func (s *fakeStore) UpsertPhotos(_ context.Context, records []database.PhotoRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted = append(s.upserted, records...)
	return int64(len(records)), nil
}

func (s *fakeStore) CreateEntry(_ context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", database.ErrEmptyEntry
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("e%d", s.nextID)
	s.entries[id] = append([]string(nil), ids...)
	return id, nil
}

func (s *fakeStore) DeleteEntry(_ context.Context, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.entries[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	delete(s.entries, id)
	return ids, nil
}

func (s *fakeStore) ListEntries(context.Context) ([]database.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []database.Entry
	for id, ids := range s.entries {
		out = append(out, database.Entry{ID: id, PhotoIDs: ids})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) LastIndexRun(context.Context) (time.Time, error) {
	return time.Time{}, nil
}

func (s *fakeStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pingErr
}

func (s *fakeStore) GetStats() metrics.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return metrics.Stats{TotalPhotos: 30, UsedPhotos: 2, DiaryEntries: len(s.entries)}
}

type fakeThumbs struct {
	mu      sync.Mutex
	data    map[string][]byte
	errs    map[string]error
	lastKey thumbcache.Key
}

func (f *fakeThumbs) Get(_ context.Context, key thumbcache.Key) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastKey = key
	if err, ok := f.errs[key.PhotoID]; ok {
		return nil, err
	}
	if d, ok := f.data[key.PhotoID]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("thumbcache: decode %s: %w", key, database.ErrNotFound)
}

type fakeIndex struct{}

func (fakeIndex) IsIndexing() bool { return false }

func (fakeIndex) LastResult() (indexer.Result, time.Time) {
	return indexer.Result{Photos: 30}, refNow
}

type memorySource struct {
	library []photo.Descriptor
}

func (m *memorySource) FetchPage(_ context.Context, _, _ time.Time, offset, limit int) ([]photo.Descriptor, error) {
	if offset >= len(m.library) {
		return nil, nil
	}
	hi := offset + limit
	if hi > len(m.library) {
		hi = len(m.library)
	}
	return append([]photo.Descriptor(nil), m.library[offset:hi]...), nil
}

// =============================================================================
// Environment
// =============================================================================

type testEnv struct {
	store    *fakeStore
	thumbs   *fakeThumbs
	session  *gallery.Session
	handlers *Handlers
	router   *mux.Router
	photoDir string
}

func newTestEnv(t *testing.T, n int) *testEnv {
	t.Helper()

	lib := make([]photo.Descriptor, n)
	for i := range lib {
		lib[i] = photo.Descriptor{ID: fmt.Sprintf("p%02d", i+1), CapturedAt: refNow.Add(-time.Duration(i) * 3 * time.Hour)}
	}

	cache, err := thumbcache.New(photo.DecoderFunc(func(_ context.Context, id string, _, _, _ int) ([]byte, error) {
		return []byte(id), nil
	}), thumbcache.Options{Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("thumbcache.New: %v", err)
	}
	t.Cleanup(cache.Close)

	store := newFakeStore()
	session, err := gallery.Open(context.Background(), gallery.Deps{
		Source: &memorySource{library: lib},
		Used:   nil,
		Cache:  cache,
		Logger: logging.Discard(),
	}, gallery.Config{
		Pagination: pagination.Options{PageSize: 20, SkeletonDebounce: 20 * time.Millisecond},
		Now:        func() time.Time { return refNow },
	})
	if err != nil {
		t.Fatalf("gallery.Open: %v", err)
	}
	t.Cleanup(session.Close)

	env := &testEnv{
		store:    store,
		thumbs:   &fakeThumbs{data: map[string][]byte{}, errs: map[string]error{}},
		session:  session,
		photoDir: t.TempDir(),
	}
	env.handlers = New(session, store, env.thumbs, fakeIndex{}, &startup.Config{
		PhotoDir:         env.photoDir,
		ThumbnailSize:    64,
		ThumbnailQuality: 70,
	})
	env.router = mux.NewRouter()
	env.handlers.RegisterRoutes(env.router)

	env.waitForView(t, func(vm gallery.ViewModel) bool { return !vm.IsLoadingMore && vm.Total > 0 })
	return env
}

func (env *testEnv) waitForView(t *testing.T, cond func(gallery.ViewModel) bool) gallery.ViewModel {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		vm, err := env.session.View(context.Background())
		if err != nil {
			t.Fatalf("View: %v", err)
		}
		if cond(vm) {
			return vm
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not reached, last view: total=%d", vm.Total)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (env *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func (env *testEnv) toggle(t *testing.T, id string) ToggleResponse {
	t.Helper()
	rr := env.do(t, "POST", "/api/selection/toggle", fmt.Sprintf(`{"id":%q}`, id))
	if rr.Code != http.StatusOK {
		t.Fatalf("toggle %s: status %d body %s", id, rr.Code, rr.Body.String())
	}
	return decodeBody[ToggleResponse](t, rr)
}

// =============================================================================
// Health and version
// =============================================================================

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, 5)

	rr := env.do(t, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	resp := decodeBody[HealthResponse](t, rr)
	if resp.Status != statusHealthy {
		t.Errorf("Expected status %s, got %s", statusHealthy, resp.Status)
	}
	if resp.TotalPhotos != 30 || resp.IndexedCount != 30 || resp.LastIndexed == "" {
		t.Errorf("unexpected health payload: %+v", resp)
	}

	env.store.mu.Lock()
	env.store.pingErr = errors.New("disk gone")
	env.store.mu.Unlock()

	rr = env.do(t, "GET", "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", rr.Code)
	}
	resp = decodeBody[HealthResponse](t, rr)
	if resp.Status != statusDegraded || resp.Error != "disk gone" {
		t.Errorf("unexpected degraded payload: %+v", resp)
	}
}

func TestLivenessCheck(t *testing.T) {
	env := newTestEnv(t, 1)

	rr := env.do(t, "GET", "/livez", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "alive") {
		t.Errorf("GET /livez = %d %q", rr.Code, rr.Body.String())
	}

	rr = env.do(t, "HEAD", "/livez", "")
	if rr.Code != http.StatusOK || rr.Body.Len() != 0 {
		t.Errorf("HEAD /livez should have no body, got %q", rr.Body.String())
	}
}

func TestGetVersion(t *testing.T) {
	env := newTestEnv(t, 1)

	rr := env.do(t, "GET", "/api/version", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	info := decodeBody[startup.BuildInfo](t, rr)
	if info.Version != startup.Version {
		t.Errorf("Expected version %s, got %s", startup.Version, info.Version)
	}
}

// =============================================================================
// Timeline
// =============================================================================

func TestGetTimeline(t *testing.T) {
	env := newTestEnv(t, 30)

	rr := env.do(t, "GET", "/api/timeline", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	vm := decodeBody[gallery.ViewModel](t, rr)
	if vm.Total != 20 || !vm.HasMore {
		t.Errorf("expected first page of 20 with more, got total=%d hasMore=%v", vm.Total, vm.HasMore)
	}
	if len(vm.Groups) == 0 || vm.Groups[0].Photos[0].ID != "p01" {
		t.Errorf("expected p01 first, got %+v", vm.Groups)
	}
}

func TestScroll(t *testing.T) {
	env := newTestEnv(t, 30)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid sample", `{"offset":100,"maxExtent":2000}`, http.StatusOK},
		{"negative offset", `{"offset":-1,"maxExtent":2000}`, http.StatusBadRequest},
		{"malformed", `{"offset":`, http.StatusBadRequest},
		{"unknown field", `{"position":3}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := env.do(t, "POST", "/api/scroll", tt.body); rr.Code != tt.want {
				t.Errorf("POST /api/scroll %s = %d, want %d", tt.body, rr.Code, tt.want)
			}
		})
	}
}

func TestScrollNearEndLoadsNextPage(t *testing.T) {
	env := newTestEnv(t, 30)

	if rr := env.do(t, "POST", "/api/scroll", `{"offset":1950,"maxExtent":2000}`); rr.Code != http.StatusOK {
		t.Fatalf("scroll: %d", rr.Code)
	}
	env.waitForView(t, func(vm gallery.ViewModel) bool { return vm.Total == 30 })
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t, 5)

	rr := env.do(t, "POST", "/api/refresh", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	env.waitForView(t, func(vm gallery.ViewModel) bool { return !vm.IsLoadingMore && vm.Total == 5 })
}

// =============================================================================
// Selection
// =============================================================================

func TestToggleSelection(t *testing.T) {
	env := newTestEnv(t, 10)

	if got := env.toggle(t, "p01"); !got.Changed || !got.Selected || got.Reason != "" {
		t.Errorf("select p01: %+v", got)
	}
	if got := env.toggle(t, "p01"); !got.Changed || got.Selected {
		t.Errorf("deselect p01: %+v", got)
	}
	if got := env.toggle(t, "missing"); got.Changed || got.Reason != "out_of_range" {
		t.Errorf("toggle unknown id: %+v", got)
	}

	rr := env.do(t, "POST", "/api/selection/toggle", `{"index":1}`)
	got := decodeBody[ToggleResponse](t, rr)
	if !got.Changed || !got.Selected {
		t.Errorf("toggle by index: %+v", got)
	}

	if rr := env.do(t, "POST", "/api/selection/toggle", `{}`); rr.Code != http.StatusBadRequest {
		t.Errorf("empty toggle request = %d, want 400", rr.Code)
	}
}

func TestSelectionLimit(t *testing.T) {
	env := newTestEnv(t, 10)

	for _, id := range []string{"p01", "p02", "p03"} {
		env.toggle(t, id)
	}
	if got := env.toggle(t, "p04"); got.Changed || got.Reason != "limit_reached" {
		t.Errorf("fourth selection: %+v", got)
	}

	sel := decodeBody[SelectionResponse](t, env.do(t, "GET", "/api/selection", ""))
	if sel.SelectedCount != 3 || sel.MaxSelection != 3 {
		t.Errorf("unexpected selection: %+v", sel)
	}
	if ids := photo.IDs(sel.Photos); strings.Join(ids, ",") != "p01,p02,p03" {
		t.Errorf("expected list order, got %v", ids)
	}
}

func TestCheckSelection(t *testing.T) {
	env := newTestEnv(t, 5)

	if rr := env.do(t, "GET", "/api/selection/check", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("check without id = %d, want 400", rr.Code)
	}

	got := decodeBody[CheckResponse](t, env.do(t, "GET", "/api/selection/check?id=p02", ""))
	if !got.CanSelect || got.Reason != "ok" {
		t.Errorf("check p02: %+v", got)
	}

	env.toggle(t, "p02")
	got = decodeBody[CheckResponse](t, env.do(t, "GET", "/api/selection/check?id=p02", ""))
	if got.CanSelect || got.Reason != "already_selected" {
		t.Errorf("check selected p02: %+v", got)
	}
}

func TestDateRestrictionNarrowsSelection(t *testing.T) {
	env := newTestEnv(t, 12)

	// p01 is on May 20 and p10 is 27 hours earlier, on May 19.
	env.toggle(t, "p01")
	env.toggle(t, "p10")

	rr := env.do(t, "POST", "/api/selection/date-restriction", `{"enabled":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	sel := decodeBody[SelectionResponse](t, rr)
	if !sel.DateRestriction || sel.SelectedCount != 1 || sel.Photos[0].ID != "p01" {
		t.Errorf("expected only p01 kept, got %+v", sel)
	}
	if sel.LockDay == nil || sel.LockDay.Day != 20 {
		t.Errorf("expected lock on May 20, got %v", sel.LockDay)
	}

	if got := env.toggle(t, "p10"); got.Changed || got.Reason != "wrong_day" {
		t.Errorf("other day while locked: %+v", got)
	}
}

func TestClearSelection(t *testing.T) {
	env := newTestEnv(t, 5)
	env.toggle(t, "p01")

	sel := decodeBody[SelectionResponse](t, env.do(t, "POST", "/api/selection/clear", ""))
	if sel.SelectedCount != 0 || len(sel.Photos) != 0 {
		t.Errorf("selection not cleared: %+v", sel)
	}
}

// =============================================================================
// Entries
// =============================================================================

func TestCreateEntryFromSelection(t *testing.T) {
	env := newTestEnv(t, 5)
	env.toggle(t, "p02")
	env.toggle(t, "p01")

	rr := env.do(t, "POST", "/api/entries", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	entry := decodeBody[EntryResponse](t, rr)
	if strings.Join(entry.PhotoIDs, ",") != "p01,p02" {
		t.Errorf("expected list order p01,p02, got %v", entry.PhotoIDs)
	}

	sel := decodeBody[SelectionResponse](t, env.do(t, "GET", "/api/selection", ""))
	if sel.SelectedCount != 0 {
		t.Errorf("selection should be cleared after saving, got %d", sel.SelectedCount)
	}
	check := decodeBody[CheckResponse](t, env.do(t, "GET", "/api/selection/check?id=p01", ""))
	if check.Reason != "used" {
		t.Errorf("p01 should be used, got %s", check.Reason)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	env := newTestEnv(t, 5)

	if rr := env.do(t, "POST", "/api/entries", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("empty selection = %d, want 400", rr.Code)
	}
	if rr := env.do(t, "POST", "/api/entries", `{"photoIds":`); rr.Code != http.StatusBadRequest {
		t.Errorf("malformed body = %d, want 400", rr.Code)
	}

	rr := env.do(t, "POST", "/api/entries", `{"photoIds":["p03"]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("explicit ids = %d, want 201", rr.Code)
	}
}

func TestDeleteEntryReleasesPhotos(t *testing.T) {
	env := newTestEnv(t, 5)

	entry := decodeBody[EntryResponse](t, env.do(t, "POST", "/api/entries", `{"photoIds":["p01"]}`))

	rr := env.do(t, "DELETE", "/api/entries/"+entry.ID, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rr.Code)
	}
	check := decodeBody[CheckResponse](t, env.do(t, "GET", "/api/selection/check?id=p01", ""))
	if !check.CanSelect {
		t.Errorf("p01 should be selectable again, got %s", check.Reason)
	}

	if rr := env.do(t, "DELETE", "/api/entries/"+entry.ID, ""); rr.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", rr.Code)
	}
}

func TestListEntries(t *testing.T) {
	env := newTestEnv(t, 5)

	rr := env.do(t, "GET", "/api/entries", "")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("expected empty list, got %q", rr.Body.String())
	}

	env.do(t, "POST", "/api/entries", `{"photoIds":["p01","p02"]}`)
	entries := decodeBody[[]database.Entry](t, env.do(t, "GET", "/api/entries", ""))
	if len(entries) != 1 || len(entries[0].PhotoIDs) != 2 {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

// =============================================================================
// Capture
// =============================================================================

func TestCapture(t *testing.T) {
	env := newTestEnv(t, 5)
	if err := os.WriteFile(filepath.Join(env.photoDir, "new.jpg"), []byte("jpeg"), 0o600); err != nil {
		t.Fatal(err)
	}

	rr := env.do(t, "POST", "/api/capture", `{"path":"new.jpg","capturedAt":"2026-05-20T19:00:00Z"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[CaptureResponse](t, rr)
	wantID := indexer.PhotoID("new.jpg")
	if resp.Photo.ID != wantID || !resp.Selected {
		t.Errorf("unexpected capture response: %+v", resp)
	}

	env.store.mu.Lock()
	if len(env.store.upserted) != 1 || env.store.upserted[0].MimeType != "image/jpeg" {
		t.Errorf("unexpected upserts: %+v", env.store.upserted)
	} else if rec := env.store.upserted[0]; !rec.CapturePinned || !rec.CapturedAt.Equal(time.Date(2026, 5, 20, 19, 0, 0, 0, time.UTC)) {
		t.Errorf("explicit capture time should be stored pinned, got %+v", rec)
	}
	env.store.mu.Unlock()

	vm := env.waitForView(t, func(vm gallery.ViewModel) bool { return vm.Total == 6 })
	if vm.Groups[0].Photos[0].ID != wantID {
		t.Errorf("captured photo should lead the timeline, got %s", vm.Groups[0].Photos[0].ID)
	}

	if err := os.WriteFile(filepath.Join(env.photoDir, "plain.jpg"), []byte("jpeg"), 0o600); err != nil {
		t.Fatal(err)
	}
	if rr := env.do(t, "POST", "/api/capture", `{"path":"plain.jpg"}`); rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	env.store.mu.Lock()
	if rec := env.store.upserted[len(env.store.upserted)-1]; rec.CapturePinned {
		t.Errorf("modification time must not be pinned: %+v", rec)
	}
	env.store.mu.Unlock()
}

func TestCaptureErrors(t *testing.T) {
	env := newTestEnv(t, 1)
	if err := os.WriteFile(filepath.Join(env.photoDir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing path", `{}`, http.StatusBadRequest},
		{"escapes library", `{"path":"../outside.jpg"}`, http.StatusBadRequest},
		{"not a photo", `{"path":"notes.txt"}`, http.StatusUnsupportedMediaType},
		{"file missing", `{"path":"gone.jpg"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := env.do(t, "POST", "/api/capture", tt.body); rr.Code != tt.want {
				t.Errorf("capture %s = %d, want %d", tt.body, rr.Code, tt.want)
			}
		})
	}
}

func TestResolveLibraryPath(t *testing.T) {
	root := filepath.FromSlash("/photos")
	tests := []struct {
		in      string
		wantRel string
		wantErr bool
	}{
		{"a.jpg", "a.jpg", false},
		{"trip/b.jpg", filepath.FromSlash("trip/b.jpg"), false},
		{filepath.FromSlash("/photos/trip/c.jpg"), filepath.FromSlash("trip/c.jpg"), false},
		{"trip/../d.jpg", "d.jpg", false},
		{"../e.jpg", "", true},
		{filepath.FromSlash("/elsewhere/f.jpg"), "", true},
		{".", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		full, rel, err := resolveLibraryPath(root, tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("resolveLibraryPath(%q) = %q, want error", tt.in, rel)
			}
			continue
		}
		if err != nil || rel != tt.wantRel || full != filepath.Join(root, tt.wantRel) {
			t.Errorf("resolveLibraryPath(%q) = %q, %q, %v", tt.in, full, rel, err)
		}
	}
}

// =============================================================================
// Thumbnails
// =============================================================================

func TestGetThumbnail(t *testing.T) {
	env := newTestEnv(t, 1)
	env.thumbs.data["p01"] = []byte("jpeg-bytes")

	rr := env.do(t, "GET", "/api/thumbnail/p01", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %s", ct)
	}
	if rr.Body.String() != "jpeg-bytes" {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
	if key := env.thumbs.lastKey; key.Width != 64 || key.Height != 64 || key.Quality != 70 {
		t.Errorf("thumbnail key not built from config: %+v", key)
	}
}

func TestThumbnailErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("resolve: %w", database.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("decode: %w", media.ErrUnsupported), http.StatusUnsupportedMediaType},
		{fmt.Errorf("decode: %w", media.ErrTooLarge), http.StatusUnprocessableEntity},
		{thumbcache.ErrClosed, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := thumbnailErrorStatus(tt.err); got != tt.want {
			t.Errorf("thumbnailErrorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestGetThumbnailNotFound(t *testing.T) {
	env := newTestEnv(t, 1)

	if rr := env.do(t, "GET", "/api/thumbnail/nope", ""); rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}
