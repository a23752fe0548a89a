package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"photo-journal/internal/database"
	"photo-journal/internal/filesystem"
	"photo-journal/internal/indexer"
	"photo-journal/internal/logging"
	"photo-journal/internal/mediatypes"
	"photo-journal/internal/photo"
)

var errOutsideLibrary = errors.New("path is outside the photo directory")

// CaptureRequest registers a photo that was just written into the library.
// Path is relative to the photo directory. CapturedAt defaults to the file
// modification time; an explicit value is pinned so later index runs keep
// it.
type CaptureRequest struct {
	Path       string     `json:"path"`
	CapturedAt *time.Time `json:"capturedAt,omitempty"`
}

// CaptureResponse reports the stored descriptor and whether it was
// auto-selected.
type CaptureResponse struct {
	Photo    photo.Descriptor `json:"photo"`
	Selected bool             `json:"selected"`
}

// Capture stores a freshly taken photo, puts it at the head of the
// timeline and selects it if the selection gates allow.
func (h *Handlers) Capture(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	full, rel, err := resolveLibraryPath(h.photoDir, req.Path)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !mediatypes.IsPhoto(full) {
		writeJSONError(w, "unsupported photo format", http.StatusUnsupportedMediaType)
		return
	}

	info, err := filesystem.StatWithRetry(full, filesystem.DefaultRetryConfig())
	if errors.Is(err, os.ErrNotExist) {
		writeJSONError(w, "photo not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("failed to stat captured photo %s: %v", full, err)
		writeJSONError(w, "failed to read photo", http.StatusInternalServerError)
		return
	}
	if !info.Mode().IsRegular() {
		writeJSONError(w, "not a regular file", http.StatusBadRequest)
		return
	}

	capturedAt := info.ModTime()
	if req.CapturedAt != nil {
		capturedAt = *req.CapturedAt
	}
	record := database.PhotoRecord{
		ID:            indexer.PhotoID(rel),
		Path:          full,
		CapturedAt:    capturedAt,
		Size:          info.Size(),
		MimeType:      mediatypes.MimeType(mediatypes.FormatOf(full)),
		CapturePinned: req.CapturedAt != nil,
	}

	ctx := r.Context()
	if _, err := h.store.UpsertPhotos(ctx, []database.PhotoRecord{record}); err != nil {
		logging.Error("failed to store captured photo %s: %v", rel, err)
		writeJSONError(w, "failed to store photo", http.StatusInternalServerError)
		return
	}

	d := photo.Descriptor{ID: record.ID, CapturedAt: record.CapturedAt}
	selected, err := h.session.InjectCapture(ctx, d)
	if err != nil {
		sessionError(w, r, "capture", err)
		return
	}

	logging.Debug("Captured %s as %s (selected=%v)", rel, d.ID, selected)
	writeJSONData(w, http.StatusCreated, CaptureResponse{Photo: d, Selected: selected})
}

// resolveLibraryPath returns the absolute and root-relative forms of p,
// which may be relative to root or absolute inside it.
func resolveLibraryPath(root, p string) (full, rel string, err error) {
	if p == "" {
		return "", "", errors.New("path is required")
	}
	root = filepath.Clean(root)
	if filepath.IsAbs(p) {
		rel, err = filepath.Rel(root, filepath.Clean(p))
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", errOutsideLibrary, err)
		}
	} else {
		rel = filepath.Clean(p)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", "", errOutsideLibrary
	}
	return filepath.Join(root, rel), rel, nil
}
