package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"photo-journal/internal/database"
	"photo-journal/internal/logging"
	"photo-journal/internal/metrics"
	"photo-journal/internal/photo"
)

// CreateEntryRequest names the photos of a new entry. An empty list means
// the current selection.
type CreateEntryRequest struct {
	PhotoIDs []string `json:"photoIds,omitempty"`
}

// EntryResponse describes a stored diary entry.
type EntryResponse struct {
	ID       string   `json:"id"`
	PhotoIDs []string `json:"photoIds"`
}

// ListEntries returns every diary entry, newest first.
func (h *Handlers) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListEntries(r.Context())
	if err != nil {
		logging.Error("failed to list diary entries: %v", err)
		writeJSONError(w, "failed to list entries", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []database.Entry{}
	}
	writeJSONData(w, http.StatusOK, entries)
}

// CreateEntry stores a diary entry and marks its photos as used, which
// also clears the selection.
func (h *Handlers) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	ids := req.PhotoIDs
	if len(ids) == 0 {
		selected, err := h.session.SelectedPhotos(ctx)
		if err != nil {
			sessionError(w, r, "create entry", err)
			return
		}
		ids = photo.IDs(selected)
	}

	id, err := h.store.CreateEntry(ctx, ids)
	if errors.Is(err, database.ErrEmptyEntry) {
		writeJSONError(w, "no photos selected", http.StatusBadRequest)
		return
	}
	if err != nil {
		logging.Error("failed to create diary entry: %v", err)
		writeJSONError(w, "failed to create entry", http.StatusInternalServerError)
		return
	}
	metrics.DiaryEntriesCreated.Inc()

	if err := h.session.MarkUsed(ctx, ids); err != nil {
		// The entry is stored; the next used-set sync picks it up.
		logging.Warn("entry %s stored but session not updated: %v", id, err)
	}

	logging.Info("Created diary entry %s with %d photos", id, len(ids))
	writeJSONData(w, http.StatusCreated, EntryResponse{ID: id, PhotoIDs: ids})
}

// DeleteEntry removes an entry and makes its photos selectable again.
func (h *Handlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := r.Context()

	released, err := h.store.DeleteEntry(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		writeJSONError(w, "entry not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("failed to delete diary entry %s: %v", id, err)
		writeJSONError(w, "failed to delete entry", http.StatusInternalServerError)
		return
	}

	if err := h.session.ReleaseUsed(ctx, released); err != nil {
		logging.Warn("entry %s deleted but session not updated: %v", id, err)
	}
	w.WriteHeader(http.StatusNoContent)
}
