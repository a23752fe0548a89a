package handlers

import (
	"net/http"

	"photo-journal/internal/photo"
	"photo-journal/internal/selection"
)

// SelectionResponse describes the current selection.
type SelectionResponse struct {
	Photos          []photo.Descriptor `json:"photos"`
	SelectedCount   int                `json:"selectedCount"`
	MaxSelection    int                `json:"maxSelection"`
	LockDay         *photo.Day         `json:"lockDay,omitempty"`
	DateRestriction bool               `json:"dateRestriction"`
}

// ToggleRequest addresses a photo by id or by list index.
type ToggleRequest struct {
	ID    string `json:"id,omitempty"`
	Index *int   `json:"index,omitempty"`
}

// ToggleResponse reports the toggle outcome. Reason is set when nothing
// changed.
type ToggleResponse struct {
	Changed  bool   `json:"changed"`
	Selected bool   `json:"selected"`
	Reason   string `json:"reason,omitempty"`
}

// CheckResponse explains whether a photo can be selected.
type CheckResponse struct {
	ID        string `json:"id"`
	CanSelect bool   `json:"canSelect"`
	Reason    string `json:"reason"`
}

// DateRestrictionRequest turns the single-day lock on or off.
type DateRestrictionRequest struct {
	Enabled bool `json:"enabled"`
}

// GetSelection returns the selected photos in list order.
func (h *Handlers) GetSelection(w http.ResponseWriter, r *http.Request) {
	h.writeSelection(w, r)
}

func (h *Handlers) writeSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	photos, err := h.session.SelectedPhotos(ctx)
	if err != nil {
		sessionError(w, r, "selection", err)
		return
	}
	vm, err := h.session.View(ctx)
	if err != nil {
		sessionError(w, r, "selection", err)
		return
	}
	writeJSONData(w, http.StatusOK, SelectionResponse{
		Photos:          photos,
		SelectedCount:   len(photos),
		MaxSelection:    vm.MaxSelection,
		LockDay:         vm.LockDay,
		DateRestriction: vm.DateRestriction,
	})
}

// ToggleSelection flips the selection of one photo.
func (h *Handlers) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" && req.Index == nil {
		writeJSONError(w, "id or index is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var (
		changed bool
		err     error
	)
	if req.ID != "" {
		changed, err = h.session.ToggleID(ctx, req.ID)
	} else {
		changed, err = h.session.Toggle(ctx, *req.Index)
	}
	if err != nil {
		sessionError(w, r, "toggle", err)
		return
	}

	var reason selection.Reason
	if req.ID != "" {
		reason, err = h.session.CheckID(ctx, req.ID)
	} else {
		reason, err = h.session.Check(ctx, *req.Index)
	}
	if err != nil {
		sessionError(w, r, "toggle", err)
		return
	}

	resp := ToggleResponse{Changed: changed, Selected: reason == selection.ReasonAlreadySelected}
	if !changed {
		resp.Reason = reason.String()
	}
	writeJSONData(w, http.StatusOK, resp)
}

// CheckSelection reports why a tap on the photo named by ?id= would be
// ignored.
func (h *Handlers) CheckSelection(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSONError(w, "id is required", http.StatusBadRequest)
		return
	}
	reason, err := h.session.CheckID(r.Context(), id)
	if err != nil {
		sessionError(w, r, "check", err)
		return
	}
	writeJSONData(w, http.StatusOK, CheckResponse{
		ID:        id,
		CanSelect: reason == selection.ReasonOK,
		Reason:    reason.String(),
	})
}

// SetDateRestriction turns the single-day lock on or off and returns the
// resulting selection.
func (h *Handlers) SetDateRestriction(w http.ResponseWriter, r *http.Request) {
	var req DateRestrictionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.session.SetDateRestriction(r.Context(), req.Enabled); err != nil {
		sessionError(w, r, "date restriction", err)
		return
	}
	h.writeSelection(w, r)
}

// ClearSelection deselects everything.
func (h *Handlers) ClearSelection(w http.ResponseWriter, r *http.Request) {
	if err := h.session.ClearSelection(r.Context()); err != nil {
		sessionError(w, r, "clear selection", err)
		return
	}
	h.writeSelection(w, r)
}
