package handlers

import (
	"math"
	"net/http"
)

// ScrollRequest is one scroll sample from the client viewport.
type ScrollRequest struct {
	Offset    float64 `json:"offset"`
	MaxExtent float64 `json:"maxExtent"`
}

// GetTimeline returns the grouped view model.
func (h *Handlers) GetTimeline(w http.ResponseWriter, r *http.Request) {
	vm, err := h.session.View(r.Context())
	if err != nil {
		sessionError(w, r, "timeline", err)
		return
	}
	writeJSONData(w, http.StatusOK, vm)
}

// Scroll feeds a viewport sample to pagination and prefetch.
func (h *Handlers) Scroll(w http.ResponseWriter, r *http.Request) {
	var req ScrollRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if invalidExtent(req.Offset) || invalidExtent(req.MaxExtent) {
		writeJSONError(w, "offset and maxExtent must be finite and non-negative", http.StatusBadRequest)
		return
	}
	if err := h.session.Scroll(r.Context(), req.Offset, req.MaxExtent); err != nil {
		sessionError(w, r, "scroll", err)
		return
	}
	writeJSONStatus(w, "ok")
}

// Refresh reloads the timeline from the first page.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Refresh(r.Context()); err != nil {
		sessionError(w, r, "refresh", err)
		return
	}
	writeJSONStatus(w, "refreshing")
}

func invalidExtent(v float64) bool {
	return v < 0 || math.IsNaN(v) || math.IsInf(v, 0)
}
