package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"photo-journal/internal/database"
	"photo-journal/internal/logging"
	"photo-journal/internal/media"
	"photo-journal/internal/thumbcache"
)

// GetThumbnail serves the grid thumbnail of a photo through the cache, so
// prefetched thumbnails are answered without decoding.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data, err := h.thumbs.Get(r.Context(), h.thumbnailKey(id))
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		status, message := thumbnailErrorStatus(err)
		if status == http.StatusInternalServerError {
			logging.Error("Failed to get thumbnail for %s: %v", id, err)
		}
		writeJSONError(w, message, status)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := w.Write(data); err != nil {
		logging.Debug("thumbnail write for %s aborted: %v", id, err)
	}
}

func thumbnailErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, "photo not found"
	case errors.Is(err, media.ErrUnsupported):
		return http.StatusUnsupportedMediaType, "format not supported"
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusUnprocessableEntity, "image too large"
	case errors.Is(err, thumbcache.ErrClosed):
		return http.StatusServiceUnavailable, "thumbnail cache closed"
	default:
		return http.StatusInternalServerError, "failed to generate thumbnail"
	}
}
