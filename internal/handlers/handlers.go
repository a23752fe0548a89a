package handlers

import (
	"context"
	"time"

	"github.com/gorilla/mux"

	"photo-journal/internal/database"
	"photo-journal/internal/gallery"
	"photo-journal/internal/indexer"
	"photo-journal/internal/metrics"
	"photo-journal/internal/startup"
	"photo-journal/internal/thumbcache"
)

// Store is the persistence the API writes through.
type Store interface {
	UpsertPhotos(ctx context.Context, records []database.PhotoRecord) (int64, error)
	CreateEntry(ctx context.Context, photoIDs []string) (string, error)
	DeleteEntry(ctx context.Context, id string) ([]string, error)
	ListEntries(ctx context.Context) ([]database.Entry, error)
	LastIndexRun(ctx context.Context) (time.Time, error)
	Ping(ctx context.Context) error
	GetStats() metrics.Stats
}

// Thumbnails serves encoded thumbnails.
type Thumbnails interface {
	Get(ctx context.Context, key thumbcache.Key) ([]byte, error)
}

// IndexStatus reports indexer progress for the health check.
type IndexStatus interface {
	IsIndexing() bool
	LastResult() (indexer.Result, time.Time)
}

type Handlers struct {
	session   *gallery.Session
	store     Store
	thumbs    Thumbnails
	index     IndexStatus
	events    *EventHub
	photoDir  string
	thumbSize int
	quality   int
	startTime time.Time
}

func New(session *gallery.Session, store Store, thumbs Thumbnails, index IndexStatus, config *startup.Config) *Handlers {
	return &Handlers{
		session:   session,
		store:     store,
		thumbs:    thumbs,
		index:     index,
		events:    NewEventHub(session),
		photoDir:  config.PhotoDir,
		thumbSize: config.ThumbnailSize,
		quality:   config.ThumbnailQuality,
		startTime: time.Now(),
	}
}

// Events returns the websocket hub. Its Run loop must be started by the
// caller.
func (h *Handlers) Events() *EventHub {
	return h.events
}

// RegisterRoutes mounts every API route on r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods("GET", "HEAD")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.GetVersion).Methods("GET")

	api.HandleFunc("/timeline", h.GetTimeline).Methods("GET")
	api.HandleFunc("/scroll", h.Scroll).Methods("POST")
	api.HandleFunc("/refresh", h.Refresh).Methods("POST")

	api.HandleFunc("/selection", h.GetSelection).Methods("GET")
	api.HandleFunc("/selection/toggle", h.ToggleSelection).Methods("POST")
	api.HandleFunc("/selection/check", h.CheckSelection).Methods("GET")
	api.HandleFunc("/selection/date-restriction", h.SetDateRestriction).Methods("POST")
	api.HandleFunc("/selection/clear", h.ClearSelection).Methods("POST")

	api.HandleFunc("/entries", h.ListEntries).Methods("GET")
	api.HandleFunc("/entries", h.CreateEntry).Methods("POST")
	api.HandleFunc("/entries/{id}", h.DeleteEntry).Methods("DELETE")

	api.HandleFunc("/capture", h.Capture).Methods("POST")
	api.HandleFunc("/thumbnail/{id}", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/events", h.events.ServeWS).Methods("GET")
}

func (h *Handlers) thumbnailKey(id string) thumbcache.Key {
	return thumbcache.Key{
		PhotoID: id,
		Width:   h.thumbSize,
		Height:  h.thumbSize,
		Quality: h.quality,
	}
}
