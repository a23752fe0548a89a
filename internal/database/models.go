package database

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a photo or entry id does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmptyEntry is returned when creating an entry with no photos.
var ErrEmptyEntry = errors.New("diary entry needs at least one photo")

// PhotoRecord is one indexed library file.
type PhotoRecord struct {
	ID         string    `json:"id"`
	Path       string    `json:"-"`
	CapturedAt time.Time `json:"capturedAt"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType,omitempty"`

	// CapturePinned marks CapturedAt as reported by the camera at capture
	// time. Later upserts without the flag keep the pinned time.
	CapturePinned bool `json:"capturePinned,omitempty"`
}

// Entry is a diary entry and the photos it holds, in selection order.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	PhotoIDs  []string  `json:"photoIds"`
}
