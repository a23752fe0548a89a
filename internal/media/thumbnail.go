package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"time"

	"photo-journal/internal/filesystem"
	"photo-journal/internal/logging"
	"photo-journal/internal/mediatypes"
	"photo-journal/internal/metrics"

	"github.com/disintegration/imaging"
)

// ErrUnsupported is returned for formats the active decode path cannot read.
var ErrUnsupported = errors.New("unsupported image format")

// PathResolver maps a photo id to its file path.
type PathResolver interface {
	PhotoPath(ctx context.Context, id string) (string, error)
}

// Decoder produces JPEG thumbnails from library files. It implements
// photo.Decoder and is safe for concurrent use.
type Decoder struct {
	paths PathResolver
	retry filesystem.RetryConfig
}

// NewDecoder creates a decoder that resolves ids through paths.
func NewDecoder(paths PathResolver) *Decoder {
	return &Decoder{paths: paths, retry: filesystem.DefaultRetryConfig()}
}

// Decode renders photo id to fit within width x height, encoded as JPEG at
// quality (clamped to 1..100).
func (d *Decoder) Decode(ctx context.Context, id string, width, height, quality int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %dx%d", width, height)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := d.paths.PhotoPath(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}
	quality = clampQuality(quality)
	format := mediatypes.FormatOf(path)

	start := time.Now()
	var data []byte
	switch {
	case IsVipsAvailable():
		data, err = thumbnailWithVips(path, width, height, quality)
	case mediatypes.NeedsVips(format):
		err = fmt.Errorf("%s without libvips: %w", format, ErrUnsupported)
	default:
		data, err = d.thumbnailWithImaging(path, width, height, quality)
	}
	if err != nil {
		return nil, err
	}

	metrics.ThumbnailImageDecodeByFormat.WithLabelValues(string(format)).Inc()
	logging.Debug("Thumbnail %s %dx%d q%d in %v (%d bytes)", id, width, height, quality, time.Since(start), len(data))
	return data, nil
}

func (d *Decoder) thumbnailWithImaging(path string, width, height, quality int) ([]byte, error) {
	f, err := filesystem.OpenWithRetry(path, d.retry)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s: %v", path, err)
		}
	}()

	img, _, err := decodeConstrained(f)
	if err != nil {
		return nil, err
	}

	thumb := imaging.Fit(img, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func clampQuality(q int) int {
	switch {
	case q < 1:
		return 1
	case q > 100:
		return 100
	default:
		return q
	}
}
