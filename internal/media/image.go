package media

import (
	"fmt"
	"image"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageDimension is the largest side decoded at full resolution.
	MaxImageDimension = 8192

	// MaxImagePixels caps the decoded RGBA footprint (~200MB).
	MaxImagePixels = 50_000_000
)

// ErrTooLarge is returned for images beyond MaxImagePixels.
var ErrTooLarge = fmt.Errorf("image exceeds %d pixels", MaxImagePixels)

// decodeConstrained decodes r with EXIF orientation applied. The header is
// checked first so oversized images are rejected before allocation.
func decodeConstrained(r io.ReadSeeker) (image.Image, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return nil, "", fmt.Errorf("read image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, format, fmt.Errorf("invalid image size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width > MaxImageDimension || cfg.Height > MaxImageDimension ||
		cfg.Width*cfg.Height > MaxImagePixels {
		return nil, format, fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, ErrTooLarge)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, format, fmt.Errorf("rewind: %w", err)
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, format, fmt.Errorf("decode %s: %w", format, err)
	}
	return img, format, nil
}
