package mediatypes

import (
	"path/filepath"
	"strings"
)

// Format names an image encoding.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatGIF     Format = "gif"
	FormatBMP     Format = "bmp"
	FormatWebP    Format = "webp"
	FormatTIFF    Format = "tiff"
	FormatHEIF    Format = "heif"
	FormatUnknown Format = "unknown"
)

// extensions maps lowercase extensions to the formats the library indexes.
var extensions = map[string]Format{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".bmp":  FormatBMP,
	".webp": FormatWebP,
	".tiff": FormatTIFF,
	".tif":  FormatTIFF,
	".heic": FormatHEIF,
	".heif": FormatHEIF,
}

var mimeTypes = map[Format]string{
	FormatJPEG: "image/jpeg",
	FormatPNG:  "image/png",
	FormatGIF:  "image/gif",
	FormatBMP:  "image/bmp",
	FormatWebP: "image/webp",
	FormatTIFF: "image/tiff",
	FormatHEIF: "image/heif",
}

// FormatOf returns the format of a file name or extension, FormatUnknown
// when it is not a photo the library indexes.
func FormatOf(name string) Format {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" && strings.HasPrefix(name, ".") {
		ext = strings.ToLower(name)
	}
	if f, ok := extensions[ext]; ok {
		return f
	}
	return FormatUnknown
}

// IsPhoto reports whether name has a photo extension.
func IsPhoto(name string) bool {
	return FormatOf(name) != FormatUnknown
}

// MimeType returns the MIME type for f, or application/octet-stream.
func MimeType(f Format) string {
	if mime, ok := mimeTypes[f]; ok {
		return mime
	}
	return "application/octet-stream"
}

// NeedsVips reports whether f can only be decoded through libvips.
func NeedsVips(f Format) bool {
	return f == FormatHEIF
}
