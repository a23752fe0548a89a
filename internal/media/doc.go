// Package media renders thumbnails for library photos.
//
// [Decoder] implements photo.Decoder. With libvips started ([InitVips]) it
// shrinks during decode and can read HEIF; otherwise it decodes with the
// imaging package (JPEG, PNG, GIF, BMP, TIFF, WebP), applies EXIF
// orientation and fits the image with Lanczos resampling. Files are opened
// through the filesystem retry helpers so stale NFS handles are retried.
// Output is always JPEG.
package media
