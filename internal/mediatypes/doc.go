// Package mediatypes classifies photo files by extension. It has no
// dependencies so the indexer and the decoder can share it.
//
//	mediatypes.FormatOf("IMG_0042.JPG")  // FormatJPEG
//	mediatypes.IsPhoto("notes.txt")      // false
//	mediatypes.MimeType(mediatypes.FormatWebP) // "image/webp"
package mediatypes
