// Package database stores the photo library and diary entries in SQLite.
//
// A [Database] is the photo.Source the pagination controller reads pages
// from (newest first, id as tie-break) and the photo.UsedProvider that
// reports which photos diary entries already hold. The indexer upserts
// rows; capture times keep their UTC offset so calendar days survive the
// round trip.
//
// The connection runs in WAL mode with a busy timeout so page reads proceed
// while the indexer writes.
package database
