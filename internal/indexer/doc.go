// Package indexer scans the photo directory into the database.
//
// A [ParallelWalker] walks the tree, keeps the files whose extension is a
// photo format and stats them on a worker pool. Each photo gets a stable id
// (md5 of its path relative to the root) and a capture time from its
// modification time. [Indexer.Index] upserts the records in batches,
// waiting out critical memory pressure between batches, then deletes rows
// for files that disappeared.
package indexer
