/*
Package thumbcache is the process-wide cache of decoded thumbnails.

Entries are keyed by photo id plus rendition (width, height, quality). Each
key has at most one decode in flight; every concurrent caller for that key
waits on the same result. A decoded thumbnail is written to the ready store
before the in-flight record is released, so a request arriving just after
completion is a hit rather than a second decode. Failed decodes are not
stored.

The ready store is a fixed-capacity LRU. The byte budget is applied only when
Prune or InvalidateStale is called, never between requests.

Decodes are bounded by a weighted semaphore sized from the worker helpers and
run under a context owned by the cache, so a caller giving up does not cancel
work other callers are waiting for.
*/
package thumbcache
