// Package metrics provides Prometheus instrumentation for photo-journal.
//
// All metrics are registered on the default registry through promauto and
// prefixed with "photo_journal_". The HTTP server mounts promhttp.Handler on
// the metrics port.
//
// # Observers
//
// Leaf packages (filesystem, thumbcache, prefetch, pagination, selection)
// declare small Observer interfaces instead of importing this package. The
// constructors here implement them:
//
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//	cache, err := thumbcache.New(decoder, thumbcache.Options{
//		Observer: metrics.NewCacheObserver(),
//	})
//
// # Collector
//
// [Collector] periodically refreshes the library gauges from a
// [StatsProvider], the SQLite file sizes and Go runtime memory:
//
//	collector := metrics.NewCollector(db, dbPath, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// # Example queries
//
// Thumbnail cache hit rate:
//
//	sum(rate(photo_journal_thumbnail_cache_lookups_total{result="hit"}[5m])) /
//	sum(rate(photo_journal_thumbnail_cache_lookups_total[5m]))
//
// Page fetch failures:
//
//	rate(photo_journal_pagination_fetches_total{outcome="error"}[5m])
package metrics
