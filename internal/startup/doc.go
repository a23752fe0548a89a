// Package startup loads configuration and writes the startup and shutdown
// log sections.
//
// [LoadConfig] reads the environment, logs every value, validates the
// result and prepares the directories:
//
//   - PHOTO_DIR: library root (default /photos)
//   - DATABASE_DIR: SQLite directory, must be writable (default /database)
//   - PORT, METRICS_PORT, METRICS_ENABLED: HTTP listeners (8080, 9090, true)
//   - INDEX_ON_START, INDEX_INTERVAL: indexer schedule (true, 30m)
//   - PAGE_SIZE: photos per page (20)
//   - THUMBNAIL_SIZE, THUMBNAIL_QUALITY: grid thumbnail box and JPEG quality (256, 70)
//   - THUMBNAIL_CACHE_MB: decoded thumbnail budget (64)
//   - PREFETCH_WINDOW, PREFETCH_BATCH: viewport prefetch (60, 12)
//   - DATE_RESTRICTION: start with the single-day lock on (false)
//   - LOG_LEVEL, LOG_HEALTH_CHECKS: logging
//
// DECODE_WORKERS is read by the workers package and GOMEMLIMIT,
// MEMORY_LIMIT and MEMORY_RATIO by the memory package.
package startup
