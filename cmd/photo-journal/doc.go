// Package main provides the entry point for the Photo Journal application.
//
// Photo Journal is a self-hosted service for picking up to three photos a
// day from a photo library and saving them as diary entries. It serves an
// infinitely scrolling timeline grouped into today, yesterday and calendar
// months, a selection model with an optional single-day lock, and decoded
// thumbnails prefetched around the viewport.
//
// # Application Lifecycle
//
// The application follows a structured initialization sequence:
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO
//  2. Configuration Loading: Reads environment variables and validates directories
//  3. Metrics Registration: Pre-populates label sets and build information
//  4. Database Initialization: Opens SQLite in WAL mode
//  5. Component Initialization:
//     - Metrics Collector: Samples runtime memory, database size and library totals
//     - Memory Monitor: Pauses indexing and throttles prefetch under pressure
//     - Thumbnail Cache: Byte-bounded LRU with single-flight decodes
//     - Gallery Session: Pagination, prefetch and selection on one event loop
//     - Indexer: Walks the photo directory and keeps the photo table in sync
//  6. HTTP Server Setup: Registers routes and middleware, starts the websocket hub
//  7. Graceful Shutdown: Handles SIGINT/SIGTERM and stops components in order
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - Timeline, scroll and refresh endpoints
//     - Selection, date restriction and capture endpoints
//     - Diary entry creation and deletion
//     - Thumbnail serving through the cache
//     - Websocket view push on /api/events
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//     - Health check endpoint (/health)
//
// # Environment Variables
//
//   - PHOTO_DIR: Root directory of the photo library (default: /photos)
//   - DATABASE_DIR: Directory for the SQLite database (default: /database)
//   - PORT, METRICS_PORT, METRICS_ENABLED: Listeners (8080, 9090, true)
//   - INDEX_ON_START, INDEX_INTERVAL: Indexer schedule (true, 30m)
//   - PAGE_SIZE: Photos per page (default: 20)
//   - THUMBNAIL_SIZE, THUMBNAIL_QUALITY, THUMBNAIL_CACHE_MB: Thumbnails (256, 70, 64)
//   - PREFETCH_WINDOW, PREFETCH_BATCH: Viewport prefetch (60, 12)
//   - DATE_RESTRICTION: Start with the single-day lock on (default: false)
//   - DECODE_WORKERS: Override the decode worker count
//   - LOG_LEVEL, LOG_HEALTH_CHECKS: Logging
//   - GOMEMLIMIT, MEMORY_LIMIT, MEMORY_RATIO: Memory limits
//
// # Build Requirements
//
// The application requires CGO for SQLite and libvips. Without libvips at
// runtime, thumbnails fall back to the pure Go decoder and HEIF photos are
// not thumbnailed.
//
// # Related Packages
//
//   - [photo-journal/internal/gallery]: Session orchestration
//   - [photo-journal/internal/pagination]: Incremental page loading
//   - [photo-journal/internal/selection]: Selection state machine
//   - [photo-journal/internal/timeline]: Chronological grouping
//   - [photo-journal/internal/thumbcache]: Decoded thumbnail cache
//   - [photo-journal/internal/prefetch]: Viewport prefetch scheduling
//   - [photo-journal/internal/database]: SQLite storage
//   - [photo-journal/internal/handlers]: HTTP request handlers
//   - [photo-journal/internal/indexer]: Photo directory scanning
//   - [photo-journal/internal/media]: Thumbnail decoding and libvips integration
//   - [photo-journal/internal/middleware]: HTTP middleware (logging, metrics)
//   - [photo-journal/internal/startup]: Configuration and initialization
package main
