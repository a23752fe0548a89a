package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_journal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	EventClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_event_clients_connected",
			Help: "Number of websocket clients receiving view updates",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_journal_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_journal_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Library metrics
var (
	LibraryPhotosTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_library_photos",
			Help: "Number of indexed photos",
		},
	)

	LibraryUsedPhotosTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_library_used_photos",
			Help: "Number of photos referenced by a diary entry",
		},
	)

	DiaryEntriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_diary_entries",
			Help: "Number of diary entries",
		},
	)

	DiaryEntriesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_journal_diary_entries_created_total",
			Help: "Total number of diary entries created",
		},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_journal_indexer_runs_total",
			Help: "Total number of indexer runs",
		},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_indexer_last_run_timestamp",
			Help: "Timestamp of the last indexer run",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_indexer_last_run_duration_seconds",
			Help: "Duration of the last indexer run in seconds",
		},
	)

	IndexerFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_journal_indexer_files_processed_total",
			Help: "Total number of photo files processed by the indexer",
		},
	)

	IndexerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_journal_indexer_errors_total",
			Help: "Total number of indexer errors",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_indexer_running",
			Help: "Whether the indexer is currently running (1 = running, 0 = idle)",
		},
	)
)

// Thumbnail cache metrics
var (
	ThumbnailCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_thumbnail_cache_lookups_total",
			Help: "Thumbnail cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "join"
	)

	ThumbnailCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_thumbnail_cache_evictions_total",
			Help: "Thumbnail cache evictions by reason",
		},
		[]string{"reason"}, // "capacity", "stale", "budget", "purge"
	)

	ThumbnailCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_thumbnail_cache_size_bytes",
			Help: "Bytes held by ready thumbnails",
		},
	)

	ThumbnailCacheCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_thumbnail_cache_count",
			Help: "Number of ready thumbnails",
		},
	)

	ThumbnailDecodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_thumbnail_decodes_total",
			Help: "Thumbnail decodes by status",
		},
		[]string{"status"},
	)

	ThumbnailDecodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_journal_thumbnail_decode_duration_seconds",
			Help:    "Thumbnail decode duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ThumbnailImageDecodeByFormat = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_thumbnail_image_decode_by_format_total",
			Help: "Source images decoded by detected format",
		},
		[]string{"format"},
	)
)

// Prefetch metrics
var (
	PrefetchSchedulesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_prefetch_schedules_total",
			Help: "Viewport prefetch evaluations by outcome",
		},
		[]string{"outcome"}, // "scheduled", "empty", "drift", "throttled", "superseded"
	)

	PrefetchBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_journal_prefetch_batches_total",
			Help: "Preload batches issued to the thumbnail cache",
		},
	)

	PrefetchKeysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_prefetch_keys_total",
			Help: "Preloaded thumbnail keys by result",
		},
		[]string{"result"}, // "loaded", "failed", "skipped"
	)
)

// Pagination metrics
var (
	PaginationFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_pagination_fetches_total",
			Help: "Page fetches by outcome",
		},
		[]string{"outcome"}, // "ok", "error", "stale"
	)

	PaginationFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_journal_pagination_fetch_duration_seconds",
			Help:    "Page fetch duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	PaginationItemsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_journal_pagination_items_fetched_total",
			Help: "Photo descriptors returned by page fetches",
		},
	)

	GallerySessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_gallery_sessions_active",
			Help: "Number of open gallery sessions",
		},
	)
)

// Selection metrics
var (
	SelectionTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_selection_toggles_total",
			Help: "Selection attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_journal_filesystem_operation_duration_seconds",
			Help:    "Filesystem call duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_filesystem_operation_errors_total",
			Help: "Failed filesystem calls",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_filesystem_retry_attempts_total",
			Help: "Filesystem retries after a stale NFS handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_filesystem_retry_success_total",
			Help: "Filesystem calls that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_filesystem_retry_failures_total",
			Help: "Filesystem calls that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_journal_filesystem_retry_duration_seconds",
			Help:    "Total time spent in a retried filesystem call",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_journal_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	GoMemLimit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_go_memlimit_bytes",
			Help: "Configured GOMEMLIMIT in bytes (0 if unset)",
		},
	)

	GoMemAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_go_memory_alloc_bytes",
			Help: "Bytes of allocated heap objects",
		},
	)

	GoMemSysBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_go_memory_sys_bytes",
			Help: "Bytes of memory obtained from the OS",
		},
	)

	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_memory_usage_ratio",
			Help: "Heap allocation as a ratio of the memory limit (0.0-1.0)",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_journal_memory_paused",
			Help: "Whether background work is paused for memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_journal_memory_gc_pauses_total",
			Help: "Times background work was paused for memory pressure",
		},
	)
)

// AppInfo exposes build information.
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "photo_journal_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)
