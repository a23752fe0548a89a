package metrics

import (
	"photo-journal/internal/filesystem"
	"photo-journal/internal/pagination"
	"photo-journal/internal/prefetch"
	"photo-journal/internal/selection"
	"photo-journal/internal/thumbcache"
)

// filesystemObserver implements filesystem.Observer.
type filesystemObserver struct{}

// NewFilesystemObserver records filesystem calls into the Filesystem* metrics.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveOperation(volume, operation string, durationSeconds float64, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, operation).Observe(durationSeconds)
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(volume, operation).Inc()
	}
}

func (o *filesystemObserver) ObserveRetryAttempt(retryOp, volume string) {
	FilesystemRetryAttempts.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetrySuccess(retryOp, volume string) {
	FilesystemRetrySuccess.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryFailure(retryOp, volume string) {
	FilesystemRetryFailures.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryDuration(retryOp, volume string, durationSeconds float64) {
	FilesystemRetryDuration.WithLabelValues(retryOp, volume).Observe(durationSeconds)
}

func (o *filesystemObserver) ObserveStaleError(retryOp, volume string) {
	FilesystemStaleErrors.WithLabelValues(retryOp, volume).Inc()
}

// cacheObserver implements thumbcache.Observer.
type cacheObserver struct{}

// NewCacheObserver records thumbnail cache activity.
func NewCacheObserver() thumbcache.Observer {
	return &cacheObserver{}
}

func (o *cacheObserver) ObserveLookup(result string) {
	ThumbnailCacheLookups.WithLabelValues(result).Inc()
}

func (o *cacheObserver) ObserveDecode(durationSeconds float64, err error) {
	ThumbnailDecodeDuration.Observe(durationSeconds)
	status := "success"
	if err != nil {
		status = "error"
	}
	ThumbnailDecodesTotal.WithLabelValues(status).Inc()
}

func (o *cacheObserver) ObserveEviction(reason string) {
	ThumbnailCacheEvictions.WithLabelValues(reason).Inc()
}

func (o *cacheObserver) ObserveSize(entries int, bytes int64) {
	ThumbnailCacheCount.Set(float64(entries))
	ThumbnailCacheSize.Set(float64(bytes))
}

// prefetchObserver implements prefetch.Observer.
type prefetchObserver struct{}

// NewPrefetchObserver records viewport prefetch decisions.
func NewPrefetchObserver() prefetch.Observer {
	return &prefetchObserver{}
}

func (o *prefetchObserver) ObserveSchedule(outcome string) {
	PrefetchSchedulesTotal.WithLabelValues(outcome).Inc()
}

func (o *prefetchObserver) ObserveBatch(result thumbcache.PreloadResult) {
	PrefetchBatchesTotal.Inc()
	PrefetchKeysTotal.WithLabelValues("loaded").Add(float64(result.Loaded))
	PrefetchKeysTotal.WithLabelValues("failed").Add(float64(result.Failed))
	if skipped := result.Requested - result.Loaded - result.Failed; skipped > 0 {
		PrefetchKeysTotal.WithLabelValues("skipped").Add(float64(skipped))
	}
}

// paginationObserver implements pagination.Observer.
type paginationObserver struct{}

// NewPaginationObserver records page fetches.
func NewPaginationObserver() pagination.Observer {
	return &paginationObserver{}
}

func (o *paginationObserver) ObserveFetch(outcome string, durationSeconds float64, items int) {
	PaginationFetchesTotal.WithLabelValues(outcome).Inc()
	PaginationFetchDuration.Observe(durationSeconds)
	PaginationItemsFetched.Add(float64(items))
}

// selectionObserver implements selection.Observer.
type selectionObserver struct{}

// NewSelectionObserver records selection attempts.
func NewSelectionObserver() selection.Observer {
	return &selectionObserver{}
}

func (o *selectionObserver) ObserveToggle(outcome string) {
	SelectionTogglesTotal.WithLabelValues(outcome).Inc()
}
