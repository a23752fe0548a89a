package metrics

import (
	"photo-journal/internal/pagination"
	"photo-journal/internal/prefetch"
	"photo-journal/internal/selection"
	"photo-journal/internal/thumbcache"
)

// InitializeMetrics pre-populates the expected label combinations so every
// series is exported from the first scrape. Call once at startup.
func InitializeMetrics() {
	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	volumes := []string{"photos", "database", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"read", "stat", "readdir"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
		for _, op := range []string{"stat", "open", "readdir"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, r := range []string{thumbcache.LookupHit, thumbcache.LookupMiss, thumbcache.LookupJoin} {
		ThumbnailCacheLookups.WithLabelValues(r)
	}
	for _, r := range []string{thumbcache.EvictCapacity, thumbcache.EvictStale, thumbcache.EvictBudget, thumbcache.EvictPurge} {
		ThumbnailCacheEvictions.WithLabelValues(r)
	}
	for _, s := range []string{"success", "error"} {
		ThumbnailDecodesTotal.WithLabelValues(s)
	}
	for _, format := range []string{"jpeg", "png", "gif", "webp", "bmp", "tiff", "unknown"} {
		ThumbnailImageDecodeByFormat.WithLabelValues(format)
	}

	for _, o := range []string{prefetch.OutcomeScheduled, prefetch.OutcomeEmpty, prefetch.OutcomeDrift,
		prefetch.OutcomeThrottled, prefetch.OutcomeSuperseded} {
		PrefetchSchedulesTotal.WithLabelValues(o)
	}
	for _, r := range []string{"loaded", "failed", "skipped"} {
		PrefetchKeysTotal.WithLabelValues(r)
	}

	for _, o := range []string{pagination.OutcomeOK, pagination.OutcomeError, pagination.OutcomeStale} {
		PaginationFetchesTotal.WithLabelValues(o)
	}

	toggles := []string{"selected", "deselected", "auto_selected"}
	for r := selection.ReasonOutOfRange; r <= selection.ReasonWrongDay; r++ {
		toggles = append(toggles, r.String())
	}
	for _, o := range toggles {
		SelectionTogglesTotal.WithLabelValues(o)
	}

	for _, op := range []string{"initialize_schema", "upsert_photos", "fetch_page", "photo_path",
		"current_used_ids", "create_entry", "delete_entry", "list_entries", "count_photos", "delete_missing"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
