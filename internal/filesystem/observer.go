package filesystem

// Observer records filesystem metrics. The metrics package implements it, which
// keeps this package free of a metrics import.
type Observer interface {
	// ObserveOperation records one filesystem call. operation is "stat",
	// "read" or "readdir".
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	// Retry bookkeeping. retryOp is "stat", "open" or "readdir".
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	ObserveStaleError(retryOp, volume string)
}

// defaultObserver is nil until SetObserver; nil skips recording.
var defaultObserver Observer

// SetObserver installs the package-level observer. Call once at startup.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}
