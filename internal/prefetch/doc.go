// Package prefetch turns scroll samples into batched thumbnail preloads.
//
// Samples are debounced so only a settled position schedules work, then the
// window of items ahead of that position is preloaded in fixed-size batches
// on a background goroutine. A newer schedule supersedes older ones; a
// superseded run finishes the batch it is on and stops.
package prefetch
