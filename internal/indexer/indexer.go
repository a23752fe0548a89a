package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"photo-journal/internal/database"
	"photo-journal/internal/logging"
	"photo-journal/internal/metrics"
)

// Store is the part of the database the indexer writes to.
type Store interface {
	UpsertPhotos(ctx context.Context, records []database.PhotoRecord) (int64, error)
	DeleteMissing(ctx context.Context, keepIDs []string) (int64, error)
	SetLastIndexRun(ctx context.Context, t time.Time) error
}

// Pauser blocks while memory pressure is critical. memory.Monitor
// implements it.
type Pauser interface {
	WaitIfPaused() bool
}

// Result summarizes one index run. Photos counts every file walked;
// Updated counts the rows that were inserted or changed.
type Result struct {
	Photos   int           `json:"photos"`
	Updated  int64         `json:"updated"`
	Removed  int64         `json:"removed"`
	Errors   int64         `json:"errors"`
	Duration time.Duration `json:"duration"`
	Skipped  bool          `json:"skipped,omitempty"`
}

// Changed reports whether the run altered the photo table.
func (r Result) Changed() bool {
	return r.Updated > 0 || r.Removed > 0
}

// Indexer keeps the photo table in sync with the photo directory.
type Indexer struct {
	store    Store
	photoDir string
	interval time.Duration
	config   ParallelWalkerConfig
	pauser   Pauser

	onComplete  func(Result)
	skipInitial bool

	mu         sync.Mutex
	isIndexing bool
	last       Result
	lastTime   time.Time

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates an indexer. interval <= 0 disables periodic re-indexing.
func New(store Store, photoDir string, interval time.Duration) *Indexer {
	return &Indexer{
		store:    store,
		photoDir: photoDir,
		interval: interval,
		config:   DefaultParallelWalkerConfig(),
		stopChan: make(chan struct{}),
	}
}

// SetParallelConfig replaces the walker configuration.
func (idx *Indexer) SetParallelConfig(config ParallelWalkerConfig) {
	idx.config = config
}

// SetPauser installs memory backpressure between batches.
func (idx *Indexer) SetPauser(p Pauser) {
	idx.pauser = p
}

// SetOnIndexComplete registers a callback run after every successful index.
func (idx *Indexer) SetOnIndexComplete(fn func(Result)) {
	idx.onComplete = fn
}

// SetIndexOnStart controls whether Start runs an index immediately.
func (idx *Indexer) SetIndexOnStart(enabled bool) {
	idx.skipInitial = !enabled
}

// Start runs an initial index in the background, then re-indexes every
// interval until Stop.
func (idx *Indexer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	idx.wg.Add(1)
	go func() {
		defer idx.wg.Done()
		defer cancel()

		go func() {
			select {
			case <-idx.stopChan:
				cancel()
			case <-ctx.Done():
			}
		}()

		if idx.skipInitial {
			logging.Info("Initial index disabled, waiting for the first interval")
		} else {
			logging.Info("Starting initial index in background...")
			if _, err := idx.Index(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error("Initial index error: %v", err)
			}
		}
		if idx.interval <= 0 {
			return
		}

		ticker := time.NewTicker(idx.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				logging.Debug("Periodic re-index triggered")
				if _, err := idx.Index(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logging.Error("periodic re-index failed: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels a running index and the periodic loop, then waits for them.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() { close(idx.stopChan) })
	idx.wg.Wait()
}

// Index walks the photo directory, upserts every photo in batches and
// removes rows whose files disappeared. A call while another run is in
// progress returns a Result with Skipped set.
func (idx *Indexer) Index(ctx context.Context) (Result, error) {
	if !idx.tryStart() {
		logging.Info("Index already in progress, skipping...")
		return Result{Skipped: true}, nil
	}
	defer idx.finish()

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)
	metrics.IndexerRunsTotal.Inc()

	start := time.Now()
	logging.Info("Starting photo indexing of %s", idx.photoDir)

	walker := NewParallelWalker(idx.photoDir, idx.config)
	records, err := walker.Walk(ctx)
	if err != nil && !errors.Is(err, fs.SkipAll) {
		metrics.IndexerErrors.Inc()
		return Result{}, fmt.Errorf("walk %s: %w", idx.photoDir, err)
	}
	_, _, walkErrors := walker.Stats()

	updated, err := idx.upsertBatches(ctx, records)
	if err != nil {
		metrics.IndexerErrors.Inc()
		return Result{}, err
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	removed, err := idx.store.DeleteMissing(ctx, ids)
	if err != nil {
		metrics.IndexerErrors.Inc()
		return Result{}, fmt.Errorf("remove missing photos: %w", err)
	}
	if removed > 0 {
		logging.Info("Removed %d missing photos from index", removed)
	}

	finished := time.Now()
	if err := idx.store.SetLastIndexRun(ctx, finished); err != nil {
		logging.Warn("failed to record index time: %v", err)
	}

	res := Result{
		Photos:   len(records),
		Updated:  updated,
		Removed:  removed,
		Errors:   walkErrors,
		Duration: finished.Sub(start),
	}

	metrics.IndexerLastRunTimestamp.Set(float64(finished.Unix()))
	metrics.IndexerLastRunDuration.Set(res.Duration.Seconds())
	metrics.IndexerFilesProcessed.Add(float64(res.Photos))
	if walkErrors > 0 {
		metrics.IndexerErrors.Add(float64(walkErrors))
	}

	idx.mu.Lock()
	idx.last = res
	idx.lastTime = finished
	idx.mu.Unlock()

	logging.Info("Indexing complete: %d photos, %d updated, %d removed in %v", res.Photos, res.Updated, res.Removed, res.Duration)
	if idx.onComplete != nil {
		idx.onComplete(res)
	}
	return res, nil
}

func (idx *Indexer) upsertBatches(ctx context.Context, records []database.PhotoRecord) (int64, error) {
	size := idx.config.BatchSize
	if size <= 0 {
		size = len(records)
	}
	var updated int64
	for i := 0; i < len(records); i += size {
		if idx.pauser != nil && !idx.pauser.WaitIfPaused() {
			return updated, context.Canceled
		}
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		end := i + size
		if end > len(records) {
			end = len(records)
		}
		n, err := idx.store.UpsertPhotos(ctx, records[i:end])
		if err != nil {
			return updated, fmt.Errorf("upsert photos %d-%d: %w", i, end, err)
		}
		updated += n
	}
	return updated, nil
}

func (idx *Indexer) tryStart() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

func (idx *Indexer) finish() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.isIndexing = false
}

// IsIndexing reports whether a run is in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.isIndexing
}

// LastResult returns the last completed run and when it finished.
func (idx *Indexer) LastResult() (Result, time.Time) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.last, idx.lastTime
}
