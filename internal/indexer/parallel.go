package indexer

import (
	"context"
	"crypto/md5" //nolint:gosec // MD5 derives stable ids, not security
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"photo-journal/internal/database"
	"photo-journal/internal/logging"
	"photo-journal/internal/mediatypes"
	"photo-journal/internal/workers"
)

// ParallelWalkerConfig configures the parallel directory walker.
type ParallelWalkerConfig struct {
	// NumWorkers is the number of stat workers (0 = workers.ForIO(8)).
	NumWorkers int
	// BatchSize is the number of records upserted per transaction.
	BatchSize int
	// ChannelBuffer is the job and result channel capacity.
	ChannelBuffer int
	// SkipHidden skips names starting with ".".
	SkipHidden bool
}

// DefaultParallelWalkerConfig returns the defaults. INDEX_WORKERS overrides
// the worker count.
func DefaultParallelWalkerConfig() ParallelWalkerConfig {
	numWorkers := workers.ForIO(8)
	if override := os.Getenv("INDEX_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			numWorkers = count
		}
	}
	return ParallelWalkerConfig{
		NumWorkers:    numWorkers,
		BatchSize:     500,
		ChannelBuffer: 1000,
		SkipHidden:    true,
	}
}

type fileJob struct {
	path    string
	relPath string
	entry   fs.DirEntry
}

type fileResult struct {
	record *database.PhotoRecord
	err    error
}

// ParallelWalker walks a photo directory and stats files on a worker pool.
type ParallelWalker struct {
	config   ParallelWalkerConfig
	photoDir string

	photos  atomic.Int64
	skipped atomic.Int64
	errors  atomic.Int64
}

// NewParallelWalker creates a walker rooted at photoDir.
func NewParallelWalker(photoDir string, config ParallelWalkerConfig) *ParallelWalker {
	if config.NumWorkers <= 0 {
		config.NumWorkers = workers.ForIO(8)
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = 1
	}
	return &ParallelWalker{config: config, photoDir: photoDir}
}

// PhotoID derives the stable id of a file from its path relative to the
// library root.
func PhotoID(relPath string) string {
	sum := md5.Sum([]byte(filepath.ToSlash(relPath))) //nolint:gosec // id derivation
	return hex.EncodeToString(sum[:])
}

// Walk returns a record for every photo under the root. Unreadable entries
// are logged and skipped. A cancelled ctx stops the walk and returns
// ctx.Err() with what was collected.
func (pw *ParallelWalker) Walk(ctx context.Context) ([]database.PhotoRecord, error) {
	logging.Info("Starting parallel directory walk with %d workers", pw.config.NumWorkers)
	startTime := time.Now()

	jobs := make(chan fileJob, pw.config.ChannelBuffer)
	results := make(chan fileResult, pw.config.ChannelBuffer)

	var wg sync.WaitGroup
	for i := 0; i < pw.config.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case results <- pw.processFile(job):
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	var records []database.PhotoRecord
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for res := range results {
			switch {
			case res.err != nil:
				pw.errors.Add(1)
				logging.Debug("Error processing file: %v", res.err)
			case res.record != nil:
				pw.photos.Add(1)
				records = append(records, *res.record)
			default:
				pw.skipped.Add(1)
			}
		}
	}()

	walkErr := pw.walkAndEnqueue(ctx, jobs)
	close(jobs)
	wg.Wait()
	close(results)
	<-collected

	logging.Info("Parallel walk complete: %d photos, %d skipped in %v (errors: %d)",
		pw.photos.Load(), pw.skipped.Load(), time.Since(startTime), pw.errors.Load())

	if err := ctx.Err(); err != nil {
		return records, err
	}
	return records, walkErr
}

func (pw *ParallelWalker) walkAndEnqueue(ctx context.Context, jobs chan<- fileJob) error {
	return filepath.WalkDir(pw.photoDir, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			if path == pw.photoDir {
				return err
			}
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}

		if path != pw.photoDir && pw.config.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !mediatypes.IsPhoto(d.Name()) {
			return nil
		}

		relPath, err := filepath.Rel(pw.photoDir, path)
		if err != nil {
			//nolint:nilerr // skip this file, keep walking
			return nil
		}

		select {
		case jobs <- fileJob{path: path, relPath: relPath, entry: d}:
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})
}

func (pw *ParallelWalker) processFile(job fileJob) fileResult {
	info, err := job.entry.Info()
	if err != nil {
		return fileResult{err: err}
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		return fileResult{}
	}
	return fileResult{record: &database.PhotoRecord{
		ID:         PhotoID(job.relPath),
		Path:       job.path,
		CapturedAt: info.ModTime(),
		Size:       info.Size(),
		MimeType:   mediatypes.MimeType(mediatypes.FormatOf(job.path)),
	}}
}

// Stats returns the walk counters.
func (pw *ParallelWalker) Stats() (photos, skipped, errors int64) {
	return pw.photos.Load(), pw.skipped.Load(), pw.errors.Load()
}
