package metrics

import (
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"photo-journal/internal/logging"
)

// StatsProvider reports library counts for the gauges.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds library counts.
type Stats struct {
	TotalPhotos  int
	UsedPhotos   int
	DiaryEntries int
}

// Collector periodically refreshes gauges that are derived from state
// outside the request path: library counts, database file sizes and runtime
// memory.
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
	doneChan      chan struct{}
}

// NewCollector creates a collector. dbPath may be empty to skip file sizes.
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}
}

// Start begins the collection loop.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop ends the collection loop and waits for it to exit.
func (c *Collector) Stop() {
	close(c.stopChan)
	<-c.doneChan
}

func (c *Collector) collectLoop() {
	defer close(c.doneChan)

	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectRuntime()
	c.collectDBSize()

	if c.statsProvider == nil {
		return
	}
	stats := c.statsProvider.GetStats()
	LibraryPhotosTotal.Set(float64(stats.TotalPhotos))
	LibraryUsedPhotosTotal.Set(float64(stats.UsedPhotos))
	DiaryEntriesTotal.Set(float64(stats.DiaryEntries))

	logging.Debug("Metrics collected: photos=%d, used=%d, entries=%d",
		stats.TotalPhotos, stats.UsedPhotos, stats.DiaryEntries)
}

func (c *Collector) collectRuntime() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	GoMemAllocBytes.Set(float64(m.Alloc))
	GoMemSysBytes.Set(float64(m.Sys))

	// SetMemoryLimit with a negative value only reads the current limit.
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < 1<<62 {
		GoMemLimit.Set(float64(limit))
	}
}

func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}
	for label, suffix := range map[string]string{"main": "", "wal": "-wal", "shm": "-shm"} {
		info, err := os.Stat(c.dbPath + suffix)
		if err != nil {
			DBSizeBytes.WithLabelValues(label).Set(0)
			continue
		}
		DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
	}
}
