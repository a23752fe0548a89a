package loop

import (
	"sync"
	"time"
)

// Debouncer holds at most one pending timer. Each Trigger resets it; when it
// expires the most recent fn is posted to the owner loop.
type Debouncer struct {
	delay  time.Duration
	poster Poster

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// NewDebouncer creates a debouncer that posts to poster after delay of quiet.
func NewDebouncer(delay time.Duration, poster Poster) *Debouncer {
	return &Debouncer{delay: delay, poster: poster}
}

// Delay returns the configured quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger arms the timer for fn, replacing any pending fn.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if seq != d.seq {
			// superseded after the timer already fired
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		d.poster.Post(fn)
	})
}

// Stop cancels the pending fn, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a timer is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
