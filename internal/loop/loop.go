package loop

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"photo-journal/internal/logging"
)

// ErrClosed is returned when work is handed to a loop that has been closed.
var ErrClosed = errors.New("loop: closed")

// DefaultBuffer is the task queue capacity used when New is given zero.
const DefaultBuffer = 256

// Poster accepts work to run on an owner goroutine.
type Poster interface {
	Post(fn func()) bool
}

// PosterFunc adapts a function to Poster.
type PosterFunc func(fn func()) bool

func (f PosterFunc) Post(fn func()) bool { return f(fn) }

// Loop is a single-goroutine task queue. Everything posted to it runs
// sequentially on the goroutine that called Run, which makes that goroutine
// the sole owner of any state only touched from tasks.
type Loop struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a loop with the given queue capacity.
func New(buffer int) *Loop {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Post enqueues fn. It blocks while the queue is full and returns false once
// the loop is closed. Calling Post from inside a task with a full queue
// deadlocks; tasks that need follow-up work should use a Debouncer or a
// goroutine.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from a task running on the same loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}
}

// Run executes tasks until ctx is cancelled or Close is called. Pending tasks
// are dropped on exit.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

// Close stops the loop. It is safe to call more than once.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// exec runs a task, keeping the loop alive if it panics.
func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("loop task panicked: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
}
