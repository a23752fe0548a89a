package notify

import "sync"

// Handle identifies a subscription.
type Handle uint64

// Broadcaster fans a change signal out to subscribers. Callbacks run
// synchronously on the goroutine that calls Notify, in subscription order.
type Broadcaster struct {
	mu    sync.Mutex
	next  Handle
	order []Handle
	subs  map[Handle]func()
}

// Subscribe registers fn and returns its handle. A nil fn is ignored and
// returns the zero handle.
func (b *Broadcaster) Subscribe(fn func()) Handle {
	if fn == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[Handle]func())
	}
	b.next++
	h := b.next
	b.subs[h] = fn
	b.order = append(b.order, h)
	return h
}

// Unsubscribe removes a subscription. It reports whether h was registered.
func (b *Broadcaster) Unsubscribe(h Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[h]; !ok {
		return false
	}
	delete(b.subs, h)
	for i, o := range b.order {
		if o == h {
			b.order = append(b.order[:i:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of active subscriptions.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Notify calls every subscriber once. The lock is not held while callbacks
// run, so callbacks may subscribe or unsubscribe.
func (b *Broadcaster) Notify() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.order))
	for _, h := range b.order {
		fns = append(fns, b.subs[h])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
