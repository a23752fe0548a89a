/*
Package loop provides the owner-goroutine task queue that every view
instance runs on.

Selection and pagination state are mutated only from tasks executed by a
Loop, so they need no locking. Work that blocks (page fetches, thumbnail
decodes) runs on other goroutines and hands its result back with Post:

	go func() {
		page, err := source.FetchPage(ctx, start, end, offset, limit)
		l.Post(func() { controller.merge(page, err) })
	}()

Debouncer is the timer-armed half of the same pattern. Trigger resets a
single pending timer rather than stacking a new one, and the expiry posts
the last triggered function to the loop:

	d := loop.NewDebouncer(200*time.Millisecond, l)
	d.Trigger(func() { scheduler.settle(sample) })
*/
package loop
