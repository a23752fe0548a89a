/*
Package pagination drives incremental loading of the photo list for one
scrollable view.

Scroll samples are compared against two distances from the end of the
content. Inside the soft threshold the view is told to warm up (no loading
indicator); inside the hard threshold a page fetch starts, one at a time.

Skeleton placeholders track outstanding work: a triggered fetch adds one
page of skeletons (capped, and at most one addition per debounce period), a
merged page removes one, and reaching the end of the library removes all of
them.

Fetches run on their own goroutine and hand their result back through the
owner loop. Results from an older generation (before a Refresh) are
dropped.
*/
package pagination
