/*
Package gallery wires the engine components into one photo-picking view.

A Session owns a loop goroutine and everything that must only be touched
from it: the pagination controller, the selection state and the prefetch
scheduler. Public methods hand their work to the loop and wait for it, so a
Session can be driven from HTTP handlers on arbitrary goroutines.

Whenever the paginated list changes the session regroups the timeline,
re-applies the selection by id, points the prefetch scheduler at the new
list and drops cached thumbnails for photos that left it.
*/
package gallery
