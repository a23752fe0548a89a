// Package notify implements the subscribe/unsubscribe change signal used by
// the selection state, the pagination controller and gallery sessions.
package notify
