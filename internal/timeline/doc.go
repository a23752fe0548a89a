// Package timeline partitions photo lists into the Today, Yesterday and
// per-month buckets rendered by the gallery.
//
// Grouping is a pure function of the photo set and the reference time, so the
// same input always yields the same groups.
package timeline
