// Package photo holds the data model shared by every engine component and the
// narrow interfaces of the collaborators the engine depends on.
//
// A Descriptor is an id plus capture timestamp, immutable once obtained from
// a Source. Day is the calendar-day truncation used for date locking and
// timeline bucketing. Source, Decoder and UsedProvider are implemented by the
// database and media packages in production and by fakes in tests.
package photo
