package photo

import (
	"context"
	"fmt"
	"time"
)

// Descriptor is an immutable handle to a photo.
type Descriptor struct {
	ID         string    `json:"id"`
	CapturedAt time.Time `json:"capturedAt"`
}

// Day returns the calendar day the photo was captured on.
func (d Descriptor) Day() Day {
	return DayOf(d.CapturedAt)
}

// Day is a calendar date without a time component.
type Day struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DayOf truncates t to its calendar day in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool {
	return d == Day{}
}

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Start returns midnight of d in loc.
func (d Day) Start(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the day n days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	return DayOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC))
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Source supplies photo descriptors ordered newest first. A zero start or
// end leaves that side of the range open.
type Source interface {
	FetchPage(ctx context.Context, start, end time.Time, offset, limit int) ([]Descriptor, error)
}

// Decoder produces encoded thumbnail bytes for a photo.
type Decoder interface {
	Decode(ctx context.Context, id string, width, height, quality int) ([]byte, error)
}

// UsedProvider reports the ids already referenced by diary entries.
type UsedProvider interface {
	CurrentUsedIDs(ctx context.Context) ([]string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, start, end time.Time, offset, limit int) ([]Descriptor, error)

func (f SourceFunc) FetchPage(ctx context.Context, start, end time.Time, offset, limit int) ([]Descriptor, error) {
	return f(ctx, start, end, offset, limit)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, id string, width, height, quality int) ([]byte, error)

func (f DecoderFunc) Decode(ctx context.Context, id string, width, height, quality int) ([]byte, error) {
	return f(ctx, id, width, height, quality)
}

// IDs returns the ids of photos in order.
func IDs(photos []Descriptor) []string {
	ids := make([]string, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}
	return ids
}
