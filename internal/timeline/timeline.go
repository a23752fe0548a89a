package timeline

import (
	"fmt"
	"sort"
	"time"

	"photo-journal/internal/photo"
)

// Kind classifies a timeline bucket.
type Kind string

const (
	// KindToday holds photos captured on the current day (or later).
	KindToday Kind = "today"
	// KindYesterday holds photos captured the day before.
	KindYesterday Kind = "yesterday"
	// KindMonthly holds older photos of one calendar month.
	KindMonthly Kind = "monthly"
)

// Group is one labelled chronological bucket.
type Group struct {
	Kind      Kind               `json:"kind"`
	Year      int                `json:"year,omitempty"`
	Month     time.Month         `json:"month,omitempty"`
	Label     string             `json:"label"`
	Photos    []photo.Descriptor `json:"photos"`
	Skeletons int                `json:"skeletons,omitempty"`
}

// LabelFunc renders a bucket label. Year and month are zero for today and
// yesterday.
type LabelFunc func(kind Kind, year int, month time.Month) string

// DefaultLabel renders English labels.
func DefaultLabel(kind Kind, year int, month time.Month) string {
	switch kind {
	case KindToday:
		return "Today"
	case KindYesterday:
		return "Yesterday"
	default:
		return fmt.Sprintf("%s %d", month, year)
	}
}

// Grouper partitions photo lists into timeline groups.
type Grouper struct {
	// Labels overrides DefaultLabel when set.
	Labels LabelFunc
}

// GroupPhotos partitions photos with English labels. See Grouper.Group.
func GroupPhotos(photos []photo.Descriptor, now time.Time) []Group {
	return Grouper{}.Group(photos, now)
}

type monthKey struct {
	year  int
	month time.Month
}

// Group partitions photos into today, yesterday and per-month buckets
// relative to now. Today is now's calendar day; each photo is classified by
// its capture-local day (photo.Descriptor.Day), the same day SelectedDay and
// Dimmed use. Groups come newest first and photos inside a group are ordered
// by capture time descending, ties broken by id, so the output depends only
// on the input set.
func (g Grouper) Group(photos []photo.Descriptor, now time.Time) []Group {
	label := g.Labels
	if label == nil {
		label = DefaultLabel
	}

	today := photo.DayOf(now)
	yesterday := today.AddDays(-1)

	var todays, yesterdays []photo.Descriptor
	months := make(map[monthKey][]photo.Descriptor)

	for _, p := range photos {
		day := p.Day()
		switch {
		case !day.Before(today):
			todays = append(todays, p)
		case day == yesterday:
			yesterdays = append(yesterdays, p)
		default:
			k := monthKey{year: day.Year, month: day.Month}
			months[k] = append(months[k], p)
		}
	}

	groups := make([]Group, 0, len(months)+2)
	if len(todays) > 0 {
		groups = append(groups, Group{Kind: KindToday, Label: label(KindToday, 0, 0), Photos: sortNewestFirst(todays)})
	}
	if len(yesterdays) > 0 {
		groups = append(groups, Group{Kind: KindYesterday, Label: label(KindYesterday, 0, 0), Photos: sortNewestFirst(yesterdays)})
	}

	keys := make([]monthKey, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year > keys[j].year
		}
		return keys[i].month > keys[j].month
	})
	for _, k := range keys {
		groups = append(groups, Group{
			Kind:   KindMonthly,
			Year:   k.year,
			Month:  k.month,
			Label:  label(KindMonthly, k.year, k.month),
			Photos: sortNewestFirst(months[k]),
		})
	}
	return groups
}

func sortNewestFirst(photos []photo.Descriptor) []photo.Descriptor {
	sort.SliceStable(photos, func(i, j int) bool {
		a, b := photos[i].CapturedAt, photos[j].CapturedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return photos[i].ID < photos[j].ID
	})
	return photos
}

// SelectedDay returns the single calendar day shared by the selected photos.
// It reports false when nothing is selected or the selection spans days.
func SelectedDay(photos []photo.Descriptor, selectedIDs []string) (photo.Day, bool) {
	if len(selectedIDs) == 0 {
		return photo.Day{}, false
	}
	selected := photo.NewIDSet(selectedIDs...)

	var day photo.Day
	found := false
	for _, p := range photos {
		if !selected.Has(p.ID) {
			continue
		}
		d := p.Day()
		if !found {
			day, found = d, true
			continue
		}
		if d != day {
			return photo.Day{}, false
		}
	}
	return day, found
}

// Dimmed reports whether p should render dimmed because a lock day is active
// and p is on a different day.
func Dimmed(p photo.Descriptor, lockDay photo.Day, locked bool) bool {
	return locked && p.Day() != lockDay
}

// AttachSkeletons returns a copy of groups with n skeleton placeholders on the
// last group and none elsewhere.
func AttachSkeletons(groups []Group, n int) []Group {
	out := make([]Group, len(groups))
	copy(out, groups)
	for i := range out {
		out[i].Skeletons = 0
	}
	if n > 0 && len(out) > 0 {
		out[len(out)-1].Skeletons = n
	}
	return out
}

// Flatten concatenates the photos of every group in display order.
func Flatten(groups []Group) []photo.Descriptor {
	n := 0
	for _, g := range groups {
		n += len(g.Photos)
	}
	out := make([]photo.Descriptor, 0, n)
	for _, g := range groups {
		out = append(out, g.Photos...)
	}
	return out
}
