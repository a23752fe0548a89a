package timeline

import (
	"fmt"
	"testing"
	"time"

	"photo-journal/internal/photo"
)

var now = time.Date(2026, time.May, 14, 10, 0, 0, 0, time.UTC)

func desc(id string, t time.Time) photo.Descriptor {
	return photo.Descriptor{ID: id, CapturedAt: t}
}

func TestGroupBuckets(t *testing.T) {
	photos := []photo.Descriptor{
		desc("old", time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)),
		desc("today1", time.Date(2026, time.May, 14, 8, 0, 0, 0, time.UTC)),
		desc("yest", time.Date(2026, time.May, 13, 23, 0, 0, 0, time.UTC)),
		desc("may", time.Date(2026, time.May, 3, 12, 0, 0, 0, time.UTC)),
		desc("today2", time.Date(2026, time.May, 14, 9, 30, 0, 0, time.UTC)),
		desc("lastyear", time.Date(2025, time.December, 31, 12, 0, 0, 0, time.UTC)),
	}

	groups := GroupPhotos(photos, now)

	want := []struct {
		kind  Kind
		label string
		ids   []string
	}{
		{KindToday, "Today", []string{"today2", "today1"}},
		{KindYesterday, "Yesterday", []string{"yest"}},
		{KindMonthly, "May 2026", []string{"may"}},
		{KindMonthly, "March 2026", []string{"old"}},
		{KindMonthly, "December 2025", []string{"lastyear"}},
	}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d: %+v", len(want), len(groups), groups)
	}
	for i, w := range want {
		g := groups[i]
		if g.Kind != w.kind || g.Label != w.label {
			t.Errorf("group %d = %s %q, want %s %q", i, g.Kind, g.Label, w.kind, w.label)
		}
		ids := photo.IDs(g.Photos)
		if fmt.Sprint(ids) != fmt.Sprint(w.ids) {
			t.Errorf("group %d ids = %v, want %v", i, ids, w.ids)
		}
	}
}

func TestGroupFuturePhotosAreToday(t *testing.T) {
	groups := GroupPhotos([]photo.Descriptor{desc("skew", now.Add(48*time.Hour))}, now)
	if len(groups) != 1 || groups[0].Kind != KindToday {
		t.Fatalf("future photo should land in Today, got %+v", groups)
	}
}

func TestGroupEmpty(t *testing.T) {
	if groups := GroupPhotos(nil, now); len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
}

func TestGroupYesterdayAcrossMonthBoundary(t *testing.T) {
	first := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	groups := GroupPhotos([]photo.Descriptor{
		desc("a", time.Date(2026, time.May, 31, 20, 0, 0, 0, time.UTC)),
		desc("b", time.Date(2026, time.May, 30, 20, 0, 0, 0, time.UTC)),
	}, first)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Kind != KindYesterday || groups[1].Label != "May 2026" {
		t.Errorf("unexpected groups: %+v", groups)
	}
}

func TestGroupUsesCaptureLocalDay(t *testing.T) {
	tokyo := time.FixedZone("UTC+9", 9*60*60)
	ref := time.Date(2026, time.May, 14, 8, 0, 0, 0, time.UTC)
	// 07:00 on May 14 in Tokyo is 22:00 on May 13 in UTC.
	p := desc("x", time.Date(2026, time.May, 14, 7, 0, 0, 0, tokyo))
	q := desc("y", time.Date(2026, time.May, 13, 23, 0, 0, 0, time.UTC))

	groups := GroupPhotos([]photo.Descriptor{p, q}, ref)
	if len(groups) != 2 || groups[0].Kind != KindToday || groups[1].Kind != KindYesterday {
		t.Fatalf("expected Today and Yesterday by capture-local day, got %+v", groups)
	}
	if groups[0].Photos[0].ID != "x" {
		t.Errorf("Today holds %s, want x", groups[0].Photos[0].ID)
	}

	// A photo shown under Today is never dimmed against today's lock day.
	day, ok := SelectedDay(groups[0].Photos, []string{"x"})
	if !ok || day != photo.DayOf(ref) {
		t.Fatalf("SelectedDay = %v, %v; want %v", day, ok, photo.DayOf(ref))
	}
	if Dimmed(p, day, ok) {
		t.Error("photo in Today dimmed as off-day")
	}
	if !Dimmed(q, day, ok) {
		t.Error("photo in Yesterday should be dimmed")
	}
}

func TestGroupDeterministic(t *testing.T) {
	at := time.Date(2026, time.April, 4, 12, 0, 0, 0, time.UTC)
	a := []photo.Descriptor{desc("c", at), desc("a", at), desc("b", at)}
	b := []photo.Descriptor{desc("b", at), desc("c", at), desc("a", at)}

	ga, gb := GroupPhotos(a, now), GroupPhotos(b, now)
	if fmt.Sprint(photo.IDs(Flatten(ga))) != fmt.Sprint(photo.IDs(Flatten(gb))) {
		t.Errorf("grouping depends on input order: %v vs %v", Flatten(ga), Flatten(gb))
	}
	if got := photo.IDs(ga[0].Photos); fmt.Sprint(got) != "[a b c]" {
		t.Errorf("ties should be ordered by id, got %v", got)
	}
}

func TestGroupPartitionsEveryPhoto(t *testing.T) {
	var photos []photo.Descriptor
	for i := 0; i < 200; i++ {
		photos = append(photos, desc(fmt.Sprintf("p%03d", i), now.Add(-time.Duration(i*7)*time.Hour)))
	}

	groups := GroupPhotos(photos, now)
	seen := photo.NewIDSet()
	for _, g := range groups {
		for i, p := range g.Photos {
			if seen.Has(p.ID) {
				t.Fatalf("photo %s appears in more than one group", p.ID)
			}
			seen.Add(p.ID)
			if i > 0 && p.CapturedAt.After(g.Photos[i-1].CapturedAt) {
				t.Errorf("group %q not in descending order at %d", g.Label, i)
			}
		}
	}
	if len(seen) != len(photos) {
		t.Errorf("expected %d photos across groups, got %d", len(photos), len(seen))
	}

	months := make(map[string]bool)
	for _, g := range groups {
		if g.Kind != KindMonthly {
			continue
		}
		if months[g.Label] {
			t.Errorf("duplicate month group %q", g.Label)
		}
		months[g.Label] = true
	}
}

func TestCustomLabels(t *testing.T) {
	g := Grouper{Labels: func(kind Kind, year int, month time.Month) string {
		if kind == KindMonthly {
			return fmt.Sprintf("%d/%02d", year, int(month))
		}
		return string(kind)
	}}
	groups := g.Group([]photo.Descriptor{
		desc("a", now),
		desc("b", time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)),
	}, now)

	if groups[0].Label != "today" || groups[1].Label != "2026/02" {
		t.Errorf("custom labels not applied: %q %q", groups[0].Label, groups[1].Label)
	}
}

func TestSelectedDay(t *testing.T) {
	d1 := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, time.May, 2, 9, 0, 0, 0, time.UTC)
	photos := []photo.Descriptor{desc("a", d1), desc("b", d1.Add(time.Hour)), desc("c", d2)}

	tests := []struct {
		name     string
		selected []string
		wantOK   bool
		wantDay  photo.Day
	}{
		{"none", nil, false, photo.Day{}},
		{"same day", []string{"a", "b"}, true, photo.DayOf(d1)},
		{"mixed days", []string{"a", "c"}, false, photo.Day{}},
		{"unknown id", []string{"zzz"}, false, photo.Day{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, ok := SelectedDay(photos, tt.selected)
			if ok != tt.wantOK || day != tt.wantDay {
				t.Errorf("SelectedDay = %v, %v; want %v, %v", day, ok, tt.wantDay, tt.wantOK)
			}
		})
	}
}

func TestDimmed(t *testing.T) {
	p := desc("a", time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC))
	day := photo.DayOf(p.CapturedAt)

	if Dimmed(p, day, true) {
		t.Error("photo on the lock day must not be dimmed")
	}
	if !Dimmed(p, day.AddDays(1), true) {
		t.Error("photo on another day must be dimmed")
	}
	if Dimmed(p, day.AddDays(1), false) {
		t.Error("nothing is dimmed without a lock")
	}
}

func TestAttachSkeletons(t *testing.T) {
	groups := GroupPhotos([]photo.Descriptor{
		desc("a", now),
		desc("b", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)),
	}, now)

	out := AttachSkeletons(groups, 2)
	if out[0].Skeletons != 0 || out[1].Skeletons != 2 {
		t.Errorf("skeletons = %d,%d; want 0,2", out[0].Skeletons, out[1].Skeletons)
	}
	if groups[1].Skeletons != 0 {
		t.Error("AttachSkeletons must not modify its input")
	}

	cleared := AttachSkeletons(out, 0)
	if cleared[1].Skeletons != 0 {
		t.Error("n=0 should clear skeletons")
	}
	if got := AttachSkeletons(nil, 3); len(got) != 0 {
		t.Error("no groups means nothing to attach to")
	}
}
