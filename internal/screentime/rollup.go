package screentime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/healthd/internal/storage"
)

type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

func ParseGranularity(v string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(v))); g {
	case Day, Week, Month:
		return g, nil
	default:
		return "", fmt.Errorf("screentime: unknown granularity %q", v)
	}
}

// Bucket is the screen time that fell inside [Start, End).
type Bucket struct {
	Start    time.Time
	End      time.Time
	Total    time.Duration
	Sessions int
}

// BucketStart truncates t to the start of its bucket in t's location. Weeks start Monday.
func BucketStart(g Granularity, t time.Time) time.Time {
	y, m, d := t.Date()
	switch g {
	case Week:
		day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
}

func bucketEnd(g Granularity, start time.Time) time.Time {
	switch g {
	case Week:
		return start.AddDate(0, 0, 7)
	case Month:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

type span struct {
	start, end time.Time
}

// Rollup totals the profile's screen time per bucket over [from, to). Sessions crossing a
// boundary are split between buckets, and an open session counts up to now.
func (t *Tracker) Rollup(ctx context.Context, profileID string, g Granularity, from, to time.Time) ([]Bucket, error) {
	if _, err := ParseGranularity(string(g)); err != nil {
		return nil, err
	}
	if !from.Before(to) {
		return []Bucket{}, nil
	}
	from = from.In(t.loc)
	to = to.In(t.loc)

	sessions, err := t.store.ListScreenTimeSessions(ctx, storage.SessionListFilter{
		ProfileID: profileID,
		From:      &from,
		To:        &to,
	})
	if err != nil {
		t.metrics.StoreError("list_screen_time_sessions")
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	spans := make([]span, 0, len(sessions)+1)
	for _, s := range sessions {
		spans = append(spans, span{start: s.StartedAt, end: s.EndedAt})
	}

	st, err := t.state(ctx)
	if err != nil {
		return nil, err
	}
	if st.Active && st.ProfileID == profileID {
		now := t.clock()
		if now.After(st.StartedAt) {
			spans = append(spans, span{start: st.StartedAt, end: now})
		}
	}

	out := make([]Bucket, 0)
	for start := BucketStart(g, from); start.Before(to); start = bucketEnd(g, start) {
		b := Bucket{Start: start, End: bucketEnd(g, start)}
		lo := maxTime(b.Start, from)
		hi := minTime(b.End, to)
		for _, sp := range spans {
			overlap := minTime(sp.end, hi).Sub(maxTime(sp.start, lo))
			if overlap > 0 {
				b.Total += overlap
				b.Sessions++
			}
		}
		out = append(out, b)
	}
	return out, nil
}

// Total sums the buckets.
func Total(buckets []Bucket) time.Duration {
	var sum time.Duration
	for _, b := range buckets {
		sum += b.Total
	}
	return sum
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
