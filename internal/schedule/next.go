// Package schedule holds the pure cadence computations: when a schedule fires next and
// whether it has run out its auto-stop bounds.
package schedule

import (
	"time"

	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/teambition/rrule-go"
)

// Entry is the slice of an occurrence log the calculator needs, shared by medicine and
// feeding logs.
type Entry struct {
	CreatedAt   time.Time
	SnoozeUntil *time.Time
	Open        bool
}

func MedicineEntries(logs []model.MedicineLog) []Entry {
	out := make([]Entry, 0, len(logs))
	for _, l := range logs {
		out = append(out, Entry{
			CreatedAt:   l.CreatedAt,
			SnoozeUntil: l.SnoozeUntil,
			Open:        !l.Status.IsTerminal(),
		})
	}
	return out
}

func FeedingEntries(logs []model.FeedingLog) []Entry {
	out := make([]Entry, 0, len(logs))
	for _, l := range logs {
		out = append(out, Entry{
			CreatedAt:   l.CreatedAt,
			SnoozeUntil: l.SnoozeUntil,
			Open:        l.Status == model.FeedingStatusSnoozed,
		})
	}
	return out
}

// Today keeps the entries created on now's calendar day in now's location.
func Today(entries []Entry, now time.Time) []Entry {
	start := StartOfDay(now)
	end := start.AddDate(0, 0, 1)
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		at := e.CreatedAt.In(now.Location())
		if !at.Before(start) && at.Before(end) {
			out = append(out, e)
		}
	}
	return out
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NextFireTime returns when the schedule is next due given today's entries. It reports
// false for stopped or paused schedules. A returned time before now means "due now";
// deciding between firing immediately and arming an alarm is the caller's job.
func NextFireTime(s model.Schedule, todays []Entry, now time.Time) (time.Time, bool) {
	if !s.Runnable() {
		return time.Time{}, false
	}
	if until, ok := pendingSnooze(todays, now); ok {
		return until, true
	}
	switch s.Cadence.Type {
	case model.CadenceFixedTime:
		return nextFixedTime(s.Cadence.TimeOfDay, now)
	case model.CadenceInterval:
		if s.Cadence.IntervalHours <= 0 {
			return time.Time{}, false
		}
		latest, ok := latestCreated(todays)
		if !ok {
			return now, true
		}
		return latest.Add(time.Duration(s.Cadence.IntervalHours) * time.Hour), true
	default:
		return time.Time{}, false
	}
}

// Upcoming previews the next count fire times, assuming every reminder fires on time and
// nothing is snoozed.
func Upcoming(s model.Schedule, todays []Entry, now time.Time, count int) []time.Time {
	if count <= 0 {
		return []time.Time{}
	}
	first, ok := NextFireTime(s, todays, now)
	if !ok {
		return []time.Time{}
	}
	out := make([]time.Time, 0, count)
	out = append(out, first)
	for len(out) < count {
		prev := out[len(out)-1]
		var next time.Time
		switch s.Cadence.Type {
		case model.CadenceFixedTime:
			next, ok = nextFixedTime(s.Cadence.TimeOfDay, prev.Add(time.Second))
			if !ok {
				return out
			}
		default:
			next = prev.Add(time.Duration(s.Cadence.IntervalHours) * time.Hour)
		}
		out = append(out, next)
	}
	return out
}

func pendingSnooze(entries []Entry, now time.Time) (time.Time, bool) {
	var best time.Time
	found := false
	for _, e := range entries {
		if !e.Open || e.SnoozeUntil == nil || !e.SnoozeUntil.After(now) {
			continue
		}
		if !found || e.SnoozeUntil.Before(best) {
			best = *e.SnoozeUntil
			found = true
		}
	}
	return best, found
}

func latestCreated(entries []Entry) (time.Time, bool) {
	var latest time.Time
	for _, e := range entries {
		if e.CreatedAt.After(latest) {
			latest = e.CreatedAt
		}
	}
	return latest, !latest.IsZero()
}

// nextFixedTime is inclusive: at exactly HH:MM the answer is today.
func nextFixedTime(clock string, now time.Time) (time.Time, bool) {
	hour, minute, err := model.ParseClock(clock)
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	rule, err := rrule.NewRRule(rrule.ROption{Freq: rrule.DAILY, Dtstart: today})
	if err != nil {
		if today.Before(now) {
			return today.AddDate(0, 0, 1), true
		}
		return today, true
	}
	next := rule.After(now, true)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}
