package schedule

import (
	"testing"
	"time"

	"github.com/sandeepkv93/healthd/internal/model"
)

func fixedSchedule(clock string) model.Schedule {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return model.Schedule{
		ID:        "sched-fixed",
		ProfileID: "profile-1",
		Kind:      model.ScheduleKindMedicine,
		Name:      "Vitamin D",
		Cadence:   model.Cadence{Type: model.CadenceFixedTime, TimeOfDay: clock},
		StartDate: start,
		IsActive:  true,
		CreatedAt: start,
	}
}

func intervalSchedule(hours int) model.Schedule {
	s := fixedSchedule("")
	s.ID = "sched-interval"
	s.Cadence = model.Cadence{Type: model.CadenceInterval, IntervalHours: hours}
	return s
}

func TestNextFireTimeFixedTime(t *testing.T) {
	s := fixedSchedule("08:00")

	late := time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC)
	next, ok := NextFireTime(s, nil, late)
	if !ok || next.Format("2006-01-02 15:04") != "2026-02-10 08:00" {
		t.Fatalf("expected tomorrow 08:00, got %s ok=%v", next.Format(time.RFC3339), ok)
	}

	early := time.Date(2026, 2, 9, 7, 0, 0, 0, time.UTC)
	next, ok = NextFireTime(s, nil, early)
	if !ok || next.Format("2006-01-02 15:04") != "2026-02-09 08:00" {
		t.Fatalf("expected today 08:00, got %s ok=%v", next.Format(time.RFC3339), ok)
	}

	exact := time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)
	next, ok = NextFireTime(s, nil, exact)
	if !ok || !next.Equal(exact) {
		t.Fatalf("expected exact clock to be due today, got %s", next.Format(time.RFC3339))
	}
}

func TestNextFireTimeFixedTimeUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	s := fixedSchedule("21:30")
	now := time.Date(2026, 2, 9, 22, 0, 0, 0, loc)
	next, ok := NextFireTime(s, nil, now)
	if !ok || next.Format("2006-01-02 15:04") != "2026-02-10 21:30" {
		t.Fatalf("unexpected local next fire: %s", next.Format(time.RFC3339))
	}
}

func TestNextFireTimeInterval(t *testing.T) {
	s := intervalSchedule(8)
	now := time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC)

	next, ok := NextFireTime(s, nil, now)
	if !ok || !next.Equal(now) {
		t.Fatalf("expected due immediately without logs, got %s ok=%v", next.Format(time.RFC3339), ok)
	}

	todays := []Entry{
		{CreatedAt: time.Date(2026, 2, 9, 1, 0, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2026, 2, 9, 6, 0, 0, 0, time.UTC)},
	}
	next, ok = NextFireTime(s, todays, now)
	if !ok || next.Format("15:04") != "14:00" {
		t.Fatalf("expected last log + 8h, got %s", next.Format(time.RFC3339))
	}
}

func TestNextFireTimePendingSnoozeWins(t *testing.T) {
	s := fixedSchedule("08:00")
	now := time.Date(2026, 2, 9, 7, 0, 0, 0, time.UTC)
	until := now.Add(20 * time.Minute)
	todays := []Entry{{CreatedAt: now.Add(-time.Hour), SnoozeUntil: &until, Open: true}}

	next, ok := NextFireTime(s, todays, now)
	if !ok || !next.Equal(until) {
		t.Fatalf("expected snooze-until to win, got %s", next.Format(time.RFC3339))
	}

	stale := now.Add(-5 * time.Minute)
	todays = []Entry{{CreatedAt: now.Add(-time.Hour), SnoozeUntil: &stale, Open: true}}
	next, _ = NextFireTime(s, todays, now)
	if next.Format("15:04") != "08:00" {
		t.Fatalf("expected stale snooze to be ignored, got %s", next.Format(time.RFC3339))
	}

	closed := []Entry{{CreatedAt: now.Add(-time.Hour), SnoozeUntil: &until, Open: false}}
	next, _ = NextFireTime(s, closed, now)
	if next.Format("15:04") != "08:00" {
		t.Fatalf("expected closed log snooze to be ignored, got %s", next.Format(time.RFC3339))
	}
}

func TestNextFireTimeInactiveOrPaused(t *testing.T) {
	now := time.Date(2026, 2, 9, 7, 0, 0, 0, time.UTC)
	s := fixedSchedule("08:00")
	s.IsPaused = true
	if _, ok := NextFireTime(s, nil, now); ok {
		t.Fatal("expected paused schedule to have no next fire")
	}
	s.IsPaused = false
	s.IsActive = false
	if _, ok := NextFireTime(s, nil, now); ok {
		t.Fatal("expected stopped schedule to have no next fire")
	}
}

func TestTodayFiltersByCalendarDay(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{CreatedAt: time.Date(2026, 2, 8, 23, 59, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2026, 2, 9, 11, 0, 0, 0, time.UTC)},
	}
	if got := len(Today(entries, now)); got != 2 {
		t.Fatalf("expected 2 entries today, got %d", got)
	}
}

func TestUpcomingPreview(t *testing.T) {
	now := time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC)
	list := Upcoming(fixedSchedule("08:00"), nil, now, 3)
	want := []string{"2026-02-10 08:00", "2026-02-11 08:00", "2026-02-12 08:00"}
	if len(list) != len(want) {
		t.Fatalf("expected %d preview items, got %d", len(want), len(list))
	}
	for i := range list {
		if got := list[i].Format("2006-01-02 15:04"); got != want[i] {
			t.Fatalf("preview[%d] got %s want %s", i, got, want[i])
		}
	}

	interval := Upcoming(intervalSchedule(6), nil, now, 3)
	if len(interval) != 3 || interval[2].Sub(interval[0]) != 12*time.Hour {
		t.Fatalf("unexpected interval preview: %v", interval)
	}
}
