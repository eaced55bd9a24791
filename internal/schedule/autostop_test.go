package schedule

import (
	"testing"
	"time"
)

func TestShouldStopDayBound(t *testing.T) {
	s := intervalSchedule(8)
	s.Bounds.TotalDays = 7

	if ShouldStop(s, s.StartDate.AddDate(0, 0, 6)) {
		t.Fatal("expected schedule to keep running at start+6d")
	}
	if !ShouldStop(s, s.StartDate.AddDate(0, 0, 7)) {
		t.Fatal("expected schedule to stop at start+7d")
	}
	if !ShouldStop(s, s.StartDate.AddDate(0, 0, 8)) {
		t.Fatal("expected schedule to stop at start+8d")
	}
}

func TestShouldStopReminderBound(t *testing.T) {
	s := intervalSchedule(8)
	s.Bounds.TotalReminders = 5
	now := s.StartDate.Add(time.Hour)

	s.RemindersSent = 4
	if ShouldStop(s, now) {
		t.Fatal("expected schedule to keep running at 4 of 5 reminders")
	}
	s.RemindersSent = 5
	if !ShouldStop(s, now) {
		t.Fatal("expected schedule to stop once 5 reminders were sent")
	}
}

func TestShouldStopEitherBound(t *testing.T) {
	s := intervalSchedule(8)
	s.Bounds.TotalDays = 30
	s.Bounds.TotalReminders = 2
	s.RemindersSent = 2
	if !ShouldStop(s, s.StartDate.Add(time.Hour)) {
		t.Fatal("expected count bound to stop schedule even though day bound is far away")
	}

	s.RemindersSent = 0
	if !ShouldStop(s, s.StartDate.AddDate(0, 0, 31)) {
		t.Fatal("expected day bound to stop schedule even though count bound is unmet")
	}
}

func TestShouldStopIgnoresInactiveAndUnbounded(t *testing.T) {
	s := intervalSchedule(8)
	if ShouldStop(s, s.StartDate.AddDate(1, 0, 0)) {
		t.Fatal("expected unbounded schedule to never stop")
	}
	s.Bounds.TotalDays = 1
	s.IsActive = false
	if ShouldStop(s, s.StartDate.AddDate(0, 0, 3)) {
		t.Fatal("expected already stopped schedule to report false")
	}
}

func TestShouldStopMedicineCourseScenario(t *testing.T) {
	s := intervalSchedule(8)
	s.TimesPerDay = 3
	s.Bounds.TotalDays = 5

	var at time.Time
	for i := 1; i <= 15; i++ {
		at = s.StartDate.Add(time.Duration(i*8) * time.Hour)
		s.RemindersSent++
		if i < 15 && ShouldStop(s, at) {
			t.Fatalf("expected schedule running after %d occurrences", i)
		}
	}
	if !ShouldStop(s, at) {
		t.Fatalf("expected day bound reached after 15 occurrences at %s", at.Format(time.RFC3339))
	}
}

func TestElapsedDays(t *testing.T) {
	start := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	if got := ElapsedDays(start, start.Add(47*time.Hour)); got != 1 {
		t.Fatalf("expected 1 elapsed day, got %d", got)
	}
	if got := ElapsedDays(start, start.Add(-time.Hour)); got != 0 {
		t.Fatalf("expected 0 for time before start, got %d", got)
	}
}
