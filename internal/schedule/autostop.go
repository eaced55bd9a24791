package schedule

import (
	"time"

	"github.com/sandeepkv93/healthd/internal/model"
)

const day = 24 * time.Hour

// ElapsedDays is floor((now - start) / 24h), never negative.
func ElapsedDays(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(now.Sub(start) / day)
}

// ShouldStop reports whether an active schedule has reached either auto-stop bound.
// Both bounds are checked independently. Already stopped schedules report false.
func ShouldStop(s model.Schedule, now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.Bounds.TotalDays > 0 && ElapsedDays(s.StartDate, now) >= s.Bounds.TotalDays {
		return true
	}
	if s.Bounds.TotalReminders > 0 && s.RemindersSent >= s.Bounds.TotalReminders {
		return true
	}
	return false
}
