package update

import (
	"context"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/sandeepkv93/healthd/internal/reminder"
	"github.com/sandeepkv93/healthd/internal/schedule"
	"github.com/sandeepkv93/healthd/internal/screentime"
)

func (m Model) refreshCmd() tea.Cmd {
	ctx, backend, profileID, gran, loc := m.ctx, m.backend, m.ProfileID, m.Screen.Granularity, m.Location
	return func() tea.Msg {
		return load(ctx, backend, profileID, gran, loc)
	}
}

func load(ctx context.Context, b Backend, profileID string, gran screentime.Granularity, loc *time.Location) DataMsg {
	var out DataMsg
	if b.Service != nil {
		today, rows, err := loadReminders(ctx, b.Service, profileID)
		if err != nil {
			return DataMsg{Err: err}
		}
		out.Today, out.Schedules = today, rows
	}
	if b.Tracker != nil {
		screen, err := loadScreen(ctx, b.Tracker, profileID, gran, b.Now().In(loc))
		if err != nil {
			return DataMsg{Err: err}
		}
		out.Screen = screen
	}
	return out
}

const previewFires = 3

// laterFires previews the cadence fires that follow next, stopping at the reminder bound.
func laterFires(s model.Schedule, next time.Time) []time.Time {
	preview := schedule.Upcoming(s, nil, next, previewFires)
	if len(preview) < 2 {
		return nil
	}
	later := preview[1:]
	if s.Bounds.TotalReminders > 0 {
		left := s.Bounds.TotalReminders - s.RemindersSent - 1
		if left < 0 {
			left = 0
		}
		if left < len(later) {
			later = later[:left]
		}
	}
	return later
}

func loadReminders(ctx context.Context, svc *reminder.Service, profileID string) ([]TodayItem, []ScheduleRow, error) {
	schedules, err := svc.ListSchedules(ctx, profileID, "")
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[string]model.Schedule, len(schedules))
	rows := make([]ScheduleRow, 0, len(schedules))
	upcoming := make([]TodayItem, 0)
	for _, s := range schedules {
		byID[s.ID] = s
		row := ScheduleRow{
			ID:            s.ID,
			Kind:          string(s.Kind),
			Name:          s.Name,
			Dosage:        s.Dosage,
			Notes:         s.Notes,
			Cadence:       s.Cadence.String(),
			State:         scheduleState(s),
			RemindersSent: s.RemindersSent,
			TotalDays:     s.Bounds.TotalDays,
			TotalRems:     s.Bounds.TotalReminders,
		}
		if s.Runnable() {
			next, ok, err := svc.NextFire(ctx, s.ID)
			if err != nil {
				return nil, nil, err
			}
			row.NextFire, row.HasNext = next, ok
			if ok {
				row.Later = laterFires(s, next)
				upcoming = append(upcoming, TodayItem{
					ID:         "next:" + s.ID,
					Kind:       reminder.KindOf(s.Kind),
					ScheduleID: s.ID,
					ProfileID:  s.ProfileID,
					Title:      displayName(s),
					Status:     "upcoming",
					At:         next,
				})
			}
		}
		rows = append(rows, row)
	}

	open, err := svc.OpenMedicineLogs(ctx, profileID)
	if err != nil {
		return nil, nil, err
	}
	due := make([]TodayItem, 0, len(open))
	for _, l := range open {
		at := l.CreatedAt
		if l.SnoozeUntil != nil {
			at = *l.SnoozeUntil
		}
		title := l.ScheduleID
		if s, ok := byID[l.ScheduleID]; ok {
			title = displayName(s)
		}
		due = append(due, TodayItem{
			ID:          l.ID,
			Kind:        reminder.BoundedRetry,
			ScheduleID:  l.ScheduleID,
			LogID:       l.ID,
			ProfileID:   l.ProfileID,
			Title:       title,
			Status:      string(l.Status),
			At:          at,
			SnoozeCount: l.SnoozeCount,
			Due:         true,
		})
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].At.Before(due[j].At) })
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].At.Before(upcoming[j].At) })
	return append(due, upcoming...), rows, nil
}

func loadScreen(ctx context.Context, tr *screentime.Tracker, profileID string, gran screentime.Granularity, now time.Time) (ScreenState, error) {
	st := ScreenState{Granularity: gran}
	elapsed, active, err := tr.Elapsed(ctx)
	if err != nil {
		return ScreenState{}, err
	}
	st.Active, st.Elapsed = active, elapsed
	st.Recovered = active && tr.Recovered()

	to := screentime.BucketStart(gran, now)
	var from time.Time
	switch gran {
	case screentime.Month:
		from = to.AddDate(0, -5, 0)
	case screentime.Week:
		from = to.AddDate(0, 0, -7*3)
	default:
		from = to.AddDate(0, 0, -6)
	}
	buckets, err := tr.Rollup(ctx, profileID, gran, from, now)
	if err != nil {
		return ScreenState{}, err
	}
	st.Buckets = buckets
	return st, nil
}

func scheduleState(s model.Schedule) string {
	switch {
	case !s.IsActive:
		return "stopped"
	case s.IsPaused:
		return "paused"
	default:
		return "active"
	}
}

func displayName(s model.Schedule) string {
	if s.Kind == model.ScheduleKindFeeding {
		return "Feeding: " + s.Name
	}
	if s.Dosage != "" {
		return s.Name + " " + s.Dosage
	}
	return s.Name
}
