package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/healthd/internal/screentime"
	"github.com/sandeepkv93/healthd/internal/views"
)

var renderNotes = views.RenderMarkdown

func (m Model) renderTodayView() string {
	selected := ""
	if item, ok := m.currentTodayItem(); ok {
		selected = item.ID
	}
	var due, upcoming []views.TodayItemData
	for _, item := range m.Today.Items {
		data := views.TodayItemData{
			ID:          item.ID,
			Kind:        string(item.Kind),
			Title:       item.Title,
			Status:      item.Status,
			When:        m.clockLabel(item.At),
			SnoozeCount: item.SnoozeCount,
		}
		if item.Due {
			due = append(due, data)
		} else {
			upcoming = append(upcoming, data)
		}
	}
	pending := ""
	if m.Alert != nil {
		pending = m.Alert.Title + " is due"
	}
	return views.RenderTodayPanel(views.TodayPanelData{
		Due:        due,
		Upcoming:   upcoming,
		SelectedID: selected,
		Pending:    pending,
	})
}

func (m Model) renderSchedulesView() string {
	return views.RenderSchedulesPanel(views.SchedulesPanelData{
		TableView: m.schedulesTable.View(),
		Count:     len(m.Schedules.Rows),
	})
}

func (m Model) renderScheduleDetail(row ScheduleRow) string {
	data := views.ScheduleDetailData{
		ID:      row.ID,
		Kind:    row.Kind,
		State:   row.State,
		Cadence: row.Cadence,
	}
	if row.ID == "" {
		return views.RenderScheduleDetail(data)
	}
	if row.HasNext {
		data.NextFire = row.NextFire.In(m.Location).Format("Mon 02 Jan 15:04")
	}
	later := make([]string, 0, len(row.Later))
	for _, t := range row.Later {
		later = append(later, t.In(m.Location).Format("Mon 02 Jan 15:04"))
	}
	data.Later = strings.Join(later, ", ")
	var bounds []string
	if row.TotalRems > 0 {
		bounds = append(bounds, fmt.Sprintf("%d/%d reminders", row.RemindersSent, row.TotalRems))
		data.ProgressView = m.boundsProgress.ViewAs(float64(row.RemindersSent) / float64(row.TotalRems))
	} else if row.RemindersSent > 0 {
		bounds = append(bounds, fmt.Sprintf("%d reminders", row.RemindersSent))
	}
	if row.TotalDays > 0 {
		bounds = append(bounds, fmt.Sprintf("%d days", row.TotalDays))
	}
	data.Bounds = strings.Join(bounds, ", ")
	if strings.TrimSpace(row.Notes) != "" {
		data.NotesView = m.notesViewport.View()
	}
	return views.RenderScheduleDetail(data)
}

func (m Model) renderScreenView() string {
	return views.RenderScreenTimePanel(views.ScreenTimePanelData{
		Profile:     m.ProfileID,
		Active:      m.Screen.Active,
		Recovered:   m.Screen.Recovered,
		Elapsed:     formatDuration(m.Screen.Elapsed),
		Granularity: string(m.Screen.Granularity),
		Total:       formatDuration(screentime.Total(m.Screen.Buckets)),
		TableView:   m.screenTable.View(),
	})
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}

// clockLabel shows a time of day, prefixed with the weekday when it is not today.
func (m Model) clockLabel(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	local := t.In(m.Location)
	now := m.backend.Now().In(m.Location)
	if local.YearDay() == now.YearDay() && local.Year() == now.Year() {
		return local.Format("15:04")
	}
	return local.Format("Mon 15:04")
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	n := Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    m.backend.Now(),
	}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
	if m.DesktopEnabled && m.notifier != nil {
		_ = m.notifier.Send(n)
	}
}
