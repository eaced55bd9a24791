package update

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/sandeepkv93/healthd/internal/reminder"
	"github.com/sandeepkv93/healthd/internal/scheduler"
	"github.com/sandeepkv93/healthd/internal/screentime"
)

var errNoSelection = errors.New("nothing selected")

func (m Model) handleTodayKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.Today.Cursor > 0 {
			m.Today.Cursor--
		}
	case "down", "j":
		if m.Today.Cursor < len(m.Today.Items)-1 {
			m.Today.Cursor++
		}
	case "t", "f":
		text, err := m.takenTarget()
		return m.finish(text, err)
	case "s":
		text, err := m.snoozeTarget(m.SnoozeMinutes)
		return m.finish(text, err)
	case "m":
		text, err := m.missedTarget()
		return m.finish(text, err)
	}
	return m, nil
}

func (m Model) handleSchedulesKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.Schedules.Cursor > 0 {
			m.Schedules.Cursor--
		}
	case "down", "j":
		if m.Schedules.Cursor < len(m.Schedules.Rows)-1 {
			m.Schedules.Cursor++
		}
	case "p":
		text, err := m.togglePause(selectedScheduleID(m))
		return m.finish(text, err)
	case "x":
		text, err := m.stopSchedule(selectedScheduleID(m))
		return m.finish(text, err)
	case "t":
		text, err := m.takenTarget()
		return m.finish(text, err)
	}
	return m, nil
}

func (m Model) handleScreenKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		action := "start"
		if m.Screen.Active {
			action = "stop"
		}
		text, err := m.track(action)
		return m.finish(text, err)
	case "g":
		switch m.Screen.Granularity {
		case screentime.Day:
			m.Screen.Granularity = screentime.Week
		case screentime.Week:
			m.Screen.Granularity = screentime.Month
		default:
			m.Screen.Granularity = screentime.Day
		}
		m.Status = StatusBar{Text: "screen time per " + string(m.Screen.Granularity)}
		return m, m.refreshCmd()
	}
	return m, nil
}

// finish reports an action's outcome and reloads the views.
func (m Model) finish(text string, err error) (Model, tea.Cmd) {
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: text}
	return m, m.refreshCmd()
}

// actionPayload is what the UI has in focus: the open alert first, else the selected row.
func (m Model) actionPayload() (scheduler.Payload, error) {
	if m.Alert != nil {
		return scheduler.Payload{
			Kind:       string(m.Alert.Kind),
			ScheduleID: m.Alert.ScheduleID,
			LogID:      m.Alert.LogID,
			ProfileID:  m.Alert.ProfileID,
			Title:      m.Alert.Title,
		}, nil
	}
	switch m.CurrentView {
	case ViewSchedules:
		row, ok := m.currentSchedule()
		if !ok {
			return scheduler.Payload{}, errNoSelection
		}
		return scheduler.Payload{Kind: row.Kind, ScheduleID: row.ID, ProfileID: m.ProfileID, Title: row.Name}, nil
	default:
		item, ok := m.currentTodayItem()
		if !ok {
			return scheduler.Payload{}, errNoSelection
		}
		kind := model.ScheduleKindFeeding
		if item.Kind == reminder.BoundedRetry {
			kind = model.ScheduleKindMedicine
		}
		return scheduler.Payload{
			Kind:       string(kind),
			ScheduleID: item.ScheduleID,
			LogID:      item.LogID,
			ProfileID:  item.ProfileID,
			Title:      item.Title,
		}, nil
	}
}

func (m *Model) takenTarget() (string, error) {
	p, err := m.actionPayload()
	if err != nil {
		return "", err
	}
	return m.taken(p)
}

func (m *Model) taken(p scheduler.Payload) (string, error) {
	if m.backend.Service == nil {
		return "", errors.New("reminders are not available")
	}
	res, err := m.backend.Service.HandleAction(m.ctx, reminder.Action{ID: reminder.ActionTaken, Payload: p})
	if err != nil {
		return "", err
	}
	m.clearAlert(p)
	if res.Kind == reminder.AppendOnly {
		return fmt.Sprintf("feeding recorded: %s", p.Title), nil
	}
	return fmt.Sprintf("taken: %s", p.Title), nil
}

func (m *Model) snoozeTarget(minutes int) (string, error) {
	p, err := m.actionPayload()
	if err != nil {
		return "", err
	}
	return m.snooze(p, minutes)
}

func (m *Model) snooze(p scheduler.Payload, minutes int) (string, error) {
	if m.backend.Service == nil {
		return "", errors.New("reminders are not available")
	}
	if p.Kind == string(model.ScheduleKindMedicine) && p.LogID == "" {
		return "", errors.New("nothing is due to snooze")
	}
	res, err := m.backend.Service.HandleAction(m.ctx, reminder.Action{ID: reminder.ActionSnooze, Payload: p, Minutes: minutes})
	if err != nil {
		return "", err
	}
	m.clearAlert(p)
	switch {
	case res.MarkedAsMissed:
		return fmt.Sprintf("snooze limit reached, marked missed: %s", p.Title), nil
	case res.Kind == reminder.BoundedRetry && res.Medicine.SnoozeUntil != nil:
		return fmt.Sprintf("snoozed %s until %s (%d/%d)", p.Title,
			res.Medicine.SnoozeUntil.In(m.Location).Format("15:04"), res.Medicine.SnoozeCount, reminder.MaxSnoozes), nil
	case res.Feeding.SnoozeUntil != nil:
		return fmt.Sprintf("snoozed %s until %s", p.Title, res.Feeding.SnoozeUntil.In(m.Location).Format("15:04")), nil
	default:
		return fmt.Sprintf("snoozed %s", p.Title), nil
	}
}

func (m *Model) missedTarget() (string, error) {
	p, err := m.actionPayload()
	if err != nil {
		return "", err
	}
	if m.backend.Service == nil {
		return "", errors.New("reminders are not available")
	}
	if p.LogID == "" || p.Kind != string(model.ScheduleKindMedicine) {
		return "", errors.New("only a due medicine can be marked missed")
	}
	if _, err := m.backend.Service.MarkMissed(m.ctx, p.LogID); err != nil {
		return "", err
	}
	m.clearAlert(p)
	return fmt.Sprintf("missed: %s", p.Title), nil
}

func (m *Model) clearAlert(p scheduler.Payload) {
	if m.Alert != nil && m.Alert.ScheduleID == p.ScheduleID {
		m.Alert = nil
	}
}

func (m *Model) feed(amount string) (string, error) {
	if m.backend.Service == nil {
		return "", errors.New("reminders are not available")
	}
	entry, err := m.backend.Service.RecordFeeding(m.ctx, reminder.FeedingEntry{ProfileID: m.ProfileID, Amount: strings.TrimSpace(amount)})
	if err != nil {
		return "", err
	}
	if entry.Amount != "" {
		return fmt.Sprintf("feeding recorded: %s", entry.Amount), nil
	}
	return "feeding recorded", nil
}

func selectedScheduleID(m Model) string {
	if m.CurrentView == ViewSchedules {
		if row, ok := m.currentSchedule(); ok {
			return row.ID
		}
		return ""
	}
	if item, ok := m.currentTodayItem(); ok {
		return item.ScheduleID
	}
	return ""
}

func (m *Model) togglePause(id string) (string, error) {
	if id == "" {
		return "", errNoSelection
	}
	if m.backend.Service == nil {
		return "", errors.New("reminders are not available")
	}
	s, err := m.backend.Service.TogglePause(m.ctx, id)
	if err != nil {
		return "", err
	}
	if s.IsPaused {
		return fmt.Sprintf("paused: %s", s.Name), nil
	}
	return fmt.Sprintf("resumed: %s", s.Name), nil
}

func (m *Model) stopSchedule(id string) (string, error) {
	if id == "" {
		return "", errNoSelection
	}
	if m.backend.Service == nil {
		return "", errors.New("reminders are not available")
	}
	s, err := m.backend.Service.StopSchedule(m.ctx, id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("stopped: %s", s.Name), nil
}

func (m *Model) track(action string) (string, error) {
	if m.backend.Tracker == nil {
		return "", errors.New("screen time is not available")
	}
	if action == "start" {
		if _, err := m.backend.Tracker.Start(m.ctx, m.ProfileID); err != nil {
			return "", err
		}
		m.Screen.Active = true
		return "screen time started", nil
	}
	session, err := m.backend.Tracker.Stop(m.ctx)
	if err != nil {
		return "", err
	}
	m.Screen.Active = false
	return fmt.Sprintf("screen time stopped: %s", formatDuration(session.Duration())), nil
}

func (m Model) currentTodayItem() (TodayItem, bool) {
	if m.Today.Cursor < 0 || m.Today.Cursor >= len(m.Today.Items) {
		return TodayItem{}, false
	}
	return m.Today.Items[m.Today.Cursor], true
}

func (m Model) currentSchedule() (ScheduleRow, bool) {
	if m.Schedules.Cursor < 0 || m.Schedules.Cursor >= len(m.Schedules.Rows) {
		return ScheduleRow{}, false
	}
	return m.Schedules.Rows[m.Schedules.Cursor], true
}

// todaySchedule is the schedule behind the selected Today row.
func (m Model) todaySchedule() ScheduleRow {
	item, ok := m.currentTodayItem()
	if !ok {
		return ScheduleRow{}
	}
	for _, r := range m.Schedules.Rows {
		if r.ID == item.ScheduleID {
			return r
		}
	}
	return ScheduleRow{}
}
