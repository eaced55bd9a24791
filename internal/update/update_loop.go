package update

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/healthd/internal/views"
)

const refreshInterval = 15 * time.Second

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return TickMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == m.Keys.Help {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			return m.handlePaletteKey(typed)
		}

		switch typed.String() {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active"}
			return m, nil
		case m.Keys.Today:
			m.CurrentView = ViewToday
			return m, nil
		case m.Keys.Schedules:
			m.CurrentView = ViewSchedules
			return m, nil
		case m.Keys.ScreenTime:
			m.CurrentView = ViewScreenTime
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown"}
			} else {
				m.Status = StatusBar{Text: "help hidden"}
			}
			return m, nil
		case "r":
			m.Status = StatusBar{Text: "refreshing"}
			return m, m.refreshCmd()
		case "esc":
			if m.Alert != nil {
				m.Alert = nil
				m.Status = StatusBar{Text: "reminder dismissed"}
			}
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
		switch m.CurrentView {
		case ViewToday:
			return m.handleTodayKey(typed)
		case ViewSchedules:
			return m.handleSchedulesKey(typed)
		case ViewScreenTime:
			return m.handleScreenKey(typed)
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case ReminderMsg:
		r := typed.Reminder
		m.Alert = &r
		text := fmt.Sprintf("reminder: %s", r.Title)
		if r.Resurfaced {
			text = fmt.Sprintf("snoozed reminder: %s", r.Title)
		}
		m.Status = StatusBar{Text: text}
		m.notify("healthd", r.Title, "reminder")
		return m, m.refreshCmd()
	case RefreshMsg:
		return m, m.refreshCmd()
	case TickMsg:
		return m, tea.Batch(m.refreshCmd(), tickCmd())
	case DataMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			return m, nil
		}
		m.applyData(typed)
		return m, nil
	}
	return m, nil
}

func (m *Model) applyData(d DataMsg) {
	selectedToday := ""
	if item, ok := m.currentTodayItem(); ok {
		selectedToday = item.ID
	}
	m.Today.Items = d.Today
	m.Today.Cursor = indexOr(len(d.Today), func(i int) bool { return d.Today[i].ID == selectedToday }, m.Today.Cursor)

	selectedSchedule := ""
	if row, ok := m.currentSchedule(); ok {
		selectedSchedule = row.ID
	}
	m.Schedules.Rows = d.Schedules
	m.Schedules.Cursor = indexOr(len(d.Schedules), func(i int) bool { return d.Schedules[i].ID == selectedSchedule }, m.Schedules.Cursor)

	gran := m.Screen.Granularity
	m.Screen = d.Screen
	if m.Screen.Granularity == "" {
		m.Screen.Granularity = gran
	}
}

// indexOr finds the row matching keep, falling back to cur clamped into range.
func indexOr(n int, keep func(int) bool, cur int) int {
	for i := 0; i < n; i++ {
		if keep(i) {
			return i
		}
	}
	if cur >= n {
		cur = n - 1
	}
	if cur < 0 {
		cur = 0
	}
	return cur
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		status = "status: " + m.Status.Text
	}
	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewToday:
		leftPane = m.renderTodayView()
		rightPane = m.renderScheduleDetail(m.todaySchedule())
	case ViewSchedules:
		leftPane = m.renderSchedulesView()
		row, _ := m.currentSchedule()
		rightPane = m.renderScheduleDetail(row)
	case ViewScreenTime:
		leftPane = m.renderScreenView()
	}
	rightPane = strings.TrimSpace(strings.Join([]string{rightPane, m.renderCommandPalette(), m.renderHelpIfVisible()}, "\n\n"))

	alert := ""
	if m.Alert != nil {
		alert = fmt.Sprintf("%s  [t]aken [s]nooze %dm [esc]dismiss", m.Alert.Title, m.SnoozeMinutes)
	}
	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("healthd | profile: %s | view: %s", m.ProfileID, m.CurrentView),
		Alert:        alert,
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: m.renderNotificationsView(),
		Footer:       fmt.Sprintf("keys: %s today | %s schedules | %s screen | / cmd | r refresh | %s help | %s quit", m.Keys.Today, m.Keys.Schedules, m.Keys.ScreenTime, m.Keys.Help, m.Keys.Quit),
	})
}

func isKnownView(v View) bool {
	switch v {
	case ViewToday, ViewSchedules, ViewScreenTime:
		return true
	default:
		return false
	}
}
