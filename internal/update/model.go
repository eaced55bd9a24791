package update

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/sandeepkv93/healthd/internal/config"
	"github.com/sandeepkv93/healthd/internal/reminder"
	"github.com/sandeepkv93/healthd/internal/screentime"
)

type View string

const (
	ViewToday      View = "Today"
	ViewSchedules  View = "Schedules"
	ViewScreenTime View = "ScreenTime"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Today      string
	Schedules  string
	ScreenTime string
	Help       string
	Quit       string
}

// Backend is what the UI drives. Service and Tracker share one store.
type Backend struct {
	Service *reminder.Service
	Tracker *screentime.Tracker
	Now     func() time.Time
}

type Model struct {
	CurrentView   View
	ProfileID     string
	SnoozeMinutes int
	Location      *time.Location
	Today         TodayState
	Schedules     SchedulesState
	Screen        ScreenState
	// Alert is the most recent fired reminder still waiting for an answer.
	Alert          *reminder.Reminder
	Palette        CommandPaletteState
	HelpVisible    bool
	Notifications  []Notification
	DesktopEnabled bool
	notifier       DesktopNotifier
	Status         StatusBar
	Keys           GlobalKeyMap
	Quitting       bool
	LastError      error

	ctx     context.Context
	backend Backend

	schedulesTable table.Model
	screenTable    table.Model
	commandInput   textinput.Model
	boundsProgress progress.Model
	helpModel      help.Model
	notesViewport  viewport.Model
	notesSource    string
}

type TodayItem struct {
	ID          string
	Kind        reminder.OccurrenceKind
	ScheduleID  string
	LogID       string
	ProfileID   string
	Title       string
	Status      string
	At          time.Time
	SnoozeCount int
	// Due rows are open occurrences; the rest are upcoming fires.
	Due bool
}

type TodayState struct {
	Items  []TodayItem
	Cursor int
}

type ScheduleRow struct {
	ID            string
	Kind          string
	Name          string
	Dosage        string
	Notes         string
	Cadence       string
	State         string
	RemindersSent int
	TotalDays     int
	TotalRems     int
	NextFire      time.Time
	HasNext       bool
	// Later holds the on-time fires after NextFire, within the reminder bound.
	Later         []time.Time
}

type SchedulesState struct {
	Rows   []ScheduleRow
	Cursor int
}

type ScreenState struct {
	Active      bool
	Recovered   bool
	Elapsed     time.Duration
	Granularity screentime.Granularity
	Buckets     []screentime.Bucket
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// ReminderMsg carries a fired reminder into the UI.
type ReminderMsg struct {
	Reminder reminder.Reminder
}

// RefreshMsg asks the UI to reload its data from the store.
type RefreshMsg struct{}

// DataMsg is the result of a reload.
type DataMsg struct {
	Today     []TodayItem
	Schedules []ScheduleRow
	Screen    ScreenState
	Err       error
}

type TickMsg struct{}

func NewModel(ctx context.Context, backend Backend, cfg config.RuntimeConfig, notifier DesktopNotifier) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if backend.Now == nil {
		backend.Now = time.Now
	}
	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}
	m := Model{
		CurrentView:    ViewToday,
		ProfileID:      cfg.Profile,
		SnoozeMinutes:  cfg.DefaultSnoozeMinutes,
		Location:       loc,
		Screen:         ScreenState{Granularity: screentime.Day},
		DesktopEnabled: cfg.DesktopNotifications,
		notifier:       NoopDesktopNotifier{},
		Keys: GlobalKeyMap{
			Today:      "1",
			Schedules:  "2",
			ScreenTime: "3",
			Help:       "?",
			Quit:       "q",
		},
		ctx:     ctx,
		backend: backend,
	}
	if m.SnoozeMinutes <= 0 {
		m.SnoozeMinutes = config.DefaultRuntimeConfig().DefaultSnoozeMinutes
	}
	if notifier != nil {
		m.notifier = notifier
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.schedulesTable = table.New(
		table.WithColumns([]table.Column{
			{Title: "Kind", Width: 8},
			{Title: "Name", Width: 18},
			{Title: "Cadence", Width: 14},
			{Title: "State", Width: 8},
			{Title: "Next", Width: 6},
		}),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	m.screenTable = table.New(
		table.WithColumns([]table.Column{
			{Title: "From", Width: 12},
			{Title: "Total", Width: 10},
			{Title: "Sessions", Width: 8},
		}),
		table.WithRows([]table.Row{}),
		table.WithHeight(8),
	)

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.boundsProgress = progress.New(progress.WithDefaultGradient(), progress.WithWidth(30))
	m.helpModel = help.New()
	m.notesViewport = viewport.New(44, 8)
}

func (m *Model) syncBubbleData() {
	rows := make([]table.Row, 0, len(m.Schedules.Rows))
	for _, r := range m.Schedules.Rows {
		next := "-"
		if r.HasNext {
			next = r.NextFire.In(m.Location).Format("15:04")
		}
		rows = append(rows, table.Row{r.Kind, r.Name, r.Cadence, r.State, next})
	}
	m.schedulesTable.SetRows(rows)
	if len(rows) > 0 && m.Schedules.Cursor < len(rows) {
		m.schedulesTable.SetCursor(m.Schedules.Cursor)
	}

	buckets := make([]table.Row, 0, len(m.Screen.Buckets))
	for _, b := range m.Screen.Buckets {
		buckets = append(buckets, table.Row{b.Start.Format("2006-01-02"), formatDuration(b.Total), fmt.Sprint(b.Sessions)})
	}
	m.screenTable.SetRows(buckets)

	m.commandInput.SetValue(m.Palette.Input)
	if m.Palette.Active {
		m.commandInput.Focus()
	}

	row, ok := m.currentSchedule()
	if m.CurrentView == ViewToday {
		row, ok = m.todaySchedule(), true
	}
	if ok && row.Notes != "" && row.Notes != m.notesSource {
		m.notesSource = row.Notes
		m.notesViewport.SetContent(renderNotes(row.Notes))
	}
}
