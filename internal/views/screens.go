package views

import (
	"fmt"
	"strings"
)

type TodayItemData struct {
	ID          string
	Kind        string
	Title       string
	Status      string
	When        string
	SnoozeCount int
}

type TodayPanelData struct {
	Due        []TodayItemData
	Upcoming   []TodayItemData
	SelectedID string
	Pending    string
}

type SchedulesPanelData struct {
	TableView string
	Count     int
}

type ScheduleDetailData struct {
	ID           string
	Kind         string
	State        string
	Cadence      string
	NextFire     string
	Later        string
	Bounds       string
	ProgressView string
	NotesView    string
}

type ScreenTimePanelData struct {
	Profile     string
	Active      bool
	Recovered   bool
	Elapsed     string
	Granularity string
	Total       string
	TableView   string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderTodayPanel(data TodayPanelData) string {
	var b strings.Builder
	b.WriteString("today:\n")
	b.WriteString("actions: [j/k]move [t]taken [s]snooze [m]missed [f]feed\n")
	if data.Pending != "" {
		b.WriteString(fmt.Sprintf("\n>> %s\n", data.Pending))
	}
	renderTodaySection(&b, "Due", data.Due, data.SelectedID)
	renderTodaySection(&b, "Upcoming", data.Upcoming, data.SelectedID)
	return strings.TrimSpace(b.String())
}

func renderTodaySection(b *strings.Builder, title string, items []TodayItemData, selectedID string) {
	b.WriteString(fmt.Sprintf("\n%s:\n", title))
	if len(items) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, item := range items {
		cursor := " "
		if selectedID == item.ID {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s %s", cursor, statusBadge(item), item.Title))
		if item.When != "" {
			b.WriteString(fmt.Sprintf(" @%s", item.When))
		}
		if item.SnoozeCount > 0 {
			b.WriteString(fmt.Sprintf(" snoozed:%d", item.SnoozeCount))
		}
		b.WriteString("\n")
	}
}

func statusBadge(item TodayItemData) string {
	switch item.Status {
	case "pending":
		return "[RED]"
	case "snoozed":
		return "[YELLOW]"
	default:
		return "[GREEN]"
	}
}

func RenderSchedulesPanel(data SchedulesPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("schedules (%d):\n", data.Count))
	b.WriteString("actions: [j/k]move [p]pause/resume [x]stop [t]taken now\n")
	if data.Count == 0 {
		b.WriteString("(no schedules)")
		return b.String()
	}
	b.WriteString(data.TableView)
	return strings.TrimSpace(b.String())
}

func RenderScheduleDetail(data ScheduleDetailData) string {
	if strings.TrimSpace(data.ID) == "" {
		return "schedule:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString("schedule:\n")
	b.WriteString(fmt.Sprintf("id: %s\nkind: %s\nstate: %s\ncadence: %s\n", data.ID, data.Kind, data.State, data.Cadence))
	if data.NextFire != "" {
		b.WriteString(fmt.Sprintf("next: %s\n", data.NextFire))
	}
	if data.Later != "" {
		b.WriteString(fmt.Sprintf("then: %s\n", data.Later))
	}
	if data.Bounds != "" {
		b.WriteString(fmt.Sprintf("bounds: %s\n", data.Bounds))
	}
	if data.ProgressView != "" {
		b.WriteString(data.ProgressView + "\n")
	}
	if data.NotesView != "" {
		b.WriteString("\nnotes:\n" + data.NotesView)
	}
	return strings.TrimSpace(b.String())
}

func RenderScreenTimePanel(data ScreenTimePanelData) string {
	var b strings.Builder
	b.WriteString("screen time:\n")
	b.WriteString("actions: [space]start/stop [g]granularity\n")
	b.WriteString(fmt.Sprintf("profile: %s\n", data.Profile))
	if data.Active {
		state := "tracking"
		if data.Recovered {
			state = "tracking (resumed)"
		}
		b.WriteString(fmt.Sprintf("state: %s %s\n", state, data.Elapsed))
	} else {
		b.WriteString("state: idle\n")
	}
	b.WriteString(fmt.Sprintf("\nper %s, total %s:\n", data.Granularity, data.Total))
	b.WriteString(data.TableView)
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s view:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
