package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/healthd/internal/views"
)

// bindingSet satisfies help.KeyMap: the short view shows only the per-view keys.
type bindingSet struct {
	global []key.Binding
	view   []key.Binding
}

func (b bindingSet) ShortHelp() []key.Binding { return b.view }

func (b bindingSet) FullHelp() [][]key.Binding { return [][]key.Binding{b.view, b.global} }

func bind(keys, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(keys), key.WithHelp(keys, desc))
}

func (m Model) bindings() bindingSet {
	set := bindingSet{
		global: []key.Binding{
			bind(m.Keys.Today, "today"),
			bind(m.Keys.Schedules, "schedules"),
			bind(m.Keys.ScreenTime, "screen time"),
			bind("/", "command"),
			bind("r", "refresh"),
			bind("esc", "dismiss reminder"),
			bind(m.Keys.Help, "help"),
			bind(m.Keys.Quit, "quit"),
		},
	}
	switch m.CurrentView {
	case ViewToday:
		set.view = []key.Binding{
			bind("j/k", "move"),
			bind("t", "taken / fed"),
			bind("s", fmt.Sprintf("snooze %dm", m.SnoozeMinutes)),
			bind("m", "missed"),
		}
	case ViewSchedules:
		set.view = []key.Binding{
			bind("j/k", "move"),
			bind("p", "pause/resume"),
			bind("x", "stop"),
			bind("t", "taken now"),
		}
	case ViewScreenTime:
		set.view = []key.Binding{
			bind("space", "start/stop"),
			bind("g", "day/week/month"),
		}
	}
	return set
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	set := m.bindings()
	lines := make([]string, 0, len(set.view))
	for _, b := range set.view {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("- %s: %s", h.Key, h.Desc))
	}
	helpModel := m.helpModel
	helpModel.ShowAll = true
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    lines,
		HelpView:    helpModel.View(set),
	})
}
