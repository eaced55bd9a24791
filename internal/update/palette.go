package update

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/healthd/internal/commands"
	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/sandeepkv93/healthd/internal/reminder"
	"github.com/sandeepkv93/healthd/internal/scheduler"
	"github.com/sandeepkv93/healthd/internal/screentime"
	"github.com/sandeepkv93/healthd/internal/storage"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		_ = cmd
		m.Palette.Input = m.commandInput.Value()
	}
	return m, nil
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Taken: func(a commands.TakenArgs) (commands.Result, error) {
			return m.runOnTarget(a.Target, m.taken)
		},
		Snooze: func(a commands.SnoozeArgs) (commands.Result, error) {
			return m.runOnTarget(a.Target, func(p scheduler.Payload) (string, error) {
				return m.snooze(p, a.Minutes)
			})
		},
		Pause: func(a commands.TargetArgs) (commands.Result, error) {
			return result(m.togglePause(m.scheduleTarget(a.Target)))
		},
		Stop: func(a commands.TargetArgs) (commands.Result, error) {
			return result(m.stopSchedule(m.scheduleTarget(a.Target)))
		},
		Feed: func(a commands.FeedArgs) (commands.Result, error) {
			return result(m.feed(a.Amount))
		},
		Track: func(a commands.TrackArgs) (commands.Result, error) {
			return result(m.track(a.Action))
		},
		Show: func(a commands.ShowArgs) (commands.Result, error) {
			switch a.Subject {
			case "today":
				m.CurrentView = ViewToday
			case "schedules":
				m.CurrentView = ViewSchedules
			case "screentime", "screen":
				m.CurrentView = ViewScreenTime
			default:
				g, err := screentime.ParseGranularity(a.Subject)
				if err != nil {
					return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown view: %s", a.Subject)}
				}
				m.CurrentView = ViewScreenTime
				m.Screen.Granularity = g
			}
			return commands.Result{Message: fmt.Sprintf("showing %s", a.Subject)}, nil
		},
	})
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	return m, m.refreshCmd()
}

func result(msg string, err error) (commands.Result, error) {
	if err != nil {
		return commands.Result{}, err
	}
	return commands.Result{Message: msg}, nil
}

// runOnTarget resolves a command target to a payload. "selected" uses the UI focus; an id
// is looked up as a medicine log first, then as a schedule.
func (m *Model) runOnTarget(target string, fn func(scheduler.Payload) (string, error)) (commands.Result, error) {
	var (
		p   scheduler.Payload
		err error
	)
	if target == commands.TargetSelected {
		p, err = m.actionPayload()
	} else {
		p, err = m.lookupPayload(target)
	}
	if err != nil {
		return commands.Result{}, err
	}
	return result(fn(p))
}

func (m Model) lookupPayload(id string) (scheduler.Payload, error) {
	svc := m.backend.Service
	if svc == nil {
		return scheduler.Payload{}, errors.New("reminders are not available")
	}
	entry, err := svc.GetMedicineLog(m.ctx, id)
	if err == nil {
		return scheduler.Payload{
			Kind:       string(model.ScheduleKindMedicine),
			ScheduleID: entry.ScheduleID,
			LogID:      entry.ID,
			ProfileID:  entry.ProfileID,
			Title:      m.scheduleName(entry.ScheduleID),
		}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return scheduler.Payload{}, err
	}
	sched, err := svc.GetSchedule(m.ctx, id)
	if err != nil {
		if errors.Is(err, reminder.ErrNotFound) {
			return scheduler.Payload{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no log or schedule %s", id)}
		}
		return scheduler.Payload{}, err
	}
	return scheduler.Payload{Kind: string(sched.Kind), ScheduleID: sched.ID, ProfileID: sched.ProfileID, Title: displayName(sched)}, nil
}

func (m Model) scheduleTarget(target string) string {
	if target == commands.TargetSelected {
		return selectedScheduleID(m)
	}
	return target
}

func (m Model) scheduleName(id string) string {
	for _, r := range m.Schedules.Rows {
		if r.ID == id {
			return r.Name
		}
	}
	return id
}
