package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/sandeepkv93/healthd/internal/reminder"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.String())
}

func newProfileCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "Manage profiles"}

	var id string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			p, err := a.svc.CreateProfile(cmd.Context(), reminder.NewProfile{ID: id, Name: args[0]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created profile %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	add.Flags().StringVar(&id, "id", "", "profile id (default: generated)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			profiles, err := a.svc.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(profiles))
			for _, p := range profiles {
				rows = append(rows, []string{p.ID, p.Name, p.CreatedAt.In(a.loc).Format("2006-01-02")})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "Name", "Created"}, rows)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a profile (its schedules and logs are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			removed, err := a.svc.DeleteProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("profile %s: %w", args[0], reminder.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted profile %s (schedules and logs kept)\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, remove)
	return cmd
}

// scheduleFlags are shared by medicine add, feeding add and schedules edit.
type scheduleFlags struct {
	dosage      string
	notes       string
	timesPerDay int
	at          string
	every       int
	days        int
	reminders   int
	start       string
}

func (f *scheduleFlags) register(cmd *cobra.Command, medicine bool) {
	flags := cmd.Flags()
	if medicine {
		flags.StringVar(&f.dosage, "dosage", "", "dosage, e.g. 500mg")
		flags.IntVar(&f.timesPerDay, "times-per-day", 1, "doses per day")
	}
	flags.StringVar(&f.notes, "notes", "", "free-form notes (markdown)")
	flags.StringVar(&f.at, "at", "", "daily time of day, HH:MM")
	flags.IntVar(&f.every, "every", 0, "interval in hours")
	flags.IntVar(&f.days, "days", 0, "stop after this many days (0 = unbounded)")
	flags.IntVar(&f.reminders, "reminders", 0, "stop after this many reminders (0 = unbounded)")
	flags.StringVar(&f.start, "start", "", "start date, YYYY-MM-DD (default: now)")
}

func (f *scheduleFlags) cadence() (model.Cadence, error) {
	switch {
	case f.at != "" && f.every != 0:
		return model.Cadence{}, errors.New("use either --at or --every, not both")
	case f.at != "":
		return model.Cadence{Type: model.CadenceFixedTime, TimeOfDay: f.at}, nil
	case f.every != 0:
		return model.Cadence{Type: model.CadenceInterval, IntervalHours: f.every}, nil
	default:
		return model.Cadence{}, errors.New("one of --at or --every is required")
	}
}

func (f *scheduleFlags) startDate(loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(f.start) == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", f.start, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--start %q must be YYYY-MM-DD", f.start)
	}
	return t, nil
}

func newScheduleAddCommand(opts *rootOptions, kind model.ScheduleKind) *cobra.Command {
	f := &scheduleFlags{}
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: fmt.Sprintf("Create a %s schedule", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			cadence, err := f.cadence()
			if err != nil {
				return err
			}
			start, err := f.startDate(a.loc)
			if err != nil {
				return err
			}
			sched, err := a.svc.CreateSchedule(cmd.Context(), reminder.NewSchedule{
				ProfileID:   a.cfg.Profile,
				Kind:        kind,
				Name:        args[0],
				Dosage:      f.dosage,
				Notes:       f.notes,
				TimesPerDay: f.timesPerDay,
				Cadence:     cadence,
				Bounds:      model.Bounds{TotalDays: f.days, TotalReminders: f.reminders},
				StartDate:   start,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s schedule %s (%s, %s)\n", sched.Kind, sched.ID, sched.Name, sched.Cadence)
			return nil
		},
	}
	f.register(cmd, kind == model.ScheduleKindMedicine)
	return cmd
}

func newMedicineCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "medicine", Short: "Manage medicine schedules"}
	cmd.AddCommand(newScheduleAddCommand(opts, model.ScheduleKindMedicine))
	return cmd
}

func newFeedingCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "feeding", Short: "Manage feeding schedules and entries"}

	var scheduleID, amount, notes string
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Record a completed feeding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			entry, err := a.svc.RecordFeeding(cmd.Context(), reminder.FeedingEntry{
				ProfileID:  a.cfg.Profile,
				ScheduleID: scheduleID,
				Amount:     amount,
				Notes:      notes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded feeding %s\n", entry.ID)
			return nil
		},
	}
	logCmd.Flags().StringVar(&scheduleID, "schedule", "", "feeding schedule id (empty records an ad-hoc entry)")
	logCmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 120ml")
	logCmd.Flags().StringVar(&notes, "notes", "", "notes")

	var minutes int
	snooze := &cobra.Command{
		Use:   "snooze <schedule-id>",
		Short: "Snooze a feeding reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			entry, err := a.svc.SnoozeFeeding(cmd.Context(), args[0], minutes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "feeding snoozed until %s\n", entry.SnoozeUntil.In(a.loc).Format("15:04"))
			return nil
		},
	}
	snooze.Flags().IntVar(&minutes, "minutes", 10, "snooze length in minutes")

	list := &cobra.Command{
		Use:   "history",
		Short: "List feeding entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			logs, err := a.svc.ListFeedingLogs(cmd.Context(), a.cfg.Profile)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(logs))
			for _, l := range logs {
				schedule := l.ScheduleID
				if l.AdHoc() {
					schedule = "(ad-hoc)"
				}
				rows = append(rows, []string{l.CreatedAt.In(a.loc).Format("2006-01-02 15:04"), schedule, string(l.Status), l.Amount, l.Notes})
			}
			printTable(cmd.OutOrStdout(), []string{"When", "Schedule", "Status", "Amount", "Notes"}, rows)
			return nil
		},
	}

	cmd.AddCommand(newScheduleAddCommand(opts, model.ScheduleKindFeeding), logCmd, snooze, list)
	return cmd
}

func newSchedulesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "schedules", Short: "List and control schedules"}

	var kind string
	list := &cobra.Command{
		Use:   "list",
		Short: "List schedules with their next reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()
			schedules, err := a.svc.ListSchedules(ctx, a.cfg.Profile, model.ScheduleKind(kind))
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(schedules))
			for _, s := range schedules {
				next := "-"
				if s.Runnable() {
					if at, ok, err := a.svc.NextFire(ctx, s.ID); err == nil && ok {
						next = at.In(a.loc).Format("Mon 02 Jan 15:04")
					}
				}
				rows = append(rows, []string{s.ID, string(s.Kind), s.Name, s.Cadence.String(), scheduleState(s), fmt.Sprint(s.RemindersSent), next})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "Kind", "Name", "Cadence", "State", "Sent", "Next"}, rows)
			return nil
		},
	}
	list.Flags().StringVar(&kind, "kind", "", "medicine or feeding (default: both)")

	pause := &cobra.Command{
		Use:   "pause <id>",
		Short: "Pause or resume a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			sched, err := a.svc.TogglePause(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", sched.Name, scheduleState(sched))
			return nil
		},
	}

	stop := &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop a schedule for good",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			sched, err := a.svc.StopSchedule(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stopped %s\n", sched.Name)
			return nil
		},
	}

	var policy string
	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()
			sched, err := a.svc.GetSchedule(ctx, args[0])
			if err != nil {
				return err
			}
			p := reminder.DefaultDeletePolicy(sched.Kind)
			switch policy {
			case "":
			case "cascade":
				p = reminder.DeleteCascade
			case "retain":
				p = reminder.DeleteRetainLogs
			default:
				return fmt.Errorf("--logs %q must be cascade or retain", policy)
			}
			if _, err := a.svc.DeleteSchedule(ctx, sched.ID, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (logs: %s)\n", sched.Name, p)
			return nil
		},
	}
	remove.Flags().StringVar(&policy, "logs", "", "cascade or retain (default: retain for medicine, cascade for feeding)")

	cmd.AddCommand(list, newScheduleEditCommand(opts), pause, stop, remove)
	return cmd
}

func newScheduleEditCommand(opts *rootOptions) *cobra.Command {
	f := &scheduleFlags{}
	var name string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a schedule's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			flags := cmd.Flags()
			var patch reminder.SchedulePatch
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("dosage") {
				patch.Dosage = &f.dosage
			}
			if flags.Changed("notes") {
				patch.Notes = &f.notes
			}
			if flags.Changed("times-per-day") {
				patch.TimesPerDay = &f.timesPerDay
			}
			if flags.Changed("at") || flags.Changed("every") {
				c, err := f.cadence()
				if err != nil {
					return err
				}
				patch.Cadence = &c
			}
			if flags.Changed("days") || flags.Changed("reminders") {
				current, err := a.svc.GetSchedule(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				b := current.Bounds
				if flags.Changed("days") {
					b.TotalDays = f.days
				}
				if flags.Changed("reminders") {
					b.TotalReminders = f.reminders
				}
				patch.Bounds = &b
			}
			if flags.Changed("start") {
				start, err := f.startDate(a.loc)
				if err != nil {
					return err
				}
				patch.StartDate = &start
			}
			sched, err := a.svc.UpdateSchedule(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s (%s)\n", sched.Name, sched.Cadence)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	f.register(cmd, true)
	return cmd
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
