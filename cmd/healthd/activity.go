package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sandeepkv93/healthd/internal/export"
	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/sandeepkv93/healthd/internal/screentime"
	"github.com/spf13/cobra"
)

func newLogCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Answer and inspect medicine reminders"}

	var openOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List medicine logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()
			var logs []model.MedicineLog
			if openOnly {
				logs, err = a.svc.OpenMedicineLogs(ctx, a.cfg.Profile)
			} else {
				logs, err = a.svc.ListMedicineLogs(ctx, a.cfg.Profile)
			}
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(logs))
			for _, l := range logs {
				until := ""
				if l.SnoozeUntil != nil {
					until = l.SnoozeUntil.In(a.loc).Format("15:04")
				}
				rows = append(rows, []string{l.ID, l.ScheduleID, string(l.Status), fmt.Sprint(l.SnoozeCount), until, l.CreatedAt.In(a.loc).Format("2006-01-02 15:04")})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "Schedule", "Status", "Snoozes", "Until", "Created"}, rows)
			return nil
		},
	}
	list.Flags().BoolVar(&openOnly, "open", false, "only pending and snoozed logs")

	due := &cobra.Command{
		Use:   "due <schedule-id>",
		Short: "Open a medicine occurrence now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			entry, err := a.svc.CreateOccurrence(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "opened %s\n", entry.ID)
			return nil
		},
	}

	taken := &cobra.Command{
		Use:   "taken <log-id>",
		Short: "Mark a dose taken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			entry, err := a.svc.MarkTaken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", entry.ID, entry.Status)
			return nil
		},
	}

	missed := &cobra.Command{
		Use:   "missed <log-id>",
		Short: "Mark a dose missed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			entry, err := a.svc.MarkMissed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", entry.ID, entry.Status)
			return nil
		},
	}

	var minutes int
	snooze := &cobra.Command{
		Use:   "snooze <log-id>",
		Short: "Snooze a dose",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.svc.SnoozeMedicine(cmd.Context(), args[0], minutes)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.MarkedAsMissed {
				fmt.Fprintf(out, "%s: snooze limit reached, marked missed\n", res.Medicine.ID)
				return nil
			}
			fmt.Fprintf(out, "%s: snoozed until %s (%d snoozes)\n", res.Medicine.ID, res.Medicine.SnoozeUntil.In(a.loc).Format("15:04"), res.Medicine.SnoozeCount)
			return nil
		},
	}
	snooze.Flags().IntVar(&minutes, "minutes", 10, "snooze length in minutes (capped at 30)")

	sweep := &cobra.Command{
		Use:   "sweep <schedule-id>",
		Short: "Mark overdue open doses missed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			n, err := a.svc.SweepOverdue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "marked %d missed\n", n)
			return nil
		},
	}

	cmd.AddCommand(list, due, taken, missed, snooze, sweep)
	return cmd
}

func newScreenTimeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "screentime", Short: "Track screen time"}

	start := &cobra.Command{
		Use:   "start",
		Short: "Start a tracking session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			st, err := a.tracker.Start(cmd.Context(), a.cfg.Profile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tracking since %s\n", st.StartedAt.In(a.loc).Format("15:04:05"))
			return nil
		},
	}

	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the tracking session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			session, err := a.tracker.Stop(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s\n", session.Duration().Round(time.Second))
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the running session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			elapsed, active, err := a.tracker.Elapsed(cmd.Context())
			if err != nil {
				return err
			}
			if !active {
				fmt.Fprintln(cmd.OutOrStdout(), "idle")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tracking %s\n", elapsed.Round(time.Second))
			return nil
		},
	}

	var by, from, to string
	report := &cobra.Command{
		Use:   "report",
		Short: "Total screen time per day, week or month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := screentime.ParseGranularity(by)
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			end := time.Now().In(a.loc)
			if to != "" {
				if end, err = time.ParseInLocation("2006-01-02", to, a.loc); err != nil {
					return fmt.Errorf("--to %q must be YYYY-MM-DD", to)
				}
				end = end.AddDate(0, 0, 1)
			}
			begin := screentime.BucketStart(g, end).AddDate(0, 0, -6)
			switch g {
			case screentime.Week:
				begin = screentime.BucketStart(g, end).AddDate(0, 0, -21)
			case screentime.Month:
				begin = screentime.BucketStart(g, end).AddDate(0, -5, 0)
			}
			if from != "" {
				if begin, err = time.ParseInLocation("2006-01-02", from, a.loc); err != nil {
					return fmt.Errorf("--from %q must be YYYY-MM-DD", from)
				}
			}
			buckets, err := a.tracker.Rollup(cmd.Context(), a.cfg.Profile, g, begin, end)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(buckets)+1)
			for _, b := range buckets {
				rows = append(rows, []string{b.Start.Format("2006-01-02"), b.Total.Round(time.Second).String(), fmt.Sprint(b.Sessions)})
			}
			rows = append(rows, []string{"total", screentime.Total(buckets).Round(time.Second).String(), ""})
			printTable(cmd.OutOrStdout(), []string{"From", "Total", "Sessions"}, rows)
			return nil
		},
	}
	report.Flags().StringVar(&by, "by", "day", "day, week or month")
	report.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	report.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default: today)")

	cmd.AddCommand(start, stop, status, report)
	return cmd
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var format, collection, out string
	var all bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored data as JSON, YAML or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format == "csv" && collection == "" {
				return fmt.Errorf("csv export needs --collection (one of %s)", strings.Join(export.Collections(), ", "))
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			profile := a.cfg.Profile
			if all {
				profile = ""
			}
			snap, err := export.Collect(cmd.Context(), a.repo, profile, time.Now())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			switch format {
			case "json":
				return export.WriteJSON(w, snap)
			case "yaml", "yml":
				return export.WriteYAML(w, snap)
			case "csv":
				return export.WriteCSV(w, snap, collection)
			default:
				return fmt.Errorf("--format %q must be json, yaml or csv", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json, yaml or csv")
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "collection for csv output")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&all, "all-profiles", false, "export every profile")
	return cmd
}
