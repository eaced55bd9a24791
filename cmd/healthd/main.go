package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandeepkv93/healthd/internal/config"
	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags. Set flags override the loaded configuration.
type rootOptions struct {
	configFile string
	envFile    string
	dbPath     string
	profile    string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "healthd failed: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "healthd",
		Short:         "Medicine, feeding and screen-time tracker",
		Long:          "healthd keeps medicine and feeding schedules, reminds you when they are due and tracks screen time. Without a subcommand it opens the terminal UI.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), cfg)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "path to healthd.yaml")
	flags.StringVar(&opts.envFile, "env-file", "", "path to a .env file (default .env)")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite database path")
	flags.StringVarP(&opts.profile, "profile", "p", "", "profile to act on")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCommand(opts),
		newProfileCommand(opts),
		newMedicineCommand(opts),
		newFeedingCommand(opts),
		newSchedulesCommand(opts),
		newLogCommand(opts),
		newScreenTimeCommand(opts),
		newExportCommand(opts),
	)
	return root
}

func (o *rootOptions) load(cmd *cobra.Command) (config.RuntimeConfig, error) {
	cfg, err := config.Load(config.Options{EnvFile: o.envFile, ConfigFile: o.configFile})
	if err != nil {
		return config.RuntimeConfig{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = o.dbPath
	}
	if flags.Changed("profile") {
		cfg.Profile = o.profile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}

// open wires a short-lived app for one CLI command. Without the engine, schedule changes
// are persisted and the next long-running process arms them.
func (o *rootOptions) open(cmd *cobra.Command) (*app, error) {
	cfg, err := o.load(cmd)
	if err != nil {
		return nil, err
	}
	a, err := openApp(cfg, logStderr, false)
	if err != nil {
		return nil, err
	}
	if _, err := a.svc.EnsureProfile(cmd.Context(), cfg.Profile); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Deliver reminders without the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runDaemon(cmd.Context(), cfg)
		},
	}
}
