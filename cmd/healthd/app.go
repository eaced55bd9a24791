package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/healthd/internal/config"
	"github.com/sandeepkv93/healthd/internal/logging"
	"github.com/sandeepkv93/healthd/internal/metrics"
	"github.com/sandeepkv93/healthd/internal/reminder"
	"github.com/sandeepkv93/healthd/internal/scheduler"
	"github.com/sandeepkv93/healthd/internal/screentime"
	"github.com/sandeepkv93/healthd/internal/storage"
	"github.com/sandeepkv93/healthd/internal/update"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// app is the wired runtime shared by every command.
type app struct {
	cfg     config.RuntimeConfig
	loc     *time.Location
	log     *logrus.Logger
	repo    *storage.SQLiteRepository
	metrics *metrics.Metrics
	engine  *scheduler.Engine
	svc     *reminder.Service
	tracker *screentime.Tracker

	closers []io.Closer
}

type logTarget int

const (
	logStderr logTarget = iota
	// logFile keeps the terminal clean while the TUI owns it.
	logFile
)

func openApp(cfg config.RuntimeConfig, target logTarget, withEngine bool) (*app, error) {
	a := &app{cfg: cfg}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a.loc = loc

	switch target {
	case logFile:
		l, closer, err := logging.OpenFile(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return nil, err
		}
		a.log = l
		a.closers = append(a.closers, closer)
	default:
		a.log = logging.New(cfg.LogLevel, nil)
	}

	repo, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	a.repo = repo
	a.closers = append(a.closers, repo)

	m, err := metrics.New()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.metrics = m

	opts := []reminder.Option{
		reminder.WithLogger(a.log),
		reminder.WithMetrics(m),
		reminder.WithLocation(loc),
	}
	if withEngine {
		a.engine = scheduler.NewEngine(cfg.SchedulerBuffer)
		opts = append(opts, reminder.WithNotifier(a.engine))
	}
	svc, err := reminder.New(repo, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.svc = svc
	a.tracker = screentime.New(repo,
		screentime.WithLogger(a.log),
		screentime.WithMetrics(m),
		screentime.WithLocation(loc),
	)
	return a, nil
}

func (a *app) Close() {
	if a.engine != nil {
		a.engine.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && a.log != nil {
			a.log.WithError(err).Warn("close failed")
		}
	}
	a.closers = nil
}

// startup recovers state a previous process left behind: an open screen-time session and
// the in-memory notification queue.
func (a *app) startup(ctx context.Context) (screentime.Recovery, error) {
	if _, err := a.svc.EnsureProfile(ctx, a.cfg.Profile); err != nil {
		return screentime.Recovery{}, err
	}
	rec, err := a.tracker.Reconcile(ctx)
	if err != nil {
		return screentime.Recovery{}, err
	}
	a.engine.Start()
	if _, err := a.svc.Rearm(ctx); err != nil {
		return rec, err
	}
	return rec, nil
}

// dispatch turns fired engine events into reminders until the engine stops.
func (a *app) dispatch(ctx context.Context, deliver func(reminder.Reminder)) error {
	var retried uint64
	for ev := range a.engine.C() {
		if n := a.engine.Retried(); n != retried {
			a.log.WithField("retried", n).Warn("reminder delivery fell behind")
			retried = n
		}
		r, ok, err := a.svc.Fired(ctx, ev)
		if err != nil {
			a.log.WithField("schedule_id", ev.Payload.ScheduleID).WithError(err).Error("handle fired reminder failed")
			continue
		}
		if !ok {
			continue
		}
		a.log.WithFields(logrus.Fields{
			"schedule_id": r.ScheduleID,
			"log_id":      r.LogID,
			"resurfaced":  r.Resurfaced,
		}).Info("reminder due")
		deliver(r)
	}
	return nil
}

// serveMetrics runs the metrics endpoint until ctx ends. An empty address disables it.
func (a *app) serveMetrics(ctx context.Context) error {
	if a.cfg.MetricsAddr == "" {
		return nil
	}
	srv, err := a.metrics.Server(a.cfg.MetricsAddr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	a.log.WithField("addr", a.cfg.MetricsAddr).Info("metrics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func runTUI(ctx context.Context, cfg config.RuntimeConfig) error {
	a, err := openApp(cfg, logFile, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	rec, err := a.startup(ctx)
	if err != nil {
		return err
	}

	var notifier update.DesktopNotifier = update.NoopDesktopNotifier{}
	if cfg.DesktopNotifications {
		notifier = update.ExecDesktopNotifier{}
	}
	model := update.NewModel(ctx, update.Backend{Service: a.svc, Tracker: a.tracker}, cfg, notifier)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.dispatch(gctx, func(r reminder.Reminder) {
			program.Send(update.ReminderMsg{Reminder: r})
		})
	})
	g.Go(func() error { return a.serveMetrics(gctx) })
	g.Go(func() error {
		defer cancel()
		defer a.engine.Stop()
		if rec.Active {
			go program.Send(update.SetStatusMsg{Text: fmt.Sprintf("resumed screen time session (%s so far)", rec.Elapsed.Round(time.Second))})
		}
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
	return g.Wait()
}

// runDaemon delivers reminders to the log and desktop without a terminal UI.
func runDaemon(ctx context.Context, cfg config.RuntimeConfig) error {
	a, err := openApp(cfg, logStderr, true)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.startup(ctx)
	if err != nil {
		return err
	}
	if rec.Active {
		a.log.WithField("elapsed", rec.Elapsed.Round(time.Second).String()).Info("screen time session still open")
	}

	var desktop update.DesktopNotifier = update.NoopDesktopNotifier{}
	if cfg.DesktopNotifications {
		desktop = update.ExecDesktopNotifier{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.dispatch(gctx, func(r reminder.Reminder) {
			if err := desktop.Send(update.Notification{Title: "healthd", Body: r.Title, Level: "reminder", At: r.At}); err != nil {
				a.log.WithError(err).Warn("desktop notification failed")
			}
		})
	})
	g.Go(func() error { return a.serveMetrics(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		a.engine.Stop()
		return nil
	})
	a.log.WithField("profile", cfg.Profile).Info("healthd running")
	return g.Wait()
}
