package update

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/healthd/internal/config"
	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/sandeepkv93/healthd/internal/reminder"
	"github.com/sandeepkv93/healthd/internal/scheduler"
	"github.com/sandeepkv93/healthd/internal/screentime"
	"github.com/sandeepkv93/healthd/internal/storage"
)

var t0 = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingNotifier struct {
	sent []Notification
}

func (r *recordingNotifier) Send(n Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

type fixture struct {
	model    Model
	svc      *reminder.Service
	clock    *testClock
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "ui.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	clock := &testClock{now: t0}
	svc, err := reminder.New(repo, reminder.WithClock(clock.Now), reminder.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	tracker := screentime.New(repo, screentime.WithClock(clock.Now), screentime.WithLocation(time.UTC))

	cfg := config.DefaultRuntimeConfig()
	cfg.Profile = "profile-1"
	cfg.Timezone = "UTC"
	cfg.DesktopNotifications = true
	notifier := &recordingNotifier{}
	m := NewModel(context.Background(), Backend{Service: svc, Tracker: tracker, Now: clock.Now}, cfg, notifier)
	return &fixture{model: m, svc: svc, clock: clock, notifier: notifier}
}

// send applies msg and then any reload it asked for.
func (f *fixture) send(t *testing.T, msg tea.Msg) {
	t.Helper()
	updated, cmd := f.model.Update(msg)
	f.model = updated.(Model)
	if cmd == nil {
		return
	}
	if data, ok := cmd().(DataMsg); ok {
		updated, _ = f.model.Update(data)
		f.model = updated.(Model)
	}
}

func (f *fixture) refresh(t *testing.T) {
	t.Helper()
	f.send(t, f.model.refreshCmd()())
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (f *fixture) medicine(t *testing.T) model.Schedule {
	t.Helper()
	s, err := f.svc.CreateSchedule(context.Background(), reminder.NewSchedule{
		ProfileID:   "profile-1",
		Kind:        model.ScheduleKindMedicine,
		Name:        "Amoxicillin",
		Dosage:      "500mg",
		TimesPerDay: 1,
		Cadence:     model.Cadence{Type: model.CadenceFixedTime, TimeOfDay: "08:00"},
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	return s
}

// fire delivers the schedule's 08:00 reminder the way the dispatch loop does.
func (f *fixture) fire(t *testing.T, s model.Schedule) reminder.Reminder {
	t.Helper()
	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	f.clock.Set(at)
	r, ok, err := f.svc.Fired(context.Background(), scheduler.Event{
		EntityID: s.ID,
		FireAt:   at,
		Payload:  scheduler.Payload{Kind: string(s.Kind), ScheduleID: s.ID, ProfileID: s.ProfileID},
	})
	if err != nil || !ok {
		t.Fatalf("fired: ok=%v err=%v", ok, err)
	}
	f.send(t, ReminderMsg{Reminder: r})
	return r
}

func TestNewModelDefaults(t *testing.T) {
	f := newFixture(t)
	if f.model.CurrentView != ViewToday {
		t.Fatalf("expected default view %q, got %q", ViewToday, f.model.CurrentView)
	}
	if f.model.Keys.Quit != "q" {
		t.Fatalf("expected quit key q, got %q", f.model.Keys.Quit)
	}
	if f.model.SnoozeMinutes != 10 {
		t.Fatalf("expected default snooze 10, got %d", f.model.SnoozeMinutes)
	}
	if f.model.Screen.Granularity != screentime.Day {
		t.Fatalf("expected day granularity, got %q", f.model.Screen.Granularity)
	}
}

func TestUpdateKeySwitchesView(t *testing.T) {
	f := newFixture(t)
	f.send(t, keyRunes("2"))
	if f.model.CurrentView != ViewSchedules {
		t.Fatalf("expected schedules view, got %q", f.model.CurrentView)
	}
	f.send(t, keyRunes("3"))
	if f.model.CurrentView != ViewScreenTime {
		t.Fatalf("expected screen time view, got %q", f.model.CurrentView)
	}
	f.send(t, SwitchViewMsg{View: View("Unknown")})
	if f.model.CurrentView != ViewScreenTime {
		t.Fatalf("expected view unchanged for unknown view, got %q", f.model.CurrentView)
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	f := newFixture(t)
	f.send(t, SetStatusMsg{Text: "ready"})
	if f.model.Status.Text != "ready" || f.model.Status.IsError {
		t.Fatalf("unexpected status: %+v", f.model.Status)
	}

	f.send(t, AppErrorMsg{Err: errors.New("boom")})
	if f.model.LastError == nil || f.model.LastError.Error() != "boom" {
		t.Fatalf("expected last error boom, got: %v", f.model.LastError)
	}
	if !f.model.Status.IsError || f.model.Status.Text != "boom" {
		t.Fatalf("unexpected error status: %+v", f.model.Status)
	}

	f.send(t, ClearStatusMsg{})
	if f.model.Status.Text != "" || f.model.Status.IsError {
		t.Fatalf("expected cleared status, got: %+v", f.model.Status)
	}
}

func TestRefreshListsSchedulesAndUpcoming(t *testing.T) {
	f := newFixture(t)
	s := f.medicine(t)
	f.refresh(t)

	if len(f.model.Schedules.Rows) != 1 || f.model.Schedules.Rows[0].ID != s.ID {
		t.Fatalf("unexpected schedule rows: %+v", f.model.Schedules.Rows)
	}
	row := f.model.Schedules.Rows[0]
	if row.State != "active" || !row.HasNext || row.NextFire.Hour() != 8 {
		t.Fatalf("unexpected row: %+v", row)
	}
	if len(f.model.Today.Items) != 1 || f.model.Today.Items[0].Due {
		t.Fatalf("expected one upcoming item, got %+v", f.model.Today.Items)
	}
	if !strings.Contains(f.model.View(), "Amoxicillin 500mg @08:00") {
		t.Fatalf("today view missing upcoming dose:\n%s", f.model.View())
	}
}

func TestScheduleDetailPreviewsLaterFires(t *testing.T) {
	f := newFixture(t)
	s, err := f.svc.CreateSchedule(context.Background(), reminder.NewSchedule{
		ProfileID:   "profile-1",
		Kind:        model.ScheduleKindMedicine,
		Name:        "Iron",
		TimesPerDay: 1,
		Cadence:     model.Cadence{Type: model.CadenceFixedTime, TimeOfDay: "08:00"},
		Bounds:      model.Bounds{TotalReminders: 2},
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	f.refresh(t)

	if len(f.model.Schedules.Rows) != 1 || f.model.Schedules.Rows[0].ID != s.ID {
		t.Fatalf("unexpected schedule rows: %+v", f.model.Schedules.Rows)
	}
	row := f.model.Schedules.Rows[0]
	want := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	if len(row.Later) != 1 || !row.Later[0].Equal(want) {
		t.Fatalf("expected one later fire at %s within the bound, got %v", want, row.Later)
	}
	detail := f.model.renderScheduleDetail(row)
	if !strings.Contains(detail, "next: Mon 02 Mar 08:00") || !strings.Contains(detail, "then: Tue 03 Mar 08:00") {
		t.Fatalf("detail missing fire preview:\n%s", detail)
	}
}

func TestReminderThenTakenClearsAlert(t *testing.T) {
	f := newFixture(t)
	s := f.medicine(t)
	r := f.fire(t, s)

	if f.model.Alert == nil || f.model.Alert.LogID != r.LogID {
		t.Fatalf("expected alert for log %s, got %+v", r.LogID, f.model.Alert)
	}
	if len(f.notifier.sent) == 0 || f.notifier.sent[len(f.notifier.sent)-1].Body != "Amoxicillin 500mg" {
		t.Fatalf("expected desktop notification, got %+v", f.notifier.sent)
	}
	if len(f.model.Today.Items) == 0 || !f.model.Today.Items[0].Due || f.model.Today.Items[0].Status != "pending" {
		t.Fatalf("expected pending due item first, got %+v", f.model.Today.Items)
	}

	f.send(t, keyRunes("t"))
	if f.model.Alert != nil {
		t.Fatalf("expected alert cleared, got %+v", f.model.Alert)
	}
	if f.model.Status.IsError || f.model.Status.Text != "taken: Amoxicillin 500mg" {
		t.Fatalf("unexpected status: %+v", f.model.Status)
	}
	entry, err := f.svc.GetMedicineLog(context.Background(), r.LogID)
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if entry.Status != model.MedicineStatusTaken {
		t.Fatalf("expected taken, got %s", entry.Status)
	}
	for _, item := range f.model.Today.Items {
		if item.Due {
			t.Fatalf("expected no due items after taken, got %+v", item)
		}
	}
}

func TestPaletteSnoozeClampsAndCounts(t *testing.T) {
	f := newFixture(t)
	s := f.medicine(t)
	f.fire(t, s)

	f.send(t, keyRunes("/"))
	if !f.model.Palette.Active {
		t.Fatal("expected palette active")
	}
	f.send(t, keyRunes("snooze 45"))
	f.send(t, tea.KeyMsg{Type: tea.KeyEnter})

	if f.model.Palette.Active {
		t.Fatal("expected palette closed")
	}
	if f.model.Status.IsError || f.model.Status.Text != "snoozed Amoxicillin 500mg until 08:30 (1/3)" {
		t.Fatalf("unexpected status: %+v", f.model.Status)
	}
	if f.model.Alert != nil {
		t.Fatal("expected alert cleared by snooze")
	}
}

func TestSnoozeUpcomingMedicineFails(t *testing.T) {
	f := newFixture(t)
	f.medicine(t)
	f.refresh(t)

	f.send(t, keyRunes("s"))
	if !f.model.Status.IsError || f.model.Status.Text != "nothing is due to snooze" {
		t.Fatalf("unexpected status: %+v", f.model.Status)
	}
}

func TestPauseFromSchedulesView(t *testing.T) {
	f := newFixture(t)
	f.medicine(t)
	f.refresh(t)

	f.send(t, keyRunes("2"))
	f.send(t, keyRunes("p"))
	if f.model.Status.Text != "paused: Amoxicillin" {
		t.Fatalf("unexpected status: %+v", f.model.Status)
	}
	if f.model.Schedules.Rows[0].State != "paused" || f.model.Schedules.Rows[0].HasNext {
		t.Fatalf("expected paused row without next fire, got %+v", f.model.Schedules.Rows[0])
	}

	f.send(t, keyRunes("p"))
	if f.model.Schedules.Rows[0].State != "active" {
		t.Fatalf("expected resumed row, got %+v", f.model.Schedules.Rows[0])
	}
}

func TestScreenTimeToggle(t *testing.T) {
	f := newFixture(t)
	f.send(t, keyRunes("3"))
	f.send(t, tea.KeyMsg{Type: tea.KeySpace})
	if f.model.Status.Text != "screen time started" || !f.model.Screen.Active {
		t.Fatalf("unexpected state after start: %+v %+v", f.model.Status, f.model.Screen)
	}

	f.clock.Set(t0.Add(20 * time.Minute))
	f.send(t, tea.KeyMsg{Type: tea.KeySpace})
	if f.model.Status.Text != "screen time stopped: 00:20:00" || f.model.Screen.Active {
		t.Fatalf("unexpected state after stop: %+v %+v", f.model.Status, f.model.Screen)
	}
	if screentime.Total(f.model.Screen.Buckets) != 20*time.Minute {
		t.Fatalf("expected 20m rolled up, got %s", screentime.Total(f.model.Screen.Buckets))
	}

	f.send(t, keyRunes("g"))
	if f.model.Screen.Granularity != screentime.Week {
		t.Fatalf("expected week granularity, got %q", f.model.Screen.Granularity)
	}
}

func TestPaletteFeedRecordsAdHocEntry(t *testing.T) {
	f := newFixture(t)
	f.send(t, keyRunes("/"))
	f.send(t, keyRunes("feed 120ml"))
	f.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	if f.model.Status.Text != "feeding recorded: 120ml" {
		t.Fatalf("unexpected status: %+v", f.model.Status)
	}
	logs, err := f.svc.ListFeedingLogs(context.Background(), "profile-1")
	if err != nil || len(logs) != 1 || !logs[0].AdHoc() {
		t.Fatalf("expected one ad-hoc feeding, got %+v err=%v", logs, err)
	}
}

func TestPaletteUnknownCommand(t *testing.T) {
	f := newFixture(t)
	f.send(t, keyRunes("/"))
	f.send(t, keyRunes("weigh 3kg"))
	f.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	if !f.model.Status.IsError || !strings.Contains(f.model.Status.Text, "unknown_command") {
		t.Fatalf("unexpected status: %+v", f.model.Status)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(90*time.Minute + 5*time.Second); got != "01:30:05" {
		t.Fatalf("formatDuration = %q", got)
	}
	if got := formatDuration(-time.Second); got != "00:00:00" {
		t.Fatalf("negative formatDuration = %q", got)
	}
}

func TestHelpShowsViewBindings(t *testing.T) {
	f := newFixture(t)
	f.send(t, keyRunes("?"))
	if !f.model.HelpVisible {
		t.Fatalf("expected help to be visible")
	}
	if out := f.model.renderHelpIfVisible(); !strings.Contains(out, "- m: missed") {
		t.Fatalf("expected today bindings, got %q", out)
	}

	f.send(t, keyRunes("3"))
	if out := f.model.renderHelpIfVisible(); !strings.Contains(out, "- g: day/week/month") {
		t.Fatalf("expected screen time bindings, got %q", out)
	}

	f.send(t, keyRunes("?"))
	if f.model.renderHelpIfVisible() != "" {
		t.Fatalf("expected help hidden")
	}
}
