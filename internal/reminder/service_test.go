package reminder

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/sandeepkv93/healthd/internal/scheduler"
	"github.com/sandeepkv93/healthd/internal/storage"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu        sync.Mutex
	armed     map[string]scheduler.Event
	cancelled []string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{armed: make(map[string]scheduler.Event)}
}

func (f *fakeNotifier) Schedule(ev scheduler.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.armed[ev.EntityID] = ev
	return nil
}

func (f *fakeNotifier) Cancel(entityID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.armed[entityID]
	delete(f.armed, entityID)
	f.cancelled = append(f.cancelled, entityID)
	return ok
}

func (f *fakeNotifier) get(entityID string) (scheduler.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.armed[entityID]
	return ev, ok
}

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

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	svc      *Service
	repo     *storage.SQLiteRepository
	notifier *fakeNotifier
	clock    *testClock
}

var t0 = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "reminder-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	clock := &testClock{now: t0}
	notifier := newFakeNotifier()
	svc, err := New(repo,
		WithNotifier(notifier),
		WithClock(clock.Now),
		WithLocation(time.UTC),
	)
	require.NoError(t, err)
	return &harness{svc: svc, repo: repo, notifier: notifier, clock: clock}
}

func medicineInput(cadence model.Cadence, bounds model.Bounds) NewSchedule {
	return NewSchedule{
		ProfileID:   "profile-1",
		Kind:        model.ScheduleKindMedicine,
		Name:        "Amoxicillin",
		Dosage:      "500mg",
		TimesPerDay: 3,
		Cadence:     cadence,
		Bounds:      bounds,
	}
}

func feedingInput(cadence model.Cadence, bounds model.Bounds) NewSchedule {
	return NewSchedule{
		ProfileID: "profile-1",
		Kind:      model.ScheduleKindFeeding,
		Name:      "Bottle",
		Cadence:   cadence,
		Bounds:    bounds,
	}
}

var (
	daily8am = model.Cadence{Type: model.CadenceFixedTime, TimeOfDay: "08:00"}
	every8h  = model.Cadence{Type: model.CadenceInterval, IntervalHours: 8}
)

func TestNewRequiresRepository(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestProfiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p, err := h.svc.CreateProfile(ctx, NewProfile{Name: "Grandma"})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	ensured, err := h.svc.EnsureProfile(ctx, "default")
	require.NoError(t, err)
	require.Equal(t, "default", ensured.Name)

	again, err := h.svc.EnsureProfile(ctx, "default")
	require.NoError(t, err)
	require.Equal(t, ensured.CreatedAt.Unix(), again.CreatedAt.Unix())

	_, err = h.svc.CreateProfile(ctx, NewProfile{Name: "  "})
	require.Error(t, err)

	ok, err := h.svc.DeleteProfile(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = h.svc.DeleteProfile(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, ok)

	list, err := h.svc.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
