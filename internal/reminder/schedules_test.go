package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateScheduleDefaultsAndArms(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sched, err := h.svc.CreateSchedule(ctx, medicineInput(daily8am, model.Bounds{TotalDays: 7}))
	require.NoError(t, err)
	assert.NotEmpty(t, sched.ID)
	assert.True(t, sched.IsActive)
	assert.False(t, sched.IsPaused)
	assert.Zero(t, sched.RemindersSent)
	assert.True(t, sched.StartDate.Equal(t0))
	assert.True(t, sched.CreatedAt.Equal(t0))

	ev, ok := h.notifier.get(sched.ID)
	require.True(t, ok, "expected schedule to be armed")
	assert.True(t, ev.FireAt.Equal(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)), "fire at %s", ev.FireAt)
	assert.Equal(t, "medicine", ev.Payload.Kind)
	assert.Equal(t, "Amoxicillin 500mg", ev.Payload.Title)
	assert.Empty(t, ev.Payload.LogID)
}

func TestCreateScheduleValidates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.CreateSchedule(ctx, medicineInput(model.Cadence{Type: model.CadenceInterval}, model.Bounds{}))
	require.ErrorIs(t, err, model.ErrInvalidCadence)

	in := medicineInput(every8h, model.Bounds{})
	in.Name = " "
	_, err = h.svc.CreateSchedule(ctx, in)
	require.Error(t, err)

	_, err = h.svc.CreateSchedule(ctx, medicineInput(every8h, model.Bounds{TotalDays: -1}))
	require.ErrorIs(t, err, model.ErrInvalidBounds)

	in = medicineInput(every8h, model.Bounds{})
	in.Kind = "vaccine"
	_, err = h.svc.CreateSchedule(ctx, in)
	require.ErrorIs(t, err, model.ErrInvalidKind)
}

func TestUpdateScheduleMergesAndRejectsImmutable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sched, err := h.svc.CreateSchedule(ctx, medicineInput(daily8am, model.Bounds{}))
	require.NoError(t, err)

	other := "profile-2"
	_, err = h.svc.UpdateSchedule(ctx, sched.ID, SchedulePatch{ProfileID: &other})
	require.ErrorIs(t, err, ErrImmutableField)
	newID := "x"
	_, err = h.svc.UpdateSchedule(ctx, sched.ID, SchedulePatch{ID: &newID})
	require.ErrorIs(t, err, ErrImmutableField)
	created := t0.Add(time.Hour)
	_, err = h.svc.UpdateSchedule(ctx, sched.ID, SchedulePatch{CreatedAt: &created})
	require.ErrorIs(t, err, ErrImmutableField)

	h.clock.Advance(10 * time.Minute)
	name := "Amoxicillin forte"
	cadence := model.Cadence{Type: model.CadenceFixedTime, TimeOfDay: "09:30"}
	updated, err := h.svc.UpdateSchedule(ctx, sched.ID, SchedulePatch{Name: &name, Cadence: &cadence})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, sched.ProfileID, updated.ProfileID)
	assert.True(t, updated.CreatedAt.Equal(sched.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(sched.UpdatedAt))

	ev, ok := h.notifier.get(sched.ID)
	require.True(t, ok)
	assert.Equal(t, 9, ev.FireAt.Hour())
	assert.Equal(t, 30, ev.FireAt.Minute())

	_, err = h.svc.UpdateSchedule(ctx, "missing", SchedulePatch{Name: &name})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateScheduleStopsWhenBoundAlreadyReached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sched, err := h.svc.CreateSchedule(ctx, medicineInput(every8h, model.Bounds{TotalReminders: 5}))
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := h.svc.CreateOccurrence(ctx, sched.ID)
		require.NoError(t, err)
	}
	_, ok := h.notifier.get(sched.ID)
	require.True(t, ok)

	bounds := model.Bounds{TotalReminders: 2}
	updated, err := h.svc.UpdateSchedule(ctx, sched.ID, SchedulePatch{Bounds: &bounds})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	_, ok = h.notifier.get(sched.ID)
	assert.False(t, ok, "exhausted schedule must not stay armed")

	stored, err := h.svc.GetSchedule(ctx, sched.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, 2, stored.RemindersSent)
}

func TestTogglePauseCancelsAndResumes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sched, err := h.svc.CreateSchedule(ctx, medicineInput(daily8am, model.Bounds{TotalReminders: 4}))
	require.NoError(t, err)

	paused, err := h.svc.TogglePause(ctx, sched.ID)
	require.NoError(t, err)
	assert.True(t, paused.IsPaused)
	assert.Equal(t, sched.Bounds, paused.Bounds)
	_, ok := h.notifier.get(sched.ID)
	assert.False(t, ok, "paused schedule must not stay armed")

	_, ok, err = h.svc.NextFire(ctx, sched.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	resumed, err := h.svc.TogglePause(ctx, sched.ID)
	require.NoError(t, err)
	assert.False(t, resumed.IsPaused)
	_, ok = h.notifier.get(sched.ID)
	assert.True(t, ok, "resumed schedule must be re-armed")

	_, err = h.svc.TogglePause(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStopThenNextFireIsNone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sched, err := h.svc.CreateSchedule(ctx, medicineInput(every8h, model.Bounds{}))
	require.NoError(t, err)

	stopped, err := h.svc.StopSchedule(ctx, sched.ID)
	require.NoError(t, err)
	assert.False(t, stopped.IsActive)

	_, ok, err := h.svc.NextFire(ctx, sched.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	_, armed := h.notifier.get(sched.ID)
	assert.False(t, armed)

	// Stopping is terminal: resuming a paused flag does not revive it.
	_, err = h.svc.TogglePause(ctx, sched.ID)
	require.NoError(t, err)
	_, err = h.svc.TogglePause(ctx, sched.ID)
	require.NoError(t, err)
	_, ok, err = h.svc.NextFire(ctx, sched.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.svc.CreateOccurrence(ctx, sched.ID)
	require.ErrorIs(t, err, ErrScheduleInactive)

	_, err = h.svc.StopSchedule(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSchedulePolicies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	feeding, err := h.svc.CreateSchedule(ctx, feedingInput(every8h, model.Bounds{}))
	require.NoError(t, err)
	medicine, err := h.svc.CreateSchedule(ctx, medicineInput(every8h, model.Bounds{}))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := h.svc.RecordFeeding(ctx, FeedingEntry{ScheduleID: feeding.ID, Amount: "120ml"})
		require.NoError(t, err)
		_, err = h.svc.CreateOccurrence(ctx, medicine.ID)
		require.NoError(t, err)
		h.clock.Advance(time.Minute)
	}
	_, err = h.svc.RecordFeeding(ctx, FeedingEntry{ProfileID: "profile-1", Amount: "snack"})
	require.NoError(t, err)

	feedingBefore, err := h.svc.ListFeedingLogs(ctx, "profile-1")
	require.NoError(t, err)
	medicineBefore, err := h.svc.ListMedicineLogs(ctx, "profile-1")
	require.NoError(t, err)

	ok, err := h.svc.DeleteSchedule(ctx, feeding.ID, DefaultDeletePolicy(feeding.Kind))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = h.svc.DeleteSchedule(ctx, medicine.ID, DefaultDeletePolicy(medicine.Kind))
	require.NoError(t, err)
	require.True(t, ok)

	feedingAfter, err := h.svc.ListFeedingLogs(ctx, "profile-1")
	require.NoError(t, err)
	medicineAfter, err := h.svc.ListMedicineLogs(ctx, "profile-1")
	require.NoError(t, err)
	assert.Len(t, feedingAfter, len(feedingBefore)-3)
	assert.Len(t, medicineAfter, len(medicineBefore))

	_, armed := h.notifier.get(feeding.ID)
	assert.False(t, armed)

	ok, err = h.svc.DeleteSchedule(ctx, feeding.ID, DeleteCascade)
	require.NoError(t, err)
	assert.False(t, ok, "deleting a missing schedule reports false")
}

func TestDeleteMedicineWithCascadePolicy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	medicine, err := h.svc.CreateSchedule(ctx, medicineInput(every8h, model.Bounds{}))
	require.NoError(t, err)
	_, err = h.svc.CreateOccurrence(ctx, medicine.ID)
	require.NoError(t, err)

	ok, err := h.svc.DeleteSchedule(ctx, medicine.ID, DeleteCascade)
	require.NoError(t, err)
	require.True(t, ok)
	logs, err := h.svc.ListMedicineLogs(ctx, "profile-1")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestListSchedulesNewestFirst(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.CreateSchedule(ctx, medicineInput(daily8am, model.Bounds{}))
	require.NoError(t, err)
	h.clock.Advance(time.Minute)
	second, err := h.svc.CreateSchedule(ctx, feedingInput(every8h, model.Bounds{}))
	require.NoError(t, err)
	h.clock.Advance(time.Minute)
	third, err := h.svc.CreateSchedule(ctx, medicineInput(every8h, model.Bounds{}))
	require.NoError(t, err)

	all, err := h.svc.ListSchedules(ctx, "profile-1", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	meds, err := h.svc.ListSchedules(ctx, "profile-1", model.ScheduleKindMedicine)
	require.NoError(t, err)
	require.Len(t, meds, 2)
	assert.Equal(t, third.ID, meds[0].ID)

	_, err = h.svc.ListSchedules(ctx, "profile-1", "vaccine")
	require.True(t, errors.Is(err, model.ErrInvalidKind))
}

func TestDefaultDeletePolicy(t *testing.T) {
	assert.Equal(t, DeleteRetainLogs, DefaultDeletePolicy(model.ScheduleKindMedicine))
	assert.Equal(t, DeleteCascade, DefaultDeletePolicy(model.ScheduleKindFeeding))
	assert.Equal(t, "retain", DeleteRetainLogs.String())
}
