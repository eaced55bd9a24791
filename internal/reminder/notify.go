package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/sandeepkv93/healthd/internal/schedule"
	"github.com/sandeepkv93/healthd/internal/scheduler"
	"github.com/sandeepkv93/healthd/internal/storage"
	"github.com/sirupsen/logrus"
)

// ActionID is what the user pressed on a delivered notification.
type ActionID string

const (
	ActionTaken  ActionID = "taken"
	ActionSnooze ActionID = "snooze"
)

type Action struct {
	ID      ActionID
	Payload scheduler.Payload
	Minutes int
}

type ActionResult struct {
	Kind           OccurrenceKind
	Medicine       model.MedicineLog
	Feeding        model.FeedingLog
	MarkedAsMissed bool
}

// Reminder is a fired notification ready to show.
type Reminder struct {
	Kind       model.ScheduleKind
	ScheduleID string
	LogID      string
	ProfileID  string
	Title      string
	At         time.Time
	// Resurfaced is set when a snooze ran out rather than the cadence firing.
	Resurfaced bool
}

func title(s model.Schedule) string {
	if s.Kind == model.ScheduleKindFeeding {
		return "Feeding: " + s.Name
	}
	if s.Dosage != "" {
		return fmt.Sprintf("%s %s", s.Name, s.Dosage)
	}
	return s.Name
}

// plan works out the schedule's next notification. firedAt, when set, is the cadence fire
// just handled. Together with the persisted LastFiredAt it keeps the plan from landing on a
// slot that already fired, including across restarts.
func (s *Service) plan(ctx context.Context, sched model.Schedule, now, firedAt time.Time) (scheduler.Event, bool, error) {
	if !sched.Runnable() {
		return scheduler.Event{}, false, nil
	}

	since := schedule.StartOfDay(now)
	var entries []schedule.Entry
	ids := make([]string, 0)
	switch sched.Kind {
	case model.ScheduleKindMedicine:
		logs, err := s.repo.ListMedicineLogs(ctx, storage.MedicineLogListFilter{ScheduleID: sched.ID, Since: &since})
		if err != nil {
			return scheduler.Event{}, false, err
		}
		entries = schedule.MedicineEntries(logs)
		for _, l := range logs {
			ids = append(ids, l.ID)
		}
	default:
		logs, err := s.repo.ListFeedingLogs(ctx, storage.FeedingLogListFilter{ScheduleID: sched.ID, Since: &since})
		if err != nil {
			return scheduler.Event{}, false, err
		}
		entries = schedule.FeedingEntries(logs)
		for _, l := range logs {
			ids = append(ids, l.ID)
		}
	}

	next, ok := schedule.NextFireTime(sched, schedule.Today(entries, now), now)
	if !ok {
		return scheduler.Event{}, false, nil
	}

	logID := ""
	for i, e := range entries {
		if e.Open && e.SnoozeUntil != nil && e.SnoozeUntil.After(now) && e.SnoozeUntil.Equal(next) {
			logID = ids[i]
			break
		}
	}
	anchor := firedAt
	if sched.LastFiredAt != nil && sched.LastFiredAt.After(anchor) {
		anchor = *sched.LastFiredAt
	}
	if logID == "" && !anchor.IsZero() {
		next = floorAfterFire(sched, next, anchor)
	}

	return scheduler.Event{
		EntityID: sched.ID,
		FireAt:   next,
		Payload: scheduler.Payload{
			Kind:       string(sched.Kind),
			ScheduleID: sched.ID,
			LogID:      logID,
			ProfileID:  sched.ProfileID,
			Title:      title(sched),
		},
	}, true, nil
}

// floorAfterFire keeps a cadence from firing twice for one slot. Feeding leaves no log when
// it fires, so an interval schedule would otherwise be "due now" again immediately, and
// after midnight a medicine interval would lose yesterday's log as its anchor.
func floorAfterFire(sched model.Schedule, next, firedAt time.Time) time.Time {
	switch sched.Cadence.Type {
	case model.CadenceInterval:
		floor := firedAt.Add(time.Duration(sched.Cadence.IntervalHours) * time.Hour)
		if next.Before(floor) {
			return floor
		}
	case model.CadenceFixedTime:
		if !next.After(firedAt) {
			if later, ok := schedule.NextFireTime(sched, nil, firedAt.Add(time.Second)); ok {
				return later
			}
		}
	}
	return next
}

// NextFire reports when the schedule will notify next, or false when it never will.
func (s *Service) NextFire(ctx context.Context, scheduleID string) (time.Time, bool, error) {
	sched, err := s.repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return time.Time{}, false, s.fail("next fire", scheduleFields(scheduleID), err)
	}
	ev, ok, err := s.plan(ctx, sched, s.clock(), time.Time{})
	if err != nil {
		return time.Time{}, false, s.fail("next fire", scheduleFields(scheduleID), err)
	}
	return ev.FireAt, ok, nil
}

func (s *Service) arm(ctx context.Context, sched model.Schedule, now time.Time) {
	s.armAfter(ctx, sched, now, time.Time{})
}

// armAfter hands the schedule's next event to the notifier, or cancels it when the
// schedule has none. Failures are logged and counted; arming never fails the caller.
func (s *Service) armAfter(ctx context.Context, sched model.Schedule, now, firedAt time.Time) {
	fields := logrus.Fields{"schedule_id": sched.ID, "profile_id": sched.ProfileID}
	ev, ok, err := s.plan(ctx, sched, now, firedAt)
	if err != nil {
		s.metrics.NotificationFailed(string(sched.Kind))
		s.log.WithFields(fields).WithError(err).Warn("plan notification failed")
		return
	}
	if !ok {
		s.notifier.Cancel(sched.ID)
		return
	}
	if err := s.notifier.Schedule(ev); err != nil {
		s.metrics.NotificationFailed(string(sched.Kind))
		s.log.WithFields(fields).WithError(err).Warn("arm notification failed")
		return
	}
	s.metrics.NotificationArmed(string(sched.Kind))
	s.log.WithFields(fields).WithFields(logrus.Fields{
		"fire_at": ev.FireAt.Format(time.RFC3339),
		"log_id":  ev.Payload.LogID,
	}).Debug("notification armed")
}

func (s *Service) rearm(ctx context.Context, scheduleID string, now time.Time) {
	sched, err := s.repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.WithField("schedule_id", scheduleID).WithError(err).Warn("load schedule for re-arm failed")
		}
		return
	}
	s.arm(ctx, sched, now)
}

// Rearm arms every active schedule. It runs at start-up, since armed events live only in
// memory. A snooze that ran out while the process was down comes back due now.
func (s *Service) Rearm(ctx context.Context) (int, error) {
	active := true
	list, err := s.repo.ListSchedules(ctx, storage.ScheduleListFilter{Active: &active})
	if err != nil {
		return 0, s.fail("rearm", nil, err)
	}
	now := s.clock()
	armed := 0
	for _, sched := range list {
		if !sched.Runnable() {
			continue
		}
		s.arm(ctx, sched, now)
		armed++
	}
	s.log.WithField("schedules", armed).Info("notifications re-armed")
	return armed, nil
}

// Fired handles a notification the scheduler delivered. It reports false when there is
// nothing to show, such as a schedule stopped or deleted after the event was armed.
func (s *Service) Fired(ctx context.Context, ev scheduler.Event) (Reminder, bool, error) {
	p := ev.Payload
	sched, err := s.repo.GetSchedule(ctx, p.ScheduleID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Reminder{}, false, nil
		}
		return Reminder{}, false, s.fail("fired", scheduleFields(p.ScheduleID), err)
	}
	if !sched.Runnable() {
		return Reminder{}, false, nil
	}

	now := s.clock()
	out := Reminder{
		Kind:       sched.Kind,
		ScheduleID: sched.ID,
		ProfileID:  sched.ProfileID,
		Title:      title(sched),
		At:         now,
	}

	if p.LogID != "" {
		out.LogID = p.LogID
		out.Resurfaced = true
		show := true
		if sched.Kind == model.ScheduleKindMedicine {
			entry, err := s.repo.GetMedicineLog(ctx, p.LogID)
			switch {
			case errors.Is(err, storage.ErrNotFound):
				show = false
			case err != nil:
				return Reminder{}, false, s.fail("fired", logrus.Fields{"log_id": p.LogID}, err)
			default:
				show = !entry.Status.IsTerminal()
			}
		}
		s.arm(ctx, sched, now)
		return out, show, nil
	}

	switch sched.Kind {
	case model.ScheduleKindMedicine:
		if _, err := s.SweepOverdue(ctx, sched.ID); err != nil {
			return Reminder{}, false, err
		}
		entry, err := s.CreateOccurrence(ctx, sched.ID)
		if err != nil {
			return Reminder{}, false, err
		}
		out.LogID = entry.ID
	default:
		if _, err := s.FeedingDue(ctx, sched.ID); err != nil {
			return Reminder{}, false, err
		}
	}

	// Reload: the occurrence may have tripped an auto-stop bound.
	current, err := s.repo.GetSchedule(ctx, sched.ID)
	if err != nil {
		return out, true, s.fail("fired", scheduleFields(sched.ID), err)
	}
	s.armAfter(ctx, current, now, ev.FireAt)
	return out, true, nil
}

// HandleAction applies a notification button press to the matching state machine.
func (s *Service) HandleAction(ctx context.Context, a Action) (ActionResult, error) {
	kind := model.ScheduleKind(a.Payload.Kind)
	if !kind.IsValid() {
		return ActionResult{}, fmt.Errorf("%w: %q", model.ErrInvalidKind, a.Payload.Kind)
	}
	s.log.WithFields(logrus.Fields{
		"action":      a.ID,
		"schedule_id": a.Payload.ScheduleID,
		"log_id":      a.Payload.LogID,
	}).Debug("notification action")

	switch a.ID {
	case ActionTaken:
		if kind == model.ScheduleKindFeeding {
			entry, err := s.RecordFeeding(ctx, FeedingEntry{ProfileID: a.Payload.ProfileID, ScheduleID: a.Payload.ScheduleID})
			if err != nil {
				return ActionResult{}, err
			}
			return ActionResult{Kind: AppendOnly, Feeding: entry}, nil
		}
		logID := a.Payload.LogID
		if logID == "" {
			// Taken straight from the schedule, with no reminder outstanding.
			entry, err := s.CreateOccurrence(ctx, a.Payload.ScheduleID)
			if err != nil {
				return ActionResult{}, err
			}
			logID = entry.ID
		}
		entry, err := s.MarkTaken(ctx, logID)
		if err != nil {
			return ActionResult{}, err
		}
		return ActionResult{Kind: BoundedRetry, Medicine: entry}, nil
	case ActionSnooze:
		ref := OccurrenceRef{Kind: KindOf(kind), ID: a.Payload.LogID}
		if ref.Kind == AppendOnly {
			ref.ID = a.Payload.ScheduleID
		}
		res, err := s.Snooze(ctx, ref, a.Minutes)
		if err != nil {
			return ActionResult{}, err
		}
		return ActionResult{
			Kind:           res.Kind,
			Medicine:       res.Medicine,
			Feeding:        res.Feeding,
			MarkedAsMissed: res.MarkedAsMissed,
		}, nil
	default:
		return ActionResult{}, fmt.Errorf("%w: %q", ErrUnknownAction, a.ID)
	}
}
