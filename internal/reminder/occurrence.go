package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/sandeepkv93/healthd/internal/schedule"
	"github.com/sandeepkv93/healthd/internal/storage"
	"github.com/sirupsen/logrus"
)

// Medicine snooze caps. A fourth snooze forces the occurrence to missed.
const (
	MaxSnoozes       = 3
	MaxSnoozeMinutes = 30
)

// OccurrenceKind separates the two reminder lifecycles.
type OccurrenceKind string

const (
	// BoundedRetry occurrences mutate in place, count snoozes and end taken or missed.
	BoundedRetry OccurrenceKind = "bounded_retry"
	// AppendOnly occurrences never mutate; each snooze appends a new log row.
	AppendOnly OccurrenceKind = "append_only"
)

// KindOf maps a schedule kind to its occurrence lifecycle.
func KindOf(k model.ScheduleKind) OccurrenceKind {
	if k == model.ScheduleKindMedicine {
		return BoundedRetry
	}
	return AppendOnly
}

// OccurrenceRef names what to snooze: a medicine log id for BoundedRetry, a feeding
// schedule id for AppendOnly.
type OccurrenceRef struct {
	Kind OccurrenceKind
	ID   string
}

type SnoozeResult struct {
	Kind           OccurrenceKind
	Medicine       model.MedicineLog
	Feeding        model.FeedingLog
	MarkedAsMissed bool
}

// ClampSnooze limits a medicine snooze to MaxSnoozeMinutes.
func ClampSnooze(minutes int) time.Duration {
	if minutes > MaxSnoozeMinutes {
		minutes = MaxSnoozeMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func logFields(l model.MedicineLog) logrus.Fields {
	return logrus.Fields{
		"log_id":      l.ID,
		"schedule_id": l.ScheduleID,
		"profile_id":  l.ProfileID,
	}
}

// CreateOccurrence inserts a pending medicine log and bumps the schedule's reminder count
// in one transaction, then stops the schedule if that reached a bound.
func (s *Service) CreateOccurrence(ctx context.Context, scheduleID string) (model.MedicineLog, error) {
	sched, err := s.repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return model.MedicineLog{}, s.fail("create occurrence", scheduleFields(scheduleID), err)
	}
	if sched.Kind != model.ScheduleKindMedicine {
		return model.MedicineLog{}, fmt.Errorf("%w: occurrences are for medicine schedules", ErrWrongKind)
	}
	if !sched.IsActive {
		return model.MedicineLog{}, ErrScheduleInactive
	}

	now := s.clock()
	entry := model.MedicineLog{
		ID:          uuid.NewString(),
		ScheduleID:  sched.ID,
		ProfileID:   sched.ProfileID,
		Status:      model.MedicineStatusPending,
		SnoozeCount: 0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := entry.Validate(); err != nil {
		return model.MedicineLog{}, err
	}
	updated, err := s.repo.RecordOccurrence(ctx, sched.ID, now, &entry)
	if err != nil {
		return model.MedicineLog{}, s.fail("create occurrence", scheduleFields(sched.ID), err)
	}
	s.metrics.OccurrenceCreated(string(model.ScheduleKindMedicine))
	s.log.WithFields(logFields(entry)).WithField("reminders_sent", updated.RemindersSent).Info("occurrence created")

	if _, err := s.autoStop(ctx, updated, now); err != nil {
		return entry, err
	}
	return entry, nil
}

func (s *Service) autoStop(ctx context.Context, sched model.Schedule, now time.Time) (model.Schedule, error) {
	if !schedule.ShouldStop(sched, now) {
		return sched, nil
	}
	return s.stop(ctx, sched, "auto")
}

func (s *Service) GetMedicineLog(ctx context.Context, id string) (model.MedicineLog, error) {
	l, err := s.repo.GetMedicineLog(ctx, id)
	if err != nil {
		return model.MedicineLog{}, s.fail("get medicine log", logrus.Fields{"log_id": id}, err)
	}
	return l, nil
}

// MarkTaken completes an open occurrence. Taken and missed logs are history and are
// rejected with ErrInvalidTransition.
func (s *Service) MarkTaken(ctx context.Context, logID string) (model.MedicineLog, error) {
	return s.finish(ctx, logID, model.MedicineStatusTaken)
}

// MarkMissed closes an open occurrence as missed without going through the snooze cap.
func (s *Service) MarkMissed(ctx context.Context, logID string) (model.MedicineLog, error) {
	return s.finish(ctx, logID, model.MedicineStatusMissed)
}

func (s *Service) finish(ctx context.Context, logID string, status model.MedicineStatus) (model.MedicineLog, error) {
	op := "mark " + string(status)
	entry, err := s.repo.GetMedicineLog(ctx, logID)
	if err != nil {
		return model.MedicineLog{}, s.fail(op, logrus.Fields{"log_id": logID}, err)
	}
	if entry.Status.IsTerminal() {
		return model.MedicineLog{}, fmt.Errorf("%w: log %s is already %s", ErrInvalidTransition, logID, entry.Status)
	}

	now := s.clock()
	entry.Status = status
	entry.SnoozeUntil = nil
	entry.UpdatedAt = now
	if status == model.MedicineStatusTaken {
		entry.CompletedAt = &now
	}
	if err := s.repo.UpdateMedicineLog(ctx, entry); err != nil {
		if errors.Is(err, storage.ErrLogClosed) {
			return model.MedicineLog{}, fmt.Errorf("%w: log %s was closed meanwhile", ErrInvalidTransition, logID)
		}
		return model.MedicineLog{}, s.fail(op, logFields(entry), err)
	}
	s.metrics.Transition(string(model.ScheduleKindMedicine), string(status))
	s.log.WithFields(logFields(entry)).Infof("occurrence %s", status)

	s.rearm(ctx, entry.ScheduleID, now)
	return entry, nil
}

// SnoozeMedicine defers an open occurrence. Past MaxSnoozes the log is marked missed
// instead, whatever minutes were asked for, and nothing is re-armed for it.
func (s *Service) SnoozeMedicine(ctx context.Context, logID string, minutes int) (SnoozeResult, error) {
	entry, err := s.repo.GetMedicineLog(ctx, logID)
	if err != nil {
		return SnoozeResult{}, s.fail("snooze medicine", logrus.Fields{"log_id": logID}, err)
	}
	if entry.Status.IsTerminal() {
		return SnoozeResult{}, fmt.Errorf("%w: log %s is already %s", ErrInvalidTransition, logID, entry.Status)
	}

	missed := entry.SnoozeCount+1 > MaxSnoozes
	if !missed && minutes <= 0 {
		return SnoozeResult{}, ErrInvalidSnooze
	}

	now := s.clock()
	entry.SnoozeCount++
	entry.UpdatedAt = now
	if missed {
		entry.Status = model.MedicineStatusMissed
		entry.SnoozeUntil = nil
	} else {
		until := now.Add(ClampSnooze(minutes))
		entry.Status = model.MedicineStatusSnoozed
		entry.SnoozeUntil = &until
	}
	if err := s.repo.UpdateMedicineLog(ctx, entry); err != nil {
		if errors.Is(err, storage.ErrLogClosed) {
			return SnoozeResult{}, fmt.Errorf("%w: log %s was closed meanwhile", ErrInvalidTransition, logID)
		}
		return SnoozeResult{}, s.fail("snooze medicine", logFields(entry), err)
	}
	s.metrics.Transition(string(model.ScheduleKindMedicine), string(entry.Status))
	fields := logFields(entry)
	fields["snooze_count"] = entry.SnoozeCount
	if missed {
		s.log.WithFields(fields).Warn("snooze cap exceeded, occurrence missed")
	} else {
		s.log.WithFields(fields).WithField("snooze_until", entry.SnoozeUntil.Format(time.RFC3339)).Info("occurrence snoozed")
	}

	s.rearm(ctx, entry.ScheduleID, now)
	return SnoozeResult{Kind: BoundedRetry, Medicine: entry, MarkedAsMissed: missed}, nil
}

// SweepOverdue marks the schedule's open occurrences missed unless a snooze is still
// running. It runs before a new occurrence supersedes them.
func (s *Service) SweepOverdue(ctx context.Context, scheduleID string) (int, error) {
	open, err := s.repo.ListMedicineLogs(ctx, storage.MedicineLogListFilter{
		ScheduleID: scheduleID,
		Statuses:   []model.MedicineStatus{model.MedicineStatusPending, model.MedicineStatusSnoozed},
	})
	if err != nil {
		return 0, s.fail("sweep overdue", scheduleFields(scheduleID), err)
	}
	now := s.clock()
	swept := 0
	for _, entry := range open {
		if entry.SnoozeUntil != nil && entry.SnoozeUntil.After(now) {
			continue
		}
		if _, err := s.finish(ctx, entry.ID, model.MedicineStatusMissed); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				// Answered after the list was read.
				continue
			}
			return swept, err
		}
		swept++
	}
	return swept, nil
}

func (s *Service) ListMedicineLogs(ctx context.Context, profileID string) ([]model.MedicineLog, error) {
	out, err := s.repo.ListMedicineLogs(ctx, storage.MedicineLogListFilter{ProfileID: profileID})
	if err != nil {
		return nil, s.fail("list medicine logs", logrus.Fields{"profile_id": profileID}, err)
	}
	return out, nil
}

// OpenMedicineLogs lists pending and snoozed occurrences for the profile, newest first.
func (s *Service) OpenMedicineLogs(ctx context.Context, profileID string) ([]model.MedicineLog, error) {
	out, err := s.repo.ListMedicineLogs(ctx, storage.MedicineLogListFilter{
		ProfileID: profileID,
		Statuses:  []model.MedicineStatus{model.MedicineStatusPending, model.MedicineStatusSnoozed},
	})
	if err != nil {
		return nil, s.fail("list medicine logs", logrus.Fields{"profile_id": profileID}, err)
	}
	return out, nil
}

// FeedingEntry is a completed feeding. An empty ScheduleID records an ad-hoc entry.
type FeedingEntry struct {
	ProfileID  string
	ScheduleID string
	Amount     string
	Notes      string
}

func (s *Service) RecordFeeding(ctx context.Context, in FeedingEntry) (model.FeedingLog, error) {
	in.ScheduleID = strings.TrimSpace(in.ScheduleID)
	profileID := strings.TrimSpace(in.ProfileID)
	if in.ScheduleID != "" {
		sched, err := s.feedingSchedule(ctx, in.ScheduleID, "record feeding")
		if err != nil {
			return model.FeedingLog{}, err
		}
		profileID = sched.ProfileID
	}

	now := s.clock()
	entry := model.FeedingLog{
		ID:          uuid.NewString(),
		ScheduleID:  in.ScheduleID,
		ProfileID:   profileID,
		Status:      model.FeedingStatusCompleted,
		Amount:      strings.TrimSpace(in.Amount),
		Notes:       strings.TrimSpace(in.Notes),
		CompletedAt: &now,
		CreatedAt:   now,
	}
	if err := entry.Validate(); err != nil {
		return model.FeedingLog{}, err
	}
	if err := s.repo.CreateFeedingLog(ctx, entry); err != nil {
		return model.FeedingLog{}, s.fail("record feeding", logrus.Fields{"log_id": entry.ID, "schedule_id": entry.ScheduleID}, err)
	}
	s.metrics.Transition(string(model.ScheduleKindFeeding), string(entry.Status))
	s.log.WithFields(logrus.Fields{
		"log_id":      entry.ID,
		"schedule_id": entry.ScheduleID,
		"profile_id":  entry.ProfileID,
		"ad_hoc":      entry.AdHoc(),
	}).Info("feeding recorded")

	if !entry.AdHoc() {
		s.rearm(ctx, entry.ScheduleID, now)
	}
	return entry, nil
}

// SnoozeFeeding appends a snoozed row for the schedule. Feeding snoozes are neither
// counted nor capped.
func (s *Service) SnoozeFeeding(ctx context.Context, scheduleID string, minutes int) (model.FeedingLog, error) {
	if minutes <= 0 {
		return model.FeedingLog{}, ErrInvalidSnooze
	}
	sched, err := s.feedingSchedule(ctx, scheduleID, "snooze feeding")
	if err != nil {
		return model.FeedingLog{}, err
	}
	if !sched.IsActive {
		return model.FeedingLog{}, ErrScheduleInactive
	}

	now := s.clock()
	until := now.Add(time.Duration(minutes) * time.Minute)
	entry := model.FeedingLog{
		ID:          uuid.NewString(),
		ScheduleID:  sched.ID,
		ProfileID:   sched.ProfileID,
		Status:      model.FeedingStatusSnoozed,
		SnoozeUntil: &until,
		CreatedAt:   now,
	}
	if err := entry.Validate(); err != nil {
		return model.FeedingLog{}, err
	}
	if err := s.repo.CreateFeedingLog(ctx, entry); err != nil {
		return model.FeedingLog{}, s.fail("snooze feeding", logrus.Fields{"log_id": entry.ID, "schedule_id": sched.ID}, err)
	}
	s.metrics.Transition(string(model.ScheduleKindFeeding), string(entry.Status))
	s.log.WithFields(logrus.Fields{
		"log_id":       entry.ID,
		"schedule_id":  sched.ID,
		"snooze_until": until.Format(time.RFC3339),
	}).Info("feeding snoozed")

	s.arm(ctx, sched, now)
	return entry, nil
}

// FeedingDue is the fired path of a feeding schedule: it counts the reminder and applies
// the auto-stop bounds. Feeding has no pending state, so no log is written.
func (s *Service) FeedingDue(ctx context.Context, scheduleID string) (model.Schedule, error) {
	sched, err := s.feedingSchedule(ctx, scheduleID, "feeding due")
	if err != nil {
		return model.Schedule{}, err
	}
	if !sched.IsActive {
		return model.Schedule{}, ErrScheduleInactive
	}
	now := s.clock()
	updated, err := s.repo.RecordOccurrence(ctx, sched.ID, now, nil)
	if err != nil {
		return model.Schedule{}, s.fail("feeding due", scheduleFields(sched.ID), err)
	}
	s.metrics.OccurrenceCreated(string(model.ScheduleKindFeeding))
	return s.autoStop(ctx, updated, now)
}

func (s *Service) feedingSchedule(ctx context.Context, id, op string) (model.Schedule, error) {
	sched, err := s.repo.GetSchedule(ctx, id)
	if err != nil {
		return model.Schedule{}, s.fail(op, scheduleFields(id), err)
	}
	if sched.Kind != model.ScheduleKindFeeding {
		return model.Schedule{}, fmt.Errorf("%w: %s is a %s schedule", ErrWrongKind, id, sched.Kind)
	}
	return sched, nil
}

func (s *Service) ListFeedingLogs(ctx context.Context, profileID string) ([]model.FeedingLog, error) {
	out, err := s.repo.ListFeedingLogs(ctx, storage.FeedingLogListFilter{ProfileID: profileID})
	if err != nil {
		return nil, s.fail("list feeding logs", logrus.Fields{"profile_id": profileID}, err)
	}
	return out, nil
}

// Snooze dispatches to the lifecycle named by ref.Kind.
func (s *Service) Snooze(ctx context.Context, ref OccurrenceRef, minutes int) (SnoozeResult, error) {
	switch ref.Kind {
	case BoundedRetry:
		return s.SnoozeMedicine(ctx, ref.ID, minutes)
	case AppendOnly:
		entry, err := s.SnoozeFeeding(ctx, ref.ID, minutes)
		if err != nil {
			return SnoozeResult{}, err
		}
		return SnoozeResult{Kind: AppendOnly, Feeding: entry}, nil
	default:
		return SnoozeResult{}, fmt.Errorf("reminder: unknown occurrence kind %q", ref.Kind)
	}
}
