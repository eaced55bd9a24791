package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/sandeepkv93/healthd/internal/storage"
	"github.com/sirupsen/logrus"
)

type NewSchedule struct {
	ProfileID   string
	Kind        model.ScheduleKind
	Name        string
	Dosage      string
	Notes       string
	TimesPerDay int
	Cadence     model.Cadence
	Bounds      model.Bounds
	// StartDate defaults to the creation time.
	StartDate time.Time
}

// SchedulePatch holds optional replacements. ID, ProfileID and CreatedAt exist only so a
// caller that tries to change them gets ErrImmutableField.
type SchedulePatch struct {
	ID          *string
	ProfileID   *string
	CreatedAt   *time.Time
	Name        *string
	Dosage      *string
	Notes       *string
	TimesPerDay *int
	Cadence     *model.Cadence
	Bounds      *model.Bounds
	StartDate   *time.Time
}

// DeletePolicy decides what happens to a schedule's logs when it is deleted.
type DeletePolicy int

const (
	DeleteCascade DeletePolicy = iota
	DeleteRetainLogs
)

func (p DeletePolicy) String() string {
	if p == DeleteRetainLogs {
		return "retain"
	}
	return "cascade"
}

// DefaultDeletePolicy keeps medicine history and drops feeding history.
func DefaultDeletePolicy(kind model.ScheduleKind) DeletePolicy {
	if kind == model.ScheduleKindMedicine {
		return DeleteRetainLogs
	}
	return DeleteCascade
}

func scheduleFields(id string) logrus.Fields {
	return logrus.Fields{"schedule_id": id}
}

func (s *Service) CreateSchedule(ctx context.Context, in NewSchedule) (model.Schedule, error) {
	now := s.clock()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}
	sched := model.Schedule{
		ID:          uuid.NewString(),
		ProfileID:   strings.TrimSpace(in.ProfileID),
		Kind:        in.Kind,
		Name:        strings.TrimSpace(in.Name),
		Dosage:      strings.TrimSpace(in.Dosage),
		Notes:       strings.TrimSpace(in.Notes),
		TimesPerDay: in.TimesPerDay,
		Cadence:     in.Cadence,
		Bounds:      in.Bounds,
		StartDate:   start,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := sched.Validate(); err != nil {
		return model.Schedule{}, err
	}
	if err := s.repo.CreateSchedule(ctx, sched); err != nil {
		return model.Schedule{}, s.fail("create schedule", scheduleFields(sched.ID), err)
	}
	s.log.WithFields(logrus.Fields{
		"schedule_id": sched.ID,
		"profile_id":  sched.ProfileID,
		"kind":        sched.Kind,
		"cadence":     sched.Cadence.String(),
	}).Info("schedule created")

	s.arm(ctx, sched, now)
	return sched, nil
}

func (s *Service) GetSchedule(ctx context.Context, id string) (model.Schedule, error) {
	sched, err := s.repo.GetSchedule(ctx, id)
	if err != nil {
		return model.Schedule{}, s.fail("get schedule", scheduleFields(id), err)
	}
	return sched, nil
}

func (s *Service) UpdateSchedule(ctx context.Context, id string, patch SchedulePatch) (model.Schedule, error) {
	if patch.ID != nil || patch.ProfileID != nil || patch.CreatedAt != nil {
		return model.Schedule{}, ErrImmutableField
	}
	sched, err := s.repo.GetSchedule(ctx, id)
	if err != nil {
		return model.Schedule{}, s.fail("update schedule", scheduleFields(id), err)
	}

	if patch.Name != nil {
		sched.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Dosage != nil {
		sched.Dosage = strings.TrimSpace(*patch.Dosage)
	}
	if patch.Notes != nil {
		sched.Notes = strings.TrimSpace(*patch.Notes)
	}
	if patch.TimesPerDay != nil {
		sched.TimesPerDay = *patch.TimesPerDay
	}
	if patch.Cadence != nil {
		sched.Cadence = *patch.Cadence
	}
	if patch.Bounds != nil {
		sched.Bounds = *patch.Bounds
	}
	if patch.StartDate != nil {
		sched.StartDate = *patch.StartDate
	}
	now := s.clock()
	sched.UpdatedAt = now
	if err := sched.Validate(); err != nil {
		return model.Schedule{}, err
	}
	if err := s.repo.UpdateSchedule(ctx, sched); err != nil {
		return model.Schedule{}, s.fail("update schedule", scheduleFields(id), err)
	}
	// Tightened bounds may already be exhausted.
	sched, err = s.autoStop(ctx, sched, now)
	if err != nil {
		return model.Schedule{}, err
	}
	s.arm(ctx, sched, now)
	return sched, nil
}

// DeleteSchedule reports false without error when no such schedule exists.
func (s *Service) DeleteSchedule(ctx context.Context, id string, policy DeletePolicy) (bool, error) {
	removed, err := s.repo.DeleteSchedule(ctx, id, policy == DeleteCascade)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, s.fail("delete schedule", scheduleFields(id), err)
	}
	s.notifier.Cancel(id)
	s.log.WithFields(logrus.Fields{
		"schedule_id":  id,
		"policy":       policy.String(),
		"logs_removed": removed,
	}).Info("schedule deleted")
	return true, nil
}

// TogglePause flips the paused flag. Bounds and counters are untouched.
func (s *Service) TogglePause(ctx context.Context, id string) (model.Schedule, error) {
	sched, err := s.repo.GetSchedule(ctx, id)
	if err != nil {
		return model.Schedule{}, s.fail("toggle pause", scheduleFields(id), err)
	}
	now := s.clock()
	sched.IsPaused = !sched.IsPaused
	sched.UpdatedAt = now
	if err := s.repo.UpdateSchedule(ctx, sched); err != nil {
		return model.Schedule{}, s.fail("toggle pause", scheduleFields(id), err)
	}
	s.log.WithFields(logrus.Fields{"schedule_id": id, "paused": sched.IsPaused}).Info("schedule pause toggled")
	s.arm(ctx, sched, now)
	return sched, nil
}

// StopSchedule deactivates the schedule for good.
func (s *Service) StopSchedule(ctx context.Context, id string) (model.Schedule, error) {
	sched, err := s.repo.GetSchedule(ctx, id)
	if err != nil {
		return model.Schedule{}, s.fail("stop schedule", scheduleFields(id), err)
	}
	return s.stop(ctx, sched, "manual")
}

func (s *Service) stop(ctx context.Context, sched model.Schedule, reason string) (model.Schedule, error) {
	sched.IsActive = false
	sched.UpdatedAt = s.clock()
	if err := s.repo.UpdateSchedule(ctx, sched); err != nil {
		return model.Schedule{}, s.fail("stop schedule", scheduleFields(sched.ID), err)
	}
	s.notifier.Cancel(sched.ID)
	if reason == "auto" {
		s.metrics.AutoStopped(string(sched.Kind))
	}
	s.log.WithFields(logrus.Fields{
		"schedule_id":    sched.ID,
		"reason":         reason,
		"reminders_sent": sched.RemindersSent,
	}).Info("schedule stopped")
	return sched, nil
}

// ListSchedules returns the profile's schedules newest first. An empty kind lists both.
func (s *Service) ListSchedules(ctx context.Context, profileID string, kind model.ScheduleKind) ([]model.Schedule, error) {
	if kind != "" && !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidKind, kind)
	}
	out, err := s.repo.ListSchedules(ctx, storage.ScheduleListFilter{ProfileID: profileID, Kind: kind})
	if err != nil {
		return nil, s.fail("list schedules", logrus.Fields{"profile_id": profileID}, err)
	}
	return out, nil
}
