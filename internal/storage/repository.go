package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/healthd/internal/model"
)

var (
	ErrNotFound  = errors.New("storage: not found")
	ErrLogClosed = errors.New("storage: log already taken or missed")
)

// Repository is the local record store. Every list accessor returns newest first.
type Repository interface {
	CreateProfile(ctx context.Context, in model.Profile) error
	GetProfile(ctx context.Context, id string) (model.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
	ListProfiles(ctx context.Context, filter ProfileListFilter) ([]model.Profile, error)

	CreateSchedule(ctx context.Context, in model.Schedule) error
	GetSchedule(ctx context.Context, id string) (model.Schedule, error)
	UpdateSchedule(ctx context.Context, in model.Schedule) error
	// DeleteSchedule removes the schedule and, when cascade is set, every log referencing it.
	// It returns the number of logs removed.
	DeleteSchedule(ctx context.Context, id string, cascade bool) (int, error)
	ListSchedules(ctx context.Context, filter ScheduleListFilter) ([]model.Schedule, error)
	// RecordOccurrence inserts the log (when non-nil) and increments the schedule's
	// reminders_sent by one in a single transaction, returning the updated schedule.
	RecordOccurrence(ctx context.Context, scheduleID string, at time.Time, log *model.MedicineLog) (model.Schedule, error)

	CreateMedicineLog(ctx context.Context, in model.MedicineLog) error
	GetMedicineLog(ctx context.Context, id string) (model.MedicineLog, error)
	UpdateMedicineLog(ctx context.Context, in model.MedicineLog) error
	DeleteMedicineLog(ctx context.Context, id string) error
	ListMedicineLogs(ctx context.Context, filter MedicineLogListFilter) ([]model.MedicineLog, error)

	CreateFeedingLog(ctx context.Context, in model.FeedingLog) error
	GetFeedingLog(ctx context.Context, id string) (model.FeedingLog, error)
	DeleteFeedingLog(ctx context.Context, id string) error
	ListFeedingLogs(ctx context.Context, filter FeedingLogListFilter) ([]model.FeedingLog, error)

	CreateScreenTimeSession(ctx context.Context, in model.ScreenTimeSession) error
	ListScreenTimeSessions(ctx context.Context, filter SessionListFilter) ([]model.ScreenTimeSession, error)
	GetTrackerState(ctx context.Context) (model.TrackerState, error)
	SaveTrackerState(ctx context.Context, in model.TrackerState) error
	// CloseTrackerSession persists the session and clears the tracker state atomically.
	CloseTrackerSession(ctx context.Context, session model.ScreenTimeSession) error
}
