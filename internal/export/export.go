// Package export dumps a profile's records for backup or analysis.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/sandeepkv93/healthd/internal/storage"
	"gopkg.in/yaml.v3"
)

// Collection names match the keys of a JSON or YAML snapshot.
const (
	Profiles           = "profiles"
	MedicineSchedules  = "medicineSchedules"
	MedicineLogs       = "medicineLogs"
	FeedingSchedules   = "feedingSchedules"
	FeedingLogs        = "feedingLogs"
	ScreenTimeSessions = "screenTimeSessions"
)

func Collections() []string {
	return []string{Profiles, MedicineSchedules, MedicineLogs, FeedingSchedules, FeedingLogs, ScreenTimeSessions}
}

type Profile struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

type Schedule struct {
	ID             string     `json:"id" yaml:"id"`
	ProfileID      string     `json:"profileId" yaml:"profileId"`
	Name           string     `json:"name" yaml:"name"`
	Dosage         string     `json:"dosage,omitempty" yaml:"dosage,omitempty"`
	Notes          string     `json:"notes,omitempty" yaml:"notes,omitempty"`
	TimesPerDay    int        `json:"timesPerDay,omitempty" yaml:"timesPerDay,omitempty"`
	CadenceType    string     `json:"cadenceType" yaml:"cadenceType"`
	TimeOfDay      string     `json:"timeOfDay,omitempty" yaml:"timeOfDay,omitempty"`
	IntervalHours  int        `json:"intervalHours,omitempty" yaml:"intervalHours,omitempty"`
	TotalDays      int        `json:"totalDays,omitempty" yaml:"totalDays,omitempty"`
	TotalReminders int        `json:"totalReminders,omitempty" yaml:"totalReminders,omitempty"`
	StartDate      time.Time  `json:"startDate" yaml:"startDate"`
	IsActive       bool       `json:"isActive" yaml:"isActive"`
	IsPaused       bool       `json:"isPaused" yaml:"isPaused"`
	RemindersSent  int        `json:"remindersSent" yaml:"remindersSent"`
	LastFiredAt    *time.Time `json:"lastFiredAt,omitempty" yaml:"lastFiredAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

type MedicineLog struct {
	ID          string     `json:"id" yaml:"id"`
	ScheduleID  string     `json:"scheduleId" yaml:"scheduleId"`
	ProfileID   string     `json:"profileId" yaml:"profileId"`
	Status      string     `json:"status" yaml:"status"`
	SnoozeCount int        `json:"snoozeCount" yaml:"snoozeCount"`
	SnoozeUntil *time.Time `json:"snoozeUntil,omitempty" yaml:"snoozeUntil,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
}

type FeedingLog struct {
	ID          string     `json:"id" yaml:"id"`
	ScheduleID  string     `json:"scheduleId,omitempty" yaml:"scheduleId,omitempty"`
	ProfileID   string     `json:"profileId" yaml:"profileId"`
	Status      string     `json:"status" yaml:"status"`
	Amount      string     `json:"amount,omitempty" yaml:"amount,omitempty"`
	Notes       string     `json:"notes,omitempty" yaml:"notes,omitempty"`
	SnoozeUntil *time.Time `json:"snoozeUntil,omitempty" yaml:"snoozeUntil,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
}

type ScreenTimeSession struct {
	ID              string    `json:"id" yaml:"id"`
	ProfileID       string    `json:"profileId" yaml:"profileId"`
	StartedAt       time.Time `json:"startedAt" yaml:"startedAt"`
	EndedAt         time.Time `json:"endedAt" yaml:"endedAt"`
	DurationSeconds int64     `json:"durationSeconds" yaml:"durationSeconds"`
	Recovered       bool      `json:"recovered,omitempty" yaml:"recovered,omitempty"`
}

type Snapshot struct {
	ExportedAt         time.Time           `json:"exportedAt" yaml:"exportedAt"`
	ProfileID          string              `json:"profileId,omitempty" yaml:"profileId,omitempty"`
	Profiles           []Profile           `json:"profiles" yaml:"profiles"`
	MedicineSchedules  []Schedule          `json:"medicineSchedules" yaml:"medicineSchedules"`
	MedicineLogs       []MedicineLog       `json:"medicineLogs" yaml:"medicineLogs"`
	FeedingSchedules   []Schedule          `json:"feedingSchedules" yaml:"feedingSchedules"`
	FeedingLogs        []FeedingLog        `json:"feedingLogs" yaml:"feedingLogs"`
	ScreenTimeSessions []ScreenTimeSession `json:"screenTimeSessions" yaml:"screenTimeSessions"`
}

// Source is the read side of the repository an export needs.
type Source interface {
	ListProfiles(ctx context.Context, filter storage.ProfileListFilter) ([]model.Profile, error)
	ListSchedules(ctx context.Context, filter storage.ScheduleListFilter) ([]model.Schedule, error)
	ListMedicineLogs(ctx context.Context, filter storage.MedicineLogListFilter) ([]model.MedicineLog, error)
	ListFeedingLogs(ctx context.Context, filter storage.FeedingLogListFilter) ([]model.FeedingLog, error)
	ListScreenTimeSessions(ctx context.Context, filter storage.SessionListFilter) ([]model.ScreenTimeSession, error)
}

// Collect reads every collection for profileID, or for all profiles when it is empty.
// Each collection keeps the store's newest-first order.
func Collect(ctx context.Context, src Source, profileID string, now time.Time) (Snapshot, error) {
	snap := Snapshot{ExportedAt: now.UTC(), ProfileID: profileID}

	profiles, err := src.ListProfiles(ctx, storage.ProfileListFilter{})
	if err != nil {
		return Snapshot{}, fmt.Errorf("export profiles: %w", err)
	}
	snap.Profiles = make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		if profileID != "" && p.ID != profileID {
			continue
		}
		snap.Profiles = append(snap.Profiles, Profile{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt})
	}

	schedules, err := src.ListSchedules(ctx, storage.ScheduleListFilter{ProfileID: profileID})
	if err != nil {
		return Snapshot{}, fmt.Errorf("export schedules: %w", err)
	}
	snap.MedicineSchedules = make([]Schedule, 0)
	snap.FeedingSchedules = make([]Schedule, 0)
	for _, s := range schedules {
		rec := scheduleRecord(s)
		if s.Kind == model.ScheduleKindMedicine {
			snap.MedicineSchedules = append(snap.MedicineSchedules, rec)
		} else {
			snap.FeedingSchedules = append(snap.FeedingSchedules, rec)
		}
	}

	medLogs, err := src.ListMedicineLogs(ctx, storage.MedicineLogListFilter{ProfileID: profileID})
	if err != nil {
		return Snapshot{}, fmt.Errorf("export medicine logs: %w", err)
	}
	snap.MedicineLogs = make([]MedicineLog, 0, len(medLogs))
	for _, l := range medLogs {
		snap.MedicineLogs = append(snap.MedicineLogs, MedicineLog{
			ID:          l.ID,
			ScheduleID:  l.ScheduleID,
			ProfileID:   l.ProfileID,
			Status:      string(l.Status),
			SnoozeCount: l.SnoozeCount,
			SnoozeUntil: l.SnoozeUntil,
			CompletedAt: l.CompletedAt,
			CreatedAt:   l.CreatedAt,
		})
	}

	feedLogs, err := src.ListFeedingLogs(ctx, storage.FeedingLogListFilter{ProfileID: profileID})
	if err != nil {
		return Snapshot{}, fmt.Errorf("export feeding logs: %w", err)
	}
	snap.FeedingLogs = make([]FeedingLog, 0, len(feedLogs))
	for _, l := range feedLogs {
		snap.FeedingLogs = append(snap.FeedingLogs, FeedingLog{
			ID:          l.ID,
			ScheduleID:  l.ScheduleID,
			ProfileID:   l.ProfileID,
			Status:      string(l.Status),
			Amount:      l.Amount,
			Notes:       l.Notes,
			SnoozeUntil: l.SnoozeUntil,
			CompletedAt: l.CompletedAt,
			CreatedAt:   l.CreatedAt,
		})
	}

	sessions, err := src.ListScreenTimeSessions(ctx, storage.SessionListFilter{ProfileID: profileID})
	if err != nil {
		return Snapshot{}, fmt.Errorf("export screen time: %w", err)
	}
	snap.ScreenTimeSessions = make([]ScreenTimeSession, 0, len(sessions))
	for _, s := range sessions {
		snap.ScreenTimeSessions = append(snap.ScreenTimeSessions, ScreenTimeSession{
			ID:              s.ID,
			ProfileID:       s.ProfileID,
			StartedAt:       s.StartedAt,
			EndedAt:         s.EndedAt,
			DurationSeconds: int64(s.Duration().Seconds()),
			Recovered:       s.Recovered,
		})
	}
	return snap, nil
}

func scheduleRecord(s model.Schedule) Schedule {
	return Schedule{
		ID:             s.ID,
		ProfileID:      s.ProfileID,
		Name:           s.Name,
		Dosage:         s.Dosage,
		Notes:          s.Notes,
		TimesPerDay:    s.TimesPerDay,
		CadenceType:    string(s.Cadence.Type),
		TimeOfDay:      s.Cadence.TimeOfDay,
		IntervalHours:  s.Cadence.IntervalHours,
		TotalDays:      s.Bounds.TotalDays,
		TotalReminders: s.Bounds.TotalReminders,
		StartDate:      s.StartDate,
		IsActive:       s.IsActive,
		IsPaused:       s.IsPaused,
		RemindersSent:  s.RemindersSent,
		LastFiredAt:    s.LastFiredAt,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func WriteJSON(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func WriteYAML(w io.Writer, snap Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return err
	}
	return enc.Close()
}

// WriteCSV writes one collection as a header row plus one row per record.
func WriteCSV(w io.Writer, snap Snapshot, collection string) error {
	header, rows, err := table(snap, collection)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func table(snap Snapshot, collection string) ([]string, [][]string, error) {
	switch collection {
	case Profiles:
		rows := make([][]string, 0, len(snap.Profiles))
		for _, p := range snap.Profiles {
			rows = append(rows, []string{p.ID, p.Name, ts(p.CreatedAt)})
		}
		return []string{"id", "name", "createdAt"}, rows, nil
	case MedicineSchedules, FeedingSchedules:
		list := snap.MedicineSchedules
		if collection == FeedingSchedules {
			list = snap.FeedingSchedules
		}
		rows := make([][]string, 0, len(list))
		for _, s := range list {
			rows = append(rows, []string{
				s.ID, s.ProfileID, s.Name, s.Dosage, strconv.Itoa(s.TimesPerDay), s.CadenceType, s.TimeOfDay,
				strconv.Itoa(s.IntervalHours), strconv.Itoa(s.TotalDays), strconv.Itoa(s.TotalReminders),
				ts(s.StartDate), strconv.FormatBool(s.IsActive), strconv.FormatBool(s.IsPaused),
				strconv.Itoa(s.RemindersSent), tsPtr(s.LastFiredAt), ts(s.CreatedAt),
			})
		}
		return []string{
			"id", "profileId", "name", "dosage", "timesPerDay", "cadenceType", "timeOfDay",
			"intervalHours", "totalDays", "totalReminders", "startDate", "isActive", "isPaused",
			"remindersSent", "lastFiredAt", "createdAt",
		}, rows, nil
	case MedicineLogs:
		rows := make([][]string, 0, len(snap.MedicineLogs))
		for _, l := range snap.MedicineLogs {
			rows = append(rows, []string{
				l.ID, l.ScheduleID, l.ProfileID, l.Status, strconv.Itoa(l.SnoozeCount),
				tsPtr(l.SnoozeUntil), tsPtr(l.CompletedAt), ts(l.CreatedAt),
			})
		}
		return []string{"id", "scheduleId", "profileId", "status", "snoozeCount", "snoozeUntil", "completedAt", "createdAt"}, rows, nil
	case FeedingLogs:
		rows := make([][]string, 0, len(snap.FeedingLogs))
		for _, l := range snap.FeedingLogs {
			rows = append(rows, []string{
				l.ID, l.ScheduleID, l.ProfileID, l.Status, l.Amount, l.Notes,
				tsPtr(l.SnoozeUntil), tsPtr(l.CompletedAt), ts(l.CreatedAt),
			})
		}
		return []string{"id", "scheduleId", "profileId", "status", "amount", "notes", "snoozeUntil", "completedAt", "createdAt"}, rows, nil
	case ScreenTimeSessions:
		rows := make([][]string, 0, len(snap.ScreenTimeSessions))
		for _, s := range snap.ScreenTimeSessions {
			rows = append(rows, []string{
				s.ID, s.ProfileID, ts(s.StartedAt), ts(s.EndedAt),
				strconv.FormatInt(s.DurationSeconds, 10), strconv.FormatBool(s.Recovered),
			})
		}
		return []string{"id", "profileId", "startedAt", "endedAt", "durationSeconds", "recovered"}, rows, nil
	default:
		return nil, nil, fmt.Errorf("export: unknown collection %q", collection)
	}
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func tsPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return ts(*t)
}
