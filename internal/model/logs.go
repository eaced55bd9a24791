package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidMedicineStatus = errors.New("model: invalid medicine log status")
	ErrInvalidFeedingStatus  = errors.New("model: invalid feeding log status")
)

type MedicineStatus string

const (
	MedicineStatusPending MedicineStatus = "pending"
	MedicineStatusSnoozed MedicineStatus = "snoozed"
	MedicineStatusTaken   MedicineStatus = "taken"
	MedicineStatusMissed  MedicineStatus = "missed"
)

func (s MedicineStatus) IsValid() bool {
	switch s {
	case MedicineStatusPending, MedicineStatusSnoozed, MedicineStatusTaken, MedicineStatusMissed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status is immutable history.
func (s MedicineStatus) IsTerminal() bool {
	return s == MedicineStatusTaken || s == MedicineStatusMissed
}

// MedicineLog is one occurrence of a medicine schedule.
type MedicineLog struct {
	ID          string
	ScheduleID  string
	ProfileID   string
	Status      MedicineStatus
	SnoozeCount int
	SnoozeUntil *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (l MedicineLog) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return errors.New("model: medicine log id is required")
	}
	if strings.TrimSpace(l.ScheduleID) == "" {
		return errors.New("model: medicine log schedule_id is required")
	}
	if strings.TrimSpace(l.ProfileID) == "" {
		return errors.New("model: medicine log profile_id is required")
	}
	if !l.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMedicineStatus, l.Status)
	}
	if l.SnoozeCount < 0 {
		return errors.New("model: medicine log snooze_count must not be negative")
	}
	if l.CreatedAt.IsZero() {
		return errors.New("model: medicine log created_at is required")
	}
	if l.Status == MedicineStatusTaken && l.CompletedAt == nil {
		return errors.New("model: completed_at is required when medicine log is taken")
	}
	return nil
}

type FeedingStatus string

const (
	FeedingStatusCompleted FeedingStatus = "completed"
	FeedingStatusSnoozed   FeedingStatus = "snoozed"
)

func (s FeedingStatus) IsValid() bool {
	return s == FeedingStatusCompleted || s == FeedingStatusSnoozed
}

// FeedingLog rows are append-only: a snooze creates a new row instead of mutating one.
type FeedingLog struct {
	ID          string
	ScheduleID  string
	ProfileID   string
	Status      FeedingStatus
	Amount      string
	Notes       string
	SnoozeUntil *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// AdHoc reports whether the entry was logged outside any schedule.
func (l FeedingLog) AdHoc() bool {
	return strings.TrimSpace(l.ScheduleID) == ""
}

func (l FeedingLog) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return errors.New("model: feeding log id is required")
	}
	if strings.TrimSpace(l.ProfileID) == "" {
		return errors.New("model: feeding log profile_id is required")
	}
	if !l.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFeedingStatus, l.Status)
	}
	if l.CreatedAt.IsZero() {
		return errors.New("model: feeding log created_at is required")
	}
	if l.Status == FeedingStatusSnoozed && l.SnoozeUntil == nil {
		return errors.New("model: snooze_until is required when feeding log is snoozed")
	}
	if l.Status == FeedingStatusSnoozed && l.AdHoc() {
		return errors.New("model: ad-hoc feeding log cannot be snoozed")
	}
	return nil
}
