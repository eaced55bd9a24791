package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidKind    = errors.New("model: invalid schedule kind")
	ErrInvalidCadence = errors.New("model: invalid cadence")
	ErrInvalidBounds  = errors.New("model: invalid auto-stop bounds")
)

type ScheduleKind string

const (
	ScheduleKindMedicine ScheduleKind = "medicine"
	ScheduleKindFeeding  ScheduleKind = "feeding"
)

func (k ScheduleKind) IsValid() bool {
	switch k {
	case ScheduleKindMedicine, ScheduleKindFeeding:
		return true
	default:
		return false
	}
}

type CadenceType string

const (
	CadenceFixedTime CadenceType = "fixed_time"
	CadenceInterval  CadenceType = "interval"
)

// Cadence is either a fixed daily wall-clock time or a repeating hour interval.
type Cadence struct {
	Type          CadenceType
	TimeOfDay     string
	IntervalHours int
}

func (c Cadence) Validate() error {
	switch c.Type {
	case CadenceFixedTime:
		if _, _, err := ParseClock(c.TimeOfDay); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCadence, err)
		}
	case CadenceInterval:
		if c.IntervalHours <= 0 {
			return fmt.Errorf("%w: interval hours must be positive, got %d", ErrInvalidCadence, c.IntervalHours)
		}
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidCadence, c.Type)
	}
	return nil
}

func (c Cadence) String() string {
	if c.Type == CadenceFixedTime {
		return "daily at " + c.TimeOfDay
	}
	return fmt.Sprintf("every %dh", c.IntervalHours)
}

// ParseClock parses an "HH:MM" wall-clock time.
func ParseClock(v string) (int, int, error) {
	tm, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, 0, fmt.Errorf("time of day %q must be HH:MM", v)
	}
	return tm.Hour(), tm.Minute(), nil
}

// Bounds terminate a schedule automatically. Zero means unset; both may be set.
type Bounds struct {
	TotalDays      int
	TotalReminders int
}

func (b Bounds) Validate() error {
	if b.TotalDays < 0 {
		return fmt.Errorf("%w: total days %d", ErrInvalidBounds, b.TotalDays)
	}
	if b.TotalReminders < 0 {
		return fmt.Errorf("%w: total reminders %d", ErrInvalidBounds, b.TotalReminders)
	}
	return nil
}

type Schedule struct {
	ID            string
	ProfileID     string
	Kind          ScheduleKind
	Name          string
	Dosage        string
	Notes         string
	TimesPerDay   int
	Cadence       Cadence
	Bounds        Bounds
	StartDate     time.Time
	IsActive      bool
	IsPaused      bool
	RemindersSent int
	// LastFiredAt is the latest cadence fire, kept so a restart never re-fires the same slot.
	LastFiredAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (s Schedule) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("model: schedule id is required")
	}
	if strings.TrimSpace(s.ProfileID) == "" {
		return errors.New("model: schedule profile_id is required")
	}
	if !s.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, s.Kind)
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("model: schedule name is required")
	}
	if s.Kind == ScheduleKindMedicine && s.TimesPerDay < 1 {
		return errors.New("model: medicine schedule times_per_day must be at least 1")
	}
	if err := s.Cadence.Validate(); err != nil {
		return err
	}
	if err := s.Bounds.Validate(); err != nil {
		return err
	}
	if s.StartDate.IsZero() {
		return errors.New("model: schedule start_date is required")
	}
	if s.CreatedAt.IsZero() {
		return errors.New("model: schedule created_at is required")
	}
	if s.RemindersSent < 0 {
		return errors.New("model: schedule reminders_sent must not be negative")
	}
	return nil
}

// Runnable reports whether the schedule may produce new reminders right now.
func (s Schedule) Runnable() bool {
	return s.IsActive && !s.IsPaused
}
