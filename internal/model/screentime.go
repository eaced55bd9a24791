package model

import (
	"errors"
	"strings"
	"time"
)

type ScreenTimeSession struct {
	ID        string
	ProfileID string
	StartedAt time.Time
	EndedAt   time.Time
	// Recovered marks sessions whose start was restored from persisted tracker state
	// after the process died mid-session.
	Recovered bool
}

func (s ScreenTimeSession) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}

func (s ScreenTimeSession) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("model: screen time session id is required")
	}
	if strings.TrimSpace(s.ProfileID) == "" {
		return errors.New("model: screen time session profile_id is required")
	}
	if s.StartedAt.IsZero() || s.EndedAt.IsZero() {
		return errors.New("model: screen time session start and end are required")
	}
	if s.EndedAt.Before(s.StartedAt) {
		return errors.New("model: screen time session ends before it starts")
	}
	return nil
}

// TrackerState is the single persisted record describing an open tracking session.
type TrackerState struct {
	ProfileID string
	Active    bool
	StartedAt time.Time
	UpdatedAt time.Time
}
