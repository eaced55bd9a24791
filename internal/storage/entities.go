package storage

import (
	"time"

	"github.com/sandeepkv93/healthd/internal/model"
)

type ScheduleListFilter struct {
	ProfileID string
	Kind      model.ScheduleKind
	Active    *bool
	Limit     int
	Offset    int
}

type MedicineLogListFilter struct {
	ProfileID  string
	ScheduleID string
	Statuses   []model.MedicineStatus
	Since      *time.Time
	Limit      int
	Offset     int
}

type FeedingLogListFilter struct {
	ProfileID  string
	ScheduleID string
	Since      *time.Time
	Limit      int
	Offset     int
}

type SessionListFilter struct {
	ProfileID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

type ProfileListFilter struct {
	Limit  int
	Offset int
}
