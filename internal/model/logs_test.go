package model

import (
	"errors"
	"testing"
	"time"
)

func TestMedicineStatusTerminal(t *testing.T) {
	cases := map[MedicineStatus]bool{
		MedicineStatusPending: false,
		MedicineStatusSnoozed: false,
		MedicineStatusTaken:   true,
		MedicineStatusMissed:  true,
	}
	for status, want := range cases {
		if !status.IsValid() {
			t.Fatalf("expected valid status: %q", status)
		}
		if got := status.IsTerminal(); got != want {
			t.Fatalf("status %q terminal = %v, want %v", status, got, want)
		}
	}
	if MedicineStatus("completed").IsValid() {
		t.Fatal("expected invalid medicine status")
	}
}

func TestMedicineLogValidate(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	l := MedicineLog{
		ID:         "log-1",
		ScheduleID: "sched-1",
		ProfileID:  "profile-1",
		Status:     MedicineStatusPending,
		CreatedAt:  now,
	}
	if err := l.Validate(); err != nil {
		t.Fatalf("expected valid log, got: %v", err)
	}

	l.Status = MedicineStatusTaken
	if err := l.Validate(); err == nil {
		t.Fatal("expected taken log without completed_at to fail")
	}

	l.Status = MedicineStatus("done")
	if err := l.Validate(); !errors.Is(err, ErrInvalidMedicineStatus) {
		t.Fatalf("expected ErrInvalidMedicineStatus, got: %v", err)
	}
}

func TestFeedingLogValidate(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	adHoc := FeedingLog{
		ID:          "feed-1",
		ProfileID:   "profile-1",
		Status:      FeedingStatusCompleted,
		Amount:      "120ml",
		CompletedAt: &now,
		CreatedAt:   now,
	}
	if err := adHoc.Validate(); err != nil {
		t.Fatalf("expected valid ad-hoc feeding, got: %v", err)
	}
	if !adHoc.AdHoc() {
		t.Fatal("expected feeding without schedule to be ad-hoc")
	}

	until := now.Add(15 * time.Minute)
	snoozed := adHoc
	snoozed.Status = FeedingStatusSnoozed
	snoozed.SnoozeUntil = &until
	if err := snoozed.Validate(); err == nil {
		t.Fatal("expected ad-hoc snoozed feeding to fail")
	}

	snoozed.ScheduleID = "sched-feed"
	if err := snoozed.Validate(); err != nil {
		t.Fatalf("expected valid snoozed feeding, got: %v", err)
	}

	snoozed.Status = FeedingStatus("missed")
	if err := snoozed.Validate(); !errors.Is(err, ErrInvalidFeedingStatus) {
		t.Fatalf("expected ErrInvalidFeedingStatus, got: %v", err)
	}
}
