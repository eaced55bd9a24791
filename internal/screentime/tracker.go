// Package screentime tracks screen-time sessions. The open session lives in the store, not
// in memory, so a session survives the process being killed.
package screentime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/healthd/internal/logging"
	"github.com/sandeepkv93/healthd/internal/metrics"
	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/sandeepkv93/healthd/internal/storage"
	"github.com/sirupsen/logrus"
)

var (
	ErrAlreadyTracking = errors.New("screentime: a session is already being tracked")
	ErrNotTracking     = errors.New("screentime: no session is being tracked")
)

// Store is the slice of the repository the tracker uses.
type Store interface {
	GetTrackerState(ctx context.Context) (model.TrackerState, error)
	SaveTrackerState(ctx context.Context, in model.TrackerState) error
	CloseTrackerSession(ctx context.Context, session model.ScreenTimeSession) error
	ListScreenTimeSessions(ctx context.Context, filter storage.SessionListFilter) ([]model.ScreenTimeSession, error)
}

type Tracker struct {
	store   Store
	log     *logrus.Logger
	metrics metrics.Recorder
	now     func() time.Time
	loc     *time.Location

	mu        sync.Mutex
	recovered bool
}

type Option func(*Tracker)

func WithLogger(l *logrus.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(t *Tracker) {
		if m != nil {
			t.metrics = m
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

func New(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:   store,
		log:     logging.Discard(),
		metrics: metrics.Nop(),
		now:     time.Now,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) clock() time.Time {
	return t.now().In(t.loc)
}

// state returns the persisted tracker state; a missing row is an inactive tracker.
func (t *Tracker) state(ctx context.Context) (model.TrackerState, error) {
	st, err := t.store.GetTrackerState(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return model.TrackerState{}, nil
	}
	if err != nil {
		t.metrics.StoreError("get_tracker_state")
		return model.TrackerState{}, fmt.Errorf("load tracker state: %w", err)
	}
	return st, nil
}

func (t *Tracker) Start(ctx context.Context, profileID string) (model.TrackerState, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return model.TrackerState{}, errors.New("screentime: profile id is required")
	}
	st, err := t.state(ctx)
	if err != nil {
		return model.TrackerState{}, err
	}
	if st.Active {
		return model.TrackerState{}, ErrAlreadyTracking
	}

	now := t.clock()
	st = model.TrackerState{ProfileID: profileID, Active: true, StartedAt: now, UpdatedAt: now}
	if err := t.store.SaveTrackerState(ctx, st); err != nil {
		t.metrics.StoreError("save_tracker_state")
		t.log.WithField("profile_id", profileID).WithError(err).Error("start screen time failed")
		return model.TrackerState{}, fmt.Errorf("save tracker state: %w", err)
	}
	t.mu.Lock()
	t.recovered = false
	t.mu.Unlock()
	t.log.WithField("profile_id", profileID).Info("screen time started")
	return st, nil
}

// Stop closes the open session, measured from the persisted start.
func (t *Tracker) Stop(ctx context.Context) (model.ScreenTimeSession, error) {
	st, err := t.state(ctx)
	if err != nil {
		return model.ScreenTimeSession{}, err
	}
	if !st.Active {
		return model.ScreenTimeSession{}, ErrNotTracking
	}

	end := t.clock()
	if end.Before(st.StartedAt) {
		end = st.StartedAt
	}
	t.mu.Lock()
	recovered := t.recovered
	t.mu.Unlock()

	session := model.ScreenTimeSession{
		ID:        uuid.NewString(),
		ProfileID: st.ProfileID,
		StartedAt: st.StartedAt,
		EndedAt:   end,
		Recovered: recovered,
	}
	if err := session.Validate(); err != nil {
		return model.ScreenTimeSession{}, err
	}
	if err := t.store.CloseTrackerSession(ctx, session); err != nil {
		t.metrics.StoreError("close_tracker_session")
		t.log.WithField("profile_id", st.ProfileID).WithError(err).Error("stop screen time failed")
		return model.ScreenTimeSession{}, fmt.Errorf("close session: %w", err)
	}

	t.mu.Lock()
	t.recovered = false
	t.mu.Unlock()
	t.metrics.ScreenTime(session.Duration().Seconds(), recovered)
	t.log.WithFields(logrus.Fields{
		"profile_id": session.ProfileID,
		"session_id": session.ID,
		"duration":   session.Duration().Round(time.Second).String(),
		"recovered":  recovered,
	}).Info("screen time stopped")
	return session, nil
}

// Recovery describes a session found open at start-up.
type Recovery struct {
	Active    bool
	ProfileID string
	StartedAt time.Time
	Elapsed   time.Duration
}

// Reconcile runs once at start-up. A session left open by a previous process keeps running
// and its elapsed time is counted from the stored start, never assumed lost.
func (t *Tracker) Reconcile(ctx context.Context) (Recovery, error) {
	st, err := t.state(ctx)
	if err != nil {
		return Recovery{}, err
	}
	if !st.Active {
		return Recovery{}, nil
	}

	now := t.clock()
	elapsed := now.Sub(st.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	st.UpdatedAt = now
	if err := t.store.SaveTrackerState(ctx, st); err != nil {
		t.metrics.StoreError("save_tracker_state")
		return Recovery{}, fmt.Errorf("save tracker state: %w", err)
	}
	t.mu.Lock()
	t.recovered = true
	t.mu.Unlock()
	t.log.WithFields(logrus.Fields{
		"profile_id": st.ProfileID,
		"elapsed":    elapsed.Round(time.Second).String(),
	}).Warn("resumed screen time session left open")
	return Recovery{Active: true, ProfileID: st.ProfileID, StartedAt: st.StartedAt, Elapsed: elapsed}, nil
}

// Elapsed reports how long the open session has run, or false when none is open.
func (t *Tracker) Elapsed(ctx context.Context) (time.Duration, bool, error) {
	st, err := t.state(ctx)
	if err != nil {
		return 0, false, err
	}
	if !st.Active {
		return 0, false, nil
	}
	d := t.clock().Sub(st.StartedAt)
	if d < 0 {
		d = 0
	}
	return d, true, nil
}

// Recovered reports whether the open session was resumed by Reconcile.
func (t *Tracker) Recovered() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recovered
}

// State returns the persisted tracker state.
func (t *Tracker) State(ctx context.Context) (model.TrackerState, error) {
	return t.state(ctx)
}
