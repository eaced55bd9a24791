// Package reminder owns schedule lifecycle and the per-occurrence reminder state machines,
// and keeps the notification scheduler armed with each schedule's next fire time.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/healthd/internal/logging"
	"github.com/sandeepkv93/healthd/internal/metrics"
	"github.com/sandeepkv93/healthd/internal/model"
	"github.com/sandeepkv93/healthd/internal/scheduler"
	"github.com/sandeepkv93/healthd/internal/storage"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound          = storage.ErrNotFound
	ErrImmutableField    = errors.New("reminder: field is immutable")
	ErrInvalidTransition = errors.New("reminder: invalid status transition")
	ErrInvalidSnooze     = errors.New("reminder: snooze minutes must be positive")
	ErrScheduleInactive  = errors.New("reminder: schedule is stopped")
	ErrWrongKind         = errors.New("reminder: wrong schedule kind")
	ErrUnknownAction     = errors.New("reminder: unknown action")
)

// Notifier arms and cancels wake-ups. Re-scheduling an entity replaces its previous event.
type Notifier interface {
	Schedule(ev scheduler.Event) error
	Cancel(entityID string) bool
}

type nopNotifier struct{}

func (nopNotifier) Schedule(scheduler.Event) error { return nil }
func (nopNotifier) Cancel(string) bool { return false }

type Service struct {
	repo     storage.Repository
	notifier Notifier
	log      *logrus.Logger
	metrics  metrics.Recorder
	now      func() time.Time
	loc      *time.Location
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLogger(l *logrus.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone used for calendar days and fixed clock times.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func New(repo storage.Repository, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("reminder: nil repository")
	}
	s := &Service{
		repo:     repo,
		notifier: nopNotifier{},
		log:      logging.Discard(),
		metrics:  metrics.Nop(),
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

// fail logs and counts a storage failure and wraps it with the operation name. Not-found
// is an expected outcome and passes through quietly.
func (s *Service) fail(op string, fields logrus.Fields, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.StoreError(strings.ReplaceAll(op, " ", "_"))
	s.log.WithFields(fields).WithError(err).Errorf("%s failed", op)
	return fmt.Errorf("%s: %w", op, err)
}

type NewProfile struct {
	ID   string
	Name string
}

func (s *Service) CreateProfile(ctx context.Context, in NewProfile) (model.Profile, error) {
	p := model.Profile{
		ID:        strings.TrimSpace(in.ID),
		Name:      strings.TrimSpace(in.Name),
		CreatedAt: s.clock(),
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := p.Validate(); err != nil {
		return model.Profile{}, err
	}
	if err := s.repo.CreateProfile(ctx, p); err != nil {
		return model.Profile{}, s.fail("create profile", logrus.Fields{"profile_id": p.ID}, err)
	}
	return p, nil
}

// EnsureProfile returns the profile with id, creating it named after its id when missing.
func (s *Service) EnsureProfile(ctx context.Context, id string) (model.Profile, error) {
	p, err := s.repo.GetProfile(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return model.Profile{}, s.fail("get profile", logrus.Fields{"profile_id": id}, err)
	}
	return s.CreateProfile(ctx, NewProfile{ID: id, Name: id})
}

func (s *Service) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	out, err := s.repo.ListProfiles(ctx, storage.ProfileListFilter{})
	if err != nil {
		return nil, s.fail("list profiles", nil, err)
	}
	return out, nil
}

// DeleteProfile removes only the profile record; schedules and logs stay for export.
func (s *Service) DeleteProfile(ctx context.Context, id string) (bool, error) {
	if err := s.repo.DeleteProfile(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, s.fail("delete profile", logrus.Fields{"profile_id": id}, err)
	}
	return true, nil
}
