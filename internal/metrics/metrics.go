package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "healthd"

// Recorder is what the reminder service and tracker report to. A nil *Metrics is a
// valid no-op recorder.
type Recorder interface {
	OccurrenceCreated(kind string)
	Transition(kind, status string)
	AutoStopped(kind string)
	NotificationArmed(kind string)
	NotificationFailed(kind string)
	ScreenTime(seconds float64, recovered bool)
	StoreError(op string)
}

type Metrics struct {
	registry      *prometheus.Registry
	occurrences   *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	autoStops     *prometheus.CounterVec
	notifications *prometheus.CounterVec
	screenTime    *prometheus.CounterVec
	storeErrors   *prometheus.CounterVec
}

func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		occurrences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "occurrences_total",
			Help:      "Reminder occurrences produced by schedules.",
		}, []string{"kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_transitions_total",
			Help:      "Reminder log status transitions.",
		}, []string{"kind", "status"}),
		autoStops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_auto_stops_total",
			Help:      "Schedules deactivated after reaching a day or reminder bound.",
		}, []string{"kind"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications handed to the scheduler, by outcome.",
		}, []string{"kind", "outcome"}),
		screenTime: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screen_time_seconds_total",
			Help:      "Tracked screen time in closed sessions.",
		}, []string{"recovered"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Failed storage operations.",
		}, []string{"op"}),
	}

	toRegister := []prometheus.Collector{
		m.occurrences, m.transitions, m.autoStops, m.notifications, m.screenTime, m.storeErrors,
		collectors.NewGoCollector(),
	}
	for _, c := range toRegister {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server returns an HTTP server exposing /metrics on addr.
func (m *Metrics) Server(addr string) (*http.Server, error) {
	if addr == "" {
		return nil, errors.New("metrics: empty listen address")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{Addr: addr, Handler: mux}, nil
}

func (m *Metrics) OccurrenceCreated(kind string) {
	if m == nil {
		return
	}
	m.occurrences.WithLabelValues(kind).Inc()
}

func (m *Metrics) Transition(kind, status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) AutoStopped(kind string) {
	if m == nil {
		return
	}
	m.autoStops.WithLabelValues(kind).Inc()
}

func (m *Metrics) NotificationArmed(kind string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, "armed").Inc()
}

func (m *Metrics) NotificationFailed(kind string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, "failed").Inc()
}

func (m *Metrics) ScreenTime(seconds float64, recovered bool) {
	if m == nil {
		return
	}
	label := "false"
	if recovered {
		label = "true"
	}
	m.screenTime.WithLabelValues(label).Add(seconds)
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

type nopRecorder struct{}

func (nopRecorder) OccurrenceCreated(string) {}
func (nopRecorder) Transition(string, string) {}
func (nopRecorder) AutoStopped(string) {}
func (nopRecorder) NotificationArmed(string) {}
func (nopRecorder) NotificationFailed(string) {}
func (nopRecorder) ScreenTime(float64, bool) {}
func (nopRecorder) StoreError(string) {}

// Nop returns a recorder that discards everything.
func Nop() Recorder {
	return nopRecorder{}
}
