package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRecord(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}

	m.OccurrenceCreated("medicine")
	m.OccurrenceCreated("medicine")
	m.Transition("medicine", "missed")
	m.AutoStopped("feeding")
	m.NotificationArmed("medicine")
	m.NotificationFailed("medicine")
	m.ScreenTime(90, true)
	m.StoreError("create_occurrence")

	if got := testutil.ToFloat64(m.occurrences.WithLabelValues("medicine")); got != 2 {
		t.Fatalf("expected 2 occurrences, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("medicine", "missed")); got != 1 {
		t.Fatalf("expected 1 missed transition, got %v", got)
	}
	if got := testutil.ToFloat64(m.autoStops.WithLabelValues("feeding")); got != 1 {
		t.Fatalf("expected 1 auto stop, got %v", got)
	}
	if got := testutil.ToFloat64(m.notifications.WithLabelValues("medicine", "failed")); got != 1 {
		t.Fatalf("expected 1 failed notification, got %v", got)
	}
	if got := testutil.ToFloat64(m.screenTime.WithLabelValues("true")); got != 90 {
		t.Fatalf("expected 90 recovered seconds, got %v", got)
	}
	if got := testutil.ToFloat64(m.storeErrors.WithLabelValues("create_occurrence")); got != 1 {
		t.Fatalf("expected 1 store error, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.OccurrenceCreated("medicine")
	m.ScreenTime(1, false)
	if m.Registry() != nil {
		t.Fatal("expected nil registry for nil metrics")
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.OccurrenceCreated("feeding")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `healthd_occurrences_total{kind="feeding"} 1`) {
		t.Fatalf("expected occurrences counter in exposition, got:\n%s", rec.Body.String())
	}
}

func TestServerRequiresAddress(t *testing.T) {
	m, _ := New()
	if _, err := m.Server(""); err == nil {
		t.Fatal("expected error for empty address")
	}
}
