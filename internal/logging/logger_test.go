package logging

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewParsesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("debug", &buf)
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}

	logger.WithField("schedule_id", "sched-1").Debug("armed")
	if !strings.Contains(buf.String(), "schedule_id=sched-1") {
		t.Fatalf("expected structured field in output, got %q", buf.String())
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	if got := New("loud", nil).GetLevel(); got != logrus.InfoLevel {
		t.Fatalf("expected info fallback, got %s", got)
	}
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "healthd.log")
	logger, closer, err := OpenFile("info", path)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	logger.Info("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
