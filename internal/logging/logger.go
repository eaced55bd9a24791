package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a logger at the given level writing to out. Unknown levels fall back to info
// and a nil writer means stderr.
func New(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	return logger
}

// OpenFile returns a logger appending to path, for the TUI which owns the terminal.
// The returned closer releases the file.
func OpenFile(level, path string) (*logrus.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return New(level, f), f, nil
}

// Discard is a logger that drops everything, for tests and library callers without one.
func Discard() *logrus.Logger {
	return New("panic", io.Discard)
}
