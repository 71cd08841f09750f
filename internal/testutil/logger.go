// Package testutil holds helpers shared by package tests.
package testutil

import (
	"log/slog"
	"testing"
)

// NewTestLogger routes structured log output through t.Log at debug level,
// so the code under test stays observable on failure and with -v without
// polluting normal test output.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(&logSink{t: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type logSink struct {
	t testing.TB
}

func (s *logSink) Write(p []byte) (int, error) {
	s.t.Helper()
	s.t.Log(string(p))
	return len(p), nil
}
