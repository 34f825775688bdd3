// Package testutil provides logging helpers shared by package tests.
package testutil

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// LogRecorder keeps every log line so tests can assert on what was logged.
// Lines are also forwarded to t.Log.
type LogRecorder struct {
	t   testing.TB
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLogRecorder returns a recorder and a debug-level logger writing to it.
func NewLogRecorder(t testing.TB) (*LogRecorder, *slog.Logger) {
	t.Helper()
	rec := &LogRecorder{t: t}
	return rec, slog.New(slog.NewTextHandler(rec, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.t.Log(string(p))
	return r.buf.Write(p)
}

// Lines returns the recorded lines containing every one of substrs.
func (r *LogRecorder) Lines(substrs ...string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for line := range strings.Lines(r.buf.String()) {
		if containsAll(line, substrs) {
			out = append(out, strings.TrimSuffix(line, "\n"))
		}
	}
	return out
}

func containsAll(s string, substrs []string) bool {
	for _, sub := range substrs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
