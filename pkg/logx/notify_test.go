package logx

import (
	"strings"
	"sync"
	"testing"
)

func TestFormatNotifyLine(t *testing.T) {
	t.Parallel()
	line := `{"level":"warn","time":"2026-01-07T10:00:00Z","message":"task failed","task":"reports.post-reminder"}`
	got := formatNotifyLine([]byte(line))
	if !strings.HasPrefix(got, "[WARN] task failed") {
		t.Fatalf("line = %q", got)
	}
	if !strings.Contains(got, "task=reports.post-reminder") {
		t.Fatalf("line missing field: %q", got)
	}
}

func TestFormatNotifyLineNonJSON(t *testing.T) {
	t.Parallel()
	if got := formatNotifyLine([]byte("  plain text line \n")); got != "plain text line" {
		t.Fatalf("got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	if got := truncate("short", 100); got != "short" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("x", 50)
	got := truncate(long, 20)
	if len(got) != 20 || !strings.HasSuffix(got, "...") {
		t.Fatalf("got %q (len %d)", got, len(got))
	}
}

func TestNotifySinkMinLevelAndRate(t *testing.T) {
	t.Parallel()
	svc, log := New(Config{
		Level:   "debug",
		Console: false,
		Notify:  NotifyConfig{Enabled: true, MinLevel: "warn", RatePerSec: 1},
	})
	t.Cleanup(func() { _ = svc.Close() })

	var mu sync.Mutex
	var got []string
	svc.SetNotify(func(_ Level, msg string) {
		mu.Lock()
		got = append(got, msg)
		mu.Unlock()
	})

	log.Info("below threshold")
	log.Warn("first warn")
	log.Warn("rate limited away")

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("notify received %d messages, want 1: %v", len(got), got)
	}
	if !strings.Contains(got[0], "first warn") {
		t.Fatalf("message = %q", got[0])
	}
}

func TestNotifyDisabledWithoutHook(t *testing.T) {
	t.Parallel()
	svc, log := New(Config{
		Level:  "debug",
		Notify: NotifyConfig{Enabled: true, MinLevel: "warn", RatePerSec: 10},
	})
	t.Cleanup(func() { _ = svc.Close() })
	// No SetNotify installed; logging must not panic or block.
	log.Warn("nobody listening")
}
