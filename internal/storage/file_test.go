package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "milbot/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("Open(%q) error: %v", driver, err)
		}
		if st != nil {
			t.Fatalf("Open(%q) returned a store", driver)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver accepted")
	}
}

func TestFileAppendAndRecentRuns(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := RunRecord{
			At:       base.Add(time.Duration(i) * time.Minute),
			Name:     fmt.Sprintf("job-%d", i),
			Event:    "task.finished",
			Duration: time.Second,
		}
		if err := st.AppendRun(ctx, rec); err != nil {
			t.Fatalf("AppendRun %d: %v", i, err)
		}
	}

	got, err := st.RecentRuns(ctx, 3)
	if err != nil {
		t.Fatalf("RecentRuns error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("RecentRuns returned %d records, want 3", len(got))
	}
	// Oldest-first within the window: the last three appends.
	for i, want := range []string{"job-2", "job-3", "job-4"} {
		if got[i].Name != want {
			t.Fatalf("record %d = %s, want %s", i, got[i].Name, want)
		}
	}
}

func TestFileRecentRunsSkipsTornLines(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	if err := st.AppendRun(ctx, RunRecord{Name: "good", Event: "task.finished"}); err != nil {
		t.Fatalf("AppendRun: %v", err)
	}
	// Simulate a crash mid-write.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := f.WriteString(`{"at":"2026-01-07T1`); err != nil {
		t.Fatalf("write torn line: %v", err)
	}
	_ = f.Close()

	got, err := st.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "good" {
		t.Fatalf("RecentRuns = %+v, want only the good record", got)
	}
}

func TestFileAppendAfterClose(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	if err := st.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := st.AppendRun(context.Background(), RunRecord{Name: "late"}); err == nil {
		t.Fatal("append after close succeeded")
	}
}
