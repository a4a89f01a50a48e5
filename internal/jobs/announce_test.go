package jobs

import (
	"context"
	"strings"
	"testing"
	"time"

	"milbot/internal/task/supervisor"
	logx "milbot/pkg/logx"
)

func startedSupervisor(t *testing.T) *supervisor.Supervisor {
	t.Helper()
	s := supervisor.New(logx.Nop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	t.Cleanup(func() {
		cancel()
		s.Stop()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = s.Shutdown(sctx)
	})
	return s
}

func TestAnnouncerPostsAfterDelay(t *testing.T) {
	t.Parallel()
	n := &fakeNotifier{}
	a := NewAnnouncer(logx.Nop(), startedSupervisor(t), n, "general")

	if err := a.PostIn(10*time.Millisecond, "merge-42", "PR 42 merged"); err != nil {
		t.Fatalf("PostIn: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(n.messages()) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	msgs := n.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "PR 42 merged") {
		t.Fatalf("messages = %v", msgs)
	}
}

func TestAnnouncerCoalescesByID(t *testing.T) {
	t.Parallel()
	n := &fakeNotifier{}
	a := NewAnnouncer(logx.Nop(), startedSupervisor(t), n, "general")

	if err := a.PostIn(time.Hour, "build-7", "stale text"); err != nil {
		t.Fatalf("first PostIn: %v", err)
	}
	if err := a.PostIn(10*time.Millisecond, "build-7", "fresh text"); err != nil {
		t.Fatalf("second PostIn: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(n.messages()) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	msgs := n.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "fresh text") {
		t.Fatalf("messages = %v, want only the replacement", msgs)
	}
}

func TestAnnouncerRejectsBadArgs(t *testing.T) {
	t.Parallel()
	a := NewAnnouncer(logx.Nop(), startedSupervisor(t), &fakeNotifier{}, "general")
	if err := a.PostIn(10*time.Millisecond, "", "msg"); err == nil {
		t.Fatal("empty id accepted")
	}
	if err := a.PostIn(0, "x", "msg"); err == nil {
		t.Fatal("zero delay accepted")
	}
}
