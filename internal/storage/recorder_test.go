package storage

import (
	"context"
	"testing"
	"time"

	"milbot/internal/eventbus"
	logx "milbot/pkg/logx"
)

func TestRecorderJournalsTaskEvents(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	bus := eventbus.New()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = Recorder(bus, st, logx.Nop())(ctx)
	}()

	// Give the recorder a moment to subscribe; the bus drops events with no
	// subscribers attached.
	time.Sleep(20 * time.Millisecond)

	bus.Publish(eventbus.Event{
		Type: eventbus.TypeTaskFinished,
		Data: eventbus.TaskEvent{Name: "reports.post-reminder", Duration: 2 * time.Second},
	})
	bus.Publish(eventbus.Event{
		Type: eventbus.TypeTaskFailed,
		Data: eventbus.TaskEvent{Name: "issues.stale-sweep", Error: "forge unreachable"},
	})
	// Non-task payloads are ignored.
	bus.Publish(eventbus.Event{Type: "config.reloaded", Data: "ignored"})

	deadline := time.Now().Add(5 * time.Second)
	var got []RunRecord
	for time.Now().Before(deadline) {
		var err error
		got, err = st.RecentRuns(context.Background(), 10)
		if err != nil {
			t.Fatalf("RecentRuns error: %v", err)
		}
		if len(got) >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(got) != 2 {
		t.Fatalf("journal has %d records, want 2", len(got))
	}
	if got[0].Name != "reports.post-reminder" || got[0].Event != eventbus.TypeTaskFinished {
		t.Fatalf("first record = %+v", got[0])
	}
	if got[1].Name != "issues.stale-sweep" || got[1].Error != "forge unreachable" {
		t.Fatalf("second record = %+v", got[1])
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("recorder did not stop on cancellation")
	}
}
