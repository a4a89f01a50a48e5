package storage

import (
	"context"

	"milbot/internal/eventbus"
	logx "milbot/pkg/logx"
)

// Recorder returns a task body that drains task lifecycle events from the
// bus into the journal. It is run as a supervised task and exits when its
// context is cancelled.
func Recorder(bus eventbus.Bus, store Store, log logx.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		events, unsubscribe := bus.Subscribe(64)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				te, isTask := ev.Data.(eventbus.TaskEvent)
				if !isTask {
					continue
				}
				rec := RunRecord{
					At:       ev.Time,
					Name:     te.Name,
					Event:    ev.Type,
					Duration: te.Duration,
					Error:    te.Error,
				}
				if err := store.AppendRun(ctx, rec); err != nil && ctx.Err() == nil {
					log.Warn("run journal append failed", logx.String("task", te.Name), logx.Err(err))
				}
			}
		}
	}
}
