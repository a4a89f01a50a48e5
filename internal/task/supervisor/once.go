package supervisor

import (
	"context"
	"fmt"
	"time"
)

// RunAt schedules fn once at the given instant. The instant must be in the
// future; a past instant is rejected rather than fired immediately.
func (s *Supervisor) RunAt(at time.Time, name string, fn Func) error {
	return s.RunIn(time.Until(at), name, fn)
}

// RunIn schedules fn once after delay. If the task is cancelled during the
// wait it exits quietly. The body's error, if any, surfaces through the
// task-completion machinery like any other task.
func (s *Supervisor) RunIn(delay time.Duration, name string, fn Func) error {
	if fn == nil {
		return fmt.Errorf("run %q: nil task func", name)
	}
	if delay <= 0 {
		return fmt.Errorf("run %q: %w", name, ErrPastDeadline)
	}

	s.CreateTask(name, func(ctx context.Context) error {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			// Cancelled during the wait; not an error.
			return nil
		case <-timer.C:
		}
		return fn(ctx)
	})
	return nil
}
