package supervisor

import (
	"context"
	"sync"
	"time"
)

// Func is the body of a supervised task. The context is cancelled when the
// task is replaced, removed, or the supervisor shuts down.
type Func func(ctx context.Context) error

// Task is one live unit of work tracked by the supervisor.
//
// A Task is created by the supervisor's queue-draining loop, never directly.
// Err() is meaningful once Done() is closed.
type Task struct {
	name    string
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

func (t *Task) Name() string { return t.name }

// Done is closed after the task's body has returned and its registry entry
// has been released.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel requests cancellation. It does not wait; use Done for that.
func (t *Task) Cancel() { t.cancel() }

// Err returns the body's error, or nil for success and cancellation.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Task) setErr(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
}
