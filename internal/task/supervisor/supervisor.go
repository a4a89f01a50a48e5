package supervisor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"milbot/internal/eventbus"
	logx "milbot/pkg/logx"
)

// Supervisor is the central registry for live tasks.
//
// Names are unique among currently-running tasks only; a finished task's
// name becomes free. All creation goes through an internal FIFO queue, so
// "newest request wins" collision handling is deterministic regardless of
// which goroutine asked.
type Supervisor struct {
	log logx.Logger
	bus eventbus.Bus

	queue *createQueue

	mu    sync.Mutex
	tasks map[string]*Task

	// baseCtx parents every task context; set by Start.
	baseCtx    context.Context
	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

func New(log logx.Logger, bus eventbus.Bus) *Supervisor {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Supervisor{
		log:   log,
		bus:   bus,
		queue: newCreateQueue(),
		tasks: map[string]*Task{},
	}
}

// UniqueID returns a fresh generated task name.
func (s *Supervisor) UniqueID() string { return uuid.NewString() }

// Start launches the queue-draining loop. Tasks are parented to ctx, so
// cancelling it cancels every task; normal teardown is Shutdown then Stop.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loopDone != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.baseCtx = ctx
	s.loopCancel = cancel
	done := make(chan struct{})
	s.loopDone = done

	go func() {
		defer close(done)
		s.loop(loopCtx)
	}()
	s.log.Debug("task loop started")
}

// Stop cancels the queue-draining loop itself. It does not touch children;
// call Shutdown first.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cancel := s.loopCancel
	done := s.loopDone
	s.loopCancel = nil
	s.loopDone = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Debug("task loop stopped")
}

// CreateTask enqueues a creation request and returns immediately. An empty
// name gets a generated one. The task is installed by the queue-draining
// loop, not in the caller's goroutine.
func (s *Supervisor) CreateTask(name string, fn Func) {
	if fn == nil {
		return
	}
	s.queue.push(createReq{name: name, fn: fn})
}

// CreateTaskAndWait enqueues like CreateTask but blocks until the task has
// been installed (started, not finished), then returns its handle.
func (s *Supervisor) CreateTaskAndWait(ctx context.Context, name string, fn Func) (*Task, error) {
	if fn == nil {
		return nil, errors.New("nil task func")
	}
	s.mu.Lock()
	started := s.loopDone != nil
	s.mu.Unlock()
	if !started {
		return nil, ErrNotStarted
	}

	ready := make(chan *Task, 1)
	s.queue.push(createReq{name: name, fn: fn, ready: ready})

	select {
	case t, ok := <-ready:
		if !ok {
			// Loop shut down before the request was installed.
			return nil, ErrNotStarted
		}
		return t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetTask returns the live task registered under name.
func (s *Supervisor) GetTask(name string) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[name]
	return t, ok
}

// Len reports the number of currently tracked tasks.
func (s *Supervisor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// RemoveTask requests cancellation of the named task. The cancellation
// itself rides the creation queue, so a remove followed by a create under
// the same name cannot reap the new task.
func (s *Supervisor) RemoveTask(name string) {
	s.mu.Lock()
	t := s.tasks[name]
	s.mu.Unlock()

	s.CreateTask("", func(ctx context.Context) error {
		if t == nil {
			return nil
		}
		t.Cancel()
		select {
		case <-t.Done():
		case <-ctx.Done():
		}
		return nil
	})
}

// Shutdown cancels every tracked task and awaits them concurrently.
// Cancellation is expected and suppressed; the only error is ctx expiring
// before all tasks acknowledged.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ts := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		ts = append(ts, t)
	}
	s.mu.Unlock()

	s.log.Info("shutting down tasks", logx.Int("count", len(ts)))
	for _, t := range ts {
		t.Cancel()
	}

	g, waitCtx := errgroup.WithContext(ctx)
	for _, t := range ts {
		t := t
		g.Go(func() error {
			select {
			case <-t.Done():
				return nil
			case <-waitCtx.Done():
				return waitCtx.Err()
			}
		})
	}
	err := g.Wait()

	s.mu.Lock()
	s.tasks = map[string]*Task{}
	s.mu.Unlock()
	return err
}

func (s *Supervisor) loop(ctx context.Context) {
	for {
		req, ok := s.queue.pop(ctx)
		if !ok {
			return
		}
		s.install(ctx, req)
	}
}

// install is the single serialization point for the name-uniqueness
// invariant. Only the queue-draining loop calls it.
func (s *Supervisor) install(ctx context.Context, req createReq) {
	name := req.name
	if name == "" {
		name = s.UniqueID()
	}

	s.mu.Lock()
	old := s.tasks[name]
	s.mu.Unlock()

	if old != nil {
		s.log.Warn("task name already in use, replacing", logx.String("task", name))
		old.Cancel()
		select {
		case <-old.Done():
			// Entry removed by the completion path before Done closed.
		case <-ctx.Done():
			if req.ready != nil {
				close(req.ready)
			}
			return
		}
	}

	taskCtx, cancel := context.WithCancel(s.baseCtx)
	t := &Task{
		name:    name,
		started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	s.mu.Lock()
	s.tasks[name] = t
	s.mu.Unlock()

	go s.runTask(taskCtx, t, req.fn)

	if req.ready != nil {
		req.ready <- t
	}
}

func (s *Supervisor) runTask(ctx context.Context, t *Task, fn Func) {
	s.publish(eventbus.TypeTaskStarted, t, nil)

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in task %s: %v", t.name, r)
				s.log.Error("task panicked",
					logx.String("task", t.name),
					logx.Any("panic", r),
					logx.Stack(string(debug.Stack())))
			}
		}()
		return fn(ctx)
	}()

	// Cancellation is a clean stop, not a failure.
	if err != nil && errors.Is(err, context.Canceled) {
		err = nil
	}
	t.setErr(err)

	// Compare-and-delete: only remove the entry if it still points at this
	// exact task. A cancel-then-replace may already have installed a
	// successor under the same name.
	s.mu.Lock()
	if cur, ok := s.tasks[t.name]; ok && cur == t {
		delete(s.tasks, t.name)
	}
	s.mu.Unlock()

	close(t.done)

	if err != nil {
		s.log.Error("task failed", logx.String("task", t.name), logx.Err(err))
		s.publish(eventbus.TypeTaskFailed, t, err)
	} else {
		s.publish(eventbus.TypeTaskFinished, t, nil)
	}
}

func (s *Supervisor) publish(typ string, t *Task, err error) {
	if s.bus == nil {
		return
	}
	ev := eventbus.TaskEvent{Name: t.name, Started: t.started}
	if typ != eventbus.TypeTaskStarted {
		ev.Duration = time.Since(t.started)
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.bus.Publish(eventbus.Event{Type: typ, Data: ev})
}
