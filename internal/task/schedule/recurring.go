package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"milbot/internal/eventbus"
	"milbot/internal/task/supervisor"
	logx "milbot/pkg/logx"
)

// CheckFunc gates whether a job's body actually runs at an occurrence.
// Returning false is a normal, logged skip; the job stays armed.
type CheckFunc func(ctx context.Context) bool

// Option configures a RecurringJob at declaration time.
type Option func(*RecurringJob)

// WithShift offsets the computed occurrence by d (may be negative). If the
// shift pushes an occurrence into the past it rolls a full week forward; a
// shifted job never fires late.
func WithShift(d time.Duration) Option {
	return func(j *RecurringJob) { j.shift = d }
}

// WithCheck installs a readiness predicate evaluated at each occurrence.
func WithCheck(fn CheckFunc) Option {
	return func(j *RecurringJob) { j.check = fn }
}

// RecurringJob runs its body at the next occurrence of the configured
// weekday(s) and time-of-day, then re-arms for the following occurrence.
type RecurringJob struct {
	name   string
	body   supervisor.Func
	days   []time.Weekday
	hour   int
	minute int
	shift  time.Duration
	check  CheckFunc

	log logx.Logger
	bus eventbus.Bus
	now func() time.Time

	mu      sync.Mutex
	sup     *supervisor.Supervisor
	pending *supervisor.Task
}

// Weekly declares a job for the given weekday(s) at hour:minute local time.
// Validation happens in Start so declarations can stay assignment-style.
func Weekly(name string, days []time.Weekday, hour, minute int, body supervisor.Func, opts ...Option) *RecurringJob {
	j := &RecurringJob{
		name:   name,
		body:   body,
		days:   append([]time.Weekday(nil), days...),
		hour:   hour,
		minute: minute,
		now:    time.Now,
	}
	for _, o := range opts {
		o(j)
	}
	return j
}

func (j *RecurringJob) Name() string { return j.name }

func (j *RecurringJob) bind(log logx.Logger, bus eventbus.Bus, now func() time.Time) {
	j.log = log.With(logx.String("job", j.name))
	j.bus = bus
	if now != nil {
		j.now = now
	}
}

func (j *RecurringJob) validate() error {
	if j.name == "" {
		return fmt.Errorf("recurring job: name required")
	}
	if j.body == nil {
		return fmt.Errorf("recurring job %s: nil body", j.name)
	}
	if len(j.days) == 0 {
		return fmt.Errorf("recurring job %s: at least one weekday required", j.name)
	}
	for _, d := range j.days {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("recurring job %s: invalid weekday %d", j.name, int(d))
		}
	}
	if j.hour < 0 || j.hour > 23 {
		return fmt.Errorf("recurring job %s: invalid hour %d", j.name, j.hour)
	}
	if j.minute < 0 || j.minute > 59 {
		return fmt.Errorf("recurring job %s: invalid minute %d", j.name, j.minute)
	}
	return nil
}

// NextTime computes the job's next occurrence: the chronologically nearest
// candidate across all configured weekdays, shift applied per candidate.
// Always strictly in the future.
func (j *RecurringJob) NextTime() time.Time {
	now := j.now()
	var best time.Time
	for _, d := range j.days {
		c := j.nextOnWeekday(now, d)
		if best.IsZero() || c.Before(best) {
			best = c
		}
	}
	return best
}

func (j *RecurringJob) nextOnWeekday(now time.Time, day time.Weekday) time.Time {
	ahead := (int(day) - int(now.Weekday()) + 7) % 7
	d := now.AddDate(0, 0, ahead)
	t := time.Date(d.Year(), d.Month(), d.Day(), j.hour, j.minute, 0, 0, now.Location())
	t = t.Add(j.shift)
	// Not strictly in the future (time already passed today, or the shift
	// moved it behind now): take next week's occurrence.
	if !t.After(now) {
		t = t.AddDate(0, 0, 7)
	}
	return t
}

// Start validates the job, binds it to sup and arms the first occurrence.
func (j *RecurringJob) Start(ctx context.Context, sup *supervisor.Supervisor) error {
	if err := j.validate(); err != nil {
		return err
	}
	j.mu.Lock()
	j.sup = sup
	j.mu.Unlock()
	return j.schedule(ctx)
}

// schedule arms one future occurrence under a per-occurrence task name, so a
// re-arm never collides with the occurrence that requested it.
func (j *RecurringJob) schedule(ctx context.Context) error {
	j.mu.Lock()
	sup := j.sup
	j.mu.Unlock()
	if sup == nil {
		return fmt.Errorf("recurring job %s: not bound to a supervisor", j.name)
	}

	t, err := sup.CreateTaskAndWait(ctx, j.name+"/"+sup.UniqueID(), j.run)
	if err != nil {
		return fmt.Errorf("recurring job %s: arm: %w", j.name, err)
	}
	j.mu.Lock()
	j.pending = t
	j.mu.Unlock()
	return nil
}

func (j *RecurringJob) run(ctx context.Context) error {
	next := j.NextTime()
	j.log.Info("occurrence scheduled", logx.Time("at", next))

	timer := time.NewTimer(next.Sub(j.now()))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
	}

	// Re-arm before running the body; an exception in the body must never
	// cost the following occurrence.
	if err := j.schedule(ctx); err != nil {
		j.log.Warn("re-arm failed", logx.Err(err))
	}

	if j.check != nil && !j.check(ctx) {
		j.log.Info("check failed, skipping until next occurrence")
		if j.bus != nil {
			j.bus.Publish(eventbus.Event{
				Type: eventbus.TypeJobSkipped,
				Data: eventbus.TaskEvent{Name: j.name, Started: j.now()},
			})
		}
		return nil
	}

	if err := j.body(ctx); err != nil {
		j.log.Error("scheduled job failed", logx.Err(err))
		return fmt.Errorf("%s: %w", j.name, err)
	}
	return nil
}

// RunImmediately cancels the pending occurrence, runs the body right away
// (bypassing the check and the wait), then re-arms the normal schedule.
// The body's error is returned to the caller directly.
func (j *RecurringJob) RunImmediately(ctx context.Context) error {
	j.mu.Lock()
	pending := j.pending
	j.mu.Unlock()

	if pending != nil {
		pending.Cancel()
		select {
		case <-pending.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	err := j.body(ctx)

	// Re-arm regardless of the body's outcome; a failed manual trigger must
	// not leave the weekly schedule disarmed.
	if serr := j.schedule(ctx); serr != nil && err == nil {
		err = serr
	}
	return err
}
