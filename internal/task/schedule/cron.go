package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"milbot/internal/eventbus"
	"milbot/internal/task/supervisor"
	logx "milbot/pkg/logx"
)

// cronParser accepts standard 5-field specs plus descriptors like
// "@hourly" and "@every 30m".
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// CronJob runs its body on a cron/interval spec through the same supervisor
// loop as RecurringJob. Used for periodic refresh work that is not anchored
// to a weekday.
type CronJob struct {
	name  string
	spec  string
	sched cron.Schedule
	body  supervisor.Func

	log logx.Logger
	bus eventbus.Bus
	now func() time.Time

	mu      sync.Mutex
	sup     *supervisor.Supervisor
	pending *supervisor.Task
}

// Cron declares a job for the given cron spec. The spec is parsed eagerly so
// a bad spec fails at declaration, not at first arm.
func Cron(name, spec string, body supervisor.Func) (*CronJob, error) {
	if name == "" {
		return nil, fmt.Errorf("cron job: name required")
	}
	if body == nil {
		return nil, fmt.Errorf("cron job %s: nil body", name)
	}
	sched, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("cron job %s: parse %q: %w", name, spec, err)
	}
	return &CronJob{name: name, spec: spec, sched: sched, body: body, now: time.Now}, nil
}

func (j *CronJob) Name() string { return j.name }

// Spec returns the raw cron expression.
func (j *CronJob) Spec() string { return j.spec }

func (j *CronJob) bind(log logx.Logger, bus eventbus.Bus, now func() time.Time) {
	j.log = log.With(logx.String("job", j.name), logx.String("spec", j.spec))
	j.bus = bus
	if now != nil {
		j.now = now
	}
}

// NextTime returns the next occurrence per the cron spec.
func (j *CronJob) NextTime() time.Time {
	return j.sched.Next(j.now())
}

func (j *CronJob) Start(ctx context.Context, sup *supervisor.Supervisor) error {
	j.mu.Lock()
	j.sup = sup
	j.mu.Unlock()
	return j.schedule(ctx)
}

func (j *CronJob) schedule(ctx context.Context) error {
	j.mu.Lock()
	sup := j.sup
	j.mu.Unlock()
	if sup == nil {
		return fmt.Errorf("cron job %s: not bound to a supervisor", j.name)
	}

	t, err := sup.CreateTaskAndWait(ctx, j.name+"/"+sup.UniqueID(), j.run)
	if err != nil {
		return fmt.Errorf("cron job %s: arm: %w", j.name, err)
	}
	j.mu.Lock()
	j.pending = t
	j.mu.Unlock()
	return nil
}

func (j *CronJob) run(ctx context.Context) error {
	next := j.NextTime()
	j.log.Debug("occurrence scheduled", logx.Time("at", next))

	timer := time.NewTimer(next.Sub(j.now()))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
	}

	// Same re-arm-first policy as RecurringJob.
	if err := j.schedule(ctx); err != nil {
		j.log.Warn("re-arm failed", logx.Err(err))
	}

	if err := j.body(ctx); err != nil {
		j.log.Error("cron job failed", logx.Err(err))
		return fmt.Errorf("%s: %w", j.name, err)
	}
	return nil
}

// RunImmediately cancels the pending occurrence, runs the body now, then
// re-arms the cron schedule.
func (j *CronJob) RunImmediately(ctx context.Context) error {
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
	if serr := j.schedule(ctx); serr != nil && err == nil {
		err = serr
	}
	return err
}
