package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"milbot/internal/eventbus"
	"milbot/internal/task/supervisor"
	logx "milbot/pkg/logx"
)

// Job is one declared scheduled job, enumerable by admin tooling.
//
// The unexported bind keeps implementations local to this package; owners
// construct jobs with Weekly/Cron and hand them to a Registry.
type Job interface {
	Name() string
	NextTime() time.Time
	Start(ctx context.Context, sup *supervisor.Supervisor) error
	RunImmediately(ctx context.Context) error

	bind(log logx.Logger, bus eventbus.Bus, now func() time.Time)
}

type entry struct {
	owner string
	job   Job
}

// Registry collects every declared job per owning component. Owners register
// explicitly at startup; there is no reflective discovery.
type Registry struct {
	log logx.Logger
	bus eventbus.Bus
	now func() time.Time

	mu      sync.Mutex
	entries []entry
	byName  map[string]Job
}

func NewRegistry(log logx.Logger, bus eventbus.Bus) *Registry {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Registry{log: log, bus: bus, byName: map[string]Job{}}
}

// SetClock overrides the wall clock handed to jobs registered afterwards.
// Used to schedule in the deployment's configured timezone.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Register records jobs under the given owner name. Duplicate job names are
// a declaration bug and are rejected.
func (r *Registry) Register(owner string, jobs ...Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range jobs {
		if j == nil {
			continue
		}
		if _, dup := r.byName[j.Name()]; dup {
			return fmt.Errorf("registry: duplicate job name %q", j.Name())
		}
		j.bind(r.log, r.bus, r.now)
		r.byName[j.Name()] = j
		r.entries = append(r.entries, entry{owner: owner, job: j})
	}
	return nil
}

// StartAll arms every registered job against sup. The first failure aborts:
// a misdeclared schedule should stop the process at startup, loudly.
func (r *Registry) StartAll(ctx context.Context, sup *supervisor.Supervisor) error {
	r.mu.Lock()
	es := append([]entry(nil), r.entries...)
	r.mu.Unlock()

	for _, e := range es {
		if err := e.job.Start(ctx, sup); err != nil {
			return fmt.Errorf("start jobs for %s: %w", e.owner, err)
		}
	}
	r.log.Info("jobs armed", logx.Int("count", len(es)))
	return nil
}

// Find returns the declared job with the given name.
func (r *Registry) Find(name string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byName[name]
	return j, ok
}

// JobInfo is a point-in-time view of one declared job.
type JobInfo struct {
	Owner string
	Name  string
	Next  time.Time
}

// Snapshot lists all declared jobs sorted by owner then name.
func (r *Registry) Snapshot() []JobInfo {
	r.mu.Lock()
	es := append([]entry(nil), r.entries...)
	r.mu.Unlock()

	infos := make([]JobInfo, 0, len(es))
	for _, e := range es {
		infos = append(infos, JobInfo{Owner: e.owner, Name: e.job.Name(), Next: e.job.NextTime()})
	}
	sort.Slice(infos, func(i, k int) bool {
		if infos[i].Owner != infos[k].Owner {
			return infos[i].Owner < infos[k].Owner
		}
		return infos[i].Name < infos[k].Name
	})
	return infos
}
