// Package app wires the bot together: config, logging, the task
// supervisor, the scheduled job owners and the optional run journal.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"milbot/internal/config"
	"milbot/internal/eventbus"
	"milbot/internal/jobs"
	"milbot/internal/observability/pprof"
	"milbot/internal/semester"
	"milbot/internal/storage"
	"milbot/internal/task/schedule"
	"milbot/internal/task/supervisor"
	logx "milbot/pkg/logx"
)

// Ports are the host-supplied integrations the job owners talk to. Any nil
// port is replaced with a logging stub so the bot runs standalone.
type Ports struct {
	Notifier jobs.Notifier
	Forge    jobs.Forge
	Calendar jobs.CalendarSource
}

type App struct {
	cfgPath string
	cfgm    *config.Manager

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	sup *supervisor.Supervisor
	reg *schedule.Registry
	sem *semester.Calendar
	ann *jobs.Announcer

	pprof *pprof.Service
	ports Ports
	loc   *time.Location

	// lastApplied tracks what applyConfig last saw, for restart-required
	// warnings on sections that cannot hot-reload.
	lastApplied *config.Config
}

func NewApp(cfgPath string, ports Ports) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg.Logging))
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	loc := time.Local
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("timezone: invalid %q: %w", tz, err)
		}
	}

	bus := eventbus.New()

	// Storage (optional)
	sc, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	if store != nil {
		log.Info("run journal enabled", logx.String("driver", sc.Driver))
	}

	sem, err := semester.Parse(cfg.SemesterPairs(), loc)
	if err != nil {
		return nil, err
	}

	if ports.Notifier == nil {
		ports.Notifier = loggedNotifier{log: log.With(logx.String("comp", "notify"))}
	}
	if ports.Forge == nil {
		ports.Forge = loggedForge{log: log.With(logx.String("comp", "forge"))}
	}
	if ports.Calendar == nil {
		ports.Calendar = loggedCalendar{log: log.With(logx.String("comp", "calendar"))}
	}

	sup := supervisor.New(log.With(logx.String("comp", "tasks")), bus)

	reg := schedule.NewRegistry(log.With(logx.String("comp", "jobs")), bus)
	reg.SetClock(func() time.Time { return time.Now().In(loc) })

	// Owner constructors attach their own comp field.
	channel := cfg.Jobs.ReportsChannel
	if cfg.ReportsEnabled() {
		r := jobs.NewReports(log, ports.Notifier, sem, channel)
		if err := reg.Register("reports", r.Jobs()...); err != nil {
			return nil, err
		}
	}
	if cfg.ProjectsEnabled() {
		p := jobs.NewProjects(log, ports.Notifier, channel)
		if err := reg.Register("projects", p.Jobs()...); err != nil {
			return nil, err
		}
	}
	if cfg.IssuesEnabled() {
		i := jobs.NewIssues(log, ports.Notifier, ports.Forge, channel)
		if err := reg.Register("issues", i.Jobs()...); err != nil {
			return nil, err
		}
	}
	if spec := strings.TrimSpace(cfg.Jobs.CalendarRefresh); spec != "" {
		c := jobs.NewCalendar(log, ports.Calendar)
		j, err := c.Job(spec)
		if err != nil {
			return nil, fmt.Errorf("jobs.calendar_refresh: %w", err)
		}
		if err := reg.Register("calendar", j); err != nil {
			return nil, err
		}
	}

	ann := jobs.NewAnnouncer(log, sup, ports.Notifier, channel)

	pprofSvc := pprof.New(pprof.Config{Enabled: cfg.Pprof.Enabled, Addr: cfg.Pprof.Addr}, log)

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   store,
		sup:     sup,
		reg:     reg,
		sem:     sem,
		ann:     ann,
		pprof:   pprofSvc,
		ports:   ports,
		loc:     loc,

		lastApplied: cfg,
	}, nil
}

// Announcer posts one-off delayed messages through the supervisor.
func (a *App) Announcer() *jobs.Announcer { return a.ann }

// Jobs lists every declared job with its next occurrence.
func (a *App) Jobs() []schedule.JobInfo { return a.reg.Snapshot() }

// RunJobNow fires the named job immediately, ahead of schedule.
func (a *App) RunJobNow(ctx context.Context, name string) error {
	j, ok := a.reg.Find(name)
	if !ok {
		return fmt.Errorf("no job named %q", name)
	}
	return j.RunImmediately(ctx)
}

func (a *App) Start(ctx context.Context) error {
	a.sup.Start(ctx)

	// High-severity log lines go to the operator channel, rate limited
	// inside logx.
	channel := a.cfgm.Get().Jobs.ReportsChannel
	a.logs.SetNotify(func(_ logx.Level, msg string) {
		sendCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.ports.Notifier.Send(sendCtx, channel, msg)
	})

	if a.store != nil {
		a.sup.CreateTask("storage.recorder", storage.Recorder(a.bus, a.store, a.log.With(logx.String("comp", "storage"))))
	}

	a.sup.CreateTask("config.watch", a.cfgm.Watch)

	sub := a.cfgm.Subscribe(8)
	a.sup.CreateTask("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-c.Done():
				return nil
			case newCfg, ok := <-sub:
				if !ok {
					return nil
				}
				// Coalesce bursts: keep only the latest config.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				a.applyConfig(c, newCfg)
			}
		}
	})

	if err := a.reg.StartAll(ctx, a.sup); err != nil {
		return err
	}

	if err := a.pprof.Start(ctx); err != nil {
		return err
	}

	notifyReady(a.log)
	a.sup.CreateTask("systemd.watchdog", watchdogTask())

	a.log.Info("started", logx.Int("jobs", len(a.reg.Snapshot())))
	return nil
}

// applyConfig handles the hot-reloadable subset. Timezone and storage
// changes need a restart; say so instead of half-applying them.
func (a *App) applyConfig(ctx context.Context, cfg *config.Config) {
	a.logs.Apply(mapLogConfig(cfg.Logging))

	if err := a.pprof.Reconfigure(ctx, pprof.Config{Enabled: cfg.Pprof.Enabled, Addr: cfg.Pprof.Addr}); err != nil {
		a.log.Warn("pprof reconfigure failed", logx.Err(err))
	}

	if ranges, err := semester.ParseRanges(cfg.SemesterPairs(), a.loc); err != nil {
		a.log.Warn("invalid semesters in config; keeping previous", logx.Err(err))
	} else if err := a.sem.Update(ranges); err != nil {
		a.log.Warn("invalid semesters in config; keeping previous", logx.Err(err))
	}

	if prev := a.lastApplied; prev != nil {
		if cfg.Timezone != prev.Timezone {
			a.log.Warn("timezone changed; restart required for schedules to move")
		}
		if cfg.Storage != prev.Storage {
			a.log.Warn("storage config changed; restart required")
		}
	}
	a.lastApplied = cfg

	a.log.Info("config applied")
}

func (a *App) Stop(ctx context.Context) error {
	notifyStopping(a.log)

	step := func(name string, timeout time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		start := time.Now()
		if err := fn(stepCtx); err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	}

	step("tasks", 10*time.Second, a.sup.Shutdown)
	step("loop", 2*time.Second, func(context.Context) error { a.sup.Stop(); return nil })
	step("pprof", 2*time.Second, func(c context.Context) error { a.pprof.Stop(c); return nil })
	step("storage", 2*time.Second, func(context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})

	a.log.Info("stopped")
	return a.logs.Close()
}

func mapLogConfig(lc config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   lc.Level,
		Console: lc.Console,
		File: logx.FileConfig{
			Enabled: lc.File.Enabled,
			Path:    lc.File.Path,
		},
		Notify: logx.NotifyConfig{
			Enabled:    lc.Notify.Enabled,
			MinLevel:   lc.Notify.MinLevel,
			RatePerSec: lc.Notify.RatePerSec,
		},
	}
}

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, nil
}
