package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"milbot/internal/task/schedule"
	logx "milbot/pkg/logx"
)

// staleIssueAge matches the weekly sweep cadence: anything untouched for a
// month gets surfaced.
const staleIssueAge = 30 * 24 * time.Hour

// Issues sweeps the lab's forge organization for stale issues every Monday
// night and posts the offenders.
type Issues struct {
	log     logx.Logger
	notify  Notifier
	forge   Forge
	channel string
}

func NewIssues(log logx.Logger, notify Notifier, forge Forge, channel string) *Issues {
	return &Issues{
		log:     log.With(logx.String("comp", "issues")),
		notify:  notify,
		forge:   forge,
		channel: channel,
	}
}

func (i *Issues) Jobs() []schedule.Job {
	return []schedule.Job{
		schedule.Weekly("issues.stale-sweep", []time.Weekday{time.Monday}, 0, 0, i.staleSweep),
	}
}

func (i *Issues) staleSweep(ctx context.Context) error {
	stale, err := i.forge.StaleIssues(ctx, staleIssueAge)
	if err != nil {
		return fmt.Errorf("stale sweep: %w", err)
	}
	if len(stale) == 0 {
		i.log.Debug("no stale issues")
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d issue(s) have gone stale:\n", len(stale))
	for _, title := range stale {
		b.WriteString("- ")
		b.WriteString(title)
		b.WriteString("\n")
	}
	if err := i.notify.Send(ctx, i.channel, b.String()); err != nil {
		return fmt.Errorf("stale sweep: %w", err)
	}
	i.log.Info("stale issues posted", logx.Int("count", len(stale)))
	return nil
}
