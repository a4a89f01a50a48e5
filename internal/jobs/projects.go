package jobs

import (
	"context"
	"fmt"
	"time"

	"milbot/internal/task/schedule"
	logx "milbot/pkg/logx"
)

// Projects nudges members to keep their project assignments current.
// Both jobs run twice a week; the scheduler picks whichever of Monday or
// Thursday comes first.
type Projects struct {
	log     logx.Logger
	notify  Notifier
	channel string
}

func NewProjects(log logx.Logger, notify Notifier, channel string) *Projects {
	return &Projects{
		log:     log.With(logx.String("comp", "projects")),
		notify:  notify,
		channel: channel,
	}
}

func (p *Projects) Jobs() []schedule.Job {
	monThu := []time.Weekday{time.Monday, time.Thursday}
	return []schedule.Job{
		schedule.Weekly("projects.join-reminder", monThu, 0, 0, p.joinReminder),
		schedule.Weekly("projects.whos-on-what", monThu, 0, 0, p.whosOnWhat),
	}
}

func (p *Projects) joinReminder(ctx context.Context) error {
	msg := "If you haven't joined a project team yet, pick one in the projects channel."
	if err := p.notify.Send(ctx, p.channel, msg); err != nil {
		return fmt.Errorf("join reminder: %w", err)
	}
	return nil
}

func (p *Projects) whosOnWhat(ctx context.Context) error {
	msg := "Updated who's-on-what roster has been refreshed from the project boards."
	if err := p.notify.Send(ctx, p.channel, msg); err != nil {
		return fmt.Errorf("whos-on-what: %w", err)
	}
	p.log.Info("roster refresh posted")
	return nil
}
