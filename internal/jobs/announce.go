package jobs

import (
	"context"
	"fmt"
	"time"

	"milbot/internal/task/supervisor"
	logx "milbot/pkg/logx"
)

// Announcer posts messages after a delay, keyed by a concurrency id: posting
// again under the same id before the delay elapses replaces the pending
// post instead of duplicating it. Webhook-driven notifications use this to
// coalesce bursts.
type Announcer struct {
	log     logx.Logger
	sup     *supervisor.Supervisor
	notify  Notifier
	channel string
}

func NewAnnouncer(log logx.Logger, sup *supervisor.Supervisor, notify Notifier, channel string) *Announcer {
	return &Announcer{
		log:     log.With(logx.String("comp", "announce")),
		sup:     sup,
		notify:  notify,
		channel: channel,
	}
}

// PostIn schedules message after delay. A non-positive delay is rejected;
// callers wanting an immediate post should send directly.
func (a *Announcer) PostIn(delay time.Duration, id, message string) error {
	if id == "" {
		return fmt.Errorf("announce: id required")
	}
	name := "announce/" + id
	err := a.sup.RunIn(delay, name, func(ctx context.Context) error {
		return a.notify.Send(ctx, a.channel, message)
	})
	if err != nil {
		return err
	}
	a.log.Debug("announcement queued", logx.String("id", id), logx.Duration("delay", delay))
	return nil
}
