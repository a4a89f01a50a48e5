package app

import (
	"context"
	"time"

	logx "milbot/pkg/logx"
)

// The logged* ports let the bot run without any outside integration wired
// in: every send becomes a log line. Useful in development and in tests.

type loggedNotifier struct{ log logx.Logger }

func (n loggedNotifier) Send(_ context.Context, channel, message string) error {
	n.log.Info("notify", logx.String("channel", channel), logx.String("message", message))
	return nil
}

type loggedForge struct{ log logx.Logger }

func (f loggedForge) StaleIssues(context.Context, time.Duration) ([]string, error) {
	f.log.Debug("stale issue sweep requested; no forge configured")
	return nil, nil
}

type loggedCalendar struct{ log logx.Logger }

func (c loggedCalendar) Refresh(context.Context) error {
	c.log.Debug("calendar refresh requested; no source configured")
	return nil
}
