// Package jobs declares the bot's scheduled work: weekly report reminders,
// project check-ins, stale-issue sweeps, and the calendar refresh loop.
//
// Bodies talk to the outside world only through the small ports below; chat
// delivery, forge queries, and calendar fetching are host-supplied.
package jobs

import (
	"context"
	"time"
)

// Notifier posts a message to an opaque channel identifier.
type Notifier interface {
	Send(ctx context.Context, channel, message string) error
}

// Forge exposes the minimal source-forge queries the jobs need.
type Forge interface {
	// StaleIssues lists open issue titles untouched for longer than age.
	StaleIssues(ctx context.Context, age time.Duration) ([]string, error)
}

// CalendarSource aggregates external calendars into whatever the host
// displays; the refresh loop only triggers it.
type CalendarSource interface {
	Refresh(ctx context.Context) error
}
