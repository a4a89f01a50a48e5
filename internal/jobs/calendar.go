package jobs

import (
	"context"
	"fmt"

	"milbot/internal/task/schedule"
	logx "milbot/pkg/logx"
)

// Calendar keeps the aggregated lab calendar fresh. Unlike the weekly jobs
// it is interval work, so it rides a cron spec ("@every 30m" and the like).
type Calendar struct {
	log    logx.Logger
	source CalendarSource
}

func NewCalendar(log logx.Logger, source CalendarSource) *Calendar {
	return &Calendar{log: log.With(logx.String("comp", "calendar")), source: source}
}

// Job builds the refresh loop from the configured spec.
func (c *Calendar) Job(spec string) (schedule.Job, error) {
	j, err := schedule.Cron("calendar.refresh", spec, c.refresh)
	if err != nil {
		return nil, fmt.Errorf("calendar refresh: %w", err)
	}
	return j, nil
}

func (c *Calendar) refresh(ctx context.Context) error {
	if err := c.source.Refresh(ctx); err != nil {
		return fmt.Errorf("calendar refresh: %w", err)
	}
	c.log.Debug("calendar refreshed")
	return nil
}
