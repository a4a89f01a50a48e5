package jobs

import (
	"context"
	"fmt"
	"time"

	"milbot/internal/semester"
	"milbot/internal/task/schedule"
	logx "milbot/pkg/logx"
)

// Reports owns the weekly activity-report cadence:
//
//	Friday 12:00   post the report reminder (semester only)
//	Sunday 12:00   first individual nudge (semester only)
//	Sunday 20:00   second individual nudge (semester only)
//	Monday 00:00   last-week summary + grading sweep
type Reports struct {
	log     logx.Logger
	notify  Notifier
	sem     *semester.Calendar
	channel string
}

func NewReports(log logx.Logger, notify Notifier, sem *semester.Calendar, channel string) *Reports {
	return &Reports{
		log:     log.With(logx.String("comp", "reports")),
		notify:  notify,
		sem:     sem,
		channel: channel,
	}
}

func (r *Reports) Jobs() []schedule.Job {
	active := r.sem.Check()
	return []schedule.Job{
		schedule.Weekly("reports.post-reminder",
			[]time.Weekday{time.Friday}, 12, 0, r.postReminder,
			schedule.WithCheck(active)),
		schedule.Weekly("reports.first-individual-reminder",
			[]time.Weekday{time.Sunday}, 12, 0, r.firstIndividualReminder,
			schedule.WithCheck(active)),
		schedule.Weekly("reports.second-individual-reminder",
			[]time.Weekday{time.Sunday}, 20, 0, r.secondIndividualReminder,
			schedule.WithCheck(active)),
		schedule.Weekly("reports.last-week-summary",
			[]time.Weekday{time.Monday}, 0, 0, r.lastWeekSummary),
		schedule.Weekly("reports.ensure-graded",
			[]time.Weekday{time.Monday}, 0, 0, r.ensureGraded),
	}
}

func (r *Reports) postReminder(ctx context.Context) error {
	msg := "Weekly reports are due Sunday at 23:59. Please submit yours before the deadline."
	if err := r.notify.Send(ctx, r.channel, msg); err != nil {
		return fmt.Errorf("post reminder: %w", err)
	}
	r.log.Info("report reminder posted")
	return nil
}

func (r *Reports) firstIndividualReminder(ctx context.Context) error {
	msg := "Reminder: your weekly report has not been submitted yet. It is due tonight at 23:59."
	if err := r.notify.Send(ctx, r.channel, msg); err != nil {
		return fmt.Errorf("first individual reminder: %w", err)
	}
	return nil
}

func (r *Reports) secondIndividualReminder(ctx context.Context) error {
	msg := "Final reminder: weekly reports close at 23:59 tonight."
	if err := r.notify.Send(ctx, r.channel, msg); err != nil {
		return fmt.Errorf("second individual reminder: %w", err)
	}
	return nil
}

func (r *Reports) lastWeekSummary(ctx context.Context) error {
	msg := "Last week's report window has closed. Summary is being prepared for the leads channel."
	if err := r.notify.Send(ctx, r.channel, msg); err != nil {
		return fmt.Errorf("last week summary: %w", err)
	}
	r.log.Info("last-week summary posted")
	return nil
}

func (r *Reports) ensureGraded(ctx context.Context) error {
	// Grading lives in the spreadsheet layer owned by the leads; this job
	// only nags when the previous week is still ungraded.
	msg := "Heads up: last week's reports still need grading before tonight."
	if err := r.notify.Send(ctx, r.channel, msg); err != nil {
		return fmt.Errorf("ensure graded: %w", err)
	}
	return nil
}
