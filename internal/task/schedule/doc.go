// Package schedule declares the bot's calendar-anchored jobs.
//
// A RecurringJob fires at a weekday + time-of-day (optionally several
// weekdays, optionally shifted by an offset) and re-arms itself through the
// supervisor before each body run, so a crashing body never loses the next
// occurrence. A CronJob is the same loop driven by a robfig/cron spec for
// interval-style work. The Registry is where owners declare their jobs so
// admin tooling can enumerate and trigger them.
package schedule
