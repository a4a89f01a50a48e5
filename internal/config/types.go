package config

// Config is the bot's on-disk configuration. The file may be YAML or JSON;
// unknown fields are rejected.
type Config struct {
	// Timezone is an IANA name (e.g. "America/New_York"). Empty means the
	// process-local zone. All weekly schedules are interpreted in it.
	Timezone string `json:"timezone,omitempty"`

	Logging LoggingConfig `json:"logging"`
	Pprof   PprofConfig   `json:"pprof,omitempty"`
	Storage StorageConfig `json:"storage,omitempty"`

	// Semesters are inclusive "YYYY-MM-DD" date ranges during which the
	// report jobs are live. Outside them, checks skip the bodies.
	Semesters []SemesterRange `json:"semesters"`

	Jobs JobsConfig `json:"jobs"`
}

type LoggingConfig struct {
	Level   string          `json:"level,omitempty"`
	Console bool            `json:"console"`
	File    FileLogConfig   `json:"file,omitempty"`
	Notify  NotifyLogConfig `json:"notify,omitempty"`
}

type FileLogConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// NotifyLogConfig forwards high-severity log lines to the operator channel
// hook, rate limited.
type NotifyLogConfig struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

type SemesterRange struct {
	Start string `json:"start"` // YYYY-MM-DD, inclusive
	End   string `json:"end"`   // YYYY-MM-DD, inclusive
}

// JobsConfig toggles the bot's job owners and tunes their knobs.
//
// Enabled pointers distinguish "omitted" (default true) from an explicit
// false.
type JobsConfig struct {
	ReportsEnabled  *bool `json:"reports_enabled,omitempty"`
	ProjectsEnabled *bool `json:"projects_enabled,omitempty"`
	IssuesEnabled   *bool `json:"issues_enabled,omitempty"`

	// CalendarRefresh is a cron spec or "@every <duration>" for the calendar
	// aggregation loop. Empty disables it.
	CalendarRefresh string `json:"calendar_refresh,omitempty"`

	// ReportsChannel is the opaque channel identifier report reminders are
	// sent to by the host-supplied notifier.
	ReportsChannel string `json:"reports_channel,omitempty"`
}

// StorageConfig controls the optional run-history journal.
//
// Driver values:
//   - "file": dependency-free jsonl journal
//   - "sqlite": SQLite database file (build with -tags sqlite)
//
// Empty or "none" disables it.
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// PprofConfig controls the optional profiling listener. Keep it on loopback.
type PprofConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:6060"
}

func (c *Config) ReportsEnabled() bool  { return boolOr(c.Jobs.ReportsEnabled, true) }
func (c *Config) ProjectsEnabled() bool { return boolOr(c.Jobs.ProjectsEnabled, true) }
func (c *Config) IssuesEnabled() bool   { return boolOr(c.Jobs.IssuesEnabled, true) }

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// SemesterPairs flattens the configured ranges for semester.Parse.
func (c *Config) SemesterPairs() [][2]string {
	out := make([][2]string, 0, len(c.Semesters))
	for _, s := range c.Semesters {
		out = append(out, [2]string{s.Start, s.End})
	}
	return out
}
