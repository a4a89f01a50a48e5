package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the journal backend.
//
// Driver values:
//   - "file": dependency-free jsonl journal
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// RunRecord is one journal line. Keep it compact and schema-stable.
type RunRecord struct {
	At       time.Time     `json:"at"`
	Name     string        `json:"name"`
	Event    string        `json:"event"` // task.started / task.finished / task.failed / job.skipped
	Duration time.Duration `json:"duration,omitempty"`
	Error    string        `json:"error,omitempty"`
}
