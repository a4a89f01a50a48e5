// Package storage keeps the run-history journal: one record per task
// lifecycle event (started, finished, failed, skipped).
//
// The journal is observability only. No schedule state is persisted; after
// a restart every job recomputes its next occurrence from code and config.
package storage
