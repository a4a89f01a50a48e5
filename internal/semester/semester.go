// Package semester tracks the lab's academic calendar. Report jobs use it
// as their readiness check: outside an active semester the weekly cadence
// keeps running but bodies are skipped.
package semester

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"milbot/internal/task/schedule"
)

const dateLayout = "2006-01-02"

// Range is one semester, inclusive on both ends. Start and End carry date
// precision only.
type Range struct {
	Start time.Time
	End   time.Time
}

// Calendar is an ordered list of semesters. It may be updated live when the
// config file changes.
type Calendar struct {
	mu     sync.RWMutex
	ranges []Range
	now    func() time.Time
}

// New builds a calendar from date-range pairs. Ranges are sorted by start
// and must be well-formed and non-overlapping.
func New(ranges []Range) (*Calendar, error) {
	rs, err := normalize(ranges)
	if err != nil {
		return nil, err
	}
	return &Calendar{ranges: rs, now: time.Now}, nil
}

// Update replaces the calendar's ranges, validating first.
func (c *Calendar) Update(ranges []Range) error {
	rs, err := normalize(ranges)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.ranges = rs
	c.mu.Unlock()
	return nil
}

func normalize(ranges []Range) ([]Range, error) {
	rs := append([]Range(nil), ranges...)
	sort.Slice(rs, func(i, j int) bool { return rs[i].Start.Before(rs[j].Start) })
	for i, r := range rs {
		if r.End.Before(r.Start) {
			return nil, fmt.Errorf("semester %d: end %s before start %s",
				i, r.End.Format(dateLayout), r.Start.Format(dateLayout))
		}
		if i > 0 && !rs[i-1].End.Before(r.Start) {
			return nil, fmt.Errorf("semester %d overlaps previous (start %s)",
				i, r.Start.Format(dateLayout))
		}
	}
	return rs, nil
}

// ParseRanges parses "YYYY-MM-DD" start/end string pairs.
func ParseRanges(pairs [][2]string, loc *time.Location) ([]Range, error) {
	if loc == nil {
		loc = time.Local
	}
	rs := make([]Range, 0, len(pairs))
	for i, p := range pairs {
		start, err := time.ParseInLocation(dateLayout, p[0], loc)
		if err != nil {
			return nil, fmt.Errorf("semester %d: invalid start %q: %w", i, p[0], err)
		}
		end, err := time.ParseInLocation(dateLayout, p[1], loc)
		if err != nil {
			return nil, fmt.Errorf("semester %d: invalid end %q: %w", i, p[1], err)
		}
		rs = append(rs, Range{Start: start, End: end})
	}
	return rs, nil
}

// Parse builds a calendar from "YYYY-MM-DD" start/end string pairs.
func Parse(pairs [][2]string, loc *time.Location) (*Calendar, error) {
	rs, err := ParseRanges(pairs, loc)
	if err != nil {
		return nil, err
	}
	return New(rs)
}

// Active reports whether t falls inside a semester. Between semesters (or
// after the last one) it is false.
func (c *Calendar) Active(t time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	day := date(t)
	for _, r := range c.ranges {
		if !day.Before(date(r.Start)) && !day.After(date(r.End)) {
			return true
		}
		// Ranges are sorted; once we're before a range's start, no later
		// range can contain the day either.
		if day.Before(date(r.Start)) {
			return false
		}
	}
	return false
}

// Next returns the first semester starting after t, if any.
func (c *Calendar) Next(t time.Time) (Range, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	day := date(t)
	for _, r := range c.ranges {
		if day.Before(date(r.Start)) {
			return r, true
		}
	}
	return Range{}, false
}

// Check adapts the calendar into a job readiness predicate.
func (c *Calendar) Check() schedule.CheckFunc {
	return func(context.Context) bool {
		return c.Active(c.now())
	}
}

func date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
