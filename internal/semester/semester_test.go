package semester

import (
	"context"
	"testing"
	"time"
)

func mustParse(t *testing.T, pairs [][2]string) *Calendar {
	t.Helper()
	c, err := Parse(pairs, time.UTC)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return c
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 4, 5, 0, time.UTC)
}

func TestActive(t *testing.T) {
	t.Parallel()
	c := mustParse(t, [][2]string{
		{"2026-01-12", "2026-05-01"},
		{"2026-08-24", "2026-12-11"},
	})

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before first semester", day(2026, time.January, 5), false},
		{"first day inclusive", day(2026, time.January, 12), true},
		{"mid semester", day(2026, time.March, 1), true},
		{"last day inclusive", day(2026, time.May, 1), true},
		{"summer gap", day(2026, time.June, 15), false},
		{"fall semester", day(2026, time.October, 1), true},
		{"after last semester", day(2026, time.December, 25), false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := c.Active(tt.at); got != tt.want {
				t.Fatalf("Active(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestActiveIgnoresTimeOfDay(t *testing.T) {
	t.Parallel()
	c := mustParse(t, [][2]string{{"2026-01-12", "2026-05-01"}})
	lastMoment := time.Date(2026, 5, 1, 23, 59, 59, 0, time.UTC)
	if !c.Active(lastMoment) {
		t.Fatal("end date should be inclusive for the whole day")
	}
}

func TestNext(t *testing.T) {
	t.Parallel()
	c := mustParse(t, [][2]string{
		{"2026-01-12", "2026-05-01"},
		{"2026-08-24", "2026-12-11"},
	})

	r, ok := c.Next(day(2026, time.June, 1))
	if !ok {
		t.Fatal("expected an upcoming semester")
	}
	if want := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC); !r.Start.Equal(want) {
		t.Fatalf("Next start = %v, want %v", r.Start, want)
	}
	if _, ok := c.Next(day(2026, time.December, 25)); ok {
		t.Fatal("no semester should follow the last one")
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		pairs [][2]string
	}{
		{"garbage date", [][2]string{{"not-a-date", "2026-05-01"}}},
		{"end before start", [][2]string{{"2026-05-01", "2026-01-12"}}},
		{"overlap", [][2]string{
			{"2026-01-12", "2026-05-01"},
			{"2026-04-01", "2026-06-01"},
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse(tt.pairs, time.UTC); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}

func TestUpdateKeepsPreviousOnError(t *testing.T) {
	t.Parallel()
	c := mustParse(t, [][2]string{{"2026-01-12", "2026-05-01"}})
	bad := []Range{{
		Start: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
	if err := c.Update(bad); err == nil {
		t.Fatal("expected error for inverted range")
	}
	if !c.Active(day(2026, time.March, 1)) {
		t.Fatal("failed update clobbered the previous ranges")
	}
}

func TestCheckUsesClock(t *testing.T) {
	t.Parallel()
	c := mustParse(t, [][2]string{{"2026-01-12", "2026-05-01"}})
	c.now = func() time.Time { return day(2026, time.March, 1) }
	if !c.Check()(context.Background()) {
		t.Fatal("check should pass inside a semester")
	}
	c.now = func() time.Time { return day(2026, time.July, 1) }
	if c.Check()(context.Background()) {
		t.Fatal("check should fail between semesters")
	}
}
