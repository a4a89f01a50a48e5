package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"milbot/internal/semester"
	logx "milbot/pkg/logx"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, channel, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, channel+": "+message)
	return nil
}

func (n *fakeNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

type fakeForge struct {
	stale []string
	err   error
}

func (f *fakeForge) StaleIssues(context.Context, time.Duration) ([]string, error) {
	return f.stale, f.err
}

func testCalendar(t *testing.T) *semester.Calendar {
	t.Helper()
	c, err := semester.Parse([][2]string{{"2026-01-12", "2026-05-01"}}, time.UTC)
	if err != nil {
		t.Fatalf("semester.Parse: %v", err)
	}
	return c
}

func TestReportsDeclaresWeeklyCadence(t *testing.T) {
	t.Parallel()
	r := NewReports(logx.Nop(), &fakeNotifier{}, testCalendar(t), "general")

	js := r.Jobs()
	want := []string{
		"reports.post-reminder",
		"reports.first-individual-reminder",
		"reports.second-individual-reminder",
		"reports.last-week-summary",
		"reports.ensure-graded",
	}
	if len(js) != len(want) {
		t.Fatalf("declared %d jobs, want %d", len(js), len(want))
	}
	for i, name := range want {
		if js[i].Name() != name {
			t.Fatalf("job %d = %s, want %s", i, js[i].Name(), name)
		}
	}
}

func TestReportsBodiesNotify(t *testing.T) {
	t.Parallel()
	n := &fakeNotifier{}
	r := NewReports(logx.Nop(), n, testCalendar(t), "general")

	if err := r.postReminder(context.Background()); err != nil {
		t.Fatalf("postReminder: %v", err)
	}
	msgs := n.messages()
	if len(msgs) != 1 || !strings.HasPrefix(msgs[0], "general: ") {
		t.Fatalf("messages = %v", msgs)
	}
}

func TestReportsNotifierErrorPropagates(t *testing.T) {
	t.Parallel()
	boom := errors.New("chat down")
	r := NewReports(logx.Nop(), &fakeNotifier{err: boom}, testCalendar(t), "general")
	if err := r.postReminder(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestProjectsDeclaresTwiceWeekly(t *testing.T) {
	t.Parallel()
	p := NewProjects(logx.Nop(), &fakeNotifier{}, "general")
	js := p.Jobs()
	if len(js) != 2 {
		t.Fatalf("declared %d jobs, want 2", len(js))
	}
	if js[0].Name() != "projects.join-reminder" || js[1].Name() != "projects.whos-on-what" {
		t.Fatalf("names = %s, %s", js[0].Name(), js[1].Name())
	}
}

func TestIssuesStaleSweep(t *testing.T) {
	t.Parallel()
	n := &fakeNotifier{}
	i := NewIssues(logx.Nop(), n, &fakeForge{stale: []string{"fix the arm", "docs rot"}}, "leads")

	if err := i.staleSweep(context.Background()); err != nil {
		t.Fatalf("staleSweep: %v", err)
	}
	msgs := n.messages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %v", msgs)
	}
	if !strings.Contains(msgs[0], "2 issue(s)") || !strings.Contains(msgs[0], "fix the arm") {
		t.Fatalf("sweep message = %q", msgs[0])
	}
}

func TestIssuesStaleSweepQuietWhenClean(t *testing.T) {
	t.Parallel()
	n := &fakeNotifier{}
	i := NewIssues(logx.Nop(), n, &fakeForge{}, "leads")
	if err := i.staleSweep(context.Background()); err != nil {
		t.Fatalf("staleSweep: %v", err)
	}
	if len(n.messages()) != 0 {
		t.Fatal("posted despite nothing stale")
	}
}

func TestIssuesForgeErrorPropagates(t *testing.T) {
	t.Parallel()
	boom := errors.New("forge 502")
	i := NewIssues(logx.Nop(), &fakeNotifier{}, &fakeForge{err: boom}, "leads")
	if err := i.staleSweep(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestCalendarJobSpec(t *testing.T) {
	t.Parallel()
	c := NewCalendar(logx.Nop(), calendarFunc(func(context.Context) error { return nil }))
	if _, err := c.Job("@every 30m"); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}
	if _, err := c.Job("every half hour"); err == nil {
		t.Fatal("invalid spec accepted")
	}
}

type calendarFunc func(ctx context.Context) error

func (f calendarFunc) Refresh(ctx context.Context) error { return f(ctx) }
