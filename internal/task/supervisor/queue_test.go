package supervisor

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestCreateQueueFIFO(t *testing.T) {
	t.Parallel()
	q := newCreateQueue()
	for i := 0; i < 5; i++ {
		q.push(createReq{name: fmt.Sprintf("t%d", i)})
	}
	if n := q.len(); n != 5 {
		t.Fatalf("len = %d, want 5", n)
	}
	for i := 0; i < 5; i++ {
		r, ok := q.pop(context.Background())
		if !ok {
			t.Fatalf("pop %d: queue closed", i)
		}
		if want := fmt.Sprintf("t%d", i); r.name != want {
			t.Fatalf("pop %d = %q, want %q", i, r.name, want)
		}
	}
}

func TestCreateQueuePopBlocksUntilPush(t *testing.T) {
	t.Parallel()
	q := newCreateQueue()
	got := make(chan createReq, 1)
	go func() {
		r, ok := q.pop(context.Background())
		if ok {
			got <- r
		}
	}()
	time.Sleep(10 * time.Millisecond)
	q.push(createReq{name: "later"})
	select {
	case r := <-got:
		if r.name != "later" {
			t.Fatalf("pop = %q, want later", r.name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pop never woke up")
	}
}

func TestCreateQueuePopHonorsContext(t *testing.T) {
	t.Parallel()
	q := newCreateQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := q.pop(ctx); ok {
		t.Fatal("pop returned a request from an empty queue")
	}
}
