package supervisor

import (
	"context"
	"sync"
)

type createReq struct {
	name string
	fn   Func
	// ready receives the installed task (buffered, cap 1). nil for
	// fire-and-forget requests.
	ready chan *Task
}

// createQueue is an unbounded FIFO. CreateTask must never block, including
// when called from inside a completing task, so a fixed-capacity channel is
// not enough here.
type createQueue struct {
	mu     sync.Mutex
	items  []createReq
	signal chan struct{}
}

func newCreateQueue() *createQueue {
	return &createQueue{signal: make(chan struct{}, 1)}
}

func (q *createQueue) push(r createReq) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// pop blocks until a request is available or ctx is done.
func (q *createQueue) pop(ctx context.Context) (createReq, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			r := q.items[0]
			q.items[0] = createReq{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return r, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return createReq{}, false
		case <-q.signal:
		}
	}
}

func (q *createQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
