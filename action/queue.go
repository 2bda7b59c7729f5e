package action

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Queue.Dispatch after Close.
var ErrQueueClosed = errors.New("action queue closed")

// Queue serializes dispatches for one session: actions are applied one at a time in
// arrival order.
type Queue struct {
	d         *Dispatcher
	jobs      chan job
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type job struct {
	ctx   context.Context
	a     Action
	reply chan jobResult
}

type jobResult struct {
	a   Action
	err error
}

// NewQueue starts a Queue in front of d with room for size waiting actions.
func NewQueue(d *Dispatcher, size int) *Queue {
	if size <= 0 {
		size = 32
	}
	q := &Queue{d: d, jobs: make(chan job, size), done: make(chan struct{})}
	q.wg.Add(1)
	go q.drain()
	return q
}

// Dispatch enqueues a and waits for it to be applied.
func (q *Queue) Dispatch(ctx context.Context, a Action) (Action, error) {
	j := job{ctx: ctx, a: a, reply: make(chan jobResult, 1)}
	select {
	case <-q.done:
		return a, ErrQueueClosed
	default:
	}
	select {
	case q.jobs <- j:
	case <-q.done:
		return a, ErrQueueClosed
	case <-ctx.Done():
		return a, ctx.Err()
	}
	select {
	case r := <-j.reply:
		return r.a, r.err
	case <-ctx.Done():
		return a, ctx.Err()
	}
}

// Close stops the queue after the action in progress. Waiting actions fail with ErrQueueClosed.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
	q.wg.Wait()
}

func (q *Queue) drain() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			for {
				select {
				case j := <-q.jobs:
					j.reply <- jobResult{a: j.a, err: ErrQueueClosed}
				default:
					return
				}
			}
		case j := <-q.jobs:
			if err := j.ctx.Err(); err != nil {
				j.reply <- jobResult{a: j.a, err: err}
				continue
			}
			a, err := q.d.Dispatch(j.ctx, j.a)
			j.reply <- jobResult{a: a, err: err}
		}
	}
}
