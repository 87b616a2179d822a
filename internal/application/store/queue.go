// Package store holds the per-session optimistic client state. Mutations
// apply locally at once and are reconciled with the remote APIs on a FIFO
// queue per store.
package store

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sangkips/storefront-api/pkg/apperror"
)

var (
	// ErrQueueFull is returned when too many remote syncs are pending
	ErrQueueFull = apperror.NewAppError(http.StatusTooManyRequests, "Too many pending changes, try again shortly")
	// ErrClosed is returned by mutations on a closed store
	ErrClosed = errors.New("store closed")
)

const defaultSyncTimeout = 15 * time.Second

// syncQueue runs jobs one at a time in submission order
type syncQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	jobs    []func(context.Context)
	running bool
	closed  bool
	limit   int
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func newSyncQueue(limit int, timeout time.Duration) *syncQueue {
	if timeout <= 0 {
		timeout = defaultSyncTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &syncQueue{
		limit:   limit,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// push enqueues a job; the caller may hold its own store lock
func (q *syncQueue) push(job func(context.Context)) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	if q.limit > 0 && len(q.jobs) >= q.limit {
		return ErrQueueFull
	}
	q.jobs = append(q.jobs, job)
	q.cond.Signal()
	return nil
}

// room reports whether another job would be accepted
func (q *syncQueue) room() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	if q.limit > 0 && len(q.jobs) >= q.limit {
		return ErrQueueFull
	}
	return nil
}

func (q *syncQueue) busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running || len(q.jobs) > 0
}

// flush waits until every job queued before the call has finished
func (q *syncQueue) flush(ctx context.Context) error {
	barrier := make(chan struct{})
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return nil
	}
	q.jobs = append(q.jobs, func(context.Context) { close(barrier) })
	q.cond.Signal()
	q.mu.Unlock()

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close drains the queue and stops the worker
func (q *syncQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	<-q.done
	q.cancel()
}

func (q *syncQueue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.jobs) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs[0] = nil
		q.jobs = q.jobs[1:]
		q.running = true
		q.mu.Unlock()

		ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
		job(ctx)
		cancel()

		q.mu.Lock()
		q.running = false
		q.mu.Unlock()
	}
}

// observers is a small subscription registry
type observers[S any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(S)
}

func (o *observers[S]) subscribe(fn func(S)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fns == nil {
		o.fns = make(map[int]func(S))
	}
	id := o.next
	o.next++
	o.fns[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.fns, id)
	}
}

func (o *observers[S]) notify(s S) {
	o.mu.Lock()
	fns := make([]func(S), 0, len(o.fns))
	for _, fn := range o.fns {
		fns = append(fns, fn)
	}
	o.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}
